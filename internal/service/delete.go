package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sakif/pantry/internal/apperror"
	"github.com/sakif/pantry/internal/model"
)

// Confirmer asks the user whether an item should really be deleted.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string, item model.FoodItem) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string, item model.FoodItem) (bool, error)

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string, item model.FoodItem) (bool, error) {
	return f(ctx, prompt, item)
}

// AlwaysConfirm approves every deletion.
var AlwaysConfirm = ConfirmFunc(func(context.Context, string, model.FoodItem) (bool, error) {
	return true, nil
})

// Notifier surfaces the outcome of a user action.
type Notifier interface {
	Success(ctx context.Context, message string)
	Failure(ctx context.Context, message string)
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Success(ctx context.Context, message string) {
	n.logger().InfoContext(ctx, message, slog.String("kind", "success"))
}

func (n LogNotifier) Failure(ctx context.Context, message string) {
	n.logger().WarnContext(ctx, message, slog.String("kind", "failure"))
}

func (n LogNotifier) logger() *slog.Logger {
	if n.Logger == nil {
		return slog.Default()
	}
	return n.Logger
}

// DeleteOutcome says how a delete request ended.
type DeleteOutcome string

const (
	DeleteCancelled  DeleteOutcome = "cancelled"
	DeleteDone       DeleteOutcome = "deleted"
	DeleteRolledBack DeleteOutcome = "rolled-back"
)

// Delete asks confirm before removing the item with id. The removal is
// applied to the store immediately and then saved. When the save fails the
// item is put back, the failure is notified, and an apperror.ErrUnavailable
// error is returned alongside DeleteRolledBack.
func (s *FoodService) Delete(ctx context.Context, id string, confirm Confirmer) (DeleteOutcome, error) {
	item, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if confirm == nil {
		confirm = AlwaysConfirm
	}

	ok, err := confirm.Confirm(ctx, fmt.Sprintf(model.MsgDeleteConfirmTemplate, item.Name), item)
	if err != nil {
		return "", fmt.Errorf("confirming delete of %s: %w", id, err)
	}
	if !ok {
		s.logger.Info("food item delete cancelled", slog.String("id", id))
		return DeleteCancelled, nil
	}

	removal := s.store.DeleteFoodItem(id)
	if !removal.Found {
		return "", notFound(id)
	}

	if err := s.store.Save(ctx); err != nil {
		s.store.Rollback(removal)
		s.logger.Error("failed to delete food item",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		s.notifier.Failure(ctx, model.MsgDeleteFailed)
		return DeleteRolledBack, apperror.Unavailable(model.MsgDeleteFailed, err)
	}

	s.notifier.Success(ctx, model.MsgDeleted)
	s.logger.Info("food item deleted", slog.String("id", id))
	return DeleteDone, nil
}
