// Package service contains the business rules that sit between transports
// (HTTP, CLI) and the inventory store.
//
// The store itself accepts anything and never fails. FoodService is where
// form input gets validated, ids and timestamps get assigned, and deletes
// are confirmed and rolled back when they cannot be saved.
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/xid"

	"github.com/sakif/pantry/internal/apperror"
	"github.com/sakif/pantry/internal/inventory"
	"github.com/sakif/pantry/internal/model"
)

// FoodService handles food item operations on top of an inventory.Store.
type FoodService struct {
	store    *inventory.Store
	validate *validator.Validate
	notifier Notifier
	logger   *slog.Logger
}

// NewFoodService creates a FoodService. A nil notifier logs through logger.
func NewFoodService(store *inventory.Store, notifier Notifier, logger *slog.Logger) *FoodService {
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	return &FoodService{
		store:    store,
		validate: newValidator(),
		notifier: notifier,
		logger:   logger,
	}
}

// Now returns the inventory clock's current time.
func (s *FoodService) Now() time.Time { return s.store.Now() }

// Create validates in, assigns an id and timestamps, and adds the item to
// the front of the inventory.
func (s *FoodService) Create(ctx context.Context, in CreateInput) (model.FoodItem, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	in.Category = strings.TrimSpace(in.Category)
	in.ImageURL = blankToNil(in.ImageURL)

	if err := s.validate.StructCtx(ctx, in); err != nil {
		return model.FoodItem{}, validationError(err)
	}

	now := s.store.Now()
	exp, err := expirationFrom(in.ExpirationDate, now)
	if err != nil {
		return model.FoodItem{}, err
	}

	item := model.FoodItem{
		ID:             xid.New().String(),
		Name:           in.Name,
		Quantity:       in.Quantity,
		Unit:           in.Unit,
		Category:       in.Category,
		ExpirationDate: exp,
		ImageURL:       in.ImageURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.store.AddFoodItem(item)

	s.logger.Info("food item created",
		slog.String("id", item.ID),
		slog.String("name", item.Name),
	)
	return item, nil
}

// Get returns the displayed item with id.
func (s *FoodService) Get(_ context.Context, id string) (model.FoodItem, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.FoodItem{}, apperror.ValidationFailed("id", "food item ID is required")
	}
	item, ok := s.store.GetItemByID(id)
	if !ok {
		return model.FoodItem{}, notFound(id)
	}
	return item, nil
}

// List returns the displayed items narrowed by the active filters.
func (s *FoodService) List(_ context.Context) []model.FoodItem {
	return s.store.GetFilteredItems()
}

// Expiring returns items that are expiring soon or expired. days is passed
// through to the store, which applies its fixed window.
func (s *FoodService) Expiring(_ context.Context, days int) []model.FoodItem {
	if days <= 0 {
		days = model.ExpirationThresholdDays
	}
	return s.store.GetExpiringItems(days)
}

// UpdateInput is a partial edit. Nil pointers leave fields unchanged; the
// Optional fields also distinguish an explicit null, which clears them.
type UpdateInput struct {
	Name           *string                `json:"name"`
	Quantity       *float64               `json:"quantity"`
	Unit           *string                `json:"unit"`
	Category       *string                `json:"category"`
	ExpirationDate model.Optional[string] `json:"expirationDate"`
	ImageURL       model.Optional[string] `json:"imageUrl"`
}

// Update validates the provided fields and merges them into the item.
// Unlike the store, a missing id is reported as not found.
func (s *FoodService) Update(ctx context.Context, id string, in UpdateInput) (model.FoodItem, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return model.FoodItem{}, err
	}

	patch := model.Patch{
		Name:     trimPtr(in.Name),
		Quantity: in.Quantity,
		Unit:     trimPtr(in.Unit),
		Category: trimPtr(in.Category),
	}
	if in.ImageURL.Set {
		patch.ImageURL = model.Optional[string]{Set: true, Value: blankToNil(in.ImageURL.Value)}
	}

	check := patchInput{
		Name:     patch.Name,
		Quantity: patch.Quantity,
		Unit:     patch.Unit,
		Category: patch.Category,
		ImageURL: patch.ImageURL.Value,
	}
	if err := s.validate.StructCtx(ctx, check); err != nil {
		return model.FoodItem{}, validationError(err)
	}

	if in.ExpirationDate.Set {
		exp, err := expirationFrom(in.ExpirationDate.Value, s.store.Now())
		if err != nil {
			return model.FoodItem{}, err
		}
		patch.ExpirationDate = model.Optional[time.Time]{Set: true, Value: exp}
	}

	if patch.IsEmpty() {
		return s.Get(ctx, id)
	}
	s.store.UpdateFoodItem(id, patch)

	item, ok := s.store.GetItemByID(id)
	if !ok {
		// Deleted between the existence check and the update.
		return model.FoodItem{}, notFound(id)
	}
	s.logger.Info("food item updated", slog.String("id", id))
	return item, nil
}

func notFound(id string) error {
	return apperror.NotFound("food item", id).WithMessage(model.MsgNotFound)
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	return &v
}

func blankToNil(p *string) *string {
	if p == nil || strings.TrimSpace(*p) == "" {
		return nil
	}
	return p
}
