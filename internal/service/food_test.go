package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/pantry/internal/apperror"
	"github.com/sakif/pantry/internal/inventory"
	"github.com/sakif/pantry/internal/model"
	"github.com/sakif/pantry/internal/persistence"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

var testNow = time.Date(2026, time.March, 10, 14, 30, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

// recordingNotifier keeps every notification for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	success  []string
	failures []string
}

func (r *recordingNotifier) Success(_ context.Context, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.success = append(r.success, msg)
}

func (r *recordingNotifier) Failure(_ context.Context, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, msg)
}

// flakyStorage fails writes while failWrites is set.
type flakyStorage struct {
	mu         sync.Mutex
	failWrites bool
	last       persistence.Record
}

func (f *flakyStorage) Read(context.Context) (persistence.Record, bool, error) {
	return persistence.Record{}, false, nil
}

func (f *flakyStorage) Write(_ context.Context, rec persistence.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.New("storage unavailable")
	}
	f.last = rec
	return nil
}

func (f *flakyStorage) setFailing(v bool) {
	f.mu.Lock()
	f.failWrites = v
	f.mu.Unlock()
}

type fixture struct {
	svc      *FoodService
	store    *inventory.Store
	notifier *recordingNotifier
	storage  *flakyStorage
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	storage := &flakyStorage{}
	store := inventory.New(inventory.NewMockSource(testClock),
		inventory.WithLatency(0),
		inventory.WithClock(testClock),
		inventory.WithLogger(logger),
		inventory.WithStorage(storage),
	)
	notifier := &recordingNotifier{}
	return fixture{
		svc:      NewFoodService(store, notifier, logger),
		store:    store,
		notifier: notifier,
		storage:  storage,
	}
}

func strPtr(s string) *string { return &s }

func validInput() CreateInput {
	return CreateInput{
		Name:           "Gạo",
		Quantity:       2,
		Unit:           "kg",
		Category:       "Đồ khô",
		ExpirationDate: strPtr("2026-04-01"),
	}
}

func assertValidation(t *testing.T, err error, field, message string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperror.ErrValidation), "error = %v, want ErrValidation", err)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, field, appErr.Field)
	assert.Equal(t, message, appErr.Message)
}

// =========================================================================
// CREATE
// =========================================================================

func TestCreate_Success(t *testing.T) {
	f := newFixture(t)

	item, err := f.svc.Create(context.Background(), validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "Gạo", item.Name)
	assert.Equal(t, testNow, item.CreatedAt)
	assert.Equal(t, testNow, item.UpdatedAt)
	require.NotNil(t, item.ExpirationDate)
	assert.Equal(t, "2026-04-01", item.ExpirationDate.Format(model.DateLayout))

	st := f.store.State()
	require.Len(t, st.Items, 1)
	assert.Equal(t, item.ID, st.Items[0].ID)
	assert.Len(t, f.storage.last.FoodItems, 1, "store saves after add")
}

func TestCreate_TrimsAndAllowsMissingDate(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Name = "  Muối  "
	in.ExpirationDate = nil

	item, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Muối", item.Name)
	assert.Nil(t, item.ExpirationDate)
}

func TestCreate_AcceptsRFC3339AndToday(t *testing.T) {
	f := newFixture(t)

	in := validInput()
	in.ExpirationDate = strPtr("2026-03-10T00:00:00Z")
	_, err := f.svc.Create(context.Background(), in)
	assert.NoError(t, err, "today is not in the past")
}

func TestCreate_Validation(t *testing.T) {
	tooBig := "data:image/png;base64," + strings.Repeat("A", model.MaxImageSizeBytes/3*4+8)

	tests := []struct {
		name    string
		mutate  func(*CreateInput)
		field   string
		message string
	}{
		{"empty name", func(in *CreateInput) { in.Name = "   " }, "name", model.MsgNameRequired},
		{"long name", func(in *CreateInput) { in.Name = strings.Repeat("á", 101) }, "name", model.MsgNameTooLong},
		{"zero quantity", func(in *CreateInput) { in.Quantity = 0 }, "quantity", model.MsgQuantityMin},
		{"negative quantity", func(in *CreateInput) { in.Quantity = -1 }, "quantity", model.MsgQuantityMin},
		{"missing unit", func(in *CreateInput) { in.Unit = "" }, "unit", model.MsgUnitRequired},
		{"missing category", func(in *CreateInput) { in.Category = "" }, "category", model.MsgCategoryRequired},
		{"bad date", func(in *CreateInput) { in.ExpirationDate = strPtr("10/03/2026") }, "expirationDate", model.MsgExpirationInvalid},
		{"past date", func(in *CreateInput) { in.ExpirationDate = strPtr("2026-03-09") }, "expirationDate", model.MsgExpirationPast},
		{"gif image", func(in *CreateInput) { in.ImageURL = strPtr("data:image/gif;base64,R0lG") }, "imageUrl", model.MsgImageInvalid},
		{"huge image", func(in *CreateInput) { in.ImageURL = &tooBig }, "imageUrl", model.MsgImageTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := validInput()
			tt.mutate(&in)

			_, err := f.svc.Create(context.Background(), in)
			assertValidation(t, err, tt.field, tt.message)
			assert.Empty(t, f.store.State().Items, "invalid input must not reach the store")
		})
	}
}

func TestCreate_AcceptsOutOfListCategoryAndUnit(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Category = "Gia vị"
	in.Unit = "lọ"
	in.ImageURL = strPtr("data:image/webp;base64,UklGRg==")

	item, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "Gia vị", item.Category)
	require.NotNil(t, item.ImageURL)
}

// =========================================================================
// GET / UPDATE
// =========================================================================

func TestGet_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, apperror.ErrNotFound), "error = %v", err)

	_, err = f.svc.Get(context.Background(), " ")
	assert.True(t, errors.Is(err, apperror.ErrValidation))
}

func TestUpdate_MergesFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, validInput())
	require.NoError(t, err)

	qty := 5.0
	updated, err := f.svc.Update(ctx, created.ID, UpdateInput{
		Quantity:       &qty,
		ExpirationDate: model.Null[string](),
	})
	require.NoError(t, err)

	assert.Equal(t, 5.0, updated.Quantity)
	assert.Equal(t, "Gạo", updated.Name)
	assert.Nil(t, updated.ExpirationDate, "explicit null clears the date")
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
	assert.Equal(t, created.ID, updated.ID)
}

func TestUpdate_SetsDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, validInput())
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, created.ID, UpdateInput{ExpirationDate: model.Some("2026-03-12")})
	require.NoError(t, err)
	assert.Equal(t, model.StatusExpiringSoon, updated.Status(testNow))
}

func TestUpdate_NotFound(t *testing.T) {
	f := newFixture(t)
	name := "x"
	_, err := f.svc.Update(context.Background(), "missing", UpdateInput{Name: &name})
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestUpdate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	created, err := f.svc.Create(ctx, validInput())
	require.NoError(t, err)

	empty := " "
	_, err = f.svc.Update(ctx, created.ID, UpdateInput{Name: &empty})
	assertValidation(t, err, "name", model.MsgNameRequired)

	zero := 0.0
	_, err = f.svc.Update(ctx, created.ID, UpdateInput{Quantity: &zero})
	assertValidation(t, err, "quantity", model.MsgQuantityMin)

	_, err = f.svc.Update(ctx, created.ID, UpdateInput{ExpirationDate: model.Some("2020-01-01")})
	assertValidation(t, err, "expirationDate", model.MsgExpirationPast)

	_, err = f.svc.Update(ctx, created.ID, UpdateInput{ImageURL: model.Some("http://example.com/a.png")})
	assertValidation(t, err, "imageUrl", model.MsgImageInvalid)

	got, err := f.svc.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, got, "failed updates leave the item untouched")
}

// =========================================================================
// DELETE
// =========================================================================

func TestDelete_Confirmed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item, err := f.svc.Create(ctx, validInput())
	require.NoError(t, err)

	var prompt string
	outcome, err := f.svc.Delete(ctx, item.ID, ConfirmFunc(func(_ context.Context, p string, _ model.FoodItem) (bool, error) {
		prompt = p
		return true, nil
	}))
	require.NoError(t, err)

	assert.Equal(t, DeleteDone, outcome)
	assert.Equal(t, `Bạn có chắc chắn muốn xóa "Gạo"?`, prompt)
	assert.Empty(t, f.store.State().Items)
	assert.Empty(t, f.storage.last.FoodItems)
	assert.Equal(t, []string{model.MsgDeleted}, f.notifier.success)
}

func TestDelete_Cancelled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item, err := f.svc.Create(ctx, validInput())
	require.NoError(t, err)

	outcome, err := f.svc.Delete(ctx, item.ID, ConfirmFunc(func(context.Context, string, model.FoodItem) (bool, error) {
		return false, nil
	}))
	require.NoError(t, err)

	assert.Equal(t, DeleteCancelled, outcome)
	assert.Len(t, f.store.State().Items, 1)
	assert.Empty(t, f.notifier.success)
	assert.Empty(t, f.notifier.failures)
}

func TestDelete_SaveFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Refetch(ctx))
	before := f.store.State().Items

	f.storage.setFailing(true)
	outcome, err := f.svc.Delete(ctx, "3", AlwaysConfirm)

	assert.ErrorIs(t, err, apperror.ErrUnavailable)
	assert.Equal(t, DeleteRolledBack, outcome)
	assert.Equal(t, []string{model.MsgDeleteFailed}, f.notifier.failures)

	after := f.store.State().Items
	require.Len(t, after, len(before))
	assert.Equal(t, "3", after[0].ID, "rolled-back item returns to the front")
}

func TestDelete_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Delete(context.Background(), "missing", AlwaysConfirm)
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestDelete_ConfirmerError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item, err := f.svc.Create(ctx, validInput())
	require.NoError(t, err)

	boom := errors.New("stdin closed")
	_, err = f.svc.Delete(ctx, item.ID, ConfirmFunc(func(context.Context, string, model.FoodItem) (bool, error) {
		return false, boom
	}))
	assert.ErrorIs(t, err, boom)
	assert.Len(t, f.store.State().Items, 1)
}

// =========================================================================
// FEED
// =========================================================================

func TestFeed_FetchNextPageStopsWhenExhausted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Refetch(ctx))

	for range 10 {
		require.NoError(t, f.svc.FetchNextPage(ctx))
	}
	st := f.store.State()
	assert.Len(t, st.Items, 30)
	assert.False(t, st.HasMore)
	assert.Equal(t, 4, st.CurrentPage, "no further loads once exhausted")
}

func TestFeed_ApplyCategoryFilterReloads(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Refetch(ctx))

	require.NoError(t, f.svc.ApplyCategoryFilter(ctx, strPtr("Rau củ")))
	feed := f.svc.Feed(ctx)
	assert.Len(t, feed.Items, 6)
	assert.False(t, feed.HasMore)
	for _, item := range feed.Items {
		assert.Equal(t, "Rau củ", item.Category)
	}

	require.NoError(t, f.svc.ResetFilters(ctx))
	feed = f.svc.Feed(ctx)
	assert.Len(t, feed.Items, 8)
	assert.True(t, feed.HasMore)
	assert.Nil(t, feed.CategoryFilter)
}

func TestFeed_ApplyFiltersAndCounts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.svc.ApplyFilters(ctx, strPtr("Cá"), nil))
	feed := f.svc.Feed(ctx)

	// Cá: Cá tra +12, Cá basa +2, Cá thu -5, Tôm +1
	assert.Equal(t, 4, feed.TotalDisplayed)
	assert.Equal(t, 2, feed.ExpiringCount)
	assert.Equal(t, 1, feed.ExpiredCount)

	require.NoError(t, f.svc.ApplySearchQuery(ctx, strPtr("basa")))
	feed = f.svc.Feed(ctx)
	require.Len(t, feed.Items, 1)
	assert.Equal(t, "12", feed.Items[0].ID)
}

func TestExpiring_DefaultsDays(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.svc.Refetch(ctx))

	// First page: ids 1..8 are all more than a week out.
	assert.Empty(t, f.svc.Expiring(ctx, 0))

	require.NoError(t, f.svc.FetchNextPage(ctx))
	assert.Len(t, f.svc.Expiring(ctx, 3), 8, "ids 9..16 are expiring or expired")
}
