// Package inventory holds the in-process pantry store: the displayed,
// paginated collection of food items, its filters and loading flags.
//
// One Store is built at startup and shared by every caller. Mutations never
// return errors. Items and filters are written through a Storage after
// every change, and save failures are only logged.
package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/sakif/pantry/internal/model"
	"github.com/sakif/pantry/internal/persistence"
)

const (
	DefaultPageSize = 8
	DefaultLatency  = 500 * time.Millisecond

	saveTimeout = 10 * time.Second
)

// Storage persists the durable subset of the store. *persistence.Store
// satisfies it.
type Storage interface {
	Read(ctx context.Context) (persistence.Record, bool, error)
	Write(ctx context.Context, rec persistence.Record) error
}

// State is a point-in-time copy of the store. Callers may keep and modify it.
type State struct {
	Items          []model.FoodItem
	IsLoading      bool
	IsFetching     bool
	HasMore        bool
	CurrentPage    int
	PageSize       int
	CategoryFilter *string
	SearchQuery    *string
}

// Removal is the result of DeleteFoodItem. Pass it to Rollback to undo.
type Removal struct {
	Item  model.FoodItem
	Found bool
}

// Option configures a Store.
type Option func(*Store)

// WithPageSize sets the page size. Values below 1 are ignored.
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.st.PageSize = n
		}
	}
}

// WithLatency sets the simulated fetch delay. Zero disables it.
func WithLatency(d time.Duration) Option {
	return func(s *Store) {
		if d >= 0 {
			s.latency = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStorage enables persistence.
func WithStorage(storage Storage) Option {
	return func(s *Store) { s.storage = storage }
}

// Store is safe for concurrent use.
type Store struct {
	mu sync.Mutex
	st State

	source  Source
	storage Storage
	latency time.Duration
	now     func() time.Time
	logger  *slog.Logger

	// saveMu orders writes so the last one always carries the newest state.
	saveMu sync.Mutex

	// seq numbers every change under mu. Deliveries are serialized by
	// notifyMu and anything older than delivered is dropped, so the last
	// State a subscriber sees is always the newest.
	seq       uint64
	notifyMu  sync.Mutex
	delivered uint64

	subMu   sync.Mutex
	subs    []subscription
	nextSub int
}

type subscription struct {
	id int
	fn func(State)
}

// New builds an empty store reading pages from source.
func New(source Source, opts ...Option) *Store {
	s := &Store{
		st: State{
			HasMore:     true,
			CurrentPage: 1,
			PageSize:    DefaultPageSize,
		},
		source:  source,
		latency: DefaultLatency,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open builds a store and hydrates it from its storage.
func Open(ctx context.Context, source Source, opts ...Option) (*Store, error) {
	s := New(source, opts...)
	if _, err := s.Hydrate(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Hydrate replaces items and filters with the persisted record, if any.
// Flags and the page cursor are left alone. found reports whether a record
// existed.
func (s *Store) Hydrate(ctx context.Context) (found bool, err error) {
	if s.storage == nil {
		return false, nil
	}
	rec, found, err := s.storage.Read(ctx)
	if err != nil {
		return false, fmt.Errorf("inventory: hydrating: %w", err)
	}
	if !found {
		return false, nil
	}

	s.mu.Lock()
	s.st.Items = cloneItems(rec.FoodItems)
	s.st.CategoryFilter = normalizeFilter(rec.CategoryFilter)
	s.st.SearchQuery = normalizeFilter(rec.SearchQuery)
	snap, seq := s.changeLocked()
	s.mu.Unlock()

	s.logger.Info("inventory hydrated", slog.Int("items", len(rec.FoodItems)))
	s.notify(snap, seq)
	return true, nil
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time { return s.now() }

// =========================================================================
// DATA
// =========================================================================

// AddFoodItem prepends item. No validation happens here.
func (s *Store) AddFoodItem(item model.FoodItem) {
	s.mutate(true, func(st *State) {
		st.Items = append([]model.FoodItem{item.Clone()}, st.Items...)
	})
}

// UpdateFoodItem merges patch into the item with id and stamps UpdatedAt.
// A missing id is a silent no-op.
func (s *Store) UpdateFoodItem(id string, patch model.Patch) {
	now := s.now()
	s.mutate(true, func(st *State) {
		for i := range st.Items {
			if st.Items[i].ID == id {
				st.Items[i] = patch.Apply(st.Items[i])
				st.Items[i].UpdatedAt = now
			}
		}
	})
}

// DeleteFoodItem removes the item with id.
func (s *Store) DeleteFoodItem(id string) Removal {
	var removed Removal
	s.mutate(true, func(st *State) {
		i := slices.IndexFunc(st.Items, func(it model.FoodItem) bool { return it.ID == id })
		if i < 0 {
			return
		}
		removed = Removal{Item: st.Items[i].Clone(), Found: true}
		st.Items = slices.DeleteFunc(st.Items, func(it model.FoodItem) bool { return it.ID == id })
	})
	return removed
}

// Rollback re-adds a removed item at the front of the collection.
func (s *Store) Rollback(r Removal) {
	if !r.Found {
		return
	}
	s.AddFoodItem(r.Item)
}

// =========================================================================
// PAGINATION
// =========================================================================

// LoadMoreItems appends the next page. It is a no-op while another fetch
// is running. Cancelling ctx during the wait leaves the items untouched.
func (s *Store) LoadMoreItems(ctx context.Context) error {
	s.mu.Lock()
	if s.st.IsFetching {
		s.mu.Unlock()
		return nil
	}
	s.st.IsFetching = true
	page, size := s.st.CurrentPage, s.st.PageSize
	category, query := clonePtr(s.st.CategoryFilter), clonePtr(s.st.SearchQuery)
	snap, seq := s.changeLocked()
	s.mu.Unlock()
	s.notify(snap, seq)

	filtered, err := s.fetch(ctx, category, query)
	if err != nil {
		s.mutate(false, func(st *State) { st.IsFetching = false })
		return err
	}

	start := page * size
	end := start + size
	next := window(filtered, start, end)

	s.mutate(len(next) > 0, func(st *State) {
		st.Items = append(st.Items, cloneItems(next)...)
		st.CurrentPage = page + 1
		st.HasMore = end < len(filtered)
		st.IsFetching = false
	})
	s.logger.Debug("page loaded",
		slog.Int("page", page),
		slog.Int("added", len(next)),
		slog.Bool("has_more", end < len(filtered)),
	)
	return nil
}

// Refetch clears the collection and loads the first page.
func (s *Store) Refetch(ctx context.Context) error {
	var size int
	var category, query *string
	s.mutate(true, func(st *State) {
		st.IsLoading = true
		st.Items = nil
		st.CurrentPage = 1
		size = st.PageSize
		category, query = clonePtr(st.CategoryFilter), clonePtr(st.SearchQuery)
	})

	filtered, err := s.fetch(ctx, category, query)
	if err != nil {
		s.mutate(false, func(st *State) { st.IsLoading = false })
		return err
	}

	first := window(filtered, 0, size)
	s.mutate(true, func(st *State) {
		st.Items = cloneItems(first)
		st.HasMore = size < len(filtered)
		st.IsLoading = false
	})
	return nil
}

// ResetPagination rewinds the cursor and empties the collection so the next
// Refetch starts fresh.
func (s *Store) ResetPagination() {
	s.mutate(true, func(st *State) {
		st.CurrentPage = 1
		st.HasMore = true
		st.Items = nil
	})
}

// fetch waits out the simulated latency, then filters the source.
func (s *Store) fetch(ctx context.Context, category, query *string) ([]model.FoodItem, error) {
	if s.latency > 0 {
		timer := time.NewTimer(s.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	all, err := s.source.Items(ctx)
	if err != nil {
		return nil, fmt.Errorf("inventory: fetching items: %w", err)
	}
	return filterItems(all, category, query), nil
}

// =========================================================================
// FILTERS & FLAGS
// =========================================================================

// SetCategoryFilter only changes the filter. Call ResetPagination and
// Refetch afterwards to apply it. An empty string clears it.
func (s *Store) SetCategoryFilter(category *string) {
	s.mutate(true, func(st *State) { st.CategoryFilter = normalizeFilter(category) })
}

// SetSearchQuery behaves like SetCategoryFilter.
func (s *Store) SetSearchQuery(query *string) {
	s.mutate(true, func(st *State) { st.SearchQuery = normalizeFilter(query) })
}

func (s *Store) ClearFilters() {
	s.mutate(true, func(st *State) {
		st.CategoryFilter = nil
		st.SearchQuery = nil
	})
}

func (s *Store) SetLoading(loading bool) {
	s.mutate(false, func(st *State) { st.IsLoading = loading })
}

func (s *Store) SetFetching(fetching bool) {
	s.mutate(false, func(st *State) { st.IsFetching = fetching })
}

func (s *Store) ClearItems() {
	s.mutate(true, func(st *State) { st.Items = nil })
}

// =========================================================================
// READS
// =========================================================================

func (s *Store) GetItemByID(id string) (model.FoodItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, item := range s.st.Items {
		if item.ID == id {
			return item.Clone(), true
		}
	}
	return model.FoodItem{}, false
}

// GetExpiringItems returns displayed items that are expiring soon or
// already expired. days is accepted for compatibility but the fixed
// model.ExpirationThresholdDays window always applies.
func (s *Store) GetExpiringItems(days int) []model.FoodItem {
	_ = days
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.FoodItem{}
	for _, item := range s.st.Items {
		if item.ExpirationDate == nil {
			continue
		}
		switch item.Status(now) {
		case model.StatusExpiringSoon, model.StatusExpired:
			out = append(out, item.Clone())
		}
	}
	return out
}

// GetFilteredItems applies the active filters to the displayed items.
func (s *Store) GetFilteredItems() []model.FoodItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(filterItems(s.st.Items, s.st.CategoryFilter, s.st.SearchQuery))
}

// State returns a copy of the whole store state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// =========================================================================
// SUBSCRIPTIONS & SAVING
// =========================================================================

// Subscribe calls fn with a fresh State after every change, in the order
// subscribers were added. fn runs on the mutating goroutine without the
// store lock held; it must not mutate the store. A State superseded by a
// newer change before delivery is skipped. The returned func removes the
// subscription.
func (s *Store) Subscribe(fn func(State)) (unsubscribe func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs = append(s.subs, subscription{id: id, fn: fn})
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		s.subs = slices.DeleteFunc(s.subs, func(sub subscription) bool { return sub.id == id })
		s.subMu.Unlock()
	}
}

// Save writes items and filters to storage and reports failure. Mutations
// call it internally and only log the error.
func (s *Store) Save(ctx context.Context) error {
	if s.storage == nil {
		return nil
	}
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	rec := persistence.Record{
		FoodItems:      cloneItems(s.st.Items),
		CategoryFilter: clonePtr(s.st.CategoryFilter),
		SearchQuery:    clonePtr(s.st.SearchQuery),
	}
	s.mu.Unlock()

	if err := s.storage.Write(ctx, rec); err != nil {
		return fmt.Errorf("inventory: saving: %w", err)
	}
	return nil
}

// mutate applies fn under the lock, notifies subscribers and, when persist
// is set, saves.
func (s *Store) mutate(persist bool, fn func(*State)) {
	s.mu.Lock()
	fn(&s.st)
	snap, seq := s.changeLocked()
	s.mu.Unlock()

	s.notify(snap, seq)
	if persist {
		s.autosave()
	}
}

func (s *Store) autosave() {
	if s.storage == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.Save(ctx); err != nil {
		s.logger.Error("failed to persist inventory", slog.String("error", err.Error()))
	}
}

func (s *Store) notify(snap State, seq uint64) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if seq <= s.delivered {
		return
	}
	s.delivered = seq

	s.subMu.Lock()
	subs := slices.Clone(s.subs)
	s.subMu.Unlock()

	for _, sub := range subs {
		sub.fn(snap)
	}
}

// changeLocked records a change and returns its snapshot and sequence
// number. s.mu must be held.
func (s *Store) changeLocked() (State, uint64) {
	s.seq++
	return s.snapshotLocked(), s.seq
}

func (s *Store) snapshotLocked() State {
	snap := s.st
	snap.Items = cloneItems(s.st.Items)
	snap.CategoryFilter = clonePtr(s.st.CategoryFilter)
	snap.SearchQuery = clonePtr(s.st.SearchQuery)
	return snap
}

func cloneItems(items []model.FoodItem) []model.FoodItem {
	out := make([]model.FoodItem, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}

func clonePtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func normalizeFilter(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	return clonePtr(p)
}
