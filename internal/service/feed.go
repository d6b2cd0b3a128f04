package service

import (
	"context"

	"github.com/sakif/pantry/internal/model"
)

// Feed is what the inventory list shows: the filtered items and the
// loading state around them.
type Feed struct {
	Items          []model.FoodItem `json:"items"`
	IsLoading      bool             `json:"isLoading"`
	IsFetching     bool             `json:"isFetching"`
	HasMore        bool             `json:"hasMore"`
	CurrentPage    int              `json:"currentPage"`
	PageSize       int              `json:"pageSize"`
	CategoryFilter *string          `json:"categoryFilter"`
	SearchQuery    *string          `json:"searchQuery"`
	TotalDisplayed int              `json:"totalDisplayed"`
	ExpiringCount  int              `json:"expiringCount"`
	ExpiredCount   int              `json:"expiredCount"`
}

// Feed returns the current list view.
func (s *FoodService) Feed(_ context.Context) Feed {
	st := s.store.State()
	now := s.store.Now()

	f := Feed{
		Items:          s.store.GetFilteredItems(),
		IsLoading:      st.IsLoading,
		IsFetching:     st.IsFetching,
		HasMore:        st.HasMore,
		CurrentPage:    st.CurrentPage,
		PageSize:       st.PageSize,
		CategoryFilter: st.CategoryFilter,
		SearchQuery:    st.SearchQuery,
		TotalDisplayed: len(st.Items),
	}
	for _, item := range st.Items {
		switch item.Status(now) {
		case model.StatusExpiringSoon:
			f.ExpiringCount++
		case model.StatusExpired:
			f.ExpiredCount++
		}
	}
	return f
}

// FetchNextPage loads another page unless one is already loading or the
// source is exhausted.
func (s *FoodService) FetchNextPage(ctx context.Context) error {
	st := s.store.State()
	if st.IsFetching || !st.HasMore {
		return nil
	}
	return s.store.LoadMoreItems(ctx)
}

// Refetch reloads the first page with the current filters.
func (s *FoodService) Refetch(ctx context.Context) error {
	return s.store.Refetch(ctx)
}

// ApplyFilters sets both filters and reloads from the first page. Nil or
// empty values clear a filter.
func (s *FoodService) ApplyFilters(ctx context.Context, category, query *string) error {
	s.store.SetCategoryFilter(category)
	s.store.SetSearchQuery(query)
	return s.reload(ctx)
}

// ApplyCategoryFilter sets the category filter and reloads.
func (s *FoodService) ApplyCategoryFilter(ctx context.Context, category *string) error {
	s.store.SetCategoryFilter(category)
	return s.reload(ctx)
}

// ApplySearchQuery sets the search query and reloads.
func (s *FoodService) ApplySearchQuery(ctx context.Context, query *string) error {
	s.store.SetSearchQuery(query)
	return s.reload(ctx)
}

// ResetFilters clears both filters and reloads.
func (s *FoodService) ResetFilters(ctx context.Context) error {
	s.store.ClearFilters()
	return s.reload(ctx)
}

func (s *FoodService) reload(ctx context.Context) error {
	s.store.ResetPagination()
	return s.store.Refetch(ctx)
}
