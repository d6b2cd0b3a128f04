package inventory

import (
	"context"

	"github.com/sakif/pantry/internal/model"
)

// Source is the remote collection pages are cut from. Items returns the
// whole collection; filtering and slicing happen in the store.
type Source interface {
	Items(ctx context.Context) ([]model.FoodItem, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) ([]model.FoodItem, error)

func (f SourceFunc) Items(ctx context.Context) ([]model.FoodItem, error) { return f(ctx) }

// filterItems keeps the items matching both filters. A nil or empty filter
// matches everything.
func filterItems(items []model.FoodItem, category, query *string) []model.FoodItem {
	out := make([]model.FoodItem, 0, len(items))
	for _, item := range items {
		if item.MatchesCategory(category) && item.MatchesSearch(query) {
			out = append(out, item)
		}
	}
	return out
}

// window returns items[start:end] clamped to the slice bounds.
func window(items []model.FoodItem, start, end int) []model.FoodItem {
	if start >= len(items) {
		return nil
	}
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
