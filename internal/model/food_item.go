// Package model defines the data structures used throughout the application.
//
// FoodItem is the only entity. Everything else in this package is derived
// from it (status, expiration text) or describes how clients may edit it
// (Patch, Optional).
package model

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// FoodItem is a unit of pantry inventory.
//
// ExpirationDate and ImageURL are pointers because both are optional:
// a nil ExpirationDate means "no expiration tracked", a nil ImageURL means
// no picture was attached. JSON encodes both as null.
type FoodItem struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Quantity       float64    `json:"quantity"`
	Unit           string     `json:"unit"`
	Category       string     `json:"category"`
	ExpirationDate *time.Time `json:"expirationDate"`
	ImageURL       *string    `json:"imageUrl"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Clone returns a copy that shares no pointers with f.
func (f FoodItem) Clone() FoodItem {
	c := f
	if f.ExpirationDate != nil {
		exp := *f.ExpirationDate
		c.ExpirationDate = &exp
	}
	if f.ImageURL != nil {
		img := *f.ImageURL
		c.ImageURL = &img
	}
	return c
}

// Status derives the expiration status of the item relative to now.
func (f FoodItem) Status(now time.Time) Status {
	return StatusOf(f.ExpirationDate, now)
}

// MatchesCategory reports whether the item belongs to category.
// A nil or empty category matches everything.
func (f FoodItem) MatchesCategory(category *string) bool {
	if category == nil || *category == "" {
		return true
	}
	return f.Category == *category
}

// MatchesSearch reports whether the item name contains query, ignoring case.
// A nil or empty query matches everything.
func (f FoodItem) MatchesSearch(query *string) bool {
	if query == nil || *query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(f.Name), strings.ToLower(*query))
}

// Optional is a patch field that can be absent, explicitly null, or set.
//
// Decoding JSON into an Optional marks it Set whenever the key is present,
// including when the value is null, which clears the target field.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns an Optional that sets the field to v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns an Optional that clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// Patch holds the fields an update may change. It has no ID and no
// timestamps, so an update can never rewrite identity or creation time.
type Patch struct {
	Name           *string             `json:"name,omitempty"`
	Quantity       *float64            `json:"quantity,omitempty"`
	Unit           *string             `json:"unit,omitempty"`
	Category       *string             `json:"category,omitempty"`
	ExpirationDate Optional[time.Time] `json:"expirationDate"`
	ImageURL       Optional[string]    `json:"imageUrl"`
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.Name == nil && p.Quantity == nil && p.Unit == nil && p.Category == nil &&
		!p.ExpirationDate.Set && !p.ImageURL.Set
}

// Apply shallow-merges the patch into item and returns the result.
// Timestamps are left untouched; the caller decides when UpdatedAt moves.
func (p Patch) Apply(item FoodItem) FoodItem {
	out := item.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.Quantity != nil {
		out.Quantity = *p.Quantity
	}
	if p.Unit != nil {
		out.Unit = *p.Unit
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	if p.ExpirationDate.Set {
		out.ExpirationDate = nil
		if p.ExpirationDate.Value != nil {
			exp := *p.ExpirationDate.Value
			out.ExpirationDate = &exp
		}
	}
	if p.ImageURL.Set {
		out.ImageURL = nil
		if p.ImageURL.Value != nil {
			img := *p.ImageURL.Value
			out.ImageURL = &img
		}
	}
	return out
}
