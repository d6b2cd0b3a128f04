package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func datePtr(t time.Time) *time.Time { return &t }

func TestStatusOf(t *testing.T) {
	now := time.Date(2026, time.March, 10, 15, 30, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		name       string
		expiration *time.Time
		want       Status
	}{
		{"no date is normal", nil, StatusNormal},
		{"yesterday is expired", datePtr(now.Add(-day)), StatusExpired},
		{"today is expiring soon", datePtr(now), StatusExpiringSoon},
		{"earlier today is still expiring soon", datePtr(StartOfDay(now)), StatusExpiringSoon},
		{"in seven days is expiring soon", datePtr(now.Add(7 * day)), StatusExpiringSoon},
		{"in eight days is normal", datePtr(now.Add(8 * day)), StatusNormal},
		{"far future is normal", datePtr(now.Add(365 * day)), StatusNormal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.expiration, now))
		})
	}
}

func TestDaysUntilExpiration_IgnoresTimeOfDay(t *testing.T) {
	now := time.Date(2026, time.March, 10, 23, 59, 0, 0, time.UTC)
	exp := time.Date(2026, time.March, 11, 0, 1, 0, 0, time.UTC)

	days, ok := DaysUntilExpiration(&exp, now)
	require.True(t, ok)
	assert.Equal(t, 1, days)

	_, ok = DaysUntilExpiration(nil, now)
	assert.False(t, ok)
}

func TestDaysUntilExpiration_UsesNowLocation(t *testing.T) {
	loc := time.FixedZone("ICT", 7*60*60)
	now := time.Date(2026, time.March, 10, 8, 0, 0, 0, loc)
	// 20:00 UTC on the 10th is already the 11th in ICT.
	exp := time.Date(2026, time.March, 10, 20, 0, 0, 0, time.UTC)

	days, ok := DaysUntilExpiration(&exp, now)
	require.True(t, ok)
	assert.Equal(t, 1, days)
}

func TestExpirationText(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	tests := []struct {
		expiration *time.Time
		want       string
	}{
		{nil, "Chưa đặt"},
		{datePtr(now), "Hết hạn hôm nay"},
		{datePtr(now.Add(day)), "Hết hạn vào ngày mai"},
		{datePtr(now.Add(5 * day)), "Còn 5 ngày"},
		{datePtr(now.Add(-day)), "Đã hết hạn 1 ngày"},
		{datePtr(now.Add(-3 * day)), "Đã hết hạn 3 ngày"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpirationText(tt.expiration, now))
		})
	}
}

func TestIsExpiringSoonAndExpired(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-48 * time.Hour)
	soon := now.Add(72 * time.Hour)

	assert.True(t, IsExpiringSoon(&past, now, 7), "expired items count as expiring")
	assert.True(t, IsExpiringSoon(&soon, now, 7))
	assert.False(t, IsExpiringSoon(&soon, now, 2))
	assert.False(t, IsExpiringSoon(nil, now, 7))

	assert.True(t, IsExpired(&past, now))
	assert.False(t, IsExpired(&soon, now))
	assert.False(t, IsExpired(nil, now))
}

func TestPatchApply(t *testing.T) {
	exp := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
	img := "data:image/png;base64,AAAA"
	item := FoodItem{
		ID:             "42",
		Name:           "Cà rốt",
		Quantity:       2,
		Unit:           "kg",
		Category:       "Rau củ",
		ExpirationDate: &exp,
		ImageURL:       &img,
	}

	qty := 5.0
	got := Patch{Quantity: &qty}.Apply(item)
	assert.Equal(t, 5.0, got.Quantity)
	assert.Equal(t, item.Name, got.Name)
	assert.Equal(t, item.ExpirationDate, got.ExpirationDate)
	assert.Equal(t, 2.0, item.Quantity, "original must not change")

	cleared := Patch{ExpirationDate: Null[time.Time](), ImageURL: Null[string]()}.Apply(item)
	assert.Nil(t, cleared.ExpirationDate)
	assert.Nil(t, cleared.ImageURL)
	assert.Equal(t, "42", cleared.ID)
}

func TestPatchJSON_DistinguishesNullFromMissing(t *testing.T) {
	var missing Patch
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Táo"}`), &missing))
	assert.False(t, missing.ExpirationDate.Set)
	require.NotNil(t, missing.Name)
	assert.Equal(t, "Táo", *missing.Name)

	var null Patch
	require.NoError(t, json.Unmarshal([]byte(`{"expirationDate":null}`), &null))
	assert.True(t, null.ExpirationDate.Set)
	assert.Nil(t, null.ExpirationDate.Value)

	var set Patch
	require.NoError(t, json.Unmarshal([]byte(`{"expirationDate":"2026-04-01T00:00:00Z"}`), &set))
	require.True(t, set.ExpirationDate.Set)
	require.NotNil(t, set.ExpirationDate.Value)
	assert.Equal(t, 2026, set.ExpirationDate.Value.Year())

	assert.True(t, Patch{}.IsEmpty())
	assert.False(t, set.IsEmpty())
}

func TestFoodItemMatchers(t *testing.T) {
	item := FoodItem{Name: "Thịt Bò", Category: "Thịt"}
	veg := "Rau củ"
	meat := "Thịt"
	empty := ""
	query := "bò"

	assert.True(t, item.MatchesCategory(nil))
	assert.True(t, item.MatchesCategory(&empty))
	assert.True(t, item.MatchesCategory(&meat))
	assert.False(t, item.MatchesCategory(&veg))
	assert.True(t, item.MatchesSearch(&query), "search is case-insensitive")
	assert.True(t, item.MatchesSearch(nil))
}

func TestImageDataURI(t *testing.T) {
	assert.True(t, IsImageDataURI("data:image/jpeg;base64,/9j/4AAQ"))
	assert.True(t, IsImageDataURI("data:image/webp;base64,UklGR"))
	assert.False(t, IsImageDataURI("data:image/gif;base64,R0lGOD"))
	assert.False(t, IsImageDataURI("https://example.com/a.png"))
	assert.Equal(t, 3, ImagePayloadSize("data:image/png;base64,AAAA"))
	assert.Equal(t, 0, ImagePayloadSize("not a uri"))
}

func TestDefaultFormValues(t *testing.T) {
	now := time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)
	got := DefaultFormValues(now)
	assert.Equal(t, "2026-03-10", got.ExpirationDate)
	assert.Equal(t, "cái", got.Unit)
	assert.Equal(t, "Khác", got.Category)
	assert.Equal(t, 1.0, got.Quantity)
}
