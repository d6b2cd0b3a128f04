package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/sakif/pantry/internal/model"
)

type seedItem struct {
	name     string
	quantity float64
	unit     string
	category string
	days     int // expiration offset from today
}

// seedItems is ordered by id. The first block is fresh, then expiring
// soon, then already expired, then a mix.
var seedItems = []seedItem{
	{"Cà rốt", 2, "kg", "Rau củ", 14},
	{"Bắp cải", 1, "cái", "Rau củ", 10},
	{"Cam sành", 5, "kg", "Trái cây", 21},
	{"Thịt gà", 1.5, "kg", "Thịt", 8},
	{"Cá tra", 1, "kg", "Cá", 12},
	{"Sữa tươi", 2, "lít", "Sữa", 15},
	{"Nước suối", 6, "chai", "Đồ uống", 60},
	{"Mì tôm", 10, "gói", "Đồ khô", 180},

	{"Cà chua", 1, "kg", "Rau củ", 5},
	{"Chuối", 1, "kg", "Trái cây", 3},
	{"Thịt bò", 500, "gram", "Thịt", 4},
	{"Cá basa", 800, "gram", "Cá", 2},
	{"Sữa chua", 4, "hộp", "Sữa", 6},
	{"Nước trái cây", 2, "lít", "Đồ uống", 5},

	{"Xà lách", 300, "gram", "Rau củ", -2},
	{"Dưa hấu", 1, "cái", "Trái cây", -1},
	{"Thịt heo", 400, "gram", "Thịt", -3},
	{"Cá thu", 300, "gram", "Cá", -5},
	{"Phô mai", 200, "gram", "Sữa", -1},

	{"Khoai tây", 2, "kg", "Rau củ", 20},
	{"Táo", 2, "kg", "Trái cây", 15},
	{"Ức gà", 1, "kg", "Thịt", 6},
	{"Tôm", 800, "gram", "Cá", 1},
	{"Sữa đặc", 2, "lon", "Sữa", 90},
	{"Cà phê hòa tan", 5, "gói", "Đồ khô", 365},
	{"Bia", 12, "lon", "Đồ uống", 120},
	{"Hành tây", 500, "gram", "Rau củ", 7},
	{"Nho", 1, "kg", "Trái cây", 4},
	{"Giò lụa", 300, "gram", "Thịt", 3},
	{"Mắm", 2, "chai", "Khác", 180},
}

// MockSource serves the built-in 30 item pantry. Expiration dates are
// relative to the clock's current day, so the mix of statuses is stable.
type MockSource struct {
	now func() time.Time
}

// NewMockSource returns a MockSource. A nil clock means time.Now.
func NewMockSource(now func() time.Time) *MockSource {
	if now == nil {
		now = time.Now
	}
	return &MockSource{now: now}
}

func (m *MockSource) Items(ctx context.Context) ([]model.FoodItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	today := model.StartOfDay(m.now())
	items := make([]model.FoodItem, len(seedItems))
	for i, s := range seedItems {
		exp := today.AddDate(0, 0, s.days)
		created := today.AddDate(0, 0, -(len(seedItems) + 1 - i)).Add(9 * time.Hour)
		items[i] = model.FoodItem{
			ID:             fmt.Sprintf("%d", i+1),
			Name:           s.name,
			Quantity:       s.quantity,
			Unit:           s.unit,
			Category:       s.category,
			ExpirationDate: &exp,
			CreatedAt:      created,
			UpdatedAt:      created.Add(12 * time.Hour),
		}
	}
	return items, nil
}

// Len reports the size of the dataset.
func (m *MockSource) Len() int { return len(seedItems) }
