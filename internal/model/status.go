package model

import (
	"fmt"
	"time"
)

// Status is the derived expiration classification of a food item.
type Status string

const (
	StatusNormal       Status = "normal"
	StatusExpiringSoon Status = "expiring-soon"
	StatusExpired      Status = "expired"
)

// ExpirationThresholdDays is the lookahead window for StatusExpiringSoon.
const ExpirationThresholdDays = 7

// StatusLabels are the user-facing names of each status.
var StatusLabels = map[Status]string{
	StatusNormal:       "Bình thường",
	StatusExpiringSoon: "Sắp hết hạn",
	StatusExpired:      "Đã hết hạn",
}

// StatusOf classifies an expiration date relative to now:
//
//	no date            → normal
//	days < 0           → expired
//	0 <= days <= 7     → expiring-soon
//	days > 7           → normal
func StatusOf(expiration *time.Time, now time.Time) Status {
	days, ok := DaysUntilExpiration(expiration, now)
	if !ok {
		return StatusNormal
	}
	switch {
	case days < 0:
		return StatusExpired
	case days <= ExpirationThresholdDays:
		return StatusExpiringSoon
	default:
		return StatusNormal
	}
}

// DaysUntilExpiration returns the number of calendar days from now until
// expiration, both taken in now's location. Time of day is ignored, so an
// item expiring later today is 0 days away. ok is false when there is no date.
func DaysUntilExpiration(expiration *time.Time, now time.Time) (days int, ok bool) {
	if expiration == nil {
		return 0, false
	}
	return calendarDays(now, expiration.In(now.Location())), true
}

// calendarDays counts whole days between the dates of from and to.
// Both dates are rebuilt in UTC so DST transitions cannot skew the result.
func calendarDays(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a) / (24 * time.Hour))
}

// IsExpiringSoon reports whether the item expires within threshold days,
// counting already expired items.
func IsExpiringSoon(expiration *time.Time, now time.Time, threshold int) bool {
	days, ok := DaysUntilExpiration(expiration, now)
	return ok && days <= threshold
}

// IsExpired reports whether the expiration date is strictly before today.
func IsExpired(expiration *time.Time, now time.Time) bool {
	days, ok := DaysUntilExpiration(expiration, now)
	return ok && days < 0
}

// ExpirationText renders the human-readable countdown shown next to an item.
func ExpirationText(expiration *time.Time, now time.Time) string {
	days, ok := DaysUntilExpiration(expiration, now)
	switch {
	case !ok:
		return "Chưa đặt"
	case days == 0:
		return "Hết hạn hôm nay"
	case days == 1:
		return "Hết hạn vào ngày mai"
	case days > 0:
		return fmt.Sprintf("Còn %d ngày", days)
	case days == -1:
		return "Đã hết hạn 1 ngày"
	default:
		return fmt.Sprintf("Đã hết hạn %d ngày", -days)
	}
}

// StartOfDay truncates t to midnight in its own location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
