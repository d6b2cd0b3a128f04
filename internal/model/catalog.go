package model

import (
	"regexp"
	"time"
)

// Categories are the suggested food categories. The list is advisory:
// items may carry any category string.
var Categories = []string{
	"Rau củ",
	"Trái cây",
	"Thịt",
	"Cá",
	"Sữa",
	"Đồ uống",
	"Đồ khô",
	"Khác",
}

// Units are the suggested quantity units. Like Categories, not enforced.
var Units = []string{
	"kg",
	"gram",
	"g",
	"lít",
	"ml",
	"cái",
	"hộp",
	"gói",
	"túi",
}

// FormValues are the initial values of the create form.
type FormValues struct {
	Name           string  `json:"name"`
	Quantity       float64 `json:"quantity"`
	Unit           string  `json:"unit"`
	ExpirationDate string  `json:"expirationDate"`
	Category       string  `json:"category"`
}

// DefaultFormValues returns the create-form defaults for the day of now.
func DefaultFormValues(now time.Time) FormValues {
	return FormValues{
		Name:           "",
		Quantity:       1,
		Unit:           "cái",
		ExpirationDate: now.Format(DateLayout),
		Category:       "Khác",
	}
}

// DateLayout is the date-only layout accepted for expiration dates.
const DateLayout = "2006-01-02"

// MaxImageSizeBytes caps the decoded size of an attached image.
const MaxImageSizeBytes = 5 * 1024 * 1024

var imageDataURIPattern = regexp.MustCompile(`^data:image/(jpeg|jpg|png|webp);base64,`)

// IsImageDataURI reports whether s is a base64 data URI of a supported image type.
func IsImageDataURI(s string) bool {
	return imageDataURIPattern.MatchString(s)
}

// ImagePayloadSize estimates the decoded byte size of a base64 data URI.
func ImagePayloadSize(s string) int {
	loc := imageDataURIPattern.FindStringIndex(s)
	if loc == nil {
		return 0
	}
	encoded := len(s) - loc[1]
	return encoded * 3 / 4
}
