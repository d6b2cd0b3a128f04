package service

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/pantry/internal/apperror"
	"github.com/sakif/pantry/internal/model"
)

// CreateInput is the create form as submitted. ExpirationDate accepts
// "2006-01-02" or RFC 3339; ImageURL must be a base64 image data URI.
type CreateInput struct {
	Name           string  `json:"name" validate:"required,max=100"`
	Quantity       float64 `json:"quantity" validate:"gt=0"`
	Unit           string  `json:"unit" validate:"required"`
	Category       string  `json:"category" validate:"required"`
	ExpirationDate *string `json:"expirationDate" validate:"omitempty,pantrydate"`
	ImageURL       *string `json:"imageUrl" validate:"omitempty,imagedatauri,imagesize"`
}

// fieldMessages maps "<json field>.<tag>" to the message shown to the user.
var fieldMessages = map[string]string{
	"name.required":             model.MsgNameRequired,
	"name.min":                  model.MsgNameRequired,
	"name.max":                  model.MsgNameTooLong,
	"quantity.gt":               model.MsgQuantityMin,
	"unit.required":             model.MsgUnitRequired,
	"unit.min":                  model.MsgUnitRequired,
	"category.required":         model.MsgCategoryRequired,
	"category.min":              model.MsgCategoryRequired,
	"expirationDate.pantrydate": model.MsgExpirationInvalid,
	"imageUrl.imagedatauri":     model.MsgImageInvalid,
	"imageUrl.imagesize":        model.MsgImageTooLarge,
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report json names so messages and AppError.Field match the wire format.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("pantrydate", func(fl validator.FieldLevel) bool {
		_, err := parseDate(fl.Field().String(), time.UTC)
		return err == nil
	})
	_ = v.RegisterValidation("imagedatauri", func(fl validator.FieldLevel) bool {
		return model.IsImageDataURI(fl.Field().String())
	})
	_ = v.RegisterValidation("imagesize", func(fl validator.FieldLevel) bool {
		return model.ImagePayloadSize(fl.Field().String()) <= model.MaxImageSizeBytes
	})
	return v
}

// validationError converts the first validator failure into an AppError.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	msg, ok := fieldMessages[fe.Field()+"."+fe.Tag()]
	if !ok {
		msg = model.MsgGeneric
	}
	return apperror.ValidationFailed(fe.Field(), msg)
}

// parseDate accepts a date-only value (midnight in loc) or an RFC 3339 timestamp.
func parseDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(model.DateLayout, s, loc); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// expirationFrom parses raw and rejects dates before today.
func expirationFrom(raw *string, now time.Time) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	t, err := parseDate(*raw, now.Location())
	if err != nil {
		return nil, apperror.ValidationFailed("expirationDate", model.MsgExpirationInvalid)
	}
	if model.IsExpired(&t, now) {
		return nil, apperror.ValidationFailed("expirationDate", model.MsgExpirationPast)
	}
	return &t, nil
}

// patchInput mirrors the settable fields of model.Patch for validation.
// A nil field is not being changed.
type patchInput struct {
	Name     *string  `json:"name" validate:"omitnil,min=1,max=100"`
	Quantity *float64 `json:"quantity" validate:"omitnil,gt=0"`
	Unit     *string  `json:"unit" validate:"omitnil,min=1"`
	Category *string  `json:"category" validate:"omitnil,min=1"`
	ImageURL *string  `json:"imageUrl" validate:"omitnil,imagedatauri,imagesize"`
}
