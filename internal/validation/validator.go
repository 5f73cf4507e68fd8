// Package validation validates decoded request bodies with validator/v10
// and converts failures into coded API errors.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/oprema/internal/apperr"
	"github.com/erazemk/oprema/internal/model"
)

var (
	qrCodeRe       = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	categoryNameRe = regexp.MustCompile(`^[A-Za-z0-9\s_-]+$`)
)

// FieldError describes one invalid field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator wraps go-playground/validator with apperr conversion.
type Validator struct {
	v *validator.Validate
}

// New creates a validator with the domain tags registered:
// qrcode, categoryname, pin and date.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})

	must(v.RegisterValidation("qrcode", func(fl validator.FieldLevel) bool {
		return qrCodeRe.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("categoryname", func(fl validator.FieldLevel) bool {
		return categoryNameRe.MatchString(fl.Field().String())
	}))
	must(v.RegisterValidation("pin", func(fl validator.FieldLevel) bool {
		return model.ValidatePIN(fl.Field().String()) == nil
	}))
	must(v.RegisterValidation("date", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(model.DateLayout, fl.Field().String())
		return err == nil
	}))

	return &Validator{v: v}
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Validate validates a struct. Missing required fields produce
// MISSING_REQUIRED_FIELDS, any other failure VALIDATION_ERROR. Details
// list every failing field.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return fmt.Errorf("validating request: %w", err)
	}

	code := apperr.CodeValidation
	message := "Validation failed"
	fields := make([]FieldError, 0, len(validationErrs))
	var missing []string
	for _, e := range validationErrs {
		if e.Tag() == "required" {
			missing = append(missing, e.Field())
		}
		fields = append(fields, FieldError{Field: e.Field(), Message: e.Field() + " " + friendlyMessage(e)})
	}
	if len(missing) > 0 {
		code = apperr.CodeMissingRequiredFields
		message = strings.Join(missing, ", ") + " required"
	}

	return apperr.Validation(code, message).WithDetails(fields)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s entries", e.Param())
		}
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		if e.Kind() == reflect.Slice {
			return fmt.Sprintf("must not contain more than %s entries", e.Param())
		}
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(e.Param(), " ", ", ")
	case "qrcode":
		return "can only contain letters, numbers, hyphens and underscores"
	case "categoryname":
		return "can only contain letters, numbers, spaces, hyphens and underscores"
	case "pin":
		return fmt.Sprintf("must be exactly %d digits", model.PINLength)
	case "date":
		return "must be a date in YYYY-MM-DD format"
	default:
		return "is invalid"
	}
}
