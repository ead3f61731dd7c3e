package draft

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Use JSON tag names for errors instead of Go struct names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks limits and enum values of a save request.
func (r *SaveRequest) Validate() error {
	if r.DraftID != nil && strings.TrimSpace(string(*r.DraftID)) == "" {
		return NewValidationError(errors.New("invalid request"), FieldError{Field: "draftId", Error: "must not be empty"})
	}
	if r.DraftID == nil && r.ExpectedVersion != nil {
		return NewValidationError(errors.New("invalid request"), FieldError{Field: "expectedVersion", Error: "only valid for an existing draft"})
	}

	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return NewValidationError(err)
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{Field: fe.Field(), Error: describe(fe)})
	}
	return NewValidationError(errors.New("invalid request"), fields...)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
