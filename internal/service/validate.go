package service

import (
	"errors"
	"sort"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/greyhaven-ai/datapack/internal/domain"
	"github.com/greyhaven-ai/datapack/internal/identity"
)

// asValidationError converts an ozzo validation error into the domain form,
// carrying the offending field names in deterministic order.
func asValidationError(err error) error {
	var fields []string
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		for field := range verrs {
			fields = append(fields, field)
		}
		sort.Strings(fields)
	}
	return &domain.ValidationError{Message: err.Error(), Fields: fields}
}

// optionalUUID accepts an empty string or a well-formed UUID.
func optionalUUID(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !identity.IsUUID(s) {
		return errors.New("must be a UUID")
	}
	return nil
}
