package validator

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/pauljones0/brick-deals/internal/models"
)

// Validator is a wrapper around the validator library.
type Validator struct {
	validate *validator.Validate
}

// New creates a new Validator instance.
func New() *Validator {
	return &Validator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ValidateStruct validates a struct based on its tags.
func (v *Validator) ValidateStruct(s any) error {
	if err := v.validate.Struct(s); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// ValidatePagination checks the page bounds of a batch's meta object.
func (v *Validator) ValidatePagination(p models.Pagination) error {
	if err := v.validate.Struct(p); err != nil {
		return fmt.Errorf("pagination %+v: %w", p, err)
	}
	return nil
}
