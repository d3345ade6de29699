package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/showtime-inventory-bench/internal/inventory"
)

// Validator adapts go-playground/validator to echo.Validator. A failed
// "required" rule becomes ErrMissingParameter, any other rule ErrInvalidRange,
// so the usual error mapping applies.
type Validator struct {
	v *validator.Validate
}

// NewValidator returns a Validator reporting fields by their wire names.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query", "param"} {
			if name := strings.Split(f.Tag.Get(tag), ",")[0]; name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return &Validator{v: v}
}

// Validate implements echo.Validator.
func (cv *Validator) Validate(i interface{}) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return err
	}
	fe := ves[0]
	if fe.Tag() == "required" {
		return fmt.Errorf("%w: %s is required", inventory.ErrMissingParameter, fe.Field())
	}
	if fe.Param() != "" {
		return fmt.Errorf("%w: %s must satisfy %s=%s", inventory.ErrInvalidRange, fe.Field(), fe.Tag(), fe.Param())
	}
	return fmt.Errorf("%w: %s must satisfy %s", inventory.ErrInvalidRange, fe.Field(), fe.Tag())
}
