package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"couponhub/internal/apperrors"
	"couponhub/internal/repositories"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateStruct runs the struct tags and turns failures into a single
// Validation error.
func validateStruct(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.Unexpected(err, "validation failed")
	}

	var missing, invalid []string
	for _, e := range verrs {
		if e.Tag() == "required" {
			missing = append(missing, e.Field())
			continue
		}
		invalid = append(invalid, fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag()))
	}
	if len(missing) > 0 {
		return apperrors.Validation("Please provide all required fields: %s", strings.Join(missing, ", "))
	}
	return apperrors.Validation("%s", strings.Join(invalid, "; "))
}

// fromRepo maps repository sentinels onto application errors.
func fromRepo(err error, entity, action string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrNotFound):
		return apperrors.NotFound("%s not found", entity)
	case errors.Is(err, repositories.ErrDuplicate):
		return apperrors.Conflict("%s with this name or slug already exists", entity)
	default:
		return apperrors.Unexpected(err, fmt.Sprintf("failed to %s %s", action, strings.ToLower(entity)))
	}
}
