package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

const maxIDLen = 128

// NewValidator returns the validator used for service inputs. Field names in
// errors are the JSON names.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateStruct runs v (or a fresh validator) over in and converts the
// first failure into a *ValidationError.
func validateStruct(v *validator.Validate, in any) error {
	if v == nil {
		v = NewValidator()
	}
	err := v.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return invalid(trimRoot(fe.Namespace()), describe(fe))
	}
	return invalid("", err.Error())
}

// trimRoot drops the struct type name from a namespace
// ("RegisterGymInput.location.city" -> "location.city").
func trimRoot(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "min":
		return "must be >= " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "email":
		return "must be a valid email address"
	case "unique":
		return "must not contain duplicate " + strings.ToLower(fe.Param()) + "s"
	}
	return "failed " + fe.Tag() + " check"
}

// validateDocID checks a caller-supplied document id (user id, gym id).
func validateDocID(field, id string) error {
	switch {
	case strings.TrimSpace(id) == "":
		return invalid(field, "is required")
	case strings.TrimSpace(id) != id:
		return invalid(field, "must not have surrounding whitespace")
	case strings.Contains(id, "/"):
		return invalid(field, "must not contain '/'")
	case len(id) > maxIDLen:
		return invalid(field, "is too long")
	}
	return nil
}
