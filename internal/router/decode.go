package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"stock-service/internal/domain"
	"stock-service/internal/protocol"

	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// decode unmarshals the request object into dst and validates it. A payload
// of the wrong shape (a missing required field or a mistyped value) is a
// protocol error. A well-formed value that breaks a rule matches
// domain.ErrInvalidInput.
func (r *Router) decode(payload json.RawMessage, dst any) error {
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, dst); err != nil {
			var typeErr *json.UnmarshalTypeError
			switch {
			case errors.Is(err, domain.ErrInvalidInput):
				return err
			case errors.As(err, &typeErr) && typeErr.Field != "":
				return malformed("%s has the wrong type", typeErr.Field)
			default:
				return malformed("malformed payload")
			}
		}
	}
	if err := r.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) || len(verrs) == 0 {
			return domain.Invalid("invalid payload")
		}
		fe := verrs[0]
		if fe.Tag() != "required" {
			return domain.Invalid("%s", describe(fe))
		}
		if !present(payload, fe.Field()) {
			return malformed("%s is required", fe.Field())
		}
		return domain.Invalid("%s", emptyValue(fe))
	}
	return nil
}

func malformed(format string, args ...any) error {
	return &requestError{code: protocol.CodeProtocolError, message: fmt.Sprintf(format, args...)}
}

// present reports whether the payload carries a non-null value for key.
func present(payload json.RawMessage, key string) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return false
	}
	raw, ok := fields[key]
	return ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// emptyValue describes a required field that was sent with its zero value.
func emptyValue(fe validator.FieldError) string {
	switch fe.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return fe.Field() + " must be greater than 0"
	}
	return fe.Field() + " must not be empty"
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "datetime":
		return field + " must be a date in YYYY-MM-DD format"
	case "email":
		return field + " must be a valid email address"
	}
	return field + " is invalid"
}
