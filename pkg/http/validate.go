package http

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var (
	validate = newValidator()

	enumMu sync.RWMutex
	enums  = map[string][]string{}
)

// newValidator reports fields by their query (or json) name so error
// bodies match what the client sent.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"query", "json"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	return v
}

// RegisterEnum adds a validate tag accepting exactly the given values.
// Registering the same tag twice replaces the values.
func RegisterEnum(tag string, values ...string) error {
	allowed := append([]string(nil), values...)
	enumMu.Lock()
	_, existed := enums[tag]
	enums[tag] = allowed
	enumMu.Unlock()
	if existed {
		return nil
	}
	return validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, v := range enumValues(fl.GetTag()) {
			if s == v {
				return true
			}
		}
		return false
	})
}

func enumValues(tag string) []string {
	enumMu.RLock()
	defer enumMu.RUnlock()
	return enums[tag]
}

// ReadAndValidateRequest binds path, query and body parameters, applies
// `default` tags and runs `validate` tags. It returns nil or a list of
// ValidationError ready for BadRequestResponse.
func ReadAndValidateRequest(c echo.Context, req interface{}) interface{} {
	if err := c.Bind(req); err != nil {
		return toValidationErrors(err)
	}
	if err := defaults.Set(req); err != nil {
		return toValidationErrors(err)
	}
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func toValidationErrors(err error) interface{} {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]ValidationError, 0, len(verrs))
		for _, e := range verrs {
			out = append(out, ValidationError{
				Code:    "ERR_" + strings.ToUpper(e.Tag()),
				Field:   e.Field(),
				Message: message(e),
				Params:  params(e),
			})
		}
		return out
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []ValidationError{{Code: "ERR_BIND", Message: fmt.Sprintf("%v", he.Message)}}
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: err.Error()}}
}

func message(fe validator.FieldError) string {
	field := fe.Field()
	if vals := enumValues(fe.Tag()); vals != nil {
		return fmt.Sprintf("%s must be one of: %s", field, strings.Join(vals, ", "))
	}
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		if fe.Type().Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed validation: %s", field, fe.Tag())
}

func params(fe validator.FieldError) map[string]interface{} {
	if vals := enumValues(fe.Tag()); vals != nil {
		return map[string]interface{}{"options": vals}
	}
	switch fe.Tag() {
	case "gte":
		return map[string]interface{}{"min": fe.Param()}
	case "max", "lte":
		return map[string]interface{}{"max": fe.Param()}
	case "oneof":
		return map[string]interface{}{"options": strings.Split(fe.Param(), " ")}
	}
	return nil
}
