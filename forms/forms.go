// Package forms decodes posted HTML forms and validates them before any backend call is made.
package forms

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"sync"
	_ "time/tzdata" // timezone rule must not depend on the host zoneinfo

	"github.com/go-playground/form/v4"
	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/vineyard-dashboard/resources"
	"github.com/jrsteele09/vineyard-dashboard/users"
)

const formTag = "form"

// FieldErrors maps a form field name to its message
type FieldErrors map[string]string

func (fe FieldErrors) Any() bool {
	return len(fe) > 0
}

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for field, msg := range fe {
		parts = append(parts, field+": "+msg)
	}
	return strings.Join(parts, "; ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func instance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get(formTag), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		mustRegister(v, "password", func(fl validator.FieldLevel) bool {
			return users.ValidatePasswordStrength(fl.Field().String()) == nil
		})
		mustRegister(v, "role", func(fl validator.FieldLevel) bool {
			return users.Role(fl.Field().String()).Valid()
		})
		mustRegister(v, "wostatus", func(fl validator.FieldLevel) bool {
			s := resources.WorkOrderStatus(fl.Field().String())
			for _, known := range resources.WorkOrderStatuses() {
				if s == known {
					return true
				}
			}
			return false
		})
		mustRegister(v, "taskstatus", func(fl validator.FieldLevel) bool {
			s := resources.TaskStatus(fl.Field().String())
			for _, known := range resources.TaskStatuses() {
				if s == known {
					return true
				}
			}
			return false
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("forms: register %s: %v", tag, err))
	}
}

// Validate checks v against its validate tags. A nil result means the form is valid.
func Validate(v any) FieldErrors {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return FieldErrors{"_form": err.Error()}
	}
	fe := make(FieldErrors, len(verrs))
	for _, e := range verrs {
		if _, seen := fe[e.Field()]; seen {
			continue
		}
		fe[e.Field()] = message(e)
	}
	return fe
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_if":
		return "This field is required"
	case "email":
		return "Enter a valid email address"
	case "password":
		return "Password must be at least 8 characters and contain a letter and a number"
	case "eqfield":
		return "Passwords do not match"
	case "role":
		return "Choose a valid role"
	case "oneof", "wostatus", "taskstatus":
		return "Choose one of the listed options"
	case "datetime":
		return "Enter a date as YYYY-MM-DD"
	case "numeric":
		return "Use digits only"
	case "len":
		return fmt.Sprintf("Must be exactly %s characters", e.Param())
	case "max":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Must be at most %s characters", e.Param())
		}
		return "Must be at most " + e.Param()
	case "min":
		if e.Kind() == reflect.String {
			return fmt.Sprintf("Must be at least %s characters", e.Param())
		}
		return "Must be at least " + e.Param()
	case "gte":
		return "Must be at least " + e.Param()
	case "lte":
		return "Must be at most " + e.Param()
	}
	return "Invalid value"
}

// fieldMessage is a decode failure already phrased for the form
type fieldMessage string

func (m fieldMessage) Error() string {
	return string(m)
}

var (
	decoderOnce sync.Once
	decoder     *form.Decoder
)

// formDecoder trims every posted value and reports unparsable numbers as field messages.
// Blank numeric inputs decode to zero.
func formDecoder() *form.Decoder {
	decoderOnce.Do(func() {
		d := form.NewDecoder()
		d.SetTagName(formTag)
		d.RegisterCustomTypeFunc(func(vals []string) (any, error) {
			return firstValue(vals), nil
		}, "")
		d.RegisterCustomTypeFunc(func(vals []string) (any, error) {
			raw := firstValue(vals)
			if raw == "" {
				return 0, nil
			}
			n, err := strconv.Atoi(raw)
			if err != nil {
				return 0, fieldMessage("Enter a whole number")
			}
			return n, nil
		}, 0)
		d.RegisterCustomTypeFunc(func(vals []string) (any, error) {
			raw := firstValue(vals)
			if raw == "" {
				return float64(0), nil
			}
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return float64(0), fieldMessage("Enter a number")
			}
			return f, nil
		}, float64(0))
		decoder = d
	})
	return decoder
}

func firstValue(vals []string) string {
	if len(vals) == 0 {
		return ""
	}
	return strings.TrimSpace(vals[0])
}

// Decode copies posted values into the form tagged fields of dst (a struct pointer).
// Numbers that do not parse are reported as field errors.
func Decode(values url.Values, dst any) FieldErrors {
	err := formDecoder().Decode(dst, values)
	if err == nil {
		return nil
	}
	derrs, ok := err.(form.DecodeErrors)
	if !ok {
		return FieldErrors{"_form": err.Error()}
	}
	fe := make(FieldErrors, len(derrs))
	for name, derr := range derrs {
		var msg fieldMessage
		if errors.As(derr, &msg) {
			fe[name] = string(msg)
			continue
		}
		fe[name] = "Invalid value"
	}
	return fe
}

// Bind decodes then validates. Decode errors win over validation errors for the same field.
func Bind(values url.Values, dst any) FieldErrors {
	decodeErrs := Decode(values, dst)
	fe := Validate(dst)
	if fe == nil && decodeErrs == nil {
		return nil
	}
	if fe == nil {
		fe = FieldErrors{}
	}
	for k, v := range decodeErrs {
		fe[k] = v
	}
	return fe
}

// SplitList turns a comma separated input into trimmed non-empty items
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// JoinList is the inverse of SplitList for pre-filling inputs
func JoinList(items []string) string {
	return strings.Join(items, ", ")
}
