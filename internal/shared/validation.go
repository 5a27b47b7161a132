package shared

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/shopspring/decimal"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// fieldLabels overrides the generated label for fields whose acronyms matter.
var fieldLabels = map[string]string{
	"customerId": "Customer ID",
	"productId":  "Product ID",
}

// Validator returns the shared validator instance. Field names are reported by
// their JSON names and decimals validate as numbers.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		// required only checks that a patch pointer is set
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			if d, ok := field.Interface().(decimal.Decimal); ok {
				f, _ := d.Float64()
				return f
			}
			return nil
		}, decimal.Decimal{})
		validate = v
	})
	return validate
}

// Validate runs struct tag validation on v and converts failures into a
// *ValidationError whose Message describes the first failing field.
func Validate(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return NewValidationError("", "Invalid request")
	}

	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for i, fe := range fieldErrs {
		key := fieldKey(fe.Namespace())
		msg := fieldMessage(key, fe)
		if _, seen := out.Fields[key]; !seen {
			out.Fields[key] = msg
		}
		if i == 0 {
			out.Field = key
			out.Message = msg
		}
	}
	return out
}

// fieldKey drops the root struct name: "createRequest.billingContact.email"
// becomes "billingContact.email".
func fieldKey(namespace string) string {
	if idx := strings.IndexByte(namespace, '.'); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

func fieldMessage(key string, fe validator.FieldError) string {
	label := FieldLabel(key)
	switch fe.Tag() {
	case "required", "required_without", "notblank":
		return label + " is required"
	case "email":
		return label + " must be a valid email address"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", label, strings.Join(strings.Fields(fe.Param()), ", "))
	case "gte":
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", label, fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("%s needs at least %s entries", label, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", label, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", label, fe.Param())
	default:
		return label + " is invalid"
	}
}

// FieldLabel turns a JSON field path into a human label, e.g.
// "billingContact.email" -> "Billing contact email", "products[0].units" ->
// "Products units". A labelled field inside a collection item stands alone:
// "products[1].productId" -> "Product ID".
func FieldLabel(key string) string {
	var (
		words  []string
		inItem bool
	)
	for _, part := range strings.Split(key, ".") {
		indexed := false
		if idx := strings.IndexByte(part, '['); idx >= 0 {
			part = part[:idx]
			indexed = true
		}
		if label, ok := fieldLabels[part]; ok {
			if inItem {
				words = words[:0]
			}
			words = append(words, label)
		} else {
			words = append(words, splitCamel(part)...)
		}
		inItem = indexed
	}
	if len(words) == 0 {
		return "Value"
	}
	label := strings.Join(words, " ")
	runes := []rune(label)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func splitCamel(s string) []string {
	var (
		words []string
		cur   []rune
	)
	for _, r := range s {
		if unicode.IsUpper(r) && len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
		cur = append(cur, unicode.ToLower(r))
	}
	if len(cur) > 0 {
		words = append(words, string(cur))
	}
	return words
}
