package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Violations maps a field path (json names, e.g. "items.0.quantity") to a code.
type Violations map[string]string

func (v Violations) Empty() bool { return len(v) == 0 }

// Basic validators
func Required(field, value string, v Violations) {
	if strings.TrimSpace(value) == "" {
		v[field] = "required"
	}
}

func NonNegative(field string, val decimal.Decimal, v Violations) {
	if val.IsNegative() {
		v[field] = "must_not_be_negative"
	}
}

func RangeDecimal(field string, val, minVal, maxVal decimal.Decimal, v Violations) {
	if val.LessThan(minVal) || val.GreaterThan(maxVal) {
		v[field] = "out_of_range"
	}
}

// Fits reports out_of_range when val is above maxVal and too_precise when it
// has more than places decimal places. A field that already has a violation
// keeps it.
func Fits(field string, val decimal.Decimal, places int32, maxVal decimal.Decimal, v Violations) {
	if _, ok := v[field]; ok {
		return
	}
	switch {
	case val.GreaterThan(maxVal):
		v[field] = "out_of_range"
	case !val.Round(places).Equal(val):
		v[field] = "too_precise"
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
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
	// decimals are checked through their float value (gte=0, lte=1)
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	return v
}

// Struct runs the `validate` tags of s and returns the violations found.
func Struct(s any) Violations {
	v := Violations{}
	err := validate.Struct(s)
	if err == nil {
		return v
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		v["_"] = "invalid"
		return v
	}
	for _, fe := range verrs {
		v[fieldPath(fe.Namespace())] = code(fe)
	}
	return v
}

var indexRe = regexp.MustCompile(`\[(\d+)\]`)

// fieldPath turns "Draft.items[1].quantity" into "items.1.quantity".
func fieldPath(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	return indexRe.ReplaceAllString(ns, ".$1")
}

func code(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if", "required_with":
		return "required"
	case "gte", "min":
		if fe.Param() == "0" && fe.Kind() != reflect.Slice && fe.Kind() != reflect.String {
			return "must_not_be_negative"
		}
		if fe.Kind() == reflect.Slice {
			return "required"
		}
		return "too_short"
	case "max", "lte":
		if fe.Kind() == reflect.String {
			return "too_long"
		}
		return "out_of_range"
	case "oneof":
		return "invalid_choice"
	default:
		return "invalid"
	}
}
