// Package validate checks user input before it leaves the client. Struct
// rules are declared with `validate` tags; the custom tags registered here
// are brphone, password, rgbhex, weburl, isodate and notpast.
package validate

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	phoneRe  = regexp.MustCompile(`^(\+55\s?)?\(?[1-9]{2}\)?\s?9?[0-9]{4}-?[0-9]{4}$`)
	rgbHexRe = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

const passwordSymbols = `!@#$%^&*(),.?":{}|<>`

// now is swapped in tests.
var now = time.Now

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	val.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	mustRegister(val, "brphone", func(fl validator.FieldLevel) bool { return phoneRe.MatchString(fl.Field().String()) })
	mustRegister(val, "password", func(fl validator.FieldLevel) bool { return strongPassword(fl.Field().String()) })
	mustRegister(val, "rgbhex", func(fl validator.FieldLevel) bool { return rgbHexRe.MatchString(fl.Field().String()) })
	mustRegister(val, "weburl", func(fl validator.FieldLevel) bool { return webURL(fl.Field().String()) })
	mustRegister(val, "isodate", func(fl validator.FieldLevel) bool {
		_, err := time.Parse(time.DateOnly, fl.Field().String())
		return err == nil
	})
	mustRegister(val, "notpast", func(fl validator.FieldLevel) bool {
		d, err := time.ParseInLocation(time.DateOnly, fl.Field().String(), time.Local)
		if err != nil {
			return false
		}
		y, m, day := now().Date()
		return !d.Before(time.Date(y, m, day, 0, 0, 0, 0, time.Local))
	})
	return val
}

func mustRegister(val *validator.Validate, tag string, fn validator.Func) {
	if err := val.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s: %v", tag, err))
	}
}

// ValidationError lists the offending fields with a human readable reason.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// Struct validates s against its tags. Rule violations come back as a
// *ValidationError.
func Struct(s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		if _, seen := out.Fields[fe.Field()]; !seen {
			out.Fields[fe.Field()] = message(fe)
		}
	}
	return out
}

// Field checks a single value and reports the failure under name.
func Field(name string, value any, tag string) error {
	err := v.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	return &ValidationError{Fields: map[string]string{name: message(verrs[0])}}
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "brphone":
		return "must be a valid phone number"
	case "password":
		return "must have at least 8 characters with upper and lower case letters, a digit and a symbol"
	case "rgbhex":
		return "must be a #RRGGBB color"
	case "weburl":
		return "must be an http or https URL"
	case "isodate":
		return "must be a YYYY-MM-DD date"
	case "notpast":
		return "must not be in the past"
	case "min":
		if fe.Kind() == reflect.String {
			return "must be at least " + fe.Param() + " characters"
		}
		return "must be at least " + fe.Param()
	case "max":
		if fe.Kind() == reflect.String {
			return "must be at most " + fe.Param() + " characters"
		}
		return "must be at most " + fe.Param()
	case "gt":
		return "must be greater than " + fe.Param()
	case "oneof":
		return "must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	default:
		return "is invalid (" + fe.Tag() + ")"
	}
}

func Email(s string) bool    { return v.Var(s, "required,email") == nil }
func Phone(s string) bool    { return phoneRe.MatchString(s) }
func Name(s string) bool     { return v.Var(s, "required,min=2,max=50") == nil }
func Password(s string) bool { return strongPassword(s) }
func HexColor(s string) bool { return rgbHexRe.MatchString(s) }
func URL(s string) bool      { return webURL(s) }

func strongPassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}

func webURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}
