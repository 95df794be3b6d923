package apiclient

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// MaxFieldLength caps every outgoing string, in characters.
const MaxFieldLength = 1000

var (
	tagRe      = regexp.MustCompile(`</?[A-Za-z][^<>]*>`)
	angleRe    = regexp.MustCompile(`[<>]`)
	jsSchemeRe = regexp.MustCompile(`(?i)javascript:`)
	inlineOnRe = regexp.MustCompile(`(?i)on\w+=`)
)

// Sanitize strips markup and script fragments from user input. It is a
// denylist, not an HTML parser: tag-shaped runs go first so that
// "<script>alert(1)</script>" becomes "alert(1)", then any stray angle
// bracket is dropped on its own.
func Sanitize(s string) string {
	s = tagRe.ReplaceAllString(s, "")
	s = angleRe.ReplaceAllString(s, "")
	s = jsSchemeRe.ReplaceAllString(s, "")
	s = inlineOnRe.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) > MaxFieldLength {
		s = string([]rune(s)[:MaxFieldLength])
	}
	return s
}

// SanitizeValue walks a decoded JSON value and sanitizes every string in
// it. Object keys are left alone. visit, when set, sees each original string.
func SanitizeValue(v any, visit func(string)) any {
	switch t := v.(type) {
	case string:
		if visit != nil {
			visit(t)
		}
		return Sanitize(t)
	case map[string]any:
		for k, val := range t {
			t[k] = SanitizeValue(val, visit)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = SanitizeValue(val, visit)
		}
		return t
	default:
		return v
	}
}
