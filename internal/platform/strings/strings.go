// Package strings provides string helpers shared across the client
package strings

import (
	std "strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English, cases.NoLower)

// FormatFieldName converts a camelCase field identifier into a
// space-separated Title Case label for human display.
// "amountRequested" -> "Amount Requested", "id" -> "Id"
func FormatFieldName(field string) string {
	field = std.TrimSpace(field)
	if field == "" {
		return ""
	}
	var b std.Builder
	b.Grow(len(field) + 4)
	prev := rune(0)
	for i, r := range field {
		if i > 0 && unicode.IsUpper(r) && !unicode.IsUpper(prev) {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
		prev = r
	}
	words := std.Fields(b.String())
	for i, w := range words {
		words[i] = titleCaser.String(w[:1]) + w[1:]
	}
	return std.Join(words, " ")
}

// CleanAmount strips thousands separators and surrounding whitespace from a
// user-entered amount string. "50,000" -> "50000"
func CleanAmount(s string) string {
	return std.TrimSpace(std.ReplaceAll(s, ",", ""))
}

// EmptyToNil returns empty string if s is all whitespace, otherwise returns s
func EmptyToNil(s string) string {
	if std.TrimSpace(s) == "" {
		return ""
	}
	return s
}

// Deref returns "" if ps is nil, else *ps
func Deref(ps *string) string {
	if ps == nil {
		return ""
	}
	return *ps
}

// Ptr returns a pointer to s, or nil if s is empty
func Ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// IfEmpty returns def when in is empty, otherwise in
func IfEmpty[T any](in []T, def []T) []T {
	if len(in) == 0 {
		return def
	}
	return in
}

// MustString returns s if it has non whitespace content otherwise panics
// name is used in the panic message so you can tell what was missing
func MustString(s string, name string) string {
	if std.TrimSpace(s) == "" {
		panic(name + " is required")
	}
	return s
}
