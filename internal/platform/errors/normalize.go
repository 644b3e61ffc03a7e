package errors

import "fmt"

// FallbackMessage is surfaced when an error defies interpretation
const FallbackMessage = "An unexpected error occurred"

// Normalized is the uniform shape presentation code consumes.
// FieldErrors is nil when no per-field detail exists
type Normalized struct {
	Message     string
	FieldErrors map[string][]string
}

// Normalize reduces any caught value to a Normalized. It never panics:
// total over *Error, plain errors, strings, Stringers, and anything else
func Normalize(v any) (n Normalized) {
	defer func() {
		if recover() != nil {
			n = Normalized{Message: FallbackMessage}
		}
	}()

	switch x := v.(type) {
	case nil:
		return Normalized{Message: FallbackMessage}
	case *Error:
		if x == nil {
			return Normalized{Message: FallbackMessage}
		}
		return Normalized{Message: x.msg, FieldErrors: x.fields}
	case error:
		if e, ok := As(x); ok {
			return Normalized{Message: e.msg, FieldErrors: e.fields}
		}
		if msg := x.Error(); msg != "" {
			return Normalized{Message: msg}
		}
		return Normalized{Message: FallbackMessage}
	case string:
		if x == "" {
			return Normalized{Message: FallbackMessage}
		}
		return Normalized{Message: x}
	case fmt.Stringer:
		return Normalized{Message: x.String()}
	default:
		return Normalized{Message: fmt.Sprint(x)}
	}
}
