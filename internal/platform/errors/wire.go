package errors

import (
	"encoding/json"
	"net/http"
	"sort"
	"strings"

	pstrings "fundlink/internal/platform/strings"
)

// The backend speaks three error payload dialects. The structured form
// carries a machine code plus per-field entries; the legacy form carries a
// top-level message (string or object) and an optional field->message(s)
// map; the generic form is just a message string

// wireField is one entry of the structured validation payload
type wireField struct {
	Field        string `json:"field"`
	Message      string `json:"message"`
	ExpectedType string `json:"expectedType"`
	ReceivedType string `json:"receivedType"`
}

// wirePayload is the union of all error payload dialects
type wirePayload struct {
	Code    string                     `json:"code"`
	Message json.RawMessage            `json:"message"`
	Fields  []wireField                `json:"fields"`
	Errors  map[string]json.RawMessage `json:"errors"`
}

// ParseWire turns an HTTP error status and response body into an *Error.
// The body may be any of the known payload dialects, malformed, or empty;
// parsing is best-effort and always yields a usable error
func ParseWire(status int, body []byte) error {
	code := CodeFromStatus(status)

	var p wirePayload
	if len(body) == 0 || json.Unmarshal(body, &p) != nil {
		return New(code, http.StatusText(status))
	}

	// structured dialect: machine code plus per-field entries
	if p.Code != "" && len(p.Fields) > 0 {
		fields := make(map[string][]string, len(p.Fields))
		names := make([]string, 0, len(p.Fields))
		for _, f := range p.Fields {
			if f.Field == "" {
				continue
			}
			if _, seen := fields[f.Field]; !seen {
				names = append(names, pstrings.FormatFieldName(f.Field))
			}
			fields[f.Field] = append(fields[f.Field], f.Message)
		}
		msg := "Validation errors in: " + strings.Join(names, ", ")
		return WithFields(New(ErrorCodeValidation, msg), fields)
	}

	msg := wireMessage(p.Message)
	if msg == "" && p.Code != "" {
		msg = p.Code
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	err := New(code, msg)
	if len(p.Errors) > 0 {
		err = WithFields(err, wireFieldErrors(p.Errors))
	}
	return err
}

// wireMessage extracts a display message from a raw message value that may
// be a string or an object; for objects the first value in key order wins
func wireMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) == nil && len(obj) > 0 {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return wireMessage(obj[keys[0]])
	}
	return strings.Trim(string(raw), `"`)
}

// wireFieldErrors normalizes every field's error(s) to a string slice
func wireFieldErrors(in map[string]json.RawMessage) map[string][]string {
	out := make(map[string][]string, len(in))
	for field, raw := range in {
		var one string
		if json.Unmarshal(raw, &one) == nil {
			out[field] = []string{one}
			continue
		}
		var many []string
		if json.Unmarshal(raw, &many) == nil {
			out[field] = many
			continue
		}
		out[field] = []string{strings.Trim(string(raw), `"`)}
	}
	return out
}
