package errors

import (
	"net/http"
	"testing"
)

func TestParseWireStructuredValidation(t *testing.T) {
	body := []byte(`{
		"code": "VALIDATION_ERROR",
		"fields": [
			{"field": "amountRequested", "message": "must be >= 1000", "expectedType": "number", "receivedType": "string"},
			{"field": "interestRate", "message": "is required"}
		]
	}`)
	err := ParseWire(http.StatusBadRequest, body)

	n := Normalize(err)
	if want := "Validation errors in: Amount Requested, Interest Rate"; n.Message != want {
		t.Fatalf("message = %q, want %q", n.Message, want)
	}
	if got := n.FieldErrors["amountRequested"]; len(got) != 1 || got[0] != "must be >= 1000" {
		t.Fatalf("amountRequested errors = %v", got)
	}
	if got := n.FieldErrors["interestRate"]; len(got) != 1 || got[0] != "is required" {
		t.Fatalf("interestRate errors = %v", got)
	}
	if CodeOf(err) != ErrorCodeValidation {
		t.Fatalf("code = %v, want validation", CodeOf(err))
	}
}

func TestParseWireLegacyShapes(t *testing.T) {
	cases := []struct {
		name       string
		status     int
		body       string
		wantMsg    string
		wantFields map[string][]string
	}{
		{
			name:    "string message only",
			status:  http.StatusBadRequest,
			body:    `{"message": "Invalid credentials"}`,
			wantMsg: "Invalid credentials",
		},
		{
			name:    "object message takes first value in key order",
			status:  http.StatusBadRequest,
			body:    `{"message": {"b": "second", "a": "first"}}`,
			wantMsg: "first",
		},
		{
			name:    "errors map with string and array values",
			status:  http.StatusBadRequest,
			body:    `{"message": "Validation failed", "errors": {"email": "is taken", "password": ["too short", "needs a digit"]}}`,
			wantMsg: "Validation failed",
			wantFields: map[string][]string{
				"email":    {"is taken"},
				"password": {"too short", "needs a digit"},
			},
		},
		{
			name:    "empty body falls back to status text",
			status:  http.StatusBadGateway,
			body:    "",
			wantMsg: http.StatusText(http.StatusBadGateway),
		},
		{
			name:    "malformed json falls back to status text",
			status:  http.StatusInternalServerError,
			body:    `{"message": `,
			wantMsg: http.StatusText(http.StatusInternalServerError),
		},
		{
			name:    "code without fields used as message",
			status:  http.StatusConflict,
			body:    `{"code": "DUPLICATE_LOAN"}`,
			wantMsg: "DUPLICATE_LOAN",
		},
	}

	for _, c := range cases {
		err := ParseWire(c.status, []byte(c.body))
		n := Normalize(err)
		if n.Message != c.wantMsg {
			t.Fatalf("%s: message = %q, want %q", c.name, n.Message, c.wantMsg)
		}
		if c.wantFields == nil && n.FieldErrors != nil {
			t.Fatalf("%s: unexpected field errors %v", c.name, n.FieldErrors)
		}
		for f, want := range c.wantFields {
			got := n.FieldErrors[f]
			if len(got) != len(want) {
				t.Fatalf("%s: field %q errors = %v, want %v", c.name, f, got, want)
			}
			for i := range want {
				if got[i] != want[i] {
					t.Fatalf("%s: field %q errors = %v, want %v", c.name, f, got, want)
				}
			}
		}
	}
}

func TestParseWireStatusClassification(t *testing.T) {
	cases := []struct {
		status int
		want   ErrorCode
	}{
		{http.StatusUnauthorized, ErrorCodeUnauthorized},
		{http.StatusForbidden, ErrorCodeForbidden},
		{http.StatusServiceUnavailable, ErrorCodeUnavailable},
	}
	for _, c := range cases {
		if got := CodeOf(ParseWire(c.status, []byte(`{"message":"x"}`))); got != c.want {
			t.Fatalf("ParseWire(%d) code = %v, want %v", c.status, got, c.want)
		}
	}
}
