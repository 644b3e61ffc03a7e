package net

import (
	"net/http"
	"sort"

	perr "fundlink/internal/platform/errors"
)

// Wire is the API response envelope. Successful responses carry
// success=true plus data; failures carry the error message, a machine
// code, and optional per-field validation entries
type Wire struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Code    string      `json:"code,omitempty"`
	Fields  []WireField `json:"fields,omitempty"`
	Data    any         `json:"data,omitempty"`
}

// WireField is one per-field validation entry on an error envelope
type WireField struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// OK builds a 200 envelope
func OK(data any, msg string) (int, Wire) {
	return http.StatusOK, Wire{Success: true, Message: msg, Data: data}
}

// Created builds a 201 envelope
func Created(data any, msg string) (int, Wire) {
	return http.StatusCreated, Wire{Success: true, Message: msg, Data: data}
}

// NoContent builds a 204 envelope
func NoContent() (int, Wire) {
	return http.StatusNoContent, Wire{Success: true}
}

// Error builds an error envelope from a classified error
func Error(err error) (int, Wire) {
	if err == nil {
		return OK(nil, "")
	}
	status := perr.HTTPStatusCode(perr.CodeOf(err))
	w := Wire{Message: perr.Normalize(err).Message, Code: wireCode(perr.CodeOf(err))}
	if pe, ok := perr.As(err); ok {
		w.Fields = wireFields(pe.Fields())
	}
	return status, w
}

// wireFields flattens per-field messages into stable field order
func wireFields(fields map[string][]string) []WireField {
	if len(fields) == 0 {
		return nil
	}
	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	sort.Strings(names)
	out := make([]WireField, 0, len(fields))
	for _, f := range names {
		for _, m := range fields[f] {
			out = append(out, WireField{Field: f, Message: m})
		}
	}
	return out
}

// wireCode maps an error code to its wire identifier
func wireCode(c perr.ErrorCode) string {
	switch c {
	case perr.ErrorCodeValidation:
		return "VALIDATION_ERROR"
	case perr.ErrorCodeInvalidArgument:
		return "INVALID_ARGUMENT"
	case perr.ErrorCodeUnauthorized:
		return "UNAUTHORIZED"
	case perr.ErrorCodeForbidden:
		return "FORBIDDEN"
	case perr.ErrorCodeNotFound:
		return "NOT_FOUND"
	case perr.ErrorCodeConflict:
		return "CONFLICT"
	case perr.ErrorCodeTooManyRequests:
		return "RATE_LIMITED"
	default:
		return "INTERNAL_ERROR"
	}
}
