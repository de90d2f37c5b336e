// Package httpjson holds the JSON request/response conventions shared by
// every feature handler: strict request decoding, a uniform error
// envelope, and list payloads that never encode as null.
package httpjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// maxBodyBytes caps request bodies; nothing in this API legitimately
// sends more than a project document.
const maxBodyBytes = 1 << 20

// Decode reads the request body into dst. Unknown fields and trailing
// data are rejected so client typos surface as 400s instead of silently
// dropped fields.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid json body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid json body: trailing data")
	}
	return nil
}

// Write encodes v with the given status. Encoding failures at this point
// cannot be reported to the client; callers log them.
func Write(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// errorBody is the uniform error envelope. Fields carries per-field
// validation details when present.
type errorBody struct {
	Error  string `json:"error"`
	Fields any    `json:"fields,omitempty"`
}

// Error writes the error envelope with the given status and message.
func Error(w http.ResponseWriter, status int, msg string) {
	_ = Write(w, status, errorBody{Error: msg})
}

// FieldError names one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors writes a 422 with per-field validation details.
func FieldErrors(w http.ResponseWriter, msg string, fields any) {
	_ = Write(w, http.StatusUnprocessableEntity, errorBody{Error: msg, Fields: fields})
}

// List guarantees a non-nil slice so empty results encode as [] rather
// than null, which SPA table components choke on.
func List[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

// Paged is the envelope for limit/offset list endpoints.
type Paged[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// NewPaged builds a Paged envelope with a never-null item slice.
func NewPaged[T any](items []T, total int64, page, limit int) Paged[T] {
	return Paged[T]{Items: List(items), Total: total, Page: page, Limit: limit}
}
