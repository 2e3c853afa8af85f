package errors

import (
	"net/http"
	"strings"
)

// FieldError describes one rejected request field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Tag     string `json:"tag"`
}

// ValidationError carries per-field errors for a rejected request body
type ValidationError struct {
	fields []FieldError
}

// NewValidationError creates a validation error from field errors
func NewValidationError(fields []FieldError) *ValidationError {
	return &ValidationError{fields: fields}
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.fields))
	for _, f := range e.fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}

	return "invalid input: " + strings.Join(msgs, "; ")
}

// Is lets errors.Is(err, ErrValidationFailed) match a ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationFailed
}

func (e *ValidationError) HTTPCode() int     { return http.StatusUnprocessableEntity }
func (e *ValidationError) ErrorCode() string { return ErrValidationFailed.ErrorCode() }
func (e *ValidationError) Message() string   { return ErrValidationFailed.Message() }
func (e *ValidationError) Details() string   { return e.Error() }

// Fields returns the rejected fields
func (e *ValidationError) Fields() []FieldError {
	return e.fields
}

// ErrorResponse defines the structure for error responses
type ErrorResponse struct {
	Status     bool         `json:"status"`
	StatusCode int          `json:"status_code"`
	Code       string       `json:"code,omitempty"` // Business error code, e.g., "INVALID_TOKEN"
	Message    string       `json:"message"`
	Errors     []FieldError `json:"errors,omitempty"`
	RequestID  string       `json:"request_id,omitempty"`
}
