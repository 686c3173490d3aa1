// Package apierrors renders JSON error responses for the HTTP API.
package apierrors

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError describes one rejected request field
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

func InvalidRequest(message string) *APIError {
	return New(http.StatusBadRequest, "INVALID_REQUEST", message)
}

func UnsupportedMediaType(message string) *APIError {
	return New(http.StatusUnsupportedMediaType, "UNSUPPORTED_FORMAT", message)
}

func PayloadTooLarge(message string) *APIError {
	return New(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", message)
}

func Internal() *APIError {
	return New(http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// Write renders e as the response.
func Write(w http.ResponseWriter, r *http.Request, e *APIError) {
	_ = render.Render(w, r, e)
}

// NewValidator returns a validator that reports JSON field names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FromValidation converts validator errors into a 400 with per-field details.
func FromValidation(err error) *APIError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return InvalidRequest(err.Error())
	}

	details := make([]ValidationError, 0, len(verrs))
	for _, fe := range verrs {
		details = append(details, ValidationError{
			Field:   fe.Field(),
			Message: validationMessage(fe),
		})
	}
	e := New(http.StatusBadRequest, "VALIDATION_FAILED", "request validation failed")
	e.Details = details
	return e
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}
