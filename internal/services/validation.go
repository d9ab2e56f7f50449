package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const maxRequestBytes = 1_048_576 // 1 MB

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error             string            `json:"error"`                       // Error message
	Details           map[string]string `json:"details,omitempty"`           // Validation details
	RemainingAttempts *int              `json:"remainingAttempts,omitempty"` // PIN attempts left
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a validation helper. The "pin" tag accepts numeric
// strings between minPIN and maxPIN digits.
func NewValidationHelper(minPIN, maxPIN int) *ValidationHelper {
	v := validator.New()
	v.RegisterValidation("pin", func(fl validator.FieldLevel) bool {
		pin := fl.Field().String()
		if len(pin) < minPIN || len(pin) > maxPIN {
			return false
		}
		for _, c := range pin {
			if !unicode.IsDigit(c) {
				return false
			}
		}
		return true
	})

	return &ValidationHelper{validator: v}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// DecodeJSON reads a single JSON object from the request body into dst
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("request body must only contain a single JSON object")
	}
	return nil
}

// SendJSONResponse writes v as a JSON body
func SendJSONResponse(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(v)
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	errorResp := ErrorResponse{Error: message}

	var fieldErrs validator.ValidationErrors
	if errors.As(validationErr, &fieldErrs) {
		errorResp.Details = make(map[string]string)
		for _, err := range fieldErrs {
			errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
		}
	}

	SendJSONResponse(w, errorResp, statusCode)
}
