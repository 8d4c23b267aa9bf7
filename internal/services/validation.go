package services

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/kithmonite/engine/internal/models"
)

// ErrorResponse represents error response structure
type ErrorResponse struct {
	Error   string            `json:"error"`             // Error message
	Code    string            `json:"code,omitempty"`    // Classified rejection code
	Details map[string]string `json:"details,omitempty"` // Validation details
}

// ValidationHelper provides shared validation functionality
type ValidationHelper struct {
	validator *validator.Validate
}

// NewValidationHelper creates a new validation helper
func NewValidationHelper() *ValidationHelper {
	return &ValidationHelper{
		validator: validator.New(),
	}
}

// ValidateStruct validates a struct and returns validation errors
func (vh *ValidationHelper) ValidateStruct(s any) error {
	return vh.validator.Struct(s)
}

// ValidateRecord checks a transaction record's shape before it reaches the
// ledger: a known type, an amount exactly when the type requires one, and no
// negative amounts. Failures classify as MalformedRecord.
func (vh *ValidationHelper) ValidateRecord(rec *models.TransactionRecord) error {
	if err := vh.validator.Struct(rec); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if !rec.Type.CarriesAmount() && rec.Amount != nil {
		return fmt.Errorf("%w: %s must not carry an amount", ErrMalformedRecord, rec.Type)
	}
	if rec.Amount != nil && rec.Amount.IsNegative() {
		return fmt.Errorf("%w: negative amount %s", ErrMalformedRecord, rec.Amount.String())
	}
	return nil
}

// SendErrorResponse sends a JSON error response
func SendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	errorResp := ErrorResponse{Error: message}
	if validationErr != nil {
		if validationErrors, ok := validationErr.(validator.ValidationErrors); ok {
			errorResp.Details = make(map[string]string)
			for _, err := range validationErrors {
				errorResp.Details[err.Field()] = fmt.Sprintf("Field Validation Failed on '%s' tag", err.Tag())
			}
		} else {
			errorResp.Code = ErrorCode(validationErr)
		}
	}

	json.NewEncoder(w).Encode(errorResp)
}
