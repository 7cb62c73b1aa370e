package httpserver

import (
	"github.com/google/uuid"
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationResult represents the result of validation
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

func invalid(field, code, msg string) ValidationResult {
	return ValidationResult{Errors: []ValidationError{{Field: field, Code: code, Message: msg}}}
}

// ValidateReportID validates a report ID. Report IDs are UUIDs.
func ValidateReportID(id string) ValidationResult {
	if id == "" {
		return invalid("id", "REQUIRED", "Report ID is required")
	}
	if len(id) > 64 {
		return invalid("id", "TOO_LONG", "Report ID is too long (max 64 characters)")
	}
	if _, err := uuid.Parse(id); err != nil {
		return invalid("id", "INVALID_FORMAT", "Report ID must be a UUID")
	}
	return ValidationResult{Valid: true}
}
