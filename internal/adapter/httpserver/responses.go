package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fairyhunter13/ielts-writing-coach/internal/domain"
)

// Error codes of the JSON error envelope.
const (
	codeInvalidArgument = "INVALID_ARGUMENT"
	codeNotFound        = "NOT_FOUND"
	codeUpstreamTimeout = "UPSTREAM_TIMEOUT"
	codeUpstreamFailure = "UPSTREAM_FAILURE"
	codeInternal        = "INTERNAL"
)

type errorEnvelope struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeStatus writes an error envelope with an explicit status.
func writeStatus(w http.ResponseWriter, status int, code, message string, details any) {
	writeJSON(w, status, errorEnvelope{Error: apiError{Code: code, Message: message, Details: details}})
}

// writeError maps domain sentinels onto HTTP statuses. Internal failures
// never echo the wrapped error text.
func writeError(w http.ResponseWriter, _ *http.Request, err error, details any) {
	status, code, msg := http.StatusInternalServerError, codeInternal, "internal error"
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		status, code, msg = http.StatusBadRequest, codeInvalidArgument, err.Error()
	case errors.Is(err, domain.ErrNotFound):
		status, code, msg = http.StatusNotFound, codeNotFound, err.Error()
	case errors.Is(err, domain.ErrUpstreamTimeout):
		status, code, msg = http.StatusServiceUnavailable, codeUpstreamTimeout, err.Error()
	case errors.Is(err, domain.ErrAICall), errors.Is(err, domain.ErrJSONExtraction):
		status, code, msg = http.StatusBadGateway, codeUpstreamFailure, err.Error()
	}
	writeStatus(w, status, code, msg, details)
}
