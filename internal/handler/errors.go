package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	apperrors "asset-inventory-api/pkg/errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Error response structure for consistent JSON error responses
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Success response structure for consistent JSON success responses
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorHandler provides centralized error handling functionality for handlers
type ErrorHandler struct {
	Logger *logrus.Logger
}

// NewErrorHandler creates a new ErrorHandler instance
func NewErrorHandler(logger *logrus.Logger) *ErrorHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ErrorHandler{
		Logger: logger,
	}
}

// SendErrorResponse sends a structured error response
func (e *ErrorHandler) SendErrorResponse(w http.ResponseWriter, statusCode int, message, code string, details map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		e.Logger.WithError(err).Error("failed to encode error response")
	}
}

// SendSuccessResponse sends a structured success response
func (e *ErrorHandler) SendSuccessResponse(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := SuccessResponse{
		Message: message,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		e.Logger.WithError(err).Error("failed to encode success response")
	}
}

// SendJSONResponse sends a generic JSON response
func (e *ErrorHandler) SendJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		e.Logger.WithError(err).Error("failed to encode JSON response")
		e.SendErrorResponse(w, http.StatusInternalServerError, "Failed to encode response", "ENCODING_ERROR", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(append(body, '\n'))
}

// HandleServiceError maps a service failure to an HTTP response. Application
// errors carry their own status and code; anything else is a 500.
func (e *ErrorHandler) HandleServiceError(w http.ResponseWriter, err error, operation string) {
	log := e.Logger.WithField("operation", operation).WithError(err)

	if appErr, ok := apperrors.AsAppError(err); ok {
		status := appErr.GetHTTPStatus()
		if status >= http.StatusInternalServerError {
			log.Error("request failed")
		} else {
			log.Debug("request rejected")
		}
		e.SendErrorResponse(w, status, appErr.Message, string(appErr.Code), appErr.Details)
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		log.Warn("request timed out")
		e.SendErrorResponse(w, http.StatusRequestTimeout, "Operation timed out", string(apperrors.ErrorCodeTimeout), nil)
		return
	}

	log.Error("unexpected error")
	e.SendErrorResponse(w, http.StatusInternalServerError, fmt.Sprintf("Failed to %s", operation), string(apperrors.ErrorCodeInternal), nil)
}

// HandleValidationErrors handles validation errors and sends appropriate response
func (e *ErrorHandler) HandleValidationErrors(w http.ResponseWriter, validationErrors map[string]string) {
	if len(validationErrors) > 0 {
		e.SendErrorResponse(w, http.StatusBadRequest, "Validation failed", string(apperrors.ErrorCodeValidation), validationErrors)
	}
}

// HandleJSONDecodeError handles JSON decoding errors
func (e *ErrorHandler) HandleJSONDecodeError(w http.ResponseWriter, err error) {
	appErr := apperrors.InvalidJSONError(err)
	e.Logger.WithError(err).Debug("JSON decode error")
	e.SendErrorResponse(w, appErr.GetHTTPStatus(), appErr.Message, string(appErr.Code), nil)
}

// HandleUUIDParseError handles UUID parsing errors
func (e *ErrorHandler) HandleUUIDParseError(w http.ResponseWriter, err error) {
	e.Logger.WithError(err).Debug("UUID parse error")
	e.SendErrorResponse(w, http.StatusBadRequest, "Invalid UUID format", "INVALID_UUID", nil)
}

// ParseAndValidateUUID parses and validates UUID from string
func (e *ErrorHandler) ParseAndValidateUUID(w http.ResponseWriter, idStr string) (uuid.UUID, bool) {
	if idStr == "" {
		e.SendErrorResponse(w, http.StatusBadRequest, "ID is required", "INVALID_UUID", nil)
		return uuid.Nil, false
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		e.HandleUUIDParseError(w, err)
		return uuid.Nil, false
	}

	return id, true
}

// HandleInvalidParameter rejects a malformed query parameter.
func (e *ErrorHandler) HandleInvalidParameter(w http.ResponseWriter, name, reason string) {
	e.SendErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Invalid %s parameter", name), string(apperrors.ErrorCodeInvalidParameter), map[string]string{name: reason})
}
