package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"asset-inventory-api/internal/model"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// SettingsHandler serves the per-user notification preferences.
type SettingsHandler struct {
	Service SettingsService
	Logger  *logrus.Logger

	ErrorHandler   *ErrorHandler
	ResponseHelper *ResponseHelper
}

// NewSettingsHandler creates a new SettingsHandler with dependencies and helpers
func NewSettingsHandler(svc SettingsService, logger *logrus.Logger) *SettingsHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &SettingsHandler{
		Service:        svc,
		Logger:         logger,
		ErrorHandler:   NewErrorHandler(logger),
		ResponseHelper: NewResponseHelper(),
	}
}

// ListSettingsHandler returns the preferences of every user.
func (h *SettingsHandler) ListSettingsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	settings, err := h.Service.ListSettings(ctx)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "list notification settings")
		return
	}

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, settings)
}

// GetSettingsHandler returns one user's preferences.
func (h *SettingsHandler) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	settings, err := h.Service.Settings(ctx, mux.Vars(r)["user_id"])
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "retrieve notification settings")
		return
	}

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, settings)
}

// PutSettingsHandler replaces one user's preferences. The user id comes from
// the path; a conflicting id in the body is rejected.
func (h *SettingsHandler) PutSettingsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	userID := mux.Vars(r)["user_id"]

	var settings model.NotificationSetting
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		h.ErrorHandler.HandleJSONDecodeError(w, err)
		return
	}
	if body := strings.TrimSpace(settings.UserID); body != "" && body != userID {
		h.ErrorHandler.HandleInvalidParameter(w, "user_id", "does not match the path")
		return
	}
	settings.UserID = userID

	saved, err := h.Service.SaveSettings(ctx, settings)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "save notification settings")
		return
	}

	h.ErrorHandler.SendSuccessResponse(w, http.StatusOK, "Notification settings saved", saved)
}
