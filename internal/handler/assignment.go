package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"asset-inventory-api/internal/model"
	"asset-inventory-api/internal/repository"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// AssignmentHandler handles the HTTP requests for asset assignments.
type AssignmentHandler struct {
	Service AssignmentService
	Logger  *logrus.Logger

	ErrorHandler   *ErrorHandler
	ResponseHelper *ResponseHelper
}

// NewAssignmentHandler creates a new AssignmentHandler with dependencies and helpers
func NewAssignmentHandler(svc AssignmentService, logger *logrus.Logger) *AssignmentHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &AssignmentHandler{
		Service:        svc,
		Logger:         logger,
		ErrorHandler:   NewErrorHandler(logger),
		ResponseHelper: NewResponseHelper(),
	}
}

// CreateAssignmentHandler files a new assignment request in pending status.
func (h *AssignmentHandler) CreateAssignmentHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	var assignment model.AssetAssignment
	if err := json.NewDecoder(r.Body).Decode(&assignment); err != nil {
		h.ErrorHandler.HandleJSONDecodeError(w, err)
		return
	}

	created, err := h.Service.Create(ctx, assignment)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "create assignment")
		return
	}

	h.ErrorHandler.SendSuccessResponse(w, http.StatusCreated, "Assignment created successfully", created)
}

// GetAssignmentHandler returns one assignment by id.
func (h *AssignmentHandler) GetAssignmentHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
	defer cancel()

	id, valid := h.ErrorHandler.ParseAndValidateUUID(w, mux.Vars(r)["id"])
	if !valid {
		return
	}

	assignment, err := h.Service.Get(ctx, id)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "retrieve assignment")
		return
	}

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, assignment)
}

// ListAssignmentsHandler lists assignments with pagination, filtered by
// status, asset and assignee.
func (h *AssignmentHandler) ListAssignmentsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, LongRunningTimeout)
	defer cancel()

	query := r.URL.Query()
	filter := repository.AssignmentFilter{
		Status:     model.AssignmentStatus(query.Get("status")),
		AssetID:    query.Get("asset_id"),
		AssignedTo: query.Get("assigned_to"),
	}
	if raw := query.Get("asset_type"); raw != "" {
		assetType, err := model.ParseAssetType(raw)
		if err != nil {
			h.ErrorHandler.HandleInvalidParameter(w, "asset_type", err.Error())
			return
		}
		filter.AssetType = assetType
	}

	paginationParams := h.ResponseHelper.ParsePaginationParams(r)

	result, err := h.Service.List(ctx, filter, paginationParams.Repository())
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "list assignments")
		return
	}

	paginationMeta := h.ResponseHelper.CalculatePaginationMeta(paginationParams, result.TotalCount)
	responseData := h.ResponseHelper.CreatePaginatedListResponseData(result.Items, paginationMeta, nil)

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, responseData)
}

// ActionHandler applies one workflow step to the assignment in the path.
func (h *AssignmentHandler) ActionHandler(action model.AssignmentAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
		defer cancel()

		id, valid := h.ErrorHandler.ParseAndValidateUUID(w, mux.Vars(r)["id"])
		if !valid {
			return
		}

		assignment, err := h.Service.Apply(ctx, id, action)
		if err != nil {
			h.ErrorHandler.HandleServiceError(w, err, fmt.Sprintf("%s assignment", action))
			return
		}

		h.ErrorHandler.SendSuccessResponse(w, http.StatusOK, fmt.Sprintf("Assignment %s", assignment.Status), assignment)
	}
}
