package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"asset-inventory-api/internal/model"
	"asset-inventory-api/internal/repository"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Constants for timeouts
const (
	DefaultTimeout     = 10 * time.Second
	LongRunningTimeout = 15 * time.Second
	HealthCheckTimeout = 2 * time.Second
)

// HealthCheck checks one dependency.
type HealthCheck func(ctx context.Context) error

// InventoryHandler handles the HTTP requests for assets, their history and the
// dashboard.
type InventoryHandler struct {
	Service InventoryService
	Logger  *logrus.Logger

	// Checks run by the health endpoint, keyed by dependency name.
	Checks map[string]HealthCheck

	ErrorHandler   *ErrorHandler
	ResponseHelper *ResponseHelper
}

// NewInventoryHandler creates a new InventoryHandler with dependencies and helpers
func NewInventoryHandler(svc InventoryService, logger *logrus.Logger) *InventoryHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return &InventoryHandler{
		Service:        svc,
		Logger:         logger,
		Checks:         map[string]HealthCheck{},
		ErrorHandler:   NewErrorHandler(logger),
		ResponseHelper: NewResponseHelper(),
	}
}

// parseAssetFilter reads the list filters. department and model narrow
// computers; computer (or computer_id) narrows monitors and docking stations.
func (h *InventoryHandler) parseAssetFilter(w http.ResponseWriter, r *http.Request, assetType model.AssetType) (repository.AssetFilter, bool) {
	query := r.URL.Query()
	filter := repository.AssetFilter{
		Status: model.AssetStatus(query.Get("status")),
		Search: query.Get("search"),
		Make:   query.Get("make"),
	}
	switch assetType {
	case model.AssetTypeComputer:
		filter.Department = query.Get("department")
		filter.Model = query.Get("model")
	case model.AssetTypeMonitor, model.AssetTypeDockingStation:
		filter.ComputerID = query.Get("computer")
		if filter.ComputerID == "" {
			filter.ComputerID = query.Get("computer_id")
		}
	}
	if filter.Status != "" && !filter.Status.Valid() {
		h.ErrorHandler.HandleInvalidParameter(w, "status", "unknown asset status")
		return filter, false
	}
	return filter, true
}

// ListHandler lists assets of one type, newest first, with pagination and the
// filters read by parseAssetFilter.
func (h *InventoryHandler) ListHandler(assetType model.AssetType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.ResponseHelper.CreateRequestContext(r, LongRunningTimeout)
		defer cancel()

		filter, ok := h.parseAssetFilter(w, r, assetType)
		if !ok {
			return
		}
		paginationParams := h.ResponseHelper.ParsePaginationParams(r)

		var (
			items interface{}
			total int
		)
		switch assetType {
		case model.AssetTypeComputer:
			result, err := h.Service.ListComputers(ctx, filter, paginationParams.Repository())
			if err != nil {
				h.ErrorHandler.HandleServiceError(w, err, "list computers")
				return
			}
			items, total = result.Items, result.TotalCount
		case model.AssetTypePrinter:
			result, err := h.Service.ListPrinters(ctx, filter, paginationParams.Repository())
			if err != nil {
				h.ErrorHandler.HandleServiceError(w, err, "list printers")
				return
			}
			items, total = result.Items, result.TotalCount
		default:
			result, err := h.Service.ListPeripherals(ctx, assetType, filter, paginationParams.Repository())
			if err != nil {
				h.ErrorHandler.HandleServiceError(w, err, "list "+assetType.Table())
				return
			}
			items, total = result.Items, result.TotalCount
		}

		paginationMeta := h.ResponseHelper.CalculatePaginationMeta(paginationParams, total)
		responseData := h.ResponseHelper.CreatePaginatedListResponseData(items, paginationMeta, map[string]interface{}{
			"asset_type": assetType,
		})

		h.ErrorHandler.SendJSONResponse(w, http.StatusOK, responseData)
	}
}

// CreateHandler creates an asset of one type. The id is allocated when the body
// leaves it empty.
func (h *InventoryHandler) CreateHandler(assetType model.AssetType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
		defer cancel()

		var (
			created interface{}
			err     error
		)
		switch assetType {
		case model.AssetTypeComputer:
			var c model.Computer
			if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
				h.ErrorHandler.HandleJSONDecodeError(w, err)
				return
			}
			created, err = h.Service.CreateComputer(ctx, c)
		case model.AssetTypePrinter:
			var p model.Printer
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				h.ErrorHandler.HandleJSONDecodeError(w, err)
				return
			}
			created, err = h.Service.CreatePrinter(ctx, p)
		default:
			var p model.Peripheral
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				h.ErrorHandler.HandleJSONDecodeError(w, err)
				return
			}
			created, err = h.Service.CreatePeripheral(ctx, assetType, p)
		}
		if err != nil {
			h.ErrorHandler.HandleServiceError(w, err, "create "+assetType.DisplayName())
			return
		}

		h.ErrorHandler.SendSuccessResponse(w, http.StatusCreated, fmt.Sprintf("%s created successfully", assetType.DisplayName()), created)
	}
}

// GetHandler returns one asset by id.
func (h *InventoryHandler) GetHandler(assetType model.AssetType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
		defer cancel()

		id := mux.Vars(r)["id"]

		var (
			asset interface{}
			err   error
		)
		switch assetType {
		case model.AssetTypeComputer:
			asset, err = h.Service.GetComputer(ctx, id)
		case model.AssetTypePrinter:
			asset, err = h.Service.GetPrinter(ctx, id)
		default:
			asset, err = h.Service.GetPeripheral(ctx, assetType, id)
		}
		if err != nil {
			h.ErrorHandler.HandleServiceError(w, err, "retrieve "+assetType.DisplayName())
			return
		}

		h.ErrorHandler.SendJSONResponse(w, http.StatusOK, asset)
	}
}

// UpdateHandler replaces an asset's fields. The id in the path wins over any
// id in the body.
func (h *InventoryHandler) UpdateHandler(assetType model.AssetType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
		defer cancel()

		id := mux.Vars(r)["id"]

		var (
			updated interface{}
			err     error
		)
		switch assetType {
		case model.AssetTypeComputer:
			var c model.Computer
			if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
				h.ErrorHandler.HandleJSONDecodeError(w, err)
				return
			}
			updated, err = h.Service.UpdateComputer(ctx, id, c)
		case model.AssetTypePrinter:
			var p model.Printer
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				h.ErrorHandler.HandleJSONDecodeError(w, err)
				return
			}
			updated, err = h.Service.UpdatePrinter(ctx, id, p)
		default:
			var p model.Peripheral
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				h.ErrorHandler.HandleJSONDecodeError(w, err)
				return
			}
			updated, err = h.Service.UpdatePeripheral(ctx, assetType, id, p)
		}
		if err != nil {
			h.ErrorHandler.HandleServiceError(w, err, "update "+assetType.DisplayName())
			return
		}

		h.ErrorHandler.SendSuccessResponse(w, http.StatusOK, fmt.Sprintf("%s updated successfully", assetType.DisplayName()), updated)
	}
}

// DeleteHandler removes an asset. Its history stays queryable.
func (h *InventoryHandler) DeleteHandler(assetType model.AssetType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
		defer cancel()

		id := mux.Vars(r)["id"]

		var err error
		switch assetType {
		case model.AssetTypeComputer:
			err = h.Service.DeleteComputer(ctx, id)
		case model.AssetTypePrinter:
			err = h.Service.DeletePrinter(ctx, id)
		default:
			err = h.Service.DeletePeripheral(ctx, assetType, id)
		}
		if err != nil {
			h.ErrorHandler.HandleServiceError(w, err, "delete "+assetType.DisplayName())
			return
		}

		h.ErrorHandler.SendSuccessResponse(w, http.StatusOK, fmt.Sprintf("%s deleted successfully", assetType.DisplayName()), map[string]interface{}{
			"id":         id,
			"asset_type": assetType,
		})
	}
}

// AssetHistoryHandler lists the audit trail of one asset, newest first.
func (h *InventoryHandler) AssetHistoryHandler(assetType model.AssetType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := h.ResponseHelper.CreateRequestContext(r, DefaultTimeout)
		defer cancel()

		id := mux.Vars(r)["id"]
		paginationParams := h.ResponseHelper.ParsePaginationParams(r)

		result, err := h.Service.AssetHistory(ctx, assetType, id, paginationParams.Repository())
		if err != nil {
			h.ErrorHandler.HandleServiceError(w, err, "retrieve history")
			return
		}

		paginationMeta := h.ResponseHelper.CalculatePaginationMeta(paginationParams, result.TotalCount)
		responseData := h.ResponseHelper.CreatePaginatedListResponseData(result.Items, paginationMeta, map[string]interface{}{
			"asset_type": assetType,
			"asset_id":   id,
		})

		h.ErrorHandler.SendJSONResponse(w, http.StatusOK, responseData)
	}
}

// ListHistoryHandler lists history across all assets. asset_type accepts the
// type code or its display name.
func (h *InventoryHandler) ListHistoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, LongRunningTimeout)
	defer cancel()

	query := r.URL.Query()
	filter := repository.HistoryFilter{
		AssetID: query.Get("asset_id"),
		Action:  model.HistoryAction(query.Get("action")),
	}
	if raw := query.Get("asset_type"); raw != "" {
		assetType, err := model.ParseAssetType(raw)
		if err != nil {
			h.ErrorHandler.HandleInvalidParameter(w, "asset_type", err.Error())
			return
		}
		filter.AssetType = assetType.DisplayName()
	}

	paginationParams := h.ResponseHelper.ParsePaginationParams(r)

	result, err := h.Service.ListHistory(ctx, filter, paginationParams.Repository())
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "retrieve history")
		return
	}

	paginationMeta := h.ResponseHelper.CalculatePaginationMeta(paginationParams, result.TotalCount)
	responseData := h.ResponseHelper.CreatePaginatedListResponseData(result.Items, paginationMeta, nil)

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, responseData)
}

// DashboardHandler returns the inventory overview.
func (h *InventoryHandler) DashboardHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, LongRunningTimeout)
	defer cancel()

	stats, err := h.Service.Dashboard(ctx)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "build dashboard")
		return
	}

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, stats)
}

// ComputersByDepartmentHandler reports how many computers each department
// holds, largest first.
func (h *InventoryHandler) ComputersByDepartmentHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, LongRunningTimeout)
	defer cancel()

	counts, err := h.Service.ComputersByDepartment(ctx)
	if err != nil {
		h.ErrorHandler.HandleServiceError(w, err, "count computers by department")
		return
	}

	h.ErrorHandler.SendJSONResponse(w, http.StatusOK, counts)
}

// HealthHandler provides a health check endpoint
func (h *InventoryHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.ResponseHelper.CreateRequestContext(r, HealthCheckTimeout)
	defer cancel()

	results := make(map[string]string, len(h.Checks))
	healthy := true
	for name, check := range h.Checks {
		if err := check(ctx); err != nil {
			h.Logger.WithError(err).WithField("check", name).Warn("health check failed")
			results[name] = err.Error()
			healthy = false
			continue
		}
		results[name] = "ok"
	}

	healthData := h.ResponseHelper.CreateHealthCheckData(results)
	if !healthy {
		h.ErrorHandler.SendSuccessResponse(w, http.StatusServiceUnavailable, "Service is degraded", healthData)
		return
	}
	h.ErrorHandler.SendSuccessResponse(w, http.StatusOK, "Service is healthy", healthData)
}
