package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"asset-inventory-api/internal/repository"
)

// ResponseHelper builds pagination, list and health payloads and derives
// per-handler contexts.
type ResponseHelper struct{}

// NewResponseHelper creates a new ResponseHelper instance
func NewResponseHelper() *ResponseHelper {
	return &ResponseHelper{}
}

// ServiceName is reported by the health endpoint.
const ServiceName = "asset-inventory-api"

// PaginationParams holds pagination parameters
type PaginationParams struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Offset   int `json:"offset"`
	Limit    int `json:"limit"`
}

// Repository converts the request window into storage paging.
func (p PaginationParams) Repository() repository.PaginationParams {
	return repository.PaginationParams{Offset: p.Offset, Limit: p.Limit}
}

// PaginationMeta holds pagination metadata for responses
type PaginationMeta struct {
	Page         int  `json:"page"`
	PageSize     int  `json:"page_size"`
	TotalItems   int  `json:"total_items"`
	TotalPages   int  `json:"total_pages"`
	HasNext      bool `json:"has_next"`
	HasPrevious  bool `json:"has_previous"`
	NextPage     *int `json:"next_page,omitempty"`
	PreviousPage *int `json:"previous_page,omitempty"`
}

// Default pagination constants
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	MinPageSize     = 1
)

// ParsePaginationParams reads page and page_size. Values that are missing,
// malformed or out of range fall back to page 1 and DefaultPageSize.
func (rh *ResponseHelper) ParsePaginationParams(r *http.Request) PaginationParams {
	query := r.URL.Query()

	page := 1
	if p, err := strconv.Atoi(query.Get("page")); err == nil && p > 0 {
		page = p
	}

	pageSize := DefaultPageSize
	if ps, err := strconv.Atoi(query.Get("page_size")); err == nil && ps >= MinPageSize && ps <= MaxPageSize {
		pageSize = ps
	}

	return PaginationParams{
		Page:     page,
		PageSize: pageSize,
		Offset:   (page - 1) * pageSize,
		Limit:    pageSize,
	}
}

// CalculatePaginationMeta derives page counts and neighbours for a result of
// totalItems rows. An empty result still reports one page.
func (rh *ResponseHelper) CalculatePaginationMeta(params PaginationParams, totalItems int) PaginationMeta {
	totalPages := max(1, (totalItems+params.PageSize-1)/params.PageSize)

	meta := PaginationMeta{
		Page:        params.Page,
		PageSize:    params.PageSize,
		TotalItems:  totalItems,
		TotalPages:  totalPages,
		HasNext:     params.Page < totalPages,
		HasPrevious: params.Page > 1,
	}
	if meta.HasNext {
		next := params.Page + 1
		meta.NextPage = &next
	}
	if meta.HasPrevious {
		prev := params.Page - 1
		meta.PreviousPage = &prev
	}
	return meta
}

// CreateRequestContext bounds a handler's work. The request context is the
// parent so the acting user and client IP reach the service layer.
func (rh *ResponseHelper) CreateRequestContext(r *http.Request, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), timeout)
}

// CreatePaginatedListResponseData wraps a page of items. Keys in extra are
// merged into the top level.
func (rh *ResponseHelper) CreatePaginatedListResponseData(items interface{}, pagination PaginationMeta, extra map[string]interface{}) map[string]interface{} {
	data := make(map[string]interface{}, len(extra)+2)
	for key, value := range extra {
		data[key] = value
	}
	data["items"] = items
	data["pagination"] = pagination
	return data
}

// CreateHealthCheckData reports "degraded" when any check is not "ok".
func (rh *ResponseHelper) CreateHealthCheckData(checks map[string]string) map[string]interface{} {
	status := "healthy"
	for _, v := range checks {
		if v != "ok" {
			status = "degraded"
		}
	}

	data := map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"service":   ServiceName,
		"status":    status,
	}
	if len(checks) > 0 {
		data["checks"] = checks
	}
	return data
}
