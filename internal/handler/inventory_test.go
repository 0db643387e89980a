package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"asset-inventory-api/internal/audit"
	"asset-inventory-api/internal/model"
	"asset-inventory-api/internal/repository"
	apperrors "asset-inventory-api/pkg/errors"
)

func createTestHandler() (*InventoryHandler, *MockInventoryService) {
	svc := &MockInventoryService{}
	return NewInventoryHandler(svc, quietLogger()), svc
}

// Test CreateHandler

func TestCreateHandler_ComputerSuccess(t *testing.T) {
	handler, svc := createTestHandler()

	svc.CreateComputerFunc = func(ctx context.Context, c model.Computer) (*model.Computer, error) {
		if c.ID != "" {
			t.Errorf("Expected empty id to reach the service, got %q", c.ID)
		}
		if c.ComputerName == nil || *c.ComputerName != "WS-001" {
			t.Errorf("Unexpected computer data: got %+v", c)
		}
		c.ID = "computer-1"
		return &c, nil
	}

	req := createJSONRequest("POST", "/api/v1/computers", map[string]interface{}{
		"asset_tag":     "AT-1",
		"computer_name": "WS-001",
	})
	rr := httptest.NewRecorder()

	handler.CreateHandler(model.AssetTypeComputer)(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status code %d, got %d", http.StatusCreated, rr.Code)
	}

	var response struct {
		Message string         `json:"message"`
		Data    model.Computer `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response.Message != "Computer created successfully" {
		t.Errorf("Expected success message, got %s", response.Message)
	}
	if response.Data.ID != "computer-1" {
		t.Errorf("Expected allocated id computer-1, got %s", response.Data.ID)
	}
}

func TestCreateHandler_PassesRequestContext(t *testing.T) {
	handler, svc := createTestHandler()

	var seen audit.RequestContext
	svc.CreatePrinterFunc = func(ctx context.Context, p model.Printer) (*model.Printer, error) {
		seen = audit.FromContext(ctx)
		return &p, nil
	}

	req := createJSONRequest("POST", "/api/v1/printers", map[string]interface{}{"service_tag": "ST-9"})
	req = req.WithContext(audit.WithRequestContext(req.Context(), audit.RequestContext{UserID: sp("7"), IP: sp("10.1.1.1")}))
	rr := httptest.NewRecorder()

	handler.CreateHandler(model.AssetTypePrinter)(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status code %d, got %d", http.StatusCreated, rr.Code)
	}
	if seen.UserID == nil || *seen.UserID != "7" {
		t.Errorf("Expected user 7 in service context, got %v", seen.UserID)
	}
	if seen.IP == nil || *seen.IP != "10.1.1.1" {
		t.Errorf("Expected IP in service context, got %v", seen.IP)
	}
}

func TestCreateHandler_PeripheralType(t *testing.T) {
	handler, svc := createTestHandler()

	var gotType model.AssetType
	svc.CreatePeripheralFunc = func(ctx context.Context, assetType model.AssetType, p model.Peripheral) (*model.Peripheral, error) {
		gotType = assetType
		p.ID = "docking_station-1"
		p.Type = assetType
		return &p, nil
	}

	req := createJSONRequest("POST", "/api/v1/docking-stations", map[string]interface{}{"computer": "computer-1"})
	rr := httptest.NewRecorder()

	handler.CreateHandler(model.AssetTypeDockingStation)(rr, req)

	if rr.Code != http.StatusCreated {
		t.Fatalf("Expected status code %d, got %d", http.StatusCreated, rr.Code)
	}
	if gotType != model.AssetTypeDockingStation {
		t.Errorf("Expected docking_station, got %s", gotType)
	}
	if !strings.Contains(rr.Body.String(), "Docking Station created successfully") {
		t.Errorf("Unexpected body: %s", rr.Body.String())
	}
}

func TestCreateHandler_InvalidJSON(t *testing.T) {
	handler, _ := createTestHandler()

	req, _ := http.NewRequest("POST", "/api/v1/computers", strings.NewReader("invalid json"))
	rr := httptest.NewRecorder()

	handler.CreateHandler(model.AssetTypeComputer)(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, rr.Code)
	}
	response := decodeError(rr.Body.Bytes())
	if !strings.Contains(response.Error, "Invalid JSON") {
		t.Errorf("Expected JSON error message, got %s", response.Error)
	}
}

func TestCreateHandler_ValidationError(t *testing.T) {
	handler, svc := createTestHandler()

	svc.CreatePrinterFunc = func(ctx context.Context, p model.Printer) (*model.Printer, error) {
		return nil, apperrors.ValidationErrorWithDetails("Validation failed", map[string]string{
			"service_tag": "service_tag is required",
		})
	}

	req := createJSONRequest("POST", "/api/v1/printers", map[string]interface{}{})
	rr := httptest.NewRecorder()

	handler.CreateHandler(model.AssetTypePrinter)(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, rr.Code)
	}
	response := decodeError(rr.Body.Bytes())
	if response.Code != string(apperrors.ErrorCodeValidation) {
		t.Errorf("Expected validation code, got %s", response.Code)
	}
	if response.Details["service_tag"] == "" {
		t.Error("Expected service_tag detail to be present")
	}
}

func TestCreateHandler_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"duplicate tag", apperrors.AlreadyExistsError("Computer with this asset or service tag", repository.ErrDuplicateTag), http.StatusConflict, "ALREADY_EXISTS"},
		{"id taken", apperrors.ConflictError("Computer id already taken, retry the request", repository.ErrDuplicateID), http.StatusConflict, "CONFLICT"},
		{"bad reference", apperrors.InvalidReferenceError("referenced record does not exist", repository.ErrInvalidReference), http.StatusBadRequest, "INVALID_REFERENCE"},
		{"timeout", context.DeadlineExceeded, http.StatusRequestTimeout, "TIMEOUT_ERROR"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, svc := createTestHandler()
			svc.CreateComputerFunc = func(ctx context.Context, c model.Computer) (*model.Computer, error) {
				return nil, tt.err
			}

			req := createJSONRequest("POST", "/api/v1/computers", map[string]interface{}{})
			rr := httptest.NewRecorder()
			handler.CreateHandler(model.AssetTypeComputer)(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("Expected status code %d, got %d", tt.wantStatus, rr.Code)
			}
			if got := decodeError(rr.Body.Bytes()).Code; got != tt.wantCode {
				t.Errorf("Expected code %s, got %s", tt.wantCode, got)
			}
		})
	}
}

// Test ListHandler

func TestListHandler_WithPaginationAndFilters(t *testing.T) {
	handler, svc := createTestHandler()

	svc.ListComputersFunc = func(ctx context.Context, filter repository.AssetFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.Computer], error) {
		if filter.Status != model.AssetStatus("active") || filter.Search != "dell" {
			t.Errorf("Unexpected filter: %+v", filter)
		}
		if params.Offset != 5 || params.Limit != 5 {
			t.Errorf("Expected offset 5 limit 5, got %+v", params)
		}
		return &repository.PaginatedResult[model.Computer]{
			Items:      []model.Computer{{AssetBase: model.AssetBase{ID: "computer-6"}}},
			TotalCount: 11,
		}, nil
	}

	req := createJSONRequest("GET", "/api/v1/computers?page=2&page_size=5&status=active&search=dell", nil)
	rr := httptest.NewRecorder()

	handler.ListHandler(model.AssetTypeComputer)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, rr.Code)
	}

	var response struct {
		Items      []model.Computer `json:"items"`
		Pagination PaginationMeta   `json:"pagination"`
		AssetType  string           `json:"asset_type"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(response.Items) != 1 || response.Items[0].ID != "computer-6" {
		t.Errorf("Unexpected items: %+v", response.Items)
	}
	if response.Pagination.TotalPages != 3 || !response.Pagination.HasNext || !response.Pagination.HasPrevious {
		t.Errorf("Unexpected pagination: %+v", response.Pagination)
	}
	if response.AssetType != "computer" {
		t.Errorf("Expected asset_type computer, got %s", response.AssetType)
	}
}

func TestListHandler_ComputerFilters(t *testing.T) {
	handler, svc := createTestHandler()

	var got repository.AssetFilter
	svc.ListComputersFunc = func(ctx context.Context, filter repository.AssetFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.Computer], error) {
		got = filter
		return &repository.PaginatedResult[model.Computer]{Items: []model.Computer{}}, nil
	}

	req := createJSONRequest("GET", "/api/v1/computers?department=Finance&make=Dell&model=Latitude&computer=computer-1", nil)
	rr := httptest.NewRecorder()

	handler.ListHandler(model.AssetTypeComputer)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, rr.Code)
	}
	want := repository.AssetFilter{Department: "Finance", Make: "Dell", Model: "Latitude"}
	if got != want {
		t.Errorf("Expected filter %+v, got %+v", want, got)
	}
}

func TestListHandler_PeripheralComputerFilter(t *testing.T) {
	handler, svc := createTestHandler()

	var got repository.AssetFilter
	svc.ListPeripheralsFunc = func(ctx context.Context, assetType model.AssetType, filter repository.AssetFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.Peripheral], error) {
		got = filter
		return &repository.PaginatedResult[model.Peripheral]{Items: []model.Peripheral{}}, nil
	}

	req := createJSONRequest("GET", "/api/v1/docking-stations?make=Lenovo&computer=computer-4&department=Finance", nil)
	rr := httptest.NewRecorder()

	handler.ListHandler(model.AssetTypeDockingStation)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, rr.Code)
	}
	want := repository.AssetFilter{Make: "Lenovo", ComputerID: "computer-4"}
	if got != want {
		t.Errorf("Expected filter %+v, got %+v", want, got)
	}
}

func TestComputersByDepartmentHandler(t *testing.T) {
	handler, svc := createTestHandler()
	svc.ComputersByDepartmentFunc = func(ctx context.Context) ([]model.DepartmentCount, error) {
		return []model.DepartmentCount{{Department: "Engineering", Count: 7}, {Department: "Finance", Count: 2}}, nil
	}

	req := createJSONRequest("GET", "/api/v1/computers/by-department", nil)
	rr := httptest.NewRecorder()

	handler.ComputersByDepartmentHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, rr.Code)
	}
	var counts []model.DepartmentCount
	if err := json.Unmarshal(rr.Body.Bytes(), &counts); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if len(counts) != 2 || counts[0].Department != "Engineering" || counts[0].Count != 7 {
		t.Errorf("Unexpected counts: %+v", counts)
	}
}

func TestComputersByDepartmentHandler_ServiceError(t *testing.T) {
	handler, svc := createTestHandler()
	svc.ComputersByDepartmentFunc = func(ctx context.Context) ([]model.DepartmentCount, error) {
		return nil, apperrors.DatabaseError("failed to count computers", errors.New("connection reset"))
	}

	rr := httptest.NewRecorder()
	handler.ComputersByDepartmentHandler(rr, createJSONRequest("GET", "/api/v1/computers/by-department", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Errorf("Expected status code %d, got %d", http.StatusInternalServerError, rr.Code)
	}
}

func TestListHandler_InvalidStatus(t *testing.T) {
	handler, svc := createTestHandler()
	svc.ListPeripheralsFunc = func(ctx context.Context, assetType model.AssetType, filter repository.AssetFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.Peripheral], error) {
		t.Error("service should not be called with an invalid status")
		return nil, nil
	}

	req := createJSONRequest("GET", "/api/v1/monitors?status=lost-at-sea", nil)
	rr := httptest.NewRecorder()

	handler.ListHandler(model.AssetTypeMonitor)(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, rr.Code)
	}
	if got := decodeError(rr.Body.Bytes()).Code; got != "INVALID_PARAMETER" {
		t.Errorf("Expected INVALID_PARAMETER, got %s", got)
	}
}

// Test GetHandler, UpdateHandler and DeleteHandler

func TestGetHandler_NotFound(t *testing.T) {
	handler, svc := createTestHandler()
	svc.GetComputerFunc = func(ctx context.Context, id string) (*model.Computer, error) {
		return nil, apperrors.NotFoundError("Computer")
	}

	req := withVars(createJSONRequest("GET", "/api/v1/computers/computer-9", nil), map[string]string{"id": "computer-9"})
	rr := httptest.NewRecorder()

	handler.GetHandler(model.AssetTypeComputer)(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected status code %d, got %d", http.StatusNotFound, rr.Code)
	}
	if got := decodeError(rr.Body.Bytes()).Error; got != "Computer not found" {
		t.Errorf("Unexpected error message: %s", got)
	}
}

func TestGetHandler_Peripheral(t *testing.T) {
	handler, svc := createTestHandler()
	svc.GetPeripheralFunc = func(ctx context.Context, assetType model.AssetType, id string) (*model.Peripheral, error) {
		if assetType != model.AssetTypeMonitor || id != "monitor-3" {
			t.Errorf("Unexpected lookup %s/%s", assetType, id)
		}
		return &model.Peripheral{AssetBase: model.AssetBase{ID: id}, Type: assetType, ComputerID: sp("computer-1")}, nil
	}

	req := withVars(createJSONRequest("GET", "/api/v1/monitors/monitor-3", nil), map[string]string{"id": "monitor-3"})
	rr := httptest.NewRecorder()

	handler.GetHandler(model.AssetTypeMonitor)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, rr.Code)
	}
	var got model.Peripheral
	json.Unmarshal(rr.Body.Bytes(), &got)
	if got.ComputerID == nil || *got.ComputerID != "computer-1" {
		t.Errorf("Expected computer link, got %+v", got)
	}
}

func TestUpdateHandler_UsesPathID(t *testing.T) {
	handler, svc := createTestHandler()

	svc.UpdateComputerFunc = func(ctx context.Context, id string, c model.Computer) (*model.Computer, error) {
		if id != "computer-2" {
			t.Errorf("Expected path id computer-2, got %s", id)
		}
		c.ID = id
		return &c, nil
	}

	req := createJSONRequest("PUT", "/api/v1/computers/computer-2", map[string]interface{}{
		"id":       "computer-99",
		"location": "HQ",
	})
	req = withVars(req, map[string]string{"id": "computer-2"})
	rr := httptest.NewRecorder()

	handler.UpdateHandler(model.AssetTypeComputer)(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), `"id":"computer-2"`) {
		t.Errorf("Expected response to carry path id, got %s", rr.Body.String())
	}
}

func TestDeleteHandler_Success(t *testing.T) {
	handler, svc := createTestHandler()

	deleted := ""
	svc.DeletePeripheralFunc = func(ctx context.Context, assetType model.AssetType, id string) error {
		deleted = id
		return nil
	}

	req := withVars(createJSONRequest("DELETE", "/api/v1/docking-stations/docking_station-1", nil), map[string]string{"id": "docking_station-1"})
	rr := httptest.NewRecorder()

	handler.DeleteHandler(model.AssetTypeDockingStation)(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, rr.Code)
	}
	if deleted != "docking_station-1" {
		t.Errorf("Expected docking_station-1 deleted, got %q", deleted)
	}
}

// Test history and dashboard

func TestAssetHistoryHandler(t *testing.T) {
	handler, svc := createTestHandler()

	svc.AssetHistoryFunc = func(ctx context.Context, assetType model.AssetType, id string, params repository.PaginationParams) (*repository.PaginatedResult[model.AssetHistory], error) {
		return &repository.PaginatedResult[model.AssetHistory]{
			Items: []model.AssetHistory{
				{ID: 2, AssetType: "Computer", AssetID: id, Action: model.ActionDeleted},
				{ID: 1, AssetType: "Computer", AssetID: id, Action: model.ActionCreated},
			},
			TotalCount: 2,
		}, nil
	}

	req := withVars(createJSONRequest("GET", "/api/v1/computers/computer-1/history", nil), map[string]string{"id": "computer-1"})
	rr := httptest.NewRecorder()

	handler.AssetHistoryHandler(model.AssetTypeComputer)(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, rr.Code)
	}
	var response struct {
		Items   []model.AssetHistory `json:"items"`
		AssetID string               `json:"asset_id"`
	}
	json.Unmarshal(rr.Body.Bytes(), &response)
	if len(response.Items) != 2 || response.Items[0].Action != model.ActionDeleted {
		t.Errorf("Unexpected history: %+v", response.Items)
	}
	if response.AssetID != "computer-1" {
		t.Errorf("Expected asset_id computer-1, got %s", response.AssetID)
	}
}

func TestListHistoryHandler_Filters(t *testing.T) {
	handler, svc := createTestHandler()

	svc.ListHistoryFunc = func(ctx context.Context, filter repository.HistoryFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.AssetHistory], error) {
		if filter.AssetType != "Docking Station" {
			t.Errorf("Expected display name filter, got %q", filter.AssetType)
		}
		if filter.Action != model.ActionUpdated || filter.AssetID != "docking_station-4" {
			t.Errorf("Unexpected filter: %+v", filter)
		}
		return &repository.PaginatedResult[model.AssetHistory]{Items: []model.AssetHistory{}}, nil
	}

	req := createJSONRequest("GET", "/api/v1/history?asset_type=docking_station&asset_id=docking_station-4&action=updated", nil)
	rr := httptest.NewRecorder()

	handler.ListHistoryHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, rr.Code)
	}
}

func TestListHistoryHandler_UnknownAssetType(t *testing.T) {
	handler, _ := createTestHandler()

	req := createJSONRequest("GET", "/api/v1/history?asset_type=scanner", nil)
	rr := httptest.NewRecorder()

	handler.ListHistoryHandler(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected status code %d, got %d", http.StatusBadRequest, rr.Code)
	}
}

func TestDashboardHandler(t *testing.T) {
	handler, svc := createTestHandler()

	svc.DashboardFunc = func(ctx context.Context) (*model.DashboardStats, error) {
		return &model.DashboardStats{
			Counts:             map[model.AssetType]int{model.AssetTypeComputer: 3},
			TotalAssets:        3,
			PendingAssignments: 1,
		}, nil
	}

	req := createJSONRequest("GET", "/api/v1/dashboard", nil)
	rr := httptest.NewRecorder()

	handler.DashboardHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("Expected status code %d, got %d", http.StatusOK, rr.Code)
	}
	var stats model.DashboardStats
	json.Unmarshal(rr.Body.Bytes(), &stats)
	if stats.TotalAssets != 3 || stats.PendingAssignments != 1 || stats.Counts[model.AssetTypeComputer] != 3 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

// Test HealthHandler

func TestHealthHandler_Success(t *testing.T) {
	handler, _ := createTestHandler()
	handler.Checks["database"] = func(ctx context.Context) error { return nil }

	req := createJSONRequest("GET", "/api/v1/health", nil)
	rr := httptest.NewRecorder()

	handler.HealthHandler(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status code %d, got %d", http.StatusOK, rr.Code)
	}

	var response SuccessResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	data, ok := response.Data.(map[string]interface{})
	if !ok {
		t.Fatalf("Expected data object, got %T", response.Data)
	}
	if data["service"] != ServiceName || data["status"] != "healthy" {
		t.Errorf("Unexpected health data: %+v", data)
	}
}

func TestHealthHandler_Degraded(t *testing.T) {
	handler, _ := createTestHandler()
	handler.Checks["database"] = func(ctx context.Context) error { return errors.New("connection refused") }

	req := createJSONRequest("GET", "/api/v1/health", nil)
	rr := httptest.NewRecorder()

	handler.HealthHandler(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status code %d, got %d", http.StatusServiceUnavailable, rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "connection refused") {
		t.Errorf("Expected failing check in body, got %s", rr.Body.String())
	}
}
