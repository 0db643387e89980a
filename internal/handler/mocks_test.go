package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"asset-inventory-api/internal/model"
	"asset-inventory-api/internal/repository"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Mock implementations for testing

// MockInventoryService is a mock implementation of InventoryService
type MockInventoryService struct {
	CreateComputerFunc func(ctx context.Context, c model.Computer) (*model.Computer, error)
	GetComputerFunc    func(ctx context.Context, id string) (*model.Computer, error)
	ListComputersFunc  func(ctx context.Context, filter repository.AssetFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.Computer], error)
	UpdateComputerFunc func(ctx context.Context, id string, c model.Computer) (*model.Computer, error)
	DeleteComputerFunc func(ctx context.Context, id string) error

	CreatePrinterFunc func(ctx context.Context, p model.Printer) (*model.Printer, error)
	GetPrinterFunc    func(ctx context.Context, id string) (*model.Printer, error)

	CreatePeripheralFunc func(ctx context.Context, assetType model.AssetType, p model.Peripheral) (*model.Peripheral, error)
	GetPeripheralFunc    func(ctx context.Context, assetType model.AssetType, id string) (*model.Peripheral, error)
	ListPeripheralsFunc  func(ctx context.Context, assetType model.AssetType, filter repository.AssetFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.Peripheral], error)
	DeletePeripheralFunc func(ctx context.Context, assetType model.AssetType, id string) error

	AssetHistoryFunc func(ctx context.Context, assetType model.AssetType, id string, params repository.PaginationParams) (*repository.PaginatedResult[model.AssetHistory], error)
	ListHistoryFunc  func(ctx context.Context, filter repository.HistoryFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.AssetHistory], error)
	DashboardFunc    func(ctx context.Context) (*model.DashboardStats, error)

	ComputersByDepartmentFunc func(ctx context.Context) ([]model.DepartmentCount, error)
}

func (m *MockInventoryService) CreateComputer(ctx context.Context, c model.Computer) (*model.Computer, error) {
	if m.CreateComputerFunc != nil {
		return m.CreateComputerFunc(ctx, c)
	}
	return &c, nil
}

func (m *MockInventoryService) GetComputer(ctx context.Context, id string) (*model.Computer, error) {
	if m.GetComputerFunc != nil {
		return m.GetComputerFunc(ctx, id)
	}
	return &model.Computer{AssetBase: model.AssetBase{ID: id}}, nil
}

func (m *MockInventoryService) ListComputers(ctx context.Context, filter repository.AssetFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.Computer], error) {
	if m.ListComputersFunc != nil {
		return m.ListComputersFunc(ctx, filter, params)
	}
	return &repository.PaginatedResult[model.Computer]{Items: []model.Computer{}}, nil
}

func (m *MockInventoryService) UpdateComputer(ctx context.Context, id string, c model.Computer) (*model.Computer, error) {
	if m.UpdateComputerFunc != nil {
		return m.UpdateComputerFunc(ctx, id, c)
	}
	c.ID = id
	return &c, nil
}

func (m *MockInventoryService) DeleteComputer(ctx context.Context, id string) error {
	if m.DeleteComputerFunc != nil {
		return m.DeleteComputerFunc(ctx, id)
	}
	return nil
}

func (m *MockInventoryService) CreatePrinter(ctx context.Context, p model.Printer) (*model.Printer, error) {
	if m.CreatePrinterFunc != nil {
		return m.CreatePrinterFunc(ctx, p)
	}
	return &p, nil
}

func (m *MockInventoryService) GetPrinter(ctx context.Context, id string) (*model.Printer, error) {
	if m.GetPrinterFunc != nil {
		return m.GetPrinterFunc(ctx, id)
	}
	return &model.Printer{AssetBase: model.AssetBase{ID: id}}, nil
}

func (m *MockInventoryService) ListPrinters(ctx context.Context, filter repository.AssetFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.Printer], error) {
	return &repository.PaginatedResult[model.Printer]{Items: []model.Printer{}}, nil
}

func (m *MockInventoryService) UpdatePrinter(ctx context.Context, id string, p model.Printer) (*model.Printer, error) {
	p.ID = id
	return &p, nil
}

func (m *MockInventoryService) DeletePrinter(ctx context.Context, id string) error {
	return nil
}

func (m *MockInventoryService) CreatePeripheral(ctx context.Context, assetType model.AssetType, p model.Peripheral) (*model.Peripheral, error) {
	if m.CreatePeripheralFunc != nil {
		return m.CreatePeripheralFunc(ctx, assetType, p)
	}
	p.Type = assetType
	return &p, nil
}

func (m *MockInventoryService) GetPeripheral(ctx context.Context, assetType model.AssetType, id string) (*model.Peripheral, error) {
	if m.GetPeripheralFunc != nil {
		return m.GetPeripheralFunc(ctx, assetType, id)
	}
	return &model.Peripheral{AssetBase: model.AssetBase{ID: id}, Type: assetType}, nil
}

func (m *MockInventoryService) ListPeripherals(ctx context.Context, assetType model.AssetType, filter repository.AssetFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.Peripheral], error) {
	if m.ListPeripheralsFunc != nil {
		return m.ListPeripheralsFunc(ctx, assetType, filter, params)
	}
	return &repository.PaginatedResult[model.Peripheral]{Items: []model.Peripheral{}}, nil
}

func (m *MockInventoryService) UpdatePeripheral(ctx context.Context, assetType model.AssetType, id string, p model.Peripheral) (*model.Peripheral, error) {
	p.ID, p.Type = id, assetType
	return &p, nil
}

func (m *MockInventoryService) DeletePeripheral(ctx context.Context, assetType model.AssetType, id string) error {
	if m.DeletePeripheralFunc != nil {
		return m.DeletePeripheralFunc(ctx, assetType, id)
	}
	return nil
}

func (m *MockInventoryService) AssetHistory(ctx context.Context, assetType model.AssetType, id string, params repository.PaginationParams) (*repository.PaginatedResult[model.AssetHistory], error) {
	if m.AssetHistoryFunc != nil {
		return m.AssetHistoryFunc(ctx, assetType, id, params)
	}
	return &repository.PaginatedResult[model.AssetHistory]{Items: []model.AssetHistory{}}, nil
}

func (m *MockInventoryService) ListHistory(ctx context.Context, filter repository.HistoryFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.AssetHistory], error) {
	if m.ListHistoryFunc != nil {
		return m.ListHistoryFunc(ctx, filter, params)
	}
	return &repository.PaginatedResult[model.AssetHistory]{Items: []model.AssetHistory{}}, nil
}

func (m *MockInventoryService) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	if m.DashboardFunc != nil {
		return m.DashboardFunc(ctx)
	}
	return &model.DashboardStats{}, nil
}

func (m *MockInventoryService) ComputersByDepartment(ctx context.Context) ([]model.DepartmentCount, error) {
	if m.ComputersByDepartmentFunc != nil {
		return m.ComputersByDepartmentFunc(ctx)
	}
	return []model.DepartmentCount{}, nil
}

// MockAssignmentService is a mock implementation of AssignmentService
type MockAssignmentService struct {
	CreateFunc func(ctx context.Context, a model.AssetAssignment) (*model.AssetAssignment, error)
	GetFunc    func(ctx context.Context, id uuid.UUID) (*model.AssetAssignment, error)
	ListFunc   func(ctx context.Context, filter repository.AssignmentFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.AssetAssignment], error)
	ApplyFunc  func(ctx context.Context, id uuid.UUID, action model.AssignmentAction) (*model.AssetAssignment, error)
}

func (m *MockAssignmentService) Create(ctx context.Context, a model.AssetAssignment) (*model.AssetAssignment, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, a)
	}
	return &a, nil
}

func (m *MockAssignmentService) Get(ctx context.Context, id uuid.UUID) (*model.AssetAssignment, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	return &model.AssetAssignment{ID: id}, nil
}

func (m *MockAssignmentService) List(ctx context.Context, filter repository.AssignmentFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.AssetAssignment], error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter, params)
	}
	return &repository.PaginatedResult[model.AssetAssignment]{Items: []model.AssetAssignment{}}, nil
}

func (m *MockAssignmentService) Apply(ctx context.Context, id uuid.UUID, action model.AssignmentAction) (*model.AssetAssignment, error) {
	if m.ApplyFunc != nil {
		return m.ApplyFunc(ctx, id, action)
	}
	return &model.AssetAssignment{ID: id}, nil
}

// MockSettingsService is a mock implementation of SettingsService
type MockSettingsService struct {
	SettingsFunc     func(ctx context.Context, userID string) (*model.NotificationSetting, error)
	ListSettingsFunc func(ctx context.Context) ([]model.NotificationSetting, error)
	SaveSettingsFunc func(ctx context.Context, st model.NotificationSetting) (*model.NotificationSetting, error)
}

func (m *MockSettingsService) Settings(ctx context.Context, userID string) (*model.NotificationSetting, error) {
	if m.SettingsFunc != nil {
		return m.SettingsFunc(ctx, userID)
	}
	return &model.NotificationSetting{UserID: userID}, nil
}

func (m *MockSettingsService) ListSettings(ctx context.Context) ([]model.NotificationSetting, error) {
	if m.ListSettingsFunc != nil {
		return m.ListSettingsFunc(ctx)
	}
	return []model.NotificationSetting{}, nil
}

func (m *MockSettingsService) SaveSettings(ctx context.Context, st model.NotificationSetting) (*model.NotificationSetting, error) {
	if m.SaveSettingsFunc != nil {
		return m.SaveSettingsFunc(ctx, st)
	}
	return &st, nil
}

// Helper functions for tests

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func sp(s string) *string { return &s }

func createJSONRequest(method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withVars(req *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(req, vars)
}

func decodeError(body []byte) ErrorResponse {
	var response ErrorResponse
	json.Unmarshal(body, &response)
	return response
}
