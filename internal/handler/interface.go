package handler

import (
	"context"
	"net/http"

	"asset-inventory-api/internal/model"
	"asset-inventory-api/internal/repository"
	"asset-inventory-api/internal/service"

	"github.com/google/uuid"
)

// InventoryService is what the inventory handlers need from the service layer.
type InventoryService interface {
	CreateComputer(ctx context.Context, c model.Computer) (*model.Computer, error)
	GetComputer(ctx context.Context, id string) (*model.Computer, error)
	ListComputers(ctx context.Context, filter repository.AssetFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.Computer], error)
	UpdateComputer(ctx context.Context, id string, c model.Computer) (*model.Computer, error)
	DeleteComputer(ctx context.Context, id string) error

	CreatePrinter(ctx context.Context, p model.Printer) (*model.Printer, error)
	GetPrinter(ctx context.Context, id string) (*model.Printer, error)
	ListPrinters(ctx context.Context, filter repository.AssetFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.Printer], error)
	UpdatePrinter(ctx context.Context, id string, p model.Printer) (*model.Printer, error)
	DeletePrinter(ctx context.Context, id string) error

	CreatePeripheral(ctx context.Context, assetType model.AssetType, p model.Peripheral) (*model.Peripheral, error)
	GetPeripheral(ctx context.Context, assetType model.AssetType, id string) (*model.Peripheral, error)
	ListPeripherals(ctx context.Context, assetType model.AssetType, filter repository.AssetFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.Peripheral], error)
	UpdatePeripheral(ctx context.Context, assetType model.AssetType, id string, p model.Peripheral) (*model.Peripheral, error)
	DeletePeripheral(ctx context.Context, assetType model.AssetType, id string) error

	AssetHistory(ctx context.Context, assetType model.AssetType, id string, params repository.PaginationParams) (*repository.PaginatedResult[model.AssetHistory], error)
	ListHistory(ctx context.Context, filter repository.HistoryFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.AssetHistory], error)
	Dashboard(ctx context.Context) (*model.DashboardStats, error)
	ComputersByDepartment(ctx context.Context) ([]model.DepartmentCount, error)
}

// AssignmentService is what the assignment handlers need from the service layer.
type AssignmentService interface {
	Create(ctx context.Context, a model.AssetAssignment) (*model.AssetAssignment, error)
	Get(ctx context.Context, id uuid.UUID) (*model.AssetAssignment, error)
	List(ctx context.Context, filter repository.AssignmentFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.AssetAssignment], error)
	Apply(ctx context.Context, id uuid.UUID, action model.AssignmentAction) (*model.AssetAssignment, error)
}

// SettingsService is what the notification settings handlers need from the
// service layer.
type SettingsService interface {
	Settings(ctx context.Context, userID string) (*model.NotificationSetting, error)
	ListSettings(ctx context.Context) ([]model.NotificationSetting, error)
	SaveSettings(ctx context.Context, st model.NotificationSetting) (*model.NotificationSetting, error)
}

var (
	_ InventoryService  = (*service.InventoryService)(nil)
	_ AssignmentService = (*service.AssignmentService)(nil)
	_ SettingsService   = (*service.NotificationService)(nil)
)

// InventoryHandlerInterface defines the contract for asset HTTP handlers. The
// per-type handlers are built for one asset type at route registration.
type InventoryHandlerInterface interface {
	ListHandler(assetType model.AssetType) http.HandlerFunc
	CreateHandler(assetType model.AssetType) http.HandlerFunc
	GetHandler(assetType model.AssetType) http.HandlerFunc
	UpdateHandler(assetType model.AssetType) http.HandlerFunc
	DeleteHandler(assetType model.AssetType) http.HandlerFunc
	AssetHistoryHandler(assetType model.AssetType) http.HandlerFunc

	ListHistoryHandler(w http.ResponseWriter, r *http.Request)
	DashboardHandler(w http.ResponseWriter, r *http.Request)
	ComputersByDepartmentHandler(w http.ResponseWriter, r *http.Request)

	// Health and monitoring
	HealthHandler(w http.ResponseWriter, r *http.Request)
}

// AssignmentHandlerInterface defines the contract for assignment HTTP handlers.
type AssignmentHandlerInterface interface {
	CreateAssignmentHandler(w http.ResponseWriter, r *http.Request)
	GetAssignmentHandler(w http.ResponseWriter, r *http.Request)
	ListAssignmentsHandler(w http.ResponseWriter, r *http.Request)
	ActionHandler(action model.AssignmentAction) http.HandlerFunc
}

// SettingsHandlerInterface defines the contract for notification settings handlers.
type SettingsHandlerInterface interface {
	ListSettingsHandler(w http.ResponseWriter, r *http.Request)
	GetSettingsHandler(w http.ResponseWriter, r *http.Request)
	PutSettingsHandler(w http.ResponseWriter, r *http.Request)
}

// Ensure the handlers implement their interfaces at compile time
var (
	_ InventoryHandlerInterface  = (*InventoryHandler)(nil)
	_ AssignmentHandlerInterface = (*AssignmentHandler)(nil)
	_ SettingsHandlerInterface   = (*SettingsHandler)(nil)
)
