package service

import (
	"context"
	"errors"
	"fmt"

	"asset-inventory-api/internal/audit"
	"asset-inventory-api/internal/metrics"
	"asset-inventory-api/internal/model"
	"asset-inventory-api/internal/repository"
	apperrors "asset-inventory-api/pkg/errors"
	"asset-inventory-api/pkg/validation"

	"github.com/sirupsen/logrus"
)

// RecentActivityLimit is how many history rows the dashboard shows.
const RecentActivityLimit = 10

// IDAllocator hands out the next sequential id for an asset type.
type IDAllocator interface {
	Next(ctx context.Context, assetType model.AssetType) (string, error)
}

// AuditRecorder mirrors asset mutations into the history trail.
type AuditRecorder interface {
	Created(ctx context.Context, rc audit.RequestContext, asset model.Asset)
	Updated(ctx context.Context, rc audit.RequestContext, before, after model.Asset) bool
	Deleted(ctx context.Context, rc audit.RequestContext, asset model.Asset)
	Assigned(ctx context.Context, rc audit.RequestContext, a model.AssetAssignment)
	Unassigned(ctx context.Context, rc audit.RequestContext, before, after model.AssetAssignment)
}

// InventoryRepositories groups the stores the inventory service reads and writes.
type InventoryRepositories struct {
	Computers       repository.ComputerRepository
	Printers        repository.PrinterRepository
	Monitors        repository.PeripheralRepository
	DockingStations repository.PeripheralRepository
	History         repository.HistoryRepository
	Reports         repository.ReportRepository
}

// InventoryService handles business logic for asset records. Every mutation
// goes through here so that it is paired with its audit entry.
type InventoryService struct {
	repos    InventoryRepositories
	ids      IDAllocator
	recorder AuditRecorder
	logger   *logrus.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(repos InventoryRepositories, ids IDAllocator, recorder AuditRecorder, logger *logrus.Logger) *InventoryService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &InventoryService{
		repos:    repos,
		ids:      ids,
		recorder: recorder,
		logger:   logger,
	}
}

// assetStore is the storage contract shared by every asset repository.
type assetStore[T model.Asset] interface {
	Create(ctx context.Context, item *T) error
	GetByID(ctx context.Context, id string) (*T, error)
	List(ctx context.Context, filter repository.AssetFilter, params repository.PaginationParams) (*repository.PaginatedResult[T], error)
	Update(ctx context.Context, item *T) error
	Delete(ctx context.Context, id string) error
}

// assetKind binds one asset variant to its store, validator and base fields.
type assetKind[T model.Asset] struct {
	assetType model.AssetType
	store     assetStore[T]
	validate  func(*T) validation.Errors
	base      func(*T) *model.AssetBase
}

func (s *InventoryService) computerKind() assetKind[model.Computer] {
	return assetKind[model.Computer]{
		assetType: model.AssetTypeComputer,
		store:     s.repos.Computers,
		validate:  validation.ValidateComputerInput,
		base:      func(c *model.Computer) *model.AssetBase { return &c.AssetBase },
	}
}

func (s *InventoryService) printerKind() assetKind[model.Printer] {
	return assetKind[model.Printer]{
		assetType: model.AssetTypePrinter,
		store:     s.repos.Printers,
		validate:  validation.ValidatePrinterInput,
		base:      func(p *model.Printer) *model.AssetBase { return &p.AssetBase },
	}
}

func (s *InventoryService) peripheralKind(assetType model.AssetType) (assetKind[model.Peripheral], error) {
	var store repository.PeripheralRepository
	switch assetType {
	case model.AssetTypeMonitor:
		store = s.repos.Monitors
	case model.AssetTypeDockingStation:
		store = s.repos.DockingStations
	default:
		return assetKind[model.Peripheral]{}, apperrors.BadRequestError(fmt.Sprintf("%s is not a peripheral type", assetType))
	}
	return assetKind[model.Peripheral]{
		assetType: assetType,
		store:     store,
		validate: func(p *model.Peripheral) validation.Errors {
			p.Type = assetType
			return validation.ValidatePeripheralInput(p)
		},
		base: func(p *model.Peripheral) *model.AssetBase { return &p.AssetBase },
	}, nil
}

func createAsset[T model.Asset](ctx context.Context, s *InventoryService, kind assetKind[T], item T) (*T, error) {
	if errs := kind.validate(&item); len(errs) > 0 {
		return nil, apperrors.ValidationErrorWithDetails(fmt.Sprintf("invalid %s", kind.assetType.DisplayName()), errs)
	}

	base := kind.base(&item)
	if base.ID == "" {
		id, err := s.ids.Next(ctx, kind.assetType)
		if err != nil {
			return nil, mapRepositoryError(err, kind.assetType, "allocate id")
		}
		base.ID = id
		metrics.IDsAllocated.WithLabelValues(string(kind.assetType)).Inc()
	}

	if err := kind.store.Create(ctx, &item); err != nil {
		return nil, mapRepositoryError(err, kind.assetType, "create")
	}

	stored := persisted(ctx, s, kind, item)
	s.recorder.Created(ctx, audit.FromContext(ctx), stored)

	s.logger.WithFields(logrus.Fields{
		"asset_type": kind.assetType,
		"asset_id":   base.ID,
	}).Info("asset created")

	return &stored, nil
}

// persisted re-reads item after a write so that history and the response carry
// what storage kept (column rounding, defaults), not the request body. When the
// read fails the written value is used.
func persisted[T model.Asset](ctx context.Context, s *InventoryService, kind assetKind[T], item T) T {
	stored, err := kind.store.GetByID(ctx, item.AssetID())
	if err != nil || stored == nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"asset_type": kind.assetType,
			"asset_id":   item.AssetID(),
		}).Warn("could not re-read asset after write")
		return item
	}
	return *stored
}

func getAsset[T model.Asset](ctx context.Context, kind assetKind[T], id string) (*T, error) {
	item, err := kind.store.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err, kind.assetType, "retrieve")
	}
	return item, nil
}

func listAssets[T model.Asset](ctx context.Context, s *InventoryService, kind assetKind[T], filter repository.AssetFilter, params repository.PaginationParams) (*repository.PaginatedResult[T], error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.BadRequestError(fmt.Sprintf("invalid status filter: %s", filter.Status))
	}

	result, err := kind.store.List(ctx, filter, params)
	if err != nil {
		return nil, mapRepositoryError(err, kind.assetType, "list")
	}

	s.logger.WithFields(logrus.Fields{
		"asset_type": kind.assetType,
		"count":      len(result.Items),
		"offset":     params.Offset,
		"limit":      params.Limit,
	}).Debug("assets listed")

	return result, nil
}

// updateAsset reads the stored state, writes the new one and records the
// difference. The id always comes from the path, never from the body.
func updateAsset[T model.Asset](ctx context.Context, s *InventoryService, kind assetKind[T], id string, item T) (*T, error) {
	before, err := kind.store.GetByID(ctx, id)
	if err != nil {
		return nil, mapRepositoryError(err, kind.assetType, "retrieve")
	}

	kind.base(&item).ID = id
	if errs := kind.validate(&item); len(errs) > 0 {
		return nil, apperrors.ValidationErrorWithDetails(fmt.Sprintf("invalid %s", kind.assetType.DisplayName()), errs)
	}

	// The stored state may change between the read above and this write; the
	// history row then diffs against the slightly older state.
	if err := kind.store.Update(ctx, &item); err != nil {
		return nil, mapRepositoryError(err, kind.assetType, "update")
	}

	stored := persisted(ctx, s, kind, item)
	changed := s.recorder.Updated(ctx, audit.FromContext(ctx), *before, stored)

	s.logger.WithFields(logrus.Fields{
		"asset_type": kind.assetType,
		"asset_id":   id,
		"changed":    changed,
	}).Info("asset updated")

	return &stored, nil
}

func deleteAsset[T model.Asset](ctx context.Context, s *InventoryService, kind assetKind[T], id string) error {
	before, err := kind.store.GetByID(ctx, id)
	if err != nil {
		return mapRepositoryError(err, kind.assetType, "retrieve")
	}

	if err := kind.store.Delete(ctx, id); err != nil {
		return mapRepositoryError(err, kind.assetType, "delete")
	}

	s.recorder.Deleted(ctx, audit.FromContext(ctx), *before)

	s.logger.WithFields(logrus.Fields{
		"asset_type": kind.assetType,
		"asset_id":   id,
	}).Info("asset deleted")

	return nil
}

// CreateComputer stores a new computer, allocating an id when none is given.
func (s *InventoryService) CreateComputer(ctx context.Context, c model.Computer) (*model.Computer, error) {
	return createAsset(ctx, s, s.computerKind(), c)
}

func (s *InventoryService) GetComputer(ctx context.Context, id string) (*model.Computer, error) {
	return getAsset(ctx, s.computerKind(), id)
}

func (s *InventoryService) ListComputers(ctx context.Context, filter repository.AssetFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.Computer], error) {
	return listAssets(ctx, s, s.computerKind(), filter, params)
}

// UpdateComputer replaces the stored computer identified by id.
func (s *InventoryService) UpdateComputer(ctx context.Context, id string, c model.Computer) (*model.Computer, error) {
	return updateAsset(ctx, s, s.computerKind(), id, c)
}

// DeleteComputer removes a computer. Attached monitors and docking stations
// are kept with their computer reference cleared.
func (s *InventoryService) DeleteComputer(ctx context.Context, id string) error {
	return deleteAsset(ctx, s, s.computerKind(), id)
}

// CreatePrinter stores a new printer, allocating an id when none is given.
func (s *InventoryService) CreatePrinter(ctx context.Context, p model.Printer) (*model.Printer, error) {
	return createAsset(ctx, s, s.printerKind(), p)
}

func (s *InventoryService) GetPrinter(ctx context.Context, id string) (*model.Printer, error) {
	return getAsset(ctx, s.printerKind(), id)
}

func (s *InventoryService) ListPrinters(ctx context.Context, filter repository.AssetFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.Printer], error) {
	return listAssets(ctx, s, s.printerKind(), filter, params)
}

func (s *InventoryService) UpdatePrinter(ctx context.Context, id string, p model.Printer) (*model.Printer, error) {
	return updateAsset(ctx, s, s.printerKind(), id, p)
}

func (s *InventoryService) DeletePrinter(ctx context.Context, id string) error {
	return deleteAsset(ctx, s, s.printerKind(), id)
}

// CreatePeripheral stores a new monitor or docking station.
func (s *InventoryService) CreatePeripheral(ctx context.Context, assetType model.AssetType, p model.Peripheral) (*model.Peripheral, error) {
	kind, err := s.peripheralKind(assetType)
	if err != nil {
		return nil, err
	}
	return createAsset(ctx, s, kind, p)
}

func (s *InventoryService) GetPeripheral(ctx context.Context, assetType model.AssetType, id string) (*model.Peripheral, error) {
	kind, err := s.peripheralKind(assetType)
	if err != nil {
		return nil, err
	}
	return getAsset(ctx, kind, id)
}

func (s *InventoryService) ListPeripherals(ctx context.Context, assetType model.AssetType, filter repository.AssetFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.Peripheral], error) {
	kind, err := s.peripheralKind(assetType)
	if err != nil {
		return nil, err
	}
	return listAssets(ctx, s, kind, filter, params)
}

func (s *InventoryService) UpdatePeripheral(ctx context.Context, assetType model.AssetType, id string, p model.Peripheral) (*model.Peripheral, error) {
	kind, err := s.peripheralKind(assetType)
	if err != nil {
		return nil, err
	}
	return updateAsset(ctx, s, kind, id, p)
}

func (s *InventoryService) DeletePeripheral(ctx context.Context, assetType model.AssetType, id string) error {
	kind, err := s.peripheralKind(assetType)
	if err != nil {
		return err
	}
	return deleteAsset(ctx, s, kind, id)
}

// AssetExists reports whether the asset is stored.
func (s *InventoryService) AssetExists(ctx context.Context, assetType model.AssetType, id string) (bool, error) {
	var err error
	switch assetType {
	case model.AssetTypeComputer:
		_, err = s.repos.Computers.GetByID(ctx, id)
	case model.AssetTypePrinter:
		_, err = s.repos.Printers.GetByID(ctx, id)
	case model.AssetTypeMonitor:
		_, err = s.repos.Monitors.GetByID(ctx, id)
	case model.AssetTypeDockingStation:
		_, err = s.repos.DockingStations.GetByID(ctx, id)
	default:
		return false, fmt.Errorf("unknown asset type %q", assetType)
	}
	if errors.Is(err, repository.ErrAssetNotFound) {
		return false, nil
	}
	return err == nil, err
}

// AssetHistory lists the trail of one asset, newest first. Deleted assets
// keep their history, so the asset itself is not looked up.
func (s *InventoryService) AssetHistory(ctx context.Context, assetType model.AssetType, id string, params repository.PaginationParams) (*repository.PaginatedResult[model.AssetHistory], error) {
	return s.ListHistory(ctx, repository.HistoryFilter{AssetType: assetType.DisplayName(), AssetID: id}, params)
}

// ListHistory lists history rows across all assets.
func (s *InventoryService) ListHistory(ctx context.Context, filter repository.HistoryFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.AssetHistory], error) {
	if filter.Action != "" && !filter.Action.Valid() {
		return nil, apperrors.BadRequestError(fmt.Sprintf("invalid action filter: %s", filter.Action))
	}

	result, err := s.repos.History.List(ctx, filter, params)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to retrieve history", err)
	}
	return result, nil
}

// ComputersByDepartment counts computers per department, largest first.
func (s *InventoryService) ComputersByDepartment(ctx context.Context) ([]model.DepartmentCount, error) {
	counts, err := s.repos.Computers.CountByDepartment(ctx)
	if err != nil {
		return nil, mapRepositoryError(err, model.AssetTypeComputer, "count")
	}
	return counts, nil
}

// Dashboard gathers the inventory overview.
func (s *InventoryService) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	counts, err := s.repos.Reports.CountByType(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to count assets", err)
	}

	pending, err := s.repos.Reports.CountAssignments(ctx, model.AssignmentPending)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to count pending assignments", err)
	}

	breakdown, err := s.repos.Reports.StatusBreakdown(ctx)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to compute status breakdown", err)
	}

	recent, err := s.repos.History.Recent(ctx, RecentActivityLimit)
	if err != nil {
		return nil, apperrors.DatabaseError("failed to retrieve recent activity", err)
	}

	stats := &model.DashboardStats{
		Counts:             counts,
		PendingAssignments: pending,
		StatusBreakdown:    breakdown,
		RecentActivity:     recent,
	}
	for _, n := range counts {
		stats.TotalAssets += n
	}
	return stats, nil
}

// mapRepositoryError converts storage failures into application errors.
func mapRepositoryError(err error, assetType model.AssetType, operation string) error {
	name := assetType.DisplayName()
	switch {
	case errors.Is(err, repository.ErrAssetNotFound):
		return apperrors.NotFoundError(name)
	case errors.Is(err, repository.ErrDuplicateID):
		return apperrors.ConflictError(fmt.Sprintf("%s id already taken, retry the request", name), err)
	case errors.Is(err, repository.ErrDuplicateTag):
		return apperrors.AlreadyExistsError(fmt.Sprintf("%s with this asset or service tag", name), err)
	case errors.Is(err, repository.ErrInvalidReference):
		return apperrors.InvalidReferenceError("referenced record does not exist", err)
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.TimeoutError(fmt.Sprintf("%s %s", operation, name))
	}
	if _, ok := apperrors.AsAppError(err); ok {
		return err
	}
	return apperrors.DatabaseError(fmt.Sprintf("failed to %s %s", operation, name), err)
}
