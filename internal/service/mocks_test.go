package service

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"asset-inventory-api/internal/audit"
	"asset-inventory-api/internal/model"
	"asset-inventory-api/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func sp(s string) *string { return &s }

func fp(f float64) *float64 { return &f }

// memoryWriter collects history entries instead of storing them.
type memoryWriter struct {
	mu      sync.Mutex
	entries []model.AssetHistory
}

func (w *memoryWriter) Write(_ context.Context, entry model.AssetHistory) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, entry)
	return nil
}

func (w *memoryWriter) all() []model.AssetHistory {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]model.AssetHistory(nil), w.entries...)
}

// memoryComputers is an in-memory ComputerRepository.
type memoryComputers struct {
	mu   sync.Mutex
	rows map[string]model.Computer
	// CreateErr, when set, fails every Create.
	CreateErr error
	// Normalize, when set, rewrites the stored copy the way a column type or
	// default would. The caller's value is left alone.
	Normalize func(*model.Computer)
}

func (m *memoryComputers) store(c model.Computer) {
	if m.Normalize != nil {
		m.Normalize(&c)
	}
	m.rows[c.ID] = c
}

func newMemoryComputers() *memoryComputers {
	return &memoryComputers{rows: map[string]model.Computer{}}
}

func (m *memoryComputers) Create(_ context.Context, c *model.Computer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return m.CreateErr
	}
	if _, exists := m.rows[c.ID]; exists {
		return repository.ErrDuplicateID
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	m.store(*c)
	return nil
}

func (m *memoryComputers) GetByID(_ context.Context, id string) (*model.Computer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrAssetNotFound
	}
	return &c, nil
}

func (m *memoryComputers) List(_ context.Context, filter repository.AssetFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.Computer], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []model.Computer{}
	for _, c := range m.rows {
		if filter.Status == "" || c.Status == filter.Status {
			items = append(items, c)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return &repository.PaginatedResult[model.Computer]{Items: items, TotalCount: len(items)}, nil
}

func (m *memoryComputers) Update(_ context.Context, c *model.Computer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rows[c.ID]
	if !ok {
		return repository.ErrAssetNotFound
	}
	c.CreatedAt = stored.CreatedAt
	c.UpdatedAt = time.Now().UTC().Add(time.Second)
	m.store(*c)
	return nil
}

func (m *memoryComputers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrAssetNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memoryComputers) CountByDepartment(_ context.Context) ([]model.DepartmentCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	byDept := map[string]int{}
	for _, c := range m.rows {
		dept := ""
		if c.Department != nil {
			dept = *c.Department
		}
		byDept[dept]++
	}
	counts := []model.DepartmentCount{}
	for dept, n := range byDept {
		counts = append(counts, model.DepartmentCount{Department: dept, Count: n})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Department < counts[j].Department
	})
	return counts, nil
}

func (m *memoryComputers) ids() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id := range m.rows {
		ids = append(ids, id)
	}
	return ids
}

// memoryIDSource lists ids straight from the in-memory computer store.
type memoryIDSource struct {
	computers *memoryComputers
}

func (s memoryIDSource) ListAssetIDs(_ context.Context, assetType model.AssetType) ([]string, error) {
	if assetType != model.AssetTypeComputer {
		return nil, nil
	}
	return s.computers.ids(), nil
}

// MockPrinterRepository is a mock implementation of PrinterRepository
type MockPrinterRepository struct {
	CreateFunc  func(ctx context.Context, p *model.Printer) error
	GetByIDFunc func(ctx context.Context, id string) (*model.Printer, error)
	ListFunc    func(ctx context.Context, filter repository.AssetFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.Printer], error)
	UpdateFunc  func(ctx context.Context, p *model.Printer) error
	DeleteFunc  func(ctx context.Context, id string) error
}

func (m *MockPrinterRepository) Create(ctx context.Context, p *model.Printer) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	return nil
}

func (m *MockPrinterRepository) GetByID(ctx context.Context, id string) (*model.Printer, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, repository.ErrAssetNotFound
}

func (m *MockPrinterRepository) List(ctx context.Context, filter repository.AssetFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.Printer], error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter, params)
	}
	return &repository.PaginatedResult[model.Printer]{Items: []model.Printer{}}, nil
}

func (m *MockPrinterRepository) Update(ctx context.Context, p *model.Printer) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, p)
	}
	return nil
}

func (m *MockPrinterRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockPeripheralRepository is a mock implementation of PeripheralRepository
type MockPeripheralRepository struct {
	CreateFunc  func(ctx context.Context, p *model.Peripheral) error
	GetByIDFunc func(ctx context.Context, id string) (*model.Peripheral, error)
	ListFunc    func(ctx context.Context, filter repository.AssetFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.Peripheral], error)
	UpdateFunc  func(ctx context.Context, p *model.Peripheral) error
	DeleteFunc  func(ctx context.Context, id string) error
}

func (m *MockPeripheralRepository) Create(ctx context.Context, p *model.Peripheral) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, p)
	}
	return nil
}

func (m *MockPeripheralRepository) GetByID(ctx context.Context, id string) (*model.Peripheral, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, repository.ErrAssetNotFound
}

func (m *MockPeripheralRepository) List(ctx context.Context, filter repository.AssetFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.Peripheral], error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter, params)
	}
	return &repository.PaginatedResult[model.Peripheral]{Items: []model.Peripheral{}}, nil
}

func (m *MockPeripheralRepository) Update(ctx context.Context, p *model.Peripheral) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, p)
	}
	return nil
}

func (m *MockPeripheralRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

// MockHistoryRepository is a mock implementation of HistoryRepository
type MockHistoryRepository struct {
	CreateHistoryFunc func(ctx context.Context, entry *model.AssetHistory) error
	ListFunc          func(ctx context.Context, filter repository.HistoryFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.AssetHistory], error)
	RecentFunc        func(ctx context.Context, limit int) ([]model.AssetHistory, error)
}

func (m *MockHistoryRepository) CreateHistory(ctx context.Context, entry *model.AssetHistory) error {
	if m.CreateHistoryFunc != nil {
		return m.CreateHistoryFunc(ctx, entry)
	}
	return nil
}

func (m *MockHistoryRepository) List(ctx context.Context, filter repository.HistoryFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.AssetHistory], error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, filter, params)
	}
	return &repository.PaginatedResult[model.AssetHistory]{Items: []model.AssetHistory{}}, nil
}

func (m *MockHistoryRepository) Recent(ctx context.Context, limit int) ([]model.AssetHistory, error) {
	if m.RecentFunc != nil {
		return m.RecentFunc(ctx, limit)
	}
	return []model.AssetHistory{}, nil
}

// MockReportRepository is a mock implementation of ReportRepository
type MockReportRepository struct {
	CountByTypeFunc          func(ctx context.Context) (map[model.AssetType]int, error)
	StatusBreakdownFunc      func(ctx context.Context) (map[model.AssetType][]model.StatusCount, error)
	CountAssignmentsFunc     func(ctx context.Context, status model.AssignmentStatus) (int, error)
	CountCreatedBetweenFunc  func(ctx context.Context, assetType model.AssetType, from, to time.Time) (int, error)
	CountReturnedBetweenFunc func(ctx context.Context, from, to time.Time) (int, error)
	WarrantyExpiringFunc     func(ctx context.Context, from, to model.Date) ([]model.WarrantyItem, error)
}

func (m *MockReportRepository) CountByType(ctx context.Context) (map[model.AssetType]int, error) {
	if m.CountByTypeFunc != nil {
		return m.CountByTypeFunc(ctx)
	}
	return map[model.AssetType]int{}, nil
}

func (m *MockReportRepository) StatusBreakdown(ctx context.Context) (map[model.AssetType][]model.StatusCount, error) {
	if m.StatusBreakdownFunc != nil {
		return m.StatusBreakdownFunc(ctx)
	}
	return map[model.AssetType][]model.StatusCount{}, nil
}

func (m *MockReportRepository) CountAssignments(ctx context.Context, status model.AssignmentStatus) (int, error) {
	if m.CountAssignmentsFunc != nil {
		return m.CountAssignmentsFunc(ctx, status)
	}
	return 0, nil
}

func (m *MockReportRepository) CountCreatedBetween(ctx context.Context, assetType model.AssetType, from, to time.Time) (int, error) {
	if m.CountCreatedBetweenFunc != nil {
		return m.CountCreatedBetweenFunc(ctx, assetType, from, to)
	}
	return 0, nil
}

func (m *MockReportRepository) CountReturnedBetween(ctx context.Context, from, to time.Time) (int, error) {
	if m.CountReturnedBetweenFunc != nil {
		return m.CountReturnedBetweenFunc(ctx, from, to)
	}
	return 0, nil
}

func (m *MockReportRepository) WarrantyExpiring(ctx context.Context, from, to model.Date) ([]model.WarrantyItem, error) {
	if m.WarrantyExpiringFunc != nil {
		return m.WarrantyExpiringFunc(ctx, from, to)
	}
	return []model.WarrantyItem{}, nil
}

// memoryAssignments is an in-memory AssignmentRepository that enforces the
// conditional status update the real store performs.
type memoryAssignments struct {
	mu   sync.Mutex
	rows map[uuid.UUID]model.AssetAssignment
}

func newMemoryAssignments() *memoryAssignments {
	return &memoryAssignments{rows: map[uuid.UUID]model.AssetAssignment{}}
}

func (m *memoryAssignments) Create(_ context.Context, a *model.AssetAssignment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.AssignedDate = time.Now().UTC()
	m.rows[a.ID] = *a
	return nil
}

func (m *memoryAssignments) GetByID(_ context.Context, id uuid.UUID) (*model.AssetAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrAssignmentNotFound
	}
	return &a, nil
}

func (m *memoryAssignments) List(_ context.Context, filter repository.AssignmentFilter, params repository.PaginationParams) (*repository.PaginatedResult[model.AssetAssignment], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []model.AssetAssignment{}
	for _, a := range m.rows {
		if filter.Status == "" || a.Status == filter.Status {
			items = append(items, a)
		}
	}
	return &repository.PaginatedResult[model.AssetAssignment]{Items: items, TotalCount: len(items)}, nil
}

func (m *memoryAssignments) Transition(_ context.Context, id uuid.UUID, from, to model.AssignmentStatus, change repository.AssignmentChange) (*model.AssetAssignment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrAssignmentNotFound
	}
	if a.Status != from {
		return nil, repository.ErrInvalidTransition
	}
	a.Status = to
	if change.ApprovedBy != nil {
		a.ApprovedBy = change.ApprovedBy
	}
	if change.ApprovedByUsername != nil {
		a.ApprovedByUsername = change.ApprovedByUsername
	}
	if change.ReturnedDate != nil {
		a.ReturnedDate = change.ReturnedDate
	}
	m.rows[id] = a
	return &a, nil
}

// MockAssetLookup is a mock implementation of AssetLookup
type MockAssetLookup struct {
	AssetExistsFunc func(ctx context.Context, assetType model.AssetType, id string) (bool, error)
}

func (m *MockAssetLookup) AssetExists(ctx context.Context, assetType model.AssetType, id string) (bool, error) {
	if m.AssetExistsFunc != nil {
		return m.AssetExistsFunc(ctx, assetType, id)
	}
	return true, nil
}

// recordingNotifier captures assignment events.
type recordingNotifier struct {
	events chan string
}

func newRecordingNotifier() *recordingNotifier {
	return &recordingNotifier{events: make(chan string, 16)}
}

func (n *recordingNotifier) AssignmentEvent(_ context.Context, a model.AssetAssignment, event string) error {
	n.events <- event
	return nil
}

// MockNotificationSettingRepository is a mock implementation of NotificationSettingRepository
type MockNotificationSettingRepository struct {
	GetByUserIDFunc func(ctx context.Context, userID string) (*model.NotificationSetting, error)
	ListAllFunc     func(ctx context.Context) ([]model.NotificationSetting, error)
	UpsertFunc      func(ctx context.Context, s *model.NotificationSetting) error
}

func (m *MockNotificationSettingRepository) GetByUserID(ctx context.Context, userID string) (*model.NotificationSetting, error) {
	if m.GetByUserIDFunc != nil {
		return m.GetByUserIDFunc(ctx, userID)
	}
	return nil, repository.ErrSettingNotFound
}

func (m *MockNotificationSettingRepository) ListAll(ctx context.Context) ([]model.NotificationSetting, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx)
	}
	return []model.NotificationSetting{}, nil
}

func (m *MockNotificationSettingRepository) Upsert(ctx context.Context, s *model.NotificationSetting) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, s)
	}
	return nil
}

// MockMailer records every email it is asked to send.
type MockMailer struct {
	SendEmailFunc func(ctx context.Context, email Email) error
	Sent          []Email
}

func (m *MockMailer) SendEmail(ctx context.Context, email Email) error {
	m.Sent = append(m.Sent, email)
	if m.SendEmailFunc != nil {
		return m.SendEmailFunc(ctx, email)
	}
	return nil
}

func testRequestContext() audit.RequestContext {
	return audit.RequestContext{UserID: sp("42"), Username: sp("jdoe"), IP: sp("10.0.0.7")}
}
