package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"asset-inventory-api/internal/model"

	"github.com/google/uuid"
)

// AssignmentFilter narrows assignment listings.
type AssignmentFilter struct {
	Status     model.AssignmentStatus
	AssetType  model.AssetType
	AssetID    string
	AssignedTo string
}

// AssignmentChange carries the fields a transition may set alongside status.
// Nil fields are left as stored.
type AssignmentChange struct {
	ApprovedBy         *string
	ApprovedByUsername *string
	ReturnedDate       *time.Time
}

// AssignmentRepository stores asset assignments.
type AssignmentRepository interface {
	Create(ctx context.Context, a *model.AssetAssignment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.AssetAssignment, error)
	List(ctx context.Context, filter AssignmentFilter, params PaginationParams) (*PaginatedResult[model.AssetAssignment], error)
	Transition(ctx context.Context, id uuid.UUID, from, to model.AssignmentStatus, change AssignmentChange) (*model.AssetAssignment, error)
}

type assignmentRepository struct {
	DB *sql.DB
}

// NewAssignmentRepository creates a new AssignmentRepository.
func NewAssignmentRepository(db *sql.DB) AssignmentRepository {
	return &assignmentRepository{DB: db}
}

const assignmentColumns = "id, asset_type, asset_id, assigned_to, assigned_by, assigned_by_username, approved_by, approved_by_username, status, assigned_date, due_date, returned_date, notes, digital_signature"

func scanAssignment(row interface{ Scan(...any) error }) (*model.AssetAssignment, error) {
	var a model.AssetAssignment
	if err := row.Scan(&a.ID, &a.AssetType, &a.AssetID, &a.AssignedTo, &a.AssignedBy, &a.AssignedByUsername,
		&a.ApprovedBy, &a.ApprovedByUsername, &a.Status, &a.AssignedDate, &a.DueDate, &a.ReturnedDate,
		&a.Notes, &a.DigitalSignature); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *assignmentRepository) Create(ctx context.Context, a *model.AssetAssignment) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO asset_assignments (id, asset_type, asset_id, assigned_to, assigned_by, assigned_by_username, status, due_date, notes, digital_signature)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING assigned_date`

	if err := r.DB.QueryRowContext(ctx, query,
		a.ID, a.AssetType, a.AssetID, a.AssignedTo, a.AssignedBy, a.AssignedByUsername,
		a.Status, a.DueDate, a.Notes, a.DigitalSignature,
	).Scan(&a.AssignedDate); err != nil {
		return fmt.Errorf("failed to create assignment: %w", mapWriteError(err))
	}
	return nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AssetAssignment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	a, err := scanAssignment(r.DB.QueryRowContext(ctx, `SELECT `+assignmentColumns+` FROM asset_assignments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment by ID: %w", err)
	}
	return a, nil
}

// List returns assignments newest first.
func (r *assignmentRepository) List(ctx context.Context, filter AssignmentFilter, params PaginationParams) (*PaginatedResult[model.AssetAssignment], error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	w := &whereBuilder{}
	if filter.Status != "" {
		w.add("status = $%d", filter.Status)
	}
	if filter.AssetType != "" {
		w.add("asset_type = $%d", filter.AssetType)
	}
	if filter.AssetID != "" {
		w.add("asset_id = $%d", filter.AssetID)
	}
	if filter.AssignedTo != "" {
		w.add("assigned_to ILIKE $%d", "%"+filter.AssignedTo+"%")
	}
	suffix, args := w.page(params)

	rows, err := r.DB.QueryContext(ctx, `SELECT `+assignmentColumns+` FROM asset_assignments`+w.clause()+` ORDER BY assigned_date DESC, id`+suffix, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignments: %w", err)
	}
	defer rows.Close()

	items := []model.AssetAssignment{}
	for rows.Next() {
		a, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		items = append(items, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	var totalCount int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM asset_assignments`+w.clause(), w.args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to get total count of assignments: %w", err)
	}

	return &PaginatedResult[model.AssetAssignment]{Items: items, TotalCount: totalCount}, nil
}

// Transition moves an assignment from one status to another in a single
// conditional update, so two concurrent actions cannot both succeed. It
// returns ErrInvalidTransition when the assignment exists but is not in from.
func (r *assignmentRepository) Transition(ctx context.Context, id uuid.UUID, from, to model.AssignmentStatus, change AssignmentChange) (*model.AssetAssignment, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		UPDATE asset_assignments
		SET status = $3,
			approved_by = COALESCE($4, approved_by),
			approved_by_username = COALESCE($5, approved_by_username),
			returned_date = COALESCE($6, returned_date)
		WHERE id = $1 AND status = $2
		RETURNING ` + assignmentColumns

	a, err := scanAssignment(r.DB.QueryRowContext(ctx, query,
		id, from, to, change.ApprovedBy, change.ApprovedByUsername, change.ReturnedDate))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to update assignment status: %w", err)
	}

	var exists bool
	if err := r.DB.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM asset_assignments WHERE id = $1)`, id).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to check assignment existence: %w", err)
	}
	if !exists {
		return nil, ErrAssignmentNotFound
	}
	return nil, ErrInvalidTransition
}
