package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"asset-inventory-api/internal/model"
)

// PeripheralRepository stores one peripheral type: monitors or docking stations.
type PeripheralRepository interface {
	Create(ctx context.Context, p *model.Peripheral) error
	GetByID(ctx context.Context, id string) (*model.Peripheral, error)
	List(ctx context.Context, filter AssetFilter, params PaginationParams) (*PaginatedResult[model.Peripheral], error)
	Update(ctx context.Context, p *model.Peripheral) error
	Delete(ctx context.Context, id string) error
}

type peripheralRepository struct {
	DB        *sql.DB
	assetType model.AssetType
	table     string
}

// NewPeripheralRepository creates a repository for assetType, which must be
// a monitor or docking station.
func NewPeripheralRepository(db *sql.DB, assetType model.AssetType) PeripheralRepository {
	if !model.IsPeripheralType(assetType) {
		panic(fmt.Sprintf("repository: %s is not a peripheral type", assetType))
	}
	return &peripheralRepository{DB: db, assetType: assetType, table: assetType.Table()}
}

func (r *peripheralRepository) scan(row interface{ Scan(...any) error }) (*model.Peripheral, error) {
	p := model.Peripheral{Type: r.assetType}
	if err := row.Scan(append(baseScanDest(&p.AssetBase), &p.ComputerID)...); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *peripheralRepository) Create(ctx context.Context, p *model.Peripheral) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO ` + r.table + ` (id, asset_tag, service_tag, make, status, purchase_date, warranty_expiry, purchase_cost, location, notes, computer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	args := append(baseInsertArgs(&p.AssetBase), p.ComputerID)
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create %s: %w", r.assetType, mapWriteError(err))
	}
	p.Type = r.assetType
	return nil
}

func (r *peripheralRepository) GetByID(ctx context.Context, id string) (*model.Peripheral, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `SELECT ` + baseColumns + `, computer_id FROM ` + r.table + ` WHERE id = $1`

	p, err := r.scan(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to get %s by ID: %w", r.assetType, err)
	}
	return p, nil
}

func (r *peripheralRepository) List(ctx context.Context, filter AssetFilter, params PaginationParams) (*PaginatedResult[model.Peripheral], error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	w := assetWhere(filter, "")
	if id := strings.TrimSpace(filter.ComputerID); id != "" {
		w.add("computer_id = $%d", id)
	}
	suffix, args := w.page(params)

	query := `SELECT ` + baseColumns + `, computer_id FROM ` + r.table + w.clause() + ` ORDER BY created_at DESC, id DESC` + suffix
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.table, err)
	}
	defer rows.Close()

	items := []model.Peripheral{}
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", r.assetType, err)
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	var totalCount int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+r.table+w.clause(), w.args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to get total count of %s: %w", r.table, err)
	}

	return &PaginatedResult[model.Peripheral]{Items: items, TotalCount: totalCount}, nil
}

func (r *peripheralRepository) Update(ctx context.Context, p *model.Peripheral) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		UPDATE ` + r.table + `
		SET asset_tag = $2, service_tag = $3, make = $4, status = $5, purchase_date = $6, warranty_expiry = $7,
			purchase_cost = $8, location = $9, notes = $10, computer_id = $11, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`

	args := append(baseInsertArgs(&p.AssetBase), p.ComputerID)
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAssetNotFound
		}
		return fmt.Errorf("failed to update %s: %w", r.assetType, mapWriteError(err))
	}
	p.Type = r.assetType
	return nil
}

func (r *peripheralRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.DB.ExecContext(ctx, `DELETE FROM `+r.table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", r.assetType, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAssetNotFound
	}
	return nil
}
