package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"asset-inventory-api/internal/model"
)

// PrinterRepository stores printers.
type PrinterRepository interface {
	Create(ctx context.Context, printer *model.Printer) error
	GetByID(ctx context.Context, id string) (*model.Printer, error)
	List(ctx context.Context, filter AssetFilter, params PaginationParams) (*PaginatedResult[model.Printer], error)
	Update(ctx context.Context, printer *model.Printer) error
	Delete(ctx context.Context, id string) error
}

type printerRepository struct {
	DB *sql.DB
}

// NewPrinterRepository creates a new PrinterRepository.
func NewPrinterRepository(db *sql.DB) PrinterRepository {
	return &printerRepository{DB: db}
}

func scanPrinter(row interface{ Scan(...any) error }) (*model.Printer, error) {
	var p model.Printer
	if err := row.Scan(append(baseScanDest(&p.AssetBase), &p.Description)...); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *printerRepository) Create(ctx context.Context, printer *model.Printer) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		INSERT INTO printers (id, asset_tag, service_tag, make, status, purchase_date, warranty_expiry, purchase_cost, location, notes, description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at`

	args := append(baseInsertArgs(&printer.AssetBase), printer.Description)
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&printer.CreatedAt, &printer.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create printer: %w", mapWriteError(err))
	}
	return nil
}

func (r *printerRepository) GetByID(ctx context.Context, id string) (*model.Printer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `SELECT ` + baseColumns + `, description FROM printers WHERE id = $1`

	p, err := scanPrinter(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to get printer by ID: %w", err)
	}
	return p, nil
}

func (r *printerRepository) List(ctx context.Context, filter AssetFilter, params PaginationParams) (*PaginatedResult[model.Printer], error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	w := assetWhere(filter, "")
	suffix, args := w.page(params)

	query := `SELECT ` + baseColumns + `, description FROM printers` + w.clause() + ` ORDER BY created_at DESC, id DESC` + suffix
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query printers: %w", err)
	}
	defer rows.Close()

	printers := []model.Printer{}
	for rows.Next() {
		p, err := scanPrinter(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan printer: %w", err)
		}
		printers = append(printers, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	var totalCount int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM printers`+w.clause(), w.args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to get total count of printers: %w", err)
	}

	return &PaginatedResult[model.Printer]{Items: printers, TotalCount: totalCount}, nil
}

func (r *printerRepository) Update(ctx context.Context, printer *model.Printer) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	query := `
		UPDATE printers
		SET asset_tag = $2, service_tag = $3, make = $4, status = $5, purchase_date = $6, warranty_expiry = $7,
			purchase_cost = $8, location = $9, notes = $10, description = $11, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`

	args := append(baseInsertArgs(&printer.AssetBase), printer.Description)
	if err := r.DB.QueryRowContext(ctx, query, args...).Scan(&printer.CreatedAt, &printer.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAssetNotFound
		}
		return fmt.Errorf("failed to update printer: %w", mapWriteError(err))
	}
	return nil
}

// Delete removes a printer; its links to computers cascade.
func (r *printerRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.DB.ExecContext(ctx, `DELETE FROM printers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete printer: %w", err)
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
