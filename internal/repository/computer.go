package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"asset-inventory-api/internal/model"

	"github.com/lib/pq"
)

// ComputerRepository stores computers and their printer links.
type ComputerRepository interface {
	Create(ctx context.Context, computer *model.Computer) error
	GetByID(ctx context.Context, id string) (*model.Computer, error)
	List(ctx context.Context, filter AssetFilter, params PaginationParams) (*PaginatedResult[model.Computer], error)
	Update(ctx context.Context, computer *model.Computer) error
	Delete(ctx context.Context, id string) error
	CountByDepartment(ctx context.Context) ([]model.DepartmentCount, error)
}

type computerRepository struct {
	DB *sql.DB
}

// NewComputerRepository creates a new ComputerRepository.
func NewComputerRepository(db *sql.DB) ComputerRepository {
	return &computerRepository{DB: db}
}

const computerSelect = `
	SELECT c.id, c.asset_tag, c.service_tag, c.make, c.status, c.purchase_date, c.warranty_expiry, c.purchase_cost, c.location, c.notes, c.created_at, c.updated_at,
		c.department, c.computer_name, c.user_name, c.model, c.storage, c.cpu, c.ram,
		ARRAY(SELECT cp.printer_id FROM computer_printers cp WHERE cp.computer_id = c.id ORDER BY cp.printer_id) AS printer_ids
	FROM computers c`

func scanComputer(row interface{ Scan(...any) error }) (*model.Computer, error) {
	var c model.Computer
	var printers pq.StringArray
	dest := append(baseScanDest(&c.AssetBase),
		&c.Department, &c.ComputerName, &c.User, &c.Model, &c.Storage, &c.CPU, &c.RAM, &printers)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	c.PrinterIDs = []string(printers)
	return &c, nil
}

// Create inserts the computer and its printer links in one transaction.
// CreatedAt and UpdatedAt are filled from the database.
func (r *computerRepository) Create(ctx context.Context, computer *model.Computer) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	query := `
		INSERT INTO computers (id, asset_tag, service_tag, make, status, purchase_date, warranty_expiry, purchase_cost, location, notes,
			department, computer_name, user_name, model, storage, cpu, ram)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at`

	args := append(baseInsertArgs(&computer.AssetBase),
		computer.Department, computer.ComputerName, computer.User, computer.Model,
		computer.Storage, computer.CPU, computer.RAM)

	if err := tx.QueryRowContext(ctx, query, args...).Scan(&computer.CreatedAt, &computer.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create computer: %w", mapWriteError(err))
	}

	computer.PrinterIDs = dedupe(computer.PrinterIDs)
	if err := insertPrinterLinks(ctx, tx, computer.ID, computer.PrinterIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit computer: %w", err)
	}
	return nil
}

// GetByID retrieves a single computer with its printer ids.
func (r *computerRepository) GetByID(ctx context.Context, id string) (*model.Computer, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c, err := scanComputer(r.DB.QueryRowContext(ctx, computerSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAssetNotFound
		}
		return nil, fmt.Errorf("failed to get computer by ID: %w", err)
	}
	return c, nil
}

func computerWhere(filter AssetFilter) *whereBuilder {
	w := assetWhere(filter, "c.", "computer_name", "user_name", "model")
	if d := strings.TrimSpace(filter.Department); d != "" {
		w.add("c.department = $%d", d)
	}
	if m := strings.TrimSpace(filter.Model); m != "" {
		w.add("c.model = $%d", m)
	}
	return w
}

// List retrieves one page of computers, newest first.
func (r *computerRepository) List(ctx context.Context, filter AssetFilter, params PaginationParams) (*PaginatedResult[model.Computer], error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	w := computerWhere(filter)
	suffix, args := w.page(params)

	rows, err := r.DB.QueryContext(ctx, computerSelect+w.clause()+` ORDER BY c.created_at DESC, c.id DESC`+suffix, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query computers: %w", err)
	}
	defer rows.Close()

	computers := []model.Computer{}
	for rows.Next() {
		c, err := scanComputer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan computer: %w", err)
		}
		computers = append(computers, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	var totalCount int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM computers c`+w.clause(), w.args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to get total count of computers: %w", err)
	}

	return &PaginatedResult[model.Computer]{Items: computers, TotalCount: totalCount}, nil
}

// Update overwrites every writable field and replaces the printer links.
func (r *computerRepository) Update(ctx context.Context, computer *model.Computer) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(tx)

	query := `
		UPDATE computers
		SET asset_tag = $2, service_tag = $3, make = $4, status = $5, purchase_date = $6, warranty_expiry = $7,
			purchase_cost = $8, location = $9, notes = $10, department = $11, computer_name = $12, user_name = $13,
			model = $14, storage = $15, cpu = $16, ram = $17, updated_at = now()
		WHERE id = $1
		RETURNING created_at, updated_at`

	args := append(baseInsertArgs(&computer.AssetBase),
		computer.Department, computer.ComputerName, computer.User, computer.Model,
		computer.Storage, computer.CPU, computer.RAM)

	if err := tx.QueryRowContext(ctx, query, args...).Scan(&computer.CreatedAt, &computer.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrAssetNotFound
		}
		return fmt.Errorf("failed to update computer: %w", mapWriteError(err))
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM computer_printers WHERE computer_id = $1`, computer.ID); err != nil {
		return fmt.Errorf("failed to clear printer links: %w", err)
	}

	computer.PrinterIDs = dedupe(computer.PrinterIDs)
	if err := insertPrinterLinks(ctx, tx, computer.ID, computer.PrinterIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit computer update: %w", err)
	}
	return nil
}

// Delete removes a computer. Printer links cascade; attached monitors and
// docking stations keep existing with their computer reference cleared.
func (r *computerRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.DB.ExecContext(ctx, `DELETE FROM computers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete computer: %w", err)
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

func insertPrinterLinks(ctx context.Context, tx *sql.Tx, computerID string, printerIDs []string) error {
	for _, pid := range printerIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO computer_printers (computer_id, printer_id) VALUES ($1, $2)`,
			computerID, pid,
		); err != nil {
			return fmt.Errorf("failed to link printer %s: %w", pid, mapWriteError(err))
		}
	}
	return nil
}

// CountByDepartment counts computers per department, largest first. Computers
// without a department are grouped under an empty name.
func (r *computerRepository) CountByDepartment(ctx context.Context) ([]model.DepartmentCount, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := r.DB.QueryContext(ctx, `
		SELECT COALESCE(department, '') AS department, COUNT(*) AS count
		FROM computers
		GROUP BY COALESCE(department, '')
		ORDER BY count DESC, department`)
	if err != nil {
		return nil, fmt.Errorf("failed to count computers by department: %w", err)
	}
	defer rows.Close()

	counts := []model.DepartmentCount{}
	for rows.Next() {
		var dc model.DepartmentCount
		if err := rows.Scan(&dc.Department, &dc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan department count: %w", err)
		}
		counts = append(counts, dc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return counts, nil
}
