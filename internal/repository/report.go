package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"asset-inventory-api/internal/model"
)

// ReportRepository answers aggregate questions for the dashboard and the
// scheduled summaries.
type ReportRepository interface {
	CountByType(ctx context.Context) (map[model.AssetType]int, error)
	StatusBreakdown(ctx context.Context) (map[model.AssetType][]model.StatusCount, error)
	CountAssignments(ctx context.Context, status model.AssignmentStatus) (int, error)
	CountCreatedBetween(ctx context.Context, assetType model.AssetType, from, to time.Time) (int, error)
	CountReturnedBetween(ctx context.Context, from, to time.Time) (int, error)
	WarrantyExpiring(ctx context.Context, from, to model.Date) ([]model.WarrantyItem, error)
}

type reportRepository struct {
	DB *sql.DB
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(db *sql.DB) ReportRepository {
	return &reportRepository{DB: db}
}

func unionAll(format func(t model.AssetType) string) string {
	parts := make([]string, 0, len(model.AllAssetTypes))
	for _, t := range model.AllAssetTypes {
		parts = append(parts, format(t))
	}
	return strings.Join(parts, " UNION ALL ")
}

// CountByType returns the number of stored records of every asset type.
func (r *reportRepository) CountByType(ctx context.Context) (map[model.AssetType]int, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := unionAll(func(t model.AssetType) string {
		return fmt.Sprintf("SELECT '%s', COUNT(*) FROM %s", t, t.Table())
	})

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count assets: %w", err)
	}
	defer rows.Close()

	counts := make(map[model.AssetType]int, len(model.AllAssetTypes))
	for rows.Next() {
		var t model.AssetType
		var n int
		if err := rows.Scan(&t, &n); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[t] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return counts, nil
}

// StatusBreakdown returns per-type counts grouped by status.
func (r *reportRepository) StatusBreakdown(ctx context.Context) (map[model.AssetType][]model.StatusCount, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := unionAll(func(t model.AssetType) string {
		return fmt.Sprintf("SELECT '%s', status, COUNT(*) FROM %s GROUP BY status", t, t.Table())
	}) + " ORDER BY 1, 2"

	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query status breakdown: %w", err)
	}
	defer rows.Close()

	breakdown := make(map[model.AssetType][]model.StatusCount)
	for rows.Next() {
		var t model.AssetType
		var sc model.StatusCount
		if err := rows.Scan(&t, &sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		breakdown[t] = append(breakdown[t], sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return breakdown, nil
}

func (r *reportRepository) CountAssignments(ctx context.Context, status model.AssignmentStatus) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var n int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM asset_assignments WHERE status = $1`, status).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count assignments: %w", err)
	}
	return n, nil
}

// CountCreatedBetween counts records of assetType created in [from, to).
func (r *reportRepository) CountCreatedBetween(ctx context.Context, assetType model.AssetType, from, to time.Time) (int, error) {
	if !assetType.Valid() {
		return 0, fmt.Errorf("unknown asset type %q", assetType)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var n int
	query := `SELECT COUNT(*) FROM ` + assetType.Table() + ` WHERE created_at >= $1 AND created_at < $2`
	if err := r.DB.QueryRowContext(ctx, query, from, to).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count new %s records: %w", assetType, err)
	}
	return n, nil
}

// CountReturnedBetween counts assignments returned in [from, to).
func (r *reportRepository) CountReturnedBetween(ctx context.Context, from, to time.Time) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var n int
	query := `SELECT COUNT(*) FROM asset_assignments WHERE status = $1 AND returned_date >= $2 AND returned_date < $3`
	if err := r.DB.QueryRowContext(ctx, query, model.AssignmentReturned, from, to).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count returned assignments: %w", err)
	}
	return n, nil
}

var warrantyLabels = map[model.AssetType]string{
	model.AssetTypeComputer:       "COALESCE(computer_name, asset_tag, id), COALESCE(model, '')",
	model.AssetTypePrinter:        "COALESCE(asset_tag, id), ''",
	model.AssetTypeMonitor:        "COALESCE(asset_tag, id), ''",
	model.AssetTypeDockingStation: "COALESCE(asset_tag, id), ''",
}

// WarrantyExpiring lists assets whose warranty ends within [from, to],
// soonest first.
func (r *reportRepository) WarrantyExpiring(ctx context.Context, from, to model.Date) ([]model.WarrantyItem, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	query := unionAll(func(t model.AssetType) string {
		return fmt.Sprintf(
			"SELECT '%s', id, %s, COALESCE(make, ''), warranty_expiry FROM %s WHERE warranty_expiry BETWEEN $1 AND $2",
			t, warrantyLabels[t], t.Table())
	}) + " ORDER BY 6, 1, 2"

	rows, err := r.DB.QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query expiring warranties: %w", err)
	}
	defer rows.Close()

	items := []model.WarrantyItem{}
	for rows.Next() {
		var it model.WarrantyItem
		if err := rows.Scan(&it.AssetType, &it.AssetID, &it.Label, &it.Model, &it.Make, &it.WarrantyExpiry); err != nil {
			return nil, fmt.Errorf("failed to scan warranty item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}
