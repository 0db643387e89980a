package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"asset-inventory-api/internal/model"
)

// HistoryFilter narrows history listings. AssetType is the display name
// stored on history rows ("Docking Station").
type HistoryFilter struct {
	AssetType string
	AssetID   string
	Action    model.HistoryAction
}

// HistoryRepository is the append-only store for the audit trail. It exposes
// no update or delete.
type HistoryRepository interface {
	CreateHistory(ctx context.Context, entry *model.AssetHistory) error
	List(ctx context.Context, filter HistoryFilter, params PaginationParams) (*PaginatedResult[model.AssetHistory], error)
	Recent(ctx context.Context, limit int) ([]model.AssetHistory, error)
}

type historyRepository struct {
	DB *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(db *sql.DB) HistoryRepository {
	return &historyRepository{DB: db}
}

const historyColumns = "id, asset_type, asset_id, action, changed_by, changed_by_username, changed_at, old_values, new_values, ip_address"

func snapshotJSON(s model.Snapshot) (any, error) {
	if s == nil {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	// lib/pq sends []byte as bytea; JSONB needs text.
	return string(b), nil
}

func scanHistory(row interface{ Scan(...any) error }) (*model.AssetHistory, error) {
	var h model.AssetHistory
	var oldValues, newValues []byte
	if err := row.Scan(&h.ID, &h.AssetType, &h.AssetID, &h.Action, &h.ChangedBy, &h.ChangedByUsername,
		&h.ChangedAt, &oldValues, &newValues, &h.IPAddress); err != nil {
		return nil, err
	}
	if oldValues != nil {
		if err := json.Unmarshal(oldValues, &h.OldValues); err != nil {
			return nil, fmt.Errorf("failed to decode old values: %w", err)
		}
	}
	if newValues != nil {
		if err := json.Unmarshal(newValues, &h.NewValues); err != nil {
			return nil, fmt.Errorf("failed to decode new values: %w", err)
		}
	}
	return &h, nil
}

// CreateHistory appends one entry and fills its generated id.
func (r *historyRepository) CreateHistory(ctx context.Context, entry *model.AssetHistory) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	oldValues, err := snapshotJSON(entry.OldValues)
	if err != nil {
		return fmt.Errorf("failed to encode old values: %w", err)
	}
	newValues, err := snapshotJSON(entry.NewValues)
	if err != nil {
		return fmt.Errorf("failed to encode new values: %w", err)
	}

	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO asset_history (asset_type, asset_id, action, changed_by, changed_by_username, changed_at, old_values, new_values, ip_address)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	if err := r.DB.QueryRowContext(ctx, query,
		entry.AssetType, entry.AssetID, entry.Action, entry.ChangedBy, entry.ChangedByUsername,
		entry.ChangedAt, oldValues, newValues, entry.IPAddress,
	).Scan(&entry.ID); err != nil {
		return fmt.Errorf("failed to create history entry: %w", err)
	}
	return nil
}

// List returns history newest first.
func (r *historyRepository) List(ctx context.Context, filter HistoryFilter, params PaginationParams) (*PaginatedResult[model.AssetHistory], error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	w := &whereBuilder{}
	if filter.AssetType != "" {
		w.add("asset_type = $%d", filter.AssetType)
	}
	if filter.AssetID != "" {
		w.add("asset_id = $%d", filter.AssetID)
	}
	if filter.Action != "" {
		w.add("action = $%d", filter.Action)
	}
	suffix, args := w.page(params)

	rows, err := r.DB.QueryContext(ctx, `SELECT `+historyColumns+` FROM asset_history`+w.clause()+` ORDER BY changed_at DESC, id DESC`+suffix, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries, err := collectHistory(rows)
	if err != nil {
		return nil, err
	}

	var totalCount int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM asset_history`+w.clause(), w.args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to get total count of history: %w", err)
	}

	return &PaginatedResult[model.AssetHistory]{Items: entries, TotalCount: totalCount}, nil
}

// Recent returns the newest limit entries across all assets.
func (r *historyRepository) Recent(ctx context.Context, limit int) ([]model.AssetHistory, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := r.DB.QueryContext(ctx, `SELECT `+historyColumns+` FROM asset_history ORDER BY changed_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent history: %w", err)
	}
	defer rows.Close()

	return collectHistory(rows)
}

func collectHistory(rows *sql.Rows) ([]model.AssetHistory, error) {
	entries := []model.AssetHistory{}
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}
