package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"asset-inventory-api/internal/model"
)

// AssetIDRepository lists stored asset ids for sequential id allocation.
type AssetIDRepository interface {
	ListAssetIDs(ctx context.Context, assetType model.AssetType) ([]string, error)
}

type assetIDRepository struct {
	DB *sql.DB
}

// NewAssetIDRepository creates a new AssetIDRepository.
func NewAssetIDRepository(db *sql.DB) AssetIDRepository {
	return &assetIDRepository{DB: db}
}

// ListAssetIDs returns every id of assetType that carries the type's prefix.
func (r *assetIDRepository) ListAssetIDs(ctx context.Context, assetType model.AssetType) ([]string, error) {
	if !assetType.Valid() {
		return nil, fmt.Errorf("unknown asset type %q", assetType)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := r.DB.QueryContext(ctx, `SELECT id FROM `+assetType.Table()+` WHERE id LIKE $1`, likeEscape(assetType.Prefix()+"-")+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s ids: %w", assetType, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return ids, nil
}
