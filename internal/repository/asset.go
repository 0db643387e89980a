package repository

import (
	"strings"

	"asset-inventory-api/internal/model"
)

// AssetFilter narrows asset listings. Department and Model apply to computers
// only, ComputerID to peripherals only; the other fields apply to every type.
type AssetFilter struct {
	Status     model.AssetStatus
	Search     string
	Make       string
	Department string
	Model      string
	ComputerID string
}

const baseColumns = "id, asset_tag, service_tag, make, status, purchase_date, warranty_expiry, purchase_cost, location, notes, created_at, updated_at"

var searchColumns = []string{"id", "asset_tag", "service_tag", "make", "location"}

func baseScanDest(b *model.AssetBase) []any {
	return []any{
		&b.ID, &b.AssetTag, &b.ServiceTag, &b.Make, &b.Status,
		&b.PurchaseDate, &b.WarrantyExpiry, &b.PurchaseCost,
		&b.Location, &b.Notes, &b.CreatedAt, &b.UpdatedAt,
	}
}

// baseInsertArgs lists the writable base fields in column order, id first.
func baseInsertArgs(b *model.AssetBase) []any {
	return []any{
		b.ID, b.AssetTag, b.ServiceTag, b.Make, b.Status,
		b.PurchaseDate, b.WarrantyExpiry, b.PurchaseCost, b.Location, b.Notes,
	}
}

func assetWhere(filter AssetFilter, alias string, extraSearch ...string) *whereBuilder {
	w := &whereBuilder{}
	if filter.Status != "" {
		w.add(alias+"status = $%d", filter.Status)
	}
	if m := strings.TrimSpace(filter.Make); m != "" {
		w.add(alias+"make = $%d", m)
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		cols := make([]string, 0, len(searchColumns)+len(extraSearch))
		for _, c := range searchColumns {
			cols = append(cols, alias+c)
		}
		for _, c := range extraSearch {
			cols = append(cols, alias+c)
		}
		w.addSearch(cols, s)
	}
	return w
}

// dedupe drops repeated ids while keeping order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
