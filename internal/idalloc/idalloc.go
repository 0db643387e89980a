// Package idalloc assigns sequential, human-readable asset identifiers of the
// form "<prefix>-<n>".
//
// Allocation reads the current maximum and adds one; it is not atomic with the
// insert that follows. Two concurrent creations of the same type can compute
// the same id, in which case the second insert fails on the primary key and
// the caller sees repository.ErrDuplicateID. Nothing here retries.
package idalloc

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"asset-inventory-api/internal/model"
)

// IDSource lists every stored id for an asset type.
type IDSource interface {
	ListAssetIDs(ctx context.Context, assetType model.AssetType) ([]string, error)
}

// Allocator produces the next id for an asset type from the ids already stored.
type Allocator struct {
	source IDSource
}

// New creates an Allocator backed by source.
func New(source IDSource) *Allocator {
	return &Allocator{source: source}
}

// Next returns the id the next record of assetType should receive.
func (a *Allocator) Next(ctx context.Context, assetType model.AssetType) (string, error) {
	if !assetType.Valid() {
		return "", fmt.Errorf("cannot allocate id for unknown asset type %q", assetType)
	}

	ids, err := a.source.ListAssetIDs(ctx, assetType)
	if err != nil {
		return "", fmt.Errorf("failed to list %s ids: %w", assetType, err)
	}

	return NextID(assetType.Prefix(), ids), nil
}

// NextID returns "<prefix>-<max+1>" where max is the largest integer suffix
// among existing ids carrying that prefix. Ids that do not parse are skipped.
func NextID(prefix string, existing []string) string {
	highest := 0
	for _, id := range existing {
		n, ok := Sequence(prefix, id)
		if ok && n > highest {
			highest = n
		}
	}
	return Format(prefix, highest+1)
}

// Sequence extracts n from "<prefix>-<n>". It reports false for any other shape.
func Sequence(prefix, id string) (int, bool) {
	rest, found := strings.CutPrefix(id, prefix+"-")
	if !found || rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Format builds an id from a prefix and sequence number.
func Format(prefix string, n int) string {
	return prefix + "-" + strconv.Itoa(n)
}
