package model

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Snapshot is the serialized form of an asset's stored fields at one point in
// time. A nil value marks an absent field and encodes as JSON null.
type Snapshot map[string]*string

// volatileFields change on every write and are ignored when deciding whether
// an update actually changed anything.
var volatileFields = map[string]bool{
	"updated_at": true,
}

// ChangedFields returns the sorted names of fields whose values differ
// between s and other, ignoring volatile bookkeeping fields.
func (s Snapshot) ChangedFields(other Snapshot) []string {
	var changed []string
	for k, v := range s {
		if volatileFields[k] {
			continue
		}
		if !sameValue(v, other[k]) {
			changed = append(changed, k)
		}
	}
	for k := range other {
		if volatileFields[k] {
			continue
		}
		if _, ok := s[k]; !ok && other[k] != nil {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

// Equal reports whether no non-volatile field differs.
func (s Snapshot) Equal(other Snapshot) bool {
	return len(s.ChangedFields(other)) == 0
}

// Value returns the string value for key, or "" when absent or null.
func (s Snapshot) Value(key string) string {
	if v := s[key]; v != nil {
		return *v
	}
	return ""
}

func sameValue(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func str(s string) *string {
	return &s
}

func datePtr(d *Date) *string {
	if d == nil || d.IsZero() {
		return nil
	}
	return str(d.String())
}

func decimalPtr(f *float64) *string {
	if f == nil {
		return nil
	}
	return str(strconv.FormatFloat(*f, 'f', 2, 64))
}

func timestamp(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	return str(t.UTC().Format(time.RFC3339Nano))
}

// idList joins related ids in sorted order so that ordering differences in
// storage never show up as a change.
func idList(ids []string) *string {
	if len(ids) == 0 {
		return nil
	}
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	return str(strings.Join(sorted, ","))
}
