package model

import "time"

// HistoryAction is the kind of change an AssetHistory row records.
type HistoryAction string

const (
	ActionCreated    HistoryAction = "created"
	ActionUpdated    HistoryAction = "updated"
	ActionDeleted    HistoryAction = "deleted"
	ActionAssigned   HistoryAction = "assigned"
	ActionUnassigned HistoryAction = "unassigned"
)

// Valid reports whether a is a known action.
func (a HistoryAction) Valid() bool {
	switch a {
	case ActionCreated, ActionUpdated, ActionDeleted, ActionAssigned, ActionUnassigned:
		return true
	}
	return false
}

// AssetHistory is one immutable audit trail entry.
type AssetHistory struct {
	ID                int64         `json:"id"`
	AssetType         string        `json:"asset_type"`
	AssetID           string        `json:"asset_id"`
	Action            HistoryAction `json:"action"`
	ChangedBy         *string       `json:"changed_by"`
	ChangedByUsername *string       `json:"changed_by_username"`
	ChangedAt         time.Time     `json:"changed_at"`
	OldValues         Snapshot      `json:"old_values"`
	NewValues         Snapshot      `json:"new_values"`
	IPAddress         *string       `json:"ip_address"`
}
