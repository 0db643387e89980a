package model

// NotificationSetting holds one user's email preferences.
type NotificationSetting struct {
	UserID                string `json:"user_id"`
	Username              string `json:"username"`
	Email                 string `json:"email"`
	EmailOnWarrantyExpiry bool   `json:"email_on_warranty_expiry"`
	WarrantyReminderDays  int    `json:"warranty_reminder_days"`
	EmailOnAssignment     bool   `json:"email_on_assignment"`
	DailySummary          bool   `json:"daily_summary"`
	WeeklySummary         bool   `json:"weekly_summary"`
}

// WarrantyItem is an asset whose warranty ends soon.
type WarrantyItem struct {
	AssetType      AssetType `json:"asset_type"`
	AssetID        string    `json:"asset_id"`
	Label          string    `json:"label"`
	Make           string    `json:"make"`
	Model          string    `json:"model,omitempty"`
	WarrantyExpiry Date      `json:"warranty_expiry"`
}

// StatusCount is the number of assets of one type in one status.
type StatusCount struct {
	Status AssetStatus `json:"status"`
	Count  int         `json:"count"`
}

// DepartmentCount is the number of computers in one department.
type DepartmentCount struct {
	Department string `json:"department"`
	Count      int    `json:"count"`
}

// DashboardStats is the inventory overview.
type DashboardStats struct {
	Counts             map[AssetType]int           `json:"counts"`
	TotalAssets        int                         `json:"total_assets"`
	PendingAssignments int                         `json:"pending_assignments"`
	StatusBreakdown    map[AssetType][]StatusCount `json:"status_breakdown"`
	RecentActivity     []AssetHistory              `json:"recent_activity"`
}
