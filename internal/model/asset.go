package model

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// AssetType identifies one of the tracked asset variants. Its value doubles
// as the id prefix for records of that type.
type AssetType string

const (
	AssetTypeComputer       AssetType = "computer"
	AssetTypePrinter        AssetType = "printer"
	AssetTypeMonitor        AssetType = "monitor"
	AssetTypeDockingStation AssetType = "docking_station"
)

// AllAssetTypes lists every asset variant in display order.
var AllAssetTypes = []AssetType{
	AssetTypeComputer,
	AssetTypePrinter,
	AssetTypeMonitor,
	AssetTypeDockingStation,
}

// ParseAssetType accepts either the type code ("docking_station") or the
// display name ("Docking Station").
func ParseAssetType(s string) (AssetType, error) {
	for _, t := range AllAssetTypes {
		if s == string(t) || s == t.DisplayName() {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown asset type: %q", s)
}

// Prefix returns the id prefix used by the sequential id allocator.
func (t AssetType) Prefix() string {
	return string(t)
}

// Table returns the storage table holding records of this type.
func (t AssetType) Table() string {
	switch t {
	case AssetTypeComputer:
		return "computers"
	case AssetTypePrinter:
		return "printers"
	case AssetTypeMonitor:
		return "monitors"
	case AssetTypeDockingStation:
		return "docking_stations"
	}
	return ""
}

// DisplayName is the human label stored in history rows.
func (t AssetType) DisplayName() string {
	switch t {
	case AssetTypeComputer:
		return "Computer"
	case AssetTypePrinter:
		return "Printer"
	case AssetTypeMonitor:
		return "Monitor"
	case AssetTypeDockingStation:
		return "Docking Station"
	}
	return string(t)
}

// Valid reports whether t is one of the known asset types.
func (t AssetType) Valid() bool {
	return t.Table() != ""
}

// AssetStatus is the lifecycle state of an asset.
type AssetStatus string

const (
	StatusActive    AssetStatus = "active"
	StatusRetired   AssetStatus = "retired"
	StatusRepair    AssetStatus = "repair"
	StatusDisposed  AssetStatus = "disposed"
	StatusAvailable AssetStatus = "available"
)

// Valid reports whether s is a known status.
func (s AssetStatus) Valid() bool {
	switch s {
	case StatusActive, StatusRetired, StatusRepair, StatusDisposed, StatusAvailable:
		return true
	}
	return false
}

// Asset is implemented by every asset variant.
type Asset interface {
	AssetType() AssetType
	AssetID() string
	Snapshot() Snapshot
}

// Date is a calendar date without a time of day. It marshals as YYYY-MM-DD.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate truncates t to its calendar day in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// String returns the ISO-8601 date form.
func (d Date) String() string {
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s", s)
	}
	t, err := time.Parse(dateLayout, s[1:len(s)-1])
	if err != nil {
		return fmt.Errorf("invalid date %s: expected YYYY-MM-DD", s)
	}
	d.Time = t
	return nil
}

// Scan implements sql.Scanner for DATE columns.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		d.Time = time.Date(v.Year(), v.Month(), v.Day(), 0, 0, 0, 0, time.UTC)
		return nil
	case []byte:
		return d.parse(string(v))
	case string:
		return d.parse(v)
	}
	return fmt.Errorf("cannot scan %T into Date", src)
}

func (d *Date) parse(s string) error {
	if len(s) > len(dateLayout) {
		s = s[:len(dateLayout)]
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// Value implements driver.Valuer.
func (d Date) Value() (driver.Value, error) {
	return d.Time, nil
}

// AssetBase holds the fields shared by all asset variants.
type AssetBase struct {
	ID             string      `json:"id"`
	AssetTag       *string     `json:"asset_tag"`
	ServiceTag     *string     `json:"service_tag"`
	Make           *string     `json:"make"`
	Status         AssetStatus `json:"status"`
	PurchaseDate   *Date       `json:"purchase_date"`
	WarrantyExpiry *Date       `json:"warranty_expiry"`
	PurchaseCost   *float64    `json:"purchase_cost"`
	Location       *string     `json:"location"`
	Notes          *string     `json:"notes"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// AssetID returns the record's primary key.
func (b AssetBase) AssetID() string {
	return b.ID
}

func (b AssetBase) baseSnapshot(s Snapshot) {
	s["id"] = str(b.ID)
	s["asset_tag"] = b.AssetTag
	s["service_tag"] = b.ServiceTag
	s["make"] = b.Make
	s["status"] = str(string(b.Status))
	s["purchase_date"] = datePtr(b.PurchaseDate)
	s["warranty_expiry"] = datePtr(b.WarrantyExpiry)
	s["purchase_cost"] = decimalPtr(b.PurchaseCost)
	s["location"] = b.Location
	s["notes"] = b.Notes
	s["created_at"] = timestamp(b.CreatedAt)
	s["updated_at"] = timestamp(b.UpdatedAt)
}

// Computer is a workstation or laptop. It may be linked to many printers.
type Computer struct {
	AssetBase
	Department   *string  `json:"department"`
	ComputerName *string  `json:"computer_name"`
	User         *string  `json:"user"`
	Model        *string  `json:"model"`
	Storage      *string  `json:"storage"`
	CPU          *string  `json:"cpu"`
	RAM          *string  `json:"ram"`
	PrinterIDs   []string `json:"printers"`
}

func (c Computer) AssetType() AssetType { return AssetTypeComputer }

// Snapshot maps every stored field of the computer to its display string.
func (c Computer) Snapshot() Snapshot {
	s := make(Snapshot, 20)
	c.baseSnapshot(s)
	s["department"] = c.Department
	s["computer_name"] = c.ComputerName
	s["user"] = c.User
	s["model"] = c.Model
	s["storage"] = c.Storage
	s["cpu"] = c.CPU
	s["ram"] = c.RAM
	s["printers"] = idList(c.PrinterIDs)
	return s
}

// Printer is a network or desk printer. Its service tag is mandatory.
type Printer struct {
	AssetBase
	Description *string `json:"description"`
}

func (p Printer) AssetType() AssetType { return AssetTypePrinter }

// Snapshot maps every stored field of the printer to its display string.
func (p Printer) Snapshot() Snapshot {
	s := make(Snapshot, 13)
	p.baseSnapshot(s)
	s["description"] = p.Description
	return s
}

// Peripheral is a monitor or a docking station. Both optionally reference the
// computer they are attached to; deleting that computer clears the reference.
type Peripheral struct {
	AssetBase
	Type       AssetType `json:"asset_type"`
	ComputerID *string   `json:"computer"`
}

func (p Peripheral) AssetType() AssetType { return p.Type }

// Snapshot maps every stored field of the peripheral to its display string.
func (p Peripheral) Snapshot() Snapshot {
	s := make(Snapshot, 13)
	p.baseSnapshot(s)
	s["computer"] = p.ComputerID
	return s
}

// IsPeripheralType reports whether t is stored as a Peripheral.
func IsPeripheralType(t AssetType) bool {
	return t == AssetTypeMonitor || t == AssetTypeDockingStation
}
