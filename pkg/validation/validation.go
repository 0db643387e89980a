package validation

import (
	"fmt"
	"math"
	"net/mail"
	"strconv"
	"strings"

	"asset-inventory-api/internal/model"
)

// Field limits
const (
	MaxReminderDays    = 365
	MaxTagLength       = 100
	MaxTextLength      = 255
	MaxPurchaseCost    = 99999999.99
	DefaultAssetStatus = model.StatusActive
)

// ValidateRequired checks if a string field is not empty
func ValidateRequired(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateMaxLength checks an optional string against a length limit.
func ValidateMaxLength(fieldName string, value *string, max int) error {
	if value != nil && len(*value) > max {
		return fmt.Errorf("%s cannot exceed %d characters", fieldName, max)
	}
	return nil
}

// RoundCents rounds to two decimal places, half away from zero, the way a
// NUMERIC(10,2) column stores the value. It works on the shortest decimal
// form of f so that 1.005 becomes 1.01 as it does in Postgres.
func RoundCents(f float64) float64 {
	text := strconv.FormatFloat(math.Abs(f), 'f', -1, 64)
	whole, frac, _ := strings.Cut(text, ".")
	if len(frac) <= 2 {
		return f
	}

	cents, err := strconv.ParseInt(whole+frac[:2], 10, 64)
	if err != nil {
		return f
	}
	if frac[2] >= '5' {
		cents++
	}

	rounded := float64(cents) / 100
	if f < 0 {
		return -rounded
	}
	return rounded
}

// normalizeOptional trims s and turns blank values into nil.
func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// Errors collects field-level validation failures.
type Errors map[string]string

func (e Errors) add(field string, err error) {
	if err != nil {
		if _, exists := e[field]; !exists {
			e[field] = err.Error()
		}
	}
}

// ValidateAssetBase normalizes the shared asset fields in place and reports
// problems keyed by JSON field name.
func ValidateAssetBase(b *model.AssetBase) Errors {
	errs := Errors{}

	b.ID = strings.TrimSpace(b.ID)
	b.AssetTag = normalizeOptional(b.AssetTag)
	b.ServiceTag = normalizeOptional(b.ServiceTag)
	b.Make = normalizeOptional(b.Make)
	b.Location = normalizeOptional(b.Location)
	b.Notes = normalizeOptional(b.Notes)

	if b.Status == "" {
		b.Status = DefaultAssetStatus
	}
	if !b.Status.Valid() {
		errs["status"] = fmt.Sprintf("invalid status: %s", b.Status)
	}

	if len(b.ID) > MaxTagLength {
		errs["id"] = fmt.Sprintf("id cannot exceed %d characters", MaxTagLength)
	}
	errs.add("asset_tag", ValidateMaxLength("asset tag", b.AssetTag, MaxTagLength))
	errs.add("service_tag", ValidateMaxLength("service tag", b.ServiceTag, MaxTagLength))
	errs.add("make", ValidateMaxLength("make", b.Make, MaxTextLength))
	errs.add("location", ValidateMaxLength("location", b.Location, MaxTextLength))

	if b.PurchaseCost != nil {
		cost := RoundCents(*b.PurchaseCost)
		b.PurchaseCost = &cost
	}
	if b.PurchaseCost != nil && (*b.PurchaseCost < 0 || *b.PurchaseCost > MaxPurchaseCost) {
		errs["purchase_cost"] = "purchase cost must be between 0 and 99999999.99"
	}

	return errs
}

// ValidateComputerInput validates and normalizes a computer.
func ValidateComputerInput(c *model.Computer) Errors {
	errs := ValidateAssetBase(&c.AssetBase)

	c.Department = normalizeOptional(c.Department)
	c.ComputerName = normalizeOptional(c.ComputerName)
	c.User = normalizeOptional(c.User)
	c.Model = normalizeOptional(c.Model)
	c.Storage = normalizeOptional(c.Storage)
	c.CPU = normalizeOptional(c.CPU)
	c.RAM = normalizeOptional(c.RAM)

	errs.add("computer_name", ValidateMaxLength("computer name", c.ComputerName, MaxTextLength))
	errs.add("department", ValidateMaxLength("department", c.Department, MaxTextLength))
	errs.add("user", ValidateMaxLength("user", c.User, MaxTextLength))
	errs.add("model", ValidateMaxLength("model", c.Model, MaxTextLength))

	for _, pid := range c.PrinterIDs {
		if err := ValidateRequired("printer id", pid); err != nil {
			errs["printers"] = err.Error()
			break
		}
	}

	return errs
}

// ValidatePrinterInput validates and normalizes a printer. Printers must carry
// a service tag.
func ValidatePrinterInput(p *model.Printer) Errors {
	errs := ValidateAssetBase(&p.AssetBase)
	p.Description = normalizeOptional(p.Description)

	if p.ServiceTag == nil {
		errs["service_tag"] = "service tag is required"
	}
	return errs
}

// ValidatePeripheralInput validates and normalizes a monitor or docking station.
func ValidatePeripheralInput(p *model.Peripheral) Errors {
	errs := ValidateAssetBase(&p.AssetBase)
	p.ComputerID = normalizeOptional(p.ComputerID)
	return errs
}

// ValidateAssignmentInput validates a new assignment request.
func ValidateAssignmentInput(a *model.AssetAssignment) Errors {
	errs := Errors{}

	a.AssetID = strings.TrimSpace(a.AssetID)
	a.AssignedTo = strings.TrimSpace(a.AssignedTo)
	a.Notes = normalizeOptional(a.Notes)

	if !a.AssetType.Valid() {
		errs["asset_type"] = fmt.Sprintf("invalid asset type: %s", a.AssetType)
	}
	errs.add("asset_id", ValidateRequired("asset id", a.AssetID))
	errs.add("assigned_to", ValidateRequired("assigned to", a.AssignedTo))
	if len(a.AssignedTo) > MaxTextLength {
		errs["assigned_to"] = fmt.Sprintf("assigned to cannot exceed %d characters", MaxTextLength)
	}
	if a.DueDate != nil && !a.AssignedDate.IsZero() && a.DueDate.Before(a.AssignedDate) {
		errs["due_date"] = "due date cannot be before the assignment date"
	}

	return errs
}

// ValidateNotificationSetting normalizes a user's email preferences. A zero
// reminder window takes defaultDays.
func ValidateNotificationSetting(st *model.NotificationSetting, defaultDays int) Errors {
	errs := Errors{}

	st.UserID = strings.TrimSpace(st.UserID)
	st.Username = strings.TrimSpace(st.Username)
	st.Email = strings.TrimSpace(st.Email)

	errs.add("user_id", ValidateRequired("user id", st.UserID))
	if len(st.Username) > MaxTextLength {
		errs["username"] = fmt.Sprintf("username cannot exceed %d characters", MaxTextLength)
	}

	if st.Email != "" {
		addr, err := mail.ParseAddress(st.Email)
		if err != nil {
			errs["email"] = fmt.Sprintf("invalid email address: %s", st.Email)
		} else {
			st.Email = addr.Address
		}
	} else if st.EmailOnWarrantyExpiry || st.EmailOnAssignment || st.DailySummary || st.WeeklySummary {
		errs["email"] = "email is required to receive notifications"
	}

	if st.WarrantyReminderDays == 0 {
		st.WarrantyReminderDays = defaultDays
	}
	if st.WarrantyReminderDays < 1 || st.WarrantyReminderDays > MaxReminderDays {
		errs["warranty_reminder_days"] = fmt.Sprintf("warranty reminder days must be between 1 and %d", MaxReminderDays)
	}

	return errs
}
