package validation

import (
	"strings"
	"testing"

	"asset-inventory-api/internal/model"

	"github.com/stretchr/testify/assert"
)

func sp(s string) *string { return &s }

func TestRoundCents(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.125, 0.13},
		{1.005, 1.01},
		{2.675, 2.68},
		{10.124, 10.12},
		{19.99, 19.99},
		{7, 7},
		{-0.125, -0.13},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundCents(tt.in), "%v", tt.in)
	}
}

func TestValidateAssetBase_RoundsPurchaseCost(t *testing.T) {
	cost := 0.125
	b := model.AssetBase{PurchaseCost: &cost}

	errs := ValidateAssetBase(&b)

	assert.Empty(t, errs)
	assert.Equal(t, 0.13, *b.PurchaseCost)
}

func TestValidateAssetBase_NormalizesAndDefaults(t *testing.T) {
	b := model.AssetBase{
		ID:       "  ",
		AssetTag: sp("  TAG-1 "),
		Make:     sp("   "),
	}

	errs := ValidateAssetBase(&b)

	assert.Empty(t, errs)
	assert.Equal(t, "", b.ID)
	assert.Equal(t, "TAG-1", *b.AssetTag)
	assert.Nil(t, b.Make)
	assert.Equal(t, model.StatusActive, b.Status)
}

func TestValidateAssetBase_Errors(t *testing.T) {
	cost := -5.0
	b := model.AssetBase{
		Status:       "lost",
		PurchaseCost: &cost,
		AssetTag:     sp(strings.Repeat("x", MaxTagLength+1)),
	}

	errs := ValidateAssetBase(&b)

	assert.Contains(t, errs, "status")
	assert.Contains(t, errs, "purchase_cost")
	assert.Contains(t, errs, "asset_tag")
}

func TestValidatePrinterInput_RequiresServiceTag(t *testing.T) {
	p := model.Printer{AssetBase: model.AssetBase{ServiceTag: sp(" ")}}
	errs := ValidatePrinterInput(&p)
	assert.Equal(t, "service tag is required", errs["service_tag"])

	p.ServiceTag = sp("SVC-9")
	assert.Empty(t, ValidatePrinterInput(&p))
}

func TestValidateComputerInput(t *testing.T) {
	c := model.Computer{ComputerName: sp(" WS-01 "), PrinterIDs: []string{"printer-1", ""}}
	errs := ValidateComputerInput(&c)

	assert.Equal(t, "WS-01", *c.ComputerName)
	assert.Contains(t, errs, "printers")
}

func TestValidatePeripheralInput(t *testing.T) {
	p := model.Peripheral{Type: model.AssetTypeMonitor, ComputerID: sp("")}
	assert.Empty(t, ValidatePeripheralInput(&p))
	assert.Nil(t, p.ComputerID)
}

func TestValidateAssignmentInput(t *testing.T) {
	a := model.AssetAssignment{AssetType: "scanner"}
	errs := ValidateAssignmentInput(&a)

	assert.Contains(t, errs, "asset_type")
	assert.Contains(t, errs, "asset_id")
	assert.Contains(t, errs, "assigned_to")

	ok := model.AssetAssignment{AssetType: model.AssetTypeComputer, AssetID: "computer-1", AssignedTo: " Jane "}
	assert.Empty(t, ValidateAssignmentInput(&ok))
	assert.Equal(t, "Jane", ok.AssignedTo)
}

func TestValidateNotificationSetting(t *testing.T) {
	st := model.NotificationSetting{
		UserID:            "  7 ",
		Email:             "IT Desk <desk@example.com>",
		EmailOnAssignment: true,
	}
	errs := ValidateNotificationSetting(&st, 14)
	assert.Empty(t, errs)
	assert.Equal(t, "7", st.UserID)
	assert.Equal(t, "desk@example.com", st.Email)
	assert.Equal(t, 14, st.WarrantyReminderDays)

	st = model.NotificationSetting{UserID: "7", WarrantyReminderDays: -1}
	errs = ValidateNotificationSetting(&st, 14)
	assert.Contains(t, errs, "warranty_reminder_days")

	st = model.NotificationSetting{UserID: "7", WeeklySummary: true}
	errs = ValidateNotificationSetting(&st, 14)
	assert.Equal(t, "email is required to receive notifications", errs["email"])
}
