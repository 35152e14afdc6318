package models

import (
	"time"
)

// FlowState is the current step of a purchase authorization flow. Steps are
// strictly ordered; see services.AllowedTransitions for the transition graph.
type FlowState string

const (
	StateGarageSelection      FlowState = "garage_selection"
	StateLocationConfirmation FlowState = "location_confirmation"
	StateLicenseScan          FlowState = "license_scan"
	StateSpendingCheck        FlowState = "spending_check"
	StateLimitBlocked         FlowState = "limit_blocked"
	StateAuthorized           FlowState = "authorized"
	StateFuelDetails          FlowState = "fuel_details"
	StatePinEntry             FlowState = "pin_entry"
	StateScanToTill           FlowState = "scan_to_till"
	StateCompleted            FlowState = "completed"
	StateCancelled            FlowState = "cancelled"
)

// Terminal reports whether the flow is finished. A blocked spending check is
// terminal for the attempt but still needs the driver's explicit exit, so it
// does not count here.
func (s FlowState) Terminal() bool {
	return s == StateCompleted || s == StateCancelled
}

// PurchaseFlow is the single in-flight purchase attempt of a driver. The
// vehicle is resolved from custody at start and is immutable for the flow's
// duration; everything else fills in as the driver advances.
type PurchaseFlow struct {
	ID             string    `json:"id" gorm:"primaryKey;size:191"`
	DriverID       string    `json:"driver_id" gorm:"not null;size:191;index"`
	OrganizationID string    `json:"organization_id" gorm:"not null;size:191;index"`
	VehicleID      string    `json:"vehicle_id" gorm:"not null;size:191"`
	State          FlowState `json:"state" gorm:"type:varchar(32);not null;index"`

	GarageID *string `json:"garage_id" gorm:"size:191"`

	// Location sample and its trust classification. Nullable: location
	// acquisition may never resolve and the flow tolerates that.
	Latitude         *float64   `json:"latitude"`
	Longitude        *float64   `json:"longitude"`
	Accuracy         *float64   `json:"accuracy"`
	Altitude         *float64   `json:"altitude"`
	AltitudeAccuracy *float64   `json:"altitude_accuracy"`
	CapturedAt       *time.Time `json:"captured_at"`
	GPSSuspicious    bool       `json:"gps_suspicious"`
	GPSProvider      string     `json:"gps_provider" gorm:"size:10"`

	// Geofence result against the chosen garage.
	DistanceKm       *float64 `json:"distance_km"`
	LocationMismatch bool     `json:"location_mismatch"`

	// VIN extracted from the scanned license disc.
	VerifiedVIN string `json:"verified_vin" gorm:"size:17"`

	// Spending limit snapshot captured at spending_check.
	HasLimit       bool    `json:"has_limit"`
	LimitScope     string  `json:"limit_scope" gorm:"size:20"`
	LimitAmount    float64 `json:"limit_amount"`
	SpentAmount    float64 `json:"spent_amount"`
	AvailableLimit float64 `json:"available_limit"`
	MaxLiters      float64 `json:"max_liters"`
	LimitBlocked   bool    `json:"limit_blocked"`

	// Purchase draft, mutated only through explicit driver input.
	Liters        *float64 `json:"liters"`
	PricePerLiter *float64 `json:"price_per_liter"`
	TotalAmount   *float64 `json:"total_amount"`
	Odometer      *float64 `json:"odometer"`

	LubricantAdded     bool     `json:"lubricant_added"`
	LubricantType      string   `json:"lubricant_type" gorm:"size:50"`
	LubricantBrand     string   `json:"lubricant_brand" gorm:"size:50"`
	LubricantQuantity  *float64 `json:"lubricant_quantity"`
	LubricantUnitPrice *float64 `json:"lubricant_unit_price"`
	LubricantSubtotal  *float64 `json:"lubricant_subtotal"`

	// Submission outcome.
	TransactionID    string   `json:"transaction_id" gorm:"size:191"`
	CommissionAmount *float64 `json:"commission_amount"`
	NetAmount        *float64 `json:"net_amount"`
	Warning          string   `json:"warning" gorm:"size:255"`
	WarningType      string   `json:"warning_type" gorm:"size:50"`
	FuelEfficiency   *float64 `json:"fuel_efficiency"` // km per liter

	// Credit account bound at garage selection (garage-credit rail only).
	AccountNumber string `json:"account_number,omitempty" gorm:"size:50"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Vehicle Vehicle `json:"vehicle" gorm:"foreignKey:VehicleID"`
	Garage  *Garage `json:"garage,omitempty" gorm:"foreignKey:GarageID"`
}

// Sample reconstructs the stored location sample, or nil if none arrived.
func (f *PurchaseFlow) Sample() *LocationSample {
	if f.Latitude == nil || f.Longitude == nil || f.CapturedAt == nil {
		return nil
	}
	return &LocationSample{
		Latitude:         *f.Latitude,
		Longitude:        *f.Longitude,
		Accuracy:         Float64OrZero(f.Accuracy),
		Altitude:         f.Altitude,
		AltitudeAccuracy: f.AltitudeAccuracy,
		CapturedAt:       *f.CapturedAt,
	}
}

// Snapshot returns the spending limit fields as a SpendingLimitSnapshot.
func (f *PurchaseFlow) Snapshot() SpendingLimitSnapshot {
	return SpendingLimitSnapshot{
		HasLimit:  f.HasLimit,
		Scope:     f.LimitScope,
		Limit:     f.LimitAmount,
		Spent:     f.SpentAmount,
		Available: f.AvailableLimit,
		MaxLiters: f.MaxLiters,
		Blocked:   f.LimitBlocked,
	}
}

// ResetDraft clears everything the driver entered after garage selection,
// including the submission outcome: a reset flow must pass the
// already-submitted guard again. Used on cancellation back to
// garage_selection and on attendant decline.
func (f *PurchaseFlow) ResetDraft() {
	f.GarageID = nil
	f.DistanceKm = nil
	f.LocationMismatch = false
	f.VerifiedVIN = ""
	f.HasLimit = false
	f.LimitScope = ""
	f.LimitAmount = 0
	f.SpentAmount = 0
	f.AvailableLimit = 0
	f.MaxLiters = 0
	f.LimitBlocked = false
	f.Liters = nil
	f.PricePerLiter = nil
	f.TotalAmount = nil
	f.Odometer = nil
	f.LubricantAdded = false
	f.LubricantType = ""
	f.LubricantBrand = ""
	f.LubricantQuantity = nil
	f.LubricantUnitPrice = nil
	f.LubricantSubtotal = nil
	f.TransactionID = ""
	f.CommissionAmount = nil
	f.NetAmount = nil
	f.Warning = ""
	f.WarningType = ""
	f.FuelEfficiency = nil
	f.AccountNumber = ""
}
