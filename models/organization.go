package models

import (
	"time"
)

// PaymentRail determines how an organization's fuel purchases are settled:
// direct EFT settlement, or billing against a garage-held credit account.
type PaymentRail string

const (
	PaymentRailEFT          PaymentRail = "eft"
	PaymentRailGarageCredit PaymentRail = "garage_credit"
)

type Organization struct {
	ID          string      `json:"id" gorm:"primaryKey;size:191"`
	Name        string      `json:"name" gorm:"not null;size:100"`
	PaymentRail PaymentRail `json:"payment_rail" gorm:"type:varchar(16);not null;default:'eft'"`

	// Optional organization-wide spending limits in Rand. Nil means not configured.
	DailyLimit   *float64 `json:"daily_limit"`
	MonthlyLimit *float64 `json:"monthly_limit"`

	// LicenseScanBypass skips license disc verification for this organization's
	// drivers. Provisioned server-side only, never a client constant.
	LicenseScanBypass bool `json:"license_scan_bypass" gorm:"default:false"`

	// AdminEmail receives exception alerts. Falls back to the global admin address.
	AdminEmail string `json:"admin_email" gorm:"size:191"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
