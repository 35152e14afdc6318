package models

import (
	"time"
)

const VehicleStatusActive = "active"

type Vehicle struct {
	ID             string  `json:"id" gorm:"primaryKey;size:191"`
	OrganizationID string  `json:"organization_id" gorm:"not null;size:191;index"`
	Registration   string  `json:"registration" gorm:"not null;size:20;uniqueIndex"`
	VIN            string  `json:"vin" gorm:"size:17"`
	Make           string  `json:"make" gorm:"size:50"`
	Model          string  `json:"model" gorm:"size:50"`
	FuelType       string  `json:"fuel_type" gorm:"not null;size:20"`
	TankCapacity   float64 `json:"tank_capacity" gorm:"not null"` // liters

	// LicenseExpiry is the expiry date of the vehicle license disc.
	LicenseExpiry time.Time `json:"license_expiry"`

	// LastOdometer is maintained by the fleet master data system when a
	// transaction settles. Read-only here; used for efficiency reporting.
	LastOdometer *float64 `json:"last_odometer"`

	Status    string    `json:"status" gorm:"not null;size:20;default:'active'"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Organization Organization `json:"organization" gorm:"foreignKey:OrganizationID"`
}
