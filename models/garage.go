package models

import (
	"time"
)

type Garage struct {
	ID      string `json:"id" gorm:"primaryKey;size:191"`
	Name    string `json:"name" gorm:"not null;size:100"`
	Address string `json:"address" gorm:"size:255"`

	// Coordinates are optional; garages without them skip the geofence check.
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`

	CommissionRate float64      `json:"commission_rate" gorm:"not null;default:0"` // percent
	FuelPrices     FuelPriceMap `json:"fuel_prices" gorm:"type:json"`              // fuel type -> price/liter
	Active         bool         `json:"active" gorm:"default:true"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// GarageCreditAccount binds a garage-held credit line to an organization.
// When active, purchases at the garage bill this account instead of EFT.
type GarageCreditAccount struct {
	ID             string    `json:"id" gorm:"primaryKey;size:191"`
	GarageID       string    `json:"garage_id" gorm:"not null;size:191;index:idx_credit_garage_org"`
	OrganizationID string    `json:"organization_id" gorm:"not null;size:191;index:idx_credit_garage_org"`
	AccountNumber  string    `json:"account_number" gorm:"not null;size:50"`
	MonthlyLimit   float64   `json:"monthly_limit" gorm:"not null"`
	Active         bool      `json:"active" gorm:"default:true"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Garage Garage `json:"-" gorm:"foreignKey:GarageID"`
}

// GarageListItem is the directory entry returned to the device. AccountNumber
// is populated only for garage-credit organizations.
type GarageListItem struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	Address        string       `json:"address"`
	Latitude       *float64     `json:"latitude"`
	Longitude      *float64     `json:"longitude"`
	CommissionRate float64      `json:"commission_rate"`
	FuelPrices     FuelPriceMap `json:"fuel_prices"`
	AccountNumber  string       `json:"account_number,omitempty"`
}
