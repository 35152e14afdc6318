package models

import (
	"time"
)

// LedgerTransaction mirrors the transaction record owned by the external
// ledger service. This API only reads it (spend aggregation for the limit
// engine); rows are created by the ledger when a submission is accepted and
// are never mutated here.
type LedgerTransaction struct {
	ID             string `json:"id" gorm:"primaryKey;size:191"`
	OrganizationID string `json:"organization_id" gorm:"not null;size:191;index"`
	VehicleID      string `json:"vehicle_id" gorm:"not null;size:191;index"`
	GarageID       string `json:"garage_id" gorm:"not null;size:191;index"`
	DriverID       string `json:"driver_id" gorm:"size:191;index"`

	Liters           float64 `json:"liters" gorm:"not null"`
	PricePerLiter    float64 `json:"price_per_liter" gorm:"not null"`
	TotalAmount      float64 `json:"total_amount" gorm:"not null"`
	CommissionRate   float64 `json:"commission_rate"`
	CommissionAmount float64 `json:"commission_amount"`
	NetAmount        float64 `json:"net_amount"`

	PreviousOdometer *float64 `json:"previous_odometer"`
	Odometer         *float64 `json:"odometer"`
	FuelType         string   `json:"fuel_type" gorm:"size:20"`
	Location         string   `json:"location" gorm:"size:255"`

	LubricantType      string   `json:"lubricant_type" gorm:"size:50"`
	LubricantBrand     string   `json:"lubricant_brand" gorm:"size:50"`
	LubricantQuantity  *float64 `json:"lubricant_quantity"`
	LubricantUnitPrice *float64 `json:"lubricant_unit_price"`
	LubricantSubtotal  *float64 `json:"lubricant_subtotal"`

	GPSSuspicious bool    `json:"gps_suspicious"`
	GPSAccuracy   float64 `json:"gps_accuracy"`
	GPSProvider   string  `json:"gps_provider" gorm:"size:10"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (LedgerTransaction) TableName() string {
	return "ledger_transactions"
}
