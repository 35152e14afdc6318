package models

import (
	"time"
)

const ExceptionTypeLocationMismatch = "location_mismatch"

// VehicleException is a fire-and-forget record written when a geofence
// mismatch co-occurred with a completed purchase. Owned by reporting;
// never updated by this API after creation.
type VehicleException struct {
	ID             string    `json:"id" gorm:"primaryKey;size:191"`
	VehicleID      string    `json:"vehicle_id" gorm:"not null;size:191;index"`
	DriverID       string    `json:"driver_id" gorm:"not null;size:191;index"`
	OrganizationID string    `json:"organization_id" gorm:"not null;size:191;index"`
	Type           string    `json:"type" gorm:"not null;size:50"`
	Description    string    `json:"description" gorm:"size:500"`
	ExpectedValue  string    `json:"expected_value" gorm:"size:255"`
	ActualValue    string    `json:"actual_value" gorm:"size:255"`
	Resolved       bool      `json:"resolved" gorm:"default:false"`
	CreatedAt      time.Time `json:"created_at"`
}
