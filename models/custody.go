package models

import (
	"time"
)

// VehicleCustody records a driver drawing a vehicle from the fleet. An open
// custody is one without a returned_at; a driver holds at most one at a time.
type VehicleCustody struct {
	ID        string `json:"id" gorm:"primaryKey;size:191"`
	DriverID  string `json:"driver_id" gorm:"not null;size:191;index"`
	VehicleID string `json:"vehicle_id" gorm:"not null;size:191;index"`

	DrawnAt    time.Time  `json:"drawn_at" gorm:"not null"`
	ReturnedAt *time.Time `json:"returned_at"`

	DrawOdometer   *float64 `json:"draw_odometer"`
	ReturnOdometer *float64 `json:"return_odometer"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Driver  Driver  `json:"-" gorm:"foreignKey:DriverID"`
	Vehicle Vehicle `json:"vehicle" gorm:"foreignKey:VehicleID"`
}
