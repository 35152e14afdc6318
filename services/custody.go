package services

import (
	"errors"

	"gorm.io/gorm"

	"fuelflow-api/models"
)

// ErrNoVehicleDrawn is returned when the driver has no open custody, or the
// custody resolves to a vehicle that is no longer active.
var ErrNoVehicleDrawn = errors.New("no vehicle currently drawn")

// CustodyService resolves which vehicle a driver currently holds.
type CustodyService struct {
	db *gorm.DB
}

func NewCustodyService(db *gorm.DB) *CustodyService {
	return &CustodyService{db: db}
}

// ResolveDrawnVehicle finds the driver's most recent draw without a matching
// return. Read-only; a purchase may target only this vehicle.
func (s *CustodyService) ResolveDrawnVehicle(driverID string) (*models.VehicleCustody, error) {
	var custody models.VehicleCustody
	err := s.db.Preload("Vehicle").Preload("Vehicle.Organization").
		Where("driver_id = ? AND returned_at IS NULL", driverID).
		Order("drawn_at DESC").
		First(&custody).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoVehicleDrawn
		}
		return nil, err
	}

	if custody.Vehicle.Status != models.VehicleStatusActive {
		return nil, ErrNoVehicleDrawn
	}

	return &custody, nil
}
