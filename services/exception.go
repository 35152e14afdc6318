package services

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fuelflow-api/models"
)

// ExceptionService writes fire-and-forget vehicle exception records for the
// reporting system and alerts the fleet administrator by email.
type ExceptionService struct {
	db    *gorm.DB
	email *EmailService
}

func NewExceptionService(db *gorm.DB, email *EmailService) *ExceptionService {
	return &ExceptionService{db: db, email: email}
}

// newLocationMismatch builds the exception record for a purchase that
// completed away from the chosen garage.
func newLocationMismatch(flow *models.PurchaseFlow, garage *models.Garage) *models.VehicleException {
	expected := ""
	if garage.Latitude != nil && garage.Longitude != nil {
		expected = fmt.Sprintf("%.6f,%.6f", *garage.Latitude, *garage.Longitude)
	}
	actual := ""
	if flow.Latitude != nil && flow.Longitude != nil {
		actual = fmt.Sprintf("%.6f,%.6f", *flow.Latitude, *flow.Longitude)
	}

	return &models.VehicleException{
		ID:             uuid.New().String(),
		VehicleID:      flow.VehicleID,
		DriverID:       flow.DriverID,
		OrganizationID: flow.OrganizationID,
		Type:           models.ExceptionTypeLocationMismatch,
		Description: fmt.Sprintf("Fuel purchase completed %.2f km from %s",
			models.Float64OrZero(flow.DistanceKm), garage.Name),
		ExpectedValue: expected,
		ActualValue:   actual,
		Resolved:      false,
	}
}

// RecordLocationMismatch persists the geofence exception for a completed
// purchase. Failures are logged, never surfaced to the driver.
func (s *ExceptionService) RecordLocationMismatch(flow *models.PurchaseFlow, garage *models.Garage, adminEmail string) {
	exception := newLocationMismatch(flow, garage)

	go func() {
		if err := s.db.Create(exception).Error; err != nil {
			fmt.Printf("Failed to record vehicle exception for flow %s: %v\n", flow.ID, err)
			return
		}
		if err := s.email.SendExceptionAlert(adminEmail, exception, flow.Vehicle.Registration); err != nil {
			// Log error but don't fail the purchase
			fmt.Printf("Failed to send exception alert for flow %s: %v\n", flow.ID, err)
		}
	}()
}
