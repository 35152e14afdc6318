package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"fuelflow-api/models"
	"fuelflow-api/services"
	"fuelflow-api/utils"
)

type VehicleController struct {
	db      *gorm.DB
	custody *services.CustodyService
}

func NewVehicleController(db *gorm.DB, custody *services.CustodyService) *VehicleController {
	return &VehicleController{db: db, custody: custody}
}

// GetDrawnVehicle resolves the vehicle currently in the driver's custody.
func (vc *VehicleController) GetDrawnVehicle(c *gin.Context) {
	driverID := c.GetString("user_id")

	custody, err := vc.custody.ResolveDrawnVehicle(driverID)
	if err != nil {
		if errors.Is(err, services.ErrNoVehicleDrawn) {
			utils.SendErrorCode(c, http.StatusNotFound, services.CodeNoVehicleDrawn,
				"No vehicle drawn", "Draw a vehicle before starting a purchase")
			return
		}
		utils.SendError(c, http.StatusInternalServerError, "Failed to resolve drawn vehicle")
		return
	}

	c.JSON(http.StatusOK, custody.Vehicle)
}

// ListVehicles shows the organization's active fleet for the draw screen.
func (vc *VehicleController) ListVehicles(c *gin.Context) {
	orgID := c.GetString("org_id")

	var vehicles []models.Vehicle
	if err := vc.db.Where("organization_id = ? AND status = ?", orgID, models.VehicleStatusActive).
		Order("registration").Find(&vehicles).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to fetch vehicles")
		return
	}

	c.JSON(http.StatusOK, gin.H{"vehicles": vehicles})
}
