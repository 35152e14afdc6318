package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"fuelflow-api/models"
	"fuelflow-api/utils"
)

type CustodyController struct {
	db *gorm.DB
}

func NewCustodyController(db *gorm.DB) *CustodyController {
	return &CustodyController{db: db}
}

type DrawRequest struct {
	VehicleID string   `json:"vehicle_id" binding:"required"`
	Odometer  *float64 `json:"odometer"`
}

type ReturnRequest struct {
	Odometer *float64 `json:"odometer"`
}

func (cc *CustodyController) Draw(c *gin.Context) {
	driverID := c.GetString("user_id")
	orgID := c.GetString("org_id")

	var req DrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	// Check vehicle belongs to the driver's organization and is active
	var vehicle models.Vehicle
	if err := cc.db.First(&vehicle, "id = ? AND organization_id = ?", req.VehicleID, orgID).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "Vehicle not found or access denied")
		return
	}
	if vehicle.Status != models.VehicleStatusActive {
		utils.SendError(c, http.StatusConflict, "Vehicle is not in active status")
		return
	}

	// Check if the driver already holds a vehicle
	var open models.VehicleCustody
	if err := cc.db.Where("driver_id = ? AND returned_at IS NULL", driverID).First(&open).Error; err == nil {
		utils.SendError(c, http.StatusConflict, "You already have a vehicle drawn")
		return
	}

	// Check the vehicle is not held by someone else
	if err := cc.db.Where("vehicle_id = ? AND returned_at IS NULL", req.VehicleID).First(&open).Error; err == nil {
		utils.SendError(c, http.StatusConflict, "Vehicle is already drawn by another driver")
		return
	}

	custody := models.VehicleCustody{
		ID:           uuid.New().String(),
		DriverID:     driverID,
		VehicleID:    req.VehicleID,
		DrawnAt:      time.Now(),
		DrawOdometer: req.Odometer,
	}

	if err := cc.db.Create(&custody).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to draw vehicle")
		return
	}

	custody.Vehicle = vehicle
	utils.SendCreated(c, "Vehicle drawn", custody)
}

func (cc *CustodyController) Return(c *gin.Context) {
	driverID := c.GetString("user_id")

	var req ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		utils.SendValidationError(c, err.Error())
		return
	}

	var custody models.VehicleCustody
	if err := cc.db.Preload("Vehicle").
		Where("driver_id = ? AND returned_at IS NULL", driverID).
		Order("drawn_at DESC").
		First(&custody).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "No vehicle currently drawn")
		return
	}

	// A purchase mid-flight keeps the custody open
	var activeFlow models.PurchaseFlow
	if err := cc.db.Where("driver_id = ? AND state NOT IN ?", driverID,
		[]models.FlowState{models.StateCompleted, models.StateCancelled}).
		First(&activeFlow).Error; err == nil {
		utils.SendError(c, http.StatusConflict, "Finish or cancel your purchase before returning the vehicle")
		return
	}

	now := time.Now()
	custody.ReturnedAt = &now
	custody.ReturnOdometer = req.Odometer

	if err := cc.db.Save(&custody).Error; err != nil {
		utils.SendError(c, http.StatusInternalServerError, "Failed to return vehicle")
		return
	}

	c.JSON(http.StatusOK, custody)
}

func (cc *CustodyController) GetCurrent(c *gin.Context) {
	driverID := c.GetString("user_id")

	var custody models.VehicleCustody
	if err := cc.db.Preload("Vehicle").
		Where("driver_id = ? AND returned_at IS NULL", driverID).
		Order("drawn_at DESC").
		First(&custody).Error; err != nil {
		utils.SendError(c, http.StatusNotFound, "No vehicle currently drawn")
		return
	}

	c.JSON(http.StatusOK, custody)
}
