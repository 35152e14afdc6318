package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fuelflow-api/models"
	"fuelflow-api/services"
	"fuelflow-api/utils"
)

type PurchaseController struct {
	flows *services.PurchaseFlowService
}

func NewPurchaseController(flows *services.PurchaseFlowService) *PurchaseController {
	return &PurchaseController{flows: flows}
}

func sendFlowError(c *gin.Context, err *services.FlowError) {
	utils.SendErrorCode(c, err.Status, err.Code, err.Message, "")
}

// Start opens a purchase flow against the driver's drawn vehicle.
func (pc *PurchaseController) Start(c *gin.Context) {
	driverID := c.GetString("user_id")
	orgID := c.GetString("org_id")

	flow, err := pc.flows.Start(driverID, orgID)
	if err != nil {
		sendFlowError(c, err)
		return
	}
	c.JSON(http.StatusCreated, flow)
}

func (pc *PurchaseController) GetCurrent(c *gin.Context) {
	flow, err := pc.flows.Current(c.GetString("user_id"))
	if err != nil {
		sendFlowError(c, err)
		return
	}
	c.JSON(http.StatusOK, flow)
}

// AttachLocation accepts the device's (possibly late) location sample.
func (pc *PurchaseController) AttachLocation(c *gin.Context) {
	var sample models.LocationSample
	if err := c.ShouldBindJSON(&sample); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	flow, ferr := pc.flows.AttachLocation(c.GetString("user_id"), sample)
	if ferr != nil {
		sendFlowError(c, ferr)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"suspicious": flow.GPSSuspicious,
		"provider":   flow.GPSProvider,
	})
}

type SelectGarageRequest struct {
	GarageID string `json:"garage_id" binding:"required"`
}

func (pc *PurchaseController) SelectGarage(c *gin.Context) {
	var req SelectGarageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	flow, geofence, ferr := pc.flows.SelectGarage(c.GetString("user_id"), req.GarageID)
	if ferr != nil {
		sendFlowError(c, ferr)
		return
	}

	response := gin.H{
		"state":    flow.State,
		"geofence": geofence,
	}
	if geofence.Mismatch {
		response["warning"] = "You appear to be away from the chosen garage. You may still continue."
	}
	c.JSON(http.StatusOK, response)
}

type ConfirmLocationRequest struct {
	Proceed *bool `json:"proceed" binding:"required"`
}

func (pc *PurchaseController) ConfirmLocation(c *gin.Context) {
	var req ConfirmLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	flow, ferr := pc.flows.ConfirmLocation(c.GetString("user_id"), *req.Proceed)
	if ferr != nil {
		sendFlowError(c, ferr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": flow.State})
}

type ScanRequest struct {
	Payload string `json:"payload" binding:"required"`
}

func (pc *PurchaseController) Scan(c *gin.Context) {
	var req ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	flow, ferr := pc.flows.Scan(c.GetString("user_id"), req.Payload)
	if ferr != nil {
		sendFlowError(c, ferr)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state": flow.State,
		"vin":   flow.VerifiedVIN,
	})
}

func (pc *PurchaseController) SpendingCheck(c *gin.Context) {
	flow, ferr := pc.flows.RunSpendingCheck(c.GetString("user_id"))
	if ferr != nil {
		sendFlowError(c, ferr)
		return
	}

	snapshot := flow.Snapshot()
	if snapshot.Blocked {
		c.JSON(http.StatusConflict, gin.H{
			"error":    "Spending limit reached",
			"code":     services.CodeLimitBlocked,
			"state":    flow.State,
			"snapshot": snapshot,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":    flow.State,
		"snapshot": snapshot,
	})
}

func (pc *PurchaseController) Acknowledge(c *gin.Context) {
	flow, ferr := pc.flows.Acknowledge(c.GetString("user_id"))
	if ferr != nil {
		sendFlowError(c, ferr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": flow.State})
}

type LubricantRequest struct {
	Type      string  `json:"type" binding:"required"`
	Brand     string  `json:"brand" binding:"required"`
	Quantity  float64 `json:"quantity" binding:"required"`
	UnitPrice float64 `json:"unit_price" binding:"required"`
}

type FuelDetailsRequest struct {
	Liters    float64           `json:"liters" binding:"required"`
	Odometer  float64           `json:"odometer" binding:"required"`
	Lubricant *LubricantRequest `json:"lubricant"`
}

func (pc *PurchaseController) SetDetails(c *gin.Context) {
	var req FuelDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	input := services.FuelDetailsInput{
		Liters:   req.Liters,
		Odometer: req.Odometer,
	}
	if req.Lubricant != nil {
		input.Lubricant = &services.LubricantInput{
			Type:      req.Lubricant.Type,
			Brand:     req.Lubricant.Brand,
			Quantity:  req.Lubricant.Quantity,
			UnitPrice: req.Lubricant.UnitPrice,
		}
	}

	flow, ferr := pc.flows.SetDetails(c.GetString("user_id"), input)
	if ferr != nil {
		sendFlowError(c, ferr)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":              flow.State,
		"total_amount":       flow.TotalAmount,
		"price_per_liter":    flow.PricePerLiter,
		"lubricant_subtotal": flow.LubricantSubtotal,
	})
}

func (pc *PurchaseController) Submit(c *gin.Context) {
	flow, ferr := pc.flows.Submit(c.Request.Context(), c.GetString("user_id"))
	if ferr != nil {
		sendFlowError(c, ferr)
		return
	}

	response := gin.H{
		"state":          flow.State,
		"transaction_id": flow.TransactionID,
	}
	if flow.Warning != "" {
		response["warning"] = flow.Warning
		response["warning_type"] = flow.WarningType
	}
	if flow.State == models.StateCompleted {
		response["fuel_efficiency"] = flow.FuelEfficiency
	}
	c.JSON(http.StatusOK, response)
}

type PINRequest struct {
	PIN string `json:"pin" binding:"required"`
}

func (pc *PurchaseController) VerifyPIN(c *gin.Context) {
	var req PINRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	flow, result, ferr := pc.flows.VerifyPIN(c.Request.Context(), c.GetString("user_id"), req.PIN)
	if ferr != nil {
		sendFlowError(c, ferr)
		return
	}

	if !result.Verified {
		// Re-prompt with the credential service's reason
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":          "PIN verification failed",
			"verified":       false,
			"requires_setup": result.RequiresSetup,
			"locked":         result.Locked,
			"locked_until":   result.LockedUntil,
			"message":        result.Message,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"verified": true,
		"state":    flow.State,
	})
}

type HandoffRequest struct {
	ProximitySupported bool `json:"proximity_supported"`
}

func (pc *PurchaseController) Handoff(c *gin.Context) {
	var req HandoffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	handoff, ferr := pc.flows.Handoff(c.GetString("user_id"), req.ProximitySupported)
	if ferr != nil {
		sendFlowError(c, ferr)
		return
	}
	c.JSON(http.StatusOK, handoff)
}

type AttendantRequest struct {
	Authorized *bool `json:"authorized" binding:"required"`
}

func (pc *PurchaseController) AttendantDecision(c *gin.Context) {
	var req AttendantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, err.Error())
		return
	}

	flow, ferr := pc.flows.AttendantDecision(c.GetString("user_id"), *req.Authorized)
	if ferr != nil {
		sendFlowError(c, ferr)
		return
	}

	response := gin.H{"state": flow.State}
	if flow.State == models.StateCompleted {
		response["fuel_efficiency"] = flow.FuelEfficiency
	}
	c.JSON(http.StatusOK, response)
}

// Cancel returns to garage selection, discarding the draft.
func (pc *PurchaseController) Cancel(c *gin.Context) {
	flow, ferr := pc.flows.Cancel(c.GetString("user_id"))
	if ferr != nil {
		sendFlowError(c, ferr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": flow.State})
}

// Abandon exits the flow entirely (back to the main menu).
func (pc *PurchaseController) Abandon(c *gin.Context) {
	flow, ferr := pc.flows.Abandon(c.GetString("user_id"))
	if ferr != nil {
		sendFlowError(c, ferr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": flow.State})
}
