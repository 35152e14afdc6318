package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"fuelflow-api/models"
	"fuelflow-api/utils"
)

// Machine-readable codes the device branches on.
const (
	CodeNoVehicleDrawn       = "NO_VEHICLE_DRAWN"
	CodeFlowInProgress       = "FLOW_IN_PROGRESS"
	CodeNoFlow               = "NO_FLOW"
	CodeInvalidState         = "INVALID_STATE"
	CodeGarageNotAuthorized  = "GARAGE_NOT_AUTHORIZED"
	CodeLimitBlocked         = "LIMIT_BLOCKED"
	CodePriceUnavailable     = "PRICE_UNAVAILABLE"
	CodeTankCapacityExceeded = "TANK_CAPACITY_EXCEEDED"
	CodeCeilingExceeded      = "CEILING_EXCEEDED"
	CodeVerificationFailed   = "VERIFICATION_FAILED"
	CodeSessionExpired       = "SESSION_EXPIRED"
)

// TankCapacityBufferLiters tops up the capacity check: pump meters overrun a
// nominally full tank by a liter or two.
const TankCapacityBufferLiters = 2.0

// FlowError is a user-visible flow failure with an HTTP status and a
// machine-readable code.
type FlowError struct {
	Status  int
	Code    string
	Message string
}

func (e *FlowError) Error() string {
	return e.Message
}

func flowErr(status int, code, message string) *FlowError {
	return &FlowError{Status: status, Code: code, Message: message}
}

// AllowedTransitions is the directed graph of purchase flow states. A step
// may only advance along its configured edges; everything else is rejected.
var AllowedTransitions = map[models.FlowState][]models.FlowState{
	models.StateGarageSelection:      {models.StateLocationConfirmation, models.StateCancelled},
	models.StateLocationConfirmation: {models.StateLicenseScan, models.StateSpendingCheck, models.StateGarageSelection, models.StateCancelled},
	models.StateLicenseScan:          {models.StateSpendingCheck, models.StateLocationConfirmation, models.StateGarageSelection, models.StateCancelled},
	models.StateSpendingCheck:        {models.StateAuthorized, models.StateLimitBlocked, models.StateGarageSelection, models.StateCancelled},
	models.StateAuthorized:           {models.StateFuelDetails, models.StateGarageSelection, models.StateCancelled},
	models.StateFuelDetails:          {models.StateCompleted, models.StatePinEntry, models.StateGarageSelection, models.StateCancelled},
	models.StatePinEntry:             {models.StateScanToTill, models.StateGarageSelection, models.StateCancelled},
	models.StateScanToTill:           {models.StateCompleted, models.StateGarageSelection, models.StateCancelled},
	// Blocked attempts can only be abandoned back to the main menu
	models.StateLimitBlocked: {models.StateCancelled},
	models.StateCompleted:    {},
	models.StateCancelled:    {},
}

// CanTransition reports whether from -> to is an allowed state change.
func CanTransition(from, to models.FlowState) bool {
	for _, s := range AllowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// PurchaseFlowService orchestrates the fuel purchase authorization workflow.
type PurchaseFlowService struct {
	db         *gorm.DB
	custody    *CustodyService
	spending   *SpendingService
	ledger     *LedgerClient
	pin        *PINClient
	exceptions *ExceptionService

	handoffSecret string
	handoffTTL    time.Duration
}

func NewPurchaseFlowService(db *gorm.DB, custody *CustodyService, spending *SpendingService,
	ledger *LedgerClient, pin *PINClient, exceptions *ExceptionService,
	handoffSecret string, handoffTTL time.Duration) *PurchaseFlowService {
	return &PurchaseFlowService{
		db:            db,
		custody:       custody,
		spending:      spending,
		ledger:        ledger,
		pin:           pin,
		exceptions:    exceptions,
		handoffSecret: handoffSecret,
		handoffTTL:    handoffTTL,
	}
}

func (s *PurchaseFlowService) transition(flow *models.PurchaseFlow, to models.FlowState) *FlowError {
	if !CanTransition(flow.State, to) {
		return flowErr(http.StatusConflict, CodeInvalidState,
			fmt.Sprintf("Cannot move from %s to %s", flow.State, to))
	}
	flow.State = to
	return nil
}

// Start opens a new purchase flow for the driver's drawn vehicle. A driver
// runs at most one flow at a time.
func (s *PurchaseFlowService) Start(driverID, orgID string) (*models.PurchaseFlow, *FlowError) {
	var existing models.PurchaseFlow
	err := s.db.Where("driver_id = ? AND state NOT IN ?", driverID,
		[]models.FlowState{models.StateCompleted, models.StateCancelled}).
		First(&existing).Error
	if err == nil {
		return nil, flowErr(http.StatusConflict, CodeFlowInProgress, "You already have a purchase in progress")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, s.internal(err)
	}

	custody, err := s.custody.ResolveDrawnVehicle(driverID)
	if err != nil {
		if errors.Is(err, ErrNoVehicleDrawn) {
			return nil, flowErr(http.StatusConflict, CodeNoVehicleDrawn, "No vehicle is currently drawn to you")
		}
		return nil, s.internal(err)
	}

	if custody.Vehicle.OrganizationID != orgID {
		return nil, flowErr(http.StatusConflict, CodeNoVehicleDrawn, "Drawn vehicle does not belong to your organization")
	}

	flow := &models.PurchaseFlow{
		ID:             uuid.New().String(),
		DriverID:       driverID,
		OrganizationID: orgID,
		VehicleID:      custody.VehicleID,
		State:          models.StateGarageSelection,
	}
	if err := s.db.Create(flow).Error; err != nil {
		return nil, s.internal(err)
	}

	flow.Vehicle = custody.Vehicle
	return flow, nil
}

// Current loads the driver's open flow with its vehicle and garage.
func (s *PurchaseFlowService) Current(driverID string) (*models.PurchaseFlow, *FlowError) {
	var flow models.PurchaseFlow
	err := s.db.Preload("Vehicle").Preload("Garage").
		Where("driver_id = ? AND state NOT IN ?", driverID,
			[]models.FlowState{models.StateCompleted, models.StateCancelled}).
		Order("created_at DESC").
		First(&flow).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, flowErr(http.StatusNotFound, CodeNoFlow, "No purchase in progress")
		}
		return nil, s.internal(err)
	}
	return &flow, nil
}

// AttachLocation stores and classifies a location sample. Acquisition is
// asynchronous on the device and may land after the driver has moved past
// garage selection; every consumer tolerates its absence.
func (s *PurchaseFlowService) AttachLocation(driverID string, sample models.LocationSample) (*models.PurchaseFlow, *FlowError) {
	flow, ferr := s.Current(driverID)
	if ferr != nil {
		return nil, ferr
	}

	if flow.TransactionID != "" {
		return nil, flowErr(http.StatusConflict, CodeInvalidState, "Purchase already submitted")
	}
	if !utils.IsValidLatitude(sample.Latitude) || !utils.IsValidLongitude(sample.Longitude) {
		return nil, flowErr(http.StatusBadRequest, "", "Invalid coordinates")
	}

	trust := ClassifySample(sample, time.Now())

	flow.Latitude = &sample.Latitude
	flow.Longitude = &sample.Longitude
	flow.Accuracy = &sample.Accuracy
	flow.Altitude = sample.Altitude
	flow.AltitudeAccuracy = sample.AltitudeAccuracy
	capturedAt := sample.CapturedAt
	flow.CapturedAt = &capturedAt
	flow.GPSSuspicious = trust.Suspicious
	flow.GPSProvider = trust.Provider

	// A late-arriving sample refreshes the advisory while the driver is
	// still looking at the confirmation screen
	if flow.State == models.StateLocationConfirmation && flow.Garage != nil {
		result := CheckGeofence(&sample, flow.Garage)
		flow.DistanceKm = result.DistanceKm
		flow.LocationMismatch = result.Mismatch
	}

	if err := s.db.Save(flow).Error; err != nil {
		return nil, s.internal(err)
	}
	return flow, nil
}

// SelectGarage binds the chosen garage, runs the geofence check against it
// and advances to location confirmation.
func (s *PurchaseFlowService) SelectGarage(driverID, garageID string) (*models.PurchaseFlow, GeofenceResult, *FlowError) {
	flow, ferr := s.Current(driverID)
	if ferr != nil {
		return nil, GeofenceResult{}, ferr
	}
	if flow.State != models.StateGarageSelection {
		return nil, GeofenceResult{}, flowErr(http.StatusConflict, CodeInvalidState, "Garage can only be chosen at the start of a purchase")
	}

	var garage models.Garage
	if err := s.db.Where("id = ? AND active = ?", garageID, true).First(&garage).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, GeofenceResult{}, flowErr(http.StatusNotFound, "", "Garage not found")
		}
		return nil, GeofenceResult{}, s.internal(err)
	}

	org, err := s.organization(flow.OrganizationID)
	if err != nil {
		return nil, GeofenceResult{}, s.internal(err)
	}

	// Garage-credit organizations may only buy where their credit account is held
	if org.PaymentRail == models.PaymentRailGarageCredit {
		account, err := s.spending.activeCreditAccount(org.ID, garage.ID)
		if err != nil {
			return nil, GeofenceResult{}, s.internal(err)
		}
		if account == nil {
			return nil, GeofenceResult{}, flowErr(http.StatusForbidden, CodeGarageNotAuthorized,
				"This garage is not authorized for your organization")
		}
		flow.AccountNumber = account.AccountNumber
	}

	result := CheckGeofence(flow.Sample(), &garage)
	flow.GarageID = &garage.ID
	flow.DistanceKm = result.DistanceKm
	flow.LocationMismatch = result.Mismatch

	if ferr := s.transition(flow, models.StateLocationConfirmation); ferr != nil {
		return nil, GeofenceResult{}, ferr
	}
	if err := s.db.Save(flow).Error; err != nil {
		return nil, GeofenceResult{}, s.internal(err)
	}
	flow.Garage = &garage
	return flow, result, nil
}

// ConfirmLocation records the driver's decision on the geofence advisory.
// A mismatch never blocks; declining returns to garage selection.
func (s *PurchaseFlowService) ConfirmLocation(driverID string, proceed bool) (*models.PurchaseFlow, *FlowError) {
	flow, ferr := s.Current(driverID)
	if ferr != nil {
		return nil, ferr
	}
	if flow.State != models.StateLocationConfirmation {
		return nil, flowErr(http.StatusConflict, CodeInvalidState, "Not awaiting location confirmation")
	}

	if !proceed {
		return s.backToGarageSelection(flow)
	}

	org, err := s.organization(flow.OrganizationID)
	if err != nil {
		return nil, s.internal(err)
	}

	next := models.StateLicenseScan
	if org.LicenseScanBypass {
		next = models.StateSpendingCheck
	}
	if ferr := s.transition(flow, next); ferr != nil {
		return nil, ferr
	}
	if err := s.db.Save(flow).Error; err != nil {
		return nil, s.internal(err)
	}
	return flow, nil
}

// Scan verifies the scanned license disc against the drawn vehicle. Failure
// clears the partial scan and returns the driver to the confirmation screen.
func (s *PurchaseFlowService) Scan(driverID, payload string) (*models.PurchaseFlow, *FlowError) {
	flow, ferr := s.Current(driverID)
	if ferr != nil {
		return nil, ferr
	}
	if flow.State != models.StateLicenseScan {
		return nil, flowErr(http.StatusConflict, CodeInvalidState, "Not awaiting a license scan")
	}

	vin, err := VerifyScan(payload, &flow.Vehicle, time.Now())
	if err != nil {
		flow.VerifiedVIN = ""
		flow.State = models.StateLocationConfirmation
		if saveErr := s.db.Save(flow).Error; saveErr != nil {
			return nil, s.internal(saveErr)
		}
		var verr *VerificationError
		if errors.As(err, &verr) {
			return nil, flowErr(http.StatusUnprocessableEntity, CodeVerificationFailed, verr.Message)
		}
		return nil, s.internal(err)
	}

	flow.VerifiedVIN = vin
	if ferr := s.transition(flow, models.StateSpendingCheck); ferr != nil {
		return nil, ferr
	}
	if err := s.db.Save(flow).Error; err != nil {
		return nil, s.internal(err)
	}
	return flow, nil
}

// RunSpendingCheck evaluates the operative budget. A blocked result is
// terminal for this attempt.
func (s *PurchaseFlowService) RunSpendingCheck(driverID string) (*models.PurchaseFlow, *FlowError) {
	flow, ferr := s.Current(driverID)
	if ferr != nil {
		return nil, ferr
	}
	if flow.State != models.StateSpendingCheck {
		return nil, flowErr(http.StatusConflict, CodeInvalidState, "Not awaiting a spending check")
	}

	snap, ierr := s.evaluateLimit(flow)
	if ierr != nil {
		return nil, s.internal(ierr)
	}
	applySnapshot(flow, snap)

	next := models.StateAuthorized
	if snap.Blocked {
		next = models.StateLimitBlocked
	}
	if ferr := s.transition(flow, next); ferr != nil {
		return nil, ferr
	}
	if err := s.db.Save(flow).Error; err != nil {
		return nil, s.internal(err)
	}
	return flow, nil
}

// Acknowledge is the explicit driver action moving off the authorization
// display to fuel entry.
func (s *PurchaseFlowService) Acknowledge(driverID string) (*models.PurchaseFlow, *FlowError) {
	flow, ferr := s.Current(driverID)
	if ferr != nil {
		return nil, ferr
	}
	if flow.State != models.StateAuthorized {
		return nil, flowErr(http.StatusConflict, CodeInvalidState, "Purchase is not in the authorized step")
	}
	if ferr := s.transition(flow, models.StateFuelDetails); ferr != nil {
		return nil, ferr
	}
	if err := s.db.Save(flow).Error; err != nil {
		return nil, s.internal(err)
	}
	return flow, nil
}

// FuelDetailsInput is the driver's purchase entry.
type FuelDetailsInput struct {
	Liters    float64
	Odometer  float64
	Lubricant *LubricantInput
}

type LubricantInput struct {
	Type      string
	Brand     string
	Quantity  float64
	UnitPrice float64
}

// SetDetails validates and stores the purchase draft. The flow stays on
// fuel_details; submission is a separate explicit action.
func (s *PurchaseFlowService) SetDetails(driverID string, in FuelDetailsInput) (*models.PurchaseFlow, *FlowError) {
	flow, ferr := s.Current(driverID)
	if ferr != nil {
		return nil, ferr
	}
	if flow.State != models.StateFuelDetails {
		return nil, flowErr(http.StatusConflict, CodeInvalidState, "Purchase is not in the fuel details step")
	}

	price, ferr := s.fuelPrice(flow)
	if ferr != nil {
		return nil, ferr
	}

	total, lubSubtotal, ferr := ValidateDraft(in, price, flow.Vehicle.TankCapacity, flow.Snapshot())
	if ferr != nil {
		return nil, ferr
	}

	flow.Liters = &in.Liters
	flow.PricePerLiter = &price
	flow.TotalAmount = &total
	flow.Odometer = &in.Odometer
	if in.Lubricant != nil {
		flow.LubricantAdded = true
		flow.LubricantType = in.Lubricant.Type
		flow.LubricantBrand = in.Lubricant.Brand
		flow.LubricantQuantity = &in.Lubricant.Quantity
		flow.LubricantUnitPrice = &in.Lubricant.UnitPrice
		flow.LubricantSubtotal = lubSubtotal
	} else {
		flow.LubricantAdded = false
		flow.LubricantType = ""
		flow.LubricantBrand = ""
		flow.LubricantQuantity = nil
		flow.LubricantUnitPrice = nil
		flow.LubricantSubtotal = nil
	}

	if err := s.db.Save(flow).Error; err != nil {
		return nil, s.internal(err)
	}
	return flow, nil
}

// ValidateDraft enforces the purchase entry rules: completeness, lubricant
// line consistency, the spending ceiling (when one applies and has not
// already blocked the flow), and the tank capacity bound, which holds
// independently of any spending limit.
func ValidateDraft(in FuelDetailsInput, price, tankCapacity float64, snap models.SpendingLimitSnapshot) (float64, *float64, *FlowError) {
	if price <= 0 {
		return 0, nil, flowErr(http.StatusUnprocessableEntity, CodePriceUnavailable,
			"No fuel price is configured for this vehicle at the chosen garage")
	}
	if in.Liters <= 0 {
		return 0, nil, flowErr(http.StatusBadRequest, "", "Liters is required")
	}
	if !utils.IsValidOdometer(in.Odometer) {
		return 0, nil, flowErr(http.StatusBadRequest, "", "A valid odometer reading is required")
	}

	total := in.Liters * price

	var lubSubtotal *float64
	if in.Lubricant != nil {
		l := in.Lubricant
		if l.Type == "" || l.Brand == "" || l.Quantity <= 0 || l.UnitPrice <= 0 {
			return 0, nil, flowErr(http.StatusBadRequest, "", "Lubricant details are incomplete")
		}
		sub := l.Quantity * l.UnitPrice
		lubSubtotal = &sub
		total += sub
	}

	if tankCapacity > 0 && in.Liters > tankCapacity+TankCapacityBufferLiters {
		return 0, nil, flowErr(http.StatusUnprocessableEntity, CodeTankCapacityExceeded,
			fmt.Sprintf("%.1f L exceeds the vehicle tank capacity of %.0f L", in.Liters, tankCapacity))
	}

	if snap.HasLimit && !snap.Blocked && total > snap.Available {
		return 0, nil, flowErr(http.StatusUnprocessableEntity, CodeCeilingExceeded,
			fmt.Sprintf("R%.2f exceeds the available spending limit of R%.2f", total, snap.Available))
	}

	return total, lubSubtotal, nil
}

// Submit prices the draft into a transaction and sends it to the ledger.
// The spending ceiling is re-evaluated here so concurrent spend since the
// spending check cannot slip through.
func (s *PurchaseFlowService) Submit(ctx context.Context, driverID string) (*models.PurchaseFlow, *FlowError) {
	flow, ferr := s.Current(driverID)
	if ferr != nil {
		return nil, ferr
	}
	if flow.State != models.StateFuelDetails {
		return nil, flowErr(http.StatusConflict, CodeInvalidState, "Purchase is not ready for submission")
	}
	if flow.Liters == nil || flow.TotalAmount == nil || flow.Odometer == nil || flow.GarageID == nil {
		return nil, flowErr(http.StatusBadRequest, "", "Fuel details are incomplete")
	}

	garage, ierr := s.garage(*flow.GarageID)
	if ierr != nil {
		return nil, s.internal(ierr)
	}
	org, ierr := s.organization(flow.OrganizationID)
	if ierr != nil {
		return nil, s.internal(ierr)
	}

	snap, ierr := s.evaluateLimit(flow)
	if ierr != nil {
		return nil, s.internal(ierr)
	}
	applySnapshot(flow, snap)
	if snap.Blocked || (snap.HasLimit && *flow.TotalAmount > snap.Available) {
		if err := s.db.Save(flow).Error; err != nil {
			return nil, s.internal(err)
		}
		return nil, flowErr(http.StatusUnprocessableEntity, CodeCeilingExceeded,
			fmt.Sprintf("R%.2f exceeds the available spending limit of R%.2f", *flow.TotalAmount, snap.Available))
	}

	commission := *flow.TotalAmount * garage.CommissionRate / 100
	net := *flow.TotalAmount - commission
	flow.CommissionAmount = &commission
	flow.NetAmount = &net

	req := SubmitTransactionRequest{
		DriverID:         flow.DriverID,
		OrganizationID:   flow.OrganizationID,
		VehicleID:        flow.VehicleID,
		GarageID:         garage.ID,
		Liters:           *flow.Liters,
		PricePerLiter:    models.Float64OrZero(flow.PricePerLiter),
		TotalAmount:      *flow.TotalAmount,
		CommissionRate:   garage.CommissionRate,
		CommissionAmount: commission,
		NetAmount:        net,
		PreviousOdometer: flow.Vehicle.LastOdometer,
		Odometer:         *flow.Odometer,
		FuelType:         flow.Vehicle.FuelType,
		Location:         fmt.Sprintf("%s, %s", garage.Name, garage.Address),
		VIN:              flow.VerifiedVIN,
		GPSSuspicious:    flow.GPSSuspicious,
		GPSAccuracy:      models.Float64OrZero(flow.Accuracy),
		GPSProvider:      flow.GPSProvider,
	}
	if flow.LubricantAdded {
		req.LubricantType = flow.LubricantType
		req.LubricantBrand = flow.LubricantBrand
		req.LubricantQuantity = flow.LubricantQuantity
		req.LubricantUnitPrice = flow.LubricantUnitPrice
		req.LubricantSubtotal = flow.LubricantSubtotal
	}

	resp, err := s.ledger.Submit(ctx, req)
	if err != nil {
		if IsSessionExpired(err) {
			return nil, flowErr(http.StatusUnauthorized, CodeSessionExpired, "Session expired, please log in again")
		}
		// Raw message surfaced; the driver retries manually
		return nil, flowErr(http.StatusBadGateway, "", err.Error())
	}

	flow.TransactionID = resp.TransactionID
	flow.Warning = resp.Warning
	flow.WarningType = resp.WarningType

	if org.PaymentRail == models.PaymentRailGarageCredit {
		if ferr := s.transition(flow, models.StatePinEntry); ferr != nil {
			return nil, ferr
		}
	} else {
		s.completeFlow(flow, org, garage)
	}

	if err := s.db.Save(flow).Error; err != nil {
		return nil, s.internal(err)
	}
	return flow, nil
}

// VerifyPIN checks the driver's PIN with the credential service. Failures
// re-prompt; the lockout state is only relayed for display.
func (s *PurchaseFlowService) VerifyPIN(ctx context.Context, driverID, pin string) (*models.PurchaseFlow, *PINVerification, *FlowError) {
	flow, ferr := s.Current(driverID)
	if ferr != nil {
		return nil, nil, ferr
	}
	if flow.State != models.StatePinEntry {
		return nil, nil, flowErr(http.StatusConflict, CodeInvalidState, "Not awaiting PIN entry")
	}
	if !utils.IsValidPIN(pin) {
		return nil, nil, flowErr(http.StatusBadRequest, "", "PIN must be exactly 4 digits")
	}

	result, err := s.pin.Verify(ctx, driverID, pin)
	if err != nil {
		return nil, nil, flowErr(http.StatusBadGateway, "", err.Error())
	}
	if !result.Verified {
		return flow, result, nil
	}

	if ferr := s.transition(flow, models.StateScanToTill); ferr != nil {
		return nil, nil, ferr
	}
	if err := s.db.Save(flow).Error; err != nil {
		return nil, nil, s.internal(err)
	}
	return flow, result, nil
}

// Handoff prepares the till payload for the point-of-sale device. A failing
// proximity transmitter degrades to manual display; this is never an error.
func (s *PurchaseFlowService) Handoff(driverID string, proximitySupported bool) (*TillHandoff, *FlowError) {
	flow, ferr := s.Current(driverID)
	if ferr != nil {
		return nil, ferr
	}
	if flow.State != models.StateScanToTill {
		return nil, flowErr(http.StatusConflict, CodeInvalidState, "Not at the till handoff step")
	}

	payload := TillPayload{
		AccountNumber: flow.AccountNumber,
		Registration:  flow.Vehicle.Registration,
		Amount:        models.Float64OrZero(flow.TotalAmount),
		Liters:        models.Float64OrZero(flow.Liters),
	}

	transmitter := SelectTransmitter(proximitySupported, s.handoffSecret, s.handoffTTL)
	handoff, err := transmitter.Transmit(payload)
	if err != nil {
		log.Printf("Proximity transmission failed for flow %s, falling back to manual display: %v", flow.ID, err)
		handoff, err = (&ManualDisplayTransmitter{}).Transmit(payload)
		if err != nil {
			return nil, s.internal(err)
		}
	}
	return handoff, nil
}

// AttendantDecision completes or resets the flow on the attendant's word.
// A decline does not reverse the submitted ledger transaction; it is logged
// for manual reconciliation.
func (s *PurchaseFlowService) AttendantDecision(driverID string, authorized bool) (*models.PurchaseFlow, *FlowError) {
	flow, ferr := s.Current(driverID)
	if ferr != nil {
		return nil, ferr
	}
	if flow.State != models.StateScanToTill {
		return nil, flowErr(http.StatusConflict, CodeInvalidState, "Not at the till handoff step")
	}

	if !authorized {
		return s.backToGarageSelection(flow)
	}

	garage, ierr := s.garage(*flow.GarageID)
	if ierr != nil {
		return nil, s.internal(ierr)
	}
	org, ierr := s.organization(flow.OrganizationID)
	if ierr != nil {
		return nil, s.internal(ierr)
	}

	s.completeFlow(flow, org, garage)
	if err := s.db.Save(flow).Error; err != nil {
		return nil, s.internal(err)
	}
	return flow, nil
}

// Cancel abandons the current step and returns to garage selection. The
// draft is discarded; the drawn vehicle is untouched.
func (s *PurchaseFlowService) Cancel(driverID string) (*models.PurchaseFlow, *FlowError) {
	flow, ferr := s.Current(driverID)
	if ferr != nil {
		return nil, ferr
	}
	if !CanTransition(flow.State, models.StateGarageSelection) {
		return nil, flowErr(http.StatusConflict, CodeInvalidState, "Purchase can no longer be cancelled")
	}
	return s.backToGarageSelection(flow)
}

// Abandon leaves the flow entirely (back to the main menu). This is the only
// exit from a blocked spending check.
func (s *PurchaseFlowService) Abandon(driverID string) (*models.PurchaseFlow, *FlowError) {
	flow, ferr := s.Current(driverID)
	if ferr != nil {
		return nil, ferr
	}
	if ferr := s.transition(flow, models.StateCancelled); ferr != nil {
		return nil, ferr
	}
	if err := s.db.Save(flow).Error; err != nil {
		return nil, s.internal(err)
	}
	return flow, nil
}

func (s *PurchaseFlowService) backToGarageSelection(flow *models.PurchaseFlow) (*models.PurchaseFlow, *FlowError) {
	if ferr := s.transition(flow, models.StateGarageSelection); ferr != nil {
		return nil, ferr
	}
	// An abandoned paid attempt is not voided from here; the ledger owner
	// reconciles it manually
	if flow.TransactionID != "" {
		log.Printf("ATTENTION: flow %s reset after submission; ledger transaction %s remains submitted and needs manual reconciliation",
			flow.ID, flow.TransactionID)
	}
	flow.ResetDraft()
	flow.Garage = nil
	if err := s.db.Save(flow).Error; err != nil {
		return nil, s.internal(err)
	}
	return flow, nil
}

// completeFlow stamps efficiency, marks completion and raises the geofence
// exception when the purchase succeeded despite a location mismatch.
func (s *PurchaseFlowService) completeFlow(flow *models.PurchaseFlow, org *models.Organization, garage *models.Garage) {
	flow.FuelEfficiency = ComputeEfficiency(flow.Vehicle.LastOdometer, models.Float64OrZero(flow.Odometer), models.Float64OrZero(flow.Liters))
	flow.State = models.StateCompleted

	if flow.LocationMismatch {
		s.exceptions.RecordLocationMismatch(flow, garage, org.AdminEmail)
	}
}

// ComputeEfficiency returns km per liter, or nil when the previous odometer
// is unknown or the readings do not yield a positive distance.
func ComputeEfficiency(previous *float64, current, liters float64) *float64 {
	if previous == nil || current <= *previous || liters <= 0 {
		return nil
	}
	efficiency := (current - *previous) / liters
	return &efficiency
}

func (s *PurchaseFlowService) evaluateLimit(flow *models.PurchaseFlow) (models.SpendingLimitSnapshot, error) {
	if flow.GarageID == nil {
		return models.SpendingLimitSnapshot{}, fmt.Errorf("no garage selected")
	}
	garage, err := s.garage(*flow.GarageID)
	if err != nil {
		return models.SpendingLimitSnapshot{}, err
	}
	org, err := s.organization(flow.OrganizationID)
	if err != nil {
		return models.SpendingLimitSnapshot{}, err
	}
	price := garage.FuelPrices[flow.Vehicle.FuelType]
	return s.spending.Evaluate(org, garage, price)
}

func applySnapshot(flow *models.PurchaseFlow, snap models.SpendingLimitSnapshot) {
	flow.HasLimit = snap.HasLimit
	flow.LimitScope = snap.Scope
	flow.LimitAmount = snap.Limit
	flow.SpentAmount = snap.Spent
	flow.AvailableLimit = snap.Available
	flow.MaxLiters = snap.MaxLiters
	flow.LimitBlocked = snap.Blocked
}

func (s *PurchaseFlowService) organization(id string) (*models.Organization, error) {
	var org models.Organization
	if err := s.db.First(&org, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (s *PurchaseFlowService) garage(id string) (*models.Garage, error) {
	var garage models.Garage
	if err := s.db.First(&garage, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &garage, nil
}

func (s *PurchaseFlowService) fuelPrice(flow *models.PurchaseFlow) (float64, *FlowError) {
	if flow.GarageID == nil {
		return 0, flowErr(http.StatusConflict, CodeInvalidState, "No garage selected")
	}
	garage, err := s.garage(*flow.GarageID)
	if err != nil {
		return 0, s.internal(err)
	}
	price, ok := garage.FuelPrices[flow.Vehicle.FuelType]
	if !ok || price <= 0 {
		return 0, flowErr(http.StatusUnprocessableEntity, CodePriceUnavailable,
			"No fuel price is configured for this vehicle at the chosen garage")
	}
	return price, nil
}

func (s *PurchaseFlowService) internal(err error) *FlowError {
	log.Printf("purchase flow error: %v", err)
	return flowErr(http.StatusInternalServerError, "", "An unexpected error occurred")
}

