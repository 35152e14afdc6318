package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelflow-api/models"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.FlowState
		allowed  bool
	}{
		{models.StateGarageSelection, models.StateLocationConfirmation, true},
		{models.StateGarageSelection, models.StateFuelDetails, false},
		{models.StateLocationConfirmation, models.StateLicenseScan, true},
		{models.StateLocationConfirmation, models.StateSpendingCheck, true}, // scan bypass
		{models.StateLocationConfirmation, models.StateGarageSelection, true},
		{models.StateLicenseScan, models.StateSpendingCheck, true},
		{models.StateLicenseScan, models.StateAuthorized, false},
		{models.StateSpendingCheck, models.StateAuthorized, true},
		{models.StateSpendingCheck, models.StateLimitBlocked, true},
		{models.StateAuthorized, models.StateFuelDetails, true},
		{models.StateFuelDetails, models.StateCompleted, true},
		{models.StateFuelDetails, models.StatePinEntry, true},
		{models.StatePinEntry, models.StateScanToTill, true},
		{models.StatePinEntry, models.StateCompleted, false},
		{models.StateScanToTill, models.StateCompleted, true},
		{models.StateScanToTill, models.StateGarageSelection, true}, // attendant decline
		{models.StateLimitBlocked, models.StateCancelled, true},
		{models.StateLimitBlocked, models.StateAuthorized, false},
		{models.StateCompleted, models.StateGarageSelection, false},
		{models.StateCancelled, models.StateGarageSelection, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestValidateDraft(t *testing.T) {
	noLimit := models.SpendingLimitSnapshot{}

	t.Run("valid fuel-only draft", func(t *testing.T) {
		total, lub, ferr := ValidateDraft(FuelDetailsInput{Liters: 40, Odometer: 85000}, 22, 80, noLimit)
		require.Nil(t, ferr)
		assert.Equal(t, 880.0, total)
		assert.Nil(t, lub)
	})

	t.Run("liters over tank capacity plus buffer blocks", func(t *testing.T) {
		_, _, ferr := ValidateDraft(FuelDetailsInput{Liters: 63, Odometer: 85000}, 22, 60, noLimit)
		require.NotNil(t, ferr)
		assert.Equal(t, CodeTankCapacityExceeded, ferr.Code)
	})

	t.Run("buffer of two liters is allowed", func(t *testing.T) {
		_, _, ferr := ValidateDraft(FuelDetailsInput{Liters: 62, Odometer: 85000}, 22, 60, noLimit)
		assert.Nil(t, ferr)
	})

	t.Run("tank capacity is enforced even under an open spending limit", func(t *testing.T) {
		generous := models.SpendingLimitSnapshot{HasLimit: true, Available: 100000}
		_, _, ferr := ValidateDraft(FuelDetailsInput{Liters: 63, Odometer: 85000}, 22, 60, generous)
		require.NotNil(t, ferr)
		assert.Equal(t, CodeTankCapacityExceeded, ferr.Code)
	})

	t.Run("total above the spending ceiling blocks", func(t *testing.T) {
		snap := models.SpendingLimitSnapshot{HasLimit: true, Available: 500}
		_, _, ferr := ValidateDraft(FuelDetailsInput{Liters: 25, Odometer: 85000}, 22, 80, snap)
		require.NotNil(t, ferr)
		assert.Equal(t, CodeCeilingExceeded, ferr.Code)
	})

	t.Run("lubricant counts toward the total", func(t *testing.T) {
		in := FuelDetailsInput{
			Liters:   10,
			Odometer: 85000,
			Lubricant: &LubricantInput{
				Type: "engine_oil", Brand: "Castrol", Quantity: 2, UnitPrice: 50,
			},
		}
		total, lub, ferr := ValidateDraft(in, 20, 80, noLimit)
		require.Nil(t, ferr)
		assert.Equal(t, 300.0, total)
		require.NotNil(t, lub)
		assert.Equal(t, 100.0, *lub)
	})

	t.Run("incomplete lubricant line rejected", func(t *testing.T) {
		in := FuelDetailsInput{
			Liters:    10,
			Odometer:  85000,
			Lubricant: &LubricantInput{Type: "engine_oil"},
		}
		_, _, ferr := ValidateDraft(in, 20, 80, noLimit)
		require.NotNil(t, ferr)
	})

	t.Run("missing price is a hard block", func(t *testing.T) {
		_, _, ferr := ValidateDraft(FuelDetailsInput{Liters: 10, Odometer: 85000}, 0, 80, noLimit)
		require.NotNil(t, ferr)
		assert.Equal(t, CodePriceUnavailable, ferr.Code)
	})

	t.Run("missing liters rejected", func(t *testing.T) {
		_, _, ferr := ValidateDraft(FuelDetailsInput{Odometer: 85000}, 22, 80, noLimit)
		require.NotNil(t, ferr)
	})
}

func TestComputeEfficiency(t *testing.T) {
	t.Run("known previous odometer", func(t *testing.T) {
		eff := ComputeEfficiency(floatPtr(84000), 84500, 50)
		require.NotNil(t, eff)
		assert.Equal(t, 10.0, *eff)
	})

	t.Run("unknown previous odometer", func(t *testing.T) {
		assert.Nil(t, ComputeEfficiency(nil, 84500, 50))
	})

	t.Run("non-positive distance", func(t *testing.T) {
		assert.Nil(t, ComputeEfficiency(floatPtr(84500), 84500, 50))
		assert.Nil(t, ComputeEfficiency(floatPtr(85000), 84500, 50))
	})

	t.Run("non-positive liters", func(t *testing.T) {
		assert.Nil(t, ComputeEfficiency(floatPtr(84000), 84500, 0))
	})
}
