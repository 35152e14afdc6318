package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fptr(f float64) *float64 {
	return &f
}

func TestResetDraft(t *testing.T) {
	garageID := "garage-1"
	flow := &PurchaseFlow{
		State:         StatePinEntry,
		GarageID:      &garageID,
		Liters:        fptr(50),
		PricePerLiter: fptr(22.10),
		TotalAmount:   fptr(1105),
		Odometer:      fptr(84500),
		TransactionID: "txn-8841",
		AccountNumber: "BC-40221",
		HasLimit:      true,
		LimitAmount:   10000,
		LimitBlocked:  true,
		Warning:       "Liters close to tank capacity",
	}

	flow.ResetDraft()

	// A reset flow must pass the already-submitted guard again
	assert.Empty(t, flow.TransactionID)

	assert.Nil(t, flow.GarageID)
	assert.Nil(t, flow.Liters)
	assert.Nil(t, flow.PricePerLiter)
	assert.Nil(t, flow.TotalAmount)
	assert.Nil(t, flow.Odometer)
	assert.Empty(t, flow.AccountNumber)
	assert.Empty(t, flow.Warning)
	assert.False(t, flow.HasLimit)
	assert.Zero(t, flow.LimitAmount)
	assert.False(t, flow.LimitBlocked)
}

func TestFlowStateTerminal(t *testing.T) {
	assert.True(t, StateCompleted.Terminal())
	assert.True(t, StateCancelled.Terminal())
	assert.False(t, StateLimitBlocked.Terminal())
	assert.False(t, StateGarageSelection.Terminal())
}

func TestSampleRequiresCoordinates(t *testing.T) {
	flow := &PurchaseFlow{Latitude: fptr(-33.9249)}
	assert.Nil(t, flow.Sample())
}
