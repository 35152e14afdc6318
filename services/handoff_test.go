package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tillPayload() TillPayload {
	return TillPayload{
		AccountNumber: "BC-40221",
		Registration:  "CY 789-012",
		Amount:        1650.50,
		Liters:        75,
	}
}

func TestSelectTransmitter(t *testing.T) {
	assert.IsType(t, &ProximityTransmitter{}, SelectTransmitter(true, "secret", time.Minute))
	assert.IsType(t, &ManualDisplayTransmitter{}, SelectTransmitter(false, "secret", time.Minute))
}

func TestProximityTransmitter(t *testing.T) {
	transmitter := &ProximityTransmitter{secret: "till-secret", ttl: 2 * time.Minute}

	handoff, err := transmitter.Transmit(tillPayload())
	require.NoError(t, err)
	assert.Equal(t, HandoffModeProximity, handoff.Mode)
	assert.Equal(t, "BC-40221", handoff.Payload.AccountNumber)
	require.NotEmpty(t, handoff.Token)

	// The till verifies the token with the shared secret
	token, err := jwt.Parse(handoff.Token, func(token *jwt.Token) (interface{}, error) {
		return []byte("till-secret"), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	claims, ok := token.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, "BC-40221", claims["account_number"])
	assert.Equal(t, "CY 789-012", claims["registration"])
	assert.InDelta(t, 1650.50, claims["amount"].(float64), 0.001)
	assert.InDelta(t, 75.0, claims["liters"].(float64), 0.001)

	exp, err := claims.GetExpirationTime()
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(2*time.Minute), exp.Time, 5*time.Second)
}

func TestManualDisplayTransmitter(t *testing.T) {
	handoff, err := (&ManualDisplayTransmitter{}).Transmit(tillPayload())
	require.NoError(t, err)
	assert.Equal(t, HandoffModeManual, handoff.Mode)
	assert.Empty(t, handoff.Token)
	assert.Equal(t, tillPayload(), handoff.Payload)
}
