package services

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Handoff delivery modes for the point-of-sale device.
const (
	HandoffModeProximity = "proximity"
	HandoffModeManual    = "manual"
)

// TillPayload identifies the payment to the point-of-sale device.
type TillPayload struct {
	AccountNumber string  `json:"account_number"`
	Registration  string  `json:"registration"`
	Amount        float64 `json:"amount"`
	Liters        float64 `json:"liters"`
}

// TillHandoff is what the device presents at the till: a proximity token for
// tap transmission, or the same payload for manual on-screen display.
type TillHandoff struct {
	Mode    string      `json:"mode"`
	Token   string      `json:"token,omitempty"`
	Payload TillPayload `json:"payload"`
}

// TillTransmitter prepares the handoff for one delivery mode.
type TillTransmitter interface {
	Transmit(payload TillPayload) (*TillHandoff, error)
}

// SelectTransmitter picks the transmitter once, based on the device's
// capability probe. Unsupported hardware gets the manual-display fallback.
func SelectTransmitter(proximitySupported bool, secret string, ttl time.Duration) TillTransmitter {
	if proximitySupported {
		return &ProximityTransmitter{secret: secret, ttl: ttl}
	}
	return &ManualDisplayTransmitter{}
}

// ProximityTransmitter mints a short-lived signed token the till verifies on
// tap. The signature stops a tampered amount between device and till.
type ProximityTransmitter struct {
	secret string
	ttl    time.Duration
}

func (t *ProximityTransmitter) Transmit(payload TillPayload) (*TillHandoff, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"account_number": payload.AccountNumber,
		"registration":   payload.Registration,
		"amount":         payload.Amount,
		"liters":         payload.Liters,
		"iat":            now.Unix(),
		"exp":            now.Add(t.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(t.secret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign till token: %w", err)
	}

	return &TillHandoff{
		Mode:    HandoffModeProximity,
		Token:   signed,
		Payload: payload,
	}, nil
}

// ManualDisplayTransmitter is the fallback when proximity transmission is
// unsupported or failed: the driver shows the details on screen and the
// attendant keys them in.
type ManualDisplayTransmitter struct{}

func (t *ManualDisplayTransmitter) Transmit(payload TillPayload) (*TillHandoff, error) {
	return &TillHandoff{
		Mode:    HandoffModeManual,
		Payload: payload,
	}, nil
}
