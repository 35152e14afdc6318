package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// PINClient verifies a driver's 4-digit PIN against the external credential
// service. Rate limiting and lockout live in that service; this client only
// relays the resulting state for display.
type PINClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewPINClient(baseURL string) *PINClient {
	return &PINClient{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

// PINVerification distinguishes the failure modes the driver must see:
// PIN not yet configured, account locked (possibly until a given time), or
// a plain incorrect PIN.
type PINVerification struct {
	Verified      bool       `json:"verified"`
	RequiresSetup bool       `json:"requires_setup,omitempty"`
	Locked        bool       `json:"locked,omitempty"`
	LockedUntil   *time.Time `json:"locked_until,omitempty"`
	Message       string     `json:"message,omitempty"`
}

type pinVerifyRequest struct {
	DriverID string `json:"driver_id"`
	PIN      string `json:"pin"`
}

func (c *PINClient) Verify(ctx context.Context, driverID, pin string) (*PINVerification, error) {
	body, err := json.Marshal(pinVerifyRequest{DriverID: driverID, PIN: pin})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/pin/verify", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("pin service unreachable: %w", err)
	}
	defer resp.Body.Close()

	// The credential service answers 200 for both outcomes; anything else is
	// a transport-level failure requiring a manual retry.
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pin service returned status %d", resp.StatusCode)
	}

	var result PINVerification
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode pin service response: %w", err)
	}
	return &result, nil
}
