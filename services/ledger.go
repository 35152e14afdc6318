package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// LedgerClient submits priced purchases to the external transaction ledger.
// No client-side retry or timeout policy: failures surface to the driver for
// a manual retry.
type LedgerClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewLedgerClient(baseURL string) *LedgerClient {
	return &LedgerClient{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
	}
}

// SubmitTransactionRequest is the wire payload for a purchase submission.
type SubmitTransactionRequest struct {
	DriverID       string `json:"driver_id"`
	OrganizationID string `json:"organization_id"`
	VehicleID      string `json:"vehicle_id"`
	GarageID       string `json:"garage_id"`

	Liters           float64 `json:"liters"`
	PricePerLiter    float64 `json:"price_per_liter"`
	TotalAmount      float64 `json:"total_amount"`
	CommissionRate   float64 `json:"commission_rate"`
	CommissionAmount float64 `json:"commission_amount"`
	NetAmount        float64 `json:"net_amount"`

	PreviousOdometer *float64 `json:"previous_odometer"`
	Odometer         float64  `json:"odometer"`
	FuelType         string   `json:"fuel_type"`
	Location         string   `json:"location"`
	VIN              string   `json:"vin,omitempty"`

	LubricantType      string   `json:"lubricant_type,omitempty"`
	LubricantBrand     string   `json:"lubricant_brand,omitempty"`
	LubricantQuantity  *float64 `json:"lubricant_quantity,omitempty"`
	LubricantUnitPrice *float64 `json:"lubricant_unit_price,omitempty"`
	LubricantSubtotal  *float64 `json:"lubricant_subtotal,omitempty"`

	GPSSuspicious bool    `json:"gps_suspicious"`
	GPSAccuracy   float64 `json:"gps_accuracy"`
	GPSProvider   string  `json:"gps_provider"`
}

// SubmitTransactionResponse is the ledger's acceptance. Warning is non-fatal
// advice (e.g. a tank capacity advisory) shown to the driver.
type SubmitTransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	Warning       string `json:"warning,omitempty"`
	WarningType   string `json:"warning_type,omitempty"`
}

// LedgerError is a structured rejection from the ledger service.
type LedgerError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"error"`
}

func (e *LedgerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("ledger rejected transaction [%s]: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("ledger rejected transaction: %s", e.Message)
}

// IsSessionExpired reports whether the ledger signalled session expiry, which
// must force a device logout.
func IsSessionExpired(err error) bool {
	ledgerErr, ok := err.(*LedgerError)
	return ok && ledgerErr.Code == "SESSION_EXPIRED"
}

func (c *LedgerClient) Submit(ctx context.Context, req SubmitTransactionRequest) (*SubmitTransactionResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/transactions", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ledger unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ledgerErr := &LedgerError{StatusCode: resp.StatusCode}
		if decodeErr := json.NewDecoder(resp.Body).Decode(ledgerErr); decodeErr != nil || ledgerErr.Message == "" {
			ledgerErr.Message = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		}
		return nil, ledgerErr
	}

	var result SubmitTransactionResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode ledger response: %w", err)
	}
	if result.TransactionID == "" {
		return nil, fmt.Errorf("ledger accepted transaction but returned no id")
	}
	return &result, nil
}
