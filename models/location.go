package models

import (
	"time"
)

// Location provider tiers, derived from reported accuracy.
const (
	ProviderGPS     = "gps"
	ProviderNetwork = "network"
	ProviderCell    = "cell"
)

// LocationSample is a raw position report from the device. Altitude and
// altitude accuracy are nullable; their joint absence is a spoofing signal.
type LocationSample struct {
	Latitude         float64   `json:"latitude" binding:"required"`
	Longitude        float64   `json:"longitude" binding:"required"`
	Accuracy         float64   `json:"accuracy"` // meters
	Altitude         *float64  `json:"altitude"`
	AltitudeAccuracy *float64  `json:"altitude_accuracy"`
	CapturedAt       time.Time `json:"captured_at" binding:"required"`
}

// LocationTrust is the heuristic classification of a sample. It never blocks
// the purchase flow; it is carried onto the transaction record.
type LocationTrust struct {
	Suspicious bool   `json:"suspicious"`
	Provider   string `json:"provider"`
}
