package services

import (
	"math"
	"time"

	"fuelflow-api/models"
)

// GeofenceThresholdKm is the allowed radius between the driver and the
// chosen garage before a mismatch is flagged.
const GeofenceThresholdKm = 0.5

// Accuracy bounds for the trust heuristic, in meters. Handheld GPS never
// reports sub-5m accuracy; beyond 500m the fix is unusable.
const (
	minPlausibleAccuracy = 5.0
	maxPlausibleAccuracy = 500.0
	maxSampleAge         = 5000 * time.Millisecond
)

// ClassifySample runs the spoofing heuristic over a raw location sample.
// The result never blocks the purchase flow; it is persisted with the
// transaction and drives exception reporting only.
func ClassifySample(sample models.LocationSample, now time.Time) models.LocationTrust {
	suspicious := sample.Accuracy < minPlausibleAccuracy ||
		sample.Accuracy > maxPlausibleAccuracy ||
		(sample.Altitude == nil && sample.AltitudeAccuracy == nil) ||
		now.Sub(sample.CapturedAt) > maxSampleAge

	provider := models.ProviderCell
	if sample.Accuracy < 50 {
		provider = models.ProviderGPS
	} else if sample.Accuracy < 200 {
		provider = models.ProviderNetwork
	}

	return models.LocationTrust{
		Suspicious: suspicious,
		Provider:   provider,
	}
}

// GeofenceResult carries the distance to the chosen garage. A nil distance
// means the check auto-passed (garage without coordinates, or no sample).
type GeofenceResult struct {
	DistanceKm *float64 `json:"distance_km"`
	Mismatch   bool     `json:"mismatch"`
}

// CheckGeofence compares the driver's position against the garage. Mismatch
// is advisory only; the driver may proceed past it.
func CheckGeofence(sample *models.LocationSample, garage *models.Garage) GeofenceResult {
	if sample == nil || garage == nil || garage.Latitude == nil || garage.Longitude == nil {
		return GeofenceResult{}
	}

	distance := CalculateDistance(sample.Latitude, sample.Longitude, *garage.Latitude, *garage.Longitude)
	return GeofenceResult{
		DistanceKm: &distance,
		Mismatch:   distance > GeofenceThresholdKm,
	}
}

// CalculateDistance returns the great-circle distance between two points in km.
func CalculateDistance(lat1, lon1, lat2, lon2 float64) float64 {
	// Haversine formula implementation
	const earthRadius = 6371 // km

	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	distance := earthRadius * c

	return distance
}
