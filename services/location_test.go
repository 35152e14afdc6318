package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelflow-api/models"
)

func floatPtr(f float64) *float64 {
	return &f
}

func freshSample(accuracy float64, now time.Time) models.LocationSample {
	return models.LocationSample{
		Latitude:         -33.9249,
		Longitude:        18.4241,
		Accuracy:         accuracy,
		Altitude:         floatPtr(42),
		AltitudeAccuracy: floatPtr(3),
		CapturedAt:       now,
	}
}

func TestClassifySample(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name       string
		sample     models.LocationSample
		suspicious bool
		provider   string
	}{
		{
			name:       "plausible gps fix",
			sample:     freshSample(10, now),
			suspicious: false,
			provider:   models.ProviderGPS,
		},
		{
			name:       "implausibly precise",
			sample:     freshSample(4.9, now),
			suspicious: true,
			provider:   models.ProviderGPS,
		},
		{
			name:       "boundary accuracy of 5m is plausible",
			sample:     freshSample(5, now),
			suspicious: false,
			provider:   models.ProviderGPS,
		},
		{
			name:       "unreliable fix",
			sample:     freshSample(501, now),
			suspicious: true,
			provider:   models.ProviderCell,
		},
		{
			name: "missing altitude and altitude accuracy",
			sample: models.LocationSample{
				Latitude: -33.9, Longitude: 18.4, Accuracy: 20, CapturedAt: now,
			},
			suspicious: true,
			provider:   models.ProviderGPS,
		},
		{
			name: "altitude alone is enough",
			sample: models.LocationSample{
				Latitude: -33.9, Longitude: 18.4, Accuracy: 20,
				Altitude: floatPtr(15), CapturedAt: now,
			},
			suspicious: false,
			provider:   models.ProviderGPS,
		},
		{
			name:       "stale sample",
			sample:     freshSample(10, now.Add(-6*time.Second)),
			suspicious: true,
			provider:   models.ProviderGPS,
		},
		{
			name:       "network tier",
			sample:     freshSample(120, now),
			suspicious: false,
			provider:   models.ProviderNetwork,
		},
		{
			name:       "cell tier",
			sample:     freshSample(350, now),
			suspicious: false,
			provider:   models.ProviderCell,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trust := ClassifySample(tt.sample, now)
			assert.Equal(t, tt.suspicious, trust.Suspicious)
			assert.Equal(t, tt.provider, trust.Provider)
		})
	}
}

func TestCalculateDistance(t *testing.T) {
	// One degree of latitude is about 111.19 km
	assert.InDelta(t, 111.19, CalculateDistance(0, 0, 1, 0), 0.5)
	assert.Zero(t, CalculateDistance(-33.9249, 18.4241, -33.9249, 18.4241))
}

func TestCheckGeofence(t *testing.T) {
	now := time.Now()
	garage := &models.Garage{
		Latitude:  floatPtr(-33.9249),
		Longitude: floatPtr(18.4241),
	}

	t.Run("mismatch beyond threshold still reports distance", func(t *testing.T) {
		sample := freshSample(10, now)
		sample.Latitude = -33.9177 // roughly 800m north

		result := CheckGeofence(&sample, garage)
		require.NotNil(t, result.DistanceKm)
		assert.InDelta(t, 0.8, *result.DistanceKm, 0.05)
		assert.True(t, result.Mismatch)
	})

	t.Run("inside threshold", func(t *testing.T) {
		sample := freshSample(10, now)
		sample.Latitude = -33.9258 // ~100m away

		result := CheckGeofence(&sample, garage)
		require.NotNil(t, result.DistanceKm)
		assert.False(t, result.Mismatch)
	})

	t.Run("garage without coordinates auto-passes", func(t *testing.T) {
		sample := freshSample(10, now)
		result := CheckGeofence(&sample, &models.Garage{})
		assert.Nil(t, result.DistanceKm)
		assert.False(t, result.Mismatch)
	})

	t.Run("missing sample auto-passes", func(t *testing.T) {
		result := CheckGeofence(nil, garage)
		assert.Nil(t, result.DistanceKm)
		assert.False(t, result.Mismatch)
	})
}
