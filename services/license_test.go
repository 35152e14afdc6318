package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fuelflow-api/models"
)

const testVIN = "AHTFR22G104037312"

func testVehicle() *models.Vehicle {
	return &models.Vehicle{
		Registration:  "AB-C 123",
		VIN:           testVIN,
		LicenseExpiry: time.Now().AddDate(1, 0, 0),
	}
}

func verificationReason(t *testing.T, err error) string {
	t.Helper()
	var verr *VerificationError
	require.True(t, errors.As(err, &verr), "expected a VerificationError, got %v", err)
	return verr.Reason
}

func TestVerifyScan(t *testing.T) {
	now := time.Now()

	t.Run("normalized registration match succeeds", func(t *testing.T) {
		payload := "MVL1CC%ABC123%" + testVIN + "%Diesel%2026-05-31"
		vin, err := VerifyScan(payload, testVehicle(), now)
		require.NoError(t, err)
		assert.Equal(t, testVIN, vin)
	})

	t.Run("registration mismatch", func(t *testing.T) {
		payload := "MVL1CC%XYZ999%" + testVIN
		_, err := VerifyScan(payload, testVehicle(), now)
		assert.Equal(t, ReasonRegistrationMismatch, verificationReason(t, err))
	})

	t.Run("expired license", func(t *testing.T) {
		vehicle := testVehicle()
		vehicle.LicenseExpiry = now.AddDate(0, 0, -1)
		_, err := VerifyScan("ABC123%"+testVIN, vehicle, now)
		assert.Equal(t, ReasonExpiredLicense, verificationReason(t, err))
	})

	t.Run("license expiring today is still valid", func(t *testing.T) {
		vehicle := testVehicle()
		vehicle.LicenseExpiry = now
		_, err := VerifyScan("ABC123%"+testVIN, vehicle, now)
		assert.NoError(t, err)
	})

	t.Run("vin mismatch when both sides present", func(t *testing.T) {
		payload := "ABC123%WDB9066571S894455"
		_, err := VerifyScan(payload, testVehicle(), now)
		assert.Equal(t, ReasonVINMismatch, verificationReason(t, err))
	})

	t.Run("missing scanned vin is not a mismatch", func(t *testing.T) {
		vin, err := VerifyScan("ABC123%Diesel", testVehicle(), now)
		require.NoError(t, err)
		assert.Empty(t, vin)
	})

	t.Run("missing stored vin is not a mismatch", func(t *testing.T) {
		vehicle := testVehicle()
		vehicle.VIN = ""
		vin, err := VerifyScan("ABC123%WDB9066571S894455", vehicle, now)
		require.NoError(t, err)
		assert.Equal(t, "WDB9066571S894455", vin)
	})

	t.Run("vin comparison is case-insensitive", func(t *testing.T) {
		payload := "ABC123%ahtfr22g104037312"
		vin, err := VerifyScan(payload, testVehicle(), now)
		require.NoError(t, err)
		assert.Equal(t, testVIN, vin)
	})
}

func TestNormalizeRegistration(t *testing.T) {
	assert.Equal(t, "ABC123", NormalizeRegistration("AB-C 123"))
	assert.Equal(t, "ABC123", NormalizeRegistration("abc123"))
	assert.Equal(t, "CA123456", NormalizeRegistration("CA 123-456"))
	assert.Empty(t, NormalizeRegistration(" - "))
}

func TestExtractVIN(t *testing.T) {
	t.Run("skips non-vin fields", func(t *testing.T) {
		fields := []string{"ABC123", "17characterslong!", testVIN}
		assert.Equal(t, testVIN, extractVIN(fields))
	})

	t.Run("rejects excluded letters", func(t *testing.T) {
		// Right length, but contains O
		fields := []string{"AHTFR22G1O4037312"}
		assert.Empty(t, extractVIN(fields))
	})

	t.Run("rejects wrong length", func(t *testing.T) {
		assert.Empty(t, extractVIN([]string{"AHTFR22G10403731"}))
	})
}
