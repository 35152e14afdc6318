package services

import (
	"fmt"
	"strings"
	"time"

	"fuelflow-api/models"
)

// Reasons a scanned license disc can fail verification.
const (
	ReasonRegistrationMismatch = "registration_mismatch"
	ReasonExpiredLicense       = "expired_license"
	ReasonVINMismatch          = "vin_mismatch"
)

// VerificationError is a recoverable failure: the driver is sent back to
// rescan the disc.
type VerificationError struct {
	Reason  string
	Message string
}

func (e *VerificationError) Error() string {
	return e.Message
}

// VerifyScan validates a raw license disc payload against the drawn vehicle.
// Payload fields are %-delimited. On success the extracted VIN (possibly
// empty) is returned for the transaction record.
func VerifyScan(payload string, vehicle *models.Vehicle, today time.Time) (string, error) {
	fields := strings.Split(payload, "%")
	scannedVIN := extractVIN(fields)

	if !registrationMatches(fields, vehicle.Registration) {
		return "", &VerificationError{
			Reason:  ReasonRegistrationMismatch,
			Message: fmt.Sprintf("Scanned disc does not match vehicle %s", vehicle.Registration),
		}
	}

	// Date-only comparison; a disc expiring today is still valid
	expiry := dateOnly(vehicle.LicenseExpiry)
	if expiry.Before(dateOnly(today)) {
		return "", &VerificationError{
			Reason:  ReasonExpiredLicense,
			Message: fmt.Sprintf("Vehicle license expired on %s", expiry.Format("2006-01-02")),
		}
	}

	if vehicle.VIN != "" && scannedVIN != "" && !strings.EqualFold(vehicle.VIN, scannedVIN) {
		return "", &VerificationError{
			Reason:  ReasonVINMismatch,
			Message: "Scanned VIN does not match the vehicle record",
		}
	}

	return scannedVIN, nil
}

// NormalizeRegistration uppercases and strips whitespace and hyphens so that
// "AB-C 123" and "ABC123" compare equal.
func NormalizeRegistration(reg string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(reg) {
		if r == '-' || r == ' ' || r == '\t' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func registrationMatches(fields []string, registration string) bool {
	want := NormalizeRegistration(registration)
	if want == "" {
		return false
	}
	for _, field := range fields {
		if NormalizeRegistration(field) == want {
			return true
		}
	}
	return false
}

// extractVIN returns the first 17-character field over the ISO VIN alphabet
// (letters minus I, O, Q, plus digits), uppercased. Empty if none present.
func extractVIN(fields []string) string {
	for _, field := range fields {
		candidate := strings.ToUpper(strings.TrimSpace(field))
		if len(candidate) == 17 && isVIN(candidate) {
			return candidate
		}
	}
	return ""
}

func isVIN(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'A' && r <= 'Z':
			if r == 'I' || r == 'O' || r == 'Q' {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
