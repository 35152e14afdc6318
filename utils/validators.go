package utils

import (
	"unicode"
)

func IsValidLatitude(lat float64) bool {
	return lat >= -90 && lat <= 90
}

func IsValidLongitude(lng float64) bool {
	return lng >= -180 && lng <= 180
}

// IsValidPIN checks the client-side shape of a PIN: exactly 4 digits. The
// credential service owns correctness and lockout.
func IsValidPIN(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, r := range pin {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func IsValidOdometer(reading float64) bool {
	return reading > 0 && reading < 10_000_000
}
