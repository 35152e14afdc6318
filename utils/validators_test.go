package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidPIN(t *testing.T) {
	tests := []struct {
		name  string
		pin   string
		valid bool
	}{
		{"four digits", "4821", true},
		{"leading zero", "0042", true},
		{"too short", "482", false},
		{"too long", "48213", false},
		{"letters", "48a1", false},
		{"empty", "", false},
		{"unicode digits rejected", "٤٨٢١", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidPIN(tt.pin))
		})
	}
}

func TestIsValidOdometer(t *testing.T) {
	assert.True(t, IsValidOdometer(84500))
	assert.True(t, IsValidOdometer(0.5))
	assert.False(t, IsValidOdometer(0))
	assert.False(t, IsValidOdometer(-120))
	assert.False(t, IsValidOdometer(10_000_000))
}

func TestCoordinateValidators(t *testing.T) {
	assert.True(t, IsValidLatitude(-33.9249))
	assert.False(t, IsValidLatitude(90.1))
	assert.True(t, IsValidLongitude(18.4241))
	assert.False(t, IsValidLongitude(-180.5))
}
