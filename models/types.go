package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// FuelPriceMap is a custom type for handling JSON maps of fuel type to
// price per liter in the database
type FuelPriceMap map[string]float64

// Value implements driver.Valuer interface for database storage
func (fp FuelPriceMap) Value() (driver.Value, error) {
	if fp == nil {
		return nil, nil
	}
	return json.Marshal(fp)
}

// Scan implements sql.Scanner interface for database retrieval
func (fp *FuelPriceMap) Scan(value interface{}) error {
	if value == nil {
		*fp = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, fp)
	case string:
		return json.Unmarshal([]byte(v), fp)
	default:
		return fmt.Errorf("cannot scan %T into FuelPriceMap", value)
	}
}

// GormDataType returns the data type for GORM
func (FuelPriceMap) GormDataType() string {
	return "json"
}

// MarshalJSON implements json.Marshaler interface
func (fp FuelPriceMap) MarshalJSON() ([]byte, error) {
	if fp == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]float64(fp))
}

// Float64OrZero dereferences an optional float, treating nil as zero.
func Float64OrZero(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
