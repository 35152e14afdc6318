package models

// Spending limit scopes. A garage-specific credit limit, when active, fully
// replaces organization-level limits rather than competing with them.
const (
	LimitScopeGarage       = "garage"
	LimitScopeOrganization = "organization"
)

// SpendingLimitSnapshot is the operative budget for one purchase attempt.
// Recomputed per flow invocation; never persisted on its own.
type SpendingLimitSnapshot struct {
	HasLimit  bool    `json:"has_limit"`
	Scope     string  `json:"scope,omitempty"`
	Limit     float64 `json:"limit"`
	Spent     float64 `json:"spent"`
	Available float64 `json:"available"`
	MaxLiters float64 `json:"max_liters"`
	Blocked   bool    `json:"blocked"`
}
