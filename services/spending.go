package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"fuelflow-api/models"
)

// SpendingInputs are the configured limits and windowed spend totals feeding
// one snapshot computation. Nil limits mean not configured.
type SpendingInputs struct {
	// Garage-specific credit limit for (organization, garage). When present
	// it overrides the organization limits outright.
	GarageLimit *float64
	GarageSpend float64

	OrgDailyLimit   *float64
	DailySpend      float64
	OrgMonthlyLimit *float64
	MonthlySpend    float64
}

// ComputeSnapshot derives the operative spending limit for a purchase.
// Garage credit wins outright when configured; otherwise the organization
// limit producing the smaller available amount applies.
func ComputeSnapshot(in SpendingInputs, pricePerLiter float64) models.SpendingLimitSnapshot {
	snap := models.SpendingLimitSnapshot{}

	if in.GarageLimit != nil {
		snap = limitSnapshot(models.LimitScopeGarage, *in.GarageLimit, in.GarageSpend)
	} else {
		var daily, monthly *models.SpendingLimitSnapshot
		if in.OrgDailyLimit != nil {
			s := limitSnapshot(models.LimitScopeOrganization, *in.OrgDailyLimit, in.DailySpend)
			daily = &s
		}
		if in.OrgMonthlyLimit != nil {
			s := limitSnapshot(models.LimitScopeOrganization, *in.OrgMonthlyLimit, in.MonthlySpend)
			monthly = &s
		}

		switch {
		case daily != nil && monthly != nil:
			// Most restrictive wins in this branch only
			if monthly.Available < daily.Available {
				snap = *monthly
			} else {
				snap = *daily
			}
		case daily != nil:
			snap = *daily
		case monthly != nil:
			snap = *monthly
		}
	}

	if snap.HasLimit {
		if pricePerLiter > 0 {
			snap.MaxLiters = snap.Available / pricePerLiter
		}
		snap.Blocked = snap.Available <= 0
	}
	return snap
}

func limitSnapshot(scope string, limit, spent float64) models.SpendingLimitSnapshot {
	available := limit - spent
	if available < 0 {
		available = 0
	}
	return models.SpendingLimitSnapshot{
		HasLimit:  true,
		Scope:     scope,
		Limit:     limit,
		Spent:     spent,
		Available: available,
	}
}

// SpendingService evaluates the operative limit by aggregating ledger spend
// over the relevant windows. Reads only; the ledger owns the rows.
type SpendingService struct {
	db *gorm.DB
}

func NewSpendingService(db *gorm.DB) *SpendingService {
	return &SpendingService{db: db}
}

func (s *SpendingService) Evaluate(org *models.Organization, garage *models.Garage, pricePerLiter float64) (models.SpendingLimitSnapshot, error) {
	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	in := SpendingInputs{}

	account, err := s.activeCreditAccount(org.ID, garage.ID)
	if err != nil {
		return models.SpendingLimitSnapshot{}, err
	}

	if account != nil {
		in.GarageLimit = &account.MonthlyLimit
		spend, err := s.spendSince(org.ID, garage.ID, monthStart)
		if err != nil {
			return models.SpendingLimitSnapshot{}, err
		}
		in.GarageSpend = spend
	} else {
		if org.DailyLimit != nil {
			in.OrgDailyLimit = org.DailyLimit
			spend, err := s.spendSince(org.ID, "", dayStart)
			if err != nil {
				return models.SpendingLimitSnapshot{}, err
			}
			in.DailySpend = spend
		}
		if org.MonthlyLimit != nil {
			in.OrgMonthlyLimit = org.MonthlyLimit
			spend, err := s.spendSince(org.ID, "", monthStart)
			if err != nil {
				return models.SpendingLimitSnapshot{}, err
			}
			in.MonthlySpend = spend
		}
	}

	return ComputeSnapshot(in, pricePerLiter), nil
}

func (s *SpendingService) activeCreditAccount(orgID, garageID string) (*models.GarageCreditAccount, error) {
	var account models.GarageCreditAccount
	err := s.db.Where("organization_id = ? AND garage_id = ? AND active = ?", orgID, garageID, true).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// spendSince sums ledger spend for the organization since the window start,
// optionally narrowed to one garage.
func (s *SpendingService) spendSince(orgID, garageID string, since time.Time) (float64, error) {
	var total float64
	query := s.db.Model(&models.LedgerTransaction{}).
		Where("organization_id = ? AND created_at >= ?", orgID, since)
	if garageID != "" {
		query = query.Where("garage_id = ?", garageID)
	}
	err := query.Select("COALESCE(SUM(total_amount), 0)").Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}
