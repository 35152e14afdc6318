package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fuelflow-api/models"
)

func TestComputeSnapshotGarageCredit(t *testing.T) {
	t.Run("garage month spend against monthly credit limit", func(t *testing.T) {
		snap := ComputeSnapshot(SpendingInputs{
			GarageLimit: floatPtr(10000),
			GarageSpend: 3000,
		}, 22)

		assert.True(t, snap.HasLimit)
		assert.Equal(t, models.LimitScopeGarage, snap.Scope)
		assert.Equal(t, 7000.0, snap.Available)
		assert.InDelta(t, 318.18, snap.MaxLiters, 0.01)
		assert.False(t, snap.Blocked)
	})

	t.Run("overrides organization limits even when they are tighter", func(t *testing.T) {
		snap := ComputeSnapshot(SpendingInputs{
			GarageLimit:     floatPtr(10000),
			GarageSpend:     0,
			OrgDailyLimit:   floatPtr(100),
			DailySpend:      100,
			OrgMonthlyLimit: floatPtr(50),
			MonthlySpend:    50,
		}, 22)

		assert.Equal(t, models.LimitScopeGarage, snap.Scope)
		assert.Equal(t, 10000.0, snap.Available)
		assert.False(t, snap.Blocked)
	})

	t.Run("overspent garage account clamps to zero and blocks", func(t *testing.T) {
		snap := ComputeSnapshot(SpendingInputs{
			GarageLimit: floatPtr(5000),
			GarageSpend: 6200,
		}, 22)

		assert.Equal(t, 0.0, snap.Available)
		assert.True(t, snap.Blocked)
		assert.Zero(t, snap.MaxLiters)
	})
}

func TestComputeSnapshotOrganizationLimits(t *testing.T) {
	t.Run("daily limit exhausted blocks the flow", func(t *testing.T) {
		snap := ComputeSnapshot(SpendingInputs{
			OrgDailyLimit: floatPtr(500),
			DailySpend:    500,
		}, 22)

		assert.True(t, snap.HasLimit)
		assert.Equal(t, models.LimitScopeOrganization, snap.Scope)
		assert.Equal(t, 0.0, snap.Available)
		assert.True(t, snap.Blocked)
	})

	t.Run("most restrictive of daily and monthly wins", func(t *testing.T) {
		snap := ComputeSnapshot(SpendingInputs{
			OrgDailyLimit:   floatPtr(500),
			DailySpend:      100, // 400 available
			OrgMonthlyLimit: floatPtr(8000),
			MonthlySpend:    7700, // 300 available
		}, 20)

		assert.Equal(t, 300.0, snap.Available)
		assert.Equal(t, 15.0, snap.MaxLiters)
	})

	t.Run("daily wins when monthly is looser", func(t *testing.T) {
		snap := ComputeSnapshot(SpendingInputs{
			OrgDailyLimit:   floatPtr(500),
			DailySpend:      450,
			OrgMonthlyLimit: floatPtr(8000),
			MonthlySpend:    1000,
		}, 20)

		assert.Equal(t, 50.0, snap.Available)
	})

	t.Run("single configured limit applies alone", func(t *testing.T) {
		snap := ComputeSnapshot(SpendingInputs{
			OrgMonthlyLimit: floatPtr(8000),
			MonthlySpend:    2000,
		}, 20)

		assert.True(t, snap.HasLimit)
		assert.Equal(t, 6000.0, snap.Available)
	})
}

func TestComputeSnapshotUnconstrained(t *testing.T) {
	snap := ComputeSnapshot(SpendingInputs{}, 22)

	assert.False(t, snap.HasLimit)
	assert.False(t, snap.Blocked)
	assert.Zero(t, snap.Available)
	assert.Zero(t, snap.MaxLiters)
}

func TestComputeSnapshotZeroPrice(t *testing.T) {
	snap := ComputeSnapshot(SpendingInputs{
		GarageLimit: floatPtr(1000),
		GarageSpend: 0,
	}, 0)

	assert.Equal(t, 1000.0, snap.Available)
	assert.Zero(t, snap.MaxLiters)
}
