package agents

import (
	"testing"
	"time"

	"fitclub_backend/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestPredictMaintenance(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	daysAgo := func(d int) *time.Time {
		ts := now.AddDate(0, 0, -d)
		return &ts
	}

	t.Run("healthy unit", func(t *testing.T) {
		eq := &models.Equipment{
			Status:              models.EquipmentOperational,
			TotalUsageCount:     100,
			LastMaintenanceDate: daysAgo(30),
		}
		p := PredictMaintenance(eq, now, DefaultUsageThreshold)
		assert.False(t, p.NeedsMaintenance)
		assert.Equal(t, 0.0, p.Confidence)
		assert.Empty(t, p.Reasons)
		assert.Equal(t, 30, p.EstimatedDaysUntilFailure)
	})

	t.Run("heavy use and never maintained", func(t *testing.T) {
		eq := &models.Equipment{
			Status:          models.EquipmentOperational,
			TotalUsageCount: 1500,
			PurchaseDate:    daysAgo(200),
		}
		p := PredictMaintenance(eq, now, DefaultUsageThreshold)
		assert.True(t, p.NeedsMaintenance)
		assert.InDelta(t, 0.8, p.Confidence, 1e-9)
		assert.Equal(t, []string{"High usage count: 1500 uses", "Never maintained"}, p.Reasons)
		// 1500 is exactly 1.5x the threshold; the strict comparison puts it
		// in the 14-day bucket.
		assert.Equal(t, 14, p.EstimatedDaysUntilFailure)
	})

	t.Run("maintenance date suppresses the purchase-age rule", func(t *testing.T) {
		eq := &models.Equipment{
			Status:              models.EquipmentOperational,
			TotalUsageCount:     100,
			LastMaintenanceDate: daysAgo(100),
			PurchaseDate:        daysAgo(400),
		}
		p := PredictMaintenance(eq, now, DefaultUsageThreshold)
		assert.True(t, p.NeedsMaintenance)
		assert.InDelta(t, 0.4, p.Confidence, 1e-9)
		assert.Equal(t, []string{"Last maintenance 100 days ago"}, p.Reasons)
	})

	t.Run("all rules fire and confidence clamps", func(t *testing.T) {
		eq := &models.Equipment{
			Status:              models.EquipmentMaintenanceNeeded,
			TotalUsageCount:     2000,
			LastMaintenanceDate: daysAgo(120),
		}
		p := PredictMaintenance(eq, now, DefaultUsageThreshold)
		assert.True(t, p.NeedsMaintenance)
		assert.Equal(t, 1.0, p.Confidence)
		assert.Len(t, p.Reasons, 3)
		assert.Equal(t, 7, p.EstimatedDaysUntilFailure)
	})
}

func TestEstimateDaysUntilFailure(t *testing.T) {
	eq := func(usage int) *models.Equipment {
		return &models.Equipment{TotalUsageCount: usage}
	}

	assert.Equal(t, 30, estimateDaysUntilFailure(eq(500), 1000))
	assert.Equal(t, 30, estimateDaysUntilFailure(eq(1000), 1000))
	assert.Equal(t, 14, estimateDaysUntilFailure(eq(1001), 1000))
	assert.Equal(t, 14, estimateDaysUntilFailure(eq(1500), 1000))
	assert.Equal(t, 7, estimateDaysUntilFailure(eq(1501), 1000))
}

func TestMaintenancePriority(t *testing.T) {
	t.Run("cardio urgency stacks", func(t *testing.T) {
		eq := &models.Equipment{Category: models.CategoryCardio}
		p := MaintenancePriority(eq, MaintenancePrediction{
			Confidence:                0.8,
			EstimatedDaysUntilFailure: 7,
		})
		// 0.4 confidence share + 0.2 for the 7-day bucket + 0.2 cardio.
		assert.InDelta(t, 0.8, p, 1e-9)
	})

	t.Run("imminent failure", func(t *testing.T) {
		eq := &models.Equipment{Category: models.CategoryStrength}
		p := MaintenancePriority(eq, MaintenancePrediction{
			Confidence:                1.0,
			EstimatedDaysUntilFailure: 5,
		})
		assert.InDelta(t, 0.8, p, 1e-9)
	})

	t.Run("clamps at one", func(t *testing.T) {
		eq := &models.Equipment{Category: models.CategoryCardio}
		p := MaintenancePriority(eq, MaintenancePrediction{
			Confidence:                1.0,
			EstimatedDaysUntilFailure: 3,
		})
		assert.Equal(t, 1.0, p)
	})
}
