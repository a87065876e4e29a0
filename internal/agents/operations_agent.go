package agents

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fitclub_backend/internal/models"
	"fitclub_backend/internal/repositories"
)

// DefaultUsageThreshold is the usage count above which a unit is considered
// heavily used.
const DefaultUsageThreshold = 1000

// assumedFacilityCapacity is the member capacity used for utilization until
// per-facility configuration exists.
const assumedFacilityCapacity = 100

// MaintenancePrediction is the outcome of the maintenance heuristic for one
// piece of equipment.
type MaintenancePrediction struct {
	NeedsMaintenance          bool     `json:"needs_maintenance"`
	Confidence                float64  `json:"confidence"`
	Reasons                   []string `json:"reasons"`
	EstimatedDaysUntilFailure int      `json:"estimated_days_until_failure"`
}

// MaintenanceItem is one entry of the prioritized maintenance listing.
type MaintenanceItem struct {
	EquipmentID   int64                    `json:"equipment_id"`
	Name          string                   `json:"name"`
	Category      models.EquipmentCategory `json:"category"`
	CurrentStatus models.EquipmentStatus   `json:"current_status"`
	Prediction    MaintenancePrediction    `json:"prediction"`
	Priority      float64                  `json:"priority"`
}

// PredictMaintenance applies the maintenance heuristic to one unit. Each
// triggered rule flags the unit and adds to confidence (clamped to 1.0):
//   - usage above threshold +0.3
//   - maintenance older than 90 days +0.4, or, when never maintained,
//     purchased more than 180 days ago +0.5 (the two branches are mutually
//     exclusive: a maintenance date always routes through the first)
//   - already flagged for maintenance +0.3
func PredictMaintenance(eq *models.Equipment, now time.Time, usageThreshold int) MaintenancePrediction {
	needsMaintenance := false
	confidence := 0.0
	reasons := []string{}

	if eq.TotalUsageCount > usageThreshold {
		needsMaintenance = true
		reasons = append(reasons, fmt.Sprintf("High usage count: %d uses", eq.TotalUsageCount))
		confidence += 0.3
	}

	if eq.LastMaintenanceDate != nil {
		if daysSince := DaysSince(now, eq.LastMaintenanceDate); daysSince > 90 {
			needsMaintenance = true
			reasons = append(reasons, fmt.Sprintf("Last maintenance %d days ago", daysSince))
			confidence += 0.4
		}
	} else if eq.PurchaseDate != nil {
		if DaysSince(now, eq.PurchaseDate) > 180 {
			needsMaintenance = true
			reasons = append(reasons, "Never maintained")
			confidence += 0.5
		}
	}

	if eq.Status == models.EquipmentMaintenanceNeeded {
		needsMaintenance = true
		reasons = append(reasons, "Already marked for maintenance")
		confidence += 0.3
	}

	return MaintenancePrediction{
		NeedsMaintenance:          needsMaintenance,
		Confidence:                Clamp01(confidence),
		Reasons:                   reasons,
		EstimatedDaysUntilFailure: estimateDaysUntilFailure(eq, usageThreshold),
	}
}

// estimateDaysUntilFailure is a separate heuristic, not weighted into
// confidence. Comparisons are strict: exactly 1.5x the threshold falls into
// the 14-day bucket.
func estimateDaysUntilFailure(eq *models.Equipment, usageThreshold int) int {
	if float64(eq.TotalUsageCount) > float64(usageThreshold)*1.5 {
		return 7
	}
	if eq.TotalUsageCount > usageThreshold {
		return 14
	}
	return 30
}

// MaintenancePriority ranks a flagged unit for scheduling: half the
// confidence, plus urgency from the failure estimate, plus a cardio bonus.
func MaintenancePriority(eq *models.Equipment, prediction MaintenancePrediction) float64 {
	priority := prediction.Confidence * 0.5

	if prediction.EstimatedDaysUntilFailure < 7 {
		priority += 0.3
	} else if prediction.EstimatedDaysUntilFailure < 14 {
		priority += 0.2
	}

	if eq.Category == models.CategoryCardio {
		priority += 0.2
	}

	return Clamp01(priority)
}

// CapacityAnalysis summarises facility usage over the trailing week.
type CapacityAnalysis struct {
	CurrentOccupancy    int                               `json:"current_occupancy"`
	DailyTrends         []repositories.DailyCheckInCount  `json:"daily_trends"`
	PeakHours           []repositories.HourlyCheckInCount `json:"peak_hours"`
	CapacityUtilization float64                           `json:"capacity_utilization"` // percent, 2dp
	Recommendations     []string                          `json:"recommendations"`
}

// EquipmentHealthReport is the fleet-wide status breakdown.
type EquipmentHealthReport struct {
	TotalEquipment        int                            `json:"total_equipment"`
	StatusBreakdown       map[models.EquipmentStatus]int `json:"status_breakdown"`
	HealthScore           float64                        `json:"health_score"` // percent operational, 2dp
	OperationalPercentage float64                        `json:"operational_percentage"`
}

// OperationsAgent predicts equipment maintenance and analyzes facility usage.
type OperationsAgent struct {
	equipmentRepo  repositories.EquipmentRepository
	checkInRepo    repositories.CheckInRepository
	usageThreshold int
	now            func() time.Time
}

// NewOperationsAgent creates an OperationsAgent. A non-positive threshold
// falls back to DefaultUsageThreshold.
func NewOperationsAgent(
	equipmentRepo repositories.EquipmentRepository,
	checkInRepo repositories.CheckInRepository,
	usageThreshold int,
) *OperationsAgent {
	if usageThreshold <= 0 {
		usageThreshold = DefaultUsageThreshold
	}
	return &OperationsAgent{
		equipmentRepo:  equipmentRepo,
		checkInRepo:    checkInRepo,
		usageThreshold: usageThreshold,
		now:            time.Now,
	}
}

func (a *OperationsAgent) Name() string { return "operations" }

// Execute runs the full operations analysis.
func (a *OperationsAgent) Execute(ctx context.Context) (map[string]interface{}, error) {
	maintenanceNeeded, err := a.PredictMaintenanceNeeds()
	if err != nil {
		return nil, err
	}

	capacity, err := a.AnalyzeFacilityCapacity()
	if err != nil {
		return nil, err
	}

	health, err := a.EquipmentHealthReport()
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"maintenance_needed": maintenanceNeeded,
		"capacity_analysis":  capacity,
		"equipment_health":   health,
	}, nil
}

// Analyze answers a targeted operations question: per-unit maintenance
// prediction or facility capacity.
func (a *OperationsAgent) Analyze(ctx context.Context, params map[string]interface{}) (map[string]interface{}, error) {
	analysisType, _ := params["type"].(string)
	if analysisType == "" {
		analysisType = "equipment"
	}

	switch analysisType {
	case "equipment":
		equipmentID, ok := int64Param(params, "equipment_id")
		if !ok {
			return nil, fmt.Errorf("equipment_id is required")
		}
		return a.AnalyzeEquipment(equipmentID)
	case "capacity":
		capacity, err := a.AnalyzeFacilityCapacity()
		if err != nil {
			return nil, err
		}
		return map[string]interface{}{"capacity_analysis": capacity}, nil
	default:
		return nil, fmt.Errorf("invalid analysis type '%s'", analysisType)
	}
}

// PredictMaintenanceNeeds evaluates the whole fleet and returns the flagged
// units, highest priority first. The sort is stable so identical inputs
// always produce the same order.
func (a *OperationsAgent) PredictMaintenanceNeeds() ([]MaintenanceItem, error) {
	equipmentList, err := a.equipmentRepo.GetAllEquipment()
	if err != nil {
		return nil, fmt.Errorf("failed to load equipment: %w", err)
	}

	now := a.now()
	flagged := []MaintenanceItem{}
	for i := range equipmentList {
		eq := &equipmentList[i]
		prediction := PredictMaintenance(eq, now, a.usageThreshold)
		if !prediction.NeedsMaintenance {
			continue
		}
		flagged = append(flagged, MaintenanceItem{
			EquipmentID:   eq.ID,
			Name:          eq.Name,
			Category:      eq.Category,
			CurrentStatus: eq.Status,
			Prediction:    prediction,
			Priority:      MaintenancePriority(eq, prediction),
		})
	}

	sort.SliceStable(flagged, func(i, j int) bool {
		return flagged[i].Priority > flagged[j].Priority
	})
	return flagged, nil
}

// AnalyzeEquipment runs the maintenance prediction for one unit.
func (a *OperationsAgent) AnalyzeEquipment(equipmentID int64) (map[string]interface{}, error) {
	eq, err := a.equipmentRepo.GetEquipmentByID(equipmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load equipment %d: %w", equipmentID, err)
	}

	prediction := PredictMaintenance(eq, a.now(), a.usageThreshold)
	return map[string]interface{}{
		"equipment_id":           equipmentID,
		"name":                   eq.Name,
		"status":                 eq.Status,
		"total_usage":            eq.TotalUsageCount,
		"maintenance_prediction": prediction,
	}, nil
}

// AnalyzeFacilityCapacity summarises the trailing week of check-ins.
func (a *OperationsAgent) AnalyzeFacilityCapacity() (*CapacityAnalysis, error) {
	weekAgo := a.now().AddDate(0, 0, -7)

	dailyCounts, err := a.checkInRepo.DailyCounts(weekAgo)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily check-in counts: %w", err)
	}

	peakHours, err := a.checkInRepo.PeakHours(weekAgo)
	if err != nil {
		return nil, fmt.Errorf("failed to load peak hours: %w", err)
	}
	if len(peakHours) > 5 {
		peakHours = peakHours[:5]
	}

	occupancy, err := a.checkInRepo.CountCurrentOccupancy()
	if err != nil {
		return nil, fmt.Errorf("failed to count current occupancy: %w", err)
	}

	return &CapacityAnalysis{
		CurrentOccupancy:    occupancy,
		DailyTrends:         dailyCounts,
		PeakHours:           peakHours,
		CapacityUtilization: capacityUtilization(dailyCounts),
		Recommendations:     capacityRecommendations(peakHours),
	}, nil
}

// capacityUtilization is the average daily check-in count as a percentage of
// the assumed facility capacity.
func capacityUtilization(dailyCounts []repositories.DailyCheckInCount) float64 {
	if len(dailyCounts) == 0 {
		return 0
	}
	total := 0
	for _, d := range dailyCounts {
		total += d.Count
	}
	avgDaily := float64(total) / float64(len(dailyCounts))
	return Round2(avgDaily / assumedFacilityCapacity * 100)
}

func capacityRecommendations(peakHours []repositories.HourlyCheckInCount) []string {
	recommendations := []string{}
	if len(peakHours) > 0 {
		top := peakHours[0]
		recommendations = append(recommendations, fmt.Sprintf(
			"Peak hour is %d:00 with %d check-ins. Consider additional staff during this time.",
			top.Hour, top.Count,
		))
	}
	return recommendations
}

// EquipmentHealthReport computes the fleet status breakdown and health score.
func (a *OperationsAgent) EquipmentHealthReport() (*EquipmentHealthReport, error) {
	statusCounts, err := a.equipmentRepo.StatusCounts()
	if err != nil {
		return nil, fmt.Errorf("failed to count equipment statuses: %w", err)
	}

	total := 0
	for _, count := range statusCounts {
		total += count
	}

	healthScore := 0.0
	if total > 0 {
		healthScore = Round2(float64(statusCounts[models.EquipmentOperational]) / float64(total) * 100)
	}

	return &EquipmentHealthReport{
		TotalEquipment:        total,
		StatusBreakdown:       statusCounts,
		HealthScore:           healthScore,
		OperationalPercentage: healthScore,
	}, nil
}
