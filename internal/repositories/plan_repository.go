package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fitclub_backend/internal/models"
)

// PlanRepository defines the interface for membership plan database operations.
type PlanRepository interface {
	CreatePlan(executor SQLExecutor, plan *models.MembershipPlan) (int64, error)
	GetPlanByID(id int64) (*models.MembershipPlan, error)
	GetPlans(activeOnly bool) ([]models.MembershipPlan, error)
	UpdatePlan(executor SQLExecutor, plan *models.MembershipPlan) error
	DeactivatePlan(executor SQLExecutor, id int64) error
	GetActivePlanDistribution() ([]models.PlanDistributionEntry, error)
	SumActiveMonthlyRevenue() (float64, error)
}

type planRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new instance of PlanRepository.
func NewPlanRepository(db *sql.DB) PlanRepository {
	return &planRepository{db: db}
}

const planColumns = `id, name, description, price, duration_days, is_active, features, max_classes_per_month, has_personal_trainer, created_at, updated_at`

func scanPlan(s scanner, plan *models.MembershipPlan) error {
	var maxClasses sql.NullInt64
	err := s.Scan(
		&plan.ID, &plan.Name, &plan.Description, &plan.Price, &plan.DurationDays,
		&plan.IsActive, &plan.Features, &maxClasses, &plan.HasPersonalTrainer,
		&plan.CreatedAt, &plan.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if maxClasses.Valid {
		v := int(maxClasses.Int64)
		plan.MaxClassesPerMonth = &v
	}
	return nil
}

// CreatePlan inserts a new membership plan.
func (r *planRepository) CreatePlan(executor SQLExecutor, plan *models.MembershipPlan) (int64, error) {
	query := `INSERT INTO membership_plans (name, description, price, duration_days, is_active, features, max_classes_per_month, has_personal_trainer, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`

	currentTime := time.Now()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = currentTime
	}
	if plan.UpdatedAt.IsZero() {
		plan.UpdatedAt = currentTime
	}

	var maxClasses sql.NullInt64
	if plan.MaxClassesPerMonth != nil {
		maxClasses = sql.NullInt64{Int64: int64(*plan.MaxClassesPerMonth), Valid: true}
	}

	err := executor.QueryRow(query,
		plan.Name, plan.Description, plan.Price, plan.DurationDays, plan.IsActive,
		plan.Features, maxClasses, plan.HasPersonalTrainer, plan.CreatedAt, plan.UpdatedAt,
	).Scan(&plan.ID)
	if err != nil {
		return 0, fmt.Errorf("%w: creating membership plan: %v", ErrDatabaseError, err)
	}
	return plan.ID, nil
}

// GetPlanByID retrieves a membership plan by ID.
func (r *planRepository) GetPlanByID(id int64) (*models.MembershipPlan, error) {
	plan := &models.MembershipPlan{}
	query := `SELECT ` + planColumns + ` FROM membership_plans WHERE id = $1`

	err := scanPlan(r.db.QueryRow(query, id), plan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting plan by ID %d: %v", ErrDatabaseError, id, err)
	}
	return plan, nil
}

// GetPlans retrieves membership plans, optionally only active ones.
func (r *planRepository) GetPlans(activeOnly bool) ([]models.MembershipPlan, error) {
	query := `SELECT ` + planColumns + ` FROM membership_plans`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY price ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying membership plans: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	plans := []models.MembershipPlan{}
	for rows.Next() {
		var plan models.MembershipPlan
		if err := scanPlan(rows, &plan); err != nil {
			return nil, fmt.Errorf("%w: scanning membership plan: %v", ErrDatabaseError, err)
		}
		plans = append(plans, plan)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating membership plan rows: %v", ErrDatabaseError, err)
	}
	return plans, nil
}

// UpdatePlan updates an existing membership plan.
func (r *planRepository) UpdatePlan(executor SQLExecutor, plan *models.MembershipPlan) error {
	query := `UPDATE membership_plans SET
	            name = $1, description = $2, price = $3, duration_days = $4, is_active = $5,
	            features = $6, max_classes_per_month = $7, has_personal_trainer = $8, updated_at = $9
	          WHERE id = $10`

	plan.UpdatedAt = time.Now()

	var maxClasses sql.NullInt64
	if plan.MaxClassesPerMonth != nil {
		maxClasses = sql.NullInt64{Int64: int64(*plan.MaxClassesPerMonth), Valid: true}
	}

	result, err := executor.Exec(query,
		plan.Name, plan.Description, plan.Price, plan.DurationDays, plan.IsActive,
		plan.Features, maxClasses, plan.HasPersonalTrainer, plan.UpdatedAt, plan.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating plan ID %d: %v", ErrDatabaseError, plan.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for updating plan ID %d: %v", ErrDatabaseError, plan.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeactivatePlan soft-deletes a plan by clearing its active flag.
func (r *planRepository) DeactivatePlan(executor SQLExecutor, id int64) error {
	query := `UPDATE membership_plans SET is_active = FALSE, updated_at = $1 WHERE id = $2`
	result, err := executor.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("%w: deactivating plan ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for deactivating plan ID %d: %v", ErrDatabaseError, id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// GetActivePlanDistribution returns, per plan, the price and the number of
// active members on it. Feeds the revenue forecast.
func (r *planRepository) GetActivePlanDistribution() ([]models.PlanDistributionEntry, error) {
	query := `SELECT p.id, p.price, COUNT(m.id) AS member_count
	          FROM membership_plans p
	          JOIN members m ON m.membership_plan_id = p.id
	          WHERE m.membership_status = $1
	          GROUP BY p.id, p.price
	          ORDER BY p.id ASC`

	rows, err := r.db.Query(query, models.MembershipActive)
	if err != nil {
		return nil, fmt.Errorf("%w: querying plan distribution: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	entries := []models.PlanDistributionEntry{}
	for rows.Next() {
		var e models.PlanDistributionEntry
		if err := rows.Scan(&e.PlanID, &e.Price, &e.Members); err != nil {
			return nil, fmt.Errorf("%w: scanning plan distribution entry: %v", ErrDatabaseError, err)
		}
		e.Revenue = e.Price * float64(e.Members)
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating plan distribution rows: %v", ErrDatabaseError, err)
	}
	return entries, nil
}

// SumActiveMonthlyRevenue sums plan prices over all active memberships.
func (r *planRepository) SumActiveMonthlyRevenue() (float64, error) {
	var mrr sql.NullFloat64
	query := `SELECT SUM(p.price)
	          FROM membership_plans p
	          JOIN members m ON m.membership_plan_id = p.id
	          WHERE m.membership_status = $1`

	err := r.db.QueryRow(query, models.MembershipActive).Scan(&mrr)
	if err != nil {
		return 0, fmt.Errorf("%w: summing active monthly revenue: %v", ErrDatabaseError, err)
	}
	if !mrr.Valid {
		return 0, nil
	}
	return mrr.Float64, nil
}
