package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fitclub_backend/internal/models"
	"fitclub_backend/internal/repositories"
)

// --- Custom Service Errors for Plan ---
var (
	ErrPlanNotFound   = errors.New("membership plan not found")
	ErrPlanNameExists = errors.New("a plan with this name already exists")
	ErrPlanValidation = errors.New("plan data validation error")
)

// --- Plan DTOs ---

type CreatePlanRequest struct {
	Name               string  `json:"name" binding:"required"`
	Description        *string `json:"description"`
	Price              float64 `json:"price" binding:"required,gte=0"`
	DurationDays       int     `json:"duration_days" binding:"required,gt=0"`
	Features           *string `json:"features"`
	MaxClassesPerMonth *int    `json:"max_classes_per_month"`
	HasPersonalTrainer bool    `json:"has_personal_trainer"`
}

type UpdatePlanRequest struct {
	Name               *string  `json:"name"`
	Description        *string  `json:"description"`
	Price              *float64 `json:"price"`
	DurationDays       *int     `json:"duration_days"`
	IsActive           *bool    `json:"is_active"`
	Features           *string  `json:"features"`
	MaxClassesPerMonth *int     `json:"max_classes_per_month"`
	HasPersonalTrainer *bool    `json:"has_personal_trainer"`
}

// --- PlanService Interface ---
type PlanService interface {
	CreatePlan(req CreatePlanRequest) (*models.MembershipPlan, error)
	GetPlanByID(planID int64) (*models.MembershipPlan, error)
	GetPlans(activeOnly bool) ([]models.MembershipPlan, error)
	UpdatePlan(planID int64, req UpdatePlanRequest) (*models.MembershipPlan, error)
	DeactivatePlan(planID int64) error
}

// --- planService Implementation ---
type planService struct {
	planRepo repositories.PlanRepository
	db       *sql.DB
}

// NewPlanService creates a new instance of PlanService.
func NewPlanService(repo repositories.PlanRepository, db *sql.DB) PlanService {
	return &planService{
		planRepo: repo,
		db:       db,
	}
}

func (s *planService) CreatePlan(req CreatePlanRequest) (*models.MembershipPlan, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrPlanValidation)
	}
	if req.Price < 0 {
		return nil, fmt.Errorf("%w: price cannot be negative", ErrPlanValidation)
	}
	if req.DurationDays <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", ErrPlanValidation)
	}

	plan := &models.MembershipPlan{
		Name:               req.Name,
		Description:        req.Description,
		Price:              req.Price,
		DurationDays:       req.DurationDays,
		IsActive:           true,
		Features:           req.Features,
		MaxClassesPerMonth: req.MaxClassesPerMonth,
		HasPersonalTrainer: req.HasPersonalTrainer,
	}

	id, err := s.planRepo.CreatePlan(s.db, plan)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrPlanNameExists
		}
		return nil, fmt.Errorf("failed to create plan in repository: %w", err)
	}
	return s.planRepo.GetPlanByID(id)
}

func (s *planService) GetPlanByID(planID int64) (*models.MembershipPlan, error) {
	plan, err := s.planRepo.GetPlanByID(planID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to get plan by ID: %w", err)
	}
	return plan, nil
}

func (s *planService) GetPlans(activeOnly bool) ([]models.MembershipPlan, error) {
	plans, err := s.planRepo.GetPlans(activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to get plans: %w", err)
	}
	return plans, nil
}

func (s *planService) UpdatePlan(planID int64, req UpdatePlanRequest) (*models.MembershipPlan, error) {
	plan, err := s.planRepo.GetPlanByID(planID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to find plan for update: %w", err)
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrPlanValidation)
		}
		plan.Name = *req.Name
	}
	if req.Description != nil {
		plan.Description = req.Description
	}
	if req.Price != nil {
		if *req.Price < 0 {
			return nil, fmt.Errorf("%w: price cannot be negative", ErrPlanValidation)
		}
		plan.Price = *req.Price
	}
	if req.DurationDays != nil {
		if *req.DurationDays <= 0 {
			return nil, fmt.Errorf("%w: duration must be positive", ErrPlanValidation)
		}
		plan.DurationDays = *req.DurationDays
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}
	if req.Features != nil {
		plan.Features = req.Features
	}
	if req.MaxClassesPerMonth != nil {
		plan.MaxClassesPerMonth = req.MaxClassesPerMonth
	}
	if req.HasPersonalTrainer != nil {
		plan.HasPersonalTrainer = *req.HasPersonalTrainer
	}

	if err := s.planRepo.UpdatePlan(s.db, plan); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrPlanNameExists
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to update plan in repository: %w", err)
	}
	return s.planRepo.GetPlanByID(planID)
}

// DeactivatePlan soft-deletes a plan. Existing members keep their plan
// reference; the plan just stops being purchasable.
func (s *planService) DeactivatePlan(planID int64) error {
	if _, err := s.GetPlanByID(planID); err != nil {
		return err
	}
	if err := s.planRepo.DeactivatePlan(s.db, planID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrPlanNotFound
		}
		return fmt.Errorf("failed to deactivate plan: %w", err)
	}
	return nil
}
