package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fitclub_backend/internal/models"
	"fitclub_backend/internal/repositories"
)

// --- Custom Service Errors for Equipment ---
var (
	ErrEquipmentNotFound   = errors.New("equipment not found")
	ErrEquipmentExists     = errors.New("equipment with this serial number already exists")
	ErrEquipmentValidation = errors.New("equipment data validation error")
)

// --- Equipment DTOs ---

type CreateEquipmentRequest struct {
	Name           string  `json:"name" binding:"required"`
	Category       string  `json:"category" binding:"required"`
	Model          *string `json:"model"`
	SerialNumber   *string `json:"serial_number"`
	PurchaseDate   *string `json:"purchase_date"` // Format YYYY-MM-DD
	WarrantyExpiry *string `json:"warranty_expiry"`
}

type UpdateEquipmentRequest struct {
	Name                *string `json:"name"`
	Category            *string `json:"category"`
	Model               *string `json:"model"`
	SerialNumber        *string `json:"serial_number"`
	Status              *string `json:"status"`
	LastMaintenanceDate *string `json:"last_maintenance_date"` // Format YYYY-MM-DD
	NextMaintenanceDue  *string `json:"next_maintenance_due"`
	MaintenanceNotes    *string `json:"maintenance_notes"`
}

// --- EquipmentService Interface ---
type EquipmentService interface {
	CreateEquipment(req CreateEquipmentRequest) (*models.Equipment, error)
	GetEquipmentByID(equipmentID int64) (*models.Equipment, error)
	GetAllEquipment() ([]models.Equipment, error)
	UpdateEquipment(equipmentID int64, req UpdateEquipmentRequest) (*models.Equipment, error)
	RecordUsage(equipmentID int64) (*models.Equipment, error)
	MarkMaintenanceDone(equipmentID int64, notes *string) (*models.Equipment, error)
}

// --- equipmentService Implementation ---
type equipmentService struct {
	equipmentRepo repositories.EquipmentRepository
	db            *sql.DB
}

// NewEquipmentService creates a new instance of EquipmentService.
func NewEquipmentService(repo repositories.EquipmentRepository, db *sql.DB) EquipmentService {
	return &equipmentService{
		equipmentRepo: repo,
		db:            db,
	}
}

func parseEquipmentCategory(raw string) (models.EquipmentCategory, error) {
	category := models.EquipmentCategory(strings.ToLower(strings.TrimSpace(raw)))
	switch category {
	case models.CategoryCardio, models.CategoryStrength, models.CategoryFreeWeights, models.CategoryFunctional, models.CategoryOther:
		return category, nil
	default:
		return "", fmt.Errorf("%w: unknown category '%s'", ErrEquipmentValidation, raw)
	}
}

func parseEquipmentStatus(raw string) (models.EquipmentStatus, error) {
	status := models.EquipmentStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case models.EquipmentOperational, models.EquipmentMaintenanceNeeded, models.EquipmentUnderMaintenance, models.EquipmentOutOfService:
		return status, nil
	default:
		return "", fmt.Errorf("%w: unknown status '%s'", ErrEquipmentValidation, raw)
	}
}

func (s *equipmentService) CreateEquipment(req CreateEquipmentRequest) (*models.Equipment, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrEquipmentValidation)
	}
	category, err := parseEquipmentCategory(req.Category)
	if err != nil {
		return nil, err
	}
	purchaseDate, err := parseDate(req.PurchaseDate)
	if err != nil {
		return nil, err
	}
	warrantyExpiry, err := parseDate(req.WarrantyExpiry)
	if err != nil {
		return nil, err
	}

	eq := &models.Equipment{
		Name:           req.Name,
		Category:       category,
		Model:          req.Model,
		SerialNumber:   req.SerialNumber,
		Status:         models.EquipmentOperational,
		PurchaseDate:   purchaseDate,
		WarrantyExpiry: warrantyExpiry,
	}

	id, err := s.equipmentRepo.CreateEquipment(s.db, eq)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrEquipmentExists
		}
		return nil, fmt.Errorf("failed to create equipment in repository: %w", err)
	}
	return s.equipmentRepo.GetEquipmentByID(id)
}

func (s *equipmentService) GetEquipmentByID(equipmentID int64) (*models.Equipment, error) {
	eq, err := s.equipmentRepo.GetEquipmentByID(equipmentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("failed to get equipment by ID: %w", err)
	}
	return eq, nil
}

func (s *equipmentService) GetAllEquipment() ([]models.Equipment, error) {
	equipment, err := s.equipmentRepo.GetAllEquipment()
	if err != nil {
		return nil, fmt.Errorf("failed to get equipment list: %w", err)
	}
	return equipment, nil
}

func (s *equipmentService) UpdateEquipment(equipmentID int64, req UpdateEquipmentRequest) (*models.Equipment, error) {
	eq, err := s.equipmentRepo.GetEquipmentByID(equipmentID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("failed to find equipment for update: %w", err)
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrEquipmentValidation)
		}
		eq.Name = *req.Name
	}
	if req.Category != nil {
		category, err := parseEquipmentCategory(*req.Category)
		if err != nil {
			return nil, err
		}
		eq.Category = category
	}
	if req.Model != nil {
		eq.Model = req.Model
	}
	if req.SerialNumber != nil {
		eq.SerialNumber = req.SerialNumber
	}
	if req.Status != nil {
		status, err := parseEquipmentStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		eq.Status = status
	}
	if req.LastMaintenanceDate != nil {
		d, parseErr := parseDate(req.LastMaintenanceDate)
		if parseErr != nil {
			return nil, parseErr
		}
		eq.LastMaintenanceDate = d
	}
	if req.NextMaintenanceDue != nil {
		d, parseErr := parseDate(req.NextMaintenanceDue)
		if parseErr != nil {
			return nil, parseErr
		}
		eq.NextMaintenanceDue = d
	}
	if req.MaintenanceNotes != nil {
		eq.MaintenanceNotes = req.MaintenanceNotes
	}

	if err := s.equipmentRepo.UpdateEquipment(s.db, eq); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("failed to update equipment in repository: %w", err)
	}
	return s.equipmentRepo.GetEquipmentByID(equipmentID)
}

// RecordUsage bumps the usage counter, typically called from a workout
// logging integration or the floor tablet.
func (s *equipmentService) RecordUsage(equipmentID int64) (*models.Equipment, error) {
	if _, err := s.GetEquipmentByID(equipmentID); err != nil {
		return nil, err
	}
	if err := s.equipmentRepo.RecordUsage(s.db, equipmentID, time.Now()); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEquipmentNotFound
		}
		return nil, fmt.Errorf("failed to record equipment usage: %w", err)
	}
	return s.equipmentRepo.GetEquipmentByID(equipmentID)
}

// MarkMaintenanceDone resets the maintenance clock and puts the unit back in
// service.
func (s *equipmentService) MarkMaintenanceDone(equipmentID int64, notes *string) (*models.Equipment, error) {
	eq, err := s.GetEquipmentByID(equipmentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	eq.Status = models.EquipmentOperational
	eq.LastMaintenanceDate = &now
	eq.NextMaintenanceDue = nil
	if notes != nil {
		eq.MaintenanceNotes = notes
	}

	if err := s.equipmentRepo.UpdateEquipment(s.db, eq); err != nil {
		return nil, fmt.Errorf("failed to update equipment after maintenance: %w", err)
	}
	return s.equipmentRepo.GetEquipmentByID(equipmentID)
}
