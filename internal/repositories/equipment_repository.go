package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"fitclub_backend/internal/models"

	"github.com/lib/pq" // For pq.Error
)

// EquipmentRepository defines the interface for equipment database operations.
type EquipmentRepository interface {
	CreateEquipment(executor SQLExecutor, eq *models.Equipment) (int64, error)
	GetEquipmentByID(id int64) (*models.Equipment, error)
	GetAllEquipment() ([]models.Equipment, error)
	UpdateEquipment(executor SQLExecutor, eq *models.Equipment) error
	RecordUsage(executor SQLExecutor, id int64, at time.Time) error
	StatusCounts() (map[models.EquipmentStatus]int, error)
}

type equipmentRepository struct {
	db *sql.DB
}

// NewEquipmentRepository creates a new instance of EquipmentRepository.
func NewEquipmentRepository(db *sql.DB) EquipmentRepository {
	return &equipmentRepository{db: db}
}

const equipmentColumns = `id, name, category, model, serial_number, status,
	total_usage_count, total_usage_hours, last_used_at,
	last_maintenance_date, next_maintenance_due, maintenance_notes,
	purchase_date, warranty_expiry, created_at, updated_at`

func scanEquipment(s scanner, eq *models.Equipment) error {
	var lastUsed, lastMaintenance, nextDue, purchase, warranty sql.NullTime
	err := s.Scan(
		&eq.ID, &eq.Name, &eq.Category, &eq.Model, &eq.SerialNumber, &eq.Status,
		&eq.TotalUsageCount, &eq.TotalUsageHours, &lastUsed,
		&lastMaintenance, &nextDue, &eq.MaintenanceNotes,
		&purchase, &warranty, &eq.CreatedAt, &eq.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if lastUsed.Valid {
		eq.LastUsedAt = &lastUsed.Time
	}
	if lastMaintenance.Valid {
		eq.LastMaintenanceDate = &lastMaintenance.Time
	}
	if nextDue.Valid {
		eq.NextMaintenanceDue = &nextDue.Time
	}
	if purchase.Valid {
		eq.PurchaseDate = &purchase.Time
	}
	if warranty.Valid {
		eq.WarrantyExpiry = &warranty.Time
	}
	return nil
}

// CreateEquipment inserts a new equipment row.
func (r *equipmentRepository) CreateEquipment(executor SQLExecutor, eq *models.Equipment) (int64, error) {
	query := `INSERT INTO equipment (name, category, model, serial_number, status,
	            total_usage_count, total_usage_hours, last_used_at,
	            last_maintenance_date, next_maintenance_due, maintenance_notes,
	            purchase_date, warranty_expiry, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	          RETURNING id`

	currentTime := time.Now()
	if eq.CreatedAt.IsZero() {
		eq.CreatedAt = currentTime
	}
	if eq.UpdatedAt.IsZero() {
		eq.UpdatedAt = currentTime
	}

	var lastUsed, lastMaintenance, nextDue, purchase, warranty sql.NullTime
	if eq.LastUsedAt != nil {
		lastUsed = sql.NullTime{Time: *eq.LastUsedAt, Valid: true}
	}
	if eq.LastMaintenanceDate != nil {
		lastMaintenance = sql.NullTime{Time: *eq.LastMaintenanceDate, Valid: true}
	}
	if eq.NextMaintenanceDue != nil {
		nextDue = sql.NullTime{Time: *eq.NextMaintenanceDue, Valid: true}
	}
	if eq.PurchaseDate != nil {
		purchase = sql.NullTime{Time: *eq.PurchaseDate, Valid: true}
	}
	if eq.WarrantyExpiry != nil {
		warranty = sql.NullTime{Time: *eq.WarrantyExpiry, Valid: true}
	}

	err := executor.QueryRow(query,
		eq.Name, eq.Category, eq.Model, eq.SerialNumber, eq.Status,
		eq.TotalUsageCount, eq.TotalUsageHours, lastUsed,
		lastMaintenance, nextDue, eq.MaintenanceNotes,
		purchase, warranty, eq.CreatedAt, eq.UpdatedAt,
	).Scan(&eq.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			if pqErr.Code.Name() == "unique_violation" {
				return 0, fmt.Errorf("%w: %s (constraint: %s)", ErrDuplicateKey, pqErr.Message, pqErr.Constraint)
			}
		}
		return 0, fmt.Errorf("%w: creating equipment: %v", ErrDatabaseError, err)
	}
	return eq.ID, nil
}

// GetEquipmentByID retrieves a piece of equipment by ID.
func (r *equipmentRepository) GetEquipmentByID(id int64) (*models.Equipment, error) {
	eq := &models.Equipment{}
	query := `SELECT ` + equipmentColumns + ` FROM equipment WHERE id = $1`

	err := scanEquipment(r.db.QueryRow(query, id), eq)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting equipment by ID %d: %v", ErrDatabaseError, id, err)
	}
	return eq, nil
}

// GetAllEquipment retrieves every equipment row.
func (r *equipmentRepository) GetAllEquipment() ([]models.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipment ORDER BY id ASC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying equipment: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	list := []models.Equipment{}
	for rows.Next() {
		var eq models.Equipment
		if err := scanEquipment(rows, &eq); err != nil {
			return nil, fmt.Errorf("%w: scanning equipment: %v", ErrDatabaseError, err)
		}
		list = append(list, eq)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating equipment rows: %v", ErrDatabaseError, err)
	}
	return list, nil
}

// UpdateEquipment updates an existing equipment row.
func (r *equipmentRepository) UpdateEquipment(executor SQLExecutor, eq *models.Equipment) error {
	query := `UPDATE equipment SET
	            name = $1, category = $2, model = $3, serial_number = $4, status = $5,
	            last_maintenance_date = $6, next_maintenance_due = $7, maintenance_notes = $8,
	            purchase_date = $9, warranty_expiry = $10, updated_at = $11
	          WHERE id = $12`

	eq.UpdatedAt = time.Now()

	var lastMaintenance, nextDue, purchase, warranty sql.NullTime
	if eq.LastMaintenanceDate != nil {
		lastMaintenance = sql.NullTime{Time: *eq.LastMaintenanceDate, Valid: true}
	}
	if eq.NextMaintenanceDue != nil {
		nextDue = sql.NullTime{Time: *eq.NextMaintenanceDue, Valid: true}
	}
	if eq.PurchaseDate != nil {
		purchase = sql.NullTime{Time: *eq.PurchaseDate, Valid: true}
	}
	if eq.WarrantyExpiry != nil {
		warranty = sql.NullTime{Time: *eq.WarrantyExpiry, Valid: true}
	}

	result, err := executor.Exec(query,
		eq.Name, eq.Category, eq.Model, eq.SerialNumber, eq.Status,
		lastMaintenance, nextDue, eq.MaintenanceNotes,
		purchase, warranty, eq.UpdatedAt, eq.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating equipment ID %d: %v", ErrDatabaseError, eq.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for updating equipment ID %d: %v", ErrDatabaseError, eq.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordUsage bumps the usage counter and last-used time for a piece of
// equipment.
func (r *equipmentRepository) RecordUsage(executor SQLExecutor, id int64, at time.Time) error {
	query := `UPDATE equipment SET total_usage_count = total_usage_count + 1, last_used_at = $1, updated_at = $1 WHERE id = $2`
	result, err := executor.Exec(query, at, id)
	if err != nil {
		return fmt.Errorf("%w: recording usage for equipment ID %d: %v", ErrDatabaseError, id, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for equipment ID %d: %v", ErrDatabaseError, id, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// StatusCounts returns how many equipment rows are in each status.
func (r *equipmentRepository) StatusCounts() (map[models.EquipmentStatus]int, error) {
	query := `SELECT status, COUNT(id) FROM equipment GROUP BY status`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("%w: querying equipment status counts: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	counts := map[models.EquipmentStatus]int{}
	for rows.Next() {
		var status models.EquipmentStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("%w: scanning equipment status count: %v", ErrDatabaseError, err)
		}
		counts[status] = count
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating equipment status counts: %v", ErrDatabaseError, err)
	}
	return counts, nil
}
