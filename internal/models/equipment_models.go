package models

import "time"

// EquipmentStatus enumerates the operational states of a piece of equipment.
type EquipmentStatus string

const (
	EquipmentOperational       EquipmentStatus = "operational"
	EquipmentMaintenanceNeeded EquipmentStatus = "maintenance_needed"
	EquipmentUnderMaintenance  EquipmentStatus = "under_maintenance"
	EquipmentOutOfService      EquipmentStatus = "out_of_service"
)

// EquipmentCategory enumerates the equipment categories on the gym floor.
type EquipmentCategory string

const (
	CategoryCardio      EquipmentCategory = "cardio"
	CategoryStrength    EquipmentCategory = "strength"
	CategoryFreeWeights EquipmentCategory = "free_weights"
	CategoryFunctional  EquipmentCategory = "functional"
	CategoryOther       EquipmentCategory = "other"
)

// Equipment represents a tracked piece of gym equipment.
type Equipment struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name" db:"name"`
	Category     EquipmentCategory `json:"category" db:"category"`
	Model        *string           `json:"model,omitempty" db:"model"`
	SerialNumber *string           `json:"serial_number,omitempty" db:"serial_number"`
	Status       EquipmentStatus   `json:"status" db:"status"`

	// Usage tracking
	TotalUsageCount int        `json:"total_usage_count" db:"total_usage_count"`
	TotalUsageHours int        `json:"total_usage_hours" db:"total_usage_hours"`
	LastUsedAt      *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`

	// Maintenance tracking
	LastMaintenanceDate *time.Time `json:"last_maintenance_date,omitempty" db:"last_maintenance_date"`
	NextMaintenanceDue  *time.Time `json:"next_maintenance_due,omitempty" db:"next_maintenance_due"`
	MaintenanceNotes    *string    `json:"maintenance_notes,omitempty" db:"maintenance_notes"`

	// Purchase information
	PurchaseDate   *time.Time `json:"purchase_date,omitempty" db:"purchase_date"`
	WarrantyExpiry *time.Time `json:"warranty_expiry,omitempty" db:"warranty_expiry"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
