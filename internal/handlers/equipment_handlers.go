package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"fitclub_backend/internal/services"
	"fitclub_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// EquipmentHandler holds the equipment service.
type EquipmentHandler struct {
	equipmentService services.EquipmentService
}

// NewEquipmentHandler creates a new EquipmentHandler.
func NewEquipmentHandler(es services.EquipmentService) *EquipmentHandler {
	return &EquipmentHandler{equipmentService: es}
}

// CreateEquipment handles registering a new piece of equipment.
func (h *EquipmentHandler) CreateEquipment(c *gin.Context) {
	var req services.CreateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateEquipment: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	eq, err := h.equipmentService.CreateEquipment(req)
	if err != nil {
		utils.LogError(err, "CreateEquipment: Error from equipmentService.CreateEquipment")
		if errors.Is(err, services.ErrEquipmentExists) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Equipment with this serial number already exists.", err.Error()))
		} else if errors.Is(err, services.ErrEquipmentValidation) || errors.Is(err, services.ErrDateFormat) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create equipment.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, eq)
}

// GetEquipment handles fetching all equipment.
func (h *EquipmentHandler) GetEquipment(c *gin.Context) {
	equipment, err := h.equipmentService.GetAllEquipment()
	if err != nil {
		utils.LogError(err, "GetEquipment: Error from equipmentService.GetAllEquipment")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch equipment.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, equipment)
}

// GetEquipmentByID handles fetching one piece of equipment by ID.
func (h *EquipmentHandler) GetEquipmentByID(c *gin.Context) {
	idStr := c.Param("id")
	equipmentID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid equipment ID format.", err.Error()))
		return
	}

	eq, err := h.equipmentService.GetEquipmentByID(equipmentID)
	if err != nil {
		utils.LogError(err, "GetEquipmentByID: Error from equipmentService.GetEquipmentByID for ID "+idStr)
		if errors.Is(err, services.ErrEquipmentNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Equipment not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch equipment.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, eq)
}

// UpdateEquipment handles updating a piece of equipment.
func (h *EquipmentHandler) UpdateEquipment(c *gin.Context) {
	idStr := c.Param("id")
	equipmentID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid equipment ID format.", err.Error()))
		return
	}

	var req services.UpdateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateEquipment: Failed to bind JSON for ID "+idStr)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	eq, err := h.equipmentService.UpdateEquipment(equipmentID, req)
	if err != nil {
		utils.LogError(err, "UpdateEquipment: Error from equipmentService.UpdateEquipment for ID "+idStr)
		if errors.Is(err, services.ErrEquipmentNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Equipment not found to update.", err.Error()))
		} else if errors.Is(err, services.ErrEquipmentValidation) || errors.Is(err, services.ErrDateFormat) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update equipment.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, eq)
}

// RecordUsage handles bumping a unit's usage counter.
func (h *EquipmentHandler) RecordUsage(c *gin.Context) {
	idStr := c.Param("id")
	equipmentID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid equipment ID format.", err.Error()))
		return
	}

	eq, err := h.equipmentService.RecordUsage(equipmentID)
	if err != nil {
		utils.LogError(err, "RecordUsage: Error from equipmentService.RecordUsage for ID "+idStr)
		if errors.Is(err, services.ErrEquipmentNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Equipment not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to record usage.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, eq)
}

// MarkMaintenanceDone handles closing out a maintenance cycle.
func (h *EquipmentHandler) MarkMaintenanceDone(c *gin.Context) {
	idStr := c.Param("id")
	equipmentID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid equipment ID format.", err.Error()))
		return
	}

	var req struct {
		Notes *string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	eq, err := h.equipmentService.MarkMaintenanceDone(equipmentID, req.Notes)
	if err != nil {
		utils.LogError(err, "MarkMaintenanceDone: Error from equipmentService.MarkMaintenanceDone for ID "+idStr)
		if errors.Is(err, services.ErrEquipmentNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Equipment not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to mark maintenance done.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, eq)
}
