package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"fitclub_backend/internal/models"
	"fitclub_backend/internal/services"
	"fitclub_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// MemberHandler holds the member service.
type MemberHandler struct {
	memberService services.MemberService
}

// NewMemberHandler creates a new MemberHandler.
func NewMemberHandler(ms services.MemberService) *MemberHandler {
	return &MemberHandler{memberService: ms}
}

// CreateMember handles the creation of a new member profile.
func (h *MemberHandler) CreateMember(c *gin.Context) {
	var req services.CreateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreateMember: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	member, err := h.memberService.CreateMember(req)
	if err != nil {
		utils.LogError(err, "CreateMember: Error from memberService.CreateMember")
		if errors.Is(err, services.ErrMemberExists) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Member profile already exists for this user.", err.Error()))
		} else if errors.Is(err, services.ErrPlanNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Membership plan not found.", err.Error()))
		} else if errors.Is(err, services.ErrMemberValidation) || errors.Is(err, services.ErrDateFormat) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create member.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, member)
}

// GetMembers handles fetching all members with pagination.
func (h *MemberHandler) GetMembers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	members, totalCount, err := h.memberService.GetMembers(page, pageSize)
	if err != nil {
		utils.LogError(err, "GetMembers: Error from memberService.GetMembers")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch members.", "Internal error"))
		return
	}

	if members == nil {
		members = []models.Member{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      members,
		"total":     totalCount,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetMemberByID handles fetching a single member by ID.
func (h *MemberHandler) GetMemberByID(c *gin.Context) {
	idStr := c.Param("id")
	memberID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid member ID format.", err.Error()))
		return
	}

	member, err := h.memberService.GetMemberByID(memberID)
	if err != nil {
		utils.LogError(err, "GetMemberByID: Error from memberService.GetMemberByID for ID "+idStr)
		if errors.Is(err, services.ErrMemberNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch member.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, member)
}

// UpdateMember handles updating a member profile.
func (h *MemberHandler) UpdateMember(c *gin.Context) {
	idStr := c.Param("id")
	memberID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid member ID format.", err.Error()))
		return
	}

	var req services.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "UpdateMember: Failed to bind JSON for ID "+idStr)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	member, err := h.memberService.UpdateMember(memberID, req)
	if err != nil {
		utils.LogError(err, "UpdateMember: Error from memberService.UpdateMember for ID "+idStr)
		if errors.Is(err, services.ErrMemberNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member not found to update.", err.Error()))
		} else if errors.Is(err, services.ErrPlanNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Membership plan not found.", err.Error()))
		} else if errors.Is(err, services.ErrMemberValidation) || errors.Is(err, services.ErrDateFormat) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update member.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, member)
}

// CheckIn handles a member check-in by member ID or QR code.
func (h *MemberHandler) CheckIn(c *gin.Context) {
	var req services.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CheckIn: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	checkIn, err := h.memberService.CheckInMember(req)
	if err != nil {
		utils.LogError(err, "CheckIn: Error from memberService.CheckInMember")
		if errors.Is(err, services.ErrMemberNotFound) || errors.Is(err, services.ErrInvalidCheckInCode) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member not found.", err.Error()))
		} else if errors.Is(err, services.ErrAlreadyCheckedIn) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Member is already checked in.", err.Error()))
		} else if errors.Is(err, services.ErrMemberNotActive) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Membership is not active.", err.Error()))
		} else if errors.Is(err, services.ErrMemberValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to check in member.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, checkIn)
}

// CheckOut handles closing a member's open check-in.
func (h *MemberHandler) CheckOut(c *gin.Context) {
	idStr := c.Param("id")
	memberID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid member ID format.", err.Error()))
		return
	}

	checkIn, err := h.memberService.CheckOutMember(memberID)
	if err != nil {
		utils.LogError(err, "CheckOut: Error from memberService.CheckOutMember for ID "+idStr)
		if errors.Is(err, services.ErrNoOpenCheckIn) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member has no open check-in.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to check out member.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, checkIn)
}
