package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"fitclub_backend/internal/services"
	"fitclub_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// PaymentHandler holds the payment service.
type PaymentHandler struct {
	paymentService services.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(ps services.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: ps}
}

// CreatePayment handles the creation of a new payment.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var req services.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "CreatePayment: Failed to bind JSON")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	payment, err := h.paymentService.CreatePayment(req)
	if err != nil {
		utils.LogError(err, "CreatePayment: Error from paymentService.CreatePayment")
		if errors.Is(err, services.ErrMemberNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Member not found.", err.Error()))
		} else if errors.Is(err, services.ErrPaymentValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to create payment.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// GetPaymentByID handles fetching a single payment by ID.
func (h *PaymentHandler) GetPaymentByID(c *gin.Context) {
	idStr := c.Param("id")
	paymentID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid payment ID format.", err.Error()))
		return
	}

	payment, err := h.paymentService.GetPayment(paymentID)
	if err != nil {
		utils.LogError(err, "GetPaymentByID: Error from paymentService.GetPayment for ID "+idStr)
		if errors.Is(err, services.ErrPaymentNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Payment not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch payment.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, payment)
}

// GetMemberPayments handles listing a member's payments, newest first.
func (h *PaymentHandler) GetMemberPayments(c *gin.Context) {
	idStr := c.Param("id")
	memberID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid member ID format.", err.Error()))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	payments, err := h.paymentService.GetMemberPayments(memberID, limit)
	if err != nil {
		utils.LogError(err, "GetMemberPayments: Error from paymentService.GetMemberPayments for member "+idStr)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch payments.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, payments)
}

// GetPaymentHistory handles fetching a payment's audit trail.
func (h *PaymentHandler) GetPaymentHistory(c *gin.Context) {
	idStr := c.Param("id")
	paymentID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid payment ID format.", err.Error()))
		return
	}

	history, err := h.paymentService.GetPaymentHistory(paymentID)
	if err != nil {
		utils.LogError(err, "GetPaymentHistory: Error from paymentService.GetPaymentHistory for ID "+idStr)
		if errors.Is(err, services.ErrPaymentNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Payment not found.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch payment history.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, history)
}

// TransitionPayment handles moving a payment to a new status.
func (h *PaymentHandler) TransitionPayment(c *gin.Context) {
	idStr := c.Param("id")
	paymentID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid payment ID format.", err.Error()))
		return
	}

	var req services.TransitionPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "TransitionPayment: Failed to bind JSON for ID "+idStr)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	payment, err := h.paymentService.TransitionPayment(paymentID, req.Status, req.Metadata)
	if err != nil {
		utils.LogError(err, "TransitionPayment: Error from paymentService.TransitionPayment for ID "+idStr)
		if errors.Is(err, services.ErrPaymentNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Payment not found.", err.Error()))
		} else if errors.Is(err, services.ErrInvalidTransition) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Invalid payment status transition.", err.Error()))
		} else if errors.Is(err, services.ErrConcurrentPaymentUpdate) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Payment was modified concurrently, retry.", err.Error()))
		} else if errors.Is(err, services.ErrPaymentValidation) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed: "+err.Error(), err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to update payment.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, payment)
}

// FailPayment handles recording a payment failure with retry scheduling.
func (h *PaymentHandler) FailPayment(c *gin.Context) {
	idStr := c.Param("id")
	paymentID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid payment ID format.", err.Error()))
		return
	}

	var req services.FailPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "FailPayment: Failed to bind JSON for ID "+idStr)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	payment, err := h.paymentService.MarkPaymentFailed(paymentID, req)
	if err != nil {
		utils.LogError(err, "FailPayment: Error from paymentService.MarkPaymentFailed for ID "+idStr)
		if errors.Is(err, services.ErrPaymentNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Payment not found.", err.Error()))
		} else if errors.Is(err, services.ErrInvalidTransition) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Invalid payment status transition.", err.Error()))
		} else if errors.Is(err, services.ErrConcurrentPaymentUpdate) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Payment was modified concurrently, retry.", err.Error()))
		} else {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to record payment failure.", "Internal error"))
		}
		return
	}
	c.JSON(http.StatusOK, payment)
}

// GetRetryablePayments lists failed payments whose retry window has opened.
func (h *PaymentHandler) GetRetryablePayments(c *gin.Context) {
	payments, err := h.paymentService.GetRetryablePayments(time.Now())
	if err != nil {
		utils.LogError(err, "GetRetryablePayments: Error from paymentService.GetRetryablePayments")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to fetch retryable payments.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, payments)
}

// GetMemberRevenue summarises a member's succeeded payments.
func (h *PaymentHandler) GetMemberRevenue(c *gin.Context) {
	idStr := c.Param("id")
	memberID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid member ID format.", err.Error()))
		return
	}

	revenue, err := h.paymentService.CalculateMemberRevenue(memberID)
	if err != nil {
		utils.LogError(err, "GetMemberRevenue: Error from paymentService.CalculateMemberRevenue for member "+idStr)
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to calculate member revenue.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, revenue)
}
