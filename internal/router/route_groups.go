package router

import (
	"fitclub_backend/internal/handlers"
	"fitclub_backend/internal/middleware"
	"fitclub_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupMemberRoutes sets up the member profile and check-in routes.
// Check-in and check-out are front-desk operations, so trainers can use them
// too; profile writes stay with staff and admins.
func SetupMemberRoutes(authenticatedGroup *gin.RouterGroup, memberHandler *handlers.MemberHandler) {
	memberRoutes := authenticatedGroup.Group("/members")
	memberRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
	{
		memberRoutes.POST("", memberHandler.CreateMember)
		memberRoutes.GET("", memberHandler.GetMembers)
		memberRoutes.GET("/:id", memberHandler.GetMemberByID)
		memberRoutes.PUT("/:id", memberHandler.UpdateMember)
	}

	checkInRoutes := authenticatedGroup.Group("/check-ins")
	checkInRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff, models.RoleTrainer))
	{
		checkInRoutes.POST("", memberHandler.CheckIn)
		checkInRoutes.POST("/:id/check-out", memberHandler.CheckOut)
	}
}

// SetupPlanRoutes sets up the membership plan routes. Reads are open to any
// authenticated user so members can browse plans; writes are admin only.
func SetupPlanRoutes(authenticatedGroup *gin.RouterGroup, planHandler *handlers.PlanHandler) {
	planWriteRoutes := authenticatedGroup.Group("/plans")
	planWriteRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		planWriteRoutes.POST("", planHandler.CreatePlan)
		planWriteRoutes.PUT("/:id", planHandler.UpdatePlan)
		planWriteRoutes.DELETE("/:id", planHandler.DeactivatePlan)
	}

	authenticatedGroup.GET("/plans", planHandler.GetPlans)
	authenticatedGroup.GET("/plans/:id", planHandler.GetPlanByID)
}

// SetupEquipmentRoutes sets up the equipment routes.
func SetupEquipmentRoutes(authenticatedGroup *gin.RouterGroup, equipmentHandler *handlers.EquipmentHandler) {
	equipmentRoutes := authenticatedGroup.Group("/equipment")
	equipmentRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
	{
		equipmentRoutes.POST("", equipmentHandler.CreateEquipment)
		equipmentRoutes.GET("", equipmentHandler.GetEquipment)
		equipmentRoutes.GET("/:id", equipmentHandler.GetEquipmentByID)
		equipmentRoutes.PUT("/:id", equipmentHandler.UpdateEquipment)
		equipmentRoutes.POST("/:id/usage", equipmentHandler.RecordUsage)
		equipmentRoutes.POST("/:id/maintenance-done", equipmentHandler.MarkMaintenanceDone)
	}
}

// SetupPaymentRoutes sets up the payment routes. Status transitions and the
// retry queue are billing operations, restricted to staff and admins.
func SetupPaymentRoutes(authenticatedGroup *gin.RouterGroup, paymentHandler *handlers.PaymentHandler) {
	paymentRoutes := authenticatedGroup.Group("/payments")
	paymentRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
	{
		paymentRoutes.POST("", paymentHandler.CreatePayment)
		paymentRoutes.GET("/retryable", paymentHandler.GetRetryablePayments)
		paymentRoutes.GET("/:id", paymentHandler.GetPaymentByID)
		paymentRoutes.GET("/:id/history", paymentHandler.GetPaymentHistory)
		paymentRoutes.PATCH("/:id/status", paymentHandler.TransitionPayment)
		paymentRoutes.POST("/:id/fail", paymentHandler.FailPayment)
	}

	memberPaymentRoutes := authenticatedGroup.Group("/members/:id")
	memberPaymentRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
	{
		memberPaymentRoutes.GET("/payments", paymentHandler.GetMemberPayments)
		memberPaymentRoutes.GET("/revenue", paymentHandler.GetMemberRevenue)
	}
}

// SetupAgentRoutes sets up the analysis agent routes.
func SetupAgentRoutes(authenticatedGroup *gin.RouterGroup, agentHandler *handlers.AgentHandler) {
	agentRoutes := authenticatedGroup.Group("/agents")
	agentRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleStaff))
	{
		agentRoutes.POST("/:name/execute", agentHandler.ExecuteAgent)
		agentRoutes.POST("/:name/analyze", agentHandler.AnalyzeWithAgent)

		agentRoutes.GET("/engagement/at-risk-members", agentHandler.GetAtRiskMembers)
		agentRoutes.GET("/operations/maintenance-predictions", agentHandler.GetMaintenancePredictions)
		agentRoutes.GET("/operations/capacity-analysis", agentHandler.GetCapacityAnalysis)
		agentRoutes.GET("/financial/revenue-forecast", agentHandler.GetRevenueForecast)
		agentRoutes.GET("/financial/expiring-memberships", agentHandler.GetExpiringMemberships)
		agentRoutes.GET("/financial/retry-strategy", agentHandler.GetRetryStrategy)
	}
}
