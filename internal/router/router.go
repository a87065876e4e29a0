package router

import (
	"database/sql"
	"time"

	"fitclub_backend/internal/agents"
	"fitclub_backend/internal/handlers"
	"fitclub_backend/internal/integrations"
	"fitclub_backend/internal/middleware"
	"fitclub_backend/internal/repositories"
	"fitclub_backend/internal/services"
	"fitclub_backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB) {
	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	memberRepo := repositories.NewMemberRepository(db)
	checkInRepo := repositories.NewCheckInRepository(db)
	planRepo := repositories.NewPlanRepository(db)
	equipmentRepo := repositories.NewEquipmentRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)

	// Initialize Integrations
	cards := integrations.NewStripeClient(utils.Getenv("STRIPE_API_KEY", ""))
	notifier := integrations.NewLogNotifier()
	textGen := integrations.NewCannedTextGenerator()

	// Initialize Services
	authService := services.NewAuthService(authRepo, db)
	memberService := services.NewMemberService(memberRepo, checkInRepo, planRepo, db)
	planService := services.NewPlanService(planRepo, db)
	equipmentService := services.NewEquipmentService(equipmentRepo, db)
	paymentService := services.NewPaymentService(paymentRepo, memberRepo, cards, db)

	// Initialize Agents
	runner := agents.NewRunner(agentTimeout())
	engagementAgent := agents.NewEngagementAgent(memberRepo, textGen, notifier, 0)
	operationsAgent := agents.NewOperationsAgent(equipmentRepo, checkInRepo, 0)
	financialAgent := agents.NewFinancialAgent(memberRepo, planRepo, 0)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	memberHandler := handlers.NewMemberHandler(memberService)
	planHandler := handlers.NewPlanHandler(planService)
	equipmentHandler := handlers.NewEquipmentHandler(equipmentService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	agentHandler := handlers.NewAgentHandler(runner, engagementAgent, operationsAgent, financialAgent)

	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiV1 := engine.Group("/api/v1")

	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupMemberRoutes(authenticated, memberHandler)
		SetupPlanRoutes(authenticated, planHandler)
		SetupEquipmentRoutes(authenticated, equipmentHandler)
		SetupPaymentRoutes(authenticated, paymentHandler)
		SetupAgentRoutes(authenticated, agentHandler)
	}
}

func agentTimeout() time.Duration {
	if raw := utils.Getenv("AGENT_TIMEOUT_SECONDS", ""); raw != "" {
		if d, err := time.ParseDuration(raw + "s"); err == nil && d > 0 {
			return d
		}
	}
	return agents.DefaultTimeout
}

// SetupPublicAuthRoutes registers the routes reachable without a token.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/register", authHandler.Register)
	group.POST("/login", authHandler.Login)
	group.POST("/refresh-token", authHandler.RefreshToken)
}

// SetupAuthenticatedAuthRoutes registers the token-protected auth routes.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetProfile)
}
