package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"fitclub_backend/internal/agents"
	"fitclub_backend/internal/repositories"
	"fitclub_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AgentHandler exposes the heuristic analysis agents over HTTP.
type AgentHandler struct {
	runner     *agents.Runner
	engagement *agents.EngagementAgent
	operations *agents.OperationsAgent
	financial  *agents.FinancialAgent
}

// NewAgentHandler creates a new AgentHandler.
func NewAgentHandler(
	runner *agents.Runner,
	engagement *agents.EngagementAgent,
	operations *agents.OperationsAgent,
	financial *agents.FinancialAgent,
) *AgentHandler {
	return &AgentHandler{
		runner:     runner,
		engagement: engagement,
		operations: operations,
		financial:  financial,
	}
}

func (h *AgentHandler) agentByName(name string) agents.Agent {
	switch name {
	case "engagement", "member_engagement":
		return h.engagement
	case "operations":
		return h.operations
	case "financial":
		return h.financial
	default:
		return nil
	}
}

// ExecuteAgent runs a full agent analysis under the orchestrator timeout.
// Agent failures come back as a failed result, not a 500.
func (h *AgentHandler) ExecuteAgent(c *gin.Context) {
	name := c.Param("name")
	agent := h.agentByName(name)
	if agent == nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Unknown agent: "+name, ""))
		return
	}

	result := h.runner.Run(c.Request.Context(), agent)
	c.JSON(http.StatusOK, result)
}

// AnalyzeWithAgent answers a targeted question through one agent.
func (h *AgentHandler) AnalyzeWithAgent(c *gin.Context) {
	name := c.Param("name")
	agent := h.agentByName(name)
	if agent == nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Unknown agent: "+name, ""))
		return
	}

	params := map[string]interface{}{}
	if err := c.ShouldBindJSON(&params); err != nil && err.Error() != "EOF" {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
		return
	}

	analysis, err := agent.Analyze(c.Request.Context(), params)
	if err != nil {
		utils.LogError(err, "AnalyzeWithAgent: analysis failed for agent "+name)
		if errors.Is(err, repositories.ErrNotFound) {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Analysis target not found.", err.Error()))
			return
		}
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeBadRequest, "Analysis failed: "+err.Error(), err.Error()))
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// GetAtRiskMembers lists active members at or above the churn threshold.
func (h *AgentHandler) GetAtRiskMembers(c *gin.Context) {
	atRisk, err := h.engagement.IdentifyAtRiskMembers()
	if err != nil {
		utils.LogError(err, "GetAtRiskMembers: Error from engagement agent")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to identify at-risk members.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"at_risk_members": atRisk, "count": len(atRisk)})
}

// GetMaintenancePredictions lists equipment flagged for maintenance, highest
// priority first.
func (h *AgentHandler) GetMaintenancePredictions(c *gin.Context) {
	predictions, err := h.operations.PredictMaintenanceNeeds()
	if err != nil {
		utils.LogError(err, "GetMaintenancePredictions: Error from operations agent")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to predict maintenance needs.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"maintenance_needed": predictions, "count": len(predictions)})
}

// GetCapacityAnalysis summarises facility usage over the trailing week.
func (h *AgentHandler) GetCapacityAnalysis(c *gin.Context) {
	analysis, err := h.operations.AnalyzeFacilityCapacity()
	if err != nil {
		utils.LogError(err, "GetCapacityAnalysis: Error from operations agent")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to analyze facility capacity.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, analysis)
}

// GetRevenueForecast projects MRR forward 30/60/90 days.
func (h *AgentHandler) GetRevenueForecast(c *gin.Context) {
	forecast, err := h.financial.ForecastRevenue()
	if err != nil {
		utils.LogError(err, "GetRevenueForecast: Error from financial agent")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to forecast revenue.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, forecast)
}

// GetExpiringMemberships lists renewals due within the horizon, highest
// priority first.
func (h *AgentHandler) GetExpiringMemberships(c *gin.Context) {
	expiring, err := h.financial.IdentifyExpiringMemberships()
	if err != nil {
		utils.LogError(err, "GetExpiringMemberships: Error from financial agent")
		utils.RespondWithError(c, utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, "Failed to identify expiring memberships.", "Internal error"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"expiring_memberships": expiring, "count": len(expiring)})
}

// GetRetryStrategy returns the dunning plan for a member's failed payments.
func (h *AgentHandler) GetRetryStrategy(c *gin.Context) {
	memberID, err := strconv.ParseInt(c.Query("member_id"), 10, 64)
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "member_id query parameter is required.", ""))
		return
	}
	failedAttempts, err := strconv.Atoi(c.DefaultQuery("failed_attempts", "1"))
	if err != nil || failedAttempts < 1 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "failed_attempts must be a positive integer.", ""))
		return
	}

	c.JSON(http.StatusOK, agents.PaymentRetryStrategy(memberID, failedAttempts))
}
