package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fitclub_backend/internal/agents"
	"fitclub_backend/internal/integrations"
	"fitclub_backend/internal/models"
	"fitclub_backend/internal/repositories"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// missingMemberRepo reports every member as absent.
type missingMemberRepo struct{}

func (missingMemberRepo) CreateMember(executor repositories.SQLExecutor, member *models.Member) (int64, error) {
	return 0, repositories.ErrDatabaseError
}

func (missingMemberRepo) GetMemberByID(id int64) (*models.Member, error) {
	return nil, repositories.ErrNotFound
}

func (missingMemberRepo) GetMemberByUserID(userID int64) (*models.Member, error) {
	return nil, repositories.ErrNotFound
}

func (missingMemberRepo) GetMemberByQRCode(qrCode string) (*models.Member, error) {
	return nil, repositories.ErrNotFound
}

func (missingMemberRepo) GetMembers(page, pageSize int) ([]models.Member, int, error) {
	return nil, 0, nil
}

func (missingMemberRepo) GetActiveMembersWithUsers() ([]models.Member, error) {
	return nil, nil
}

func (missingMemberRepo) GetActiveMembersWithPlans() ([]models.Member, error) {
	return nil, nil
}

func (missingMemberRepo) UpdateMember(executor repositories.SQLExecutor, member *models.Member) error {
	return repositories.ErrNotFound
}

func (missingMemberRepo) RecordCheckIn(executor repositories.SQLExecutor, memberID int64, at time.Time) error {
	return repositories.ErrNotFound
}

func (missingMemberRepo) SetStripeCustomerID(executor repositories.SQLExecutor, memberID int64, customerID string) error {
	return repositories.ErrNotFound
}

func (missingMemberRepo) CountActiveMembers() (int, error) {
	return 0, nil
}

func (missingMemberRepo) CountMembersCheckedInSince(since time.Time) (int, error) {
	return 0, nil
}

func newAgentTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)

	engagement := agents.NewEngagementAgent(
		missingMemberRepo{},
		integrations.NewCannedTextGenerator(),
		integrations.NewLogNotifier(),
		0,
	)
	handler := NewAgentHandler(agents.NewRunner(time.Second), engagement, nil, nil)

	engine := gin.New()
	engine.POST("/agents/:name/analyze", handler.AnalyzeWithAgent)
	return engine
}

func TestAnalyzeWithAgentMissingTargetIs404(t *testing.T) {
	engine := newAgentTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/agents/engagement/analyze", strings.NewReader(`{"member_id": 42}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_FOUND")
}

func TestAnalyzeWithAgentMissingParamIs400(t *testing.T) {
	engine := newAgentTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/agents/engagement/analyze", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeWithAgentUnknownAgentIs404(t *testing.T) {
	engine := newAgentTestRouter()

	req := httptest.NewRequest(http.MethodPost, "/agents/astrology/analyze", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
