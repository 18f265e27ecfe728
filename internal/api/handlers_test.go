package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iluma/offer-engine/internal/personalization"
	"github.com/iluma/offer-engine/internal/report"
)

// newTestRouter wires a router around an in-memory engine. The adaptation
// threshold is raised to 60 so low-engagement interactions trigger offer
// rewrites in tests.
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	sessions := personalization.NewSessionManager(personalization.ManagerConfig{AdaptationThreshold: 60}, nil, nil)
	h := NewHandlers(sessions, report.NewBuilder())
	hc := NewHealthChecker(nil, nil, sessions)
	return SetupRoutes(h, hc)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, router http.Handler) personalization.SessionSnapshot {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/personalization/sessions", CreateSessionRequest{
		Behavior: personalization.BehaviorData{TimeOnSite: 90, ClickHesitation: 1000, ScrollDepth: 50},
		Context:  ContextInput{ViewportWidth: 1440, Referrer: "https://google.com/search", PreviousVisits: 1},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var snap personalization.SessionSnapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	return snap
}

func TestCreateSession(t *testing.T) {
	router := newTestRouter(t)

	snap := createSession(t, router)

	assert.NotEmpty(t, snap.SessionID)
	assert.True(t, snap.Initialized)
	require.NotNil(t, snap.Profile)
	require.NotNil(t, snap.CurrentOffer)
	assert.Len(t, snap.AlternativeOffers, 2)
	assert.Empty(t, snap.OptimizationHistory)
	assert.Equal(t, personalization.SourceOrganic, snap.Profile.Contextual.TrafficSource)
}

func TestCreateSessionInvalidBody(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/personalization/sessions", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSessionNotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/personalization/sessions/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReportInteractionAdapts(t *testing.T) {
	router := newTestRouter(t)
	snap := createSession(t, router)

	rec := doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/personalization/sessions/%s/interactions", snap.SessionID),
		personalization.InteractionData{TimeOnPage: 10, ScrollDepth: 20, HesitationTime: 4000})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp InteractionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.True(t, resp.Adapted)
	assert.Equal(t, 50, resp.EngagementScore)
	assert.Equal(t, 1, resp.AdaptationCount)
	assert.Equal(t, 10, resp.ConfidenceLevel)
	require.NotNil(t, resp.CurrentOffer)
	assert.Greater(t, resp.CurrentOffer.Discount, snap.CurrentOffer.Discount)
	require.NotNil(t, resp.Entry)
	assert.Equal(t, "price and urgency adapted", resp.Entry.Change)

	// The adaptation lands in the session's history.
	rec = doJSON(t, router, http.MethodGet, "/api/personalization/sessions/"+snap.SessionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var after personalization.SessionSnapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&after))
	assert.Len(t, after.OptimizationHistory, 1)
}

func TestReportInteractionEngagedVisitor(t *testing.T) {
	router := newTestRouter(t)
	snap := createSession(t, router)

	rec := doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/personalization/sessions/%s/interactions", snap.SessionID),
		personalization.InteractionData{TimeOnPage: 120, ScrollDepth: 80, ElementsClicked: 5, HoverTime: 6000})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp InteractionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))

	assert.False(t, resp.Adapted)
	assert.Equal(t, 100, resp.EngagementScore)
	assert.Equal(t, 0, resp.AdaptationCount)
	assert.Nil(t, resp.Entry)
}

func TestSwitchAlternative(t *testing.T) {
	router := newTestRouter(t)
	snap := createSession(t, router)

	rec := doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/personalization/sessions/%s/alternative/1", snap.SessionID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var after personalization.SessionSnapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&after))
	assert.Equal(t, snap.AlternativeOffers[1].ID, after.CurrentOffer.ID)

	// Out-of-range index is a silent no-op.
	rec = doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/personalization/sessions/%s/alternative/7", snap.SessionID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&after))
	assert.Equal(t, snap.AlternativeOffers[1].ID, after.CurrentOffer.ID)

	// Non-numeric index is a client error.
	rec = doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/personalization/sessions/%s/alternative/first", snap.SessionID), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestResetSession(t *testing.T) {
	router := newTestRouter(t)
	snap := createSession(t, router)

	rec := doJSON(t, router, http.MethodDelete, "/api/personalization/sessions/"+snap.SessionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/personalization/sessions/"+snap.SessionID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var after personalization.SessionSnapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&after))
	assert.False(t, after.Initialized)
	assert.Nil(t, after.CurrentOffer)

	// Score requires an initialized session.
	rec = doJSON(t, router, http.MethodGet,
		fmt.Sprintf("/api/personalization/sessions/%s/score", snap.SessionID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestGetScore(t *testing.T) {
	router := newTestRouter(t)
	snap := createSession(t, router)

	rec := doJSON(t, router, http.MethodGet,
		fmt.Sprintf("/api/personalization/sessions/%s/score", snap.SessionID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var score struct {
		Total int    `json:"total"`
		Grade string `json:"grade"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&score))
	assert.GreaterOrEqual(t, score.Total, 0)
	assert.LessOrEqual(t, score.Total, 100)
	assert.Contains(t, []string{"A", "B", "C", "D"}, score.Grade)
}

func TestGetReport(t *testing.T) {
	router := newTestRouter(t)
	snap := createSession(t, router)

	rec := doJSON(t, router, http.MethodGet,
		fmt.Sprintf("/api/personalization/sessions/%s/report", snap.SessionID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "ILUMA SESSION REPORT")
	assert.Contains(t, body, snap.SessionID)
	assert.Contains(t, body, "CURRENT OFFER")
}

func TestRecentInsightsWithoutStore(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/personalization/insights", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Total int `json:"total"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Zero(t, resp.Total)
}

func TestHealthEndpoints(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var health HealthStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&health))
	// DB and Redis are not configured in tests, which is not a failure.
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "up", health.Checks["sessions"].Status)

	rec = doJSON(t, router, http.MethodGet, "/health/live", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSystemStatus(t *testing.T) {
	router := newTestRouter(t)
	createSession(t, router)
	createSession(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/system/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status struct {
		ActiveSessions int `json:"active_sessions"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&status))
	assert.Equal(t, 2, status.ActiveSessions)
}
