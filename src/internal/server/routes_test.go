package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"carecircle-activity-svc/src/clients"
	"carecircle-activity-svc/src/internal/activity"
	"carecircle-activity-svc/src/internal/analytics"
	"carecircle-activity-svc/src/internal/config"
	"carecircle-activity-svc/src/internal/dependency"
	"carecircle-activity-svc/src/internal/engagement"
	"carecircle-activity-svc/src/internal/middleware"
	"carecircle-activity-svc/src/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestManager wires the HTTP layer without the backing stores.
func newTestManager(t *testing.T) *dependency.Manager {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Configuration{
		App:       config.Application{Name: "carecircle-activity-svc", Timeout: 5},
		Activity:  config.ActivityConfig{MaxRecords: 10, DefaultLimit: 50, MaxLimit: 200},
		Analytics: config.AnalyticsConfig{Timeout: 5, LivePollSeconds: 30, DashboardRefreshMinutes: 5},
		Security:  config.SecuritySettings{JwtKey: "test-secret"},
	}

	store := activity.NewStore(cfg.Activity.MaxRecords)
	activityService := activity.NewActivityService(store, nil, nil, nil, nil, cfg)
	tracker := engagement.NewTracker(10, true)
	analyticsService := analytics.NewAnalyticsService(clients.NewAnalyticsClient(&cfg.Analytics), nil, cfg)

	return &dependency.Manager{
		Router:            gin.New(),
		Config:            cfg,
		AuthMiddleware:    middleware.NewAuthMiddleware(cfg.Security.JwtKey),
		ActivityStore:     store,
		ActivityService:   activityService,
		ActivityHandler:   activity.NewHandler(cfg, activityService, nil),
		Tracker:           tracker,
		EngagementHandler: engagement.NewHandler(cfg, tracker),
		AnalyticsService:  analyticsService,
		AnalyticsHandler:  analytics.NewHandler(cfg, analyticsService),
	}
}

func get(r http.Handler, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutes_Status(t *testing.T) {
	deps := newTestManager(t)
	SetupRoutes(deps)

	w := get(deps.Router, http.MethodGet, "/api/v1/status")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"service":"carecircle-activity-svc"`)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRoutes_Preflight(t *testing.T) {
	deps := newTestManager(t)
	SetupRoutes(deps)

	w := get(deps.Router, http.MethodOptions, "/api/v1/groups/0xG/activities")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestRoutes_Metrics(t *testing.T) {
	deps := newTestManager(t)
	SetupRoutes(deps)

	deps.ActivityStore.Add(models.NewActivity{Type: models.ActivityExpenseAdded, GroupAddress: "0xG", Actor: models.Actor{Address: "0xA"}})

	w := get(deps.Router, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "carecircle_activity_store_records")
}

func TestRoutes_GroupFeedAndAuth(t *testing.T) {
	deps := newTestManager(t)
	SetupRoutes(deps)

	deps.ActivityStore.Add(models.NewActivity{
		Type:         models.ActivityMemberJoined,
		GroupAddress: "0xG",
		Actor:        models.Actor{Address: "0xA", Nickname: "alice"},
		Privacy:      models.PrivacyPublic,
	})

	w := get(deps.Router, http.MethodGet, "/api/v1/groups/0xG/activities")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = get(deps.Router, http.MethodGet, "/api/v1/groups/0xG/activities/stats")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalActivities":1`)

	w = get(deps.Router, http.MethodGet, "/api/v1/groups/0xG/members/0xA/engagement")
	require.Equal(t, http.StatusOK, w.Code)

	for _, path := range []string{
		"/api/v1/groups/0xG/activities",
		"/api/v1/groups/0xG/engagement",
		"/api/v1/groups/0xG/analytics/export",
	} {
		assert.Equal(t, http.StatusUnauthorized, get(deps.Router, http.MethodPost, path).Code, path)
	}
	for _, method := range []string{http.MethodPut, http.MethodDelete} {
		assert.Equal(t, http.StatusUnauthorized, get(deps.Router, method, "/api/v1/groups/0xG/members/0xB").Code, method)
	}
}

func TestRoutes_CompareWithoutGroupsNeedsNoRemote(t *testing.T) {
	deps := newTestManager(t)
	SetupRoutes(deps)

	w := get(deps.Router, http.MethodGet, "/api/v1/analytics/compare")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"groups":[]`)
}
