package server

import (
	"context"
	"net/http"
	"time"

	"carecircle-activity-svc/src/internal/dependency"
	"carecircle-activity-svc/src/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(deps *dependency.Manager) {
	router := deps.Router
	router.Use(enableCORS)

	setupHealthEndpoint(deps)
	setupPublicRoutes(router, deps)
	setupGroupRoutes(router, deps)
}

func setupHealthEndpoint(deps *dependency.Manager) {
	router := deps.Router
	cfg := deps.Config

	router.GET("/health", func(c *gin.Context) {
		log.Debug("Health check endpoint requested")

		mongoStatus := "ok"
		if err := deps.Mongodb.Client.Ping(c.Request.Context(), nil); err != nil {
			mongoStatus = "error: " + err.Error()
		}

		redisStatus := "ok"
		if err := deps.Redis.Client.Ping(c.Request.Context()).Err(); err != nil {
			redisStatus = "error: " + err.Error()
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"service":   cfg.App.Name,
			"version":   cfg.App.Version,
			"mongodb":   mongoStatus,
			"redis":     redisStatus,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	router.GET("/health/detailed", func(c *gin.Context) {
		log.Debug("Detailed health check endpoint requested")
		ctx := c.Request.Context()

		chain := gin.H{"status": "connected"}
		if block, err := deps.RPCProbe.Check(ctx); err != nil {
			chain = gin.H{"status": "disconnected", "error": err.Error()}
		} else {
			chain["blockNumber"] = block
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "operational",
			"service": cfg.App.Name,
			"version": cfg.App.Version,
			"components": gin.H{
				"database": gin.H{
					"mongodb": getStatus(isMongoConnected(ctx, deps)),
					"redis":   getStatus(isRedisConnected(ctx, deps)),
				},
				"queue": gin.H{
					"rabbitmq": getStatus(deps.RabbitMQ != nil),
				},
				"chain": chain,
				"services": gin.H{
					"activityFeed": gin.H{"records": deps.ActivityStore.Len()},
					"engagement":   gin.H{"enabled": deps.Tracker.Enabled()},
				},
			},
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func setupPublicRoutes(router *gin.Engine, deps *dependency.Manager) {
	router.GET("/api/v1/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"api_version": "v1",
			"status":      "operational",
			"service":     deps.Config.App.Name,
		})
	})
}

func setupGroupRoutes(router *gin.Engine, deps *dependency.Manager) {
	auth := deps.AuthMiddleware
	activities := deps.ActivityHandler
	engagement := deps.EngagementHandler
	analytics := deps.AnalyticsHandler

	// Apply route name FIRST, then auth middlewares
	group := router.Group("/api/v1/groups/:address")
	{
		group.GET("/activities",
			setRouteName("listActivities"),
			auth.OptionalAuth(),
			activities.ListActivities)

		group.POST("/activities",
			setRouteName("addActivity"),
			auth.RequireAuth(),
			activities.AddActivity)

		group.GET("/activities/stats",
			setRouteName("getActivityStats"),
			auth.OptionalAuth(),
			activities.GetStats)

		group.GET("/activities/history",
			setRouteName("getActivityHistory"),
			auth.OptionalAuth(),
			activities.GetHistory)

		group.PUT("/members/:member",
			setRouteName("joinMember"),
			auth.RequireAuth(),
			auth.RequireRole(middleware.RoleAdmin),
			activities.JoinMember)

		group.DELETE("/members/:member",
			setRouteName("leaveMember"),
			auth.RequireAuth(),
			auth.RequireRole(middleware.RoleAdmin),
			activities.LeaveMember)

		group.POST("/engagement",
			setRouteName("trackEngagement"),
			auth.RequireAuth(),
			engagement.TrackEngagement)

		group.GET("/members/:member/engagement",
			setRouteName("getMemberEngagement"),
			engagement.GetMemberEngagement)

		group.GET("/analytics",
			setRouteName("getGroupAnalytics"),
			analytics.GetGroupAnalytics)

		group.GET("/analytics/funding",
			setRouteName("getFundingPatterns"),
			analytics.GetFundingPatterns)

		group.GET("/analytics/engagement",
			setRouteName("getEngagementMetrics"),
			analytics.GetEngagementMetrics)

		group.GET("/analytics/predictions",
			setRouteName("getPredictions"),
			analytics.GetPredictions)

		group.GET("/analytics/live",
			setRouteName("getLiveAnalytics"),
			analytics.GetLiveAnalytics)

		group.GET("/analytics/dashboard",
			setRouteName("getDashboard"),
			analytics.GetDashboard)

		group.POST("/analytics/export",
			setRouteName("exportAnalytics"),
			auth.RequireAuth(),
			analytics.ExportAnalytics)
	}

	router.GET("/api/v1/analytics/compare",
		setRouteName("compareGroups"),
		analytics.CompareGroups)
}

func setRouteName(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("route_name", name)
		c.Next()
	}
}

func isMongoConnected(ctx context.Context, deps *dependency.Manager) bool {
	return deps.Mongodb.Client.Ping(ctx, nil) == nil
}

func isRedisConnected(ctx context.Context, deps *dependency.Manager) bool {
	return deps.Redis.Client.Ping(ctx).Err() == nil
}

func enableCORS(c *gin.Context) {
	c.Header("Access-Control-Allow-Origin", "*")
	c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

	if c.Request.Method == http.MethodOptions {
		c.AbortWithStatus(http.StatusNoContent)
		return
	}

	c.Next()
}

func getStatus(b bool) string {
	if b {
		return "connected"
	}
	return "disconnected"
}
