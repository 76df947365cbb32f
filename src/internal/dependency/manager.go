package dependency

import (
	"time"

	"carecircle-activity-svc/src/clients"
	"carecircle-activity-svc/src/internal/activity"
	"carecircle-activity-svc/src/internal/analytics"
	"carecircle-activity-svc/src/internal/cache"
	"carecircle-activity-svc/src/internal/config"
	"carecircle-activity-svc/src/internal/engagement"
	"carecircle-activity-svc/src/internal/membership"
	"carecircle-activity-svc/src/internal/middleware"

	"github.com/gin-gonic/gin"
)

type Manager struct {
	Router            *gin.Engine
	Config            *config.Configuration
	Mongodb           *clients.MongoDB
	Redis             *clients.RedisClient
	RabbitMQ          *clients.RabbitMQ
	CacheService      cache.Service
	AuthMiddleware    *middleware.AuthMiddleware
	MembershipService membership.Service
	ActivityStore     *activity.Store
	ActivityService   activity.Service
	ActivityHandler   activity.Handler
	Tracker           *engagement.Tracker
	EngagementHandler engagement.Handler
	AnalyticsClient   *clients.AnalyticsClient
	AnalyticsService  analytics.Service
	AnalyticsHandler  analytics.Handler
	AnalyticsPoller   *analytics.Poller
	RPCProbe          *clients.RPCProbe
}

// NewDependencyManager wires the service graph. rabbitMQ may be nil, in
// which case nothing is published to the events exchange.
func NewDependencyManager(router *gin.Engine,
	mongodb *clients.MongoDB,
	redisClient *clients.RedisClient,
	rabbitMQ *clients.RabbitMQ,
	cfg *config.Configuration) *Manager {
	cacheService := cache.NewCacheService(redisClient.Client, cfg)

	membershipRepo := membership.NewMembershipRepository(mongodb, cfg.Database.Collections.Memberships)
	membershipService := membership.NewMembershipService(membershipRepo, cacheService)

	analyticsClient := clients.NewAnalyticsClient(&cfg.Analytics)

	var publisher activity.Publisher
	trackerOpts := []engagement.Option{
		engagement.WithWindow(time.Duration(cfg.Engagement.WindowDays) * 24 * time.Hour),
		engagement.WithPersister("analytics", analyticsClient),
	}
	if rabbitMQ != nil {
		eventPublisher := clients.NewEventPublisher(rabbitMQ.Channel, &cfg.Queue.RabbitMQ)
		publisher = eventPublisher
		trackerOpts = append(trackerOpts, engagement.WithPersister("rabbitmq", eventPublisher))
	}

	activityStore := activity.NewStore(cfg.Activity.MaxRecords)
	activityRepo := activity.NewActivityRepository(mongodb, cfg.Database.Collections.Activities)
	activityService := activity.NewActivityService(activityStore, activityRepo, cacheService, publisher, membershipService, cfg)
	activityHandler := activity.NewHandler(cfg, activityService, membershipService)

	tracker := engagement.NewTracker(cfg.Engagement.MaxBuckets, cfg.Engagement.Enabled, trackerOpts...)
	engagementHandler := engagement.NewHandler(cfg, tracker)

	analyticsService := analytics.NewAnalyticsService(analyticsClient, cacheService, cfg)
	analyticsHandler := analytics.NewHandler(cfg, analyticsService)
	poller := analytics.NewPoller(analyticsService, cfg.Analytics.WatchedGroups,
		time.Duration(cfg.Analytics.DashboardRefreshMinutes)*time.Minute)

	return &Manager{
		Router:            router,
		Config:            cfg,
		Mongodb:           mongodb,
		Redis:             redisClient,
		RabbitMQ:          rabbitMQ,
		CacheService:      cacheService,
		AuthMiddleware:    middleware.NewAuthMiddleware(cfg.Security.JwtKey),
		MembershipService: membershipService,
		ActivityStore:     activityStore,
		ActivityService:   activityService,
		ActivityHandler:   activityHandler,
		Tracker:           tracker,
		EngagementHandler: engagementHandler,
		AnalyticsClient:   analyticsClient,
		AnalyticsService:  analyticsService,
		AnalyticsHandler:  analyticsHandler,
		AnalyticsPoller:   poller,
		RPCProbe:          clients.NewRPCProbe(&cfg.Chain),
	}
}
