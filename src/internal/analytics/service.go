package analytics

import (
	"context"
	"time"

	"carecircle-activity-svc/src/internal/cache"
	"carecircle-activity-svc/src/internal/config"
	"carecircle-activity-svc/src/internal/metrics"
	"carecircle-activity-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// LiveTimeframe is the window requested for the live view.
const LiveTimeframe = "24h"

// Client is the remote analytics service.
type Client interface {
	GetGroupAnalytics(ctx context.Context, groupAddress string, q models.AnalyticsQuery) (*models.GroupAnalytics, error)
	GetFundingPatterns(ctx context.Context, groupAddress string, q models.AnalyticsQuery) (*models.FundingPatterns, error)
	GetEngagementMetrics(ctx context.Context, groupAddress string, q models.AnalyticsQuery) (*models.EngagementReport, error)
	GetPredictions(ctx context.Context, groupAddress string, q models.AnalyticsQuery) ([]models.Prediction, error)
	CompareGroups(ctx context.Context, groupAddresses []string) (*models.GroupComparison, error)
	ExportAnalytics(ctx context.Context, groupAddress, format string, q models.AnalyticsQuery) (*models.ExportResult, error)
}

type Service interface {
	GetGroupAnalytics(ctx context.Context, groupAddress string, q models.AnalyticsQuery) (*models.GroupAnalytics, error)
	GetFundingPatterns(ctx context.Context, groupAddress string, q models.AnalyticsQuery) (*models.FundingPatterns, error)
	GetEngagementMetrics(ctx context.Context, groupAddress string, q models.AnalyticsQuery) (*models.EngagementReport, error)
	GetPredictions(ctx context.Context, groupAddress string, q models.AnalyticsQuery) ([]models.Prediction, error)
	CompareGroups(ctx context.Context, groupAddresses []string) (*models.GroupComparison, error)
	ExportAnalytics(ctx context.Context, groupAddress, format string, q models.AnalyticsQuery) (*models.ExportResult, error)
	GetLiveAnalytics(ctx context.Context, groupAddress string) (*models.GroupAnalytics, error)
	GetDashboard(ctx context.Context, groupAddress string, q models.AnalyticsQuery) (*models.Dashboard, error)
	RefreshDashboard(ctx context.Context, groupAddress string, q models.AnalyticsQuery) (*models.Dashboard, error)
}

type analyticsService struct {
	client       Client
	cache        cache.Service
	liveTTL      time.Duration
	dashboardTTL time.Duration
}

func NewAnalyticsService(client Client, cacheService cache.Service, cfg *config.Configuration) Service {
	return &analyticsService{
		client:       client,
		cache:        cacheService,
		liveTTL:      time.Duration(cfg.Analytics.LivePollSeconds) * time.Second,
		dashboardTTL: time.Duration(cfg.Analytics.DashboardRefreshMinutes) * time.Minute,
	}
}

func (s *analyticsService) GetGroupAnalytics(ctx context.Context, groupAddress string, q models.AnalyticsQuery) (*models.GroupAnalytics, error) {
	start := time.Now()
	out, err := s.client.GetGroupAnalytics(ctx, groupAddress, q)
	observe("group", start, err)
	return out, err
}

func (s *analyticsService) GetFundingPatterns(ctx context.Context, groupAddress string, q models.AnalyticsQuery) (*models.FundingPatterns, error) {
	start := time.Now()
	out, err := s.client.GetFundingPatterns(ctx, groupAddress, q)
	observe("funding", start, err)
	return out, err
}

func (s *analyticsService) GetEngagementMetrics(ctx context.Context, groupAddress string, q models.AnalyticsQuery) (*models.EngagementReport, error) {
	start := time.Now()
	out, err := s.client.GetEngagementMetrics(ctx, groupAddress, q)
	observe("engagement", start, err)
	return out, err
}

func (s *analyticsService) GetPredictions(ctx context.Context, groupAddress string, q models.AnalyticsQuery) ([]models.Prediction, error) {
	start := time.Now()
	out, err := s.client.GetPredictions(ctx, groupAddress, q)
	observe("predictions", start, err)
	return out, err
}

func (s *analyticsService) CompareGroups(ctx context.Context, groupAddresses []string) (*models.GroupComparison, error) {
	start := time.Now()
	out, err := s.client.CompareGroups(ctx, groupAddresses)
	observe("compare", start, err)
	return out, err
}

func (s *analyticsService) ExportAnalytics(ctx context.Context, groupAddress, format string, q models.AnalyticsQuery) (*models.ExportResult, error) {
	start := time.Now()
	out, err := s.client.ExportAnalytics(ctx, groupAddress, format, q)
	observe("export", start, err)
	return out, err
}

// GetLiveAnalytics serves the last-24h view, cached for one poll interval.
func (s *analyticsService) GetLiveAnalytics(ctx context.Context, groupAddress string) (*models.GroupAnalytics, error) {
	if groupAddress == "" {
		return &models.GroupAnalytics{}, nil
	}

	if s.cache != nil {
		cached, err := s.cache.GetLiveAnalytics(ctx, groupAddress)
		if err == nil && cached != nil {
			return cached, nil
		}
	}

	start := time.Now()
	live, err := s.client.GetGroupAnalytics(ctx, groupAddress, models.AnalyticsQuery{Timeframe: LiveTimeframe})
	observe("live", start, err)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SaveLiveAnalytics(ctx, groupAddress, live, s.liveTTL); err != nil {
			logrus.WithError(err).WithField("group", groupAddress).Warn("Failed to cache live analytics")
		}
	}
	return live, nil
}

func (s *analyticsService) GetDashboard(ctx context.Context, groupAddress string, q models.AnalyticsQuery) (*models.Dashboard, error) {
	if groupAddress == "" {
		return emptyDashboard(), nil
	}

	if s.cache != nil {
		cached, err := s.cache.GetDashboard(ctx, groupAddress, q)
		if err == nil && cached != nil {
			return cached, nil
		}
	}
	return s.RefreshDashboard(ctx, groupAddress, q)
}

// RefreshDashboard fetches the three dashboard reads concurrently and replaces
// the cached copy. Any failed read fails the whole dashboard.
func (s *analyticsService) RefreshDashboard(ctx context.Context, groupAddress string, q models.AnalyticsQuery) (*models.Dashboard, error) {
	if groupAddress == "" {
		return emptyDashboard(), nil
	}

	start := time.Now()
	dashboard := &models.Dashboard{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		out, err := s.client.GetGroupAnalytics(gctx, groupAddress, q)
		dashboard.Analytics = out
		return err
	})
	g.Go(func() error {
		out, err := s.client.GetFundingPatterns(gctx, groupAddress, q)
		dashboard.Funding = out
		return err
	})
	g.Go(func() error {
		out, err := s.client.GetEngagementMetrics(gctx, groupAddress, q)
		dashboard.Engagement = out
		return err
	})

	err := g.Wait()
	observe("dashboard", start, err)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SaveDashboard(ctx, groupAddress, q, dashboard, s.dashboardTTL); err != nil {
			logrus.WithError(err).WithField("group", groupAddress).Warn("Failed to cache dashboard")
		}
	}
	return dashboard, nil
}

func emptyDashboard() *models.Dashboard {
	return &models.Dashboard{
		Analytics:  &models.GroupAnalytics{},
		Funding:    &models.FundingPatterns{Trends: []models.FundingTrend{}},
		Engagement: &models.EngagementReport{},
	}
}

func observe(operation string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	metrics.AnalyticsRequestDuration.WithLabelValues(operation, result).Observe(time.Since(start).Seconds())
}
