package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
	"time"

	"carecircle-activity-svc/src/internal/config"
	"carecircle-activity-svc/src/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	statsKeyPattern      = "activity:stats:%s:%s"
	membershipKeyPattern = "membership:%s:%s"
	liveKeyPattern       = "analytics:live:%s"
	dashboardKeyPattern  = "analytics:dashboard:%s:%s:%s:%s"

	allLevels        = "all"
	defaultTimeframe = "default"
)

// Service caches derived read models. A miss is reported as (nil, nil).
type Service interface {
	GetActivityStats(ctx context.Context, groupAddress string, privacy []models.Privacy) (*models.ActivityStats, error)
	SaveActivityStats(ctx context.Context, groupAddress string, privacy []models.Privacy, stats *models.ActivityStats) error
	InvalidateActivityStats(ctx context.Context, groupAddress string) error
	GetMembership(ctx context.Context, groupAddress, memberAddress string) (*bool, error)
	SaveMembership(ctx context.Context, groupAddress, memberAddress string, isMember bool) error
	GetLiveAnalytics(ctx context.Context, groupAddress string) (*models.GroupAnalytics, error)
	SaveLiveAnalytics(ctx context.Context, groupAddress string, analytics *models.GroupAnalytics, ttl time.Duration) error
	GetDashboard(ctx context.Context, groupAddress string, q models.AnalyticsQuery) (*models.Dashboard, error)
	SaveDashboard(ctx context.Context, groupAddress string, q models.AnalyticsQuery, dashboard *models.Dashboard, ttl time.Duration) error
}

type cacheService struct {
	client *redis.Client
	cfg    *config.CacheConfig
}

func NewCacheService(client *redis.Client, cfg *config.Configuration) Service {
	return &cacheService{
		client: client,
		cfg:    &cfg.Cache}
}

// Stats are cached per privacy set; a nil set means every level.
func (c *cacheService) GetActivityStats(ctx context.Context, groupAddress string, privacy []models.Privacy) (*models.ActivityStats, error) {
	var stats models.ActivityStats
	found, err := c.getJSON(ctx, statsKey(groupAddress, privacy), &stats)
	if err != nil || !found {
		return nil, err
	}
	return &stats, nil
}

func (c *cacheService) SaveActivityStats(ctx context.Context, groupAddress string, privacy []models.Privacy, stats *models.ActivityStats) error {
	ttl := time.Duration(c.cfg.StatsExpirationMinutes) * time.Minute
	return c.setJSON(ctx, statsKey(groupAddress, privacy), stats, ttl)
}

// InvalidateActivityStats drops the group's stats for every privacy set.
func (c *cacheService) InvalidateActivityStats(ctx context.Context, groupAddress string) error {
	keys := make([]string, 0, 1<<len(models.AllPrivacyLevels))
	for mask := 0; mask < 1<<len(models.AllPrivacyLevels); mask++ {
		var levels []models.Privacy
		for i, p := range models.AllPrivacyLevels {
			if mask&(1<<i) != 0 {
				levels = append(levels, p)
			}
		}
		keys = append(keys, statsKey(groupAddress, levels))
	}

	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logrus.WithError(err).WithField("group", groupAddress).Error("Failed to invalidate activity stats")
		return models.ErrRedisDelete
	}
	return nil
}

func (c *cacheService) GetMembership(ctx context.Context, groupAddress, memberAddress string) (*bool, error) {
	k := key(membershipKeyPattern, groupAddress, memberAddress)
	data, err := c.client.Get(ctx, k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logrus.WithError(err).WithField("key", k).Error("Failed to get membership from cache")
		return nil, models.ErrRedisGet
	}
	isMember := data == "1"
	return &isMember, nil
}

func (c *cacheService) SaveMembership(ctx context.Context, groupAddress, memberAddress string, isMember bool) error {
	k := key(membershipKeyPattern, groupAddress, memberAddress)
	value := "0"
	if isMember {
		value = "1"
	}
	ttl := time.Duration(c.cfg.MembershipExpirationMinutes) * time.Minute
	if err := c.client.Set(ctx, k, value, ttl).Err(); err != nil {
		logrus.WithError(err).WithField("key", k).Error("Failed to cache membership")
		return models.ErrRedisSet
	}
	return nil
}

func (c *cacheService) GetLiveAnalytics(ctx context.Context, groupAddress string) (*models.GroupAnalytics, error) {
	var analytics models.GroupAnalytics
	found, err := c.getJSON(ctx, key(liveKeyPattern, groupAddress), &analytics)
	if err != nil || !found {
		return nil, err
	}
	return &analytics, nil
}

func (c *cacheService) SaveLiveAnalytics(ctx context.Context, groupAddress string, analytics *models.GroupAnalytics, ttl time.Duration) error {
	return c.setJSON(ctx, key(liveKeyPattern, groupAddress), analytics, ttl)
}

func (c *cacheService) GetDashboard(ctx context.Context, groupAddress string, q models.AnalyticsQuery) (*models.Dashboard, error) {
	var dashboard models.Dashboard
	found, err := c.getJSON(ctx, dashboardKey(groupAddress, q), &dashboard)
	if err != nil || !found {
		return nil, err
	}
	return &dashboard, nil
}

func (c *cacheService) SaveDashboard(ctx context.Context, groupAddress string, q models.AnalyticsQuery, dashboard *models.Dashboard, ttl time.Duration) error {
	return c.setJSON(ctx, dashboardKey(groupAddress, q), dashboard, ttl)
}

func (c *cacheService) getJSON(ctx context.Context, k string, out interface{}) (bool, error) {
	data, err := c.client.Get(ctx, k).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			logrus.WithField("key", k).Debug("Cache miss")
			return false, nil
		}
		logrus.WithError(err).WithField("key", k).Error("Failed to read from cache")
		return false, models.ErrRedisGet
	}

	if err := json.Unmarshal([]byte(data), out); err != nil {
		logrus.WithError(err).WithField("key", k).Error("Failed to unmarshal cached value")
		return false, models.ErrRedisGet
	}

	logrus.WithField("key", k).Debug("Cache hit")
	return true, nil
}

func (c *cacheService) setJSON(ctx context.Context, k string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		logrus.WithError(err).WithField("key", k).Error("Failed to marshal value for cache")
		return models.ErrRedisSet
	}

	if err := c.client.Set(ctx, k, data, ttl).Err(); err != nil {
		logrus.WithError(err).WithField("key", k).Error("Failed to write to cache")
		return models.ErrRedisSet
	}
	return nil
}

func key(pattern string, parts ...string) string {
	args := make([]interface{}, len(parts))
	for i, p := range parts {
		args[i] = strings.ToLower(p)
	}
	return fmt.Sprintf(pattern, args...)
}

func statsKey(groupAddress string, privacy []models.Privacy) string {
	if len(privacy) == 0 {
		return key(statsKeyPattern, groupAddress, allLevels)
	}
	levels := make([]string, 0, len(privacy))
	for _, p := range privacy {
		levels = append(levels, string(p))
	}
	sort.Strings(levels)
	return key(statsKeyPattern, groupAddress, strings.Join(slices.Compact(levels), "+"))
}

// dashboardKey includes every query field so differently filtered dashboards
// never share an entry.
func dashboardKey(groupAddress string, q models.AnalyticsQuery) string {
	timeframe := q.Timeframe
	if timeframe == "" {
		timeframe = defaultTimeframe
	}
	return key(dashboardKeyPattern, groupAddress, timeframe,
		strconv.FormatBool(q.IncludeMembers), strconv.FormatBool(q.IncludePredictions))
}
