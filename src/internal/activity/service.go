package activity

import (
	"context"
	"fmt"
	"math"

	"carecircle-activity-svc/src/internal/cache"
	"carecircle-activity-svc/src/internal/config"
	"carecircle-activity-svc/src/internal/membership"
	"carecircle-activity-svc/src/internal/metrics"
	"carecircle-activity-svc/src/internal/models"

	"github.com/sirupsen/logrus"
)

// Publisher mirrors new records onto the events exchange.
type Publisher interface {
	PublishActivity(ctx context.Context, record models.ActivityRecord) error
}

type Service interface {
	AddActivity(ctx context.Context, input models.NewActivity) (*models.ActivityRecord, error)
	ListActivities(ctx context.Context, opts ListOptions) []models.ActivityRecord
	GetStats(ctx context.Context, groupAddress string, privacy []models.Privacy) (*models.ActivityStats, error)
	GetHistory(ctx context.Context, q *HistoryQuery) (*HistoryResponse, error)
}

type activityService struct {
	store     *Store
	repo      Repository
	cache     cache.Service
	publisher Publisher
	members   membership.Service
	cfg       *config.ActivityConfig
}

// NewActivityService wires the feed. repo, publisher and members may be nil,
// in which case the matching side effect is skipped.
func NewActivityService(store *Store, repo Repository, cacheService cache.Service,
	publisher Publisher, members membership.Service, cfg *config.Configuration) Service {
	return &activityService{
		store:     store,
		repo:      repo,
		cache:     cacheService,
		publisher: publisher,
		members:   members,
		cfg:       &cfg.Activity,
	}
}

func (s *activityService) AddActivity(ctx context.Context, input models.NewActivity) (*models.ActivityRecord, error) {
	if err := validateNewActivity(&input); err != nil {
		return nil, err
	}

	record := s.store.Add(input)
	metrics.ActivitiesAdded.WithLabelValues(string(record.Type)).Inc()
	metrics.ActivityStoreSize.Set(float64(s.store.Len()))

	logrus.WithFields(logrus.Fields{
		"activity_id": record.ID,
		"group":       record.GroupAddress,
		"type":        record.Type,
		"actor":       record.Actor.Address,
	}).Info("Activity added")

	s.applySideEffects(ctx, record)

	return &record, nil
}

// applySideEffects runs the best-effort remote writes for a new record.
// Failures are logged and counted; the local append stands regardless.
func (s *activityService) applySideEffects(ctx context.Context, record models.ActivityRecord) {
	if s.repo != nil {
		if err := s.repo.Insert(ctx, record); err != nil {
			s.sideEffectFailed("mongodb", record, err)
		}
	}

	if s.cache != nil {
		if err := s.cache.InvalidateActivityStats(ctx, record.GroupAddress); err != nil {
			s.sideEffectFailed("redis", record, err)
		}
	}

	if s.members != nil {
		var err error
		switch record.Type {
		case models.ActivityMemberJoined:
			err = s.members.Join(ctx, record.GroupAddress, record.Actor.Address)
		case models.ActivityMemberLeft:
			err = s.members.Leave(ctx, record.GroupAddress, record.Actor.Address)
		}
		if err != nil {
			s.sideEffectFailed("membership", record, err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishActivity(ctx, record); err != nil {
			s.sideEffectFailed("rabbitmq", record, err)
		}
	}
}

func (s *activityService) sideEffectFailed(sink string, record models.ActivityRecord, err error) {
	metrics.SideEffectFailures.WithLabelValues(sink).Inc()
	logrus.WithError(err).WithFields(logrus.Fields{
		"sink":        sink,
		"activity_id": record.ID,
		"group":       record.GroupAddress,
	}).Error("Activity side effect failed")
}

func (s *activityService) ListActivities(_ context.Context, opts ListOptions) []models.ActivityRecord {
	if opts.Limit <= 0 {
		opts.Limit = s.cfg.DefaultLimit
	}
	if s.cfg.MaxLimit > 0 && opts.Limit > s.cfg.MaxLimit {
		opts.Limit = s.cfg.MaxLimit
	}
	return s.store.List(opts)
}

// GetStats aggregates records at the given privacy levels, or all records
// when privacy is empty.
func (s *activityService) GetStats(ctx context.Context, groupAddress string, privacy []models.Privacy) (*models.ActivityStats, error) {
	if groupAddress == "" {
		return nil, models.ErrInvalidParams
	}

	if s.cache != nil {
		cached, err := s.cache.GetActivityStats(ctx, groupAddress, privacy)
		if err == nil && cached != nil {
			logrus.WithField("group", groupAddress).Debug("Activity stats served from cache")
			return cached, nil
		}
	}

	stats := s.store.Stats(groupAddress, privacy...)

	if s.cache != nil {
		if err := s.cache.SaveActivityStats(ctx, groupAddress, privacy, stats); err != nil {
			logrus.WithError(err).WithField("group", groupAddress).Warn("Failed to cache activity stats")
		}
	}

	return stats, nil
}

func (s *activityService) GetHistory(ctx context.Context, q *HistoryQuery) (*HistoryResponse, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("%w: activity history is not configured", models.ErrDatabaseQuery)
	}

	if q.Limit <= 0 {
		q.Limit = s.cfg.DefaultLimit
	}
	if s.cfg.MaxLimit > 0 && q.Limit > s.cfg.MaxLimit {
		q.Limit = s.cfg.MaxLimit
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	for _, t := range q.Types {
		if !t.IsValid() {
			return nil, fmt.Errorf("%w: %q", models.ErrInvalidActivityType, t)
		}
	}

	records, total, err := s.repo.FindHistory(ctx, q)
	if err != nil {
		logrus.WithError(err).Error("Failed to get activity history from repository")
		return nil, err
	}

	return &HistoryResponse{
		Activities: records,
		Pagination: Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(q.Limit))),
		},
	}, nil
}

func validateNewActivity(input *models.NewActivity) error {
	if !input.Type.IsValid() {
		return fmt.Errorf("%w: %q", models.ErrInvalidActivityType, input.Type)
	}
	if input.GroupAddress == "" {
		return fmt.Errorf("%w: group address is required", models.ErrInvalidParams)
	}
	if input.Actor.Address == "" {
		return fmt.Errorf("%w: actor address is required", models.ErrInvalidParams)
	}
	if input.Privacy == "" {
		input.Privacy = models.PrivacyPublic
	}
	if !input.Privacy.IsValid() {
		return fmt.Errorf("%w: unknown privacy %q", models.ErrInvalidParams, input.Privacy)
	}
	return nil
}
