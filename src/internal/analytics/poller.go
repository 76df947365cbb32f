package analytics

import (
	"context"
	"time"

	"carecircle-activity-svc/src/internal/models"

	"github.com/sirupsen/logrus"
)

// Poller keeps the cached dashboards of watched groups warm.
type Poller struct {
	service  Service
	groups   []string
	interval time.Duration
}

func NewPoller(service Service, groups []string, interval time.Duration) *Poller {
	return &Poller{service: service, groups: groups, interval: interval}
}

// Run refreshes every watched group immediately and then once per interval
// until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) {
	if len(p.groups) == 0 || p.interval <= 0 {
		logrus.Info("No watched groups configured, analytics poller not started")
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	logrus.WithFields(logrus.Fields{
		"groups":   len(p.groups),
		"interval": p.interval.String(),
	}).Info("Analytics poller started")

	p.refreshAll(ctx)
	for {
		select {
		case <-ctx.Done():
			logrus.Info("Analytics poller stopped")
			return
		case <-ticker.C:
			p.refreshAll(ctx)
		}
	}
}

func (p *Poller) refreshAll(ctx context.Context) {
	for _, group := range p.groups {
		if ctx.Err() != nil {
			return
		}
		if _, err := p.service.RefreshDashboard(ctx, group, models.AnalyticsQuery{}); err != nil {
			logrus.WithError(err).WithField("group", group).Warn("Failed to refresh dashboard")
		}
	}
}
