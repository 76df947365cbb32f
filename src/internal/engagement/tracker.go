package engagement

import (
	"context"
	"strings"
	"sync"
	"time"

	"carecircle-activity-svc/src/internal/metrics"
	"carecircle-activity-svc/src/internal/models"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

const (
	DefaultMaxBuckets = 10000
	DefaultWindow     = 30 * 24 * time.Hour
)

// Persister mirrors a tracked event to a remote sink.
type Persister interface {
	PersistEngagement(ctx context.Context, event models.EngagementEvent) error
}

type sink struct {
	name      string
	persister Persister
}

// Tracker keeps a rolling window of engagement events per (group, member).
// Local state is updated before any remote sink is called, and sink failures
// never reach the caller.
type Tracker struct {
	mu      sync.Mutex
	enabled bool
	buckets *lru.Cache[bucketID, []models.EngagementEvent]
	window  time.Duration
	now     func() time.Time
	sinks   []sink
}

type Option func(*Tracker)

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithWindow(window time.Duration) Option {
	return func(t *Tracker) {
		if window > 0 {
			t.window = window
		}
	}
}

// WithPersister registers a remote sink; name labels its failures in metrics.
func WithPersister(name string, p Persister) Option {
	return func(t *Tracker) {
		if p != nil {
			t.sinks = append(t.sinks, sink{name: name, persister: p})
		}
	}
}

func NewTracker(maxBuckets int, enabled bool, opts ...Option) *Tracker {
	if maxBuckets <= 0 {
		maxBuckets = DefaultMaxBuckets
	}
	// lru.New only fails for a non-positive size.
	buckets, _ := lru.New[bucketID, []models.EngagementEvent](maxBuckets)

	t := &Tracker{
		enabled: enabled,
		buckets: buckets,
		window:  DefaultWindow,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.enabled = enabled
}

func (t *Tracker) Enabled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.enabled
}

// TrackEngagement stamps the event, appends it to its bucket and then hands it
// to every sink. The timestamp on the input is ignored.
func (t *Tracker) TrackEngagement(ctx context.Context, event models.EngagementEvent) {
	if !event.Type.IsValid() {
		logrus.WithField("type", event.Type).Warn("Ignoring engagement event with unknown type")
		return
	}

	stamped, ok := t.record(event)
	if !ok {
		return
	}

	for _, s := range t.sinks {
		if err := s.persister.PersistEngagement(ctx, stamped); err != nil {
			metrics.SideEffectFailures.WithLabelValues(s.name).Inc()
			logrus.WithError(err).WithFields(logrus.Fields{
				"sink":   s.name,
				"group":  stamped.GroupAddress,
				"member": stamped.MemberAddress,
				"type":   stamped.Type,
			}).Error("Failed to persist engagement event")
		}
	}
}

func (t *Tracker) record(event models.EngagementEvent) (models.EngagementEvent, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.enabled {
		return event, false
	}

	now := t.now().UTC()
	event.Timestamp = now

	key := bucketKey(event.GroupAddress, event.MemberAddress)
	existing, _ := t.buckets.Get(key)
	bucket := compact(existing, now.Add(-t.window))
	bucket = append(bucket, event)
	t.buckets.Add(key, bucket)

	metrics.EngagementTracked.WithLabelValues(string(event.Type)).Inc()
	metrics.EngagementBuckets.Set(float64(t.buckets.Len()))

	return event, true
}

// GetEngagementScore reads only local state. It is 0 when the bucket is empty
// or every event in it is older than the scoring window.
func (t *Tracker) GetEngagementScore(memberAddress, groupAddress string) float64 {
	m, ok := t.GetMetrics(memberAddress, groupAddress)
	if !ok {
		return 0
	}
	return CalculateScore(m)
}

// GetMetrics reports false when the bucket has no event inside the window.
func (t *Tracker) GetMetrics(memberAddress, groupAddress string) (models.EngagementMetrics, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	bucket, ok := t.buckets.Peek(bucketKey(groupAddress, memberAddress))
	if !ok || len(bucket) == 0 {
		return models.EngagementMetrics{}, false
	}

	since := t.now().Add(-t.window)
	if !hasEventAfter(bucket, since) {
		return models.EngagementMetrics{}, false
	}
	return ComputeMetrics(bucket, since), true
}

func (t *Tracker) Events(memberAddress, groupAddress string) []models.EngagementEvent {
	t.mu.Lock()
	defer t.mu.Unlock()

	bucket, _ := t.buckets.Peek(bucketKey(groupAddress, memberAddress))
	out := make([]models.EngagementEvent, len(bucket))
	copy(out, bucket)
	return out
}

func (t *Tracker) TrackContribution(ctx context.Context, groupAddress, memberAddress string, amount float64) {
	t.TrackEngagement(ctx, newEvent(models.EngagementContribution, groupAddress, memberAddress,
		models.EngagementMetadata{Amount: &amount}))
}

func (t *Tracker) TrackVote(ctx context.Context, groupAddress, memberAddress, proposalID string) {
	t.TrackEngagement(ctx, newEvent(models.EngagementVote, groupAddress, memberAddress,
		models.EngagementMetadata{ProposalID: proposalID}))
}

func (t *Tracker) TrackProposal(ctx context.Context, groupAddress, memberAddress, proposalID string) {
	t.TrackEngagement(ctx, newEvent(models.EngagementProposal, groupAddress, memberAddress,
		models.EngagementMetadata{ProposalID: proposalID}))
}

func (t *Tracker) TrackComment(ctx context.Context, groupAddress, memberAddress, commentID string) {
	t.TrackEngagement(ctx, newEvent(models.EngagementComment, groupAddress, memberAddress,
		models.EngagementMetadata{CommentID: commentID}))
}

func (t *Tracker) TrackReaction(ctx context.Context, groupAddress, memberAddress, activityID, reactionType string) {
	t.TrackEngagement(ctx, newEvent(models.EngagementReaction, groupAddress, memberAddress,
		models.EngagementMetadata{ActivityID: activityID, ReactionType: reactionType}))
}

func (t *Tracker) TrackView(ctx context.Context, groupAddress, memberAddress, activityID string) {
	t.TrackEngagement(ctx, newEvent(models.EngagementView, groupAddress, memberAddress,
		models.EngagementMetadata{ActivityID: activityID}))
}

func (t *Tracker) TrackJoin(ctx context.Context, groupAddress, memberAddress string) {
	t.TrackEngagement(ctx, newEvent(models.EngagementJoin, groupAddress, memberAddress, models.EngagementMetadata{}))
}

func (t *Tracker) TrackLeave(ctx context.Context, groupAddress, memberAddress string) {
	t.TrackEngagement(ctx, newEvent(models.EngagementLeave, groupAddress, memberAddress, models.EngagementMetadata{}))
}

func newEvent(typ models.EngagementType, groupAddress, memberAddress string, meta models.EngagementMetadata) models.EngagementEvent {
	return models.EngagementEvent{
		Type:          typ,
		GroupAddress:  groupAddress,
		MemberAddress: memberAddress,
		Metadata:      meta,
	}
}

// bucketID keys a (group, member) bucket. Kept as a struct so addresses
// containing a separator cannot collide.
type bucketID struct {
	group  string
	member string
}

func bucketKey(groupAddress, memberAddress string) bucketID {
	return bucketID{group: strings.ToLower(groupAddress), member: strings.ToLower(memberAddress)}
}

// compact drops events at or before cutoff. Events are appended in time order,
// so the survivors are a suffix of the bucket.
func compact(bucket []models.EngagementEvent, cutoff time.Time) []models.EngagementEvent {
	i := 0
	for i < len(bucket) && !bucket[i].Timestamp.After(cutoff) {
		i++
	}
	out := make([]models.EngagementEvent, len(bucket)-i, len(bucket)-i+1)
	copy(out, bucket[i:])
	return out
}

func hasEventAfter(bucket []models.EngagementEvent, since time.Time) bool {
	return len(bucket) > 0 && bucket[len(bucket)-1].Timestamp.After(since)
}
