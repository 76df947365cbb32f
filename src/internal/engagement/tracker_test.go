package engagement

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"carecircle-activity-svc/src/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingPersister struct {
	mu     sync.Mutex
	events []models.EngagementEvent
	err    error
}

func (p *recordingPersister) PersistEngagement(_ context.Context, e models.EngagementEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func newTestTracker(opts ...Option) (*Tracker, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	return NewTracker(100, true, opts...), clock
}

func TestTracker_DefaultScoreIsZero(t *testing.T) {
	tracker, _ := newTestTracker()

	assert.Equal(t, 0.0, tracker.GetEngagementScore("0xM1", "0xG1"))
	_, ok := tracker.GetMetrics("0xM1", "0xG1")
	assert.False(t, ok)
}

func TestTracker_ContributionThenVoteScenario(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()

	tracker.TrackContribution(ctx, "G1", "M1", 0.5)
	tracker.TrackVote(ctx, "G1", "M1", "")

	m, ok := tracker.GetMetrics("M1", "G1")
	require.True(t, ok)
	assert.Equal(t, 1, m.ContributionCount)
	assert.Equal(t, 1.0, m.VotingParticipation)
	assert.InDelta(t, 0.2, m.ParticipationRate, 1e-9)
	assert.Equal(t, 48.0, m.ResponseTime)

	score := tracker.GetEngagementScore("M1", "G1")
	assert.Greater(t, score, 0.0)

	events := tracker.Events("M1", "G1")
	require.Len(t, events, 2)
	require.NotNil(t, events[0].Metadata.Amount)
	assert.Equal(t, 0.5, *events[0].Metadata.Amount)
}

func TestTracker_AppendVisibleImmediately(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()

	for _, typ := range []models.EngagementType{
		models.EngagementContribution, models.EngagementVote, models.EngagementProposal,
		models.EngagementComment, models.EngagementReaction, models.EngagementView,
		models.EngagementJoin, models.EngagementLeave,
	} {
		before := len(tracker.Events("0xM", "0xG"))
		tracker.TrackEngagement(ctx, models.EngagementEvent{Type: typ, GroupAddress: "0xG", MemberAddress: "0xM"})
		assert.Len(t, tracker.Events("0xM", "0xG"), before+1, "type %s", typ)
		_, ok := tracker.GetMetrics("0xM", "0xG")
		assert.True(t, ok)
	}
}

func TestTracker_StampsTimestamp(t *testing.T) {
	tracker, clock := newTestTracker()

	tracker.TrackEngagement(context.Background(), models.EngagementEvent{
		Type:          models.EngagementView,
		GroupAddress:  "0xG",
		MemberAddress: "0xM",
		Timestamp:     time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
	})

	events := tracker.Events("0xM", "0xG")
	require.Len(t, events, 1)
	assert.Equal(t, clock.Now(), events[0].Timestamp)
}

func TestTracker_BucketKeyIgnoresCase(t *testing.T) {
	tracker, _ := newTestTracker()

	tracker.TrackJoin(context.Background(), "0xABC", "0xDEF")

	assert.Len(t, tracker.Events("0xdef", "0xabc"), 1)
}

func TestTracker_DisabledIsNoop(t *testing.T) {
	persister := &recordingPersister{}
	tracker, _ := newTestTracker(WithPersister("test", persister))
	tracker.SetEnabled(false)

	tracker.TrackContribution(context.Background(), "0xG", "0xM", 1)

	assert.False(t, tracker.Enabled())
	assert.Empty(t, tracker.Events("0xM", "0xG"))
	assert.Empty(t, persister.events)
}

func TestTracker_PersisterFailureKeepsLocalState(t *testing.T) {
	failing := &recordingPersister{err: errors.New("backend down")}
	ok := &recordingPersister{}
	tracker, _ := newTestTracker(WithPersister("failing", failing), WithPersister("ok", ok))

	tracker.TrackVote(context.Background(), "0xG", "0xM", "p-1")

	assert.Len(t, tracker.Events("0xM", "0xG"), 1)
	require.Len(t, failing.events, 1)
	require.Len(t, ok.events, 1)
	assert.Equal(t, "p-1", ok.events[0].Metadata.ProposalID)
	assert.False(t, ok.events[0].Timestamp.IsZero())
	assert.Greater(t, tracker.GetEngagementScore("0xM", "0xG"), 0.0)
}

func TestTracker_IgnoresUnknownType(t *testing.T) {
	persister := &recordingPersister{}
	tracker, _ := newTestTracker(WithPersister("test", persister))

	tracker.TrackEngagement(context.Background(), models.EngagementEvent{Type: "dance", GroupAddress: "0xG", MemberAddress: "0xM"})

	assert.Empty(t, tracker.Events("0xM", "0xG"))
	assert.Empty(t, persister.events)
}

func TestTracker_WindowExcludesOldEvents(t *testing.T) {
	tracker, clock := newTestTracker()
	ctx := context.Background()

	tracker.TrackContribution(ctx, "0xG", "0xM", 1)
	clock.Advance(DefaultWindow + time.Minute)

	assert.Equal(t, 0.0, tracker.GetEngagementScore("0xM", "0xG"))

	tracker.TrackVote(ctx, "0xG", "0xM", "p")

	events := tracker.Events("0xM", "0xG")
	require.Len(t, events, 1, "stale events are compacted on append")
	m, ok := tracker.GetMetrics("0xM", "0xG")
	require.True(t, ok)
	assert.Equal(t, 0, m.ContributionCount)
}

func TestTracker_BoundedBuckets(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	tracker := NewTracker(2, true, WithClock(clock.Now))
	ctx := context.Background()

	tracker.TrackJoin(ctx, "0xG", "0x1")
	tracker.TrackJoin(ctx, "0xG", "0x2")
	tracker.TrackJoin(ctx, "0xG", "0x3")

	assert.Empty(t, tracker.Events("0x1", "0xG"))
	assert.Len(t, tracker.Events("0x2", "0xG"), 1)
	assert.Len(t, tracker.Events("0x3", "0xG"), 1)
}

func TestTracker_ConcurrentTracking(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tracker.TrackComment(ctx, "0xG", "0xM", "c")
		}()
	}
	wg.Wait()

	assert.Len(t, tracker.Events("0xM", "0xG"), 50)
}

func TestTracker_BucketsDoNotCollideOnSeparator(t *testing.T) {
	tracker, _ := newTestTracker()
	ctx := context.Background()

	tracker.TrackVote(ctx, "a-b", "c", "p1")
	tracker.TrackVote(ctx, "a", "b-c", "p2")

	first := tracker.Events("c", "a-b")
	second := tracker.Events("b-c", "a")
	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, "p1", first[0].Metadata.ProposalID)
	assert.Equal(t, "p2", second[0].Metadata.ProposalID)
}
