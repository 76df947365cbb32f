package clients

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"carecircle-activity-svc/src/internal/config"
	"carecircle-activity-svc/src/internal/models"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	sent []published
	err  error
}

func (f *fakeChannel) Publish(exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func testQueueConfig() *config.RabbitMQConfig {
	return &config.RabbitMQConfig{
		Exchange:             "carecircle.events",
		ActivityRoutingKey:   "activity.created",
		EngagementRoutingKey: "engagement.tracked",
	}
}

func TestEventPublisher_PublishActivity(t *testing.T) {
	ch := &fakeChannel{}
	p := NewEventPublisher(ch, testQueueConfig())

	record := models.ActivityRecord{ID: "1-abc", Type: models.ActivityExpenseAdded, GroupAddress: "0xG"}
	require.NoError(t, p.PublishActivity(context.Background(), record))

	require.Len(t, ch.sent, 1)
	assert.Equal(t, "carecircle.events", ch.sent[0].exchange)
	assert.Equal(t, "activity.created", ch.sent[0].key)
	assert.Equal(t, "application/json", ch.sent[0].msg.ContentType)

	var msg models.ActivityMessage
	require.NoError(t, json.Unmarshal(ch.sent[0].msg.Body, &msg))
	assert.Equal(t, models.ActionActivityCreated, msg.Action)
	assert.Equal(t, "1-abc", msg.Activity.ID)
}

func TestEventPublisher_PersistEngagement(t *testing.T) {
	ch := &fakeChannel{}
	p := NewEventPublisher(ch, testQueueConfig())

	event := models.EngagementEvent{
		Type:          models.EngagementVote,
		GroupAddress:  "0xG",
		MemberAddress: "0xM",
		Timestamp:     time.Now(),
	}
	require.NoError(t, p.PersistEngagement(context.Background(), event))

	require.Len(t, ch.sent, 1)
	assert.Equal(t, "engagement.tracked", ch.sent[0].key)
}

func TestEventPublisher_WrapsChannelError(t *testing.T) {
	p := NewEventPublisher(&fakeChannel{err: errors.New("channel closed")}, testQueueConfig())

	err := p.PublishActivity(context.Background(), models.ActivityRecord{ID: "x"})

	assert.ErrorIs(t, err, models.ErrPublish)
}

func TestEventPublisher_CancelledContext(t *testing.T) {
	ch := &fakeChannel{}
	p := NewEventPublisher(ch, testQueueConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.PersistEngagement(ctx, models.EngagementEvent{})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, ch.sent)
}
