package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"carecircle-activity-svc/src/internal/config"
	"carecircle-activity-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// Channel is the subset of *amqp.Channel the publisher needs.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// EventPublisher mirrors feed records and engagement events onto the events exchange.
type EventPublisher struct {
	channel       Channel
	exchange      string
	activityKey   string
	engagementKey string
}

func NewEventPublisher(channel Channel, cfg *config.RabbitMQConfig) *EventPublisher {
	return &EventPublisher{
		channel:       channel,
		exchange:      cfg.Exchange,
		activityKey:   cfg.ActivityRoutingKey,
		engagementKey: cfg.EngagementRoutingKey,
	}
}

func (p *EventPublisher) PublishActivity(ctx context.Context, record models.ActivityRecord) error {
	message := models.ActivityMessage{
		ServiceName: models.ServiceActivityFeed,
		Action:      models.ActionActivityCreated,
		Activity:    record,
		Timestamp:   time.Now().UTC(),
	}
	return p.publish(ctx, p.activityKey, message, logrus.Fields{
		"activity_id": record.ID,
		"group":       record.GroupAddress,
		"type":        record.Type,
	})
}

// PersistEngagement publishes a tracked engagement event.
func (p *EventPublisher) PersistEngagement(ctx context.Context, event models.EngagementEvent) error {
	return p.publish(ctx, p.engagementKey, event, logrus.Fields{
		"group":  event.GroupAddress,
		"member": event.MemberAddress,
		"type":   event.Type,
	})
}

func (p *EventPublisher) publish(ctx context.Context, routingKey string, payload interface{}, fields logrus.Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = p.channel.Publish(
		p.exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   time.Now(),
		},
	)
	if err != nil {
		logrus.WithError(err).WithFields(fields).Error("Failed to publish message")
		return fmt.Errorf("%w: %v", models.ErrPublish, err)
	}

	fields["exchange"] = p.exchange
	fields["routing_key"] = routingKey
	logrus.WithFields(fields).Debug("Message published")

	return nil
}
