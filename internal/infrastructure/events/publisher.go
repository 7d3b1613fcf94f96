package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/expertguide/expertguide-api/internal/domain"
	"github.com/google/uuid"
)

// AuditPublisher emits 2FA attempt audit events. Implementations must not
// block the verification flow; callers publish fire-and-forget.
type AuditPublisher interface {
	PublishAttempt(ctx context.Context, e domain.AuditEvent) error
}

// WatermillPublisher publishes audit events to a watermill topic.
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
}

func NewWatermillPublisher(publisher message.Publisher, topic string) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher, topic: topic}
}

func (p *WatermillPublisher) PublishAttempt(_ context.Context, e domain.AuditEvent) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	msg := message.NewMessage(uuid.New().String(), payload)
	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("publish audit event: %w", err)
	}
	return nil
}
