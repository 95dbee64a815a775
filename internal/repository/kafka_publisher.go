package repository

import (
	"context"
	"fmt"

	"TradeGate/internal/domain/models"
	"TradeGate/internal/domain/repository"
	pkgkafka "TradeGate/pkg/kafka"
	"TradeGate/pkg/util"
)

// KafkaEventPublisher emits decision and halt-transition events. Decisions
// are keyed by asset and halts by day so per-key ordering holds.
type KafkaEventPublisher struct {
	producer       *pkgkafka.Producer
	decisionsTopic string
	haltTopic      string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, decisionsTopic, haltTopic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		producer:       producer,
		decisionsTopic: decisionsTopic,
		haltTopic:      haltTopic,
	}
}

func (p *KafkaEventPublisher) PublishDecision(ctx context.Context, d *models.AdmissionDecision) error {
	if err := p.producer.Publish(ctx, p.decisionsTopic, []byte(d.Asset), d); err != nil {
		return fmt.Errorf("publish decision: %w", err)
	}
	return nil
}

func (p *KafkaEventPublisher) PublishHalt(ctx context.Context, t *models.HaltTransition) error {
	key := []byte(util.DayKey(t.OccurredAt))
	if err := p.producer.Publish(ctx, p.haltTopic, key, t); err != nil {
		return fmt.Errorf("publish halt transition: %w", err)
	}
	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}

var _ repository.EventPublisher = (*KafkaEventPublisher)(nil)
