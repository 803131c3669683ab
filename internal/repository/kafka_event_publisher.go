package repository

import (
	"context"
	"fmt"

	"FGReport/internal/domain/models"
	"FGReport/internal/domain/repository"
)

type producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaEventPublisher emits report.published events keyed by as-of date.
type KafkaEventPublisher struct {
	producer producer
	topic    string
}

func NewKafkaEventPublisher(p producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: p, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, ev models.PublishedEvent) error {
	if err := p.producer.Publish(ctx, p.topic, []byte(ev.AsOf), ev); err != nil {
		return fmt.Errorf("publish report event: %w", err)
	}
	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}

var _ repository.EventPublisher = (*KafkaEventPublisher)(nil)
