package repository

import (
	"context"

	"NeuroBand/internal/domain/models"
	domrepo "NeuroBand/internal/domain/repository"
	pkgkafka "NeuroBand/pkg/kafka"
)

// KafkaEventPublisher writes ingestion events keyed by ingestion id.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaEventPublisher creates Kafka publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) PublishIngested(ctx context.Context, evt *models.IngestedEvent) error {
	return p.producer.Publish(ctx, p.topic, []byte(evt.ID), evt)
}

// PublishMessage lets the log digest share the producer.
func (p *KafkaEventPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

var _ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)
