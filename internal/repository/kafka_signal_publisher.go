package repository

import (
	"context"

	"ARSPull/internal/domain/models"
	domrepo "ARSPull/internal/domain/repository"
	pkgkafka "ARSPull/pkg/kafka"
)

// KafkaSignalPublisher implements SignalPublisher for Kafka. Messages are
// keyed by market so downstream consumers see per-market ordering.
type KafkaSignalPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaSignalPublisher creates a Kafka publisher.
func NewKafkaSignalPublisher(producer *pkgkafka.Producer, topic string) domrepo.SignalPublisher {
	return &KafkaSignalPublisher{producer: producer, topic: topic}
}

func (p *KafkaSignalPublisher) Publish(ctx context.Context, s *models.ProcessedSignal) error {
	return p.producer.Publish(ctx, p.topic, []byte(s.MarketID), s)
}

func (p *KafkaSignalPublisher) PublishBatch(ctx context.Context, signals []*models.ProcessedSignal) error {
	if len(signals) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(signals))
	for i, s := range signals {
		msgs[i] = pkgkafka.Message{Key: []byte(s.MarketID), Value: s}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaSignalPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
