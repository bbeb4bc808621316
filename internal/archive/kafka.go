// Package archive binds the tick export interfaces to the kafka and
// clickhouse clients.
package archive

import (
	"context"

	"QuantDesk/internal/domain/repository"
	pkgkafka "QuantDesk/pkg/kafka"
)

// KafkaPublisher publishes ticks to a topic, keyed by symbol.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaPublisher wraps a producer for the given topic.
func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.TickPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) Publish(ctx context.Context, key string, value interface{}) error {
	return p.producer.Publish(ctx, p.topic, []byte(key), value)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
