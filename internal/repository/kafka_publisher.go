package repository

import (
	"context"

	pkgkafka "BioWatch/pkg/kafka"
)

// KafkaPublisher republishes raw telemetry bodies to a fixed topic, keyed by
// stream so one stream stays on one partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	key      []byte
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic, stream string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic, key: []byte(stream)}
}

func (p *KafkaPublisher) Publish(ctx context.Context, body []byte) error {
	return p.producer.Publish(ctx, p.topic, p.key, body)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
