package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"lexwatch/internal/notify/models"
)

// KafkaDispatcher publishes notification events to a Kafka topic, keyed by
// user so one user's notifications stay ordered within a partition.
type KafkaDispatcher struct {
	client *kgo.Client
	topic  string
}

// NewKafka connects a producer to the given brokers.
func NewKafka(brokers []string, topic string) (*KafkaDispatcher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka producer: %w", err)
	}
	return &KafkaDispatcher{client: client, topic: topic}, nil
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, n models.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification event: %w", err)
	}
	record := &kgo.Record{
		Topic: d.topic,
		Key:   []byte(n.UserID.String()),
		Value: payload,
	}
	if err := d.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("publish notification event: %w", err)
	}
	return nil
}

// Close flushes pending records and releases the producer.
func (d *KafkaDispatcher) Close() {
	d.client.Close()
}
