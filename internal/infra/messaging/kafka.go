package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// envelope is the JSON value written to Kafka.
type envelope struct {
	Type    string    `json:"type"`
	At      time.Time `json:"at"`
	Payload any       `json:"payload"`
}

type KafkaPublisher struct {
	writer *kafka.Writer
	retry  RetryPolicy
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			RequiredAcks: kafka.RequireAll,
			Balancer:     &kafka.Hash{}, // 同じバッチのイベントは同じパーティションへ
		},
		retry: DefaultRetryPolicy,
	}
}

func (k *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(envelope{Type: ev.Type, At: ev.At, Payload: ev.Payload})
	if err != nil {
		return fmt.Errorf("encode %s: %w", ev.Type, err)
	}
	msg := kafka.Message{
		Key:     []byte(ev.Key),
		Value:   data,
		Time:    ev.At,
		Headers: []kafka.Header{{Key: "event-type", Value: []byte(ev.Type)}},
	}
	return k.retry.Do(ctx, func() error {
		return k.writer.WriteMessages(ctx, msg)
	})
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}
