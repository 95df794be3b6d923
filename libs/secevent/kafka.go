package secevent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/petsocial/petsocial/libs/kafkax"
	"github.com/segmentio/kafka-go"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSink publishes events as JSON, keyed by event type so one type stays
// on one partition.
type KafkaSink struct {
	w messageWriter
}

func NewKafkaSink(brokers, topic string) (*KafkaSink, error) {
	w, err := kafkax.NewWriter(brokers, topic)
	if err != nil {
		return nil, err
	}
	return &KafkaSink{w: w}, nil
}

func (s *KafkaSink) Record(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encode security event: %w", err)
	}
	msg := kafka.Message{
		Key:     []byte(ev.Type),
		Value:   payload,
		Headers: kafkax.EventMeta{EventID: ev.ID, EventType: string(ev.Type)}.Headers(),
	}
	msg.Headers = kafkax.InjectTraceHeaders(ctx, msg.Headers)
	if err := s.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish security event: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() error { return s.w.Close() }
