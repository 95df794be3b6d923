package kafkax

import (
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
)

// NewWriter returns a writer for topic that balances by key and waits for the
// leader ack only; security events are advisory and must not stall the UI.
func NewWriter(brokers, topic string) (*kafka.Writer, error) {
	list := SplitBrokers(brokers)
	if len(list) == 0 {
		return nil, errors.New("kafka brokers not configured")
	}
	if topic == "" {
		return nil, errors.New("kafka topic not configured")
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(list...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		BatchTimeout:           50 * time.Millisecond,
		WriteTimeout:           3 * time.Second,
		AllowAutoTopicCreation: true,
	}, nil
}
