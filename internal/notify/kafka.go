package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/nao1215/riskscope/internal/model"
)

// DefaultKafkaTopic is the topic used when none is configured.
const DefaultKafkaTopic = "riskscope.alerts"

// messageWriter is the subset of *kafkago.Writer used by Kafka.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Kafka publishes decisions as JSON messages keyed by input kind.
type Kafka struct {
	writer messageWriter
	topic  string
}

// NewKafka creates a Kafka notifier. The writer connects lazily on the
// first message.
func NewKafka(brokers []string, topic string) (*Kafka, error) {
	if len(brokers) == 0 {
		return nil, ErrNoBrokers
	}
	if topic == "" {
		topic = DefaultKafkaTopic
	}
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafkago.RequireOne,
	}
	return &Kafka{writer: w, topic: topic}, nil
}

// Name implements Notifier.
func (k *Kafka) Name() string { return ChannelKafka }

// Notify implements Notifier.
func (k *Kafka) Notify(ctx context.Context, d model.Decision) error {
	value, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("failed to encode decision: %w", err)
	}

	msg := kafkago.Message{
		Key:   []byte(d.Kind),
		Value: value,
		Headers: []kafkago.Header{
			{Key: "action", Value: []byte(d.Action.String())},
		},
	}
	if d.RequestID != "" {
		msg.Headers = append(msg.Headers, kafkago.Header{Key: "request_id", Value: []byte(d.RequestID)})
	}

	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish to %s: %w", k.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (k *Kafka) Close() error {
	return k.writer.Close()
}
