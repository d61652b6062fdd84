package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/config"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/logger"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/models"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// DefaultPublishTimeout bounds a single publish when no timeout is configured.
const DefaultPublishTimeout = 5 * time.Second

// MessageWriter is the subset of *kafka.Writer the producer needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer  MessageWriter
	topic   string
	timeout time.Duration
}

// NewProducer returns nil when no brokers are configured.
func NewProducer(cfg *config.Config) *Producer {
	if len(cfg.KafkaBrokers) == 0 {
		return nil
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequireAll,
		Async:                  false,
		BatchSize:              1,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           cfg.KafkaPublishTimeout,
		AllowAutoTopicCreation: true,
	}

	return NewProducerWithWriter(writer, cfg.KafkaTopic).WithTimeout(cfg.KafkaPublishTimeout)
}

func NewProducerWithWriter(writer MessageWriter, topic string) *Producer {
	return &Producer{writer: writer, topic: topic, timeout: DefaultPublishTimeout}
}

// WithTimeout sets the deadline applied to each publish. Non-positive values
// keep the current timeout.
func (p *Producer) WithTimeout(d time.Duration) *Producer {
	if d > 0 {
		p.timeout = d
	}
	return p
}

func (p *Producer) PublishEvent(ctx context.Context, eventType string, source string, data map[string]interface{}) error {
	event := models.Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    source,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	eventBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(event.ID),
		Value: eventBytes,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(eventType)},
			{Key: "source", Value: []byte(source)},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		logger.WithFields(logrus.Fields{
			"event_id":   event.ID,
			"event_type": eventType,
		}).WithError(err).Warn("Failed to publish event")
		return err
	}

	logger.WithFields(logrus.Fields{
		"event_id":   event.ID,
		"event_type": eventType,
		"topic":      p.topic,
	}).Debug("Event published")

	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
