package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/config"
	"github.com/leggedrobotics/euler-cluster-guide/pkg/common/models"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewProducerWithoutBrokers(t *testing.T) {
	assert.Nil(t, NewProducer(&config.Config{}))
}

func TestPublishEventEncodesEnvelope(t *testing.T) {
	w := &recordingWriter{}
	p := NewProducerWithWriter(w, "diag")

	err := p.PublishEvent(context.Background(), "training.epoch", "fake-trainer", map[string]interface{}{"epoch": 3})
	require.NoError(t, err)
	require.Len(t, w.messages, 1)

	var event models.Event
	require.NoError(t, json.Unmarshal(w.messages[0].Value, &event))
	assert.Equal(t, "training.epoch", event.Type)
	assert.Equal(t, "fake-trainer", event.Source)
	assert.Equal(t, float64(3), event.Data["epoch"])
	assert.Equal(t, event.ID, string(w.messages[0].Key))
	assert.Equal(t, "event-type", w.messages[0].Headers[0].Key)

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishEventPropagatesWriterError(t *testing.T) {
	w := &recordingWriter{err: errors.New("broker down")}
	p := NewProducerWithWriter(w, "diag")

	err := p.PublishEvent(context.Background(), "probe.completed", "hello-cluster", nil)
	assert.EqualError(t, err, "broker down")
}

type stalledWriter struct{}

func (stalledWriter) WriteMessages(ctx context.Context, _ ...kafka.Message) error {
	<-ctx.Done()
	return ctx.Err()
}

func (stalledWriter) Close() error { return nil }

func TestPublishEventTimesOutOnStalledBroker(t *testing.T) {
	p := NewProducerWithWriter(stalledWriter{}, "diag").WithTimeout(20 * time.Millisecond)

	start := time.Now()
	err := p.PublishEvent(context.Background(), "training.epoch", "fake-trainer", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestWithTimeoutIgnoresNonPositive(t *testing.T) {
	p := NewProducerWithWriter(&recordingWriter{}, "diag").WithTimeout(0)
	assert.Equal(t, DefaultPublishTimeout, p.timeout)
}
