// Package eventbus publishes domain events as JSON-encoded Kafka messages:
// retentionloop.render.completed, emitted once a metric is recorded for a
// finished render, and retentionloop.config.activated, emitted whenever a
// config version is activated.
package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	TopicRenderCompleted = "retentionloop.render.completed"
	TopicConfigActivated = "retentionloop.config.activated"
)

// Writer is the subset of *kafka.Writer the bus needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Bus publishes domain events as JSON-encoded Kafka messages.
type Bus struct {
	writer Writer
}

// New builds a Bus from comma-separated broker addresses. Returns a
// no-op Bus (nil writer) when brokers is empty, so callers don't need a
// conditional publish path when Kafka isn't configured.
func New(brokers string) (*Bus, error) {
	brokers = strings.TrimSpace(brokers)
	if brokers == "" {
		return &Bus{}, nil
	}
	brokerList := strings.Split(brokers, ",")
	for i, b := range brokerList {
		brokerList[i] = strings.TrimSpace(b)
	}
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokerList...),
		Balancer: &kafka.LeastBytes{},
	}
	return &Bus{writer: w}, nil
}

// RenderCompleted is the retentionloop.render.completed payload.
type RenderCompleted struct {
	JobID           string    `json:"job_id"`
	ConfigVersionID string    `json:"config_version_id"`
	ScoreTotal      float64   `json:"score_total"`
	RecordedAt      time.Time `json:"recorded_at"`
}

// ConfigActivated is the retentionloop.config.activated payload.
type ConfigActivated struct {
	ConfigVersionID string    `json:"config_version_id"`
	PresetName      string    `json:"preset_name,omitempty"`
	ActivatedAt     time.Time `json:"activated_at"`
}

// PublishRenderCompleted publishes after C6 records a metric. A nil/no-op
// Bus silently succeeds.
func (b *Bus) PublishRenderCompleted(ctx context.Context, evt RenderCompleted) error {
	return b.publish(ctx, TopicRenderCompleted, evt.JobID, evt)
}

// PublishConfigActivated publishes whenever C4 activates a version.
func (b *Bus) PublishConfigActivated(ctx context.Context, evt ConfigActivated) error {
	return b.publish(ctx, TopicConfigActivated, evt.ConfigVersionID, evt)
}

func (b *Bus) publish(ctx context.Context, topic, key string, payload any) error {
	if b == nil || b.writer == nil {
		return nil
	}
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("eventbus: marshal %s: %w", topic, err)
	}
	return b.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
	})
}
