package eventbus

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/segmentio/kafka-go"
)

// Consumer reads retentionloop.render.completed so the feedback loop can be
// triggered by render completion in addition to its periodic ticker.
type Consumer struct {
	reader *kafka.Reader
}

// NewConsumer builds a Consumer bound to topic on the given broker list and
// consumer group. Returns (nil, nil) when brokers is empty so callers can
// skip the consume loop entirely when Kafka isn't configured.
func NewConsumer(brokers, groupID, topic string) (*Consumer, error) {
	brokers = strings.TrimSpace(brokers)
	if brokers == "" {
		return nil, nil
	}
	brokerList := strings.Split(brokers, ",")
	for i, b := range brokerList {
		brokerList[i] = strings.TrimSpace(b)
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokerList,
		GroupID: groupID,
		Topic:   topic,
	})
	return &Consumer{reader: r}, nil
}

// Next blocks until the next RenderCompleted event or ctx is cancelled.
func (c *Consumer) Next(ctx context.Context) (RenderCompleted, error) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return RenderCompleted{}, err
	}
	var evt RenderCompleted
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		return RenderCompleted{}, err
	}
	return evt, nil
}

// Close releases the underlying reader.
func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}
