package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Consumer delivers decoded booking events to a handler. Messages that
// do not decode are logged and skipped; they would fail the same way on
// every redelivery.
type Consumer struct {
	reader *kafka.Reader
	logger *logrus.Logger
}

func NewConsumer(brokers []string, groupID, topic string, logger *logrus.Logger) *Consumer {
	return &Consumer{
		reader: kafka.NewReader(kafka.ReaderConfig{
			Brokers:           brokers,
			GroupID:           groupID,
			Topic:             topic,
			HeartbeatInterval: 3 * time.Second,
			SessionTimeout:    30 * time.Second,
		}),
		logger: logger,
	}
}

func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}

func (c *Consumer) Consume(ctx context.Context, handler func(context.Context, BookingEvent) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			return err
		}

		event, err := decodeEvent(msg.Value)
		if err != nil {
			c.logger.WithField("topic", msg.Topic).WithError(err).Warn("skipping undecodable event")
			continue
		}

		if err := handler(ctx, event); err != nil {
			return err
		}
	}
}

func decodeEvent(data []byte) (BookingEvent, error) {
	var event BookingEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return BookingEvent{}, fmt.Errorf("failed to decode booking event: %w", err)
	}
	return event, nil
}
