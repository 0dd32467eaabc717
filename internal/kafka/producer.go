package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// BookingEvent is published on every reservation state change and
// consumed by the reminder worker.
type BookingEvent struct {
	EventID   string    `json:"event_id"`
	Type      string    `json:"type"`
	BookingID string    `json:"booking_id"`
	Kind      string    `json:"kind"`
	RoomID    string    `json:"room_id"`
	RoomName  string    `json:"room_name"`
	Username  string    `json:"username"`
	GroupID   int64     `json:"group_id,omitempty"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
}

type Producer struct {
	writer *kafka.Writer
}

func NewProducer(brokers []string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 50 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
	}
}

func (p *Producer) Publish(ctx context.Context, topic, key string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error {
	if p.writer != nil {
		return p.writer.Close()
	}
	return nil
}
