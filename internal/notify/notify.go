package notify

import (
	"context"

	"github.com/pennmobile/gsr-booking/internal/kafka"
	"github.com/sirupsen/logrus"
)

// Sender delivers booking notifications to users. Delivery is a log line
// here; the mobile push gateway sits behind the same interface in
// deployment.
type Sender struct {
	logger *logrus.Logger
}

func NewSender(logger *logrus.Logger) *Sender {
	return &Sender{logger: logger}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	s.logger.WithFields(logrus.Fields{
		"type":       event.Type,
		"username":   event.Username,
		"booking_id": event.BookingID,
		"room":       event.RoomName,
		"start":      event.Start,
	}).Info("sending booking notification")
	return nil
}
