package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pennmobile/gsr-booking/config"
	"github.com/pennmobile/gsr-booking/internal/kafka"
	"github.com/pennmobile/gsr-booking/internal/notify"
	"github.com/pennmobile/gsr-booking/internal/provider"
	"github.com/pennmobile/gsr-booking/internal/repository"
	"github.com/pennmobile/gsr-booking/internal/service/booking"
	"github.com/pennmobile/gsr-booking/internal/service/groups"
	"github.com/pennmobile/gsr-booking/internal/service/spaces"
	"github.com/sirupsen/logrus"
)

// The worker sweeps reservations due a reminder and delivers every
// notification event published on the notifications topic.
func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	timeout := time.Duration(cfg.Providers.TimeoutSeconds) * time.Second
	providers := provider.NewSet(
		provider.NewLibCalClient(cfg.Providers.LibCalBaseURL, cfg.Providers.LibCalToken, timeout),
		provider.NewWhartonClient(cfg.Providers.WhartonBaseURL, cfg.Providers.WhartonToken, timeout),
	)

	reservationRepo := repository.NewReservationRepository(pool)
	groupRepo := repository.NewGroupRepository(pool)
	spacesService := spaces.NewSpacesService(providers, nil, logger)
	groupService := groups.NewGroupService(groupRepo, logger)
	bookingService := booking.NewBookingService(
		reservationRepo,
		groupService,
		providers,
		spacesService,
		producer,
		cfg.Kafka.BookingTopic,
		cfg.Booking.FanOutLimit,
		time.Duration(cfg.Booking.ReminderLeadMinutes)*time.Minute,
		logger,
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
	)

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, logger)
	defer consumer.Close()

	sender := notify.NewSender(logger)

	go func() {
		if err := consumer.Consume(ctx, sender.Send); err != nil {
			logger.WithError(err).Info("consumer stopped")
		}
	}()

	sweepTicker := time.NewTicker(time.Duration(cfg.Worker.ReminderSweepMinutes) * time.Minute)
	defer sweepTicker.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-sweepTicker.C:
			due, err := bookingService.SweepReminders(ctx)
			if err != nil {
				logger.WithError(err).Warn("reminder sweep failed")
				continue
			}
			if len(due) > 0 {
				logger.WithField("count", len(due)).Info("reminders published")
			}
		case s := <-sig:
			logger.WithField("signal", s.String()).Info("shutting down")
			return
		}
	}
}
