package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pennmobile/gsr-booking/config"
	"github.com/pennmobile/gsr-booking/internal/bootstrap"
	"github.com/pennmobile/gsr-booking/internal/cache"
	"github.com/pennmobile/gsr-booking/internal/kafka"
	"github.com/pennmobile/gsr-booking/internal/provider"
	"github.com/pennmobile/gsr-booking/internal/repository"
	"github.com/pennmobile/gsr-booking/internal/service/booking"
	"github.com/pennmobile/gsr-booking/internal/service/groups"
	"github.com/pennmobile/gsr-booking/internal/service/spaces"
	"github.com/sirupsen/logrus"
)

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		logger.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	redisCache := cache.NewRedisCache(cfg.Redis, time.Duration(cfg.Booking.BuildingsCacheTTL)*time.Second)
	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	timeout := time.Duration(cfg.Providers.TimeoutSeconds) * time.Second
	providers := provider.NewSet(
		provider.NewLibCalClient(cfg.Providers.LibCalBaseURL, cfg.Providers.LibCalToken, timeout),
		provider.NewWhartonClient(cfg.Providers.WhartonBaseURL, cfg.Providers.WhartonToken, timeout),
	)

	reservationRepo := repository.NewReservationRepository(pool)
	groupRepo := repository.NewGroupRepository(pool)

	spacesService := spaces.NewSpacesService(providers, redisCache, logger)
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

	if err := bootstrap.Run(ctx, cfg, spacesService, bookingService, groupService, logger); err != nil {
		logger.Fatalf("server error: %v", err)
	}
}
