package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Providers ProvidersConfig `yaml:"providers"`
	Booking   BookingConfig   `yaml:"booking"`
	Worker    WorkerConfig    `yaml:"worker"`
}

type HTTPConfig struct {
	Address    string `yaml:"address"`
	SwaggerDir string `yaml:"swagger_dir"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"ssl_mode"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s", d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type KafkaConfig struct {
	Brokers            []string `yaml:"brokers"`
	BookingTopic       string   `yaml:"booking_topic"`
	NotificationsTopic string   `yaml:"notifications_topic"`
	GroupID            string   `yaml:"group_id"`
}

type ProvidersConfig struct {
	LibCalBaseURL  string `yaml:"libcal_base_url"`
	LibCalToken    string `yaml:"libcal_token"`
	WhartonBaseURL string `yaml:"wharton_base_url"`
	WhartonToken   string `yaml:"wharton_token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

type BookingConfig struct {
	SearchSpanDays      int `yaml:"search_span_days"`
	FanOutLimit         int `yaml:"fan_out_limit"`
	BuildingsCacheTTL   int `yaml:"buildings_cache_ttl_seconds"`
	ReminderLeadMinutes int `yaml:"reminder_lead_minutes"`
}

type WorkerConfig struct {
	ReminderSweepMinutes int `yaml:"reminder_sweep_minutes"`
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Providers.TimeoutSeconds == 0 {
		cfg.Providers.TimeoutSeconds = 10
	}
	if cfg.Booking.SearchSpanDays == 0 {
		cfg.Booking.SearchSpanDays = 3
	}
	if cfg.Booking.FanOutLimit == 0 {
		cfg.Booking.FanOutLimit = 4
	}
	if cfg.Booking.ReminderLeadMinutes == 0 {
		cfg.Booking.ReminderLeadMinutes = 30
	}
	if cfg.Worker.ReminderSweepMinutes == 0 {
		cfg.Worker.ReminderSweepMinutes = 5
	}
}
