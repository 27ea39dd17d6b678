package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/queuedesk/libs/config"
	"github.com/md-rashed-zaman/queuedesk/libs/kafkax"
	otelx "github.com/md-rashed-zaman/queuedesk/libs/otel"
	"github.com/md-rashed-zaman/queuedesk/libs/runtime"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/outbox"
)

const (
	storagePostgres = "postgres"
	storageMemory   = "memory"
)

var defaultDispatchTopics = strings.Join([]string{
	outbox.QueueEnqueued,
	outbox.StaffChanged,
	outbox.AppointmentUpdated,
}, ",")

type Config struct {
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME" env-default:"scheduling-service"`
	Env         string `yaml:"env" env:"APP_ENV" env-default:"prod" env-description:"local, dev or prod"`
	Port        string `yaml:"port" env:"PORT" env-default:"8080"`
	GRPCPort    string `yaml:"grpc_port" env:"GRPC_PORT" env-default:"9090"`

	Storage     string `yaml:"storage" env:"STORAGE" env-default:"postgres" env-description:"postgres or memory"`
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`

	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR" env-description:"enables the shared assignment lock and rate limiter"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"REDIS_DB" env-default:"0"`

	KafkaBrokers        string `yaml:"kafka_brokers" env:"KAFKA_BROKERS"`
	KafkaGroupID        string `yaml:"kafka_group_id" env:"KAFKA_GROUP_ID" env-default:"scheduling-service"`
	KafkaDispatchTopics string `yaml:"kafka_dispatch_topics" env:"KAFKA_DISPATCH_TOPICS"`

	Timezone      string        `yaml:"timezone" env:"TIMEZONE" env-default:"Local" env-description:"location of the calendar-day boundary"`
	AssignLockTTL time.Duration `yaml:"assign_lock_ttl" env:"ASSIGN_LOCK_TTL" env-default:"10s"`

	DispatchEnabled   bool          `yaml:"dispatch_enabled" env:"DISPATCH_ENABLED" env-default:"false"`
	DispatchInterval  time.Duration `yaml:"dispatch_interval" env:"DISPATCH_INTERVAL" env-default:"15s"`
	DispatchMaxPerRun int           `yaml:"dispatch_max_per_run" env:"DISPATCH_MAX_PER_RUN" env-default:"20"`

	RateLimitPerMinute int    `yaml:"rate_limit_per_minute" env:"RATE_LIMIT_PER_MINUTE" env-default:"0" env-description:"0 disables rate limiting"`
	CORSAllowedOrigins string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`

	OTelEnabled       bool   `yaml:"otel_enabled" env:"OTEL_ENABLED" env-default:"true"`
	OTelEndpoint      string `yaml:"otel_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"jaeger:4317"`
	OTelSamplingRatio string `yaml:"otel_sampling_ratio" env:"OTEL_SAMPLING_RATIO" env-default:"1"`
}

func (c Config) Validate() error {
	if err := config.ValidPort("PORT", c.Port); err != nil {
		return err
	}
	if err := config.ValidPort("GRPC_PORT", c.GRPCPort); err != nil {
		return err
	}
	switch c.Storage {
	case storagePostgres:
		if strings.TrimSpace(c.DatabaseURL) == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE=%s", storagePostgres)
		}
	case storageMemory:
	default:
		return fmt.Errorf("STORAGE must be %s or %s (got %q)", storagePostgres, storageMemory, c.Storage)
	}
	if c.AssignLockTTL <= 0 {
		return fmt.Errorf("ASSIGN_LOCK_TTL must be positive")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE: %w", err)
	}
	return loc, nil
}

func (c Config) Brokers() []string { return kafkax.SplitBrokers(c.KafkaBrokers) }

func (c Config) DispatchTopics() []string {
	if strings.TrimSpace(c.KafkaDispatchTopics) == "" {
		return kafkax.SplitTopics(defaultDispatchTopics)
	}
	return kafkax.SplitTopics(c.KafkaDispatchTopics)
}

func (c Config) Otel() otelx.Config {
	return otelx.Config{
		Enabled:      c.OTelEnabled,
		ServiceName:  c.ServiceName,
		Environment:  runtime.NormalizeEnv(c.Env),
		OTLPEndpoint: c.OTelEndpoint,
		SampleRatio:  otelx.ParseRatio(c.OTelSamplingRatio),
	}
}
