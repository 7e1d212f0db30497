/**
 * @description
 * This package handles configuration management for the service. It uses the Viper
 * library to read configuration from environment variables and an optional .env
 * file, providing a centralized way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`

	DatabaseURL string `mapstructure:"DATABASE_URL"`

	MongoURL      string `mapstructure:"MONGO_URL"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	RabbitMQURL   string `mapstructure:"RABBITMQ_URL"`
	EventExchange string `mapstructure:"EVENT_EXCHANGE"`
	ConsumerQueue string `mapstructure:"CONSUMER_QUEUE"`

	RedisURL             string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`

	TransferRateLimitPerMinute int `mapstructure:"TRANSFER_RATE_LIMIT_PER_MINUTE"`

	OutboxPollIntervalMS int `mapstructure:"OUTBOX_POLL_INTERVAL_MS"`
	OutboxBatchSize      int `mapstructure:"OUTBOX_BATCH_SIZE"`

	MirrorTimeoutMS    int `mapstructure:"MIRROR_TIMEOUT_MS"`
	MirrorQueueSize    int `mapstructure:"MIRROR_QUEUE_SIZE"`
	MirrorRetryDelayMS int `mapstructure:"MIRROR_RETRY_DELAY_MS"`
	MirrorMaxRetries   int `mapstructure:"MIRROR_MAX_RETRIES"`

	BranchDirectoryURL string `mapstructure:"BRANCH_DIRECTORY_URL"`
}

// LoadConfig reads configuration from environment variables and the optional .env
// file at the given path.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("MONGO_DATABASE", "capacitacion")
	viper.SetDefault("EVENT_EXCHANGE", "capacitacion.events")
	viper.SetDefault("CONSUMER_QUEUE", "capacitacion.listeners")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "capacitacion:rate_limit")
	viper.SetDefault("TRANSFER_RATE_LIMIT_PER_MINUTE", 0)
	viper.SetDefault("OUTBOX_POLL_INTERVAL_MS", 1000)
	viper.SetDefault("OUTBOX_BATCH_SIZE", 50)
	viper.SetDefault("MIRROR_TIMEOUT_MS", 5000)
	viper.SetDefault("MIRROR_QUEUE_SIZE", 256)
	viper.SetDefault("MIRROR_RETRY_DELAY_MS", 2000)
	viper.SetDefault("MIRROR_MAX_RETRIES", 10)

	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("MONGO_URL")
	_ = viper.BindEnv("MONGO_DATABASE")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("EVENT_EXCHANGE")
	_ = viper.BindEnv("CONSUMER_QUEUE")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("TRANSFER_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("OUTBOX_POLL_INTERVAL_MS")
	_ = viper.BindEnv("OUTBOX_BATCH_SIZE")
	_ = viper.BindEnv("MIRROR_TIMEOUT_MS")
	_ = viper.BindEnv("MIRROR_QUEUE_SIZE")
	_ = viper.BindEnv("MIRROR_RETRY_DELAY_MS")
	_ = viper.BindEnv("MIRROR_MAX_RETRIES")
	_ = viper.BindEnv("BRANCH_DIRECTORY_URL")

	if err = viper.ReadInConfig(); err != nil {
		// A missing .env file is fine; anything else is worth a warning but the
		// environment still wins.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("failed to read config file; using environment values", "error", err)
		}
		err = nil
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}

	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.BranchDirectoryURL = strings.TrimSpace(config.BranchDirectoryURL)

	if config.TransferRateLimitPerMinute < 0 {
		slog.Warn("negative transfer rate limit configured; disabling",
			"per_minute", config.TransferRateLimitPerMinute)
		config.TransferRateLimitPerMinute = 0
	}
	if config.OutboxPollIntervalMS <= 0 {
		config.OutboxPollIntervalMS = 1000
	}
	if config.OutboxBatchSize <= 0 {
		config.OutboxBatchSize = 50
	}
	if config.MirrorTimeoutMS <= 0 {
		config.MirrorTimeoutMS = 5000
	}
	if config.MirrorQueueSize <= 0 {
		config.MirrorQueueSize = 256
	}
	if config.MirrorRetryDelayMS <= 0 {
		config.MirrorRetryDelayMS = 2000
	}
	if config.MirrorMaxRetries <= 0 {
		config.MirrorMaxRetries = 10
	}

	return
}
