package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoadConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.ServerPort != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.ServerPort)
	}
	if cfg.MongoDatabase != "capacitacion" {
		t.Fatalf("expected default mongo database, got %q", cfg.MongoDatabase)
	}
	if cfg.EventExchange != "capacitacion.events" {
		t.Fatalf("expected default exchange, got %q", cfg.EventExchange)
	}
	if cfg.TransferRateLimitPerMinute != 0 {
		t.Fatalf("expected rate limiting disabled by default, got %d", cfg.TransferRateLimitPerMinute)
	}
	if cfg.OutboxPollIntervalMS != 1000 || cfg.OutboxBatchSize != 50 {
		t.Fatalf("unexpected outbox defaults: %d/%d", cfg.OutboxPollIntervalMS, cfg.OutboxBatchSize)
	}
	if cfg.MirrorQueueSize != 256 || cfg.MirrorMaxRetries != 10 {
		t.Fatalf("unexpected mirror defaults: %d/%d", cfg.MirrorQueueSize, cfg.MirrorMaxRetries)
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/capacitacion")
	t.Setenv("TRANSFER_RATE_LIMIT_PER_MINUTE", "30")
	t.Setenv("OUTBOX_BATCH_SIZE", "10")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.ServerPort != "9090" {
		t.Fatalf("expected port 9090, got %q", cfg.ServerPort)
	}
	if cfg.DatabaseURL != "postgres://localhost:5432/capacitacion" {
		t.Fatalf("unexpected database url %q", cfg.DatabaseURL)
	}
	if cfg.TransferRateLimitPerMinute != 30 {
		t.Fatalf("expected rate limit 30, got %d", cfg.TransferRateLimitPerMinute)
	}
	if cfg.OutboxBatchSize != 10 {
		t.Fatalf("expected batch size 10, got %d", cfg.OutboxBatchSize)
	}
}

func TestLoadConfig_CoercesInvalidValues(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	t.Setenv("TRANSFER_RATE_LIMIT_PER_MINUTE", "-5")
	t.Setenv("OUTBOX_POLL_INTERVAL_MS", "0")
	t.Setenv("MIRROR_QUEUE_SIZE", "-1")

	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.TransferRateLimitPerMinute != 0 {
		t.Fatalf("expected negative rate limit coerced to 0, got %d", cfg.TransferRateLimitPerMinute)
	}
	if cfg.OutboxPollIntervalMS != 1000 {
		t.Fatalf("expected poll interval fallback, got %d", cfg.OutboxPollIntervalMS)
	}
	if cfg.MirrorQueueSize != 256 {
		t.Fatalf("expected queue size fallback, got %d", cfg.MirrorQueueSize)
	}
}
