/**
 * @description
 * This file implements the outbox relay: the worker that turns durable outbox rows
 * into broker publications. Rows are written by the repository inside the same SQL
 * transaction as the state change they announce, so the relay only ever publishes
 * events for changes that durably happened.
 *
 * Delivery is at-least-once: a crash after Publish but before the row is marked
 * published causes a re-publish on the next pass, which the event contract allows.
 */

package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/fabriciomarote/capacitacion/internal/store"
	"github.com/fabriciomarote/capacitacion/pkg/rabbitmq"
)

// RelayMetrics is the slice of the metrics collector the relay depends on.
type RelayMetrics interface {
	RecordEventPublished()
}

type noopRelayMetrics struct{}

func (noopRelayMetrics) RecordEventPublished() {}

// OutboxRelay polls pending outbox rows and publishes them to the topic exchange.
type OutboxRelay struct {
	repo      store.Repository
	publisher rabbitmq.Publisher
	exchange  string
	interval  time.Duration
	batchSize int
	metrics   RelayMetrics
	logger    *slog.Logger
}

// NewOutboxRelay creates a relay. Run must be started for events to flow.
func NewOutboxRelay(repo store.Repository, publisher rabbitmq.Publisher, exchange string, interval time.Duration, batchSize int, metrics RelayMetrics, logger *slog.Logger) *OutboxRelay {
	if interval <= 0 {
		interval = time.Second
	}
	if batchSize <= 0 {
		batchSize = 50
	}
	if metrics == nil {
		metrics = noopRelayMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &OutboxRelay{
		repo:      repo,
		publisher: publisher,
		exchange:  exchange,
		interval:  interval,
		batchSize: batchSize,
		metrics:   metrics,
		logger:    logger,
	}
}

// Run polls until ctx is cancelled.
func (r *OutboxRelay) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Drain(ctx)
		}
	}
}

// Drain publishes one batch of pending events. Publish failures leave the row
// pending; the next pass retries it.
func (r *OutboxRelay) Drain(ctx context.Context) {
	events, err := r.repo.ListPendingOutboxEvents(ctx, r.batchSize)
	if err != nil {
		r.logger.Error("failed to list pending outbox events", "error", err)
		return
	}

	for _, event := range events {
		if err := r.publisher.Publish(ctx, r.exchange, event.RoutingKey, json.RawMessage(event.Payload)); err != nil {
			r.logger.Warn("outbox publish failed; will retry",
				"event_id", event.ID, "routing_key", event.RoutingKey, "error", err)
			continue
		}
		if err := r.repo.MarkOutboxEventPublished(ctx, event.ID); err != nil {
			// The event went out but stays pending; the duplicate on the next pass
			// is covered by the at-least-once contract.
			r.logger.Error("failed to mark outbox event published",
				"event_id", event.ID, "error", err)
			continue
		}
		r.metrics.RecordEventPublished()
	}
}
