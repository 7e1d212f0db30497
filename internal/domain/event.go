/**
 * @description
 * This file defines the domain event contract: the payloads published to the message
 * broker and the outbox row that carries them from the primary store to the relay.
 * Delivery is at-least-once; consumers are required to be idempotent under redelivery.
 *
 * @notes
 * - Events are written to the `outbox_events` table inside the same SQL transaction
 *   as the state change they announce, so a crash between commit and publish can
 *   delay an event but never drop it.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Routing keys for the topic exchange.
const (
	RoutingKeyAccountCreated     = "account.created"
	RoutingKeyTransactionCreated = "transaction.created"
)

// Outbox row states.
const (
	OutboxStatusPending   = "pending"
	OutboxStatusPublished = "published"
)

// AccountCreatedEvent is published after an account has been durably created.
// The branch enrichment consumer matches on Name to resolve an address.
type AccountCreatedEvent struct {
	AccountID  uuid.UUID `json:"account_id"`
	Name       string    `json:"name"`
	OccurredAt time.Time `json:"occurred_at"`
}

// TransactionCreatedEvent is published after a transfer has been durably recorded.
type TransactionCreatedEvent struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// OutboxEvent is one durable, pending-or-published notification row.
type OutboxEvent struct {
	ID          uuid.UUID  `json:"id"`
	RoutingKey  string     `json:"routing_key"`
	Payload     []byte     `json:"payload"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}
