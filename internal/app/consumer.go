/**
 * @description
 * This file implements the downstream event consumers: the address enrichment step
 * for account.created and the email notification step for transaction.created.
 * Both run in-process against the same topic exchange the relay publishes to and
 * are idempotent under at-least-once redelivery.
 *
 * Handlers return true to ack and false to re-queue, matching the consumer
 * contract in pkg/rabbitmq.
 */

package app

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/fabriciomarote/capacitacion/internal/domain"
	"github.com/fabriciomarote/capacitacion/pkg/branchclient"
)

// BranchDirectory is the slice of the branch client the consumer depends on.
type BranchDirectory interface {
	FindByName(ctx context.Context, name string) (*branchclient.Branch, error)
}

// EmailSender delivers transfer notifications. The default implementation only
// logs the delivery; a real SMTP sender can be swapped in without touching the
// consumer.
type EmailSender interface {
	SendTransferNotification(ctx context.Context, transactionID string) error
}

// LogEmailSender is the simulated email delivery used by default.
type LogEmailSender struct {
	Logger *slog.Logger
}

func (s *LogEmailSender) SendTransferNotification(ctx context.Context, transactionID string) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("transfer notification email sent", "transaction_id", transactionID)
	return nil
}

// EventConsumer handles domain events for the two passive downstream steps.
type EventConsumer struct {
	service  *Service
	branches BranchDirectory
	emailer  EmailSender
	logger   *slog.Logger
}

// NewEventConsumer creates a consumer. branches may be nil, which disables
// address enrichment; emailer defaults to the logging sender.
func NewEventConsumer(service *Service, branches BranchDirectory, emailer EmailSender, logger *slog.Logger) *EventConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	if emailer == nil {
		emailer = &LogEmailSender{Logger: logger}
	}
	return &EventConsumer{service: service, branches: branches, emailer: emailer, logger: logger}
}

// HandleAccountCreated enriches a new account with its branch address when the
// branch directory lists a branch matching the account name.
func (c *EventConsumer) HandleAccountCreated(body []byte) bool {
	var event domain.AccountCreatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.logger.Warn("account consumer: failed to unmarshal payload; dropping", "error", err)
		return true
	}

	if c.branches == nil {
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	branch, err := c.branches.FindByName(ctx, event.Name)
	if err != nil {
		c.logger.Warn("account consumer: branch directory lookup failed", "name", event.Name, "error", err)
		return false
	}
	if branch == nil {
		return true
	}

	if err := c.service.SetAccountAddress(ctx, event.AccountID, branch.Address); err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			// The account was deleted between publish and delivery; nothing to enrich.
			return true
		}
		c.logger.Warn("account consumer: failed to set address", "account_id", event.AccountID, "error", err)
		return false
	}

	c.logger.Info("account address enriched", "account_id", event.AccountID, "address", branch.Address)
	return true
}

// HandleTransactionCreated sends the (simulated) notification email for a
// committed transfer.
func (c *EventConsumer) HandleTransactionCreated(body []byte) bool {
	var event domain.TransactionCreatedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		c.logger.Warn("transaction consumer: failed to unmarshal payload; dropping", "error", err)
		return true
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := c.emailer.SendTransferNotification(ctx, event.TransactionID.String()); err != nil {
		c.logger.Warn("transaction consumer: notification failed", "transaction_id", event.TransactionID, "error", err)
		return false
	}
	return true
}
