/**
 * @description
 * This file defines the MirrorSync contract and the asynchronous worker that drives
 * it. The mirror store is a best-effort copy of the primary records; replication is
 * queued, never performed on the caller's request path, and a failed replication is
 * re-enqueued with a delay rather than surfaced to the transfer caller.
 *
 * @notes
 * - Replication operations must be idempotent upserts keyed by the primary id, so a
 *   retried or duplicated task leaves the mirror in the same observable state.
 * - The queue is bounded. When it is full the task is dropped with a warning; the
 *   mirror is not authoritative and staleness is tolerated by contract.
 */

package mirror

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fabriciomarote/capacitacion/internal/domain"
)

// Replicator is the set of idempotent operations a mirror store must support.
type Replicator interface {
	ReplicateAccount(ctx context.Context, account *domain.Account) error
	ReplicateTransaction(ctx context.Context, transaction *domain.Transaction) error
	RemoveAccount(ctx context.Context, id uuid.UUID) error
	PurgeAccounts(ctx context.Context) error
	PurgeTransactions(ctx context.Context) error
}

type taskKind int

const (
	taskReplicateAccount taskKind = iota
	taskReplicateTransaction
	taskRemoveAccount
	taskPurgeAccounts
	taskPurgeTransactions
)

type task struct {
	kind        taskKind
	account     *domain.Account
	transaction *domain.Transaction
	accountID   uuid.UUID
	attempts    int
}

// Sync owns the replication queue and the worker that drains it.
type Sync struct {
	replicator Replicator
	queue      chan task
	retryDelay time.Duration
	maxRetries int
	logger     *slog.Logger

	// onRetry is invoked once per re-enqueued task; wired to the metrics collector.
	onRetry func()
}

// Option configures a Sync.
type Option func(*Sync)

// WithRetryDelay overrides the delay before a failed task is retried.
func WithRetryDelay(d time.Duration) Option {
	return func(s *Sync) { s.retryDelay = d }
}

// WithMaxRetries overrides how many times a failed task is retried before being dropped.
func WithMaxRetries(n int) Option {
	return func(s *Sync) { s.maxRetries = n }
}

// WithQueueSize overrides the replication queue capacity.
func WithQueueSize(n int) Option {
	return func(s *Sync) { s.queue = make(chan task, n) }
}

// WithRetryHook registers a callback fired on every retry.
func WithRetryHook(fn func()) Option {
	return func(s *Sync) { s.onRetry = fn }
}

// NewSync creates a mirror sync worker. Run must be started for tasks to drain.
func NewSync(replicator Replicator, logger *slog.Logger, opts ...Option) *Sync {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Sync{
		replicator: replicator,
		queue:      make(chan task, 256),
		retryDelay: 2 * time.Second,
		maxRetries: 10,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnqueueAccount queues an account state for replication.
func (s *Sync) EnqueueAccount(account *domain.Account) {
	copied := *account
	s.enqueue(task{kind: taskReplicateAccount, account: &copied})
}

// EnqueueTransaction queues a transaction record for replication.
func (s *Sync) EnqueueTransaction(transaction *domain.Transaction) {
	copied := *transaction
	s.enqueue(task{kind: taskReplicateTransaction, transaction: &copied})
}

// EnqueueAccountRemoval queues the removal of a mirrored account.
func (s *Sync) EnqueueAccountRemoval(id uuid.UUID) {
	s.enqueue(task{kind: taskRemoveAccount, accountID: id})
}

// EnqueueAccountsPurge queues the removal of every mirrored account.
func (s *Sync) EnqueueAccountsPurge() {
	s.enqueue(task{kind: taskPurgeAccounts})
}

// EnqueueTransactionsPurge queues the removal of every mirrored transaction.
func (s *Sync) EnqueueTransactionsPurge() {
	s.enqueue(task{kind: taskPurgeTransactions})
}

func (s *Sync) enqueue(t task) {
	select {
	case s.queue <- t:
	default:
		s.logger.Warn("mirror queue full; dropping replication task", "kind", int(t.kind))
	}
}

// Run drains the queue until ctx is cancelled. Failed tasks are re-enqueued after
// retryDelay up to maxRetries attempts.
func (s *Sync) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-s.queue:
			if err := s.apply(ctx, t); err != nil {
				s.retry(ctx, t, err)
			}
		}
	}
}

func (s *Sync) apply(ctx context.Context, t task) error {
	switch t.kind {
	case taskReplicateAccount:
		return s.replicator.ReplicateAccount(ctx, t.account)
	case taskReplicateTransaction:
		return s.replicator.ReplicateTransaction(ctx, t.transaction)
	case taskRemoveAccount:
		return s.replicator.RemoveAccount(ctx, t.accountID)
	case taskPurgeAccounts:
		return s.replicator.PurgeAccounts(ctx)
	case taskPurgeTransactions:
		return s.replicator.PurgeTransactions(ctx)
	}
	return nil
}

func (s *Sync) retry(ctx context.Context, t task, cause error) {
	t.attempts++
	if t.attempts > s.maxRetries {
		s.logger.Error("mirror replication abandoned after max retries",
			"kind", int(t.kind), "attempts", t.attempts, "error", cause)
		return
	}
	s.logger.Warn("mirror replication failed; scheduling retry",
		"kind", int(t.kind), "attempt", t.attempts, "error", cause)
	if s.onRetry != nil {
		s.onRetry()
	}

	go func() {
		select {
		case <-ctx.Done():
		case <-time.After(s.retryDelay):
			s.enqueue(t)
		}
	}()
}
