/**
 * @description
 * This file defines the `Repository` interface, the contract for all primary-store
 * operations. The interface decouples the application's business logic from the
 * PostgreSQL implementation, so service tests can run against in-memory stubs.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/fabriciomarote/capacitacion/internal/domain"
)

// TransferValidator runs the snapshot-stage transfer checks against the two account
// rows read under lock, before any mutation. Returning an error aborts the unit.
type TransferValidator func(origin, destination *domain.Account) error

// AccountMutator edits an account row that has been re-read under lock inside the
// update transaction. Returning an error aborts the update with no write.
type AccountMutator func(account *domain.Account) error

// TransferResult carries the committed transaction record together with the
// post-transfer account snapshots, which the caller hands to the mirror.
type TransferResult struct {
	Transaction *domain.Transaction
	Origin      *domain.Account
	Destination *domain.Account
}

// Repository defines the set of methods for interacting with the primary store.
type Repository interface {
	// Account methods. CreateAccount enforces national-id uniqueness and writes the
	// account.created outbox row in the same transaction as the insert.
	CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error)
	FindAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error)
	FindAccountByNationalID(ctx context.Context, nationalID string) (*domain.Account, error)

	// UpdateAccount re-reads the row under lock, applies the mutator, and writes the
	// result in one transaction, so the mutator always sees the current balance and a
	// concurrent transfer cannot be overwritten by a stale snapshot.
	UpdateAccount(ctx context.Context, id uuid.UUID, apply AccountMutator) (*domain.Account, error)

	// UpdateAccountAddress sets only the address column. The enrichment consumer uses
	// it so an address write can never touch the balance.
	UpdateAccountAddress(ctx context.Context, id uuid.UUID, address string) (*domain.Account, error)
	DeleteAccount(ctx context.Context, id uuid.UUID) error
	ListAccounts(ctx context.Context) ([]domain.Account, error)
	DeleteAllAccounts(ctx context.Context) error

	// PerformTransfer executes the consistency-critical unit: lock both account rows
	// in deterministic order, run the validator on the locked snapshot, apply the
	// debit and credit, insert the transaction record and its outbox row, and commit.
	// The unit is all-or-nothing; a partial write surfaces ErrPersistenceInconsistency.
	PerformTransfer(ctx context.Context, req domain.TransferRequest, validate TransferValidator) (*TransferResult, error)
	FindTransactionByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error)
	ListTransactions(ctx context.Context) ([]domain.Transaction, error)
	DeleteAllTransactions(ctx context.Context) error

	// Outbox methods, consumed by the event relay.
	ListPendingOutboxEvents(ctx context.Context, limit int) ([]domain.OutboxEvent, error)
	MarkOutboxEventPublished(ctx context.Context, id uuid.UUID) error
}
