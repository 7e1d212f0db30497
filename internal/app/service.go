/**
 * @description
 * This file contains the core business logic for the service. The `Service` struct
 * orchestrates account lifecycle operations and the transfer pipeline, coordinating
 * between the primary-store repository, the mirror sync worker, and the metrics
 * collector.
 *
 * Key properties:
 * - Transfer runs the request-stage validation up front and delegates the
 *   snapshot-stage checks plus the atomic mutate-persist-record unit to the
 *   repository, so the sufficient-funds check always sees a locked balance.
 * - Mirror replication is enqueued only after the primary commit and never affects
 *   the caller's outcome.
 * - Event publication is not triggered here at all: the repository writes outbox
 *   rows inside its transactions and the relay publishes them after commit.
 *
 * @dependencies
 * - context, errors, log/slog, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID generation.
 * - internal/domain, internal/store: For domain models, validation, and data access.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/fabriciomarote/capacitacion/internal/domain"
	"github.com/fabriciomarote/capacitacion/internal/store"
)

// MirrorSync is the slice of the mirror worker the service depends on.
type MirrorSync interface {
	EnqueueAccount(account *domain.Account)
	EnqueueTransaction(transaction *domain.Transaction)
	EnqueueAccountRemoval(id uuid.UUID)
	EnqueueAccountsPurge()
	EnqueueTransactionsPurge()
}

// TransferMetrics is the slice of the metrics collector the service depends on.
type TransferMetrics interface {
	RecordTransfer(duration time.Duration, success bool)
	RecordAccountCreated()
}

type noopMetrics struct{}

func (noopMetrics) RecordTransfer(time.Duration, bool) {}
func (noopMetrics) RecordAccountCreated()              {}

// Service provides the core business logic for accounts and transfers.
type Service struct {
	repo    store.Repository
	mirror  MirrorSync
	metrics TransferMetrics
	logger  *slog.Logger
}

// NewService creates a new service instance. mirror may be nil in tests; metrics
// and logger fall back to no-op and default implementations.
func NewService(repo store.Repository, mirror MirrorSync, metrics TransferMetrics, logger *slog.Logger) *Service {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, mirror: mirror, metrics: metrics, logger: logger}
}

// CreateAccount validates and persists a new account with the initial balance,
// then queues mirror replication. The account.created event rides the outbox.
func (s *Service) CreateAccount(ctx context.Context, req domain.CreateAccountRequest) (*domain.Account, error) {
	if err := domain.ValidateNewAccount(req.Name, req.Age, req.NationalID); err != nil {
		return nil, err
	}

	account := &domain.Account{
		ID:         uuid.New(),
		Name:       req.Name,
		Age:        req.Age,
		NationalID: req.NationalID,
		Balance:    domain.InitialBalance,
	}

	created, err := s.repo.CreateAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	s.enqueueAccountMirror(created)
	s.metrics.RecordAccountCreated()
	s.logger.Info("account created", "account_id", created.ID, "national_id", created.NationalID)
	return created, nil
}

// GetAccount retrieves an account by its internal id.
func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	return s.repo.FindAccountByID(ctx, id)
}

// GetAccountByNationalID retrieves an account by its national id.
func (s *Service) GetAccountByNationalID(ctx context.Context, nationalID string) (*domain.Account, error) {
	return s.repo.FindAccountByNationalID(ctx, nationalID)
}

// ListAccounts returns all accounts.
func (s *Service) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	return s.repo.ListAccounts(ctx)
}

// UpdateAccount applies the provided fields to an existing account. Name and age
// are re-validated like at creation; address and balance are overwritten as given.
// The national id is immutable. The mutation runs against the row re-read under
// lock inside the update transaction, so fields the request does not carry keep
// their committed values. The updated state is re-mirrored.
func (s *Service) UpdateAccount(ctx context.Context, id uuid.UUID, req domain.UpdateAccountRequest) (*domain.Account, error) {
	updated, err := s.repo.UpdateAccount(ctx, id, func(account *domain.Account) error {
		name := account.Name
		if req.Name != nil {
			name = *req.Name
		}
		age := account.Age
		if req.Age != nil {
			age = *req.Age
		}
		if err := domain.ValidateNewAccount(name, age, account.NationalID); err != nil {
			return err
		}

		account.Name = name
		account.Age = age
		if req.Address != nil {
			account.Address = req.Address
		}
		if req.Balance != nil {
			account.Balance = *req.Balance
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.enqueueAccountMirror(updated)
	return updated, nil
}

// DeleteAccount removes an account from the primary store and queues its removal
// from the mirror.
func (s *Service) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteAccount(ctx, id); err != nil {
		return err
	}
	if s.mirror != nil {
		s.mirror.EnqueueAccountRemoval(id)
	}
	s.logger.Info("account deleted", "account_id", id)
	return nil
}

// DeleteAllAccounts removes every account from both stores.
func (s *Service) DeleteAllAccounts(ctx context.Context) error {
	if err := s.repo.DeleteAllAccounts(ctx); err != nil {
		return err
	}
	if s.mirror != nil {
		s.mirror.EnqueueAccountsPurge()
	}
	s.logger.Warn("all accounts deleted")
	return nil
}

// Transfer processes one funds transfer through the full pipeline:
// request validation, atomic locked unit in the primary store, mirror enqueue.
func (s *Service) Transfer(ctx context.Context, req domain.TransferRequest) (*domain.Transaction, error) {
	started := time.Now()

	if err := domain.ValidateTransferRequest(req); err != nil {
		s.metrics.RecordTransfer(time.Since(started), false)
		return nil, err
	}

	result, err := s.repo.PerformTransfer(ctx, req, func(origin, destination *domain.Account) error {
		return domain.ValidateTransferSnapshot(origin, destination, req.Amount)
	})
	if err != nil {
		s.metrics.RecordTransfer(time.Since(started), false)
		if errors.Is(err, domain.ErrPersistenceInconsistency) {
			s.logger.Error("transfer persistence inconsistency",
				"origin", req.OriginNationalID,
				"destination", req.DestinationNationalID,
				"amount", req.Amount,
				"error", err)
		}
		return nil, err
	}

	s.enqueueAccountMirror(result.Origin)
	s.enqueueAccountMirror(result.Destination)
	if s.mirror != nil {
		s.mirror.EnqueueTransaction(result.Transaction)
	}

	s.metrics.RecordTransfer(time.Since(started), true)
	s.logger.Info("transfer committed",
		"transaction_id", result.Transaction.ID,
		"origin", req.OriginNationalID,
		"destination", req.DestinationNationalID,
		"amount", req.Amount)
	return result.Transaction, nil
}

// GetTransaction retrieves one transfer record by its id.
func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	return s.repo.FindTransactionByID(ctx, id)
}

// ListTransactions returns all transfer records.
func (s *Service) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	return s.repo.ListTransactions(ctx)
}

// DeleteAllTransactions removes every transfer record from both stores.
func (s *Service) DeleteAllTransactions(ctx context.Context) error {
	if err := s.repo.DeleteAllTransactions(ctx); err != nil {
		return err
	}
	if s.mirror != nil {
		s.mirror.EnqueueTransactionsPurge()
	}
	s.logger.Warn("all transactions deleted")
	return nil
}

// SetAccountAddress overwrites only the address of the account, used by the
// enrichment consumer. It is idempotent under event redelivery. The write is
// column-scoped, so a transfer committing between the read and the write keeps
// its balance.
func (s *Service) SetAccountAddress(ctx context.Context, id uuid.UUID, address string) error {
	account, err := s.repo.FindAccountByID(ctx, id)
	if err != nil {
		return err
	}
	if account.Address != nil && *account.Address == address {
		return nil
	}
	updated, err := s.repo.UpdateAccountAddress(ctx, id, address)
	if err != nil {
		return fmt.Errorf("failed to set account address: %w", err)
	}
	s.enqueueAccountMirror(updated)
	return nil
}

func (s *Service) enqueueAccountMirror(account *domain.Account) {
	if s.mirror != nil {
		s.mirror.EnqueueAccount(account)
	}
}
