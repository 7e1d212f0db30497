/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the SQL needed for accounts, transactions, and the outbox table,
 * including the consistency-critical transfer unit.
 *
 * Key properties:
 * - PerformTransfer locks both account rows with SELECT ... FOR UPDATE in ascending
 *   national-id order, so concurrent transfers touching the same account serialize
 *   and no acquisition-order deadlock is possible.
 * - Every state change that announces an event inserts its outbox row inside the
 *   same transaction; commit makes the change and its notification durable together.
 * - Unique-index violations on the national id are mapped to ErrDuplicateNationalID,
 *   so two simultaneous creates with the same id cannot both succeed.
 *
 * @dependencies
 * - context, encoding/json, errors, fmt, time: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Domain models and the shared error taxonomy.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fabriciomarote/capacitacion/internal/domain"
)

const uniqueViolationCode = "23505"

const accountColumns = "id, name, age, national_id, balance, address, created_at, updated_at"

// PostgresRepository is the concrete Repository implementation for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// EnsureSchema creates the required tables and indexes if they do not exist.
// It is idempotent and safe to run on every startup.
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS accounts (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL,
            age INT NOT NULL,
            national_id TEXT NOT NULL,
            balance BIGINT NOT NULL,
            address TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE UNIQUE INDEX IF NOT EXISTS accounts_national_id_key ON accounts (national_id);
        CREATE TABLE IF NOT EXISTS transactions (
            id UUID PRIMARY KEY,
            origin_national_id TEXT NOT NULL,
            destination_national_id TEXT NOT NULL,
            amount BIGINT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE TABLE IF NOT EXISTS outbox_events (
            id UUID PRIMARY KEY,
            routing_key TEXT NOT NULL,
            payload JSONB NOT NULL,
            status TEXT NOT NULL DEFAULT 'pending',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            published_at TIMESTAMPTZ
        );
        CREATE INDEX IF NOT EXISTS outbox_events_pending_idx ON outbox_events (created_at) WHERE status = 'pending';
    `)
	if err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Age,
		&account.NationalID,
		&account.Balance,
		&account.Address,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

// insertOutboxEvent writes one pending outbox row within the given transaction.
func insertOutboxEvent(ctx context.Context, tx pgx.Tx, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode outbox payload: %w", err)
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO outbox_events (id, routing_key, payload, status, created_at) VALUES ($1, $2, $3, $4, now())`,
		uuid.New(), routingKey, body, domain.OutboxStatusPending,
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}

// CreateAccount inserts a new account and its account.created outbox row in one
// transaction. A unique-index violation on the national id maps to
// ErrDuplicateNationalID.
func (r *PostgresRepository) CreateAccount(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO accounts (id, name, age, national_id, balance, address, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING created_at, updated_at
	`
	err = tx.QueryRow(ctx, query,
		account.ID, account.Name, account.Age, account.NationalID, account.Balance, account.Address,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrDuplicateNationalID
		}
		return nil, fmt.Errorf("failed to insert account: %w", err)
	}

	event := domain.AccountCreatedEvent{
		AccountID:  account.ID,
		Name:       account.Name,
		OccurredAt: time.Now().UTC(),
	}
	if err := insertOutboxEvent(ctx, tx, domain.RoutingKeyAccountCreated, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit account creation: %w", err)
	}
	return account, nil
}

// FindAccountByID retrieves an account by its internal UUID.
func (r *PostgresRepository) FindAccountByID(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id)
	return scanAccount(row)
}

// FindAccountByNationalID retrieves an account by its national id. A miss returns
// ErrAccountNotFound, the standard "account does not exist" signal.
func (r *PostgresRepository) FindAccountByNationalID(ctx context.Context, nationalID string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx, `SELECT `+accountColumns+` FROM accounts WHERE national_id = $1`, nationalID)
	return scanAccount(row)
}

// UpdateAccount applies the mutator to the row read under FOR UPDATE and writes the
// result in the same transaction. The lock serializes against the transfer unit, so
// the mutator never works from a stale balance. The national id is immutable and
// therefore not part of the SET list.
func (r *PostgresRepository) UpdateAccount(ctx context.Context, id uuid.UUID, apply AccountMutator) (*domain.Account, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	account, err := scanAccount(tx.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	if err := apply(account); err != nil {
		return nil, err
	}

	err = tx.QueryRow(ctx, `
		UPDATE accounts
		SET name = $2, age = $3, balance = $4, address = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, account.ID, account.Name, account.Age, account.Balance, account.Address,
	).Scan(&account.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit account update: %w", err)
	}
	return account, nil
}

// UpdateAccountAddress sets only the address column, leaving the balance untouched
// no matter what committed between the caller's read and this write.
func (r *PostgresRepository) UpdateAccountAddress(ctx context.Context, id uuid.UUID, address string) (*domain.Account, error) {
	row := r.db.QueryRow(ctx,
		`UPDATE accounts SET address = $2, updated_at = now() WHERE id = $1 RETURNING `+accountColumns,
		id, address)
	return scanAccount(row)
}

// DeleteAccount removes an account by id.
func (r *PostgresRepository) DeleteAccount(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// ListAccounts returns all accounts ordered by creation time.
func (r *PostgresRepository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.Query(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var account domain.Account
		if err := rows.Scan(
			&account.ID, &account.Name, &account.Age, &account.NationalID,
			&account.Balance, &account.Address, &account.CreatedAt, &account.UpdatedAt,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// DeleteAllAccounts removes every account from the primary store.
func (r *PostgresRepository) DeleteAllAccounts(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM accounts`); err != nil {
		return fmt.Errorf("failed to delete all accounts: %w", err)
	}
	return nil
}

// lockAccount reads one account row under FOR UPDATE within the transaction.
func lockAccount(ctx context.Context, tx pgx.Tx, nationalID string) (*domain.Account, error) {
	row := tx.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE national_id = $1 FOR UPDATE`, nationalID)
	return scanAccount(row)
}

// PerformTransfer executes the atomic transfer unit described on the Repository
// interface. Lock order is ascending national id regardless of transfer direction.
func (r *PostgresRepository) PerformTransfer(ctx context.Context, req domain.TransferRequest, validate TransferValidator) (*TransferResult, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// 1. Lock both rows in deterministic order. When origin and destination carry the
	// same national id, a single lock suffices; the validator then rejects the pair.
	first, second := req.OriginNationalID, req.DestinationNationalID
	if second < first {
		first, second = second, first
	}

	locked := make(map[string]*domain.Account, 2)
	firstAccount, err := lockAccount(ctx, tx, first)
	if err != nil {
		return nil, err
	}
	locked[first] = firstAccount
	if second != first {
		secondAccount, err := lockAccount(ctx, tx, second)
		if err != nil {
			return nil, err
		}
		locked[second] = secondAccount
	}

	origin := locked[req.OriginNationalID]
	destination := locked[req.DestinationNationalID]

	// 2. Snapshot-stage validation against the locked rows.
	if err := validate(origin, destination); err != nil {
		return nil, err
	}

	// 3. Apply the mutation to both rows.
	origin.Balance -= req.Amount
	destination.Balance += req.Amount

	for _, account := range []*domain.Account{origin, destination} {
		tag, err := tx.Exec(ctx,
			`UPDATE accounts SET balance = $2, updated_at = now() WHERE id = $1`,
			account.ID, account.Balance,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to update balance for account %s: %w", account.ID, err)
		}
		if tag.RowsAffected() != 1 {
			return nil, fmt.Errorf("%w: balance update touched %d rows for account %s",
				domain.ErrPersistenceInconsistency, tag.RowsAffected(), account.ID)
		}
	}

	// 4. Record the transfer and its notification in the same unit.
	record := &domain.Transaction{
		ID:                    uuid.New(),
		OriginNationalID:      req.OriginNationalID,
		DestinationNationalID: req.DestinationNationalID,
		Amount:                req.Amount,
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO transactions (id, origin_national_id, destination_national_id, amount, created_at)
		 VALUES ($1, $2, $3, $4, now())
		 RETURNING created_at`,
		record.ID, record.OriginNationalID, record.DestinationNationalID, record.Amount,
	).Scan(&record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: transaction record insert failed: %v",
			domain.ErrPersistenceInconsistency, err)
	}

	event := domain.TransactionCreatedEvent{
		TransactionID: record.ID,
		OccurredAt:    time.Now().UTC(),
	}
	if err := insertOutboxEvent(ctx, tx, domain.RoutingKeyTransactionCreated, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transfer: %w", err)
	}

	return &TransferResult{Transaction: record, Origin: origin, Destination: destination}, nil
}

// FindTransactionByID retrieves one transfer record by its id.
func (r *PostgresRepository) FindTransactionByID(ctx context.Context, id uuid.UUID) (*domain.Transaction, error) {
	var record domain.Transaction
	err := r.db.QueryRow(ctx,
		`SELECT id, origin_national_id, destination_national_id, amount, created_at
		 FROM transactions WHERE id = $1`, id,
	).Scan(&record.ID, &record.OriginNationalID, &record.DestinationNationalID,
		&record.Amount, &record.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to find transaction: %w", err)
	}
	return &record, nil
}

// ListTransactions returns all transfer records ordered by creation time.
func (r *PostgresRepository) ListTransactions(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, origin_national_id, destination_national_id, amount, created_at
		 FROM transactions ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		var record domain.Transaction
		if err := rows.Scan(
			&record.ID, &record.OriginNationalID, &record.DestinationNationalID,
			&record.Amount, &record.CreatedAt,
		); err != nil {
			return nil, err
		}
		transactions = append(transactions, record)
	}
	return transactions, rows.Err()
}

// DeleteAllTransactions removes every transfer record from the primary store.
func (r *PostgresRepository) DeleteAllTransactions(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM transactions`); err != nil {
		return fmt.Errorf("failed to delete all transactions: %w", err)
	}
	return nil
}

// ListPendingOutboxEvents returns up to limit unpublished outbox rows in commit order.
func (r *PostgresRepository) ListPendingOutboxEvents(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, routing_key, payload, status, created_at, published_at
		 FROM outbox_events
		 WHERE status = $1
		 ORDER BY created_at
		 LIMIT $2`,
		domain.OutboxStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending outbox events: %w", err)
	}
	defer rows.Close()

	var events []domain.OutboxEvent
	for rows.Next() {
		var event domain.OutboxEvent
		if err := rows.Scan(
			&event.ID, &event.RoutingKey, &event.Payload,
			&event.Status, &event.CreatedAt, &event.PublishedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// MarkOutboxEventPublished flips one outbox row to published.
func (r *PostgresRepository) MarkOutboxEventPublished(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE outbox_events SET status = $2, published_at = now() WHERE id = $1`,
		id, domain.OutboxStatusPublished)
	if err != nil {
		return fmt.Errorf("failed to mark outbox event published: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("outbox event %s not found", id)
	}
	return nil
}
