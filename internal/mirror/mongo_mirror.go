/**
 * @description
 * This file provides the MongoDB implementation of the mirror store. Accounts and
 * transactions are kept in two collections, each document keyed by the primary
 * store's UUID as the `_id`, so replication is a plain upsert and naturally
 * idempotent. Every operation is bounded by a configured timeout so the mirror can
 * never hold up its caller indefinitely.
 *
 * @dependencies
 * - go.mongodb.org/mongo-driver: The official MongoDB driver.
 * - internal/domain: Domain models replicated into the mirror.
 */

package mirror

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fabriciomarote/capacitacion/internal/domain"
)

const (
	accountsCollection     = "accounts"
	transactionsCollection = "transactions"
)

// accountDocument is the mirrored shape of a primary account row.
type accountDocument struct {
	ID         string    `bson:"_id"`
	Name       string    `bson:"name"`
	Age        int       `bson:"age"`
	NationalID string    `bson:"national_id"`
	Balance    int64     `bson:"balance"`
	Address    *string   `bson:"address,omitempty"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

// transactionDocument is the mirrored shape of a primary transaction row.
type transactionDocument struct {
	ID                    string    `bson:"_id"`
	OriginNationalID      string    `bson:"origin_national_id"`
	DestinationNationalID string    `bson:"destination_national_id"`
	Amount                int64     `bson:"amount"`
	CreatedAt             time.Time `bson:"created_at"`
}

// MongoMirror implements Replicator on top of a MongoDB database.
type MongoMirror struct {
	accounts     *mongo.Collection
	transactions *mongo.Collection
	timeout      time.Duration
}

// NewMongoMirror creates a mirror bound to the given database. The timeout bounds
// every individual mirror operation.
func NewMongoMirror(db *mongo.Database, timeout time.Duration) *MongoMirror {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &MongoMirror{
		accounts:     db.Collection(accountsCollection),
		transactions: db.Collection(transactionsCollection),
		timeout:      timeout,
	}
}

func (m *MongoMirror) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.timeout)
}

// ReplicateAccount upserts the account document keyed by the primary id.
func (m *MongoMirror) ReplicateAccount(ctx context.Context, account *domain.Account) error {
	ctx, cancel := m.bounded(ctx)
	defer cancel()

	doc := accountDocument{
		ID:         account.ID.String(),
		Name:       account.Name,
		Age:        account.Age,
		NationalID: account.NationalID,
		Balance:    account.Balance,
		Address:    account.Address,
		UpdatedAt:  account.UpdatedAt,
	}
	_, err := m.accounts.ReplaceOne(ctx,
		bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mirror account upsert failed: %w", err)
	}
	return nil
}

// ReplicateTransaction upserts the transaction document keyed by the primary id.
func (m *MongoMirror) ReplicateTransaction(ctx context.Context, transaction *domain.Transaction) error {
	ctx, cancel := m.bounded(ctx)
	defer cancel()

	doc := transactionDocument{
		ID:                    transaction.ID.String(),
		OriginNationalID:      transaction.OriginNationalID,
		DestinationNationalID: transaction.DestinationNationalID,
		Amount:                transaction.Amount,
		CreatedAt:             transaction.CreatedAt,
	}
	_, err := m.transactions.ReplaceOne(ctx,
		bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mirror transaction upsert failed: %w", err)
	}
	return nil
}

// RemoveAccount deletes the mirrored account document. Deleting an already-absent
// document is a no-op, keeping removal idempotent.
func (m *MongoMirror) RemoveAccount(ctx context.Context, id uuid.UUID) error {
	ctx, cancel := m.bounded(ctx)
	defer cancel()

	if _, err := m.accounts.DeleteOne(ctx, bson.M{"_id": id.String()}); err != nil {
		return fmt.Errorf("mirror account delete failed: %w", err)
	}
	return nil
}

// PurgeAccounts drops every mirrored account document.
func (m *MongoMirror) PurgeAccounts(ctx context.Context) error {
	ctx, cancel := m.bounded(ctx)
	defer cancel()

	if _, err := m.accounts.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("mirror accounts purge failed: %w", err)
	}
	return nil
}

// PurgeTransactions drops every mirrored transaction document.
func (m *MongoMirror) PurgeTransactions(ctx context.Context) error {
	ctx, cancel := m.bounded(ctx)
	defer cancel()

	if _, err := m.transactions.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("mirror transactions purge failed: %w", err)
	}
	return nil
}
