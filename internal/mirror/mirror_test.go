package mirror

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fabriciomarote/capacitacion/internal/domain"
)

// memoryReplicator is an in-memory Replicator whose upserts are idempotent,
// like the real mirror store. failUntil makes the first N calls fail.
type memoryReplicator struct {
	mu           sync.Mutex
	accounts     map[string]domain.Account
	transactions map[string]domain.Transaction
	calls        int
	failUntil    int
}

func newMemoryReplicator() *memoryReplicator {
	return &memoryReplicator{
		accounts:     make(map[string]domain.Account),
		transactions: make(map[string]domain.Transaction),
	}
}

func (r *memoryReplicator) failNext(err error) error {
	r.calls++
	if r.calls <= r.failUntil {
		return err
	}
	return nil
}

func (r *memoryReplicator) ReplicateAccount(ctx context.Context, account *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failNext(errors.New("mirror unavailable")); err != nil {
		return err
	}
	r.accounts[account.ID.String()] = *account
	return nil
}

func (r *memoryReplicator) ReplicateTransaction(ctx context.Context, transaction *domain.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.failNext(errors.New("mirror unavailable")); err != nil {
		return err
	}
	r.transactions[transaction.ID.String()] = *transaction
	return nil
}

func (r *memoryReplicator) RemoveAccount(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.accounts, id.String())
	return nil
}

func (r *memoryReplicator) PurgeAccounts(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.accounts = make(map[string]domain.Account)
	return nil
}

func (r *memoryReplicator) PurgeTransactions(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transactions = make(map[string]domain.Transaction)
	return nil
}

func (r *memoryReplicator) accountCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.accounts)
}

func (r *memoryReplicator) account(id uuid.UUID) (domain.Account, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[id.String()]
	return account, ok
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestSync_ReplicatesAccount(t *testing.T) {
	replicator := newMemoryReplicator()
	worker := NewSync(replicator, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	account := &domain.Account{ID: uuid.New(), Name: "Ana", Age: 30, NationalID: "11111111", Balance: 100}
	worker.EnqueueAccount(account)

	waitFor(t, func() bool {
		mirrored, ok := replicator.account(account.ID)
		return ok && mirrored.Balance == 100
	})
}

func TestSync_RetriesFailedReplication(t *testing.T) {
	replicator := newMemoryReplicator()
	replicator.failUntil = 2

	var retries atomic.Int32
	worker := NewSync(replicator, nil,
		WithRetryDelay(5*time.Millisecond),
		WithRetryHook(func() { retries.Add(1) }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	account := &domain.Account{ID: uuid.New(), Name: "Ana", Age: 30, NationalID: "11111111", Balance: 100}
	worker.EnqueueAccount(account)

	waitFor(t, func() bool {
		_, ok := replicator.account(account.ID)
		return ok
	})
	if got := retries.Load(); got != 2 {
		t.Fatalf("expected 2 retries, got %d", got)
	}
}

func TestSync_DropsTaskAfterMaxRetries(t *testing.T) {
	replicator := newMemoryReplicator()
	replicator.failUntil = 100

	var retries atomic.Int32
	worker := NewSync(replicator, nil,
		WithRetryDelay(time.Millisecond),
		WithMaxRetries(3),
		WithRetryHook(func() { retries.Add(1) }),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	worker.EnqueueAccount(&domain.Account{ID: uuid.New(), NationalID: "11111111"})

	waitFor(t, func() bool { return retries.Load() == 3 })

	// Give the abandoned task time to prove it stays abandoned.
	time.Sleep(20 * time.Millisecond)
	if got := retries.Load(); got != 3 {
		t.Fatalf("expected retries to stop at 3, got %d", got)
	}
	if replicator.accountCount() != 0 {
		t.Fatal("expected no account to be mirrored")
	}
}

func TestSync_ReplicationIsIdempotent(t *testing.T) {
	replicator := newMemoryReplicator()
	worker := NewSync(replicator, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	account := &domain.Account{ID: uuid.New(), Name: "Ana", Age: 30, NationalID: "11111111", Balance: 100}
	worker.EnqueueAccount(account)
	worker.EnqueueAccount(account)

	waitFor(t, func() bool { return replicator.accountCount() == 1 })
	time.Sleep(20 * time.Millisecond)
	if replicator.accountCount() != 1 {
		t.Fatalf("expected 1 mirrored account after duplicate replication, got %d", replicator.accountCount())
	}
}

func TestSync_RemovalAndPurge(t *testing.T) {
	replicator := newMemoryReplicator()
	worker := NewSync(replicator, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go worker.Run(ctx)

	first := &domain.Account{ID: uuid.New(), Name: "Ana", NationalID: "11111111"}
	second := &domain.Account{ID: uuid.New(), Name: "Bruno", NationalID: "22222222"}
	worker.EnqueueAccount(first)
	worker.EnqueueAccount(second)
	waitFor(t, func() bool { return replicator.accountCount() == 2 })

	worker.EnqueueAccountRemoval(first.ID)
	waitFor(t, func() bool {
		_, ok := replicator.account(first.ID)
		return !ok
	})

	worker.EnqueueAccountsPurge()
	waitFor(t, func() bool { return replicator.accountCount() == 0 })
}

func TestSync_FullQueueDropsInsteadOfBlocking(t *testing.T) {
	replicator := newMemoryReplicator()
	worker := NewSync(replicator, nil, WithQueueSize(1))
	// Run is intentionally not started; the queue cannot drain.

	account := &domain.Account{ID: uuid.New(), NationalID: "11111111"}

	done := make(chan struct{})
	go func() {
		worker.EnqueueAccount(account)
		worker.EnqueueAccount(account)
		worker.EnqueueAccount(account)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("enqueue blocked on a full queue")
	}
}
