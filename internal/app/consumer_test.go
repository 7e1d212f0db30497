package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fabriciomarote/capacitacion/internal/domain"
	"github.com/fabriciomarote/capacitacion/pkg/branchclient"
)

type branchDirectoryStub struct {
	branches map[string]branchclient.Branch
	err      error
}

func (s *branchDirectoryStub) FindByName(ctx context.Context, name string) (*branchclient.Branch, error) {
	if s.err != nil {
		return nil, s.err
	}
	branch, ok := s.branches[name]
	if !ok {
		return nil, nil
	}
	return &branch, nil
}

type emailSenderStub struct {
	sent []string
	err  error
}

func (s *emailSenderStub) SendTransferNotification(ctx context.Context, transactionID string) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, transactionID)
	return nil
}

func accountCreatedBody(t *testing.T, id uuid.UUID, name string) []byte {
	t.Helper()
	body, err := json.Marshal(domain.AccountCreatedEvent{AccountID: id, Name: name, OccurredAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}
	return body
}

func TestHandleAccountCreated_EnrichesAddress(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)
	account := seedAccount(t, svc, "Centro", 30, "11111111")

	directory := &branchDirectoryStub{branches: map[string]branchclient.Branch{
		"Centro": {Name: "Centro", Address: "Av. Corrientes 1000"},
	}}
	consumer := NewEventConsumer(svc, directory, nil, nil)

	if ack := consumer.HandleAccountCreated(accountCreatedBody(t, account.ID, "Centro")); !ack {
		t.Fatal("expected ack")
	}

	stored, err := svc.GetAccount(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Address == nil || *stored.Address != "Av. Corrientes 1000" {
		t.Fatalf("expected enriched address, got %v", stored.Address)
	}
}

func TestHandleAccountCreated_NoMatchingBranchAcks(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)
	account := seedAccount(t, svc, "Ana", 30, "11111111")

	consumer := NewEventConsumer(svc, &branchDirectoryStub{}, nil, nil)

	if ack := consumer.HandleAccountCreated(accountCreatedBody(t, account.ID, "Ana")); !ack {
		t.Fatal("expected ack when no branch matches")
	}

	stored, err := svc.GetAccount(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Address != nil {
		t.Fatalf("expected no address, got %q", *stored.Address)
	}
}

func TestHandleAccountCreated_DirectoryErrorRequeues(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)
	account := seedAccount(t, svc, "Centro", 30, "11111111")

	directory := &branchDirectoryStub{err: errors.New("directory down")}
	consumer := NewEventConsumer(svc, directory, nil, nil)

	if ack := consumer.HandleAccountCreated(accountCreatedBody(t, account.ID, "Centro")); ack {
		t.Fatal("expected requeue on directory failure")
	}
}

func TestHandleAccountCreated_DeletedAccountAcks(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)

	directory := &branchDirectoryStub{branches: map[string]branchclient.Branch{
		"Centro": {Name: "Centro", Address: "Av. Corrientes 1000"},
	}}
	consumer := NewEventConsumer(svc, directory, nil, nil)

	// The account behind the event no longer exists; nothing to enrich.
	if ack := consumer.HandleAccountCreated(accountCreatedBody(t, uuid.New(), "Centro")); !ack {
		t.Fatal("expected ack for a deleted account")
	}
}

func TestHandleAccountCreated_MalformedPayloadDropped(t *testing.T) {
	consumer := NewEventConsumer(NewService(newMemoryRepo(), nil, nil, nil), &branchDirectoryStub{}, nil, nil)

	if ack := consumer.HandleAccountCreated([]byte("{not json")); !ack {
		t.Fatal("malformed payloads must be acked, not requeued forever")
	}
}

func TestHandleAccountCreated_Redelivery(t *testing.T) {
	repo := newMemoryRepo()
	mirror := &mirrorRecorder{}
	svc := NewService(repo, mirror, nil, nil)
	account := seedAccount(t, svc, "Centro", 30, "11111111")

	directory := &branchDirectoryStub{branches: map[string]branchclient.Branch{
		"Centro": {Name: "Centro", Address: "Av. Corrientes 1000"},
	}}
	consumer := NewEventConsumer(svc, directory, nil, nil)

	body := accountCreatedBody(t, account.ID, "Centro")
	if ack := consumer.HandleAccountCreated(body); !ack {
		t.Fatal("expected ack")
	}
	mirrored := len(mirror.accounts)

	// At-least-once delivery: the second handling must change nothing.
	if ack := consumer.HandleAccountCreated(body); !ack {
		t.Fatal("expected ack on redelivery")
	}
	if len(mirror.accounts) != mirrored {
		t.Fatal("redelivery must not re-mirror the account")
	}
}

func TestHandleTransactionCreated_SendsNotification(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil)
	emailer := &emailSenderStub{}
	consumer := NewEventConsumer(svc, nil, emailer, nil)

	txID := uuid.New()
	body, err := json.Marshal(domain.TransactionCreatedEvent{TransactionID: txID, OccurredAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}

	if ack := consumer.HandleTransactionCreated(body); !ack {
		t.Fatal("expected ack")
	}
	if len(emailer.sent) != 1 || emailer.sent[0] != txID.String() {
		t.Fatalf("expected notification for %s, got %v", txID, emailer.sent)
	}
}

func TestHandleTransactionCreated_SendFailureRequeues(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil, nil, nil)
	emailer := &emailSenderStub{err: errors.New("smtp down")}
	consumer := NewEventConsumer(svc, nil, emailer, nil)

	body, err := json.Marshal(domain.TransactionCreatedEvent{TransactionID: uuid.New(), OccurredAt: time.Now().UTC()})
	if err != nil {
		t.Fatalf("failed to marshal event: %v", err)
	}

	if ack := consumer.HandleTransactionCreated(body); ack {
		t.Fatal("expected requeue on notification failure")
	}
}
