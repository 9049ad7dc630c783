package token

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/simplepass/simplepass/internal/enroll"
	"github.com/simplepass/simplepass/internal/logging"
)

func newTestService() *Service {
	return NewService(NewMemoryRepository(), logging.Discard())
}

func enrollToken(t *testing.T, svc *Service, pin string) Token {
	t.Helper()
	req := enroll.Build(
		enroll.FormState{Description: "test token", PIN: pin, PINConfirm: pin},
		enroll.Owner{Login: "alice", Realm: "defrealm"},
	)
	tok, err := svc.Enroll(context.Background(), req)
	if err != nil {
		t.Fatalf("enroll: %v", err)
	}
	return tok
}

func TestEnrollAndVerifyRoundTrip(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	tok := enrollToken(t, svc, "4242")
	if !tok.PINSet() {
		t.Fatalf("expected pin to be set")
	}

	if err := svc.Verify(ctx, tok.ID, "4242"); err != nil {
		t.Fatalf("verify with correct pin: %v", err)
	}
	if err := svc.Verify(ctx, tok.ID, "0000"); !errors.Is(err, ErrPINRejected) {
		t.Fatalf("expected ErrPINRejected, got %v", err)
	}
	if err := svc.Verify(ctx, tok.ID, ""); !errors.Is(err, ErrPINRejected) {
		t.Fatalf("expected ErrPINRejected for empty pass, got %v", err)
	}
}

func TestVerifyWithoutPINAcceptsAnything(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	tok := enrollToken(t, svc, "")
	if tok.PINSet() {
		t.Fatalf("expected no pin")
	}

	for _, pass := range []string{"", "0000", "whatever"} {
		if err := svc.Verify(ctx, tok.ID, pass); err != nil {
			t.Fatalf("pass %q: %v", pass, err)
		}
	}
}

func TestVerifyUnknownSerial(t *testing.T) {
	svc := newTestService()

	if err := svc.Verify(context.Background(), "missing", "1234"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestEnrollNeverStoresClearPIN(t *testing.T) {
	svc := newTestService()

	tok := enrollToken(t, svc, "4242")
	if string(tok.PINHash) == "4242" {
		t.Fatalf("pin stored in clear text")
	}
}

func TestEnrollValidation(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	req := url.Values{}
	req.Set("type", "totp")
	req.Set("user", "alice")
	if _, err := svc.Enroll(ctx, req); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for foreign type, got %v", err)
	}

	req = enroll.Build(enroll.FormState{}, enroll.Owner{})
	if _, err := svc.Enroll(ctx, req); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for missing user, got %v", err)
	}
}

type failingCreateRepository struct {
	Repository
	createErr error
}

func (r *failingCreateRepository) Create(context.Context, Token) error {
	return r.createErr
}

func TestEnrollSurfacesStoreFailure(t *testing.T) {
	storeErr := errors.New("connection refused")
	repo := &failingCreateRepository{Repository: NewMemoryRepository(), createErr: storeErr}
	svc := NewService(repo, logging.Discard())
	ctx := context.Background()

	req := enroll.Build(
		enroll.FormState{PIN: "4242", PINConfirm: "4242"},
		enroll.Owner{Login: "alice", Realm: "defrealm"},
	)
	if _, err := svc.Enroll(ctx, req); !errors.Is(err, storeErr) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}

	// A failed submission must leave no partial record behind.
	tokens, err := svc.ListByOwner(ctx, "alice", "defrealm")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tokens) != 0 {
		t.Fatalf("expected no tokens after failed enroll, got %d", len(tokens))
	}
}

func TestEnrollCreatesDistinctTokens(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	first := enrollToken(t, svc, "4242")
	second := enrollToken(t, svc, "4242")
	if first.ID == second.ID {
		t.Fatalf("resubmission must create a distinct token, both got %s", first.ID)
	}

	tokens, err := svc.ListByOwner(ctx, "alice", "defrealm")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(tokens))
	}
}

func TestSetPIN(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	tok := enrollToken(t, svc, "")
	if err := svc.Verify(ctx, tok.ID, "anything"); err != nil {
		t.Fatalf("pre-pin verify: %v", err)
	}

	if err := svc.SetPIN(ctx, tok.ID, "9999"); err != nil {
		t.Fatalf("set pin: %v", err)
	}
	if err := svc.Verify(ctx, tok.ID, "9999"); err != nil {
		t.Fatalf("verify new pin: %v", err)
	}
	if err := svc.Verify(ctx, tok.ID, "anything"); !errors.Is(err, ErrPINRejected) {
		t.Fatalf("expected ErrPINRejected, got %v", err)
	}

	// Clearing the PIN returns the token to possession-only mode.
	if err := svc.SetPIN(ctx, tok.ID, ""); err != nil {
		t.Fatalf("clear pin: %v", err)
	}
	if err := svc.Verify(ctx, tok.ID, "anything"); err != nil {
		t.Fatalf("post-clear verify: %v", err)
	}

	if err := svc.SetPIN(ctx, "missing", "1234"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	tok := enrollToken(t, svc, "4242")
	if err := svc.Delete(ctx, tok.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.Verify(ctx, tok.ID, "4242"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := svc.Delete(ctx, tok.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}
