package token

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/simplepass/simplepass/internal/enroll"
)

// Service manages the static-pass credential lifecycle.
type Service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService creates a new token service.
func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Enroll creates exactly one credential record from an enrollment request
// mapping. The pin value, when present, is bcrypt-hashed before storage and
// never kept in clear text. The otpkey placeholder is validated structurally
// and discarded; a static-pass token has no OTP seed to keep. Resubmitting
// the same request enrolls a new, distinct token.
func (s *Service) Enroll(ctx context.Context, req url.Values) (Token, error) {
	if typ := req.Get("type"); typ != enroll.TokenType {
		return Token{}, fmt.Errorf("%w: unsupported token type %q", ErrValidation, typ)
	}
	if req.Get("user") == "" {
		return Token{}, fmt.Errorf("%w: missing user", ErrValidation)
	}

	var pinHash []byte
	if pin := req.Get("pin"); pin != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
		if err != nil {
			return Token{}, err
		}
		pinHash = hash
	}

	description := req.Get("description")
	if description == "" {
		description = enroll.DefaultDescription
	}

	t := Token{
		ID:          uuid.New().String(),
		OwnerLogin:  req.Get("user"),
		OwnerRealm:  req.Get("realm"),
		Type:        enroll.TokenType,
		Description: description,
		PINHash:     pinHash,
		CreatedAt:   time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return Token{}, fmt.Errorf("store token: %w", err)
	}

	s.logger.Info("token enrolled",
		slog.String("serial", t.ID),
		slog.String("user", t.OwnerLogin),
		slog.String("realm", t.OwnerRealm),
		slog.Bool("pin_set", t.PINSet()),
	)

	return t, nil
}

// Verify evaluates an authentication attempt against the stored record.
// A token without a PIN accepts any pass, including an empty one; this is a
// deliberate weak-authentication mode and every such acceptance is logged so
// operators can see it. A token with a PIN accepts exactly the enrolled
// value. No retry counter or lockout lives here; that is a cross-cutting
// server concern.
func (s *Service) Verify(ctx context.Context, id, pass string) error {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if !t.PINSet() {
		s.logger.Warn("static-pass token accepted without PIN check",
			slog.String("serial", t.ID),
			slog.String("user", t.OwnerLogin),
		)
		return nil
	}

	if err := bcrypt.CompareHashAndPassword(t.PINHash, []byte(pass)); err != nil {
		return ErrPINRejected
	}
	return nil
}

// Get fetches a single token by serial.
func (s *Service) Get(ctx context.Context, id string) (Token, error) {
	return s.repo.FindByID(ctx, id)
}

// ListByOwner returns the tokens enrolled by a user.
func (s *Service) ListByOwner(ctx context.Context, login, realm string) ([]Token, error) {
	return s.repo.ListByOwner(ctx, login, realm)
}

// SetPIN replaces the token's PIN. An empty pin clears the hash, returning
// the token to the possession-only mode.
func (s *Service) SetPIN(ctx context.Context, id, pin string) error {
	var hash []byte
	if pin != "" {
		h, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		hash = h
	}
	if err := s.repo.UpdatePINHash(ctx, id, hash); err != nil {
		return err
	}
	s.logger.Info("token pin updated",
		slog.String("serial", id),
		slog.Bool("pin_set", hash != nil),
	)
	return nil
}

// Delete removes a token record.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("token deleted", slog.String("serial", id))
	return nil
}
