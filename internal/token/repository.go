package token

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists credential records. Each mutation is a single
// statement, so a record is either written whole or not at all.
type Repository interface {
	Create(ctx context.Context, t Token) error
	FindByID(ctx context.Context, id string) (Token, error)
	ListByOwner(ctx context.Context, login, realm string) ([]Token, error)
	UpdatePINHash(ctx context.Context, id string, hash []byte) error
	Delete(ctx context.Context, id string) error
}

// PostgresRepository implements Repository using PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository builds a Postgres-backed token repository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new token record.
func (r *PostgresRepository) Create(ctx context.Context, t Token) error {
	tokenID, err := uuid.Parse(t.ID)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `INSERT INTO tokens (id, owner_login, owner_realm, type, description, pin_hash, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tokenID, t.OwnerLogin, t.OwnerRealm, t.Type, t.Description, t.PINHash, t.CreatedAt.UTC())
	return err
}

// FindByID fetches a token by serial.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (Token, error) {
	tokenID, err := uuid.Parse(id)
	if err != nil {
		return Token{}, ErrNotFound
	}
	row := r.db.QueryRow(ctx, `SELECT id, owner_login, owner_realm, type, description, pin_hash, created_at
        FROM tokens WHERE id = $1`, tokenID)

	var (
		scannedID uuid.UUID
		createdAt time.Time
		t         Token
	)
	if err := row.Scan(&scannedID, &t.OwnerLogin, &t.OwnerRealm, &t.Type, &t.Description, &t.PINHash, &createdAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Token{}, ErrNotFound
		}
		return Token{}, err
	}
	t.ID = scannedID.String()
	t.CreatedAt = createdAt.UTC()
	return t, nil
}

// ListByOwner returns all tokens enrolled by the given user.
func (r *PostgresRepository) ListByOwner(ctx context.Context, login, realm string) ([]Token, error) {
	rows, err := r.db.Query(ctx, `SELECT id, owner_login, owner_realm, type, description, pin_hash, created_at
        FROM tokens WHERE owner_login = $1 AND owner_realm = $2 ORDER BY created_at`, login, realm)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []Token
	for rows.Next() {
		var (
			scannedID uuid.UUID
			createdAt time.Time
			t         Token
		)
		if err := rows.Scan(&scannedID, &t.OwnerLogin, &t.OwnerRealm, &t.Type, &t.Description, &t.PINHash, &createdAt); err != nil {
			return nil, err
		}
		t.ID = scannedID.String()
		t.CreatedAt = createdAt.UTC()
		tokens = append(tokens, t)
	}
	return tokens, rows.Err()
}

// UpdatePINHash replaces the stored PIN hash. A nil hash clears the PIN.
func (r *PostgresRepository) UpdatePINHash(ctx context.Context, id string, hash []byte) error {
	tokenID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `UPDATE tokens SET pin_hash = $1 WHERE id = $2`, hash, tokenID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a token record.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tokenID, err := uuid.Parse(id)
	if err != nil {
		return ErrNotFound
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM tokens WHERE id = $1`, tokenID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
