package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkondratev/eventprog/internal/domain"
)

// ShareRepo defines the persistence operations for shared plan codes.
// A share is a frozen JSON payload published under a short code; it never
// changes after creation.
type ShareRepo interface {
	// Create stores a new share. Codes are caller-generated; a collision
	// returns domain.ErrConflict for the caller to retry with a new code.
	Create(ctx context.Context, code string, payload []byte) error

	// Get retrieves a share's payload and creation time by code.
	// Returns domain.ErrNotFound for unknown codes.
	Get(ctx context.Context, code string) ([]byte, time.Time, error)
}

// pgShareRepo is the Postgres implementation of ShareRepo.
type pgShareRepo struct {
	db db
}

// NewShareRepo constructs a ShareRepo backed by the provided db connection.
func NewShareRepo(db db) ShareRepo {
	return &pgShareRepo{db: db}
}

func (r *pgShareRepo) Create(ctx context.Context, code string, payload []byte) error {
	const q = `
		INSERT INTO shared_plans (code, payload)
		VALUES (@code, @payload)`

	args := pgx.NamedArgs{"code": code, "payload": payload}

	if _, err := r.db.Exec(ctx, q, args); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
			return fmt.Errorf("repo.ShareRepo.Create: code %s: %w", code, domain.ErrConflict)
		}
		return fmt.Errorf("repo.ShareRepo.Create: %w", err)
	}
	return nil
}

func (r *pgShareRepo) Get(ctx context.Context, code string) ([]byte, time.Time, error) {
	const q = `
		SELECT payload, created_at
		FROM shared_plans
		WHERE code = @code`

	var (
		payload   []byte
		createdAt time.Time
	)
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"code": code}).Scan(&payload, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, time.Time{}, fmt.Errorf("repo.ShareRepo.Get: %w", domain.ErrNotFound)
		}
		return nil, time.Time{}, fmt.Errorf("repo.ShareRepo.Get: %w", err)
	}
	return payload, createdAt, nil
}
