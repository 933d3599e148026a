package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pkondratev/eventprog/internal/domain"
)

// Snapshot is one cached parse result: the JSON-encoded ProgramData for a
// sheet tab plus the moment it was fetched. The payload stays opaque bytes
// at this layer; encoding and decoding belong to the service.
type Snapshot struct {
	SheetGID  string
	Payload   []byte
	FetchedAt time.Time
}

// SnapshotRepo defines the persistence operations for program snapshots.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type SnapshotRepo interface {
	// Upsert stores or replaces the snapshot for a sheet tab.
	Upsert(ctx context.Context, snap Snapshot) error

	// Get retrieves the snapshot for a sheet tab.
	// Returns domain.ErrNotFound if the tab has never been synced.
	Get(ctx context.Context, sheetGID string) (Snapshot, error)
}

// pgSnapshotRepo is the Postgres implementation of SnapshotRepo.
type pgSnapshotRepo struct {
	db db
}

// NewSnapshotRepo constructs a SnapshotRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewSnapshotRepo(db db) SnapshotRepo {
	return &pgSnapshotRepo{db: db}
}

func (r *pgSnapshotRepo) Upsert(ctx context.Context, snap Snapshot) error {
	const q = `
		INSERT INTO program_snapshots (sheet_gid, payload, fetched_at)
		VALUES (@sheet_gid, @payload, @fetched_at)
		ON CONFLICT (sheet_gid)
		DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`

	args := pgx.NamedArgs{
		"sheet_gid":  snap.SheetGID,
		"payload":    snap.Payload,
		"fetched_at": snap.FetchedAt,
	}

	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.SnapshotRepo.Upsert: %w", err)
	}
	return nil
}

func (r *pgSnapshotRepo) Get(ctx context.Context, sheetGID string) (Snapshot, error) {
	const q = `
		SELECT sheet_gid, payload, fetched_at
		FROM program_snapshots
		WHERE sheet_gid = @sheet_gid`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"sheet_gid": sheetGID})

	var snap Snapshot
	if err := row.Scan(&snap.SheetGID, &snap.Payload, &snap.FetchedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, fmt.Errorf("repo.SnapshotRepo.Get: %w", domain.ErrNotFound)
		}
		return Snapshot{}, fmt.Errorf("repo.SnapshotRepo.Get: %w", err)
	}
	return snap, nil
}
