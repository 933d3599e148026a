package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pkondratev/eventprog/internal/domain"
)

// PlanRepo defines the persistence operations for user plans and the
// aggregate statistics derived from them.
type PlanRepo interface {
	// Upsert stores or replaces a user's plan for one sheet tab and returns
	// the persisted record with updated_at populated.
	Upsert(ctx context.Context, plan domain.Plan) (domain.Plan, error)

	// Get retrieves a user's plan for one sheet tab.
	// Returns domain.ErrNotFound if the user never saved one.
	Get(ctx context.Context, userID, sheetGID string) (domain.Plan, error)

	// Stats reports, per session id, how many saved plans for the tab
	// include it, ordered by count descending then session id ascending.
	Stats(ctx context.Context, sheetGID string) ([]domain.SessionStat, error)
}

// pgPlanRepo is the Postgres implementation of PlanRepo.
type pgPlanRepo struct {
	db db
}

// NewPlanRepo constructs a PlanRepo backed by the provided db connection.
func NewPlanRepo(db db) PlanRepo {
	return &pgPlanRepo{db: db}
}

func (r *pgPlanRepo) Upsert(ctx context.Context, plan domain.Plan) (domain.Plan, error) {
	const q = `
		INSERT INTO plans (user_id, sheet_gid, session_ids, updated_at)
		VALUES (@user_id, @sheet_gid, @session_ids, now())
		ON CONFLICT (user_id, sheet_gid)
		DO UPDATE SET session_ids = excluded.session_ids, updated_at = now()
		RETURNING user_id, sheet_gid, session_ids, updated_at`

	args := pgx.NamedArgs{
		"user_id":     plan.UserID,
		"sheet_gid":   plan.SheetGID,
		"session_ids": plan.SessionIDs,
	}

	result, err := scanPlan(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Plan{}, fmt.Errorf("repo.PlanRepo.Upsert: %w", err)
	}
	return result, nil
}

func (r *pgPlanRepo) Get(ctx context.Context, userID, sheetGID string) (domain.Plan, error) {
	const q = `
		SELECT user_id, sheet_gid, session_ids, updated_at
		FROM plans
		WHERE user_id = @user_id AND sheet_gid = @sheet_gid`

	args := pgx.NamedArgs{"user_id": userID, "sheet_gid": sheetGID}

	result, err := scanPlan(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.Plan{}, fmt.Errorf("repo.PlanRepo.Get: %w", err)
	}
	return result, nil
}

func (r *pgPlanRepo) Stats(ctx context.Context, sheetGID string) ([]domain.SessionStat, error) {
	const q = `
		SELECT sid, count(*)
		FROM plans, unnest(session_ids) AS sid
		WHERE sheet_gid = @sheet_gid
		GROUP BY sid
		ORDER BY count(*) DESC, sid ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"sheet_gid": sheetGID})
	if err != nil {
		return nil, fmt.Errorf("repo.PlanRepo.Stats: %w", err)
	}
	defer rows.Close()

	var stats []domain.SessionStat
	for rows.Next() {
		var s domain.SessionStat
		if err := rows.Scan(&s.SessionID, &s.PlanCount); err != nil {
			return nil, fmt.Errorf("repo.PlanRepo.Stats: scan: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.PlanRepo.Stats: rows: %w", err)
	}

	return stats, nil
}

// scanPlan maps a single database row into a domain.Plan.
func scanPlan(s scanner) (domain.Plan, error) {
	var p domain.Plan
	if err := s.Scan(&p.UserID, &p.SheetGID, &p.SessionIDs, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Plan{}, domain.ErrNotFound
		}
		return domain.Plan{}, err
	}
	return p, nil
}
