package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkondratev/eventprog/internal/domain"
	"github.com/pkondratev/eventprog/internal/repo"
	"github.com/pkondratev/eventprog/internal/schedule"
)

// shareCodeLen is the length of a published share code.
const shareCodeLen = 8

// ProgramGetter is the slice of ProgramService the plan service depends on.
type ProgramGetter interface {
	Get(ctx context.Context, gid string, forceRefresh bool) (domain.ProgramData, error)
}

// SessionConflict annotates one planned session: a hard time overlap with
// another planned session, or an informational hall-transition hint from the
// immediately preceding one.
type SessionConflict struct {
	Session      domain.Session  `json:"session"`
	Overlapping  *domain.Session `json:"overlapping,omitempty"`
	TransitionTo *domain.Session `json:"transitionTo,omitempty"`
}

// sharePayload is the JSON shape frozen into a shared_plans row.
type sharePayload struct {
	Sessions []domain.Session `json:"sessions"`
}

// PlanService implements business logic for personal plans: saving with
// validation against the current program, conflict annotation, popularity
// stats, and share-code publishing.
type PlanService struct {
	plans    repo.PlanRepo
	shares   repo.ShareRepo
	programs ProgramGetter
}

// NewPlanService constructs a PlanService backed by the provided repos and
// program source.
func NewPlanService(plans repo.PlanRepo, shares repo.ShareRepo, programs ProgramGetter) *PlanService {
	return &PlanService{plans: plans, shares: shares, programs: programs}
}

// Save validates and persists a user's plan for one sheet tab.
// Every session id must resolve against the current program snapshot;
// duplicates are collapsed silently. Returns domain.ErrValidation for a
// missing user id, missing tab, or an unresolvable session id.
func (s *PlanService) Save(ctx context.Context, plan domain.Plan) (domain.Plan, error) {
	if strings.TrimSpace(plan.UserID) == "" {
		return domain.Plan{}, domain.Validationf("userId is required")
	}
	if strings.TrimSpace(plan.SheetGID) == "" {
		return domain.Plan{}, domain.Validationf("sheetGid is required")
	}

	program, err := s.programs.Get(ctx, plan.SheetGID, false)
	if err != nil {
		return domain.Plan{}, fmt.Errorf("service.PlanService.Save: %w", err)
	}

	seen := make(map[string]bool, len(plan.SessionIDs))
	ids := make([]string, 0, len(plan.SessionIDs))
	for _, id := range plan.SessionIDs {
		if seen[id] {
			continue
		}
		if program.SessionByID(id) == nil {
			return domain.Plan{}, domain.Validationf("unknown session id %q", id)
		}
		seen[id] = true
		ids = append(ids, id)
	}
	plan.SessionIDs = ids

	result, err := s.plans.Upsert(ctx, plan)
	if err != nil {
		return domain.Plan{}, fmt.Errorf("service.PlanService.Save: %w", err)
	}
	return result, nil
}

// Get returns a user's saved plan for one sheet tab.
// Returns domain.ErrNotFound if the user never saved one.
func (s *PlanService) Get(ctx context.Context, userID, sheetGID string) (domain.Plan, error) {
	result, err := s.plans.Get(ctx, userID, sheetGID)
	if err != nil {
		return domain.Plan{}, fmt.Errorf("service.PlanService.Get: %w", err)
	}
	return result, nil
}

// Conflicts annotates every session of a user's plan against the rest of the
// plan. Session ids orphaned by a re-sync are silently dropped from the
// result rather than failing the query.
func (s *PlanService) Conflicts(ctx context.Context, userID, sheetGID string) ([]SessionConflict, error) {
	sessions, err := s.resolvePlan(ctx, userID, sheetGID)
	if err != nil {
		return nil, fmt.Errorf("service.PlanService.Conflicts: %w", err)
	}

	conflicts := schedule.AnnotatePlan(sessions)
	out := make([]SessionConflict, len(sessions))
	for i := range sessions {
		out[i] = SessionConflict{
			Session:      sessions[i],
			Overlapping:  conflicts[i].Overlapping,
			TransitionTo: conflicts[i].TransitionTo,
		}
	}
	return out, nil
}

// Share freezes a user's current plan under a new short code. The frozen
// copy embeds the full session payload, so the share survives later
// re-syncs of the source program.
func (s *PlanService) Share(ctx context.Context, userID, sheetGID string) (domain.SharedPlan, error) {
	sessions, err := s.resolvePlan(ctx, userID, sheetGID)
	if err != nil {
		return domain.SharedPlan{}, fmt.Errorf("service.PlanService.Share: %w", err)
	}

	payload, err := json.Marshal(sharePayload{Sessions: sessions})
	if err != nil {
		return domain.SharedPlan{}, fmt.Errorf("service.PlanService.Share: encode: %w", err)
	}

	// Codes are random; only a code collision is retried with a fresh code.
	// Any other storage failure is returned immediately.
	var createErr error
	for attempt := 0; attempt < 3; attempt++ {
		code := newShareCode()
		if createErr = s.shares.Create(ctx, code, payload); createErr == nil {
			return domain.SharedPlan{
				Code:      code,
				Sessions:  sessions,
				CreatedAt: time.Now().UTC(),
			}, nil
		}
		if !errors.Is(createErr, domain.ErrConflict) {
			break
		}
	}
	return domain.SharedPlan{}, fmt.Errorf("service.PlanService.Share: %w", createErr)
}

// Resolve returns the frozen plan published under a share code.
// Returns domain.ErrNotFound for unknown codes.
func (s *PlanService) Resolve(ctx context.Context, code string) (domain.SharedPlan, error) {
	payload, createdAt, err := s.shares.Get(ctx, code)
	if err != nil {
		return domain.SharedPlan{}, fmt.Errorf("service.PlanService.Resolve: %w", err)
	}

	var frozen sharePayload
	if err := json.Unmarshal(payload, &frozen); err != nil {
		return domain.SharedPlan{}, fmt.Errorf("service.PlanService.Resolve: decode %s: %w", code, err)
	}

	return domain.SharedPlan{
		Code:      code,
		Sessions:  frozen.Sessions,
		CreatedAt: createdAt,
	}, nil
}

// Stats reports per-session plan counts for one sheet tab, most popular
// first. Always returns a non-nil slice so callers can safely range over it.
func (s *PlanService) Stats(ctx context.Context, sheetGID string) ([]domain.SessionStat, error) {
	stats, err := s.plans.Stats(ctx, sheetGID)
	if err != nil {
		return nil, fmt.Errorf("service.PlanService.Stats: %w", err)
	}
	if stats == nil {
		return []domain.SessionStat{}, nil
	}
	return stats, nil
}

// resolvePlan loads a plan and materializes its session ids against the
// current program snapshot, dropping ids a re-sync has orphaned.
func (s *PlanService) resolvePlan(ctx context.Context, userID, sheetGID string) ([]domain.Session, error) {
	plan, err := s.plans.Get(ctx, userID, sheetGID)
	if err != nil {
		return nil, err
	}

	program, err := s.programs.Get(ctx, plan.SheetGID, false)
	if err != nil {
		return nil, err
	}

	sessions := make([]domain.Session, 0, len(plan.SessionIDs))
	for _, id := range plan.SessionIDs {
		if session := program.SessionByID(id); session != nil {
			sessions = append(sessions, *session)
		}
	}
	return sessions, nil
}

// newShareCode returns a fresh 8-character share code.
func newShareCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:shareCodeLen]
}
