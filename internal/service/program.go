// Package service implements the business logic between the HTTP handlers
// and the repo/transport layers: snapshot caching, plan validation, sharing,
// conflict annotation, and export assembly.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pkondratev/eventprog/internal/domain"
	"github.com/pkondratev/eventprog/internal/repo"
	"github.com/pkondratev/eventprog/internal/schedule"
)

// Fetcher defines the spreadsheet transport the program service depends on.
// Defining the interface here (in the consumer package) lets service tests
// inject a mock without standing up an HTTP server.
type Fetcher interface {
	FetchGrid(ctx context.Context, gid string) ([][]string, error)
	FetchMeta(ctx context.Context, gid string) (map[string]string, error)
}

// ProgramConfig carries the sync-related settings of ProgramService.
type ProgramConfig struct {
	// SheetGIDs lists the tab gids served by this deployment, one per
	// program day. Requests for any other gid return domain.ErrNotFound.
	SheetGIDs []string

	// MetaSheetGID is the optional key/value tab whose entries override the
	// metadata read from the grid's fixed header cells. Empty disables it.
	MetaSheetGID string

	// CacheTTL is how long a stored snapshot is served before a re-fetch is
	// attempted.
	CacheTTL time.Duration
}

// ProgramService owns the fetch→parse→cache pipeline for program data.
// Parsed snapshots are stored JSON-encoded per sheet tab; a snapshot is
// served as long as it is younger than CacheTTL, re-parsed otherwise, and
// served stale when the upstream spreadsheet is unreachable.
type ProgramService struct {
	fetcher   Fetcher
	snapshots repo.SnapshotRepo
	tags      *schedule.TagSet
	parser    *schedule.Parser
	cfg       ProgramConfig
}

// NewProgramService constructs a ProgramService backed by the provided
// transport and snapshot store.
func NewProgramService(fetcher Fetcher, snapshots repo.SnapshotRepo, tags *schedule.TagSet, cfg ProgramConfig) *ProgramService {
	return &ProgramService{
		fetcher:   fetcher,
		snapshots: snapshots,
		tags:      tags,
		parser:    schedule.NewParser(tags, nil),
		cfg:       cfg,
	}
}

// Get returns the program for one sheet tab.
//
// Unless forceRefresh is set, a cached snapshot younger than CacheTTL is
// served without touching the upstream sheet. A stale or missing snapshot
// triggers a re-sync; if the sheet is unreachable and a stale snapshot
// exists, the stale snapshot is served rather than failing the request.
// Returns domain.ErrNotFound for a gid outside the configured tab list.
func (s *ProgramService) Get(ctx context.Context, gid string, forceRefresh bool) (domain.ProgramData, error) {
	if !s.knownGID(gid) {
		return domain.ProgramData{}, fmt.Errorf("service.ProgramService.Get: tab %q: %w", gid, domain.ErrNotFound)
	}

	if !forceRefresh {
		snap, err := s.snapshots.Get(ctx, gid)
		switch {
		case err == nil && time.Since(snap.FetchedAt) < s.cfg.CacheTTL:
			return decodeSnapshot(snap)
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return domain.ProgramData{}, fmt.Errorf("service.ProgramService.Get: %w", err)
		}
	}

	data, err := s.syncTab(ctx, gid)
	if err != nil {
		// Upstream down: a stale snapshot beats an error page.
		if errors.Is(err, domain.ErrUnavailable) {
			if snap, gerr := s.snapshots.Get(ctx, gid); gerr == nil {
				return decodeSnapshot(snap)
			}
		}
		return domain.ProgramData{}, err
	}
	return data, nil
}

// Matrix returns the time-by-hall layout for one sheet tab, computed from
// the same snapshot Get would serve. A non-empty tag keeps only sessions
// carrying that canonical tag; slot rows are derived from the filtered set.
func (s *ProgramService) Matrix(ctx context.Context, gid, tag string, forceRefresh bool) (schedule.Matrix, error) {
	data, err := s.Get(ctx, gid, forceRefresh)
	if err != nil {
		return schedule.Matrix{}, err
	}
	sessions := data.Sessions
	if tag != "" {
		sessions = filterByTag(sessions, tag)
	}
	return schedule.BuildMatrix(data.Halls, sessions), nil
}

// Sync re-fetches and re-parses the given tabs (all configured tabs when
// gids is empty), replacing the stored snapshots. Tabs are fetched
// concurrently and fail independently; the returned error aggregates all
// per-tab failures. An unconfigured gid is a validation error.
func (s *ProgramService) Sync(ctx context.Context, gids []string) error {
	if len(gids) == 0 {
		gids = s.cfg.SheetGIDs
	}

	errs := make([]error, len(gids))
	var wg sync.WaitGroup
	for i, gid := range gids {
		if !s.knownGID(gid) {
			errs[i] = domain.Validationf("unknown tab %q", gid)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.syncTab(ctx, gid)
			errs[i] = err
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

// TagsFor returns the canonical tags actually present in one tab's program
// (id → display label), a subset of the full vocabulary plus any preserved
// unknown tags.
func (s *ProgramService) TagsFor(ctx context.Context, gid string) (map[string]string, error) {
	data, err := s.Get(ctx, gid, false)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, session := range data.Sessions {
		for i, id := range session.TagsCanon {
			if i < len(session.Tags) {
				out[id] = session.Tags[i]
			} else {
				out[id] = s.tags.Label(id)
			}
		}
	}
	return out, nil
}

func filterByTag(sessions []domain.Session, tag string) []domain.Session {
	var out []domain.Session
	for _, session := range sessions {
		for _, id := range session.TagsCanon {
			if id == tag {
				out = append(out, session)
				break
			}
		}
	}
	return out
}

// syncTab runs one full fetch→parse→store pass for a tab.
func (s *ProgramService) syncTab(ctx context.Context, gid string) (domain.ProgramData, error) {
	grid, err := s.fetcher.FetchGrid(ctx, gid)
	if err != nil {
		return domain.ProgramData{}, fmt.Errorf("service.ProgramService.Sync: %w", err)
	}

	data, err := s.parser.Parse(grid)
	if err != nil {
		return domain.ProgramData{}, fmt.Errorf("service.ProgramService.Sync: gid %s: %w", gid, err)
	}

	s.applyMetaOverride(ctx, &data)

	payload, err := json.Marshal(data)
	if err != nil {
		return domain.ProgramData{}, fmt.Errorf("service.ProgramService.Sync: encode gid %s: %w", gid, err)
	}

	err = s.snapshots.Upsert(ctx, repo.Snapshot{
		SheetGID:  gid,
		Payload:   payload,
		FetchedAt: time.Now().UTC(),
	})
	if err != nil {
		return domain.ProgramData{}, fmt.Errorf("service.ProgramService.Sync: %w", err)
	}

	return data, nil
}

// applyMetaOverride replaces header-cell metadata with entries from the
// dedicated meta tab, when one is configured. The meta tab is advisory: a
// fetch failure leaves the header-cell values in place.
func (s *ProgramService) applyMetaOverride(ctx context.Context, data *domain.ProgramData) {
	if s.cfg.MetaSheetGID == "" {
		return
	}
	meta, err := s.fetcher.FetchMeta(ctx, s.cfg.MetaSheetGID)
	if err != nil {
		return
	}
	if v, ok := meta["title"]; ok {
		data.Meta.Title = v
	}
	if v, ok := meta["date"]; ok {
		data.Meta.Date = v
	}
	if v, ok := meta["venue"]; ok {
		data.Meta.Venue = v
	}
}

func (s *ProgramService) knownGID(gid string) bool {
	for _, g := range s.cfg.SheetGIDs {
		if g == gid {
			return true
		}
	}
	return false
}

// decodeSnapshot revives a stored snapshot. The persisted Now marker is the
// clock of the parse, not of this request, so it is refreshed here.
func decodeSnapshot(snap repo.Snapshot) (domain.ProgramData, error) {
	var data domain.ProgramData
	if err := json.Unmarshal(snap.Payload, &data); err != nil {
		return domain.ProgramData{}, fmt.Errorf("service.ProgramService.Get: decode snapshot %s: %w", snap.SheetGID, err)
	}
	data.Now = schedule.Clock(time.Now())
	return data, nil
}
