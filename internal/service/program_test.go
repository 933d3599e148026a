package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkondratev/eventprog/internal/domain"
	"github.com/pkondratev/eventprog/internal/repo"
	"github.com/pkondratev/eventprog/internal/schedule"
	"github.com/pkondratev/eventprog/internal/service"
)

// ---- mocks -----------------------------------------------------------------

// mockFetcher is a hand-written test double for service.Fetcher.
type mockFetcher struct {
	fetchGrid func(ctx context.Context, gid string) ([][]string, error)
	fetchMeta func(ctx context.Context, gid string) (map[string]string, error)
}

func (m *mockFetcher) FetchGrid(ctx context.Context, gid string) ([][]string, error) {
	return m.fetchGrid(ctx, gid)
}
func (m *mockFetcher) FetchMeta(ctx context.Context, gid string) (map[string]string, error) {
	if m.fetchMeta != nil {
		return m.fetchMeta(ctx, gid)
	}
	return nil, domain.ErrNotFound
}

// compile-time check: mockFetcher must satisfy service.Fetcher.
var _ service.Fetcher = (*mockFetcher)(nil)

// mockSnapshotRepo is a hand-written test double for repo.SnapshotRepo.
type mockSnapshotRepo struct {
	upsert func(ctx context.Context, snap repo.Snapshot) error
	get    func(ctx context.Context, sheetGID string) (repo.Snapshot, error)
}

func (m *mockSnapshotRepo) Upsert(ctx context.Context, snap repo.Snapshot) error {
	return m.upsert(ctx, snap)
}
func (m *mockSnapshotRepo) Get(ctx context.Context, sheetGID string) (repo.Snapshot, error) {
	return m.get(ctx, sheetGID)
}

var _ repo.SnapshotRepo = (*mockSnapshotRepo)(nil)

// ---- fixtures --------------------------------------------------------------

// sampleProgram is a small but realistic parsed snapshot: two halls, four
// sessions, including an overlapping pair and a back-to-back hall change.
func sampleProgram() domain.ProgramData {
	return domain.ProgramData{
		Meta:  domain.Meta{Title: "DevConf 2025", Date: "2025-06-14", Venue: "Tech Park"},
		Halls: []domain.Hall{{ID: "0", Name: "Room A"}, {ID: "3", Name: "Room B"}},
		Sessions: []domain.Session{
			{ID: "Room A|9:30|10:00|Talk X", HallID: "0", Hall: "Room A", Start: "9:30", End: "10:00", Title: "Talk X", Speaker: "Jane Doe", Role: "CEO"},
			{ID: "Room B|9:45|10:30|Keynote", HallID: "3", Hall: "Room B", Start: "9:45", End: "10:30", Title: "Keynote"},
			{ID: "Room A|10:00|11:00|Talk Y", HallID: "0", Hall: "Room A", Start: "10:00", End: "11:00", Title: "Talk Y", Tags: []string{"AI"}, TagsCanon: []string{"ai"}},
			{ID: "Room B|10:30|11:00|Panel", HallID: "3", Hall: "Room B", Start: "10:30", End: "11:00", Title: "Panel"},
		},
		Now: "9:00",
	}
}

// sampleGrid is a raw sheet that parses into one hall with two sessions.
func sampleGrid() [][]string {
	return [][]string{
		{"DevConf 2025", "", "Room A"},
		{"2025-06-14", "", "• Wi-Fi"},
		{"Tech Park", "", ""},
		{"9:30", "10:00", "Talk X\nJane Doe — CEO"},
		{"10:00", "11:00", "Talk Y {ai}"},
	}
}

func snapshotOf(t *testing.T, data domain.ProgramData, fetchedAt time.Time) repo.Snapshot {
	t.Helper()
	payload, err := json.Marshal(data)
	require.NoError(t, err)
	return repo.Snapshot{SheetGID: "0", Payload: payload, FetchedAt: fetchedAt}
}

func newProgramService(fetcher service.Fetcher, snapshots repo.SnapshotRepo) *service.ProgramService {
	return service.NewProgramService(fetcher, snapshots, schedule.NewTagSet(), service.ProgramConfig{
		SheetGIDs: []string{"0", "1"},
		CacheTTL:  10 * time.Minute,
	})
}

// ---- Get -------------------------------------------------------------------

func TestProgramService_Get_ServesFreshSnapshot(t *testing.T) {
	fetchCalls := 0
	svc := newProgramService(
		&mockFetcher{
			fetchGrid: func(_ context.Context, _ string) ([][]string, error) {
				fetchCalls++
				return sampleGrid(), nil
			},
		},
		&mockSnapshotRepo{
			get: func(_ context.Context, _ string) (repo.Snapshot, error) {
				return snapshotOf(t, sampleProgram(), time.Now()), nil
			},
		},
	)

	got, err := svc.Get(context.Background(), "0", false)

	require.NoError(t, err)
	assert.Equal(t, "DevConf 2025", got.Meta.Title)
	assert.Len(t, got.Sessions, 4)
	assert.Zero(t, fetchCalls, "fresh snapshot must not trigger a fetch")
}

func TestProgramService_Get_UnknownTab(t *testing.T) {
	svc := newProgramService(&mockFetcher{}, &mockSnapshotRepo{})

	_, err := svc.Get(context.Background(), "42", false)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProgramService_Get_StaleSnapshotResyncs(t *testing.T) {
	var stored repo.Snapshot
	svc := newProgramService(
		&mockFetcher{
			fetchGrid: func(_ context.Context, gid string) ([][]string, error) {
				assert.Equal(t, "0", gid)
				return sampleGrid(), nil
			},
		},
		&mockSnapshotRepo{
			get: func(_ context.Context, _ string) (repo.Snapshot, error) {
				return snapshotOf(t, sampleProgram(), time.Now().Add(-time.Hour)), nil
			},
			upsert: func(_ context.Context, snap repo.Snapshot) error {
				stored = snap
				return nil
			},
		},
	)

	got, err := svc.Get(context.Background(), "0", false)

	require.NoError(t, err)
	require.Len(t, got.Sessions, 2, "re-parse should yield the grid's sessions")
	assert.Equal(t, "Room A|9:30|10:00|Talk X", got.Sessions[0].ID)
	assert.Equal(t, []string{"ai"}, got.Sessions[1].TagsCanon)
	assert.Equal(t, "0", stored.SheetGID)
	assert.False(t, stored.FetchedAt.IsZero())
}

func TestProgramService_Get_NeverSyncedFetches(t *testing.T) {
	svc := newProgramService(
		&mockFetcher{
			fetchGrid: func(_ context.Context, _ string) ([][]string, error) {
				return sampleGrid(), nil
			},
		},
		&mockSnapshotRepo{
			get: func(_ context.Context, _ string) (repo.Snapshot, error) {
				return repo.Snapshot{}, domain.ErrNotFound
			},
			upsert: func(_ context.Context, _ repo.Snapshot) error { return nil },
		},
	)

	got, err := svc.Get(context.Background(), "0", false)

	require.NoError(t, err)
	assert.Len(t, got.Sessions, 2)
}

func TestProgramService_Get_ForceRefreshSkipsCache(t *testing.T) {
	fetchCalls := 0
	svc := newProgramService(
		&mockFetcher{
			fetchGrid: func(_ context.Context, _ string) ([][]string, error) {
				fetchCalls++
				return sampleGrid(), nil
			},
		},
		&mockSnapshotRepo{
			get: func(_ context.Context, _ string) (repo.Snapshot, error) {
				t.Fatal("cache must not be consulted on forceRefresh")
				return repo.Snapshot{}, nil
			},
			upsert: func(_ context.Context, _ repo.Snapshot) error { return nil },
		},
	)

	_, err := svc.Get(context.Background(), "0", true)

	require.NoError(t, err)
	assert.Equal(t, 1, fetchCalls)
}

func TestProgramService_Get_UpstreamDownServesStale(t *testing.T) {
	svc := newProgramService(
		&mockFetcher{
			fetchGrid: func(_ context.Context, _ string) ([][]string, error) {
				return nil, domain.ErrUnavailable
			},
		},
		&mockSnapshotRepo{
			get: func(_ context.Context, _ string) (repo.Snapshot, error) {
				return snapshotOf(t, sampleProgram(), time.Now().Add(-time.Hour)), nil
			},
		},
	)

	got, err := svc.Get(context.Background(), "0", false)

	require.NoError(t, err, "stale snapshot should mask an unreachable upstream")
	assert.Equal(t, "DevConf 2025", got.Meta.Title)
}

func TestProgramService_Get_UpstreamDownNoSnapshot(t *testing.T) {
	svc := newProgramService(
		&mockFetcher{
			fetchGrid: func(_ context.Context, _ string) ([][]string, error) {
				return nil, domain.ErrUnavailable
			},
		},
		&mockSnapshotRepo{
			get: func(_ context.Context, _ string) (repo.Snapshot, error) {
				return repo.Snapshot{}, domain.ErrNotFound
			},
		},
	)

	_, err := svc.Get(context.Background(), "0", false)

	assert.ErrorIs(t, err, domain.ErrUnavailable)
}

func TestProgramService_Get_RefreshesNowMarker(t *testing.T) {
	stale := sampleProgram()
	stale.Now = "3:33" // impossible for a served snapshot: must be re-stamped

	svc := newProgramService(
		&mockFetcher{},
		&mockSnapshotRepo{
			get: func(_ context.Context, _ string) (repo.Snapshot, error) {
				return snapshotOf(t, stale, time.Now()), nil
			},
		},
	)

	got, err := svc.Get(context.Background(), "0", false)

	require.NoError(t, err)
	assert.NotEqual(t, "3:33", got.Now)
	assert.Regexp(t, `^\d{1,2}:\d{2}$`, got.Now)
}

// ---- meta override ---------------------------------------------------------

func TestProgramService_Sync_MetaOverride(t *testing.T) {
	var stored repo.Snapshot
	svc := service.NewProgramService(
		&mockFetcher{
			fetchGrid: func(_ context.Context, _ string) ([][]string, error) {
				return sampleGrid(), nil
			},
			fetchMeta: func(_ context.Context, gid string) (map[string]string, error) {
				assert.Equal(t, "99", gid)
				return map[string]string{"title": "DevConf 2025 — Day 2", "venue": "Main Campus"}, nil
			},
		},
		&mockSnapshotRepo{
			upsert: func(_ context.Context, snap repo.Snapshot) error {
				stored = snap
				return nil
			},
		},
		schedule.NewTagSet(),
		service.ProgramConfig{SheetGIDs: []string{"0"}, MetaSheetGID: "99", CacheTTL: time.Minute},
	)

	require.NoError(t, svc.Sync(context.Background(), nil))

	var data domain.ProgramData
	require.NoError(t, json.Unmarshal(stored.Payload, &data))
	assert.Equal(t, "DevConf 2025 — Day 2", data.Meta.Title)
	assert.Equal(t, "Main Campus", data.Meta.Venue)
	assert.Equal(t, "2025-06-14", data.Meta.Date, "keys absent from the meta tab keep header values")
}

func TestProgramService_Sync_MetaTabUnreachableKeepsHeader(t *testing.T) {
	var stored repo.Snapshot
	svc := service.NewProgramService(
		&mockFetcher{
			fetchGrid: func(_ context.Context, _ string) ([][]string, error) {
				return sampleGrid(), nil
			},
			fetchMeta: func(_ context.Context, _ string) (map[string]string, error) {
				return nil, domain.ErrUnavailable
			},
		},
		&mockSnapshotRepo{
			upsert: func(_ context.Context, snap repo.Snapshot) error {
				stored = snap
				return nil
			},
		},
		schedule.NewTagSet(),
		service.ProgramConfig{SheetGIDs: []string{"0"}, MetaSheetGID: "99", CacheTTL: time.Minute},
	)

	require.NoError(t, svc.Sync(context.Background(), nil))

	var data domain.ProgramData
	require.NoError(t, json.Unmarshal(stored.Payload, &data))
	assert.Equal(t, "DevConf 2025", data.Meta.Title)
}

// ---- Sync ------------------------------------------------------------------

func TestProgramService_Sync_AllTabs(t *testing.T) {
	// Tabs sync concurrently, so the mock must tolerate parallel upserts.
	var mu sync.Mutex
	var synced []string
	svc := newProgramService(
		&mockFetcher{
			fetchGrid: func(_ context.Context, _ string) ([][]string, error) {
				return sampleGrid(), nil
			},
		},
		&mockSnapshotRepo{
			upsert: func(_ context.Context, snap repo.Snapshot) error {
				mu.Lock()
				defer mu.Unlock()
				synced = append(synced, snap.SheetGID)
				return nil
			},
		},
	)

	require.NoError(t, svc.Sync(context.Background(), nil))
	assert.ElementsMatch(t, []string{"0", "1"}, synced)
}

func TestProgramService_Sync_ExplicitTabs(t *testing.T) {
	var synced []string
	svc := newProgramService(
		&mockFetcher{
			fetchGrid: func(_ context.Context, _ string) ([][]string, error) {
				return sampleGrid(), nil
			},
		},
		&mockSnapshotRepo{
			upsert: func(_ context.Context, snap repo.Snapshot) error {
				synced = append(synced, snap.SheetGID)
				return nil
			},
		},
	)

	require.NoError(t, svc.Sync(context.Background(), []string{"1"}))
	assert.Equal(t, []string{"1"}, synced)
}

func TestProgramService_Sync_UnknownTab(t *testing.T) {
	svc := newProgramService(&mockFetcher{}, &mockSnapshotRepo{})

	err := svc.Sync(context.Background(), []string{"42"})

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProgramService_Sync_TabsFailIndependently(t *testing.T) {
	upstreamErr := errors.New("boom")
	var synced []string
	svc := newProgramService(
		&mockFetcher{
			fetchGrid: func(_ context.Context, gid string) ([][]string, error) {
				if gid == "0" {
					return nil, upstreamErr
				}
				return sampleGrid(), nil
			},
		},
		&mockSnapshotRepo{
			upsert: func(_ context.Context, snap repo.Snapshot) error {
				synced = append(synced, snap.SheetGID)
				return nil
			},
		},
	)

	err := svc.Sync(context.Background(), nil)

	assert.ErrorIs(t, err, upstreamErr)
	assert.Equal(t, []string{"1"}, synced, "a failing tab must not block the others")
}

// ---- Matrix ----------------------------------------------------------------

func TestProgramService_Matrix(t *testing.T) {
	svc := newProgramService(
		&mockFetcher{},
		&mockSnapshotRepo{
			get: func(_ context.Context, _ string) (repo.Snapshot, error) {
				return snapshotOf(t, sampleProgram(), time.Now()), nil
			},
		},
	)

	m, err := svc.Matrix(context.Background(), "0", "", false)

	require.NoError(t, err)
	assert.Equal(t, []string{"9:30", "9:45", "10:00", "10:30"}, m.Slots)
	require.Len(t, m.Halls, 2)
	assert.Len(t, m.Cells, 4)
}

func TestProgramService_Matrix_TagFilter(t *testing.T) {
	svc := newProgramService(
		&mockFetcher{},
		&mockSnapshotRepo{
			get: func(_ context.Context, _ string) (repo.Snapshot, error) {
				return snapshotOf(t, sampleProgram(), time.Now()), nil
			},
		},
	)

	m, err := svc.Matrix(context.Background(), "0", "ai", false)

	require.NoError(t, err)
	assert.Equal(t, []string{"10:00"}, m.Slots, "only the tagged session's start survives")
	require.NotNil(t, m.Cells[0][0].Session)
	assert.Equal(t, "Talk Y", m.Cells[0][0].Session.Title)
}

// ---- Tags ------------------------------------------------------------------

func TestProgramService_TagsFor(t *testing.T) {
	svc := newProgramService(
		&mockFetcher{},
		&mockSnapshotRepo{
			get: func(_ context.Context, _ string) (repo.Snapshot, error) {
				return snapshotOf(t, sampleProgram(), time.Now()), nil
			},
		},
	)

	tags, err := svc.TagsFor(context.Background(), "0")

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"ai": "AI"}, tags, "only tags present in the program")
}
