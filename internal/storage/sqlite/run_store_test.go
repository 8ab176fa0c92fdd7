package sqlite

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/banshee-data/arbor/internal/monitoring"
	"github.com/banshee-data/arbor/internal/skeleton"
	"github.com/banshee-data/arbor/internal/testutil"
	"github.com/banshee-data/arbor/internal/timeutil"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	monitoring.SetLogger(t.Logf)
	t.Cleanup(func() { monitoring.SetLogger(nil) })

	db, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestStore(t *testing.T) (*RunStore, *timeutil.MockClock) {
	t.Helper()
	db := openTestDB(t)
	clock := timeutil.NewMockClock(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	clock.SetStep(time.Second)
	return NewRunStore(db.DB, clock), clock
}

func TestOpen_AppliesPragmasAndSchema(t *testing.T) {
	db := openTestDB(t)

	var journalMode string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var foreignKeys int
	require.NoError(t, db.QueryRow("PRAGMA foreign_keys").Scan(&foreignKeys))
	assert.Equal(t, 1, foreignKeys)

	version, dirty, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
	assert.False(t, dirty)

	for _, table := range []string{"growth_runs", "growth_branches"} {
		var n int
		require.NoError(t, db.QueryRow(
			`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&n))
		assert.Equal(t, 1, n, table)
	}
}

func TestMigrateDownAndUp(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.MigrateDown())
	version, _, err := db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)

	require.NoError(t, db.MigrateUp())
	version, _, err = db.MigrateVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(2), version)
}

func TestRunStore_InsertAndGet(t *testing.T) {
	store, _ := newTestStore(t)

	run := &Run{
		Seed:            1<<63 + 5,
		Params:          json.RawMessage(`{"branch_length":0.2}`),
		InputPoints:     100,
		RemainingPoints: 3,
		Iterations:      42,
		StopReason:      string(skeleton.StopIterationCap),
		BranchCount:     60,
		LeafCount:       12,
		MaxDepth:        9,
		TotalLength:     12.0,
		RootRadius:      0.07,
		Duration:        1500 * time.Millisecond,
	}
	require.NoError(t, store.Insert(run))
	require.NotEmpty(t, run.RunID)
	assert.Equal(t, time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC), run.CreatedAt)

	got, err := store.Get(run.RunID)
	require.NoError(t, err)
	if diff := cmp.Diff(run, got); diff != "" {
		t.Errorf("stored run mismatch (-want +got):\n%s", diff)
	}
}

func TestRunStore_GetMissing(t *testing.T) {
	store, _ := newTestStore(t)
	_, err := store.Get("does-not-exist")
	assert.True(t, errors.Is(err, ErrRunNotFound), "got %v", err)
}

func TestRunStore_ListNewestFirst(t *testing.T) {
	store, _ := newTestStore(t)

	var ids []string
	for i := 0; i < 3; i++ {
		run := &Run{StopReason: string(skeleton.StopExhausted), Iterations: i}
		require.NoError(t, store.Insert(run))
		ids = append(ids, run.RunID)
	}

	runs, err := store.List(0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{runs[0].RunID, runs[1].RunID, runs[2].RunID})

	limited, err := store.List(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRunStore_BranchesRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	res, _ := testutil.GrowSphereTree(t, 150, 21)

	run, err := NewRun(res, 21, 150, map[string]float64{"branch_length": 0.2})
	require.NoError(t, err)
	require.NoError(t, store.Insert(run))
	require.NoError(t, store.InsertBranches(run.RunID, res.Graph))

	records, err := store.Branches(run.RunID)
	require.NoError(t, err)
	require.Len(t, records, res.Graph.Len())
	assert.Equal(t, -1, records[0].Parent)

	g, err := store.LoadGraph(run.RunID)
	require.NoError(t, err)
	want := res.Graph.Clone()
	want.Frontier = want.Leaves()
	if diff := cmp.Diff(want, g, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("reloaded graph mismatch (-want +got):\n%s", diff)
	}

	// Re-inserting replaces rather than duplicates.
	require.NoError(t, store.InsertBranches(run.RunID, res.Graph))
	records, err = store.Branches(run.RunID)
	require.NoError(t, err)
	assert.Len(t, records, res.Graph.Len())
}

func TestRunStore_DeleteCascades(t *testing.T) {
	store, _ := newTestStore(t)
	g := testutil.ForkGraph()

	run := &Run{StopReason: string(skeleton.StopExhausted)}
	require.NoError(t, store.Insert(run))
	require.NoError(t, store.InsertBranches(run.RunID, g))

	require.NoError(t, store.Delete(run.RunID))
	records, err := store.Branches(run.RunID)
	require.NoError(t, err)
	assert.Empty(t, records)

	err = store.Delete(run.RunID)
	assert.True(t, errors.Is(err, ErrRunNotFound), "got %v", err)

	_, err = store.LoadGraph(run.RunID)
	assert.True(t, errors.Is(err, ErrRunNotFound), "got %v", err)
}

func TestNewRun(t *testing.T) {
	res, _ := testutil.GrowSphereTree(t, 80, 5)

	run, err := NewRun(res, 5, 80, nil)
	require.NoError(t, err)
	st := skeleton.Summarize(res.Graph)
	assert.Equal(t, st.Branches, run.BranchCount)
	assert.Equal(t, st.Leaves, run.LeafCount)
	assert.Equal(t, string(res.Reason), run.StopReason)
	assert.Equal(t, len(res.Remaining), run.RemainingPoints)
	assert.Nil(t, run.Params)
}

func TestRunStore_LoadGraphWithoutBranches(t *testing.T) {
	store, _ := newTestStore(t)
	run := &Run{StopReason: string(skeleton.StopExhausted)}
	require.NoError(t, store.Insert(run))

	_, err := store.LoadGraph(run.RunID)
	assert.True(t, errors.Is(err, ErrNoBranches), "got %v", err)
}
