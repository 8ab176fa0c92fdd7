package sqlite

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/banshee-data/arbor/internal/skeleton"
	"github.com/banshee-data/arbor/internal/timeutil"
	"github.com/google/uuid"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrRunNotFound is returned when a run ID has no row.
	ErrRunNotFound = errors.New("growth run not found")
	// ErrNoBranches is returned when a run exists but its skeleton was not
	// stored.
	ErrNoBranches = errors.New("growth run has no stored branches")
)

// Run is the persisted summary of one growth run.
type Run struct {
	RunID           string          `json:"run_id"`
	CreatedAt       time.Time       `json:"created_at"`
	Seed            uint64          `json:"seed"`
	Params          json.RawMessage `json:"params,omitempty"`
	InputPoints     int             `json:"input_points"`
	RemainingPoints int             `json:"remaining_points"`
	Iterations      int             `json:"iterations"`
	StopReason      string          `json:"stop_reason"`
	BranchCount     int             `json:"branch_count"`
	LeafCount       int             `json:"leaf_count"`
	MaxDepth        int             `json:"max_depth"`
	TotalLength     float64         `json:"total_length"`
	RootRadius      float64         `json:"root_radius"`
	Duration        time.Duration   `json:"duration_ns"`
}

// NewRun summarises a growth result. params is stored as JSON and may be nil.
func NewRun(res *skeleton.Result, seed uint64, inputPoints int, params interface{}) (*Run, error) {
	var raw json.RawMessage
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encode run params: %w", err)
		}
		raw = b
	}
	st := skeleton.Summarize(res.Graph)
	return &Run{
		Seed:            seed,
		Params:          raw,
		InputPoints:     inputPoints,
		RemainingPoints: len(res.Remaining),
		Iterations:      res.Iterations,
		StopReason:      string(res.Reason),
		BranchCount:     st.Branches,
		LeafCount:       st.Leaves,
		MaxDepth:        st.MaxDepth,
		TotalLength:     st.TotalLength,
		RootRadius:      st.RootRadius,
		Duration:        res.Elapsed,
	}, nil
}

// BranchRecord is one persisted branch of a run.
type BranchRecord struct {
	Index  int        `json:"index"`
	Parent int        `json:"parent"`
	Start  [3]float64 `json:"start"`
	End    [3]float64 `json:"end"`
	Radius float64    `json:"radius"`
}

// RunStore provides persistence for growth runs.
type RunStore struct {
	db    *sql.DB
	clock timeutil.Clock
}

// NewRunStore creates a RunStore. A nil clock uses the wall clock.
func NewRunStore(db *sql.DB, clock timeutil.Clock) *RunStore {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &RunStore{db: db, clock: clock}
}

// Insert persists run. An empty RunID gets a new UUID and a zero CreatedAt
// is stamped from the store clock.
func (s *RunStore) Insert(run *Run) error {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = s.clock.Now()
	}

	var params interface{}
	if len(run.Params) > 0 {
		params = string(run.Params)
	}

	err := retryOnBusy(func() error {
		_, err := s.db.Exec(`
			INSERT INTO growth_runs (
				run_id, created_at, seed, params_json, input_points, remaining_points,
				iterations, stop_reason, branch_count, leaf_count, max_depth,
				total_length, root_radius, duration_ns
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, run.CreatedAt.UnixNano(), int64(run.Seed), params,
			run.InputPoints, run.RemainingPoints, run.Iterations, run.StopReason,
			run.BranchCount, run.LeafCount, run.MaxDepth,
			run.TotalLength, run.RootRadius, int64(run.Duration),
		)
		return err
	})
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", run.RunID, err)
	}
	return nil
}

const runColumns = `run_id, created_at, seed, params_json, input_points, remaining_points,
	iterations, stop_reason, branch_count, leaf_count, max_depth,
	total_length, root_radius, duration_ns`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row rowScanner) (*Run, error) {
	var r Run
	var createdAt, seed, duration int64
	var params sql.NullString
	err := row.Scan(
		&r.RunID, &createdAt, &seed, &params, &r.InputPoints, &r.RemainingPoints,
		&r.Iterations, &r.StopReason, &r.BranchCount, &r.LeafCount, &r.MaxDepth,
		&r.TotalLength, &r.RootRadius, &duration,
	)
	if err != nil {
		return nil, err
	}
	r.CreatedAt = time.Unix(0, createdAt).UTC()
	r.Seed = uint64(seed)
	r.Duration = time.Duration(duration)
	if params.Valid {
		r.Params = json.RawMessage(params.String)
	}
	return &r, nil
}

// Get returns a single run by ID.
func (s *RunStore) Get(runID string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM growth_runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	return r, nil
}

// List returns the most recent runs first. A non-positive limit returns all.
func (s *RunStore) List(limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`SELECT `+runColumns+` FROM growth_runs
		ORDER BY created_at DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Delete removes a run and its branches.
func (s *RunStore) Delete(runID string) error {
	return retryOnBusy(func() error {
		result, err := s.db.Exec(`DELETE FROM growth_runs WHERE run_id = ?`, runID)
		if err != nil {
			return fmt.Errorf("delete run %s: %w", runID, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil
	})
}

// InsertBranches stores every branch of g under runID in one transaction,
// replacing any branches already stored for the run.
func (s *RunStore) InsertBranches(runID string, g *skeleton.Graph) error {
	return retryOnBusy(func() error {
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin branch insert: %w", err)
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`DELETE FROM growth_branches WHERE run_id = ?`, runID); err != nil {
			return fmt.Errorf("clear branches for %s: %w", runID, err)
		}
		stmt, err := tx.Prepare(`
			INSERT INTO growth_branches (
				run_id, branch_index, parent_index,
				start_x, start_y, start_z, end_x, end_y, end_z, radius
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare branch insert: %w", err)
		}
		defer stmt.Close()

		for i := range g.Branches {
			b := &g.Branches[i]
			if _, err := stmt.Exec(runID, i, b.Parent,
				b.Start.X, b.Start.Y, b.Start.Z, b.End.X, b.End.Y, b.End.Z, b.Radius); err != nil {
				return fmt.Errorf("insert branch %d of %s: %w", i, runID, err)
			}
		}
		return tx.Commit()
	})
}

// Branches returns the stored branches of a run in index order.
func (s *RunStore) Branches(runID string) ([]BranchRecord, error) {
	rows, err := s.db.Query(`
		SELECT branch_index, parent_index, start_x, start_y, start_z, end_x, end_y, end_z, radius
		FROM growth_branches
		WHERE run_id = ?
		ORDER BY branch_index`, runID)
	if err != nil {
		return nil, fmt.Errorf("query branches: %w", err)
	}
	defer rows.Close()

	var out []BranchRecord
	for rows.Next() {
		var b BranchRecord
		if err := rows.Scan(&b.Index, &b.Parent,
			&b.Start[0], &b.Start[1], &b.Start[2], &b.End[0], &b.End[1], &b.End[2], &b.Radius); err != nil {
			return nil, fmt.Errorf("scan branch: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// LoadGraph rebuilds the skeleton of a run. The frontier is recomputed from
// the leaves.
func (s *RunStore) LoadGraph(runID string) (*skeleton.Graph, error) {
	records, err := s.Branches(runID)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		if _, err := s.Get(runID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrNoBranches, runID)
	}

	g := &skeleton.Graph{Branches: make([]skeleton.Branch, len(records))}
	for i, rec := range records {
		if rec.Index != i {
			return nil, fmt.Errorf("%w: run %s is missing branch %d", skeleton.ErrInvalidGraph, runID, i)
		}
		g.Branches[i] = skeleton.Branch{
			Start:  r3.Vec{X: rec.Start[0], Y: rec.Start[1], Z: rec.Start[2]},
			End:    r3.Vec{X: rec.End[0], Y: rec.End[1], Z: rec.End[2]},
			Parent: rec.Parent,
			Radius: rec.Radius,
		}
		if rec.Parent >= 0 && rec.Parent < len(records) {
			g.Branches[rec.Parent].Children = append(g.Branches[rec.Parent].Children, i)
		}
	}
	g.Frontier = g.Leaves()
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("stored run %s: %w", runID, err)
	}
	return g, nil
}
