// Package store keeps a history of fit runs in SQLite so results can be
// listed and compared later.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nanalysis/nmrfx-sub023/internal/monitoring"
	"github.com/nanalysis/nmrfx-sub023/internal/report"
	"github.com/nanalysis/nmrfx-sub023/internal/timeutil"
)

var logf = monitoring.Prefixed("store")

// ErrRunNotFound is returned when no run has the requested id.
var ErrRunNotFound = errors.New("fit run not found")

// Store persists fit runs.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens (creating if needed) the database at path and applies pending
// migrations. A nil clock selects timeutil.RealClock.
func Open(path string, clock timeutil.Clock) (*Store, error) {
	s, err := OpenForMigration(path, clock)
	if err != nil {
		return nil, err
	}
	if err := s.MigrateUp(); err != nil {
		s.db.Close()
		return nil, err
	}
	return s, nil
}

// OpenForMigration opens the database without touching its schema, for
// callers that drive migrations themselves.
func OpenForMigration(path string, clock timeutil.Clock) (*Store, error) {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection keeps per-connection pragmas in force and serialises
	// writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}
	return &Store{db: db, clock: clock}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunSummary is the queryable part of a stored run. Statistics that were
// undefined for the fit are NaN.
type RunSummary struct {
	ID          string
	Label       string
	CreatedAt   time.Time
	N           int
	Attempts    int
	Rank        int
	Axial       float64
	Rhombicity  float64
	QRMS        float64
	QRhombicity float64
}

// Run is a stored run together with its full report.
type Run struct {
	RunSummary
	Report *report.Report
}

// InsertRun stores r under a new run id, which is also written into
// r.RunID and returned.
func (s *Store) InsertRun(ctx context.Context, r *report.Report) (string, error) {
	id := uuid.New().String()
	r.RunID = id
	created := s.clock.Now()

	blob, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	m := r.OrderMatrix
	q := r.Quality
	_, err = tx.ExecContext(ctx, `
		INSERT INTO fit_runs (
			run_id, label, created_at, n_obs, attempts, design_rank, scale,
			syy, szz, sxy, sxz, syz,
			axial, rhombicity, magnitude, alpha, beta, gamma,
			rms, q_rms, q_rhombicity, chi_squared, r_squared, report_json
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, r.Label, created.UnixNano(), q.N, r.Attempts, r.Rank, float64(r.Scale),
		float64(m.Syy), float64(m.Szz), float64(m.Sxy), float64(m.Sxz), float64(m.Syz),
		nullFloat(r.Axial), nullFloat(r.Rhombicity), nullFloat(r.Magnitude),
		nullFloat(r.Euler.Positive.Alpha), nullFloat(r.Euler.Positive.Beta), nullFloat(r.Euler.Positive.Gamma),
		nullFloat(q.RMS), nullFloat(q.QRMS), nullFloat(q.QRhombicity), nullFloat(q.ChiSquared), nullFloat(q.RSquared),
		string(blob),
	)
	if err != nil {
		return "", fmt.Errorf("insert fit run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO fit_observations (run_id, row_idx, label, x, y, z, exp_rdc, err, max_rdc, calc_rdc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()
	for i, row := range r.Rows {
		if _, err := stmt.ExecContext(ctx, id, i, row.Label,
			float64(row.X), float64(row.Y), float64(row.Z),
			nullFloat(row.Exp), nullFloat(row.Err), nullFloat(row.Max), nullFloat(row.Calc),
		); err != nil {
			return "", fmt.Errorf("insert observation %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	logf("saved run %s (%d observations)", id, len(r.Rows))
	return id, nil
}

const summaryColumns = `run_id, label, created_at, n_obs, attempts, design_rank, axial, rhombicity, q_rms, q_rhombicity`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(sc rowScanner, extra ...any) (RunSummary, error) {
	var (
		s                       RunSummary
		created                 int64
		axial, rh, qrms, qrhomb sql.NullFloat64
	)
	dest := append([]any{&s.ID, &s.Label, &created, &s.N, &s.Attempts, &s.Rank, &axial, &rh, &qrms, &qrhomb}, extra...)
	if err := sc.Scan(dest...); err != nil {
		return RunSummary{}, err
	}
	s.CreatedAt = time.Unix(0, created).UTC()
	s.Axial = fromNull(axial)
	s.Rhombicity = fromNull(rh)
	s.QRMS = fromNull(qrms)
	s.QRhombicity = fromNull(qrhomb)
	return s, nil
}

// GetRun loads a run and its report.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	var blob string
	row := s.db.QueryRowContext(ctx, `SELECT `+summaryColumns+`, report_json FROM fit_runs WHERE run_id = ?`, id)
	sum, err := scanSummary(row, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	var r report.Report
	if err := json.Unmarshal([]byte(blob), &r); err != nil {
		return nil, fmt.Errorf("decode report for run %s: %w", id, err)
	}
	return &Run{RunSummary: sum, Report: &r}, nil
}

// ListRuns returns the most recent runs first. An empty label matches every
// run; limit <= 0 means no limit.
func (s *Store) ListRuns(ctx context.Context, label string, limit int) ([]RunSummary, error) {
	query := `SELECT ` + summaryColumns + ` FROM fit_runs`
	var args []any
	if label != "" {
		query += ` WHERE label = ?`
		args = append(args, label)
	}
	query += ` ORDER BY created_at DESC, run_id`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Observations returns the stored rows of a run in input order.
func (s *Store) Observations(ctx context.Context, id string) ([]report.Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT label, x, y, z, exp_rdc, err, max_rdc, calc_rdc
		FROM fit_observations WHERE run_id = ? ORDER BY row_idx`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []report.Row
	for rows.Next() {
		var (
			r                    report.Row
			x, y, z              float64
			exp, errv, maxv, calc sql.NullFloat64
		)
		if err := rows.Scan(&r.Label, &x, &y, &z, &exp, &errv, &maxv, &calc); err != nil {
			return nil, err
		}
		r.X, r.Y, r.Z = report.Float(x), report.Float(y), report.Float(z)
		r.Exp = report.Float(fromNull(exp))
		r.Err = report.Float(fromNull(errv))
		r.Max = report.Float(fromNull(maxv))
		r.Calc = report.Float(fromNull(calc))
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and its observations.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM fit_runs WHERE run_id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

func nullFloat(f report.Float) sql.NullFloat64 {
	if !f.Valid() {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: float64(f), Valid: true}
}

func fromNull(n sql.NullFloat64) float64 {
	if !n.Valid {
		return math.NaN()
	}
	return n.Float64
}
