package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/showtime-inventory-bench/internal/model"
)

// RunRepo persists generation telemetry in the benchmark_runs table. Only
// parameters, counts and timings are stored; generated datasets never leave
// process memory. A RunRepo built with a nil DB is disabled: Record is a
// no-op and Recent returns ErrRunsDisabled.
type RunRepo struct {
	db *sql.DB // db is the underlying MySQL connection pool, may be nil
}

// NewRunRepo constructs a RunRepo with the provided DB handle.
func NewRunRepo(db *sql.DB) *RunRepo {
	return &RunRepo{db: db}
}

// Enabled reports whether a database is attached.
func (r *RunRepo) Enabled() bool { return r != nil && r.db != nil }

const createRunsTable = `CREATE TABLE IF NOT EXISTS benchmark_runs (
	id          BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
	dataset_id  VARCHAR(128) NOT NULL DEFAULT '',
	mode        VARCHAR(16)  NOT NULL,
	params_json JSON         NOT NULL,
	items       INT UNSIGNED NOT NULL,
	days        INT UNSIGNED NOT NULL,
	generate_ms BIGINT       NOT NULL,
	reduce_ms   BIGINT       NOT NULL,
	index_ms    BIGINT       NOT NULL,
	total_ms    BIGINT       NOT NULL,
	created_at  DATETIME     NOT NULL DEFAULT CURRENT_TIMESTAMP,
	KEY idx_benchmark_runs_created (created_at)
)`

// EnsureSchema creates the benchmark_runs table when it does not exist.
func (r *RunRepo) EnsureSchema(ctx context.Context) error {
	if !r.Enabled() {
		return nil
	}
	_, err := r.db.ExecContext(ctx, createRunsTable)
	return err
}

// Record inserts one run and fills run.ID on success.
func (r *RunRepo) Record(ctx context.Context, run *model.Run) error {
	if !r.Enabled() {
		return nil
	}
	const q = `INSERT INTO benchmark_runs
		(dataset_id, mode, params_json, items, days, generate_ms, reduce_ms, index_ms, total_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.ExecContext(ctx, q,
		run.DatasetID, run.Mode, run.ParamsJSON, run.Items, run.Days,
		run.Timings.GenerateMs, run.Timings.ReduceMs, run.Timings.IndexMs, run.Timings.TotalMs,
		run.CreatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	run.ID = uint64(id)
	return nil
}

// Recent returns the latest runs, newest first. limit is clamped to [1,200].
func (r *RunRepo) Recent(ctx context.Context, limit int) ([]model.Run, error) {
	if !r.Enabled() {
		return nil, ErrRunsDisabled
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 200 {
		limit = 200
	}
	const q = `SELECT id, dataset_id, mode, params_json, items, days,
			generate_ms, reduce_ms, index_ms, total_ms, created_at
		FROM benchmark_runs ORDER BY id DESC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Run, 0, limit)
	for rows.Next() {
		var run model.Run
		if err := rows.Scan(
			&run.ID,
			&run.DatasetID,
			&run.Mode,
			&run.ParamsJSON,
			&run.Items,
			&run.Days,
			&run.Timings.GenerateMs,
			&run.Timings.ReduceMs,
			&run.Timings.IndexMs,
			&run.Timings.TotalMs,
			&run.CreatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
