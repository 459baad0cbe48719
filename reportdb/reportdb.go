/*
 * This file is part of Go AXI Perf.
 *
 * Go AXI Perf is free software: you can redistribute it and/or modify it under
 * the terms of the GNU General Public License as published by the Free Software Foundation,
 * either version 2 of the License, or (at your option) any later version.
 * Go AXI Perf is distributed in the hope that it will be useful, but WITHOUT ANY
 * WARRANTY; without even the implied warranty of MERCHANTABILITY or FITNESS FOR A
 * PARTICULAR PURPOSE. See the GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License along
 * with Go AXI Perf. If not, see <https://www.gnu.org/licenses/>.
 */

// Package reportdb keeps a history of test runs in a sqlite database.
package reportdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/network-quality/goaxiperf/job"
)

type DB struct {
	db *sql.DB
}

// Run is a stored test run.
type Run struct {
	ID        int64
	Label     string
	CreatedAt time.Time
	Job       job.TestJob
	Report    job.TestReport
}

// RunSummary is one row of the run list.
type RunSummary struct {
	ID        int64
	Label     string
	CreatedAt time.Time
	Time      uint32
	Completed [2]uint32
}

func (s RunSummary) String() string {
	return fmt.Sprintf("%4d  %s  %-20s time: %d r: %d w: %d",
		s.ID, s.CreatedAt.Format(time.RFC3339), s.Label, s.Time, s.Completed[0], s.Completed[1])
}

// Open opens (and creates if needed) the database at path. Use ":memory:" for
// a throwaway database.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", path, err)
	}
	// A single connection keeps ":memory:" databases alive across calls.
	db.SetMaxOpenConns(1)
	if err := configureDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	return &DB{db: db}, nil
}

func configureDatabase(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %s: %w", pragma, err)
		}
	}
	return nil
}

func initializeSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		label       TEXT NOT NULL,
		created_at  INTEGER NOT NULL,
		time        INTEGER NOT NULL,
		r_completed INTEGER NOT NULL,
		w_completed INTEGER NOT NULL,
		job         TEXT NOT NULL,
		report      TEXT NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// SaveRun stores a run and returns its id.
func (d *DB) SaveRun(ctx context.Context, label string, testJob job.TestJob, report job.TestReport) (int64, error) {
	jobBytes, err := testJob.Marshal()
	if err != nil {
		return 0, err
	}
	reportBytes, err := report.Marshal()
	if err != nil {
		return 0, err
	}
	result, err := d.db.ExecContext(ctx,
		`INSERT INTO runs (label, created_at, time, r_completed, w_completed, job, report)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		label, time.Now().UnixNano(), report.Time,
		report.Channels[0].InputCnt, report.Channels[1].InputCnt,
		string(jobBytes), string(reportBytes))
	if err != nil {
		return 0, fmt.Errorf("could not save run %q: %w", label, err)
	}
	return result.LastInsertId()
}

// Run loads the run with the given id. It returns sql.ErrNoRows (wrapped)
// when there is none.
func (d *DB) Run(ctx context.Context, id int64) (Run, error) {
	var (
		run        Run
		createdAt  int64
		jobText    string
		reportText string
	)
	err := d.db.QueryRowContext(ctx,
		`SELECT id, label, created_at, job, report FROM runs WHERE id = ?`, id).
		Scan(&run.ID, &run.Label, &createdAt, &jobText, &reportText)
	if err != nil {
		return Run{}, fmt.Errorf("could not load run %d: %w", id, err)
	}
	run.CreatedAt = time.Unix(0, createdAt)
	if run.Job, err = job.UnmarshalTestJob([]byte(jobText)); err != nil {
		return Run{}, fmt.Errorf("run %d: %w", id, err)
	}
	if run.Report, err = job.UnmarshalTestReport([]byte(reportText)); err != nil {
		return Run{}, fmt.Errorf("run %d: %w", id, err)
	}
	return run, nil
}

// ListRuns returns the summaries of all stored runs, oldest first.
func (d *DB) ListRuns(ctx context.Context) ([]RunSummary, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT id, label, created_at, time, r_completed, w_completed FROM runs ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("could not list runs: %w", err)
	}
	defer rows.Close()

	summaries := make([]RunSummary, 0)
	for rows.Next() {
		var (
			summary   RunSummary
			createdAt int64
		)
		if err := rows.Scan(&summary.ID, &summary.Label, &createdAt, &summary.Time,
			&summary.Completed[0], &summary.Completed[1]); err != nil {
			return nil, err
		}
		summary.CreatedAt = time.Unix(0, createdAt)
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

func (d *DB) Close() error {
	return d.db.Close()
}
