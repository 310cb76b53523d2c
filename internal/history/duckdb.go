package history

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/rs/zerolog"

	"llmbench/internal/model"
)

//go:embed schema.sql
var schemaDDL string

// NewDuckDBStore returns a Store backed by a DuckDB database file. The
// database is opened on first use.
func NewDuckDBStore(path string, logger zerolog.Logger) *Store {
	return newStore(&duckFile{path: path}, logger)
}

type duckFile struct {
	path string
	mu   sync.Mutex
	db   *sql.DB
}

func (d *duckFile) kind() string     { return BackendDuckDB }
func (d *duckFile) location() string { return d.path }

func (d *duckFile) open(ctx context.Context, create bool) (*sql.DB, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db != nil {
		return d.db, nil
	}
	if d.path != ":memory:" {
		if _, err := os.Stat(d.path); err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
			if !create {
				return nil, errNotFound
			}
			if err := os.MkdirAll(filepath.Dir(d.path), 0o755); err != nil {
				return nil, err
			}
		}
	}
	db, err := sql.Open("duckdb", d.path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	d.db = db
	return db, nil
}

func (d *duckFile) read(ctx context.Context) ([]model.RunRecord, error) {
	db, err := d.open(ctx, false)
	if err != nil {
		return nil, err
	}
	rows, err := db.QueryContext(ctx, "SELECT run_id, record FROM runs ORDER BY seq DESC")
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []model.RunRecord
	for rows.Next() {
		var id, payload string
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		var run model.RunRecord
		if err := json.Unmarshal([]byte(payload), &run); err != nil {
			return nil, fmt.Errorf("decode run %s: %w", id, err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

func (d *duckFile) persist(ctx context.Context, run model.RunRecord, _ []model.RunRecord) (err error) {
	db, err := d.open(ctx, true)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			err = errors.Join(err, tx.Rollback())
		}
	}()
	if _, err = tx.ExecContext(ctx,
		"INSERT INTO runs (run_id, model, avg_score, record) VALUES (?, ?, ?, ?)",
		run.ID, run.Model, run.AvgScore, string(payload),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (d *duckFile) close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.db == nil {
		return nil
	}
	err := d.db.Close()
	d.db = nil
	return err
}
