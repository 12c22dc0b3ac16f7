package persistence

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/botconversa/contactsheet/internal/jobs"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// SQLiteRegistry is the durable job registry backend. Every Put refreshes
// the entry's expiry to now+ttl, the way the original Redis store did
// with SETEX; expired entries are invisible to Get and physically removed
// by PurgeExpired.
type SQLiteRegistry struct {
	db  *sql.DB
	ttl time.Duration
}

func NewSQLiteRegistry(path string, ttl time.Duration) (*SQLiteRegistry, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("db path is required")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("ttl must be positive")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	reg := &SQLiteRegistry{db: db, ttl: ttl}
	if err := reg.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return reg, nil
}

func (r *SQLiteRegistry) Name() string { return "sqlite" }

func (r *SQLiteRegistry) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *SQLiteRegistry) init(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, "PRAGMA journal_mode = WAL;"); err != nil {
		return fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, "PRAGMA busy_timeout = 5000;"); err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	entries, err := migrationFiles.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		version := migrationVersion(entry.Name())
		if version <= 0 {
			continue
		}
		var exists int
		if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM schema_migrations WHERE version = ?`, version).Scan(&exists); err != nil {
			return fmt.Errorf("check migration %s: %w", entry.Name(), err)
		}
		if exists > 0 {
			continue
		}
		content, err := migrationFiles.ReadFile(filepath.Join("migrations", entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		if _, err := r.db.ExecContext(ctx, string(content)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
		if _, err := r.db.ExecContext(ctx, `INSERT INTO schema_migrations (version) VALUES (?)`, version); err != nil {
			return fmt.Errorf("record migration %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// migrationVersion extracts the leading integer from a migration filename
// (e.g. "001_init.sql" → 1).
func migrationVersion(name string) int {
	for i, c := range name {
		if c < '0' || c > '9' {
			if i == 0 {
				return 0
			}
			n, _ := strconv.Atoi(name[:i])
			return n
		}
	}
	n, _ := strconv.Atoi(name)
	return n
}

func (r *SQLiteRegistry) Get(ctx context.Context, id string) (*jobs.Job, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, status, progress, original_name, output_path, output_name, error, result_json, created_at, updated_at
		 FROM jobs
		 WHERE id = ? AND expires_at > ?`,
		id,
		time.Now().UTC(),
	)

	var item jobs.Job
	var status string
	var resultJSON sql.NullString
	err := row.Scan(
		&item.ID,
		&status,
		&item.Progress,
		&item.OriginalName,
		&item.OutputPath,
		&item.OutputName,
		&item.Error,
		&resultJSON,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	item.Status = jobs.Status(status)
	if resultJSON.Valid && resultJSON.String != "" {
		var metrics jobs.Metrics
		if err := json.Unmarshal([]byte(resultJSON.String), &metrics); err != nil {
			return nil, fmt.Errorf("decode result for job %s: %w", id, err)
		}
		item.Result = &metrics
	}
	return &item, nil
}

func (r *SQLiteRegistry) Put(ctx context.Context, job *jobs.Job) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("job id is required")
	}

	var resultJSON any
	if job.Result != nil {
		b, err := json.Marshal(job.Result)
		if err != nil {
			return fmt.Errorf("encode result for job %s: %w", job.ID, err)
		}
		resultJSON = string(b)
	}

	now := time.Now().UTC()
	createdAt := job.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO jobs (
			id, status, progress, original_name, output_path, output_name, error, result_json, created_at, updated_at, expires_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status=excluded.status,
			progress=excluded.progress,
			original_name=excluded.original_name,
			output_path=excluded.output_path,
			output_name=excluded.output_name,
			error=excluded.error,
			result_json=excluded.result_json,
			updated_at=excluded.updated_at,
			expires_at=excluded.expires_at`,
		job.ID,
		string(job.Status),
		job.Progress,
		job.OriginalName,
		job.OutputPath,
		job.OutputName,
		job.Error,
		resultJSON,
		createdAt,
		now,
		now.Add(r.ttl),
	)
	return err
}

func (r *SQLiteRegistry) UpdateProgress(ctx context.Context, id string, progress int) error {
	job, err := r.Get(ctx, id)
	if err != nil || job == nil {
		return err
	}
	job.Progress = progress
	return r.Put(ctx, job)
}

// PurgeExpired deletes entries whose TTL has elapsed and returns how many
// were removed. Reads already filter on expires_at, so this only reclaims
// space; it is scheduled from main rather than run inline.
func (r *SQLiteRegistry) PurgeExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM jobs WHERE expires_at <= ?`, time.Now().UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
