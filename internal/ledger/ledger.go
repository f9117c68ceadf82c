// Package ledger records which put.io files have been downloaded, so a
// repeated bulk download skips them. It is a SQLite database with one row
// per run and one row per completed file.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	// Pure-Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"

	"github.com/tonimelisma/putiodown/internal/walk"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCanceled  = "canceled"
)

const (
	sqlInsertRun = `INSERT INTO runs (id, root_id, started_at, status) VALUES (?, ?, ?, ?)`

	sqlFinishRun = `UPDATE runs SET finished_at = ?, status = ? WHERE id = ?`

	sqlHasDownload = `SELECT 1 FROM downloads WHERE file_id = ?`

	sqlUpsertDownload = `INSERT INTO downloads
		(file_id, name, path, size, crc32, run_id, downloaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id) DO UPDATE SET
		 name = excluded.name,
		 path = excluded.path,
		 size = excluded.size,
		 crc32 = excluded.crc32,
		 run_id = excluded.run_id,
		 downloaded_at = excluded.downloaded_at`

	sqlCountDownloads = `SELECT COUNT(*) FROM downloads`

	sqlRunDownloads = `SELECT COUNT(*) FROM downloads WHERE run_id = ?`
)

// Ledger is safe for concurrent use; database/sql serializes access to the
// single connection.
type Ledger struct {
	db      *sql.DB
	logger  *slog.Logger
	nowFunc func() time.Time // injectable for deterministic tests
}

// Open opens (creating if needed) the ledger database at dbPath and applies
// migrations.
func Open(ctx context.Context, dbPath string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"+
			"&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)",
		dbPath,
	)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("ledger: opening database %s: %w", dbPath, err)
	}

	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("ledger opened", slog.String("db_path", dbPath))

	return &Ledger{db: db, logger: logger, nowFunc: time.Now}, nil
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// BeginRun records the start of a download run and returns its id.
func (l *Ledger) BeginRun(ctx context.Context, rootID walk.FolderID) (string, error) {
	id := uuid.New().String()

	if _, err := l.db.ExecContext(ctx, sqlInsertRun, id, int64(rootID), l.nowFunc().Unix(), StatusRunning); err != nil {
		return "", fmt.Errorf("ledger: starting run: %w", err)
	}

	l.logger.Info("run started", slog.String("run_id", id), slog.Int64("root_id", int64(rootID)))

	return id, nil
}

// FinishRun stamps a run with its final status.
func (l *Ledger) FinishRun(ctx context.Context, runID, status string) error {
	res, err := l.db.ExecContext(ctx, sqlFinishRun, l.nowFunc().Unix(), status, runID)
	if err != nil {
		return fmt.Errorf("ledger: finishing run %s: %w", runID, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("ledger: finishing run %s: no such run", runID)
	}

	l.logger.Info("run finished", slog.String("run_id", runID), slog.String("status", status))

	return nil
}

// Has reports whether fileID was downloaded by any earlier run.
func (l *Ledger) Has(ctx context.Context, fileID walk.FileID) (bool, error) {
	var one int

	err := l.db.QueryRowContext(ctx, sqlHasDownload, int64(fileID)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("ledger: looking up file %d: %w", fileID, err)
	}

	return true, nil
}

// Record marks rec as downloaded by runID.
func (l *Ledger) Record(ctx context.Context, runID string, rec walk.Record) error {
	_, err := l.db.ExecContext(ctx, sqlUpsertDownload,
		int64(rec.ID), rec.Name, rec.Path, rec.Size, rec.CRC32, runID, l.nowFunc().Unix())
	if err != nil {
		return fmt.Errorf("ledger: recording file %d: %w", rec.ID, err)
	}

	return nil
}

// Count returns the number of recorded files, across runs when runID is
// empty.
func (l *Ledger) Count(ctx context.Context, runID string) (int, error) {
	var (
		n   int
		err error
	)

	if runID == "" {
		err = l.db.QueryRowContext(ctx, sqlCountDownloads).Scan(&n)
	} else {
		err = l.db.QueryRowContext(ctx, sqlRunDownloads, runID).Scan(&n)
	}

	if err != nil {
		return 0, fmt.Errorf("ledger: counting downloads: %w", err)
	}

	return n, nil
}
