package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
	"github.com/rios0rios0/snipbackup/internal/infrastructure/repositories/ledger/migrations"
)

const (
	// MemoryPath opens a ledger that lives only as long as the process.
	MemoryPath = ":memory:"

	timeLayout = time.RFC3339Nano
)

// SQLiteLedgerRepository implements repositories.LedgerRepository on SQLite.
type SQLiteLedgerRepository struct {
	db   *sql.DB
	path string
}

// NewSQLiteLedgerRepository opens the ledger at path and migrates it.
// path can be a file path or ":memory:".
func NewSQLiteLedgerRepository(path string) (*SQLiteLedgerRepository, error) {
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}
	// a pooled in-memory connection would see its own empty database, and the
	// foreign_keys pragma below only holds for the connection it ran on
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if err = migrations.MigrateUp(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Debugf("Run ledger ready at %s", path)
	return &SQLiteLedgerRepository{db: db, path: path}, nil
}

func (r *SQLiteLedgerRepository) StartRun(ctx context.Context, runID, mode string, startedAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO runs (id, mode, started_at) VALUES (?, ?, ?)`,
		runID, mode, startedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("starting run %s: %w", runID, err)
	}
	return nil
}

func (r *SQLiteLedgerRepository) RecordCommit(ctx context.Context, entry entities.LedgerEntry) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO commits (run_id, source_id, revision_id, commit_hash, empty, committed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.RunID, entry.SourceID, entry.RevisionID, entry.CommitHash, entry.Empty,
		entry.CommittedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("recording commit for %s@%s: %w", entry.SourceID, entry.RevisionID, err)
	}
	return nil
}

func (r *SQLiteLedgerRepository) HasCommit(ctx context.Context, sourceID, revisionID string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM commits WHERE source_id = ? AND revision_id = ?`,
		sourceID, revisionID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("looking up %s@%s: %w", sourceID, revisionID, err)
	}
	return count > 0, nil
}

func (r *SQLiteLedgerRepository) FinishRun(
	ctx context.Context,
	summary entities.RunSummary,
	finishedAt time.Time,
) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, sources = ?, revisions = ?, commits = ?, failures = ? WHERE id = ?`,
		finishedAt.UTC().Format(timeLayout), summary.Sources, summary.Revisions, summary.Commits,
		summary.Failures(), summary.RunID,
	)
	if err != nil {
		return fmt.Errorf("finishing run %s: %w", summary.RunID, err)
	}
	return nil
}

func (r *SQLiteLedgerRepository) Close() error {
	return r.db.Close()
}

// NoopLedgerRepository remembers nothing; every revision looks new.
type NoopLedgerRepository struct{}

func (NoopLedgerRepository) StartRun(context.Context, string, string, time.Time) error { return nil }

func (NoopLedgerRepository) RecordCommit(context.Context, entities.LedgerEntry) error { return nil }

func (NoopLedgerRepository) HasCommit(context.Context, string, string) (bool, error) {
	return false, nil
}

func (NoopLedgerRepository) FinishRun(context.Context, entities.RunSummary, time.Time) error {
	return nil
}

func (NoopLedgerRepository) Close() error { return nil }
