package repositories

import (
	"context"
	"time"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
)

// LedgerRepository persists what each run committed so reruns can stay quiet.
type LedgerRepository interface {
	StartRun(ctx context.Context, runID, mode string, startedAt time.Time) error
	RecordCommit(ctx context.Context, entry entities.LedgerEntry) error
	HasCommit(ctx context.Context, sourceID, revisionID string) (bool, error)
	FinishRun(ctx context.Context, summary entities.RunSummary, finishedAt time.Time) error
	Close() error
}
