//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"time"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
	"github.com/rios0rios0/snipbackup/internal/domain/repositories"
)

// StubLedgerRepository implements repositories.LedgerRepository in memory.
type StubLedgerRepository struct {
	Entries   []entities.LedgerEntry
	Recorded  map[string]bool // "source@revision" -> committed
	Started   []string
	Finished  []entities.RunSummary
	RecordErr error
	Closed    bool
}

var _ repositories.LedgerRepository = (*StubLedgerRepository)(nil)

func (s *StubLedgerRepository) StartRun(_ context.Context, runID, _ string, _ time.Time) error {
	s.Started = append(s.Started, runID)
	return nil
}

func (s *StubLedgerRepository) RecordCommit(_ context.Context, entry entities.LedgerEntry) error {
	if s.RecordErr != nil {
		return s.RecordErr
	}
	if s.Recorded == nil {
		s.Recorded = make(map[string]bool)
	}
	s.Entries = append(s.Entries, entry)
	s.Recorded[entry.SourceID+"@"+entry.RevisionID] = true
	return nil
}

func (s *StubLedgerRepository) HasCommit(_ context.Context, sourceID, revisionID string) (bool, error) {
	return s.Recorded[sourceID+"@"+revisionID], nil
}

func (s *StubLedgerRepository) FinishRun(_ context.Context, summary entities.RunSummary, _ time.Time) error {
	s.Finished = append(s.Finished, summary)
	return nil
}

func (s *StubLedgerRepository) Close() error {
	s.Closed = true
	return nil
}
