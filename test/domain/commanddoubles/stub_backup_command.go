//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/snipbackup/internal/domain/commands"
	"github.com/rios0rios0/snipbackup/internal/domain/entities"
)

// StubBackupCommand is a stub implementation of commands.Backup.
type StubBackupCommand struct {
	ExecuteCallCount int
	ExecuteErr       error
	Summary          entities.RunSummary
	LastSettings     *entities.Settings
	LastOpts         commands.BackupOptions
}

var _ commands.Backup = (*StubBackupCommand)(nil)

func (s *StubBackupCommand) Execute(
	_ context.Context,
	settings *entities.Settings,
	opts commands.BackupOptions,
) (entities.RunSummary, error) {
	s.ExecuteCallCount++
	s.LastSettings = settings
	s.LastOpts = opts
	return s.Summary, s.ExecuteErr
}
