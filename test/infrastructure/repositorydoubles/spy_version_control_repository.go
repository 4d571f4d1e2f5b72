//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
	"github.com/rios0rios0/snipbackup/internal/domain/repositories"
)

// SpyVersionControlRepository implements repositories.VersionControlRepository as a configurable spy.
type SpyVersionControlRepository struct {
	// --- Init ---
	InitErr   error
	InitCalls int

	// --- Add / Remove ---
	AddErr  error
	Added   []string
	Removed []string

	// --- Commit ---
	CommitErr error
	Commits   []entities.CommitInput

	// --- Status ---
	StatusLines map[string][]string // path -> lines
	StatusErr   error

	// --- ListTracked ---
	Tracked    map[string][]string // path -> tracked files
	TrackedErr error
}

var _ repositories.VersionControlRepository = (*SpyVersionControlRepository)(nil)

func (s *SpyVersionControlRepository) Name() string { return "spy" }

func (s *SpyVersionControlRepository) Init(_ context.Context) error {
	s.InitCalls++
	return s.InitErr
}

func (s *SpyVersionControlRepository) Add(_ context.Context, path string) error {
	s.Added = append(s.Added, path)
	return s.AddErr
}

func (s *SpyVersionControlRepository) Remove(_ context.Context, path string) error {
	s.Removed = append(s.Removed, path)
	return nil
}

func (s *SpyVersionControlRepository) Commit(_ context.Context, input entities.CommitInput) (string, error) {
	if s.CommitErr != nil {
		return "", s.CommitErr
	}
	s.Commits = append(s.Commits, input)
	return fmt.Sprintf("%040d", len(s.Commits)), nil
}

func (s *SpyVersionControlRepository) Status(_ context.Context, path string) ([]string, error) {
	return s.StatusLines[path], s.StatusErr
}

func (s *SpyVersionControlRepository) ListTracked(_ context.Context, path string) ([]string, error) {
	return s.Tracked[path], s.TrackedErr
}
