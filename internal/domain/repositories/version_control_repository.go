package repositories

import (
	"context"
	"errors"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
)

// ErrNothingToCommit is returned by Commit when the index is clean and empty
// commits are not allowed. Callers treat it as benign.
var ErrNothingToCommit = errors.New("nothing to commit")

// VersionControlRepository is the narrow version-control surface the backup
// needs. Paths are slash-separated and relative to the repository root.
type VersionControlRepository interface {
	// Name returns the backend identifier (e.g. "git", "go-git").
	Name() string

	// Init creates the repository if it does not exist yet.
	Init(ctx context.Context) error

	// Add stages a file or a directory (recursively), including deletions.
	Add(ctx context.Context, path string) error

	// Remove deletes a tracked file from the index and the working tree.
	Remove(ctx context.Context, path string) error

	// Commit records the staged changes and returns the new commit hash.
	Commit(ctx context.Context, input entities.CommitInput) (string, error)

	// Status returns one porcelain-style line per changed path under path.
	Status(ctx context.Context, path string) ([]string, error)

	// ListTracked returns the tracked files under path.
	ListTracked(ctx context.Context, path string) ([]string, error)
}
