package repositories

import (
	"context"
	"errors"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
)

// ErrNotASnippet is returned when an item resolved by id does not report the snippet type.
var ErrNotASnippet = errors.New("item is not a snippet")

// SnippetRepository abstracts the remote snippet host. It is read-only.
// Every method has already retried transient failures when it returns an error;
// callers treat an error as "no data".
type SnippetRepository interface {
	// Name returns the host identifier (e.g. "bitbucket").
	Name() string

	// ListSources lists the snippets of a workspace, optionally filtered by role.
	// On a failure after some pages, the sources read so far are returned with the error.
	ListSources(ctx context.Context, workspace, role string) ([]entities.Source, error)

	// GetSource resolves a single snippet, including its embedded file listing.
	GetSource(ctx context.Context, workspace, id string) (entities.Source, error)

	// ListRevisions returns the revisions of a snippet in the order the remote reports them.
	ListRevisions(ctx context.Context, source entities.Source) ([]entities.Revision, error)

	// GetRevisionFiles returns the file names of a snippet at a revision.
	GetRevisionFiles(ctx context.Context, source entities.Source, revisionID string) ([]string, error)

	// GetFileContent returns the raw bytes of one file at a revision.
	GetFileContent(ctx context.Context, source entities.Source, revisionID, name string) ([]byte, error)
}
