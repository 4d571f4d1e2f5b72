package bitbucket

import (
	"context"
	"errors"
	"fmt"
	"sort"

	bb "github.com/rios0rios0/snipbackup/internal/bitbucket"
	"github.com/rios0rios0/snipbackup/internal/domain/entities"
	"github.com/rios0rios0/snipbackup/internal/domain/repositories"
)

// ProviderName is the registry key of the Bitbucket Cloud snippet host.
const ProviderName = "bitbucket"

// SnippetRepository implements repositories.SnippetRepository on the Bitbucket Cloud 2.0 API.
type SnippetRepository struct {
	client *bb.Client
}

// NewSnippetRepository wraps an API client.
func NewSnippetRepository(client *bb.Client) *SnippetRepository {
	return &SnippetRepository{client: client}
}

// NewSnippetRepositoryFromSettings builds the client from the run settings.
func NewSnippetRepositoryFromSettings(settings *entities.Settings) repositories.SnippetRepository {
	policy := bb.DefaultRetryPolicy()
	policy.MaxAttempts = settings.Retry.MaxAttempts
	policy.InitialDelay = settings.Retry.InitialDelayDuration()
	policy.Multiplier = settings.Retry.Multiplier

	client := bb.NewClient(
		settings.APIBaseURL,
		settings.Auth.User,
		settings.Auth.Password,
		bb.WithRetryPolicy(policy),
	)
	return NewSnippetRepository(client)
}

func (r *SnippetRepository) Name() string { return ProviderName }

// ListSources lists the snippets of a workspace.
func (r *SnippetRepository) ListSources(
	ctx context.Context,
	workspace, role string,
) ([]entities.Source, error) {
	snippets, err := r.client.ListSnippets(ctx, workspace, role)

	sources := make([]entities.Source, 0, len(snippets))
	for i := range snippets {
		sources = append(sources, toSource(&snippets[i], workspace))
	}

	if err != nil {
		return sources, fmt.Errorf("failed to list snippets of %q: %w", workspace, err)
	}
	return sources, nil
}

// GetSource resolves a single snippet by id.
func (r *SnippetRepository) GetSource(
	ctx context.Context,
	workspace, id string,
) (entities.Source, error) {
	snippet, err := r.client.GetSnippet(ctx, workspace, id)
	if err != nil {
		if errors.Is(err, bb.ErrUnexpectedType) {
			return entities.Source{}, fmt.Errorf("snippet %q: %w", id, repositories.ErrNotASnippet)
		}
		return entities.Source{}, fmt.Errorf("failed to get snippet %q: %w", id, err)
	}
	return toSource(snippet, workspace), nil
}

// ListRevisions returns the commits of a snippet in API order.
func (r *SnippetRepository) ListRevisions(
	ctx context.Context,
	source entities.Source,
) ([]entities.Revision, error) {
	commits, err := r.client.ListCommits(ctx, source.Workspace, source.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits of snippet %q: %w", source.ID, err)
	}

	revisions := make([]entities.Revision, 0, len(commits))
	for _, commit := range commits {
		if commit.Hash == "" {
			continue
		}
		revisions = append(revisions, toRevision(commit))
	}
	return revisions, nil
}

// GetRevisionFiles returns the sorted file names of a snippet at a revision.
func (r *SnippetRepository) GetRevisionFiles(
	ctx context.Context,
	source entities.Source,
	revisionID string,
) ([]string, error) {
	snippet, err := r.client.GetSnippetAt(ctx, source.Workspace, source.ID, revisionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get snippet %q at %s: %w", source.ID, revisionID, err)
	}
	if snippet.Files == nil {
		return nil, fmt.Errorf("snippet %q at %s has no file listing: %w", source.ID, revisionID, bb.ErrMalformedPayload)
	}
	return fileNames(snippet.Files), nil
}

// GetFileContent returns the raw bytes of a file at a revision.
func (r *SnippetRepository) GetFileContent(
	ctx context.Context,
	source entities.Source,
	revisionID, name string,
) ([]byte, error) {
	content, err := r.client.GetFile(ctx, source.Workspace, source.ID, revisionID, name)
	if err != nil {
		return nil, fmt.Errorf("failed to get file %q of snippet %q at %s: %w", name, source.ID, revisionID, err)
	}
	return content, nil
}

// toSource converts an API snippet. The workspace used for later calls is the
// snippet's own workspace, else its owner's nickname, else the requested one.
func toSource(snippet *bb.Snippet, workspace string) entities.Source {
	slug := workspace
	switch {
	case snippet.Workspace != nil && snippet.Workspace.Slug != "":
		slug = snippet.Workspace.Slug
	case snippet.Owner != nil && snippet.Owner.Nickname != "":
		slug = snippet.Owner.Nickname
	}

	source := entities.NewSource(string(snippet.ID), snippet.Title, slug)
	source.HTMLLink = snippet.HTMLLink()
	source.CreatedOn = snippet.CreatedOn
	source.UpdatedOn = snippet.UpdatedOn
	if snippet.Owner != nil {
		source.Owner = entities.Account{
			Nickname:    snippet.Owner.Nickname,
			DisplayName: snippet.Owner.DisplayName,
		}
	}
	if snippet.Files != nil {
		source.Files = fileNames(snippet.Files)
		source.HeadRevision = snippet.HeadRevision()
	}
	return source
}

func toRevision(commit bb.Commit) entities.Revision {
	revision := entities.Revision{
		ID:      commit.Hash,
		Date:    commit.Date,
		Message: commit.Message,
	}
	if commit.Author != nil {
		revision.Author.Raw = commit.Author.Raw
		if commit.Author.User != nil {
			revision.Author.Nickname = commit.Author.User.Nickname
			revision.Author.DisplayName = commit.Author.User.DisplayName
		}
	}
	return revision
}

func fileNames(files map[string]bb.FileMeta) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
