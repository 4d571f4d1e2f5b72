package commands

import (
	"context"
	"errors"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
	"github.com/rios0rios0/snipbackup/internal/domain/repositories"
)

// CatalogBuilder discovers the sources of a run, either from an explicit id
// list or from the workspace listing.
type CatalogBuilder struct {
	repository repositories.SnippetRepository
}

// NewCatalogBuilder creates a catalog builder reading from the given host.
func NewCatalogBuilder(repository repositories.SnippetRepository) *CatalogBuilder {
	return &CatalogBuilder{repository: repository}
}

// Build returns the catalog in discovery order and the number of sources that
// had to be dropped. Failures never abort: what was read is kept.
func (it *CatalogBuilder) Build(
	ctx context.Context,
	workspace, role string,
	ids []string,
) ([]entities.Source, int) {
	if len(ids) > 0 {
		return it.resolveExplicit(ctx, workspace, ids)
	}
	return it.list(ctx, workspace, role)
}

func (it *CatalogBuilder) resolveExplicit(
	ctx context.Context,
	workspace string,
	ids []string,
) ([]entities.Source, int) {
	logger.Infof("Fetching %d specified snippets from workspace %q...", len(ids), workspace)

	var sources []entities.Source
	skipped := 0
	seen := make(map[string]bool)

	for _, raw := range ids {
		id := strings.TrimSpace(raw)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		source, err := it.repository.GetSource(ctx, workspace, id)
		if err != nil {
			if errors.Is(err, repositories.ErrNotASnippet) {
				logger.Warnf("Item %s is not a snippet, skipping it", id)
			} else {
				logger.Warnf("Could not fetch snippet %s, skipping it: %v", id, err)
			}
			skipped++
			continue
		}
		sources = append(sources, source)
	}

	return sources, skipped
}

func (it *CatalogBuilder) list(ctx context.Context, workspace, role string) ([]entities.Source, int) {
	if role != "" {
		logger.Infof("Listing snippets of workspace %q with role %q...", workspace, role)
	} else {
		logger.Infof("Listing snippets of workspace %q...", workspace)
	}

	listed, err := it.repository.ListSources(ctx, workspace, role)
	if err != nil {
		logger.Errorf("Snippet listing ended early, keeping %d snippets: %v", len(listed), err)
	}

	sources := make([]entities.Source, 0, len(listed))
	skipped := 0
	seen := make(map[string]bool)

	for _, source := range listed {
		if source.ID == "" {
			logger.Warnf("Snippet entry without an id (title %q), skipping it", source.Title)
			skipped++
			continue
		}
		if seen[source.ID] {
			logger.Debugf("Snippet %s listed twice, keeping the first entry", source.ID)
			continue
		}
		seen[source.ID] = true
		sources = append(sources, source)
	}

	return sources, skipped
}
