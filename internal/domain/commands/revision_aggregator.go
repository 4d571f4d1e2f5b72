package commands

import (
	"context"
	"fmt"
	"sort"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
	"github.com/rios0rios0/snipbackup/internal/domain/repositories"
)

const (
	synthesizedEmail = "placeholder@example.com"
	shortIDLength    = 7
	logIDLength      = 12
)

// RevisionAggregator turns a catalog into pending commit skeletons.
type RevisionAggregator struct {
	repository   repositories.SnippetRepository
	fallbackName string
}

// NewRevisionAggregator creates an aggregator. fallbackName is the author name
// of synthesized commits whose source has no owner metadata.
func NewRevisionAggregator(repository repositories.SnippetRepository, fallbackName string) *RevisionAggregator {
	return &RevisionAggregator{repository: repository, fallbackName: fallbackName}
}

// Aggregate returns at least one pending commit per source, in catalog order.
// In full-history mode every listed revision is returned; otherwise, or when
// the listing is empty or failed, one commit is synthesized from the source's
// current state.
func (it *RevisionAggregator) Aggregate(
	ctx context.Context,
	sources []entities.Source,
	historical bool,
) []entities.PendingCommit {
	var pending []entities.PendingCommit

	for _, source := range sources {
		if historical {
			commits := it.history(ctx, source)
			if len(commits) > 0 {
				pending = append(pending, commits...)
				continue
			}
			logger.Infof(
				"No commit history for snippet '%s' (ID: %s), backing up its current state as a single revision",
				source.Title, source.ID,
			)
		}
		pending = append(pending, it.Synthesize(ctx, source))
	}

	return pending
}

func (it *RevisionAggregator) history(ctx context.Context, source entities.Source) []entities.PendingCommit {
	logger.Infof("Fetching commits for snippet %s...", source.ID)

	revisions, err := it.repository.ListRevisions(ctx, source)
	if err != nil {
		logger.Warnf("Could not list commits of snippet %s: %v", source.ID, err)
		if len(revisions) == 0 {
			return nil
		}
	}

	commits := make([]entities.PendingCommit, 0, len(revisions))
	for _, revision := range revisions {
		if revision.ID == "" {
			logger.Warnf("Commit without a hash in snippet %s, skipping it", source.ID)
			continue
		}
		commits = append(commits, entities.PendingCommit{Source: source, Revision: revision})
	}

	if head, ok := entities.LatestRevision(revisions); ok {
		logger.Debugf("Snippet %s: %d revisions, head %s", source.ID, len(commits), head.ShortID(logIDLength))
	}
	return commits
}

// Synthesize builds the single "current state" commit of a source. The detail
// payload is fetched only when the catalog entry does not embed a file listing;
// if that fetch fails the catalog entry is used as is. Without a listing or a
// head revision the commit is marked unresolved.
func (it *RevisionAggregator) Synthesize(ctx context.Context, source entities.Source) entities.PendingCommit {
	logger.Infof("Processing latest state for snippet '%s' (ID: %s)", source.Title, source.ID)

	detail := source
	if source.Files == nil {
		fetched, err := it.repository.GetSource(ctx, source.Workspace, source.ID)
		if err != nil {
			logger.Warnf("Could not fetch details of snippet %s, using catalog data: %v", source.ID, err)
		} else {
			detail = mergeDetail(source, fetched)
		}
	}

	revisionID := detail.ID
	if detail.HeadRevision != "" {
		revisionID = detail.HeadRevision
	}
	unresolved := detail.Files == nil && detail.HeadRevision == ""
	if unresolved {
		logger.Warnf("Snippet %s has no file listing and no head revision, leaving its backup unchanged", source.ID)
	}

	date := detail.UpdatedOn
	if date == "" {
		date = detail.CreatedOn
	}

	name := detail.Owner.Nickname
	if name == "" {
		name = detail.Owner.DisplayName
	}
	if name == "" {
		name = it.fallbackName
	}

	var files []string
	if detail.Files != nil {
		files = make([]string, len(detail.Files))
		copy(files, detail.Files)
		sort.Strings(files)
	}

	return entities.PendingCommit{
		Source: detail,
		Revision: entities.Revision{
			ID:   revisionID,
			Date: date,
			Author: entities.Author{
				Raw:         fmt.Sprintf("%s <%s>", name, synthesizedEmail),
				Nickname:    name,
				DisplayName: name,
			},
			Message: fmt.Sprintf("Latest state of snippet '%s'", detail.Title),
		},
		FilesOverride: files,
		Synthesized:   true,
		Unresolved:    unresolved,
	}
}

// mergeDetail keeps the catalog identity (id, directory, workspace) and takes
// every other field from the detail payload when it carries one.
func mergeDetail(catalog, detail entities.Source) entities.Source {
	merged := catalog
	if detail.HTMLLink != "" {
		merged.HTMLLink = detail.HTMLLink
	}
	if detail.CreatedOn != "" {
		merged.CreatedOn = detail.CreatedOn
	}
	if detail.UpdatedOn != "" {
		merged.UpdatedOn = detail.UpdatedOn
	}
	if detail.Owner != (entities.Account{}) {
		merged.Owner = detail.Owner
	}
	merged.Files = detail.Files
	merged.HeadRevision = detail.HeadRevision
	return merged
}
