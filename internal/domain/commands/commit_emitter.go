package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
	"github.com/rios0rios0/snipbackup/internal/domain/repositories"
)

// EmitOutcome tells what the emitter did with one pending commit.
type EmitOutcome int

const (
	// OutcomeCommitted means a commit with file changes was recorded.
	OutcomeCommitted EmitOutcome = iota
	// OutcomeMarker means an empty marker commit was recorded.
	OutcomeMarker
	// OutcomeNoOp means nothing changed and nothing was recorded.
	OutcomeNoOp
	// OutcomeFailed means the version control backend failed.
	OutcomeFailed
)

// CommitEmitter records replayed revisions as commits with forged authorship.
type CommitEmitter struct {
	vcs        repositories.VersionControlRepository
	ledger     repositories.LedgerRepository
	committer  entities.Identity
	historical bool
	runID      string
}

// NewCommitEmitter creates an emitter. In historical mode clean revisions are
// still recorded as empty marker commits.
func NewCommitEmitter(
	vcs repositories.VersionControlRepository,
	ledger repositories.LedgerRepository,
	committer entities.Identity,
	historical bool,
	runID string,
) *CommitEmitter {
	return &CommitEmitter{
		vcs:        vcs,
		ledger:     ledger,
		committer:  committer,
		historical: historical,
		runID:      runID,
	}
}

// Emit commits the staged state of the pending commit's source directory.
func (it *CommitEmitter) Emit(ctx context.Context, pending entities.PendingCommit) EmitOutcome {
	source := pending.Source
	revision := pending.Revision
	shortID := revision.ShortID(shortIDLength)

	if pending.Unresolved {
		logger.Infof("No replayable state for snippet %s, nothing to commit", source.ID)
		return OutcomeNoOp
	}

	status, err := it.vcs.Status(ctx, source.DirName)
	if err != nil {
		logger.Errorf("Could not get status of snippet %s revision %s: %v", source.ID, shortID, err)
		return OutcomeFailed
	}

	changed := len(status) > 0
	if !changed && !it.historical {
		logger.Infof("No file changes to commit for snippet %s revision %s", source.ID, shortID)
		return OutcomeNoOp
	}

	if changed {
		logger.Infof("Committing snippet %s revision %s with date %s...",
			source.ID, shortID, pending.Timestamp.Format(time.RFC3339))
	} else {
		logger.Infof("No file changes for snippet %s historical revision %s, making empty marker commit",
			source.ID, shortID)
	}

	hash, err := it.vcs.Commit(ctx, entities.CommitInput{
		Message:    CommitMessage(pending),
		Author:     entities.ResolveAuthor(revision.Author, it.committer),
		Committer:  it.committer,
		When:       pending.Timestamp,
		AllowEmpty: !changed,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNothingToCommit) {
			logger.Infof("Nothing to commit for snippet %s revision %s", source.ID, shortID)
			return OutcomeNoOp
		}
		logger.Errorf("Could not commit snippet %s revision %s: %v", source.ID, shortID, err)
		return OutcomeFailed
	}

	it.record(ctx, pending, hash, !changed)
	if !changed {
		return OutcomeMarker
	}
	return OutcomeCommitted
}

// CommitIndex commits a generated index file with the committer identity at
// the given wall-clock time. It reports whether a commit was made.
func (it *CommitEmitter) CommitIndex(ctx context.Context, path, message string, when time.Time) (bool, error) {
	if err := it.vcs.Add(ctx, path); err != nil {
		return false, fmt.Errorf("failed to stage %s: %w", path, err)
	}

	status, err := it.vcs.Status(ctx, path)
	if err != nil {
		return false, fmt.Errorf("failed to get status of %s: %w", path, err)
	}
	if len(status) == 0 {
		return false, nil
	}

	_, err = it.vcs.Commit(ctx, entities.CommitInput{
		Message:   message,
		Author:    it.committer,
		Committer: it.committer,
		When:      when,
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNothingToCommit) {
			return false, nil
		}
		return false, fmt.Errorf("failed to commit %s: %w", path, err)
	}
	return true, nil
}

func (it *CommitEmitter) record(ctx context.Context, pending entities.PendingCommit, hash string, empty bool) {
	err := it.ledger.RecordCommit(ctx, entities.LedgerEntry{
		RunID:       it.runID,
		SourceID:    pending.Source.ID,
		RevisionID:  pending.Revision.ID,
		CommitHash:  hash,
		Empty:       empty,
		CommittedAt: pending.Timestamp,
	})
	if err != nil {
		logger.Warnf("Could not record commit of snippet %s in the run ledger: %v", pending.Source.ID, err)
	}
}

// CommitMessage formats the message of a replayed revision.
func CommitMessage(pending entities.PendingCommit) string {
	shortID := pending.Revision.ShortID(shortIDLength)

	summary := pending.Revision.Message
	if summary == "" {
		summary = "Revision " + shortID
	}
	summary = strings.ReplaceAll(summary, `"`, "'")
	summary = strings.ReplaceAll(summary, "\r\n", " ")
	summary = strings.ReplaceAll(summary, "\n", " ")

	return fmt.Sprintf("Snippet: %s (ID: %s)\nRev: %s\n\n%s",
		pending.Source.Title, pending.Source.ID, shortID, summary)
}
