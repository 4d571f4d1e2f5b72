package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
	"github.com/rios0rios0/snipbackup/internal/domain/repositories"
	infraRepos "github.com/rios0rios0/snipbackup/internal/infrastructure/repositories"
)

const (
	// DefaultProvider is the snippet host used when none is configured.
	DefaultProvider = "bitbucket"

	archiveDestination = "s3"
	archiveTimeLayout  = "20060102T150405Z"
)

// Backup is the interface for the backup command.
type Backup interface {
	Execute(ctx context.Context, settings *entities.Settings, opts BackupOptions) (entities.RunSummary, error)
}

// BackupOptions holds runtime options for a single run.
type BackupOptions struct {
	Verbose     bool
	SkipArchive bool // Do not upload the archive even when a bucket is configured
}

// BackupCommand orchestrates a backup run:
// catalog -> aggregated revisions -> merged sequence -> replay and commit -> README indices.
type BackupCommand struct {
	providerRegistry *infraRepos.ProviderRegistry
	vcsRegistry      *infraRepos.VCSRegistry
	storeRegistry    *infraRepos.StoreRegistry
	clock            entities.Clock
	ids              entities.IDGenerator
}

// NewBackupCommand creates a new BackupCommand with the given registries.
func NewBackupCommand(
	providerRegistry *infraRepos.ProviderRegistry,
	vcsRegistry *infraRepos.VCSRegistry,
	storeRegistry *infraRepos.StoreRegistry,
	clock entities.Clock,
	ids entities.IDGenerator,
) *BackupCommand {
	return &BackupCommand{
		providerRegistry: providerRegistry,
		vcsRegistry:      vcsRegistry,
		storeRegistry:    storeRegistry,
		clock:            clock,
		ids:              ids,
	}
}

// Execute runs a full backup. The returned error is non-nil only when the
// output repository cannot be used or no revision timestamp could be ordered.
func (it *BackupCommand) Execute(
	ctx context.Context,
	settings *entities.Settings,
	opts BackupOptions,
) (entities.RunSummary, error) {
	if opts.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	summary := entities.RunSummary{RunID: it.ids.NewID(), Mode: settings.Mode()}

	snippets, err := it.providerRegistry.Get(DefaultProvider, settings)
	if err != nil {
		return summary, err
	}

	vcs, err := it.vcsRegistry.Get(settings.VCS.Backend, settings.OutputDir)
	if err != nil {
		return summary, err
	}
	if err = vcs.Init(ctx); err != nil {
		return summary, fmt.Errorf("cannot use output repository %q: %w", settings.OutputDir, err)
	}

	ledger := it.openLedger(ctx, settings, summary)
	defer func() {
		if closeErr := ledger.Close(); closeErr != nil {
			logger.Warnf("Could not close the run ledger: %v", closeErr)
		}
	}()

	logger.Infof("Starting %s backup run %s of workspace %q from %s using %s...",
		summary.Mode, summary.RunID, settings.Workspace, snippets.Name(), vcs.Name())

	logger.Info("--- Phase 1: Building the snippet catalog ---")
	sources, skipped := NewCatalogBuilder(snippets).Build(ctx, settings.Workspace, settings.Role, settings.SnippetIDs)
	summary.Sources = len(sources)
	summary.SkippedSources = skipped
	logger.Infof("Found %d snippets (%d skipped)", len(sources), skipped)

	logger.Info("--- Phase 2: Aggregating revisions ---")
	aggregator := NewRevisionAggregator(snippets, settings.Committer.Name)
	pending := aggregator.Aggregate(ctx, sources, settings.Historical)
	lastUpdated := latestTimestamp(pending, it.clock)
	if settings.Historical {
		pending = it.dropRecorded(ctx, ledger, pending, &summary)
	}

	logger.Info("--- Phase 3: Sorting all revisions globally by date ---")
	merged, failedTimestamps, err := entities.MergeChronologically(pending, it.clock)
	summary.TimestampsFailed = failedTimestamps
	if err != nil {
		it.finish(ctx, ledger, summary)
		return summary, fmt.Errorf("cannot order revisions chronologically: %w", err)
	}
	summary.Revisions = len(merged)
	logger.Infof("Total revisions to process chronologically: %d", len(merged))

	logger.Info("--- Phase 4: Processing and committing revisions chronologically ---")
	latestFiles := it.replay(ctx, snippets, vcs, ledger, settings, merged, &summary)

	logger.Info("--- Phase 5: Generating and committing README files ---")
	emitter := NewCommitEmitter(vcs, ledger, settings.CommitterIdentity(), settings.Historical, summary.RunID)
	summary.ReadmeCommits = it.writeReadmes(ctx, emitter, vcs, settings.OutputDir, sources, latestFiles, lastUpdated)

	it.finish(ctx, ledger, summary)

	if settings.Archive.Enabled() && !opts.SkipArchive {
		summary.ArchiveLocation = it.publishArchive(ctx, settings)
	}

	logger.Infof(
		"Backup complete: %d snippets (%d skipped), %d revisions, %d commits, %d empty markers, "+
			"%d no-ops, %d already recorded, %d unresolved, %d file failures, %d version control failures",
		summary.Sources, summary.SkippedSources, summary.Revisions, summary.Commits, summary.EmptyMarkers,
		summary.NoOps, summary.AlreadyRecorded, summary.Unresolved, summary.FileFailures, summary.VCSFailures,
	)
	if abs, absErr := filepath.Abs(settings.OutputDir); absErr == nil {
		logger.Infof("All snippets and their revisions are in: %s", abs)
	}
	return summary, nil
}

// replay reconciles and commits every merged revision in order and returns
// the last replayed file set of each source.
func (it *BackupCommand) replay(
	ctx context.Context,
	snippets repositories.SnippetRepository,
	vcs repositories.VersionControlRepository,
	ledger repositories.LedgerRepository,
	settings *entities.Settings,
	merged []entities.PendingCommit,
	summary *entities.RunSummary,
) map[string][]string {
	reconciler := NewReconciler(snippets, vcs, settings.OutputDir)
	emitter := NewCommitEmitter(vcs, ledger, settings.CommitterIdentity(), settings.Historical, summary.RunID)
	latestFiles := make(map[string][]string)

	for _, pending := range merged {
		result := reconciler.Reconcile(ctx, pending)
		if result.Untouched {
			summary.Unresolved++
		} else {
			latestFiles[pending.Source.ID] = result.Files
		}
		summary.FileFailures += result.FileFailures
		summary.VCSFailures += result.VCSFailures
		if result.Tombstone {
			summary.TombstoneReplays++
		}

		switch emitter.Emit(ctx, pending) {
		case OutcomeCommitted:
			summary.Commits++
		case OutcomeMarker:
			summary.Commits++
			summary.EmptyMarkers++
		case OutcomeNoOp:
			summary.NoOps++
		case OutcomeFailed:
			summary.VCSFailures++
		}
	}

	return latestFiles
}

// dropRecorded removes revisions whose commit the ledger already holds: the
// working tree already reflects them, so replaying them again would rewrite it.
func (it *BackupCommand) dropRecorded(
	ctx context.Context,
	ledger repositories.LedgerRepository,
	pending []entities.PendingCommit,
	summary *entities.RunSummary,
) []entities.PendingCommit {
	kept := make([]entities.PendingCommit, 0, len(pending))
	for _, p := range pending {
		recorded, err := ledger.HasCommit(ctx, p.Source.ID, p.Revision.ID)
		if err != nil {
			logger.Warnf("Could not look up snippet %s revision %s in the run ledger: %v",
				p.Source.ID, p.Revision.ShortID(logIDLength), err)
		}
		if recorded {
			logger.Debugf("Snippet %s revision %s already committed, skipping it",
				p.Source.ID, p.Revision.ShortID(logIDLength))
			summary.AlreadyRecorded++
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

// writeReadmes regenerates every source README and the root index and commits
// each one that changed. It returns the number of commits made.
func (it *BackupCommand) writeReadmes(
	ctx context.Context,
	emitter *CommitEmitter,
	vcs repositories.VersionControlRepository,
	root string,
	sources []entities.Source,
	latestFiles map[string][]string,
	lastUpdated time.Time,
) int {
	commits := 0

	for _, source := range sources {
		files, replayed := latestFiles[source.ID]
		if !replayed {
			files = it.trackedFiles(ctx, vcs, source)
		}

		readmePath := source.DirName + "/" + entities.ReadmeFileName
		content := entities.RenderSourceReadme(source, files)
		if err := writeIndex(filepath.Join(root, source.DirName), content); err != nil {
			logger.Errorf("Could not write README of snippet %s: %v", source.ID, err)
			continue
		}

		committed, err := emitter.CommitIndex(ctx, readmePath,
			fmt.Sprintf("Update README for snippet: %s (ID: %s)", source.Title, source.ID), it.clock.Now())
		if err != nil {
			logger.Errorf("Could not commit README of snippet %s: %v", source.ID, err)
			continue
		}
		if committed {
			commits++
		}
	}

	if err := writeIndex(root, entities.RenderRootReadme(sources, lastUpdated)); err != nil {
		logger.Errorf("Could not write the root README: %v", err)
		return commits
	}
	committed, err := emitter.CommitIndex(ctx, entities.ReadmeFileName,
		"Update root README with snippet index", it.clock.Now())
	if err != nil {
		logger.Errorf("Could not commit the root README: %v", err)
	}
	if committed {
		commits++
	}
	return commits
}

// trackedFiles lists the committed files of a source that was not replayed in this run.
func (it *BackupCommand) trackedFiles(
	ctx context.Context,
	vcs repositories.VersionControlRepository,
	source entities.Source,
) []string {
	tracked, err := vcs.ListTracked(ctx, source.DirName)
	if err != nil {
		logger.Warnf("Could not list tracked files of snippet %s: %v", source.ID, err)
		return nil
	}

	prefix := source.DirName + "/"
	files := make([]string, 0, len(tracked))
	for _, p := range tracked {
		rel, found := strings.CutPrefix(p, prefix)
		if !found || rel == "" || rel == entities.ReadmeFileName {
			continue
		}
		files = append(files, rel)
	}
	return files
}

func (it *BackupCommand) openLedger(
	ctx context.Context,
	settings *entities.Settings,
	summary entities.RunSummary,
) repositories.LedgerRepository {
	ledger := it.storeRegistry.LedgerOrNoop(settings.Ledger.Type, settings.Ledger.Path)
	if err := ledger.StartRun(ctx, summary.RunID, summary.Mode, it.clock.Now()); err != nil {
		logger.Warnf("Could not record the start of run %s: %v", summary.RunID, err)
	}
	return ledger
}

func (it *BackupCommand) finish(ctx context.Context, ledger repositories.LedgerRepository, summary entities.RunSummary) {
	if err := ledger.FinishRun(ctx, summary, it.clock.Now()); err != nil {
		logger.Warnf("Could not record the end of run %s: %v", summary.RunID, err)
	}
}

func (it *BackupCommand) publishArchive(ctx context.Context, settings *entities.Settings) string {
	archive, err := it.storeRegistry.Archive(ctx, archiveDestination, settings.Archive)
	if err != nil {
		logger.Errorf("Could not set up the archive upload: %v", err)
		return ""
	}

	key := fmt.Sprintf("%s-%s.tar.gz", settings.Workspace, it.clock.Now().UTC().Format(archiveTimeLayout))
	location, err := archive.Publish(ctx, settings.OutputDir, key)
	if err != nil {
		logger.Errorf("Could not upload the backup archive: %v", err)
		return ""
	}
	logger.Infof("Backup archive uploaded to %s", location)
	return location
}

// latestTimestamp returns the newest parsable revision timestamp, or now.
func latestTimestamp(pending []entities.PendingCommit, clock entities.Clock) time.Time {
	var latest time.Time
	for _, p := range pending {
		if t, ok := entities.ParseTimestamp(p.Revision.Date); ok && t.After(latest) {
			latest = t
		}
	}
	if latest.IsZero() {
		return clock.Now()
	}
	return latest
}

func writeIndex(dir, content string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, entities.ReadmeFileName), []byte(content), 0o644)
}
