package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
	"github.com/rios0rios0/snipbackup/internal/domain/repositories"
)

// errEscapesSource is returned for a file name that would be written outside
// its source directory.
var errEscapesSource = errors.New("file path escapes the snippet directory")

// Reconciler replays the file set of one revision onto the working tree.
type Reconciler struct {
	repository repositories.SnippetRepository
	vcs        repositories.VersionControlRepository
	root       string
}

// NewReconciler creates a reconciler writing below root.
func NewReconciler(
	repository repositories.SnippetRepository,
	vcs repositories.VersionControlRepository,
	root string,
) *Reconciler {
	return &Reconciler{repository: repository, vcs: vcs, root: root}
}

// Reconcile writes every file of the revision, removes tracked files that the
// revision no longer has (the README excepted) and stages the source directory.
// Failures degrade the replay but never abort it. Unresolved commits are not
// replayed at all.
func (it *Reconciler) Reconcile(ctx context.Context, pending entities.PendingCommit) entities.ReconcileResult {
	source := pending.Source
	revision := pending.Revision
	var result entities.ReconcileResult

	if pending.Unresolved {
		logger.Warnf("Skipping replay of snippet '%s' (ID: %s): its current state could not be recovered",
			source.Title, source.ID)
		result.Untouched = true
		return result
	}

	logger.Infof("Processing snippet '%s' (ID: %s) revision %s dated %s",
		source.Title, source.ID, revision.ShortID(logIDLength), pending.Timestamp.Format("2006-01-02T15:04:05Z07:00"))

	sourceDir := filepath.Join(it.root, source.DirName)
	if err := os.MkdirAll(sourceDir, 0o755); err != nil {
		logger.Errorf("Could not create directory for snippet %s: %v", source.ID, err)
		result.FileFailures++
	}

	names, ok := it.resolveFiles(ctx, pending)
	if !ok {
		result.Tombstone = true
	}

	result.Files = make([]string, 0, len(names))
	for _, name := range names {
		err := it.writeFile(ctx, pending, sourceDir, name)
		if err != nil {
			logger.Warnf("Snippet %s revision %s: skipping file %q: %v",
				source.ID, revision.ShortID(logIDLength), name, err)
			result.FileFailures++
		}
		if !errors.Is(err, errEscapesSource) {
			result.Files = append(result.Files, name)
		}
	}

	result.VCSFailures += it.removeStale(ctx, source, result.Files)

	if err := it.vcs.Add(ctx, source.DirName); err != nil {
		logger.Errorf("Could not stage snippet %s revision %s: %v", source.ID, revision.ShortID(logIDLength), err)
		result.VCSFailures++
	}

	return result
}

// resolveFiles returns the unique, sorted file names of the revision. The
// second value is false when no usable listing was available.
func (it *Reconciler) resolveFiles(ctx context.Context, pending entities.PendingCommit) ([]string, bool) {
	names := pending.FilesOverride
	if names == nil {
		fetched, err := it.repository.GetRevisionFiles(ctx, pending.Source, pending.Revision.ID)
		if err != nil {
			logger.Warnf("Could not get a valid file list for snippet %s revision %s, replaying it as empty: %v",
				pending.Source.ID, pending.Revision.ShortID(logIDLength), err)
			return []string{}, false
		}
		names = fetched
	}

	seen := make(map[string]bool, len(names))
	unique := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		unique = append(unique, name)
	}
	sort.Strings(unique)
	return unique, true
}

func (it *Reconciler) writeFile(ctx context.Context, pending entities.PendingCommit, sourceDir, name string) error {
	target, err := containedPath(sourceDir, name)
	if err != nil {
		return err
	}

	content, err := it.repository.GetFileContent(ctx, pending.Source, pending.Revision.ID, name)
	if err != nil {
		return fmt.Errorf("failed to fetch content: %w", err)
	}

	if err = os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create parent directory: %w", err)
	}
	if !utf8.Valid(content) {
		logger.Debugf("Writing %q of snippet %s as binary", name, pending.Source.ID)
	}
	if err = os.WriteFile(target, content, 0o644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// removeStale removes every tracked file of the source that is not in keep.
// It returns the number of failed removals.
func (it *Reconciler) removeStale(ctx context.Context, source entities.Source, keep []string) int {
	tracked, err := it.vcs.ListTracked(ctx, source.DirName)
	if err != nil {
		logger.Errorf("Could not list tracked files of snippet %s: %v", source.ID, err)
		return 1
	}

	wanted := make(map[string]bool, len(keep))
	for _, name := range keep {
		wanted[path.Clean(name)] = true
	}

	failures := 0
	prefix := source.DirName + "/"
	for _, trackedPath := range tracked {
		rel, found := strings.CutPrefix(trackedPath, prefix)
		if !found || rel == entities.ReadmeFileName || wanted[rel] {
			continue
		}
		logger.Infof("Marking for deletion (not in current snippet revision): %s", rel)
		if err = it.vcs.Remove(ctx, trackedPath); err != nil {
			logger.Errorf("Could not remove %s: %v", trackedPath, err)
			failures++
		}
	}
	return failures
}

// containedPath joins name onto dir and rejects results outside dir.
func containedPath(dir, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", errEscapesSource
	}
	target := filepath.Join(dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errEscapesSource
	}
	return target, nil
}
