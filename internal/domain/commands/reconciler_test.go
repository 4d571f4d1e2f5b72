//go:build unit

package commands_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/snipbackup/internal/domain/commands"
	"github.com/rios0rios0/snipbackup/internal/domain/entities"
	builders "github.com/rios0rios0/snipbackup/test/domain/entitybuilders"
	doubles "github.com/rios0rios0/snipbackup/test/infrastructure/repositorydoubles"
)

func TestReconcilerReconcile(t *testing.T) {
	t.Parallel()

	t.Run("should write files and remove tracked files missing from the revision except the README", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		source := builders.NewSourceBuilder().WithID("s1").WithTitle("Demo").BuildSource()
		revision := builders.NewRevisionBuilder().WithID("r2").BuildRevision()
		snippets := &doubles.SpySnippetRepository{}
		snippets.SetFiles("s1", "r2", map[string]string{"b.txt": "bee", "c.txt": "sea"})
		vcs := &doubles.SpyVersionControlRepository{
			Tracked: map[string][]string{
				source.DirName: {
					source.DirName + "/README.md",
					source.DirName + "/a.txt",
					source.DirName + "/b.txt",
				},
			},
		}
		reconciler := commands.NewReconciler(snippets, vcs, root)

		// when
		result := reconciler.Reconcile(context.Background(), entities.PendingCommit{Source: source, Revision: revision})

		// then
		assert.Equal(t, []string{"b.txt", "c.txt"}, result.Files)
		assert.Zero(t, result.FileFailures)
		assert.False(t, result.Tombstone)
		assert.Equal(t, []string{source.DirName + "/a.txt"}, vcs.Removed)
		assert.Equal(t, []string{source.DirName}, vcs.Added)

		content, err := os.ReadFile(filepath.Join(root, source.DirName, "c.txt"))
		require.NoError(t, err)
		assert.Equal(t, "sea", string(content))
	})

	t.Run("should write binary content byte for byte", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		source := builders.NewSourceBuilder().WithID("s1").BuildSource()
		binary := string([]byte{0xff, 0xfe, 0x00, 0x01})
		snippets := &doubles.SpySnippetRepository{}
		snippets.SetFiles("s1", "r1", map[string]string{"dir/blob.bin": binary})
		reconciler := commands.NewReconciler(snippets, &doubles.SpyVersionControlRepository{}, root)

		// when
		result := reconciler.Reconcile(context.Background(), entities.PendingCommit{
			Source:   source,
			Revision: builders.NewRevisionBuilder().WithID("r1").BuildRevision(),
		})

		// then
		assert.Equal(t, []string{"dir/blob.bin"}, result.Files)
		content, err := os.ReadFile(filepath.Join(root, source.DirName, "dir", "blob.bin"))
		require.NoError(t, err)
		assert.Equal(t, []byte(binary), content)
	})

	t.Run("should use the override without fetching the revision listing", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		source := builders.NewSourceBuilder().WithID("s1").BuildSource()
		snippets := &doubles.SpySnippetRepository{}
		snippets.SetFiles("s1", "head", map[string]string{"a.txt": "x"})
		reconciler := commands.NewReconciler(snippets, &doubles.SpyVersionControlRepository{}, root)

		// when
		result := reconciler.Reconcile(context.Background(), entities.PendingCommit{
			Source:        source,
			Revision:      entities.Revision{ID: "head"},
			FilesOverride: []string{"a.txt", "a.txt"},
		})

		// then
		assert.Equal(t, []string{"a.txt"}, result.Files)
		assert.Empty(t, snippets.RevisionFileCalls)
		assert.Equal(t, []string{"s1@head/a.txt"}, snippets.ContentCalls, "one fetch per unique name")
	})

	t.Run("should replay an unusable listing as a tombstone", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		source := builders.NewSourceBuilder().WithID("s1").BuildSource()
		vcs := &doubles.SpyVersionControlRepository{
			Tracked: map[string][]string{source.DirName: {source.DirName + "/a.txt", source.DirName + "/README.md"}},
		}
		reconciler := commands.NewReconciler(&doubles.SpySnippetRepository{}, vcs, root)

		// when
		result := reconciler.Reconcile(context.Background(), entities.PendingCommit{
			Source:   source,
			Revision: entities.Revision{ID: "gone"},
		})

		// then
		assert.True(t, result.Tombstone)
		assert.Empty(t, result.Files)
		assert.Equal(t, []string{source.DirName + "/a.txt"}, vcs.Removed)
		assert.Equal(t, []string{source.DirName}, vcs.Added, "a tombstone is still staged")
	})

	t.Run("should leave the working tree alone for an unresolved commit", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		source := builders.NewSourceBuilder().WithID("s1").BuildSource()
		snippets := &doubles.SpySnippetRepository{}
		vcs := &doubles.SpyVersionControlRepository{
			Tracked: map[string][]string{source.DirName: {source.DirName + "/a.txt", source.DirName + "/README.md"}},
		}
		reconciler := commands.NewReconciler(snippets, vcs, root)

		// when
		result := reconciler.Reconcile(context.Background(), entities.PendingCommit{
			Source:     source,
			Revision:   entities.Revision{ID: source.ID},
			Unresolved: true,
		})

		// then
		assert.True(t, result.Untouched)
		assert.False(t, result.Tombstone)
		assert.Empty(t, snippets.RevisionFileCalls)
		assert.Empty(t, snippets.ContentCalls)
		assert.Empty(t, vcs.Removed)
		assert.Empty(t, vcs.Added)
	})

	t.Run("should count a failed file fetch and keep going", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		source := builders.NewSourceBuilder().WithID("s1").BuildSource()
		snippets := &doubles.SpySnippetRepository{}
		snippets.SetFiles("s1", "r1", map[string]string{"ok.txt": "fine"})
		reconciler := commands.NewReconciler(snippets, &doubles.SpyVersionControlRepository{}, root)

		// when
		result := reconciler.Reconcile(context.Background(), entities.PendingCommit{
			Source:        source,
			Revision:      entities.Revision{ID: "r1"},
			FilesOverride: []string{"missing.txt", "ok.txt"},
		})

		// then
		assert.Equal(t, 1, result.FileFailures)
		assert.FileExists(t, filepath.Join(root, source.DirName, "ok.txt"))
	})

	t.Run("should reject file names escaping the snippet directory", func(t *testing.T) {
		t.Parallel()

		// given
		root := t.TempDir()
		source := builders.NewSourceBuilder().WithID("s1").BuildSource()
		snippets := &doubles.SpySnippetRepository{}
		snippets.SetFiles("s1", "r1", map[string]string{"../evil.txt": "x"})
		reconciler := commands.NewReconciler(snippets, &doubles.SpyVersionControlRepository{}, root)

		// when
		result := reconciler.Reconcile(context.Background(), entities.PendingCommit{
			Source:   source,
			Revision: entities.Revision{ID: "r1"},
		})

		// then
		assert.Equal(t, 1, result.FileFailures)
		assert.Empty(t, result.Files)
		assert.NoFileExists(t, filepath.Join(root, "evil.txt"))
		assert.Empty(t, snippets.ContentCalls)
	})
}

func TestContainedPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		file    string
		wantErr bool
	}{
		{name: "should accept a plain file", file: "a.txt"},
		{name: "should accept a nested file", file: "dir/a.txt"},
		{name: "should accept a dotted segment that stays inside", file: "dir/../a.txt"},
		{name: "should reject a parent traversal", file: "../a.txt", wantErr: true},
		{name: "should reject a nested parent traversal", file: "dir/../../a.txt", wantErr: true},
		{name: "should reject an absolute path", file: "/etc/passwd", wantErr: true},
		{name: "should reject the directory itself", file: ".", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// given
			dir := filepath.Join(t.TempDir(), "snippet")

			// when
			target, err := commands.ContainedPath(dir, tt.file)

			// then
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, target, dir)
		})
	}
}
