//go:build unit

package gogit_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
	"github.com/rios0rios0/snipbackup/internal/domain/repositories"
	"github.com/rios0rios0/snipbackup/internal/infrastructure/repositories/gogit"
)

func newInitialized(t *testing.T) (repositories.VersionControlRepository, string) {
	t.Helper()
	root := t.TempDir()
	vcs := gogit.NewGoGitRepository(root)
	require.NoError(t, vcs.Init(context.Background()))
	return vcs, root
}

func writeFile(t *testing.T, root, name, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestGoGitRepository(t *testing.T) {
	t.Parallel()

	when := time.Date(2020, 5, 17, 9, 30, 0, 0, time.FixedZone("", 2*60*60))
	input := entities.CommitInput{
		Message:   "first",
		Author:    entities.Identity{Name: "Jane Doe", Email: "jane@example.com"},
		Committer: entities.Identity{Name: "Backup", Email: "backup@example.com"},
		When:      when,
	}

	t.Run("should commit with the forged identity and date", func(t *testing.T) {
		t.Parallel()

		// given
		vcs, root := newInitialized(t)
		ctx := context.Background()
		writeFile(t, root, "snip_a/a.txt", "a")
		require.NoError(t, vcs.Add(ctx, "snip_a"))

		// when
		hash, err := vcs.Commit(ctx, input)

		// then
		require.NoError(t, err)
		repo, openErr := git.PlainOpen(root)
		require.NoError(t, openErr)
		head, headErr := repo.Head()
		require.NoError(t, headErr)
		assert.Equal(t, hash, head.Hash().String())

		commit, commitErr := repo.CommitObject(head.Hash())
		require.NoError(t, commitErr)
		assert.Equal(t, "Jane Doe", commit.Author.Name)
		assert.Equal(t, "jane@example.com", commit.Author.Email)
		assert.Equal(t, "Backup", commit.Committer.Name)
		assert.True(t, commit.Author.When.Equal(when))
		assert.True(t, commit.Committer.When.Equal(when))
	})

	t.Run("should report changes only below the requested path", func(t *testing.T) {
		t.Parallel()

		// given
		vcs, root := newInitialized(t)
		ctx := context.Background()
		writeFile(t, root, "snip_a/a.txt", "a")
		writeFile(t, root, "snip_b/b.txt", "b")

		// when
		lines, err := vcs.Status(ctx, "snip_a")

		// then
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.Contains(t, lines[0], "snip_a/a.txt")
	})

	t.Run("should refuse an empty commit unless allowed", func(t *testing.T) {
		t.Parallel()

		// given
		vcs, root := newInitialized(t)
		ctx := context.Background()
		writeFile(t, root, "snip_a/a.txt", "a")
		require.NoError(t, vcs.Add(ctx, "snip_a"))
		_, err := vcs.Commit(ctx, input)
		require.NoError(t, err)

		// when
		_, emptyErr := vcs.Commit(ctx, input)
		marker := input
		marker.AllowEmpty = true
		_, markerErr := vcs.Commit(ctx, marker)

		// then
		require.ErrorIs(t, emptyErr, repositories.ErrNothingToCommit)
		require.NoError(t, markerErr)
	})

	t.Run("should stage removals and list tracked files", func(t *testing.T) {
		t.Parallel()

		// given
		vcs, root := newInitialized(t)
		ctx := context.Background()
		writeFile(t, root, "snip_a/a.txt", "a")
		writeFile(t, root, "snip_a/b.txt", "b")
		writeFile(t, root, "snip_b/c.txt", "c")
		require.NoError(t, vcs.Add(ctx, "."))
		_, err := vcs.Commit(ctx, input)
		require.NoError(t, err)

		// when
		require.NoError(t, vcs.Remove(ctx, "snip_a/a.txt"))
		tracked, listErr := vcs.ListTracked(ctx, "snip_a")

		// then
		require.NoError(t, listErr)
		assert.Equal(t, []string{"snip_a/b.txt"}, tracked)
		assert.NoFileExists(t, filepath.Join(root, "snip_a", "a.txt"))
	})

	t.Run("should reopen an existing repository", func(t *testing.T) {
		t.Parallel()

		// given
		_, root := newInitialized(t)

		// when
		err := gogit.NewGoGitRepository(root).Init(context.Background())

		// then
		require.NoError(t, err)
	})
}
