//go:build integration

package gitcli_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
	"github.com/rios0rios0/snipbackup/internal/domain/repositories"
	"github.com/rios0rios0/snipbackup/internal/infrastructure/repositories/gitcli"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git binary not available")
	}
}

func TestGitCLIRepository(t *testing.T) {
	t.Parallel()

	t.Run("should replay a commit with a forged date and read it back", func(t *testing.T) {
		t.Parallel()
		requireGit(t)

		// given
		ctx := context.Background()
		root := t.TempDir()
		vcs := gitcli.NewGitCLIRepository(root)
		require.NoError(t, vcs.Init(ctx))
		require.NoError(t, os.MkdirAll(filepath.Join(root, "snip_a"), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(root, "snip_a", "[weird]*.txt"), []byte("x"), 0o644))
		when := time.Date(2019, 3, 4, 5, 6, 7, 0, time.UTC)

		// when
		require.NoError(t, vcs.Add(ctx, "snip_a"))
		status, statusErr := vcs.Status(ctx, "snip_a")
		hash, err := vcs.Commit(ctx, entities.CommitInput{
			Message:   "Snippet: a",
			Author:    entities.Identity{Name: "Jane", Email: "jane@example.com"},
			Committer: entities.Identity{Name: "Backup", Email: "backup@example.com"},
			When:      when,
		})

		// then
		require.NoError(t, statusErr)
		assert.Len(t, status, 1)
		require.NoError(t, err)
		assert.Len(t, hash, 40)

		out, logErr := exec.Command("git", "-C", root, "log", "-1", "--format=%an|%cn|%aI|%cI").Output()
		require.NoError(t, logErr)
		assert.Equal(t, "Jane|Backup|2019-03-04T05:06:07+00:00|2019-03-04T05:06:07+00:00", strings.TrimSpace(string(out)))

		tracked, listErr := vcs.ListTracked(ctx, "snip_a")
		require.NoError(t, listErr)
		assert.Equal(t, []string{"snip_a/[weird]*.txt"}, tracked)
	})

	t.Run("should report a clean tree as nothing to commit", func(t *testing.T) {
		t.Parallel()
		requireGit(t)

		// given
		ctx := context.Background()
		vcs := gitcli.NewGitCLIRepository(t.TempDir())
		require.NoError(t, vcs.Init(ctx))

		// when
		_, err := vcs.Commit(ctx, entities.CommitInput{
			Message:   "nothing",
			Author:    entities.Identity{Name: "Jane", Email: "jane@example.com"},
			Committer: entities.Identity{Name: "Backup", Email: "backup@example.com"},
			When:      time.Now(),
		})

		// then
		require.ErrorIs(t, err, repositories.ErrNothingToCommit)
	})
}
