//go:build unit

package entities_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
)

func TestRenderSourceReadme(t *testing.T) {
	t.Parallel()

	t.Run("should list files sorted with escaped links", func(t *testing.T) {
		t.Parallel()

		// given
		source := entities.NewSource("s1", "Tools", "team")
		source.HTMLLink = "https://bitbucket.org/team/workspace/snippets/s1"

		// when
		content := entities.RenderSourceReadme(source, []string{"z.sh", "docs/a b.md"})

		// then
		assert.True(t, strings.HasPrefix(content, "# Tools\n\n**Original Snippet ID:** `s1`\n"))
		assert.Contains(t, content, "**Bitbucket Link:** [Tools](https://bitbucket.org/team/workspace/snippets/s1)")
		docs := strings.Index(content, "- [a b.md](./docs/a%20b.md)")
		script := strings.Index(content, "- [z.sh](./z.sh)")
		assert.Positive(t, docs)
		assert.Greater(t, script, docs)
	})

	t.Run("should say when the snippet has no files", func(t *testing.T) {
		t.Parallel()

		// when
		content := entities.RenderSourceReadme(entities.NewSource("s1", "Empty", "team"), nil)

		// then
		assert.Contains(t, content, "No files found in the latest revision of this snippet.")
		assert.NotContains(t, content, "Bitbucket Link")
	})
}

func TestRenderRootReadme(t *testing.T) {
	t.Parallel()

	t.Run("should index sources by title ignoring case", func(t *testing.T) {
		t.Parallel()

		// given
		sources := []entities.Source{
			entities.NewSource("2", "beta", "team"),
			entities.NewSource("1", "Alpha", "team"),
		}
		updated := time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC)

		// when
		content := entities.RenderRootReadme(sources, updated)

		// then
		assert.Contains(t, content, "last updated on 2024-03-01 08:30:00 UTC.")
		alpha := strings.Index(content, "- [Alpha (ID: 1)](Alpha_1/README.md)")
		beta := strings.Index(content, "- [beta (ID: 2)](beta_2/README.md)")
		assert.Positive(t, alpha)
		assert.Greater(t, beta, alpha)
	})

	t.Run("should say when nothing was backed up", func(t *testing.T) {
		t.Parallel()

		// when
		content := entities.RenderRootReadme(nil, time.Now())

		// then
		assert.Contains(t, content, "No snippets have been backed up yet")
	})
}
