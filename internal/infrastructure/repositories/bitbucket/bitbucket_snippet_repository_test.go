//go:build unit

package bitbucket_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
	"github.com/rios0rios0/snipbackup/internal/domain/repositories"
	bbRepo "github.com/rios0rios0/snipbackup/internal/infrastructure/repositories/bitbucket"
)

func newRepository(t *testing.T, handler http.HandlerFunc) repositories.SnippetRepository {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	settings := &entities.Settings{
		Auth:       entities.AuthConfig{User: "jane", Password: "secret"},
		APIBaseURL: server.URL,
	}
	settings.ApplyDefaults()
	settings.Retry.MaxAttempts = 1
	return bbRepo.NewSnippetRepositoryFromSettings(settings)
}

func TestSnippetRepositoryListSources(t *testing.T) {
	t.Parallel()

	t.Run("should convert listed snippets into sources", func(t *testing.T) {
		t.Parallel()

		// given
		repo := newRepository(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/snippets/team", r.URL.Path)
			fmt.Fprint(w, `{"values":[{
				"type": "snippet",
				"id": "kx9a",
				"title": "Deploy Script",
				"created_on": "2024-01-01T00:00:00+00:00",
				"updated_on": "2024-02-01T00:00:00+00:00",
				"owner": {"nickname": "jdoe", "display_name": "Jane Doe"},
				"workspace": {"slug": "other-team"},
				"links": {"html": {"href": "https://bitbucket.org/snippets/other-team/kx9a"}}
			}]}`)
		})

		// when
		sources, err := repo.ListSources(context.Background(), "team", "")

		// then
		require.NoError(t, err)
		require.Len(t, sources, 1)
		source := sources[0]
		assert.Equal(t, "kx9a", source.ID)
		assert.Equal(t, "Deploy_Script_kx9a", source.DirName)
		assert.Equal(t, "other-team", source.Workspace)
		assert.Equal(t, "https://bitbucket.org/snippets/other-team/kx9a", source.HTMLLink)
		assert.Equal(t, entities.Account{Nickname: "jdoe", DisplayName: "Jane Doe"}, source.Owner)
		assert.Nil(t, source.Files)
		assert.Equal(t, bbRepo.ProviderName, repo.Name())
	})
}

func TestSnippetRepositoryGetSource(t *testing.T) {
	t.Parallel()

	t.Run("should report items that are not snippets", func(t *testing.T) {
		t.Parallel()

		// given
		repo := newRepository(t, func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"type":"pullrequest","id":"1"}`)
		})

		// when
		_, err := repo.GetSource(context.Background(), "team", "1")

		// then
		require.ErrorIs(t, err, repositories.ErrNotASnippet)
	})

	t.Run("should fall back to the owner nickname for the workspace", func(t *testing.T) {
		t.Parallel()

		// given
		repo := newRepository(t, func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"type":"snippet","id":"a","title":"t","owner":{"nickname":"jdoe"}}`)
		})

		// when
		source, err := repo.GetSource(context.Background(), "team", "a")

		// then
		require.NoError(t, err)
		assert.Equal(t, "jdoe", source.Workspace)
	})
}

func TestSnippetRepositoryRevisions(t *testing.T) {
	t.Parallel()

	t.Run("should map commits and drop those without a hash", func(t *testing.T) {
		t.Parallel()

		// given
		repo := newRepository(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/snippets/team/a/commits", r.URL.Path)
			fmt.Fprint(w, `{"values":[
				{"hash":"abc","date":"2024-01-01T00:00:00+00:00","message":"init",
				 "author":{"raw":"Jane Doe <jane@example.com>","user":{"nickname":"jdoe","display_name":"Jane Doe"}}},
				{"date":"2024-01-02T00:00:00+00:00"}
			]}`)
		})
		source := entities.NewSource("a", "t", "team")

		// when
		revisions, err := repo.ListRevisions(context.Background(), source)

		// then
		require.NoError(t, err)
		require.Len(t, revisions, 1)
		assert.Equal(t, entities.Revision{
			ID:      "abc",
			Date:    "2024-01-01T00:00:00+00:00",
			Message: "init",
			Author: entities.Author{
				Raw:         "Jane Doe <jane@example.com>",
				Nickname:    "jdoe",
				DisplayName: "Jane Doe",
			},
		}, revisions[0])
	})

	t.Run("should list the sorted files of a revision", func(t *testing.T) {
		t.Parallel()

		// given
		repo := newRepository(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/snippets/team/a/abc", r.URL.Path)
			fmt.Fprint(w, `{"type":"snippet","id":"a","files":{"z.txt":{},"a.txt":{}}}`)
		})

		// when
		files, err := repo.GetRevisionFiles(context.Background(), entities.NewSource("a", "t", "team"), "abc")

		// then
		require.NoError(t, err)
		assert.Equal(t, []string{"a.txt", "z.txt"}, files)
	})

	t.Run("should fail when a revision has no file listing", func(t *testing.T) {
		t.Parallel()

		// given
		repo := newRepository(t, func(w http.ResponseWriter, _ *http.Request) {
			fmt.Fprint(w, `{"type":"snippet","id":"a"}`)
		})

		// when
		_, err := repo.GetRevisionFiles(context.Background(), entities.NewSource("a", "t", "team"), "abc")

		// then
		require.Error(t, err)
	})

	t.Run("should return raw file content", func(t *testing.T) {
		t.Parallel()

		// given
		repo := newRepository(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/snippets/team/a/abc/files/run.sh", r.URL.Path)
			fmt.Fprint(w, "#!/bin/sh\n")
		})

		// when
		content, err := repo.GetFileContent(context.Background(), entities.NewSource("a", "t", "team"), "abc", "run.sh")

		// then
		require.NoError(t, err)
		assert.Equal(t, "#!/bin/sh\n", string(content))
	})
}
