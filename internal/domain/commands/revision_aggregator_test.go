//go:build unit

package commands_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/snipbackup/internal/domain/commands"
	"github.com/rios0rios0/snipbackup/internal/domain/entities"
	builders "github.com/rios0rios0/snipbackup/test/domain/entitybuilders"
	doubles "github.com/rios0rios0/snipbackup/test/infrastructure/repositorydoubles"
)

func TestRevisionAggregatorAggregate(t *testing.T) {
	t.Parallel()

	t.Run("should return every revision in full-history mode", func(t *testing.T) {
		t.Parallel()

		// given
		source := builders.NewSourceBuilder().WithID("s1").BuildSource()
		spy := &doubles.SpySnippetRepository{}
		spy.AddRevision("s1", builders.NewRevisionBuilder().WithID("r2").WithDate("2024-02-01T00:00:00Z").BuildRevision(), nil)
		spy.AddRevision("s1", builders.NewRevisionBuilder().WithID("r1").WithDate("2024-01-01T00:00:00Z").BuildRevision(), nil)
		aggregator := commands.NewRevisionAggregator(spy, "Fallback")

		// when
		pending := aggregator.Aggregate(context.Background(), []entities.Source{source}, true)

		// then
		require.Len(t, pending, 2)
		assert.Equal(t, "r2", pending[0].Revision.ID)
		assert.Equal(t, "r1", pending[1].Revision.ID)
		assert.False(t, pending[0].Synthesized)
		assert.Nil(t, pending[0].FilesOverride)
		assert.Empty(t, spy.DetailCalls)
	})

	t.Run("should synthesize one commit dated updated_on when the history is empty", func(t *testing.T) {
		t.Parallel()

		// given
		source := builders.NewSourceBuilder().
			WithID("s1").
			WithTitle("Notes").
			WithUpdatedOn("2024-03-04T05:06:07.123456+00:00").
			WithCreatedOn("2023-01-01T00:00:00+00:00").
			WithOwner("janed", "Jane Doe").
			WithFiles("b.txt", "a.txt").
			WithHeadRevision("deadbeefcafe").
			BuildSource()
		spy := &doubles.SpySnippetRepository{}
		aggregator := commands.NewRevisionAggregator(spy, "Fallback")

		// when
		pending := aggregator.Aggregate(context.Background(), []entities.Source{source}, true)

		// then
		require.Len(t, pending, 1)
		commit := pending[0]
		assert.True(t, commit.Synthesized)
		assert.Equal(t, "deadbeefcafe", commit.Revision.ID)
		assert.Equal(t, source.UpdatedOn, commit.Revision.Date)
		assert.Equal(t, []string{"a.txt", "b.txt"}, commit.FilesOverride)
		assert.Equal(t, "janed <placeholder@example.com>", commit.Revision.Author.Raw)
		assert.Equal(t, "Latest state of snippet 'Notes'", commit.Revision.Message)
		assert.Empty(t, spy.DetailCalls, "embedded listing must avoid the detail fetch")

		merged, _, err := entities.MergeChronologically(pending, fixedClock{})
		require.NoError(t, err)
		expected, _ := entities.ParseTimestamp(source.UpdatedOn)
		assert.True(t, expected.Equal(merged[0].Timestamp))
	})

	t.Run("should synthesize when the revision listing fails", func(t *testing.T) {
		t.Parallel()

		// given
		source := builders.NewSourceBuilder().WithID("s1").WithFiles("a.txt").BuildSource()
		spy := &doubles.SpySnippetRepository{
			RevisionErrs: map[string]error{"s1": errors.New("boom")},
		}
		aggregator := commands.NewRevisionAggregator(spy, "Fallback")

		// when
		pending := aggregator.Aggregate(context.Background(), []entities.Source{source}, true)

		// then
		require.Len(t, pending, 1)
		assert.True(t, pending[0].Synthesized)
		assert.Equal(t, "s1", pending[0].Revision.ID)
	})

	t.Run("should synthesize exactly one commit per source in latest-only mode", func(t *testing.T) {
		t.Parallel()

		// given
		source := builders.NewSourceBuilder().WithID("s1").BuildSource()
		detail := builders.NewSourceBuilder().
			WithID("s1").
			WithCreatedOn("2022-05-05T00:00:00Z").
			WithFiles("x.go").
			BuildSource()
		spy := &doubles.SpySnippetRepository{Details: map[string]entities.Source{"s1": detail}}
		spy.AddRevision("s1", builders.NewRevisionBuilder().WithID("r1").BuildRevision(), nil)
		aggregator := commands.NewRevisionAggregator(spy, "Fallback")

		// when
		pending := aggregator.Aggregate(context.Background(), []entities.Source{source}, false)

		// then
		require.Len(t, pending, 1)
		assert.True(t, pending[0].Synthesized)
		assert.Equal(t, "2022-05-05T00:00:00Z", pending[0].Revision.Date, "created_on is the fallback date")
		assert.Equal(t, []string{"x.go"}, pending[0].FilesOverride)
		assert.Equal(t, []string{"s1"}, spy.DetailCalls)
		assert.Equal(t, "Fallback <placeholder@example.com>", pending[0].Revision.Author.Raw)
	})

	t.Run("should fall back to catalog data when the detail fetch fails", func(t *testing.T) {
		t.Parallel()

		// given
		source := builders.NewSourceBuilder().WithID("s1").WithUpdatedOn("2024-01-01T00:00:00Z").BuildSource()
		spy := &doubles.SpySnippetRepository{}
		aggregator := commands.NewRevisionAggregator(spy, "Fallback")

		// when
		pending := aggregator.Aggregate(context.Background(), []entities.Source{source}, false)

		// then
		require.Len(t, pending, 1)
		assert.Equal(t, "2024-01-01T00:00:00Z", pending[0].Revision.Date)
		assert.Nil(t, pending[0].FilesOverride)
		assert.Equal(t, source.DirName, pending[0].Source.DirName)
		assert.True(t, pending[0].Unresolved)
	})

	t.Run("should stay resolvable when the detail carries a head revision but no listing", func(t *testing.T) {
		t.Parallel()

		// given
		source := builders.NewSourceBuilder().WithID("s1").BuildSource()
		detail := builders.NewSourceBuilder().WithID("s1").WithHeadRevision("head1234").BuildSource()
		spy := &doubles.SpySnippetRepository{Details: map[string]entities.Source{"s1": detail}}
		aggregator := commands.NewRevisionAggregator(spy, "Fallback")

		// when
		pending := aggregator.Aggregate(context.Background(), []entities.Source{source}, false)

		// then
		require.Len(t, pending, 1)
		assert.False(t, pending[0].Unresolved)
		assert.Equal(t, "head1234", pending[0].Revision.ID)
	})
}
