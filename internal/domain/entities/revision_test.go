//go:build unit

package entities_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
)

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	t.Run("should parse timestamps with an offset into the same instant", func(t *testing.T) {
		t.Parallel()

		// when
		utc, okUTC := entities.ParseTimestamp("2024-01-01T10:00:00Z")
		offset, okOffset := entities.ParseTimestamp("2024-01-01T12:00:00+02:00")

		// then
		require.True(t, okUTC)
		require.True(t, okOffset)
		assert.True(t, utc.Equal(offset))
	})

	t.Run("should parse fractional seconds", func(t *testing.T) {
		t.Parallel()

		// when
		parsed, ok := entities.ParseTimestamp("2024-01-01T10:00:00.123456+00:00")

		// then
		require.True(t, ok)
		assert.Equal(t, 123456000, parsed.Nanosecond())
	})

	t.Run("should read timestamps without a zone as UTC", func(t *testing.T) {
		t.Parallel()

		// when
		parsed, ok := entities.ParseTimestamp("2024-01-01T10:00:00")

		// then
		require.True(t, ok)
		assert.True(t, parsed.Equal(time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)))
	})

	t.Run("should reject empty and malformed values", func(t *testing.T) {
		t.Parallel()

		for _, raw := range []string{"", "   ", "yesterday", "2024-13-45"} {
			// when
			_, ok := entities.ParseTimestamp(raw)

			// then
			assert.False(t, ok, raw)
		}
	})
}

func TestLatestRevision(t *testing.T) {
	t.Parallel()

	t.Run("should return false for an empty list", func(t *testing.T) {
		t.Parallel()

		// when
		_, ok := entities.LatestRevision(nil)

		// then
		assert.False(t, ok)
	})

	t.Run("should pick the newest parsable revision", func(t *testing.T) {
		t.Parallel()

		// given
		revisions := []entities.Revision{
			{ID: "a", Date: "2024-01-01T00:00:00Z"},
			{ID: "b", Date: "garbage"},
			{ID: "c", Date: "2024-02-01T00:00:00Z"},
			{ID: "d", Date: "2024-01-15T00:00:00Z"},
		}

		// when
		latest, ok := entities.LatestRevision(revisions)

		// then
		require.True(t, ok)
		assert.Equal(t, "c", latest.ID)
	})

	t.Run("should keep the later entry on a tie", func(t *testing.T) {
		t.Parallel()

		// given
		revisions := []entities.Revision{
			{ID: "first", Date: "2024-01-01T00:00:00Z"},
			{ID: "second", Date: "2024-01-01T00:00:00Z"},
		}

		// when
		latest, _ := entities.LatestRevision(revisions)

		// then
		assert.Equal(t, "second", latest.ID)
	})
}

func TestRevisionShortID(t *testing.T) {
	t.Parallel()

	t.Run("should truncate long ids and keep short ones", func(t *testing.T) {
		t.Parallel()

		// given
		long := entities.Revision{ID: "0123456789abcdef"}
		short := entities.Revision{ID: "abc"}

		// when / then
		assert.Equal(t, "0123456", long.ShortID(7))
		assert.Equal(t, "abc", short.ShortID(7))
	})
}
