package entities

import (
	"errors"
	"sort"
	"time"
)

// ErrUnorderableHistory is returned when no revision timestamp could be parsed,
// so a chronological order cannot be established.
var ErrUnorderableHistory = errors.New("no revision timestamp could be parsed")

// PendingCommit is one unit of replay work: a source at a given revision.
type PendingCommit struct {
	Source   Source
	Revision Revision

	// Timestamp is the parsed revision date, filled in by MergeChronologically.
	Timestamp time.Time

	// FilesOverride replaces the per-revision file listing fetch when non-nil.
	FilesOverride []string
	// Synthesized marks a "current state" commit built from catalog data.
	Synthesized bool
	// Unresolved marks a synthesized commit with neither a file listing nor a
	// revision to fetch one from. Its replay must leave the working tree alone.
	Unresolved bool
}

// Clock abstracts time retrieval so the merge is deterministic in tests.
type Clock interface {
	Now() time.Time
}

// RealClock returns the actual current time.
type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now().UTC() }

// MergeChronologically orders pending commits of all sources by ascending
// timestamp. Ties keep their input order. A timestamp that fails to parse is
// taken as the clock's current instant, which pushes it towards the end.
// ErrUnorderableHistory is returned only when timestamps were supplied and
// none of them parsed.
func MergeChronologically(commits []PendingCommit, clock Clock) ([]PendingCommit, int, error) {
	merged := make([]PendingCommit, len(commits))
	copy(merged, commits)

	supplied, failed := 0, 0
	for i := range merged {
		raw := merged[i].Revision.Date
		if raw != "" {
			supplied++
		}
		if t, ok := ParseTimestamp(raw); ok {
			merged[i].Timestamp = t
			continue
		}
		if raw != "" {
			failed++
		}
		merged[i].Timestamp = clock.Now()
	}

	if supplied > 0 && failed == supplied {
		return nil, failed, ErrUnorderableHistory
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Timestamp.Before(merged[j].Timestamp)
	})
	return merged, failed, nil
}
