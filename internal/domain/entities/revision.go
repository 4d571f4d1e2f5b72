package entities

import (
	"strings"
	"time"
)

// Author is the authorship descriptor attached to a revision. Any field may be empty.
type Author struct {
	Raw         string // "Name <email>" or just a name
	Nickname    string
	DisplayName string
}

// Revision is one historical state of a Source.
type Revision struct {
	ID      string
	Date    string // Raw timestamp as reported by the remote
	Author  Author
	Message string
}

// ShortID returns the first n characters of the revision id.
func (r Revision) ShortID(n int) string {
	if len(r.ID) <= n {
		return r.ID
	}
	return r.ID[:n]
}

// timestampLayouts are tried in order; the last two accept ISO-8601 without a zone.
//
//nolint:gochecknoglobals // read-only table
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp parses a remote timestamp into an absolute instant.
// Timestamps without a zone are read as UTC.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// LatestRevision returns the revision with the greatest parsed timestamp.
// Unparsable timestamps never win over parsable ones; ties keep the later entry.
func LatestRevision(revisions []Revision) (Revision, bool) {
	if len(revisions) == 0 {
		return Revision{}, false
	}
	best := 0
	bestTime, bestOK := ParseTimestamp(revisions[0].Date)
	for i := 1; i < len(revisions); i++ {
		t, ok := ParseTimestamp(revisions[i].Date)
		switch {
		case !ok && bestOK:
			continue
		case ok && !bestOK, !t.Before(bestTime):
			best, bestTime, bestOK = i, t, ok
		}
	}
	return revisions[best], true
}
