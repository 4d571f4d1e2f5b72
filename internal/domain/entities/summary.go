package entities

// RunSummary counts what a backup run did. Every degradation is counted, never fatal.
type RunSummary struct {
	RunID            string
	Mode             string
	Sources          int
	SkippedSources   int
	Revisions        int
	AlreadyRecorded  int // Revisions skipped because the ledger holds their commit
	Commits          int
	EmptyMarkers     int
	NoOps            int
	Unresolved       int // Sources whose current state could not be recovered
	TombstoneReplays int
	FileFailures     int
	VCSFailures      int
	TimestampsFailed int
	ReadmeCommits    int
	ArchiveLocation  string
}

// Failures returns the number of degraded units of work.
func (s RunSummary) Failures() int {
	return s.SkippedSources + s.Unresolved + s.FileFailures + s.VCSFailures
}

// ReconcileResult is the outcome of replaying one pending commit.
type ReconcileResult struct {
	Files        []string // File set of the replayed revision
	FileFailures int
	VCSFailures  int
	Tombstone    bool // No usable file listing; the replay removed every tracked file
	Untouched    bool // Nothing was written, removed or staged
}
