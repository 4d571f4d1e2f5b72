package entities

import "time"

// CommitInput describes a commit with forged authorship.
type CommitInput struct {
	Message    string
	Author     Identity
	Committer  Identity
	When       time.Time // Used as both author and committer date
	AllowEmpty bool
}

// LedgerEntry records one emitted commit in the run ledger.
type LedgerEntry struct {
	RunID       string
	SourceID    string
	RevisionID  string
	CommitHash  string
	Empty       bool
	CommittedAt time.Time
}
