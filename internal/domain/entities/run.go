package entities

import "github.com/google/uuid"

const (
	ModeFullHistory = "full-history"
	ModeLatestOnly  = "latest-only"
)

// IDGenerator produces unique run identifiers.
type IDGenerator interface {
	NewID() string
}

// UUIDGenerator generates random UUIDv4 identifiers.
type UUIDGenerator struct{}

func (UUIDGenerator) NewID() string { return uuid.NewString() }

// Mode names the replay mode selected by the settings.
func (s *Settings) Mode() string {
	if s.Historical {
		return ModeFullHistory
	}
	return ModeLatestOnly
}
