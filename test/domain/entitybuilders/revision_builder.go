//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/snipbackup/internal/domain/entities"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// RevisionBuilder helps create test revisions with a fluent interface.
type RevisionBuilder struct {
	*testkit.BaseBuilder
	id      string
	date    string
	author  entities.Author
	message string
}

// NewRevisionBuilder creates a new revision builder with sensible defaults.
func NewRevisionBuilder() *RevisionBuilder {
	return &RevisionBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		id:          "0123456789abcdef",
		date:        "2024-01-01T10:00:00+00:00",
		author:      entities.Author{Raw: "Jane Doe <jane@example.com>"},
		message:     "update",
	}
}

// WithID sets the revision hash.
func (b *RevisionBuilder) WithID(id string) *RevisionBuilder {
	b.id = id
	return b
}

// WithDate sets the raw revision timestamp.
func (b *RevisionBuilder) WithDate(date string) *RevisionBuilder {
	b.date = date
	return b
}

// WithAuthor sets the full author descriptor.
func (b *RevisionBuilder) WithAuthor(author entities.Author) *RevisionBuilder {
	b.author = author
	return b
}

// WithRawAuthor sets only the raw author string.
func (b *RevisionBuilder) WithRawAuthor(raw string) *RevisionBuilder {
	b.author = entities.Author{Raw: raw}
	return b
}

// WithMessage sets the revision message.
func (b *RevisionBuilder) WithMessage(message string) *RevisionBuilder {
	b.message = message
	return b
}

// Build creates the revision (satisfies testkit.Builder interface).
func (b *RevisionBuilder) Build() interface{} {
	return b.BuildRevision()
}

// BuildRevision creates the revision with a concrete return type.
func (b *RevisionBuilder) BuildRevision() entities.Revision {
	return entities.Revision{
		ID:      b.id,
		Date:    b.date,
		Author:  b.author,
		Message: b.message,
	}
}

// Reset clears the builder state, allowing it to be reused.
func (b *RevisionBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.id = "0123456789abcdef"
	b.date = "2024-01-01T10:00:00+00:00"
	b.author = entities.Author{Raw: "Jane Doe <jane@example.com>"}
	b.message = "update"
	return b
}

// Clone creates a deep copy of the RevisionBuilder.
func (b *RevisionBuilder) Clone() testkit.Builder {
	return &RevisionBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		id:          b.id,
		date:        b.date,
		author:      b.author,
		message:     b.message,
	}
}
