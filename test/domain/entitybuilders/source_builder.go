//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/snipbackup/internal/domain/entities"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// SourceBuilder helps create test sources with a fluent interface.
type SourceBuilder struct {
	*testkit.BaseBuilder
	id        string
	title     string
	workspace string
	htmlLink  string
	createdOn string
	updatedOn string
	owner     entities.Account
	files     []string
	head      string
}

// NewSourceBuilder creates a new source builder with sensible defaults.
func NewSourceBuilder() *SourceBuilder {
	return &SourceBuilder{
		BaseBuilder: testkit.NewBaseBuilder(),
		id:          "abc123",
		title:       "Test Snippet",
		workspace:   "test-workspace",
	}
}

// WithID sets the source id.
func (b *SourceBuilder) WithID(id string) *SourceBuilder {
	b.id = id
	return b
}

// WithTitle sets the source title.
func (b *SourceBuilder) WithTitle(title string) *SourceBuilder {
	b.title = title
	return b
}

// WithWorkspace sets the owning workspace slug.
func (b *SourceBuilder) WithWorkspace(workspace string) *SourceBuilder {
	b.workspace = workspace
	return b
}

// WithHTMLLink sets the web link.
func (b *SourceBuilder) WithHTMLLink(link string) *SourceBuilder {
	b.htmlLink = link
	return b
}

// WithCreatedOn sets the raw creation timestamp.
func (b *SourceBuilder) WithCreatedOn(createdOn string) *SourceBuilder {
	b.createdOn = createdOn
	return b
}

// WithUpdatedOn sets the raw update timestamp.
func (b *SourceBuilder) WithUpdatedOn(updatedOn string) *SourceBuilder {
	b.updatedOn = updatedOn
	return b
}

// WithOwner sets the owner account.
func (b *SourceBuilder) WithOwner(nickname, displayName string) *SourceBuilder {
	b.owner = entities.Account{Nickname: nickname, DisplayName: displayName}
	return b
}

// WithFiles sets the embedded file listing.
func (b *SourceBuilder) WithFiles(files ...string) *SourceBuilder {
	b.files = append([]string{}, files...)
	return b
}

// WithHeadRevision sets the revision of the embedded file listing.
func (b *SourceBuilder) WithHeadRevision(head string) *SourceBuilder {
	b.head = head
	return b
}

// Build creates the source (satisfies testkit.Builder interface).
func (b *SourceBuilder) Build() interface{} {
	return b.BuildSource()
}

// BuildSource creates the source with a concrete return type.
func (b *SourceBuilder) BuildSource() entities.Source {
	source := entities.NewSource(b.id, b.title, b.workspace)
	source.HTMLLink = b.htmlLink
	source.CreatedOn = b.createdOn
	source.UpdatedOn = b.updatedOn
	source.Owner = b.owner
	source.Files = b.files
	source.HeadRevision = b.head
	return source
}

// Reset clears the builder state, allowing it to be reused.
func (b *SourceBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	b.id = "abc123"
	b.title = "Test Snippet"
	b.workspace = "test-workspace"
	b.htmlLink = ""
	b.createdOn = ""
	b.updatedOn = ""
	b.owner = entities.Account{}
	b.files = nil
	b.head = ""
	return b
}

// Clone creates a deep copy of the SourceBuilder.
func (b *SourceBuilder) Clone() testkit.Builder {
	var files []string
	if b.files != nil {
		files = append([]string{}, b.files...)
	}
	return &SourceBuilder{
		BaseBuilder: b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		id:          b.id,
		title:       b.title,
		workspace:   b.workspace,
		htmlLink:    b.htmlLink,
		createdOn:   b.createdOn,
		updatedOn:   b.updatedOn,
		owner:       b.owner,
		files:       files,
		head:        b.head,
	}
}
