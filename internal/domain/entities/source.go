package entities

import "regexp"

const (
	// ReadmeFileName is the generated index file inside every source directory.
	ReadmeFileName = "README.md"

	maxDirTitleLength = 150
)

var (
	forbiddenDirChars = regexp.MustCompile("[<>:\"/\\\\|?*\\n\\r\\t\\x00-\\x1f]")
	dirSeparatorRun   = regexp.MustCompile(`[\s_.-]+`)
)

// Account is the owner of a source as reported by the snippet host.
type Account struct {
	Nickname    string
	DisplayName string
}

// Source is one backed-up snippet. It is built once per run from catalog data.
type Source struct {
	ID        string
	Title     string
	DirName   string // Sanitized title + "_" + ID
	Workspace string // Slug used for every per-source API call
	HTMLLink  string
	CreatedOn string
	UpdatedOn string
	Owner     Account

	// Files is the file listing embedded in the source payload, nil when absent.
	Files []string
	// HeadRevision is the revision the embedded listing belongs to, if known.
	HeadRevision string
}

// NewSource builds a Source and derives its directory name.
// An empty title is replaced by "Untitled_Snippet_<id>".
func NewSource(id, title, workspace string) Source {
	if title == "" {
		title = "Untitled_Snippet_" + id
	}
	return Source{
		ID:        id,
		Title:     title,
		DirName:   SanitizeDirectoryName(title) + "_" + id,
		Workspace: workspace,
	}
}

// SanitizeDirectoryName strips characters that are unsafe in paths, collapses
// whitespace and separator runs into "_" and truncates the result.
func SanitizeDirectoryName(name string) string {
	name = forbiddenDirChars.ReplaceAllString(name, "")
	name = dirSeparatorRun.ReplaceAllString(name, "_")
	if runes := []rune(name); len(runes) > maxDirTitleLength {
		name = string(runes[:maxDirTitleLength])
	}
	return name
}
