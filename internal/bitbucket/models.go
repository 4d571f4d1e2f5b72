package bitbucket

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
)

// headRevisionPattern extracts the revision from a file self link such as
// https://api.bitbucket.org/2.0/snippets/ws/id/<rev>/files/name.
var headRevisionPattern = regexp.MustCompile(`/snippets/[^/]+/[^/]+/([^/]+)/files/`)

// ID is a snippet identifier. The API reports it as a string, older payloads as a number.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("snippet id is neither string nor number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// Link is a single hypermedia link.
type Link struct {
	Href string `json:"href"`
}

// Links is the subset of the "links" object the backup reads.
type Links struct {
	Self *Link `json:"self,omitempty"`
	HTML *Link `json:"html,omitempty"`
}

// Account is a user or team as embedded in snippet and commit payloads.
type Account struct {
	Type        string `json:"type"`
	Nickname    string `json:"nickname"`
	DisplayName string `json:"display_name"`
}

// Workspace is the workspace a snippet belongs to.
type Workspace struct {
	Slug string `json:"slug"`
}

// FileMeta is the per-file metadata of a snippet's "files" map.
type FileMeta struct {
	Links Links `json:"links"`
}

// Snippet is returned by the listing, the detail and the per-revision endpoints.
type Snippet struct {
	Type      string              `json:"type"`
	ID        ID                  `json:"id"`
	Title     string              `json:"title"`
	CreatedOn string              `json:"created_on"`
	UpdatedOn string              `json:"updated_on"`
	Owner     *Account            `json:"owner,omitempty"`
	Workspace *Workspace          `json:"workspace,omitempty"`
	Links     Links               `json:"links"`
	Files     map[string]FileMeta `json:"files,omitempty"` // nil when not embedded
}

// HTMLLink returns the web link of the snippet, empty when absent.
func (s *Snippet) HTMLLink() string {
	if s.Links.HTML == nil {
		return ""
	}
	return s.Links.HTML.Href
}

// HeadRevision extracts the revision the embedded file listing belongs to.
func (s *Snippet) HeadRevision() string {
	for _, meta := range s.Files {
		if meta.Links.Self == nil {
			continue
		}
		if match := headRevisionPattern.FindStringSubmatch(meta.Links.Self.Href); match != nil {
			return match[1]
		}
	}
	return ""
}

// CommitAuthor is the author object of a snippet commit.
type CommitAuthor struct {
	Raw  string   `json:"raw"`
	User *Account `json:"user,omitempty"`
}

// Commit is one entry of the snippet commits listing.
type Commit struct {
	Hash    string        `json:"hash"`
	Date    string        `json:"date"`
	Message string        `json:"message"`
	Author  *CommitAuthor `json:"author,omitempty"`
}
