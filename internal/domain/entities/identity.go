package entities

import "strings"

// Identity is a name/email pair used for git authorship.
type Identity struct {
	Name  string
	Email string
}

// ResolveAuthor derives the commit author from a revision's author descriptor.
// Priority: "Name <email>" raw string, raw name only, nickname, display name,
// then the fallback identity. Empty name or email parts fall back individually.
func ResolveAuthor(author Author, fallback Identity) Identity {
	resolved := fallback
	raw := author.Raw

	switch {
	case raw != "" && strings.Contains(raw, "<") && strings.Contains(raw, ">"):
		name, rest, _ := strings.Cut(raw, "<")
		email := strings.TrimSpace(strings.ReplaceAll(rest, ">", ""))
		if name = strings.TrimSpace(name); name != "" {
			resolved.Name = name
		}
		if email != "" {
			resolved.Email = email
		}
	case raw != "":
		if name := strings.TrimSpace(raw); name != "" {
			resolved.Name = name
		}
	case author.Nickname != "":
		resolved.Name = author.Nickname
	case author.DisplayName != "":
		resolved.Name = author.DisplayName
	}

	return resolved
}
