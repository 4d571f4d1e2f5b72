package entities

import (
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"
)

// RenderSourceReadme renders the README.md placed in a source directory,
// listing the files of its last replayed revision.
func RenderSourceReadme(source Source, files []string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", source.Title)
	fmt.Fprintf(&b, "**Original Snippet ID:** `%s`\n", source.ID)
	if source.HTMLLink != "" {
		fmt.Fprintf(&b, "**Bitbucket Link:** [%s](%s)\n\n", source.Title, source.HTMLLink)
	}
	b.WriteString("## Files in this Snippet\n\n")

	if len(files) == 0 {
		b.WriteString("No files found in the latest revision of this snippet.\n")
		return b.String()
	}

	sorted := make([]string, len(files))
	copy(sorted, files)
	sort.Strings(sorted)
	for _, f := range sorted {
		fmt.Fprintf(&b, "- [%s](./%s)\n", path.Base(f), escapePath(f))
	}
	return b.String()
}

// RenderRootReadme renders the repository index of every backed-up source,
// sorted case-insensitively by title.
func RenderRootReadme(sources []Source, now time.Time) string {
	var b strings.Builder

	b.WriteString("# Bitbucket Snippets Backup\n\n")
	fmt.Fprintf(&b, "This repository contains a backup of Bitbucket snippets, last updated on %s.\n\n",
		now.UTC().Format("2006-01-02 15:04:05 MST"))
	b.WriteString("## Snippets Index\n\n")

	if len(sources) == 0 {
		b.WriteString("No snippets have been backed up yet or an error occurred.\n")
		return b.String()
	}

	sorted := make([]Source, len(sources))
	copy(sorted, sources)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Title) < strings.ToLower(sorted[j].Title)
	})
	for _, s := range sorted {
		fmt.Fprintf(&b, "- [%s (ID: %s)](%s/%s)\n", s.Title, s.ID, url.PathEscape(s.DirName), ReadmeFileName)
	}
	return b.String()
}

func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}
