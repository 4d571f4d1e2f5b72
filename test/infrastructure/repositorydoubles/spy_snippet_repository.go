//go:build integration || unit || test

// Package repositorydoubles provides test doubles (spies, stubs, dummies) for
// repository interfaces. These are hand-crafted implementations, no mock frameworks.
package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
	"github.com/rios0rios0/snipbackup/internal/domain/repositories"
)

// SpySnippetRepository implements repositories.SnippetRepository as a configurable spy.
// Revisions, file listings and contents are keyed by source id, then revision id.
type SpySnippetRepository struct {
	// --- ListSources ---
	Sources       []entities.Source
	ListErr       error
	ListedRoles   []string
	ListWorkspace string

	// --- GetSource ---
	Details       map[string]entities.Source // id -> detail
	GetSourceErrs map[string]error           // id -> error
	DetailCalls   []string

	// --- ListRevisions ---
	Revisions    map[string][]entities.Revision // source id -> revisions
	RevisionErrs map[string]error

	// --- GetRevisionFiles ---
	RevisionFiles     map[string]map[string][]string // source id -> revision -> names
	RevisionFileCalls []string                       // "source@revision"

	// --- GetFileContent ---
	Contents     map[string]map[string]map[string][]byte // source id -> revision -> name -> bytes
	ContentCalls []string                                // "source@revision/name"
}

var _ repositories.SnippetRepository = (*SpySnippetRepository)(nil)

func (s *SpySnippetRepository) Name() string { return "spy" }

func (s *SpySnippetRepository) ListSources(
	_ context.Context,
	workspace, role string,
) ([]entities.Source, error) {
	s.ListWorkspace = workspace
	s.ListedRoles = append(s.ListedRoles, role)
	return s.Sources, s.ListErr
}

func (s *SpySnippetRepository) GetSource(
	_ context.Context,
	_ string,
	id string,
) (entities.Source, error) {
	s.DetailCalls = append(s.DetailCalls, id)
	if err, ok := s.GetSourceErrs[id]; ok {
		return entities.Source{}, err
	}
	if detail, ok := s.Details[id]; ok {
		return detail, nil
	}
	return entities.Source{}, fmt.Errorf("snippet %s: not found", id)
}

func (s *SpySnippetRepository) ListRevisions(
	_ context.Context,
	source entities.Source,
) ([]entities.Revision, error) {
	if err, ok := s.RevisionErrs[source.ID]; ok {
		return nil, err
	}
	return s.Revisions[source.ID], nil
}

func (s *SpySnippetRepository) GetRevisionFiles(
	_ context.Context,
	source entities.Source,
	revisionID string,
) ([]string, error) {
	s.RevisionFileCalls = append(s.RevisionFileCalls, source.ID+"@"+revisionID)
	names, ok := s.RevisionFiles[source.ID][revisionID]
	if !ok {
		return nil, fmt.Errorf("revision %s of %s: not found", revisionID, source.ID)
	}
	return names, nil
}

func (s *SpySnippetRepository) GetFileContent(
	_ context.Context,
	source entities.Source,
	revisionID, name string,
) ([]byte, error) {
	s.ContentCalls = append(s.ContentCalls, source.ID+"@"+revisionID+"/"+name)
	content, ok := s.Contents[source.ID][revisionID][name]
	if !ok {
		return nil, fmt.Errorf("file %s at %s of %s: not found", name, revisionID, source.ID)
	}
	return content, nil
}

// AddRevision registers a revision of a source with its file contents.
func (s *SpySnippetRepository) AddRevision(
	sourceID string,
	revision entities.Revision,
	files map[string]string,
) *SpySnippetRepository {
	if s.Revisions == nil {
		s.Revisions = make(map[string][]entities.Revision)
	}
	s.Revisions[sourceID] = append(s.Revisions[sourceID], revision)
	s.SetFiles(sourceID, revision.ID, files)
	return s
}

// SetFiles registers the file listing and contents of a source at a revision.
func (s *SpySnippetRepository) SetFiles(sourceID, revisionID string, files map[string]string) *SpySnippetRepository {
	if s.RevisionFiles == nil {
		s.RevisionFiles = make(map[string]map[string][]string)
	}
	if s.Contents == nil {
		s.Contents = make(map[string]map[string]map[string][]byte)
	}
	if s.RevisionFiles[sourceID] == nil {
		s.RevisionFiles[sourceID] = make(map[string][]string)
	}
	if s.Contents[sourceID] == nil {
		s.Contents[sourceID] = make(map[string]map[string][]byte)
	}

	names := make([]string, 0, len(files))
	contents := make(map[string][]byte, len(files))
	for name, content := range files {
		names = append(names, name)
		contents[name] = []byte(content)
	}
	s.RevisionFiles[sourceID][revisionID] = names
	s.Contents[sourceID][revisionID] = contents
	return s
}
