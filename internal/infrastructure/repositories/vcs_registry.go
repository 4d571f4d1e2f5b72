package repositories

import (
	"fmt"
	"sort"

	domainRepos "github.com/rios0rios0/snipbackup/internal/domain/repositories"
)

// VCSFactory creates a VersionControlRepository rooted at the given directory.
type VCSFactory func(root string) domainRepos.VersionControlRepository

// VCSRegistry manages all registered version control backends.
type VCSRegistry struct {
	backends map[string]VCSFactory
}

// NewVCSRegistry creates an empty backend registry.
func NewVCSRegistry() *VCSRegistry {
	return &VCSRegistry{
		backends: make(map[string]VCSFactory),
	}
}

// Register adds a backend factory under the given name (e.g. "git").
func (r *VCSRegistry) Register(name string, factory VCSFactory) {
	r.backends[name] = factory
}

// Get returns a backend instance for the given name rooted at root.
func (r *VCSRegistry) Get(name, root string) (domainRepos.VersionControlRepository, error) {
	factory, ok := r.backends[name]
	if !ok {
		return nil, fmt.Errorf("unknown version control backend: %q", name)
	}
	return factory(root), nil
}

// Names returns the sorted list of registered backend names.
func (r *VCSRegistry) Names() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
