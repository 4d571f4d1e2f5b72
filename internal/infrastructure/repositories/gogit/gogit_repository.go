package gogit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
	"github.com/rios0rios0/snipbackup/internal/domain/repositories"
)

const backendName = "go-git"

// GoGitRepository implements repositories.VersionControlRepository natively
// with go-git, without needing a git binary.
type GoGitRepository struct {
	root string
	repo *git.Repository
}

// NewGoGitRepository creates a backend rooted at root. The repository is
// opened or created by Init.
func NewGoGitRepository(root string) repositories.VersionControlRepository {
	return &GoGitRepository{root: root}
}

func (r *GoGitRepository) Name() string { return backendName }

// Init opens the repository at the root, creating it when absent.
func (r *GoGitRepository) Init(_ context.Context) error {
	if err := os.MkdirAll(r.root, 0o755); err != nil {
		return fmt.Errorf("failed to create repository directory %q: %w", r.root, err)
	}

	repo, err := git.PlainOpen(r.root)
	if err == nil {
		logger.Infof("Using existing Git repository in %s.", r.root)
		r.repo = repo
		return nil
	}
	if !errors.Is(err, git.ErrRepositoryNotExists) {
		return fmt.Errorf("failed to open repository %q: %w", r.root, err)
	}

	logger.Infof("Initializing Git repository in %s...", r.root)
	repo, err = git.PlainInit(r.root, false)
	if err != nil {
		return fmt.Errorf("failed to initialize repository %q: %w", r.root, err)
	}
	r.repo = repo
	return nil
}

// Add stages path, including deletions below it.
func (r *GoGitRepository) Add(_ context.Context, p string) error {
	wt, err := r.worktree()
	if err != nil {
		return err
	}
	if err = wt.AddWithOptions(&git.AddOptions{Path: p}); err != nil {
		return fmt.Errorf("failed to add %s: %w", p, err)
	}
	return nil
}

// Remove deletes a tracked file from the index and the working tree.
func (r *GoGitRepository) Remove(_ context.Context, p string) error {
	wt, err := r.worktree()
	if err != nil {
		return err
	}
	if _, err = wt.Remove(p); err != nil {
		return fmt.Errorf("failed to remove %s: %w", p, err)
	}
	return nil
}

// Commit creates a commit with forged author and committer identity and date.
func (r *GoGitRepository) Commit(_ context.Context, input entities.CommitInput) (string, error) {
	wt, err := r.worktree()
	if err != nil {
		return "", err
	}

	hash, err := wt.Commit(input.Message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  input.Author.Name,
			Email: input.Author.Email,
			When:  input.When,
		},
		Committer: &object.Signature{
			Name:  input.Committer.Name,
			Email: input.Committer.Email,
			When:  input.When,
		},
		AllowEmptyCommits: input.AllowEmpty,
	})
	if err != nil {
		if errors.Is(err, git.ErrEmptyCommit) {
			return "", repositories.ErrNothingToCommit
		}
		return "", fmt.Errorf("failed to commit: %w", err)
	}
	return hash.String(), nil
}

// Status returns porcelain-style lines for every changed path under p.
func (r *GoGitRepository) Status(_ context.Context, p string) ([]string, error) {
	wt, err := r.worktree()
	if err != nil {
		return nil, err
	}

	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}

	var lines []string
	for name, fileStatus := range status {
		if !inDirectory(name, p) {
			continue
		}
		if fileStatus.Staging == git.Unmodified && fileStatus.Worktree == git.Unmodified {
			continue
		}
		lines = append(lines, fmt.Sprintf("%c%c %s", fileStatus.Staging, fileStatus.Worktree, name))
	}
	sort.Strings(lines)
	return lines, nil
}

// ListTracked returns the files of the index under p.
func (r *GoGitRepository) ListTracked(_ context.Context, p string) ([]string, error) {
	if r.repo == nil {
		return nil, errors.New("repository is not initialized")
	}

	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	var tracked []string
	for _, entry := range idx.Entries {
		if inDirectory(entry.Name, p) {
			tracked = append(tracked, entry.Name)
		}
	}
	sort.Strings(tracked)
	return tracked, nil
}

func (r *GoGitRepository) worktree() (*git.Worktree, error) {
	if r.repo == nil {
		return nil, errors.New("repository is not initialized")
	}
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to open worktree: %w", err)
	}
	return wt, nil
}

// inDirectory reports whether the slash path name is dir itself or below it.
func inDirectory(name, dir string) bool {
	dir = strings.TrimSuffix(path.Clean(dir), "/")
	if dir == "." || dir == "" {
		return true
	}
	return name == dir || strings.HasPrefix(name, dir+"/")
}
