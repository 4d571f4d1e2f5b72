package gitcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/snipbackup/internal/domain/entities"
	"github.com/rios0rios0/snipbackup/internal/domain/repositories"
)

const (
	backendName = "git"
	dateLayout  = "2006-01-02T15:04:05-07:00"
)

// GitCLIRepository implements repositories.VersionControlRepository by running
// the git binary in the repository root.
type GitCLIRepository struct {
	root   string
	binary string
}

// NewGitCLIRepository creates a backend rooted at root.
func NewGitCLIRepository(root string) repositories.VersionControlRepository {
	return &GitCLIRepository{root: root, binary: "git"}
}

func (r *GitCLIRepository) Name() string { return backendName }

// Init runs `git init` unless the root already holds a repository.
func (r *GitCLIRepository) Init(ctx context.Context) error {
	if err := os.MkdirAll(r.root, 0o755); err != nil {
		return fmt.Errorf("failed to create repository directory %q: %w", r.root, err)
	}
	if _, err := os.Stat(filepath.Join(r.root, ".git")); err == nil {
		logger.Infof("Using existing Git repository in %s.", r.root)
		return nil
	}

	logger.Infof("Initializing Git repository in %s...", r.root)
	if _, err := r.run(ctx, nil, "init"); err != nil {
		return fmt.Errorf("git init: %w", err)
	}
	return nil
}

// Add stages path, including deletions below it.
func (r *GitCLIRepository) Add(ctx context.Context, path string) error {
	if _, err := r.run(ctx, nil, "add", "--all", "--", path); err != nil {
		return fmt.Errorf("git add %s: %w", path, err)
	}
	return nil
}

// Remove deletes a tracked file from the index and the working tree.
func (r *GitCLIRepository) Remove(ctx context.Context, path string) error {
	if _, err := r.run(ctx, nil, "rm", "-q", "--ignore-unmatch", "--", path); err != nil {
		return fmt.Errorf("git rm %s: %w", path, err)
	}
	return nil
}

// Commit creates a commit with forged author and committer identity and date.
func (r *GitCLIRepository) Commit(ctx context.Context, input entities.CommitInput) (string, error) {
	date := input.When.Format(dateLayout)
	env := []string{
		"GIT_AUTHOR_NAME=" + input.Author.Name,
		"GIT_AUTHOR_EMAIL=" + input.Author.Email,
		"GIT_AUTHOR_DATE=" + date,
		"GIT_COMMITTER_NAME=" + input.Committer.Name,
		"GIT_COMMITTER_EMAIL=" + input.Committer.Email,
		"GIT_COMMITTER_DATE=" + date,
	}

	args := []string{"commit", "--quiet", "--no-verify"}
	if input.AllowEmpty {
		args = append(args, "--allow-empty", "--allow-empty-message")
	}
	args = append(args, "-m", input.Message)

	if _, err := r.run(ctx, env, args...); err != nil {
		if errors.Is(err, repositories.ErrNothingToCommit) {
			return "", err
		}
		return "", fmt.Errorf("git commit: %w", err)
	}

	hash, err := r.run(ctx, nil, "rev-parse", "HEAD")
	if err != nil {
		return "", fmt.Errorf("git rev-parse HEAD: %w", err)
	}
	return strings.TrimSpace(hash), nil
}

// Status returns `git status --porcelain` lines scoped to path.
func (r *GitCLIRepository) Status(ctx context.Context, path string) ([]string, error) {
	out, err := r.run(ctx, nil, "status", "--porcelain", "--untracked-files=all", "--", path)
	if err != nil {
		return nil, fmt.Errorf("git status %s: %w", path, err)
	}
	return splitLines(out, "\n"), nil
}

// ListTracked returns the files of the index under path.
func (r *GitCLIRepository) ListTracked(ctx context.Context, path string) ([]string, error) {
	out, err := r.run(ctx, nil, "ls-files", "-z", "--", path)
	if err != nil {
		return nil, fmt.Errorf("git ls-files %s: %w", path, err)
	}
	return splitLines(out, "\x00"), nil
}

// run executes git with extra environment variables and returns stdout.
// Failures are logged with the captured output; a "nothing to commit" outcome
// is reported as repositories.ErrNothingToCommit without being logged as an error.
func (r *GitCLIRepository) run(ctx context.Context, env []string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Dir = r.root
	cmd.Env = append(append(os.Environ(), "GIT_LITERAL_PATHSPECS=1"), env...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		combined := strings.ToLower(stdout.String() + stderr.String())
		if len(args) > 0 && args[0] == "commit" && isNothingToCommit(combined) {
			return "", repositories.ErrNothingToCommit
		}

		logger.Errorf("  Error running Git command: git %s", strings.Join(args, " "))
		if s := strings.TrimSpace(stdout.String()); s != "" {
			logger.Errorf("  Stdout: %s", s)
		}
		if s := strings.TrimSpace(stderr.String()); s != "" {
			logger.Errorf("  Stderr: %s", s)
		}
		return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

func isNothingToCommit(output string) bool {
	return strings.Contains(output, "nothing to commit") ||
		strings.Contains(output, "no changes added to commit") ||
		strings.Contains(output, "working tree clean")
}

func splitLines(out, sep string) []string {
	var lines []string
	for _, line := range strings.Split(out, sep) {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, strings.TrimRight(line, "\r\n"))
		}
	}
	return lines
}
