// Package gitrepo reads the state of the local git repository the tool runs in.
package gitrepo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

var (
	// ErrNotRepository is returned when the directory has no .git marker.
	ErrNotRepository = errors.New("not in a git repository")
	// ErrUnbornHead is returned when HEAD points to a branch without commits.
	ErrUnbornHead = errors.New("HEAD does not point to any commit yet")
	// ErrDetachedHead is returned when HEAD is not a branch.
	ErrDetachedHead = errors.New("HEAD is detached, no branch is checked out")
)

// RepositoryError reports a failure to open or read the repository.
type RepositoryError struct {
	Op  string
	Err error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// Repository is a read-only handle on a local git repository.
type Repository struct {
	path string
	repo *git.Repository
}

// HasMarker reports whether dir contains a .git directory or file.
// A .git file is what linked worktrees and submodules use.
func HasMarker(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Open opens the repository whose working tree is dir.
func Open(dir string) (*Repository, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			err = ErrNotRepository
		}
		return nil, &RepositoryError{Op: "open repository", Err: err}
	}

	return &Repository{path: dir, repo: repo}, nil
}

// Path returns the directory the repository was opened from.
func (r *Repository) Path() string {
	return r.path
}

// CurrentBranch returns the short name of the checked out branch, e.g. "main" or "feature/x".
func (r *Repository) CurrentBranch() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			err = ErrUnbornHead
		}
		return "", &RepositoryError{Op: "resolve HEAD", Err: err}
	}

	if !head.Name().IsBranch() {
		return "", &RepositoryError{Op: "resolve HEAD", Err: ErrDetachedHead}
	}

	return head.Name().Short(), nil
}

// ConfigValue looks up section.key in the repository's local config (.git/config).
// Global (~/.gitconfig) and system config are not consulted, so the keys must be
// set with `git config --local`.
// Section and key names are matched case-insensitively, as git does.
func (r *Repository) ConfigValue(section, key string) (string, bool, error) {
	cfg, err := r.repo.Config()
	if err != nil {
		return "", false, &RepositoryError{Op: "read config", Err: err}
	}

	if !cfg.Raw.HasSection(section) {
		return "", false, nil
	}

	s := cfg.Raw.Section(section)
	if !s.HasOption(key) {
		return "", false, nil
	}

	return s.Option(key), true, nil
}
