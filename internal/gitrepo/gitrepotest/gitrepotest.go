// Package gitrepotest builds throwaway git repositories for tests.
package gitrepotest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/require"
)

// Repo is a temporary repository rooted in a test's temp dir.
type Repo struct {
	Dir  string
	Repo *git.Repository
	t    testing.TB
}

// Init creates an empty repository with an unborn HEAD.
func Init(t testing.TB) *Repo {
	t.Helper()

	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)

	return &Repo{Dir: dir, Repo: repo, t: t}
}

// SetConfig writes section.key = value into the repository's local config.
func (r *Repo) SetConfig(section, key, value string) *Repo {
	r.t.Helper()

	cfg, err := r.Repo.Config()
	require.NoError(r.t, err)

	cfg.Raw.Section(section).SetOption(key, value)
	require.NoError(r.t, r.Repo.SetConfig(cfg))

	return r
}

// SetGitLab writes the three gitlab.* keys the tool reads.
func (r *Repo) SetGitLab(server, token, project string) *Repo {
	r.t.Helper()

	return r.SetConfig("gitlab", "server", server).
		SetConfig("gitlab", "access-token", token).
		SetConfig("gitlab", "project-name", project)
}

// Commit writes a file and commits it on the current branch.
func (r *Repo) Commit(message string) plumbing.Hash {
	r.t.Helper()

	wt, err := r.Repo.Worktree()
	require.NoError(r.t, err)

	name := "README.md"
	require.NoError(r.t, os.WriteFile(filepath.Join(r.Dir, name), []byte(message+"\n"), 0o644))

	_, err = wt.Add(name)
	require.NoError(r.t, err)

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  "Test",
			Email: "test@example.com",
			When:  time.Now(),
		},
	})
	require.NoError(r.t, err)

	return hash
}

// Checkout points HEAD at branch, creating it at hash.
func (r *Repo) Checkout(branch string, hash plumbing.Hash) *Repo {
	r.t.Helper()

	name := plumbing.NewBranchReferenceName(branch)
	require.NoError(r.t, r.Repo.Storer.SetReference(plumbing.NewHashReference(name, hash)))
	require.NoError(r.t, r.Repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, name)))

	return r
}

// Detach points HEAD directly at hash.
func (r *Repo) Detach(hash plumbing.Hash) *Repo {
	r.t.Helper()

	require.NoError(r.t, r.Repo.Storer.SetReference(plumbing.NewHashReference(plumbing.HEAD, hash)))

	return r
}
