// Package git answers the few repository questions the pipeline asks: where
// the repository is, what it is called and when a path last changed.
package git

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNoHistory is returned by LastChanged for paths no commit touched.
var ErrNoHistory = errors.New("path has no history")

// validateRoot validates and normalizes a repository root path.
func validateRoot(root string) (string, error) {
	if strings.ContainsRune(root, 0) {
		return "", fmt.Errorf("invalid path: contains null byte")
	}
	abs, err := filepath.Abs(filepath.Clean(root))
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("cannot access path %q: %w", root, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", root)
	}
	return abs, nil
}

// Repo is an opened repository together with the directory it was opened
// from.
type Repo struct {
	repo     *gogit.Repository
	worktree string
	prefix   string // slash path of the opening directory inside the worktree
}

// Open finds the repository containing dir.
func Open(dir string) (*Repo, error) {
	abs, err := validateRoot(dir)
	if err != nil {
		return nil, err
	}
	r, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository at %s: %w", dir, err)
	}
	wt, err := r.Worktree()
	if err != nil {
		return nil, err
	}
	top, err := filepath.EvalSymlinks(wt.Filesystem.Root())
	if err != nil {
		return nil, err
	}
	cur, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(top, cur)
	if err != nil {
		return nil, err
	}
	prefix := filepath.ToSlash(rel)
	if prefix == "." {
		prefix = ""
	}
	return &Repo{repo: r, worktree: top, prefix: prefix}, nil
}

// Metadata returns (repo, commit, branch) best-effort. repo is the owner/name
// part of the origin URL when it can be derived.
func (r *Repo) Metadata() (string, string, string) {
	repo := ""
	if remote, err := r.repo.Remote("origin"); err == nil && len(remote.Config().URLs) > 0 {
		repo = shortRemote(remote.Config().URLs[0])
	}
	commit, branch := "", ""
	if head, err := r.repo.Head(); err == nil {
		commit = head.Hash().String()
		if head.Name().IsBranch() {
			branch = head.Name().Short()
		}
	}
	return repo, commit, branch
}

func shortRemote(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".git")
	if i := strings.Index(s, "github.com/"); i >= 0 {
		return s[i+len("github.com/"):]
	}
	if i := strings.LastIndex(s, ":"); i >= 0 {
		return s[i+1:]
	}
	return s
}

// LastChanged returns the committer time of the newest commit reachable from
// HEAD that touched rel, a slash path relative to the directory the Repo was
// opened from. A directory matches every file below it.
func (r *Repo) LastChanged(rel string) (time.Time, error) {
	target := strings.Trim(pathJoin(r.prefix, rel), "/")
	head, err := r.repo.Head()
	if err != nil {
		return time.Time{}, err
	}
	iter, err := r.repo.Log(&gogit.LogOptions{
		From:  head.Hash(),
		Order: gogit.LogOrderCommitterTime,
		PathFilter: func(p string) bool {
			return target == "" || p == target || strings.HasPrefix(p, target+"/")
		},
	})
	if err != nil {
		return time.Time{}, err
	}
	defer iter.Close()
	c, err := iter.Next()
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", rel, ErrNoHistory)
	}
	return commitTime(c), nil
}

func commitTime(c *object.Commit) time.Time {
	if !c.Committer.When.IsZero() {
		return c.Committer.When
	}
	return c.Author.When
}

func pathJoin(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "" || b == ".":
		return a
	}
	return a + "/" + b
}
