package git

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitFile(t *testing.T, r *gogit.Repository, dir, rel string, when time.Time) {
	t.Helper()
	p := filepath.Join(dir, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(rel+when.String()), 0o644))
	wt, err := r.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(rel)
	require.NoError(t, err)
	sig := &object.Signature{Name: "tester", Email: "test@example.com", When: when}
	_, err = wt.Commit("update "+rel, &gogit.CommitOptions{Author: sig, Committer: sig})
	require.NoError(t, err)
}

func TestLastChanged(t *testing.T) {
	dir := t.TempDir()
	r, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 5, 9, 12, 30, 0, 0, time.UTC)
	commitFile(t, r, dir, "mods/alice/fan/.metadata.yml", t1)
	commitFile(t, r, dir, "mods/bob/duct/.metadata.yml", t2)

	repo, err := Open(filepath.Join(dir, "mods"))
	require.NoError(t, err)

	got, err := repo.LastChanged("alice/fan")
	require.NoError(t, err)
	assert.True(t, got.Equal(t1), "got %s", got)

	got, err = repo.LastChanged("bob")
	require.NoError(t, err)
	assert.True(t, got.Equal(t2), "got %s", got)

	_, err = repo.LastChanged("carol")
	assert.ErrorIs(t, err, ErrNoHistory)
}

func TestMetadata(t *testing.T) {
	dir := t.TempDir()
	r, err := gogit.PlainInit(dir, false)
	require.NoError(t, err)
	commitFile(t, r, dir, "README.md", time.Now())
	_, err = r.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{"git@github.com:acme/mods.git"}})
	require.NoError(t, err)

	repo, err := Open(dir)
	require.NoError(t, err)
	name, commit, branch := repo.Metadata()
	assert.Equal(t, "acme/mods", name)
	assert.Len(t, commit, 40)
	assert.NotEmpty(t, branch)
}

func TestOpen_NotARepo(t *testing.T) {
	_, err := Open(t.TempDir())
	assert.Error(t, err)
	_, err = Open(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestShortRemote(t *testing.T) {
	assert.Equal(t, "acme/mods", shortRemote("https://github.com/acme/mods.git"))
	assert.Equal(t, "acme/mods", shortRemote("git@github.com:acme/mods.git"))
}
