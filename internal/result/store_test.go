package result

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printgate/printgate/internal/types"
)

func TestStore_WriteRead(t *testing.T) {
	s := NewStore(t.TempDir())
	in := types.JobResult{Name: "corruption", Severity: types.SevFailure, ErrorLabel: "Issue: Corrupt STL", JobID: "1234"}
	require.NoError(t, s.Write(in))

	b, err := os.ReadFile(filepath.Join(s.Dir("corruption"), FileResult))
	require.NoError(t, err)
	assert.Equal(t, "failure", string(b))

	got, err := s.Read("corruption")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, in, *got)
}

func TestStore_OverwriteReplaces(t *testing.T) {
	s := NewStore(t.TempDir())
	require.NoError(t, s.Write(types.JobResult{Name: "rotation", Severity: types.SevWarning, ErrorLabel: "Warning: Rotation"}))
	require.NoError(t, s.Write(types.JobResult{Name: "rotation", Severity: types.SevSuccess}))
	got, err := s.Read("rotation")
	require.NoError(t, err)
	assert.Equal(t, types.SevSuccess, got.Severity)
	assert.Empty(t, got.ErrorLabel)

	entries, err := os.ReadDir(s.Dir("rotation"))
	require.NoError(t, err)
	assert.Len(t, entries, 3, "temporary files must not be left behind")
}

func TestStore_ReadMissingJob(t *testing.T) {
	s := NewStore(t.TempDir())
	got, err := s.Read("never-ran")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestStore_ReadHandWrittenRecords(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "metadata")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileResult), []byte("  Warning\n"), 0o644))

	got, err := NewStore(root).Read("metadata")
	require.NoError(t, err)
	assert.Equal(t, types.SevWarning, got.Severity)
	assert.Empty(t, got.JobID)
}

func TestStore_ReadErrors(t *testing.T) {
	root := t.TempDir()
	s := NewStore(root)

	require.NoError(t, os.MkdirAll(s.Dir("empty"), 0o755))
	_, err := s.Read("empty")
	assert.ErrorIs(t, err, ErrNoResult)

	require.NoError(t, os.MkdirAll(s.Dir("bad"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir("bad"), FileResult), []byte("passed"), 0o644))
	_, err = s.Read("bad")
	assert.Error(t, err)
}

func TestValidateJobName(t *testing.T) {
	for _, name := range []string{"", " ", ".", "..", "a/b", `a\b`} {
		assert.Error(t, ValidateJobName(name), name)
	}
	assert.NoError(t, ValidateJobName("stl-corruption"))
	assert.Error(t, NewStore(t.TempDir()).Write(types.JobResult{Name: "../escape"}))
}
