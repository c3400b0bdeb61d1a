package ghactions

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendOutputs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output")
	require.NoError(t, os.WriteFile(path, []byte("existing=1\n"), 0o644))

	require.NoError(t, AppendOutputs(path,
		Output{Key: "labels-to-set", Value: QuoteLabels([]string{"Issue: Corrupt STL", "Warning: Rotation"})},
		Output{Key: "pr-number", Value: "17"},
	))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "existing=1\nlabels-to-set=\"Issue: Corrupt STL\",\"Warning: Rotation\"\npr-number=17\n", string(b))
}

func TestFormatOutputs_Multiline(t *testing.T) {
	out := FormatOutputs(Output{Key: "comment", Value: "line1\nline2"})
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "comment<<ghadelimiter_"))
	assert.Equal(t, strings.TrimPrefix(lines[0], "comment<<"), lines[3])
}

func TestAppendOutputs_NoPath(t *testing.T) {
	assert.NoError(t, AppendOutputs("", Output{Key: "a", Value: "b"}))
}

func TestFromEnv(t *testing.T) {
	t.Setenv("GITHUB_REPOSITORY", "acme/mods")
	t.Setenv("GITHUB_RUN_ID", "99")
	env := FromEnv()
	assert.Equal(t, "acme/mods", env.Repository)
	assert.Equal(t, "99", env.RunID)
	assert.Equal(t, "", QuoteLabels(nil))
}
