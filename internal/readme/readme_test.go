package readme

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShorten(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"Short title", 35, "Short title"},
		{"  spaced    out  ", 35, "spaced out"},
		{"Hello world!", 11, "Hello..."},
		{"An extremely long mod title that keeps going", 35, "An extremely long mod title that..."},
		{"Supercalifragilistic", 5, "..."},
	}
	for _, tt := range tests {
		got := Shorten(tt.in, tt.width)
		assert.Equal(t, tt.want, got, tt.in)
		assert.LessOrEqual(t, len([]rune(got)), tt.width)
	}
}

type fakeHistory map[string]time.Time

func (f fakeHistory) LastChanged(rel string) (time.Time, error) {
	if t, ok := f[rel]; ok {
		return t, nil
	}
	return time.Time{}, errors.New("no history")
}

func writeMeta(t *testing.T, root, dir, body string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(dir), ".metadata.yml")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func TestCollectAndTable(t *testing.T) {
	root := t.TempDir()
	writeMeta(t, root, "bob/duct", "title: Duct\ndescription: Better cooling\nprinter_compatibility: [V2]\n")
	writeMeta(t, root, "alice/fan", "title: Fan\ndescription: Quiet fan | mount\nprinter_compatibility: [Trident, V0]\n")
	writeMeta(t, root, "alice/belt", "title: Belt\ndescription: Tensioner\nprinter_compatibility: []\n")

	when := time.Date(2024, 5, 9, 12, 30, 0, 0, time.UTC)
	mods, err := Collect(root, fakeHistory{"alice/fan": when})
	require.NoError(t, err)
	require.Len(t, mods, 3)
	assert.Equal(t, "alice/belt", mods[0].Path)
	assert.Equal(t, "alice", mods[1].Creator)
	assert.Equal(t, "Trident, V0", mods[1].PrinterCompatibility)
	assert.Equal(t, when.Local().Format(TimeLayout), mods[1].LastChanged)
	assert.Empty(t, mods[0].LastChanged)

	lines := strings.Split(strings.TrimSuffix(Table(mods), "\n"), "\n")
	require.Len(t, lines, 5)
	assert.True(t, strings.HasPrefix(lines[2], "| alice | [Belt](alice/belt) |"))
	assert.True(t, strings.HasPrefix(lines[3], "|  | [Fan](alice/fan) | Quiet fan \\| mount |"))
	assert.True(t, strings.HasPrefix(lines[4], "| bob | [Duct](bob/duct) |"))
}

func TestCollect_BadMetadata(t *testing.T) {
	root := t.TempDir()
	writeMeta(t, root, "alice/fan", "title: [oops\n")
	_, err := Collect(root, nil)
	assert.Error(t, err)
}

func TestReplaceSection(t *testing.T) {
	doc := []byte("# Mods\n\nintro\n" + BeginMarker + "\nold table\n" + EndMarker + "\nfooter\n")
	got := string(ReplaceSection(doc, "new table\n"))
	assert.Equal(t, "# Mods\n\nintro\n"+BeginMarker+"\nnew table\n"+EndMarker+"\nfooter\n", got)

	appended := string(ReplaceSection([]byte("# Mods"), "t\n"))
	assert.Equal(t, "# Mods\n\n"+BeginMarker+"\nt\n"+EndMarker+"\n", appended)
}

func TestUpdateFileAndJSON(t *testing.T) {
	dir := t.TempDir()
	mods := []Mod{{Path: "a/b", Title: "T", Creator: "a"}}
	readmePath := filepath.Join(dir, "README.md")
	require.NoError(t, UpdateFile(readmePath, mods))
	require.NoError(t, UpdateFile(readmePath, mods))
	b, err := os.ReadFile(readmePath)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(b), BeginMarker))
	assert.Contains(t, string(b), "[T](a/b)")

	jsonPath := filepath.Join(dir, "mods.json")
	require.NoError(t, WriteJSON(jsonPath, mods))
	var back []Mod
	raw, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, mods, back)
}
