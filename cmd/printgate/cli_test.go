package printgate

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printgate/printgate/internal/checks"
	"github.com/printgate/printgate/internal/clierr"
	"github.com/printgate/printgate/internal/config"
	"github.com/printgate/printgate/internal/engine"
	"github.com/printgate/printgate/internal/github"
	"github.com/printgate/printgate/internal/result"
	"github.com/printgate/printgate/internal/types"
)

var shapeDef = checks.Definition{
	Name:       "shape",
	Title:      "Shape check summary",
	Extensions: []string{".stl"},
	New: func(checks.Settings) engine.Check {
		return engine.FuncCheck{
			ID:   "shape",
			Cols: []types.Column{{Title: "Facets", Key: "facets", Zero: "0"}},
			Fn: func(_ context.Context, a types.Artifact) (engine.Verdict, error) {
				if strings.HasSuffix(a.Path, "fail.stl") {
					return engine.Verdict{Severity: types.SevFailure, Values: map[string]string{"facets": "4"}}, nil
				}
				return engine.Verdict{Severity: types.SevSuccess}, nil
			},
		}
	},
}

func writeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("solid x\nendsolid x\n"), 0o644))
	}
	return root
}

func readFile(t *testing.T, p string) string {
	t.Helper()
	b, err := os.ReadFile(p)
	require.NoError(t, err)
	return string(b)
}

func TestExecuteCheck_ReportOutputsAndResult(t *testing.T) {
	root := writeTree(t, "alice/ok.stl", "alice/fail.stl", "bob/notes.txt")
	work := t.TempDir()
	opts := checkOptions{
		Check:           "shape",
		Input:           root,
		DefaultExcludes: true,
		NoColor:         true,
		Summary:         filepath.Join(work, "summary.md"),
		ResultDir:       filepath.Join(work, "results"),
		JobName:         "shape",
		JobID:           "77",
		ErrorLabel:      "Issue: Shape",
		GitHubOutput:    filepath.Join(work, "output"),
	}
	var stdout bytes.Buffer
	res, err := executeCheck(context.Background(), shapeDef, opts, &stdout)
	require.NoError(t, err)
	assert.Equal(t, types.SevFailure, res.Severity)
	require.Len(t, res.Outcomes, 2)

	summary := readFile(t, opts.Summary)
	assert.True(t, strings.HasPrefix(summary, "## Shape check summary\n\n| Filename | Result | Facets |\n"))
	assert.Contains(t, summary, "| alice/fail.stl | ❌ FAILURE | 4 |\n")
	assert.Contains(t, summary, "| alice/ok.stl | ✅ PASSED | 0 |\n")
	assert.NotContains(t, summary, "notes.txt")

	assert.Equal(t, "shape-severity=failure\n", readFile(t, opts.GitHubOutput))
	assert.Contains(t, stdout.String(), "alice/fail.stl")

	got, err := result.NewStore(opts.ResultDir).Read("shape")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, types.JobResult{Name: "shape", Severity: types.SevFailure, ErrorLabel: "Issue: Shape", JobID: "77"}, *got)
}

func TestExecuteCheck_FailOnErrorGates(t *testing.T) {
	root := writeTree(t, "alice/fail.stl")
	_, err := executeCheck(context.Background(), shapeDef, checkOptions{Check: "shape", Input: root, NoColor: true, FailOnError: true}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, clierr.CodeGate, clierr.ExitCodeOf(err))

	root = writeTree(t, "alice/ok.stl")
	_, err = executeCheck(context.Background(), shapeDef, checkOptions{Check: "shape", Input: root, NoColor: true, FailOnError: true}, &bytes.Buffer{})
	assert.NoError(t, err)
}

func TestExecuteCheck_NoArtifactsSkips(t *testing.T) {
	root := writeTree(t, "alice/readme.md")
	work := t.TempDir()
	opts := checkOptions{
		Check:        "shape",
		Input:        root,
		NoColor:      true,
		FailOnError:  true,
		Summary:      filepath.Join(work, "summary.md"),
		ResultDir:    filepath.Join(work, "results"),
		JobID:        "9",
		GitHubOutput: filepath.Join(work, "output"),
	}
	var stdout bytes.Buffer
	res, err := executeCheck(context.Background(), shapeDef, opts, &stdout)
	require.NoError(t, err)
	assert.True(t, res.Skipped)
	_, statErr := os.Stat(filepath.Join(opts.ResultDir, "shape", result.FileResult))
	assert.True(t, os.IsNotExist(statErr), "skipped batch must not persist a result")
	persisted, err := result.NewStore(opts.ResultDir).Read("shape")
	require.NoError(t, err)
	assert.Nil(t, persisted)
	assert.Contains(t, stdout.String(), "skipped")
	_, statErr = os.Stat(opts.Summary)
	assert.True(t, os.IsNotExist(statErr), "no report file expected")
	assert.Equal(t, "shape-severity=success\n", readFile(t, opts.GitHubOutput))
}

func TestExecuteCheck_MissingRootIsFatal(t *testing.T) {
	_, err := executeCheck(context.Background(), shapeDef, checkOptions{Input: filepath.Join(t.TempDir(), "absent")}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, clierr.CodeFatal, clierr.ExitCodeOf(err))
}

func TestExecuteCheck_CapAddsNoteAndSARIF(t *testing.T) {
	root := writeTree(t, "a/1.stl", "a/2-fail.stl", "b/3.stl")
	work := t.TempDir()
	opts := checkOptions{
		Check:        "shape",
		Input:        root,
		MaxArtifacts: 2,
		NoColor:      true,
		Summary:      filepath.Join(work, "summary.md"),
		SARIF:        filepath.Join(work, "out.sarif"),
	}
	res, err := executeCheck(context.Background(), shapeDef, opts, &bytes.Buffer{})
	require.NoError(t, err)
	require.Len(t, res.Outcomes, 2)
	assert.Equal(t, "a/1.stl", res.Outcomes[0].Artifact.Path)
	assert.Contains(t, readFile(t, opts.Summary), "> ⚠️ Excessive amount of artifacts (3) detected, only the first 2 were checked\n")
	assert.Contains(t, readFile(t, opts.SARIF), `"uri": "a/2-fail.stl"`)
}

type fakePR struct {
	jobs    []github.Job
	listErr error
	pr      int
	comment string
	labels  []string
}

func (f *fakePR) ListRunJobs(context.Context, int64) ([]github.Job, error) { return f.jobs, f.listErr }

func (f *fakePR) PostComment(_ context.Context, pr int, body string) error {
	f.pr, f.comment = pr, body
	return nil
}

func (f *fakePR) SetLabels(_ context.Context, _ int, labels []string) error {
	f.labels = labels
	return nil
}

func seedRun(t *testing.T, results ...types.JobResult) string {
	t.Helper()
	dir := t.TempDir()
	for name, v := range map[string]string{"ready_label": "Ready for review", "pr_number": "12", "action_run_id": "555"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(v+"\n"), 0o644))
	}
	s := result.NewStore(dir)
	for _, r := range results {
		require.NoError(t, s.Write(r))
	}
	return dir
}

func TestExecuteAggregate_PostsCommentAndLabels(t *testing.T) {
	dir := seedRun(t,
		types.JobResult{Name: "corruption", Severity: types.SevSuccess, ErrorLabel: "Issue: Corrupt STL", JobID: "1"},
		types.JobResult{Name: "rotation", Severity: types.SevWarning, ErrorLabel: "Issue: STL rotation", JobID: "2"},
	)
	out := filepath.Join(t.TempDir(), "output")
	commentFile := filepath.Join(t.TempDir(), "comment.md")
	client := &fakePR{}
	rep, err := executeAggregate(context.Background(), aggregateOptions{
		Input:        dir,
		OutFile:      commentFile,
		Repository:   "acme/mods",
		Post:         true,
		NoColor:      true,
		GitHubOutput: out,
		Client:       client,
	}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.False(t, rep.Success)
	assert.Equal(t, []string{"Issue: STL rotation"}, rep.Labels)

	assert.Equal(t, 12, client.pr)
	assert.Equal(t, []string{"Issue: STL rotation"}, client.labels)
	assert.Equal(t, readFile(t, commentFile), client.comment)
	assert.Contains(t, client.comment, "| rotation | ⚠️  Warning | [Summary](https://github.com/acme/mods/actions/runs/555#summary-2) |")

	outputs := readFile(t, out)
	assert.Contains(t, outputs, "labels-to-set=\"Issue: STL rotation\"\n")
	assert.Contains(t, outputs, "pr-number=12\n")
}

func TestExecuteAggregate_AllSuccessIsReady(t *testing.T) {
	dir := seedRun(t, types.JobResult{Name: "corruption", Severity: types.SevSuccess, JobID: "1"})
	rep, err := executeAggregate(context.Background(), aggregateOptions{Input: dir, FailOnError: true, NoColor: true}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.True(t, rep.Success)
	assert.Equal(t, []string{"Ready for review"}, rep.Labels)
}

func TestExecuteAggregate_FailOnError(t *testing.T) {
	dir := seedRun(t, types.JobResult{Name: "metadata", Severity: types.SevFailure, JobID: "3"})
	_, err := executeAggregate(context.Background(), aggregateOptions{Input: dir, FailOnError: true, NoColor: true}, &bytes.Buffer{})
	assert.Equal(t, clierr.CodeGate, clierr.ExitCodeOf(err))
}

func TestExecuteAggregate_APIFailureIsFatal(t *testing.T) {
	dir := seedRun(t)
	_, err := executeAggregate(context.Background(), aggregateOptions{
		Input:       dir,
		JobsFromAPI: true,
		NoColor:     true,
		Client:      &fakePR{listErr: errors.New("502 bad gateway")},
	}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, clierr.CodeFatal, clierr.ExitCodeOf(err))
}

func TestExecuteAggregate_MissingRunInfoIsFatal(t *testing.T) {
	_, err := executeAggregate(context.Background(), aggregateOptions{Input: t.TempDir(), NoColor: true}, &bytes.Buffer{})
	assert.Equal(t, clierr.CodeFatal, clierr.ExitCodeOf(err))
}

func TestExecuteAggregate_ReadyLabelFromOptions(t *testing.T) {
	dir := seedRun(t, types.JobResult{Name: "corruption", Severity: types.SevSuccess, JobID: "1"})
	require.NoError(t, os.Remove(filepath.Join(dir, "ready_label")))

	_, err := executeAggregate(context.Background(), aggregateOptions{Input: dir, NoColor: true}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Equal(t, clierr.CodeFatal, clierr.ExitCodeOf(err))

	rep, err := executeAggregate(context.Background(), aggregateOptions{Input: dir, ReadyLabel: "Ship it", NoColor: true}, &bytes.Buffer{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ship it"}, rep.Labels)
}

func TestErrorLabelFor(t *testing.T) {
	local := config.FileConfig{ErrorLabels: map[string]string{"rotation": "local"}}
	global := config.FileConfig{ErrorLabels: map[string]string{"rotation": "global", "metadata": "global-md"}}
	assert.Equal(t, "flag", errorLabelFor("rotation", "flag", local, global))
	assert.Equal(t, "local", errorLabelFor("rotation", "", local, global))
	assert.Equal(t, "global-md", errorLabelFor("metadata", "", local, global))
	assert.Equal(t, "", errorLabelFor("corruption", "", local, global))
}

func TestEffectiveConfig_LocalOverGlobal(t *testing.T) {
	local := config.FileConfig{Threads: intPtr(4), ReadyLabel: strPtr("Ship it")}
	global := config.FileConfig{
		Threads:         intPtr(2),
		MaxArtifacts:    intPtr(10),
		DefaultExcludes: boolPtr(false),
		ErrorLabels:     map[string]string{"rotation": "Issue: STL rotation"},
	}
	eff := effectiveConfig(local, global)
	assert.Equal(t, 4, *eff.Threads)
	assert.Equal(t, 10, *eff.MaxArtifacts)
	assert.False(t, *eff.DefaultExcludes)
	assert.Equal(t, "Ship it", *eff.ReadyLabel)
	assert.Equal(t, "Issue: STL rotation", eff.ErrorLabels["rotation"])
	assert.Equal(t, config.DefaultThumbnailSize, *eff.Image.Size)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{".stl", ".3mf"}, splitList(" .stl, ,.3mf "))
	assert.Nil(t, splitList(""))
}

func TestCompletion_EveryAdvertisedShell(t *testing.T) {
	for _, shell := range completionShells {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs([]string{"completion", shell})
		require.NoError(t, rootCmd.Execute(), shell)
		assert.NotEmpty(t, out.String(), shell)
	}
	rootCmd.SetArgs([]string{"completion", "tcsh"})
	assert.Error(t, rootCmd.Execute())
	rootCmd.SetOut(nil)
	rootCmd.SetArgs(nil)
}
