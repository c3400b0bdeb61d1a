// Package ghactions reads the GitHub Actions runner environment and writes
// step outputs.
package ghactions

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Env is the part of the runner environment the pipeline uses.
type Env struct {
	StepSummary string
	Output      string
	Repository  string
	RunID       string
	Job         string
	Token       string
	APIURL      string
}

// FromEnv reads the standard GITHUB_* variables.
func FromEnv() Env {
	return Env{
		StepSummary: os.Getenv("GITHUB_STEP_SUMMARY"),
		Output:      os.Getenv("GITHUB_OUTPUT"),
		Repository:  os.Getenv("GITHUB_REPOSITORY"),
		RunID:       os.Getenv("GITHUB_RUN_ID"),
		Job:         os.Getenv("GITHUB_JOB"),
		Token:       os.Getenv("GITHUB_TOKEN"),
		APIURL:      os.Getenv("GITHUB_API_URL"),
	}
}

// InActions reports whether the process runs on an Actions runner.
func InActions() bool { return os.Getenv("GITHUB_ACTIONS") == "true" }

// Output is one step output.
type Output struct {
	Key   string
	Value string
}

// FormatOutputs renders outputs in the GITHUB_OUTPUT file syntax. Multi-line
// values use a random heredoc delimiter.
func FormatOutputs(outs ...Output) string {
	var b strings.Builder
	for _, o := range outs {
		if strings.ContainsAny(o.Value, "\r\n") {
			delim := "ghadelimiter_" + uuid.NewString()
			fmt.Fprintf(&b, "%s<<%s\n%s\n%s\n", o.Key, delim, o.Value, delim)
			continue
		}
		fmt.Fprintf(&b, "%s=%s\n", o.Key, o.Value)
	}
	return b.String()
}

// AppendOutputs appends outs to the file at path. An empty path is a no-op,
// which is what happens outside of Actions.
func AppendOutputs(path string, outs ...Output) error {
	if path == "" || len(outs) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open step outputs: %w", err)
	}
	if _, err := f.WriteString(FormatOutputs(outs...)); err != nil {
		_ = f.Close()
		return fmt.Errorf("write step outputs: %w", err)
	}
	return f.Close()
}

// QuoteLabels joins labels as "a","b", the format expected by the labelling
// step of the workflow.
func QuoteLabels(labels []string) string {
	q := make([]string, len(labels))
	for i, l := range labels {
		q[i] = `"` + l + `"`
	}
	return strings.Join(q, ",")
}
