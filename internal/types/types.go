package types

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Severity is the ordered outcome of a check. The zero value is SevSuccess and
// the order is SevSuccess < SevWarning < SevFailure < SevException.
type Severity int

const (
	SevSuccess Severity = iota
	SevWarning
	SevFailure
	SevException
)

var severityTokens = [...]string{
	SevSuccess:   "success",
	SevWarning:   "warning",
	SevFailure:   "failure",
	SevException: "exception",
}

// String returns the persisted token for s.
func (s Severity) String() string {
	if s < SevSuccess || s > SevException {
		return fmt.Sprintf("severity(%d)", int(s))
	}
	return severityTokens[s]
}

// Glyph is the short marker used in per-artifact report rows.
func (s Severity) Glyph() string {
	switch s {
	case SevSuccess:
		return "✅ PASSED"
	case SevWarning:
		return "⚠️ WARNING"
	case SevFailure:
		return "❌ FAILURE"
	default:
		return "❌ EXCEPTION"
	}
}

// Label is the wording used for a whole job in the pull request comment.
func (s Severity) Label() string {
	switch s {
	case SevSuccess:
		return "✅  Success"
	case SevWarning:
		return "⚠️  Warning"
	case SevFailure:
		return "❌  Failure"
	default:
		return "❌  Exception"
	}
}

// AtLeast reports whether s is as severe as other or worse.
func (s Severity) AtLeast(other Severity) bool { return s >= other }

// ParseSeverity maps a persisted token back to a Severity. Surrounding
// whitespace and case are ignored.
func ParseSeverity(token string) (Severity, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	for i, name := range severityTokens {
		if name == t {
			return Severity(i), nil
		}
	}
	return SevSuccess, fmt.Errorf("unknown severity %q", token)
}

func (s Severity) MarshalText() ([]byte, error) {
	if s < SevSuccess || s > SevException {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	v, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// Merge returns the most severe of the given values, or SevSuccess when none
// are given.
func Merge(sevs ...Severity) Severity {
	out := SevSuccess
	for _, s := range sevs {
		if s > out {
			out = s
		}
	}
	return out
}

// Artifact is one input file, addressed relative to the scan root.
type Artifact struct {
	Root string `json:"-"`
	Path string `json:"path"`
}

// FullPath joins the artifact path onto its root.
func (a Artifact) FullPath() string {
	return filepath.Join(a.Root, filepath.FromSlash(a.Path))
}

// Name is the file name without directories.
func (a Artifact) Name() string {
	return filepath.Base(filepath.FromSlash(a.Path))
}

// Column describes one check-specific report column. Zero is rendered when an
// outcome carries no value for Key.
type Column struct {
	Title string
	Key   string
	Zero  string
}

// Outcome is the result of running one check against one artifact.
type Outcome struct {
	Artifact Artifact          `json:"artifact"`
	Check    string            `json:"check"`
	Severity Severity          `json:"severity"`
	Values   map[string]string `json:"values,omitempty"`
	Detail   string            `json:"detail,omitempty"` // set on SevException
}

// Value returns the metric for col, falling back to the column's zero value.
func (o Outcome) Value(col Column) string {
	if v, ok := o.Values[col.Key]; ok && v != "" {
		return v
	}
	return col.Zero
}

// MergeOutcomes reduces outcomes to their worst severity.
func MergeOutcomes(outs []Outcome) Severity {
	sev := SevSuccess
	for _, o := range outs {
		sev = Merge(sev, o.Severity)
	}
	return sev
}

// JobResult is the persisted summary of one batch run.
type JobResult struct {
	Name       string   `json:"name"`
	Severity   Severity `json:"severity"`
	ErrorLabel string   `json:"error_label,omitempty"`
	JobID      string   `json:"job_id"`
}

// AggregateReport is the outcome of reducing all job results of a pipeline run.
type AggregateReport struct {
	Jobs     []JobResult `json:"jobs"`
	Lines    []string    `json:"lines"`
	Severity Severity    `json:"severity"`
	Success  bool        `json:"success"`
	Labels   []string    `json:"labels"`
}
