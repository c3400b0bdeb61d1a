package aggregate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/printgate/printgate/internal/types"
)

const (
	commentPreamble = " Hi, thank you for submitting your PR.\n" +
		"Please find below the results of the automated PR checker:\n\n" +
		"| Task | Result | Summary Link | Logs |\n" +
		"| ------ | ---- | ---- | ---- |\n"
	closingSuccess = "Congratulations, all checks have completed successfully! Your PR is now ready for review!"
	closingFailure = "Some checks have failed or produced warnings for your PR. " +
		"Please refer to the individual step summaries to find out what the errors were and how to fix them!"
	signature = "I am a 🤖, this comment was generated automatically!"
)

// Run metadata files written next to the job directories.
const (
	FileReadyLabel = "ready_label"
	FilePRNumber   = "pr_number"
	FileRunID      = "action_run_id"
)

// RunInfo is the metadata of the pipeline run being aggregated.
type RunInfo struct {
	ReadyLabel string
	PRNumber   string
	RunID      string
}

// ReadRunInfo loads the run metadata files from dir. The PR number and run id
// are required; a missing ready_label file leaves ReadyLabel empty so the
// label can come from flags or config.
func ReadRunInfo(dir string) (RunInfo, error) {
	var info RunInfo
	for _, f := range []struct {
		name     string
		dst      *string
		optional bool
	}{
		{FileReadyLabel, &info.ReadyLabel, true},
		{FilePRNumber, &info.PRNumber, false},
		{FileRunID, &info.RunID, false},
	} {
		b, err := os.ReadFile(filepath.Join(dir, f.name))
		if f.optional && errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return RunInfo{}, fmt.Errorf("read run metadata: %w", err)
		}
		*f.dst = strings.TrimSpace(string(b))
	}
	return info, nil
}

// Options controls link building and the label decision.
type Options struct {
	Repository string // owner/name
	RunID      string
	ServerURL  string // defaults to https://github.com
	ReadyLabel string
}

func (o Options) server() string {
	if o.ServerURL == "" {
		return "https://github.com"
	}
	return strings.TrimSuffix(o.ServerURL, "/")
}

// SummaryLink points at the job's step summary on the run page.
func (o Options) SummaryLink(jobID string) string {
	return fmt.Sprintf("[Summary](%s/%s/actions/runs/%s#summary-%s)", o.server(), o.Repository, o.RunID, jobID)
}

// LogsLink points at the job's log page.
func (o Options) LogsLink(jobID string) string {
	return fmt.Sprintf("[Logs](%s/%s/actions/runs/%s/job/%s)", o.server(), o.Repository, o.RunID, jobID)
}

// Aggregate merges every present job of reg into one report. Overall success
// holds iff the merged severity is Success. Labels are then the ready label
// alone; otherwise they are the error labels of all non-Success jobs with
// empty labels dropped and duplicates collapsed in first-seen order.
func Aggregate(reg Registry, opts Options) types.AggregateReport {
	jobs := reg.Present()
	rep := types.AggregateReport{Jobs: jobs, Lines: []string{}, Labels: []string{}}
	sevs := make([]types.Severity, 0, len(jobs))
	for _, j := range jobs {
		sevs = append(sevs, j.Severity)
		rep.Lines = append(rep.Lines, fmt.Sprintf("| %s | %s | %s | %s |",
			j.Name, j.Severity.Label(), opts.SummaryLink(j.JobID), opts.LogsLink(j.JobID)))
	}
	rep.Severity = types.Merge(sevs...)
	rep.Success = rep.Severity == types.SevSuccess

	if rep.Success {
		if opts.ReadyLabel != "" {
			rep.Labels = append(rep.Labels, opts.ReadyLabel)
		}
		return rep
	}
	seen := map[string]bool{}
	for _, j := range jobs {
		if j.Severity == types.SevSuccess || j.ErrorLabel == "" || seen[j.ErrorLabel] {
			continue
		}
		seen[j.ErrorLabel] = true
		rep.Labels = append(rep.Labels, j.ErrorLabel)
	}
	return rep
}

// Comment renders the pull request comment for rep.
func Comment(rep types.AggregateReport) string {
	var b strings.Builder
	b.WriteString(commentPreamble)
	for _, l := range rep.Lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
	b.WriteString("\n\n")
	if rep.Success {
		b.WriteString(closingSuccess)
	} else {
		b.WriteString(closingFailure)
	}
	b.WriteString("\n\n")
	b.WriteString(signature)
	return b.String()
}
