package printgate

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/printgate/printgate/internal/aggregate"
	"github.com/printgate/printgate/internal/clierr"
	"github.com/printgate/printgate/internal/ghactions"
	"github.com/printgate/printgate/internal/github"
	"github.com/printgate/printgate/internal/report"
	"github.com/printgate/printgate/internal/result"
	"github.com/printgate/printgate/internal/types"
)

// prClient is the GitHub capability the aggregation step needs.
type prClient interface {
	aggregate.RunJobsClient
	PostComment(ctx context.Context, pr int, body string) error
	SetLabels(ctx context.Context, pr int, labels []string) error
}

type aggregateOptions struct {
	Input        string
	OutFile      string
	Repository   string
	ServerURL    string
	ReadyLabel   string // overrides the ready_label file when set
	JobsFromAPI  bool
	Post         bool
	FailOnError  bool
	NoColor      bool
	GitHubOutput string

	Client prClient // required for JobsFromAPI and Post
}

var (
	flagAggInput       string
	flagAggOutFile     string
	flagAggRepository  string
	flagAggReadyLabel  string
	flagAggJobsFromAPI bool
	flagAggPost        bool
	flagAggFailOnError bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Merge all job results of a run into a PR comment and label set",
		Long: "Reads ready_label, pr_number and action_run_id plus one result directory per job from the input " +
			"directory, renders the PR comment and writes labels-to-set and pr-number as step outputs.",
		RunE: runAggregate,
		Example: `
# Render the comment into a file for a later workflow step
printgate aggregate -i results --out-file comment.md

# List jobs from the Actions API, post the comment and set labels
printgate aggregate -i results --jobs-from-api --post
`,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagAggInput, "input", "i", ".", "directory holding run metadata and job results")
	cmd.Flags().StringVar(&flagAggOutFile, "out-file", "", "write the PR comment to this file")
	cmd.Flags().StringVar(&flagAggRepository, "repository", "", "owner/name (default $GITHUB_REPOSITORY)")
	cmd.Flags().StringVar(&flagAggReadyLabel, "ready-label", "", "label set when every job succeeded (default: ready_label file)")
	cmd.Flags().BoolVar(&flagAggJobsFromAPI, "jobs-from-api", false, "discover jobs through the GitHub Actions API instead of the input directory")
	cmd.Flags().BoolVar(&flagAggPost, "post", false, "post the comment and set the labels on the pull request")
	cmd.Flags().BoolVarP(&flagAggFailOnError, "fail-on-error", "f", false, "exit non-zero unless every job succeeded")
}

func runAggregate(cmd *cobra.Command, _ []string) error {
	abs, err := filepath.Abs(flagAggInput)
	if err != nil {
		return clierr.Wrap(clierr.CodeFatal, "resolve input", err)
	}
	lcfg, gcfg := loadConfigs(".")
	env := ghactions.FromEnv()
	opts := aggregateOptions{
		Input:        abs,
		OutFile:      flagAggOutFile,
		Repository:   pickString(flagAggRepository, strPtr(env.Repository), nil),
		ServerURL:    os.Getenv("GITHUB_SERVER_URL"),
		ReadyLabel:   pickString(flagAggReadyLabel, lcfg.ReadyLabel, gcfg.ReadyLabel),
		JobsFromAPI:  flagAggJobsFromAPI,
		Post:         flagAggPost,
		FailOnError:  pickBool(flagAggFailOnError, lcfg.FailOnError, gcfg.FailOnError),
		NoColor:      flagNoColor || !report.ColorEnabled(os.Stdout),
		GitHubOutput: env.Output,
	}
	if opts.JobsFromAPI || opts.Post {
		c, err := github.New(cmd.Context(), env.Token, env.APIURL, opts.Repository)
		if err != nil {
			return clierr.Wrap(clierr.CodeFatal, "github client", err)
		}
		opts.Client = c
	}
	_, err = executeAggregate(cmd.Context(), opts, cmd.OutOrStdout())
	return err
}

// executeAggregate runs one aggregation pass. Only unreadable run metadata
// and a failed job listing are fatal; individual jobs that cannot be read
// are skipped.
func executeAggregate(ctx context.Context, opts aggregateOptions, stdout io.Writer) (types.AggregateReport, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	info, err := aggregate.ReadRunInfo(opts.Input)
	if err != nil {
		return types.AggregateReport{}, clierr.Wrap(clierr.CodeFatal, "aggregate", err)
	}
	ready := opts.ReadyLabel
	if ready == "" {
		ready = info.ReadyLabel
	}
	if ready == "" {
		return types.AggregateReport{}, clierr.Newf(clierr.CodeFatal,
			"no ready label: add %s to the input directory, pass --ready-label or set ready_label in the config", aggregate.FileReadyLabel)
	}

	var lister aggregate.Lister = aggregate.DirLister{Dir: opts.Input}
	if opts.JobsFromAPI {
		runID, err := strconv.ParseInt(info.RunID, 10, 64)
		if err != nil {
			return types.AggregateReport{}, clierr.Wrapf(clierr.CodeFatal, err, "invalid run id %q", info.RunID)
		}
		lister = aggregate.APILister{Client: opts.Client, RunID: runID}
	}
	reg, err := aggregate.Collect(ctx, lister, result.NewStore(opts.Input))
	if err != nil {
		return types.AggregateReport{}, clierr.Wrap(clierr.CodeFatal, "aggregate", err)
	}

	rep := aggregate.Aggregate(reg, aggregate.Options{
		Repository: opts.Repository,
		RunID:      info.RunID,
		ServerURL:  opts.ServerURL,
		ReadyLabel: ready,
	})
	comment := aggregate.Comment(rep)
	report.PrintJobs(stdout, rep, report.PrintOptions{NoColor: opts.NoColor})

	if opts.OutFile != "" {
		if err := os.WriteFile(opts.OutFile, []byte(comment), 0o644); err != nil {
			return rep, fmt.Errorf("write comment: %w", err)
		}
	}
	if err := ghactions.AppendOutputs(opts.GitHubOutput,
		ghactions.Output{Key: "labels-to-set", Value: ghactions.QuoteLabels(rep.Labels)},
		ghactions.Output{Key: "pr-number", Value: info.PRNumber},
	); err != nil {
		return rep, err
	}

	if opts.Post {
		if err := publish(ctx, opts.Client, info.PRNumber, comment, rep.Labels); err != nil {
			return rep, clierr.Wrap(clierr.CodeFatal, "publish", err)
		}
	}

	if report.ShouldFail(rep.Severity, opts.FailOnError) {
		return rep, clierr.Newf(clierr.CodeGate, "aggregated severity is %s", rep.Severity)
	}
	return rep, nil
}

func publish(ctx context.Context, c prClient, prNumber, comment string, labels []string) error {
	pr, err := strconv.Atoi(prNumber)
	if err != nil {
		return fmt.Errorf("invalid pr number %q: %w", prNumber, err)
	}
	if err := c.PostComment(ctx, pr, comment); err != nil {
		return err
	}
	if err := c.SetLabels(ctx, pr, labels); err != nil {
		return err
	}
	logrus.WithField("pr", pr).Infof("comment posted, labels set: %v", labels)
	return nil
}

