package printgate

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/printgate/printgate/internal/checks"
	"github.com/printgate/printgate/internal/clierr"
	"github.com/printgate/printgate/internal/config"
	"github.com/printgate/printgate/internal/engine"
	"github.com/printgate/printgate/internal/ghactions"
	"github.com/printgate/printgate/internal/report"
	"github.com/printgate/printgate/internal/result"
	"github.com/printgate/printgate/internal/types"
)

// checkOptions are the resolved inputs of one batch.
type checkOptions struct {
	Check           string
	Input           string
	Output          string
	MaxArtifacts    int
	Extensions      string
	Include         string
	Exclude         string
	DefaultExcludes bool
	Threads         int
	FailOnError     bool
	NoColor         bool
	Summary         string // Markdown report path, "" = none
	SARIF           string
	ResultDir       string
	JobName         string
	JobID           string
	ErrorLabel      string
	GitHubOutput    string

	Settings checks.Settings
}

var (
	flagInput           string
	flagOutput          string
	flagMaxArtifacts    int
	flagExtensions      string
	flagInclude         string
	flagExclude         string
	flagDefaultExcludes bool
	flagFailOnError     bool
	flagSummary         string
	flagSARIF           string
	flagResultDir       string
	flagJobName         string
	flagJobID           string
	flagErrorLabel      string
)

func init() {
	cmd := &cobra.Command{
		Use:   "check <name>",
		Short: "Run one check over every matching artifact",
		Long: "Run one check (" + fmt.Sprint(checks.Names()) + ") over every matching artifact under the input " +
			"directory, write the Markdown summary and optionally persist the job result.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: checks.Names(),
		RunE:      runCheck,
		Example: `
# Check every STL for corruption and write repaired copies
printgate check corruption -i designs -o repaired --fail-on-error

# Suggest orientations for at most 10 meshes and record the job result
printgate check rotation -i designs -o out --max-artifacts 10 --result-dir results --job-name rotation
`,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagInput, "input", "i", ".", "directory to search for artifacts")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "directory for repaired meshes and rendered images")
	cmd.Flags().IntVar(&flagMaxArtifacts, "max-artifacts", 0, "check at most this many artifacts (0 = check default)")
	cmd.Flags().StringVar(&flagExtensions, "extensions", "", "comma-separated artifact suffixes (default per check)")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().BoolVar(&flagDefaultExcludes, "default-excludes", true, "skip VCS and build directories")
	cmd.Flags().BoolVarP(&flagFailOnError, "fail-on-error", "f", false, "exit non-zero when the merged severity is above success")
	cmd.Flags().StringVar(&flagSummary, "summary", "", "Markdown report path (default $GITHUB_STEP_SUMMARY)")
	cmd.Flags().StringVar(&flagSARIF, "sarif", "", "also write non-success outcomes as SARIF 2.1.0 to this file")
	cmd.Flags().StringVar(&flagResultDir, "result-dir", "", "persist the job result under this directory")
	cmd.Flags().StringVar(&flagJobName, "job-name", "", "job name used when persisting (default: check name)")
	cmd.Flags().StringVar(&flagJobID, "job-id", "", "job id used for summary links (default $GITHUB_JOB)")
	cmd.Flags().StringVar(&flagErrorLabel, "error-label", "", "PR label applied when this job does not succeed")
}

func runCheck(cmd *cobra.Command, args []string) error {
	def, err := checks.Lookup(args[0])
	if err != nil {
		return clierr.Wrap(clierr.CodeFatal, "check", err)
	}
	abs, err := filepath.Abs(flagInput)
	if err != nil {
		return clierr.Wrap(clierr.CodeFatal, "resolve input", err)
	}
	lcfg, gcfg := loadConfigs(abs)
	env := ghactions.FromEnv()

	opts := checkOptions{
		Check:           def.Name,
		Input:           abs,
		Output:          flagOutput,
		MaxArtifacts:    pickInt(flagMaxArtifacts, lcfg.MaxArtifacts, gcfg.MaxArtifacts),
		Extensions:      pickString(flagExtensions, lcfg.Extensions, gcfg.Extensions),
		Include:         pickString(flagInclude, lcfg.Include, gcfg.Include),
		Exclude:         pickString(flagExclude, lcfg.Exclude, gcfg.Exclude),
		DefaultExcludes: pickBoolFlag(cmd, "default-excludes", flagDefaultExcludes, lcfg.DefaultExcludes, gcfg.DefaultExcludes),
		Threads:         pickInt(flagThreads, lcfg.Threads, gcfg.Threads),
		FailOnError:     pickBool(flagFailOnError, lcfg.FailOnError, gcfg.FailOnError),
		NoColor:         pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor) || !report.ColorEnabled(os.Stdout),
		Summary:         flagSummary,
		SARIF:           flagSARIF,
		ResultDir:       flagResultDir,
		JobName:         flagJobName,
		JobID:           flagJobID,
		ErrorLabel:      errorLabelFor(def.Name, flagErrorLabel, lcfg, gcfg),
		GitHubOutput:    env.Output,
		Settings:        checkSettings(flagOutput, lcfg, gcfg),
	}
	if opts.Summary == "" {
		opts.Summary = env.StepSummary
	}
	if opts.JobID == "" {
		opts.JobID = env.Job
	}
	_, err = executeCheck(cmd.Context(), def, opts, cmd.OutOrStdout())
	return err
}

// checkSettings layers the image and tool settings of the local config over
// the global one.
func checkSettings(output string, lcfg, gcfg config.FileConfig) checks.Settings {
	img := gcfg.GetImage()
	if lcfg.Image != nil {
		img = lcfg.GetImage()
	}
	tools := gcfg.GetTools()
	if lcfg.Tools != nil {
		tools = lcfg.GetTools()
	}
	endpoint := img.GetURLEndpoint()
	if endpoint == "" {
		endpoint = os.Getenv("IMAGEKIT_URL_ENDPOINT")
	}
	uploadURL := lcfg.GetImageKitUploadURL()
	if uploadURL == "" {
		uploadURL = gcfg.GetImageKitUploadURL()
	}
	return checks.Settings{
		OutputDir:     output,
		Images:        checks.ImageSettings{URLEndpoint: endpoint, Subfolder: img.GetSubfolder()},
		ThumbnailSize: *img.Size,
		Tools:         checks.Tools{Repair: tools.Repair, Orient: tools.Orient, Thumbnail: tools.Thumbnail},
		ImageKitURL:   uploadURL,
	}
}

// executeCheck discovers artifacts, runs the batch while streaming rows into
// the Markdown report, prints the console summary and records the result.
func executeCheck(ctx context.Context, def checks.Definition, opts checkOptions, stdout io.Writer) (engine.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	exts := def.Extensions
	if opts.Extensions != "" {
		exts = splitList(opts.Extensions)
	}
	maxArtifacts := opts.MaxArtifacts
	if maxArtifacts == 0 {
		maxArtifacts = def.MaxArtifacts
	}
	cfg := engine.Config{
		Root:            opts.Input,
		Extensions:      exts,
		IncludeGlobs:    opts.Include,
		ExcludeGlobs:    opts.Exclude,
		MaxArtifacts:    maxArtifacts,
		DefaultExcludes: opts.DefaultExcludes,
		Threads:         opts.Threads,
	}
	d, err := engine.Discover(cfg)
	if err != nil {
		return engine.Result{Check: def.Name}, clierr.Wrap(clierr.CodeFatal, "discover artifacts", err)
	}

	chk := def.New(opts.Settings)
	table := report.Table{Title: def.Title, Columns: chk.Columns()}
	if d.Truncated {
		table.Note = d.Warning
	}

	var sink *report.Sink
	if opts.Summary != "" {
		sink = report.NewSink(opts.Summary, table)
	}
	var sinkErr error
	cfg.OnOutcome = func(o types.Outcome) {
		log := logrus.WithFields(logrus.Fields{"artifact": o.Artifact.Path, "check": o.Check})
		switch o.Severity {
		case types.SevException:
			log.WithField("detail", o.Detail).Error("check could not run")
		case types.SevSuccess:
			log.Info(o.Severity.String())
		default:
			log.Warn(o.Severity.String())
		}
		if sink == nil || sinkErr != nil {
			return
		}
		sinkErr = sink.Append(o)
	}

	if len(d.Artifacts) == 0 {
		logrus.WithField("check", def.Name).Info("no artifacts found, skipping")
	}
	res := engine.Run(ctx, cfg, chk, d.Artifacts)
	res.Discovery = d
	if sink != nil {
		if err := sink.Close(); err != nil && sinkErr == nil {
			sinkErr = err
		}
	}
	if sinkErr != nil {
		return res, fmt.Errorf("write report %s: %w", opts.Summary, sinkErr)
	}

	report.PrintTable(stdout, table, res.Outcomes, report.PrintOptions{
		NoColor:   opts.NoColor,
		Duration:  res.Duration,
		Found:     d.Found,
		Truncated: d.Truncated,
	})

	if opts.SARIF != "" {
		if err := writeSARIFFile(opts.SARIF, res.Outcomes); err != nil {
			return res, err
		}
	}
	if opts.ResultDir != "" && !res.Skipped {
		if err := persistResult(opts, res.Severity); err != nil {
			return res, err
		}
	}
	if err := ghactions.AppendOutputs(opts.GitHubOutput, ghactions.Output{
		Key:   def.Name + "-severity",
		Value: res.Severity.String(),
	}); err != nil {
		return res, err
	}

	if report.ShouldFail(res.Severity, opts.FailOnError) {
		return res, clierr.Newf(clierr.CodeGate, "%s check finished with %s", def.Name, res.Severity)
	}
	return res, nil
}

func writeSARIFFile(path string, outs []types.Outcome) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create sarif file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return report.WriteSARIF(f, outs, currentVersion())
}

func persistResult(opts checkOptions, sev types.Severity) error {
	name := opts.JobName
	if name == "" {
		name = opts.Check
	}
	id := opts.JobID
	if id == "" {
		id = uuid.NewString()
	}
	r := types.JobResult{Name: name, Severity: sev, ErrorLabel: opts.ErrorLabel, JobID: id}
	if err := result.NewStore(opts.ResultDir).Write(r); err != nil {
		return fmt.Errorf("persist result: %w", err)
	}
	logrus.WithField("job", name).Infof("result %s persisted", sev)
	return nil
}
