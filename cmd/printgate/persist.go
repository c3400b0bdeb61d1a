package printgate

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/printgate/printgate/internal/clierr"
	"github.com/printgate/printgate/internal/config"
	"github.com/printgate/printgate/internal/ghactions"
	"github.com/printgate/printgate/internal/result"
	"github.com/printgate/printgate/internal/types"
)

var (
	flagPersistDir      string
	flagPersistJob      string
	flagPersistSeverity string
	flagPersistLabel    string
	flagPersistJobID    string
)

func init() {
	cmd := &cobra.Command{
		Use:   "persist",
		Short: "Record the result of a job for the aggregation step",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sev, err := types.ParseSeverity(flagPersistSeverity)
			if err != nil {
				return clierr.Wrap(clierr.CodeFatal, "persist", err)
			}
			lcfg, gcfg := loadConfigs(".")
			id := flagPersistJobID
			if id == "" {
				id = ghactions.FromEnv().Job
			}
			if id == "" {
				id = uuid.NewString()
			}
			r := types.JobResult{
				Name:       flagPersistJob,
				Severity:   sev,
				ErrorLabel: errorLabelFor(flagPersistJob, flagPersistLabel, lcfg, gcfg),
				JobID:      id,
			}
			if err := result.NewStore(flagPersistDir).Write(r); err != nil {
				return clierr.Wrap(clierr.CodeFatal, "persist", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", r.Name, r.Severity)
			return nil
		},
		Example: `
# Record a warning for the rotation job
printgate persist --result-dir results --job rotation --severity warning --error-label "Issue: STL rotation"
`,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVar(&flagPersistDir, "result-dir", ".", "directory holding one sub-directory per job")
	cmd.Flags().StringVar(&flagPersistJob, "job", "", "job name")
	cmd.Flags().StringVar(&flagPersistSeverity, "severity", "", "success|warning|failure|exception")
	cmd.Flags().StringVar(&flagPersistLabel, "error-label", "", "PR label applied when the job did not succeed (default: error_labels config)")
	cmd.Flags().StringVar(&flagPersistJobID, "job-id", "", "job id used for summary links (default $GITHUB_JOB)")
	_ = cmd.MarkFlagRequired("job")
	_ = cmd.MarkFlagRequired("severity")
}

// errorLabelFor resolves the label persisted with a job result: the flag,
// then the error_labels of the config layers.
func errorLabelFor(job, flag string, layers ...config.FileConfig) string {
	if flag != "" {
		return flag
	}
	return config.ErrorLabel(job, layers...)
}
