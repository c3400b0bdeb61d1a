package printgate

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/printgate/printgate/internal/clierr"
	"github.com/printgate/printgate/internal/update"
)

var (
	flagThreads       int
	flagNoColor       bool
	flagVerbose       bool
	flagDebug         bool
	flagNoUpdateCheck bool
	flagSelfUpdate    bool

	version = "0.1.0"
)

// rootCmd is the base Cobra command for the printgate CLI.
var rootCmd = &cobra.Command{
	Use:   "printgate",
	Short: "Validate 3D-print designs in pull requests",
	Long: "printgate runs checks over the design files of a pull request, renders a Markdown summary per check, " +
		"persists one result per job and aggregates all job results into a PR comment and label set.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		configureLogging()
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		if flagSelfUpdate {
			if err := selfUpdate(); err != nil {
				return clierr.Wrap(clierr.CodeFatal, "self-update", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "printgate updated")
			return nil
		}
		if !flagNoUpdateCheck {
			if latest, newer, _ := update.Check(version, false); newer {
				fmt.Fprintf(cmd.ErrOrStderr(), "a newer printgate is available: %s (current %s), run \"printgate update\"\n", latest, version)
			}
		}
		return cmd.Help()
	},
}

// Execute runs the printgate CLI and exits with the code carried by the
// returned error. It should be called by the main package.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(clierr.ExitCodeOf(err))
	}
}

func configureLogging() {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	switch {
	case flagDebug:
		logrus.SetLevel(logrus.DebugLevel)
	case flagVerbose:
		logrus.SetLevel(logrus.InfoLevel)
	default:
		logrus.SetLevel(logrus.WarnLevel)
	}
}

func init() {
	rootCmd.PersistentFlags().IntVar(&flagThreads, "threads", 0, "worker count (0 = GOMAXPROCS)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "disable colorized output")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log progress at info level")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "log at debug level")
	rootCmd.PersistentFlags().BoolVar(&flagNoUpdateCheck, "no-update-check", false, "disable update check")
	rootCmd.Flags().BoolVar(&flagSelfUpdate, "self-update", false, "update printgate to the latest release")
}
