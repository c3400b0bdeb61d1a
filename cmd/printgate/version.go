package printgate

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/printgate/printgate/internal/clierr"
	"github.com/printgate/printgate/internal/update"
)

func init() {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version and report newer releases",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := currentVersion()
			fmt.Fprintf(cmd.OutOrStdout(), "printgate %s\n", v)
			if flagNoUpdateCheck {
				return nil
			}
			if latest, newer, _ := update.Check(v, false); newer {
				fmt.Fprintf(cmd.OutOrStdout(), "a newer release is available: %s\n", latest)
			}
			return nil
		},
	}
	rootCmd.AddCommand(versionCmd)

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Replace the running binary with the latest release",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := selfUpdate(); err != nil {
				return clierr.Wrap(clierr.CodeFatal, "self-update", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "printgate updated")
			return nil
		},
	}
	rootCmd.AddCommand(updateCmd)
}
