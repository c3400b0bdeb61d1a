package printgate

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/printgate/printgate/internal/checks"
	"github.com/printgate/printgate/internal/clierr"
	"github.com/printgate/printgate/internal/ghactions"
	"github.com/printgate/printgate/internal/report"
)

var flagUploadInput string

func init() {
	cmd := &cobra.Command{
		Use:   "upload-images",
		Short: "Upload rendered images to ImageKit",
		Long: "Uploads every PNG under the input directory to ImageKit in parallel, into a folder mirroring its " +
			"relative directory. Credentials come from IMAGEKIT_PRIVATE_KEY and IMAGEKIT_PUBLIC_KEY; without them " +
			"every image is reported as a skipped warning.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			def, err := checks.Lookup("upload")
			if err != nil {
				return clierr.Wrap(clierr.CodeFatal, "upload-images", err)
			}
			abs, err := filepath.Abs(flagUploadInput)
			if err != nil {
				return clierr.Wrap(clierr.CodeFatal, "resolve input", err)
			}
			lcfg, gcfg := loadConfigs(abs)
			opts := checkOptions{
				Check:           def.Name,
				Input:           abs,
				DefaultExcludes: true,
				Threads:         pickInt(flagThreads, lcfg.Threads, gcfg.Threads),
				NoColor:         flagNoColor || !report.ColorEnabled(os.Stdout),
				Summary:         ghactions.FromEnv().StepSummary,
				Settings:        checkSettings("", lcfg, gcfg),
			}
			_, err = executeCheck(cmd.Context(), def, opts, cmd.OutOrStdout())
			return err
		},
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagUploadInput, "input", "i", ".", "directory holding the rendered images")
}
