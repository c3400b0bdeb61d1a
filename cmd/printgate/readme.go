package printgate

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/printgate/printgate/internal/clierr"
	"github.com/printgate/printgate/internal/ghactions"
	"github.com/printgate/printgate/internal/git"
	"github.com/printgate/printgate/internal/readme"
)

var (
	flagReadmeInput   string
	flagReadmeFile    string
	flagReadmePreview bool
	flagReadmeJSON    string
)

func init() {
	cmd := &cobra.Command{
		Use:   "readme",
		Short: "Regenerate the overview table of all designs",
		Long: "Collects every .metadata.yml under the input directory and writes the overview table to the step " +
			"summary and between the markers of README.md.",
		RunE: runReadme,
		Example: `
# Show the table without touching README.md
printgate readme -i designs --preview

# Update README.md and export the overview as JSON
printgate readme -i designs --json mods.json
`,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagReadmeInput, "input", "i", ".", "directory holding one folder per creator")
	cmd.Flags().StringVar(&flagReadmeFile, "file", "README.md", "README to update")
	cmd.Flags().BoolVar(&flagReadmePreview, "preview", false, "print the table without updating the README")
	cmd.Flags().StringVar(&flagReadmeJSON, "json", "", "also write the overview as JSON to this file")
}

func runReadme(cmd *cobra.Command, _ []string) error {
	abs, err := filepath.Abs(flagReadmeInput)
	if err != nil {
		return clierr.Wrap(clierr.CodeFatal, "resolve input", err)
	}
	var history readme.History
	if repo, err := git.Open(abs); err == nil {
		name, commit, branch := repo.Metadata()
		logrus.WithFields(logrus.Fields{"repo": name, "commit": commit, "branch": branch}).Debug("using git history")
		history = repo
	} else {
		logrus.WithError(err).Warn("no git repository, last-changed dates are left empty")
	}

	mods, err := readme.Collect(abs, history)
	if err != nil {
		return clierr.Wrap(clierr.CodeFatal, "collect metadata", err)
	}
	table := readme.Table(mods)
	fmt.Fprint(cmd.OutOrStdout(), table)

	if summary := ghactions.FromEnv().StepSummary; summary != "" {
		if err := appendFile(summary, "## Mods overview\n\n"+table); err != nil {
			return err
		}
	}
	if flagReadmeJSON != "" {
		if err := readme.WriteJSON(flagReadmeJSON, mods); err != nil {
			return fmt.Errorf("write json: %w", err)
		}
	}
	if flagReadmePreview {
		return nil
	}
	if err := readme.UpdateFile(flagReadmeFile, mods); err != nil {
		return fmt.Errorf("update %s: %w", flagReadmeFile, err)
	}
	logrus.Infof("%s updated with %d mods", flagReadmeFile, len(mods))
	return nil
}

func appendFile(path, content string) (err error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	_, err = f.WriteString(content)
	return err
}
