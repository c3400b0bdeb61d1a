package printgate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/printgate/printgate/internal/config"
)

var (
	cfgOutput string
	cfgForce  bool
	cfgInput  string
)

func init() {
	cfgCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a starter .printgate.yml",
		RunE:  runConfigInit,
	}
	cfgCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&cfgOutput, "output", ".printgate.yml", "output file path")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (local over global) as YAML",
		RunE:  runConfigShow,
	}
	cfgCmd.AddCommand(showCmd)
	showCmd.Flags().StringVarP(&cfgInput, "input", "i", ".", "directory searched for the local config")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	if !cfgForce {
		if _, err := os.Stat(cfgOutput); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfgOutput)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if err := os.WriteFile(cfgOutput, []byte(config.Starter), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", cfgOutput)
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	abs, err := filepath.Abs(cfgInput)
	if err != nil {
		return err
	}
	lcfg, gcfg := loadConfigs(abs)
	eff := effectiveConfig(lcfg, gcfg)
	enc := yaml.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent(2)
	if err := enc.Encode(eff); err != nil {
		return err
	}
	return enc.Close()
}

// effectiveConfig flattens the two layers the way the commands resolve them
// when no flag is given.
func effectiveConfig(lcfg, gcfg config.FileConfig) config.FileConfig {
	eff := config.FileConfig{
		Threads:         intPtr(pickInt(0, lcfg.Threads, gcfg.Threads)),
		MaxArtifacts:    intPtr(pickInt(0, lcfg.MaxArtifacts, gcfg.MaxArtifacts)),
		DefaultExcludes: boolPtr(true),
		FailOnError:     boolPtr(pickBool(false, lcfg.FailOnError, gcfg.FailOnError)),
		NoColor:         boolPtr(pickBool(false, lcfg.NoColor, gcfg.NoColor)),
		ErrorLabels:     map[string]string{},
	}
	if lcfg.DefaultExcludes != nil || gcfg.DefaultExcludes != nil {
		eff.DefaultExcludes = boolPtr(pickBool(false, lcfg.DefaultExcludes, gcfg.DefaultExcludes))
	}
	for _, kv := range []struct {
		dst           **string
		local, global *string
	}{
		{&eff.Extensions, lcfg.Extensions, gcfg.Extensions},
		{&eff.Include, lcfg.Include, gcfg.Include},
		{&eff.Exclude, lcfg.Exclude, gcfg.Exclude},
		{&eff.ReadyLabel, lcfg.ReadyLabel, gcfg.ReadyLabel},
	} {
		if v := pickString("", kv.local, kv.global); v != "" {
			*kv.dst = strPtr(v)
		}
	}
	for k, v := range gcfg.ErrorLabels {
		eff.ErrorLabels[k] = v
	}
	for k, v := range lcfg.ErrorLabels {
		eff.ErrorLabels[k] = v
	}
	img := gcfg.GetImage()
	if lcfg.Image != nil {
		img = lcfg.GetImage()
	}
	eff.Image = &img
	tools := gcfg.GetTools()
	if lcfg.Tools != nil {
		tools = lcfg.GetTools()
	}
	eff.Tools = &tools
	if u := lcfg.GetImageKitUploadURL(); u != "" {
		eff.ImageKit = &config.ImageKitConfig{UploadURL: strPtr(u)}
	} else if u := gcfg.GetImageKitUploadURL(); u != "" {
		eff.ImageKit = &config.ImageKitConfig{UploadURL: strPtr(u)}
	}
	return eff
}
