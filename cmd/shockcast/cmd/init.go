package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hugo-lorenzo-mato/shockcast/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write the default configuration to .shockcast/config.yaml in the current
directory, or to ~/.config/shockcast/config.yaml with --global. An existing
file is kept unless --force is given.`,
	PersistentPreRunE: skipConfig,
	RunE:              runInit,
}

var (
	initForce  bool
	initGlobal bool
)

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing configuration")
	initCmd.Flags().BoolVar(&initGlobal, "global", false, "Write the user configuration instead of the project one")
}

func runInit(cmd *cobra.Command, _ []string) error {
	path := config.ProjectConfigPath()
	if initGlobal {
		dir, err := config.UserConfigDir()
		if err != nil {
			return err
		}
		path = filepath.Join(dir, "config.yaml")
	}

	written, err := config.WriteDefaultConfig(path, initForce)
	if err != nil {
		return err
	}
	if !written {
		return fmt.Errorf("configuration already exists at %s, use --force to overwrite", path)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}
