package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mintutil/mint/internal/config"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create the mint configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		if toolsDir != "" {
			cfg.ToolsDir = toolsDir
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.String())
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := config.NewLoader(cfgFile).GetConfigPath()
		if path == "" {
			return fmt.Errorf("failed to determine config path")
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with default values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := config.NewLoader(cfgFile)
		cfg, err := loader.Init(configForce)
		if err != nil {
			return err
		}

		ui := newRenderer(cmd.OutOrStdout(), noColor)
		ui.ok("Wrote %s", loader.GetConfigPath())
		ui.field("Tools", cfg.ToolsDir)
		ui.field("Glossary", cfg.Glossary.Path)
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing config file")

	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd)
	rootCmd.AddCommand(configCmd)
}
