package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sqlporter/sqlporter/internal/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.ExpandHome(config.DefaultPath)
		}
		if _, err := os.Stat(path); err == nil && !initForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}

		cfg := &config.Config{Version: config.CurrentVersion}
		cfg.Conversion.RulesRoot = config.ExpandHome("~/.sqlporter/rules")
		cfg.Conversion.SourceDialect = "snowflake"
		cfg.Conversion.TargetDialect = "oracle"
		cfg.Conversion.Workers = 1
		cfg.Server.Port = 8080
		cfg.Logging.Level = "info"

		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Wrote %s\n", path)
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing config file")
	rootCmd.AddCommand(initCmd)
}
