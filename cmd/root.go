package cmd

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sqlporter/sqlporter/internal/config"
	"github.com/sqlporter/sqlporter/internal/logging"
)

var (
	cfgFile  string
	logLevel string
	version  = "dev"
	commit   = "none"
	date     = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "sqlporter",
	Short: "sqlporter — SQL dialect conversion tool",
	Long: `sqlporter converts SQL scripts between database dialects (e.g. Snowflake
to Oracle), driven by declarative per-dialect-pair rule bundles.

Use "sqlporter convert" to convert a directory of scripts, "sqlporter exec"
to apply converted scripts to a live target, and "sqlporter serve" to expose
conversion as an HTTP API.`,
}

func Execute() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.sqlporter/sqlporter.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// loadConfig loads the configuration file. A missing default config is not
// an error; every setting has a flag or a default.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		if cfgFile == "" && errors.Is(err, fs.ErrNotExist) {
			cfg = &config.Config{Version: config.CurrentVersion}
			cfg.Conversion.Workers = 1
			cfg.Server.Port = 8080
			return cfg, nil
		}
		return nil, err
	}
	return cfg, nil
}

// setupLogger builds the shared logger from config and flags; the flag wins.
func setupLogger(cfg *config.Config) (*slog.Logger, error) {
	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	return logging.Setup(level, cfg.Logging.Directory)
}
