package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sqlporter/sqlporter/internal/exec"
)

var execCmd = &cobra.Command{
	Use:   "exec <script-dir>",
	Short: "Apply converted scripts to the configured target database",
	Long: `Exec connects to the execution target from the config file and runs
every *.sql file of the given directory in lexical order, so a generated
00_cleanup.sql runs before the converted scripts. Statement failures are
reported but do not stop the run.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := setupLogger(cfg)
		if err != nil {
			return err
		}

		ex, err := exec.New(cfg.Execution)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		res, err := exec.ApplyDirectory(ctx, ex, args[0], logger)
		if err != nil {
			return err
		}
		for _, sr := range res.Scripts {
			fmt.Fprintf(os.Stdout, "  %-40s %d executed, %d failed\n", sr.File, sr.Executed, sr.Failed)
		}
		if res.Failed > 0 {
			return fmt.Errorf("%d statements failed", res.Failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(execCmd)
}
