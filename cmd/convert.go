package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sqlporter/sqlporter/internal/runner"
)

var (
	convertSource    string
	convertTarget    string
	convertVersion   string
	convertRulesRoot string
	convertCleanup   bool
	convertWorkers   int
)

var convertCmd = &cobra.Command{
	Use:   "convert <source-dir>",
	Short: "Convert a directory of SQL scripts to the target dialect",
	Long: `Convert reads every *.sql file in the source directory, converts each
statement to the target dialect, and writes the results to a timestamped
converted/ directory next to the input, together with a run summary, an
optional cleanup script, and a manual-review report when anything needs
human attention.`,
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

		opts := runner.Options{
			Source:          convertSource,
			Target:          convertTarget,
			TargetVersion:   convertVersion,
			RulesRoot:       convertRulesRoot,
			GenerateCleanup: convertCleanup,
			Workers:         convertWorkers,
			Log:             logger,
		}
		if opts.Source == "" {
			opts.Source = cfg.Conversion.SourceDialect
		}
		if opts.Target == "" {
			opts.Target = cfg.Conversion.TargetDialect
		}
		if opts.TargetVersion == "" {
			opts.TargetVersion = cfg.Conversion.TargetVersion
		}
		if opts.RulesRoot == "" {
			opts.RulesRoot = cfg.Conversion.RulesRoot
		}
		if opts.Workers == 0 {
			opts.Workers = cfg.Conversion.Workers
		}

		run, err := runner.New(opts)
		if err != nil {
			return err
		}
		res, err := run.Run(context.Background(), args[0])
		if err != nil {
			return err
		}

		for _, fr := range res.FileResults {
			fmt.Fprintf(os.Stdout, "  %-10s %s\n", fr.Status, fr.File)
		}
		fmt.Fprintf(os.Stdout, "\nOutput:  %s\nSummary: %s\n", res.OutputDir, res.SummaryFile)
		if res.Status != runner.StatusSuccess {
			return fmt.Errorf("conversion produced no output")
		}
		return nil
	},
}

func init() {
	convertCmd.Flags().StringVar(&convertSource, "source", "", "source dialect (default from config)")
	convertCmd.Flags().StringVar(&convertTarget, "target", "", "target dialect (default from config)")
	convertCmd.Flags().StringVar(&convertVersion, "target-version", "", "target version for rule overrides")
	convertCmd.Flags().StringVar(&convertRulesRoot, "rules", "", "root directory of rule bundles")
	convertCmd.Flags().BoolVar(&convertCleanup, "cleanup", false, "also generate a drop script for created objects")
	convertCmd.Flags().IntVar(&convertWorkers, "workers", 0, "number of files to convert in parallel")
	rootCmd.AddCommand(convertCmd)
}
