package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sqlporter/sqlporter/internal/rules"
)

var rulesRoot string

var rulesCmd = &cobra.Command{
	Use:   "rules <source> <target>",
	Short: "Show the rule bundles configured for a dialect pair",
	Long: `Rules prints the dialect_behaviors and data_types documents that a
conversion between the given dialects would load. Absent files show as
empty documents, which is exactly how the converter treats them.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger, err := setupLogger(cfg)
		if err != nil {
			return err
		}
		root := rulesRoot
		if root == "" {
			root = cfg.Conversion.RulesRoot
		}

		loader := rules.NewLoader(root, logger)
		out := map[string]any{
			"dialect_behaviors": loader.Document(args[0], args[1], rules.CategoryDDL, rules.FileBehaviors),
			"data_types":        loader.Document(args[0], args[1], rules.CategoryDDL, rules.FileDataTypes),
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling rules: %w", err)
		}
		fmt.Fprintln(os.Stdout, string(data))
		return nil
	},
}

func init() {
	rulesCmd.Flags().StringVar(&rulesRoot, "rules", "", "root directory of rule bundles")
	rootCmd.AddCommand(rulesCmd)
}
