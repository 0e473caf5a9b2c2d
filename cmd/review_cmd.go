package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sqlporter/sqlporter/internal/review"
	"github.com/sqlporter/sqlporter/internal/wizard"
)

var reviewCmd = &cobra.Command{
	Use:   "review <output-dir-or-report>",
	Short: "Browse a run's manual-review findings interactively",
	Long: `Review opens the manual-review report a conversion run wrote and lets
you walk the findings in the terminal. Pass either the report file itself or
the run's output directory, in which case the newest report inside it is
opened.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveReportPath(args[0])
		if err != nil {
			return err
		}
		report, err := review.LoadReport(path)
		if err != nil {
			return err
		}
		if report.Total == 0 {
			fmt.Fprintln(os.Stdout, "No findings to review.")
			return nil
		}

		p := tea.NewProgram(wizard.NewReviewModel(report), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

func resolveReportPath(arg string) (string, error) {
	info, err := os.Stat(arg)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return arg, nil
	}
	entries, err := os.ReadDir(arg)
	if err != nil {
		return "", err
	}
	var reports []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), "manual_review_required_") && strings.HasSuffix(e.Name(), ".json") {
			reports = append(reports, e.Name())
		}
	}
	if len(reports) == 0 {
		return "", fmt.Errorf("no manual review report found in %s", arg)
	}
	sort.Strings(reports)
	return filepath.Join(arg, reports[len(reports)-1]), nil
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}
