package runner

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sqlporter/sqlporter/internal/convert"
)

// SummaryFileName is the full-detail run record written into the output
// directory; the RunResult returned to callers stays slim.
const SummaryFileName = "conversion_summary.json"

type summary struct {
	GeneratedAt string       `json:"generated_at"`
	Source      string       `json:"source_dialect"`
	Target      string       `json:"target_dialect"`
	OutputDir   string       `json:"output_dir"`
	CleanupFile string       `json:"cleanup_file,omitempty"`
	ReviewFile  string       `json:"manual_review_file,omitempty"`
	Stats       summaryStats `json:"statistics"`
	FileResults []FileResult `json:"file_results"`
}

type summaryStats struct {
	FilesProcessed      int `json:"files_processed"`
	FilesConverted      int `json:"files_converted"`
	FilesSkipped        int `json:"files_skipped"`
	FilesFailed         int `json:"files_failed"`
	StatementsConverted int `json:"statements_converted"`
	StatementsSkipped   int `json:"statements_skipped"`
}

func (r *Runner) writeSummary(outDir string, results []FileResult, cleanupPath, reviewPath string) (string, error) {
	s := summary{
		GeneratedAt: time.Now().Format(time.RFC3339),
		Source:      r.opts.Source,
		Target:      r.opts.Target,
		OutputDir:   outDir,
		CleanupFile: cleanupPath,
		ReviewFile:  reviewPath,
		FileResults: results,
	}
	for _, fr := range results {
		s.Stats.FilesProcessed++
		switch fr.Status {
		case StatusSuccess:
			s.Stats.FilesConverted++
			s.Stats.StatementsConverted += len(fr.Statements)
		case StatusSkipped:
			s.Stats.FilesSkipped++
		case StatusError:
			s.Stats.FilesFailed++
		}
		for _, entry := range fr.Logs {
			if entry.Action == convert.ActionSkip {
				s.Stats.StatementsSkipped++
			}
		}
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling run summary: %w", err)
	}
	path := filepath.Join(outDir, SummaryFileName)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing run summary: %w", err)
	}
	return path, nil
}
