// Package runner orchestrates a conversion run: discover input files, drive
// the per-file pipeline, derive the cleanup script, and persist the summary.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sqlporter/sqlporter/internal/convert"
	"github.com/sqlporter/sqlporter/internal/review"
	"github.com/sqlporter/sqlporter/internal/rules"
	"github.com/sqlporter/sqlporter/internal/sqlast"
)

// File and run statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Options configures a Runner.
type Options struct {
	Source          string // source dialect name
	Target          string // target dialect name
	TargetVersion   string // selects version_overrides in the type map
	RulesRoot       string // root of the rule bundle directory tree
	GenerateCleanup bool
	Workers         int // file-level parallelism; 0 or 1 means sequential
	Log             *slog.Logger
}

// FileResult is the outcome for one input file.
type FileResult struct {
	File       string             `json:"file"`
	Status     string             `json:"status"`
	Statements []string           `json:"-"`
	Logs       []convert.LogEntry `json:"logs,omitempty"`
	OutputPath string             `json:"output_path,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// RunResult is the slim response returned to callers. Detailed logs live in
// the persisted summary file, not here.
type RunResult struct {
	Status      string       `json:"status"`
	OutputDir   string       `json:"output_dir"`
	FileResults []FileStatus `json:"file_results"`
	SummaryFile string       `json:"summary_file,omitempty"`
}

// FileStatus is the per-file slice of a RunResult.
type FileStatus struct {
	File   string `json:"file"`
	Status string `json:"status"`
	Output string `json:"output,omitempty"`
}

// Runner converts every SQL file of a source directory. Safe to reuse across
// runs; each Run gets its own output directory and review collector.
type Runner struct {
	opts   Options
	rules  *rules.RuleSet
	source *sqlast.Dialect
	target *sqlast.Dialect
	log    *slog.Logger
}

func New(opts Options) (*Runner, error) {
	src, err := sqlast.Get(opts.Source)
	if err != nil {
		return nil, err
	}
	tgt, err := sqlast.Get(opts.Target)
	if err != nil {
		return nil, err
	}
	// must happen before any parsing begins
	sqlast.ExtendWarehouseDDL(src)

	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	rs := rules.NewLoader(opts.RulesRoot, log).Load(opts.Source, opts.Target, opts.TargetVersion)

	return &Runner{opts: opts, rules: rs, source: src, target: tgt, log: log}, nil
}

// Run converts all SQL files directly inside sourceDir. It always returns a
// RunResult; the error is non-nil only for the two run-level fatals (no
// input, unwritable output directory).
func (r *Runner) Run(ctx context.Context, sourceDir string) (*RunResult, error) {
	files, err := discover(sourceDir)
	if err != nil {
		return &RunResult{Status: StatusError}, err
	}
	if len(files) == 0 {
		return &RunResult{Status: StatusError}, fmt.Errorf("no SQL files found in %s", sourceDir)
	}

	outDir := filepath.Join(filepath.Dir(filepath.Clean(sourceDir)), "converted", time.Now().Format("20060102_150405"))
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return &RunResult{Status: StatusError}, fmt.Errorf("creating output directory: %w", err)
	}
	r.log.Info("conversion run started",
		"source", r.opts.Source, "target", r.opts.Target,
		"files", len(files), "output", outDir)

	reviews := review.NewCollector()
	results := r.convertFiles(ctx, sourceDir, outDir, files, reviews)

	cleanupPath := ""
	if r.opts.GenerateCleanup {
		cleanupPath, err = r.writeCleanupScript(outDir, results)
		if err != nil {
			r.log.Error("cleanup script not written", "error", err)
		}
	}

	reviewPath, err := reviews.Flush(outDir)
	if err != nil {
		r.log.Error("manual review report not written", "error", err)
	}

	summaryPath, err := r.writeSummary(outDir, results, cleanupPath, reviewPath)
	if err != nil {
		r.log.Error("summary not written", "error", err)
	}

	res := &RunResult{
		Status:      runStatus(results),
		OutputDir:   outDir,
		SummaryFile: summaryPath,
	}
	for _, fr := range results {
		res.FileResults = append(res.FileResults, FileStatus{File: fr.File, Status: fr.Status, Output: fr.OutputPath})
	}
	r.log.Info("conversion run finished", "status", res.Status, "summary", summaryPath)
	return res, nil
}

// discover lists the immediate *.sql files of dir, sorted for deterministic
// ordering. Not recursive.
func discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading source directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".sql") {
			continue
		}
		files = append(files, e.Name())
	}
	sort.Strings(files)
	return files, nil
}

// convertFiles runs the per-file pipeline, optionally across a worker pool.
// Results keep the discovery order regardless of worker scheduling.
func (r *Runner) convertFiles(ctx context.Context, sourceDir, outDir string, files []string, reviews *review.Collector) []FileResult {
	results := make([]FileResult, len(files))

	workers := r.opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(files) {
		workers = len(files)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = r.convertFile(sourceDir, outDir, files[i], reviews)
			}
		}()
	}
	for i := range files {
		select {
		case <-ctx.Done():
		case jobs <- i:
			continue
		}
		break
	}
	close(jobs)
	wg.Wait()

	// files never dispatched before cancellation
	for i := range results {
		if results[i].Status == "" {
			results[i] = FileResult{File: files[i], Status: StatusSkipped, Error: "run cancelled before file was processed"}
		}
	}
	return results
}

func (r *Runner) convertFile(sourceDir, outDir, name string, reviews *review.Collector) FileResult {
	res := FileResult{File: name}

	data, err := os.ReadFile(filepath.Join(sourceDir, name))
	if err != nil {
		res.Status = StatusError
		res.Error = err.Error()
		r.log.Error("input file unreadable", "file", name, "error", err)
		return res
	}
	src := string(data)

	if r.rules.Behavior(rules.BehaviorStripBlocks).Enabled {
		src = StripProceduralBlocks(src)
	}

	conv := convert.New(r.source, r.target, r.rules, reviews, r.log, name)
	for _, stmt := range sqlast.ParseStatements(r.source, src) {
		if pat, skip := r.rules.ShouldSkip(sqlast.StripComments(stmt.Text)); skip {
			res.Logs = append(res.Logs, convert.LogEntry{
				Action: convert.ActionSkip,
				Detail: fmt.Sprintf("statement matched skip pattern %q", pat),
				File:   name,
			})
			continue
		}
		res.Statements = append(res.Statements, conv.ConvertStatement(stmt)...)
	}
	res.Logs = append(res.Logs, conv.Entries()...)

	if len(res.Statements) == 0 {
		res.Status = StatusSkipped
		r.log.Info("file skipped, no statements survived filtering", "file", name)
		return res
	}

	outPath := filepath.Join(outDir, name)
	if err := os.WriteFile(outPath, []byte(joinStatements(res.Statements)), 0o644); err != nil {
		res.Status = StatusError
		res.Error = err.Error()
		r.log.Error("output file not written", "file", name, "error", err)
		return res
	}
	res.Status = StatusSuccess
	res.OutputPath = outPath
	return res
}

// joinStatements renders the output file body: statements separated by
// terminators with the final statement also terminated.
func joinStatements(stmts []string) string {
	var b strings.Builder
	for i, s := range stmts {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(strings.ReplaceAll(s, "\r\n", "\n"))
		b.WriteString(";")
	}
	b.WriteString("\n")
	return b.String()
}

// runStatus derives the overall status: success as soon as at least one
// output artifact was written.
func runStatus(results []FileResult) string {
	for _, fr := range results {
		if fr.Status == StatusSuccess {
			return StatusSuccess
		}
	}
	return StatusError
}
