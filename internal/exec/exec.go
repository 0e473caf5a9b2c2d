// Package exec applies converted SQL scripts to a live target database.
// It consumes the output directory a conversion run produces; it is not part
// of the conversion pipeline itself.
package exec

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sqlporter/sqlporter/internal/config"
	"github.com/sqlporter/sqlporter/internal/sqlast"
)

// Executor runs statements against one target database.
type Executor interface {
	Connect(ctx context.Context) error
	Execute(ctx context.Context, sql string) error
	Close() error
}

// New selects the executor implementation for the configured target type.
func New(cfg config.ExecutionConfig) (Executor, error) {
	switch strings.ToLower(cfg.Type) {
	case "oracle":
		return NewOracleExecutor(cfg), nil
	case "postgres", "postgresql":
		return NewPostgresExecutor(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported execution target type %q", cfg.Type)
	}
}

// ScriptResult is the outcome of applying one script file.
type ScriptResult struct {
	File     string   `json:"file"`
	Executed int      `json:"statements_executed"`
	Failed   int      `json:"statements_failed"`
	Errors   []string `json:"errors,omitempty"`
}

// ApplyResult aggregates a whole directory application.
type ApplyResult struct {
	Scripts  []ScriptResult `json:"scripts"`
	Executed int            `json:"statements_executed"`
	Failed   int            `json:"statements_failed"`
}

// ApplyDirectory executes every *.sql file of dir in lexical order, so the
// cleanup script's 00_ prefix makes it run first. Statement failures are
// collected, not fatal; a statement that fails does not stop the script.
func ApplyDirectory(ctx context.Context, ex Executor, dir string, log *slog.Logger) (*ApplyResult, error) {
	if log == nil {
		log = slog.Default()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading script directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".sql") {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no SQL scripts found in %s", dir)
	}
	sort.Strings(files)

	if err := ex.Connect(ctx); err != nil {
		return nil, err
	}
	defer ex.Close()

	res := &ApplyResult{}
	for _, name := range files {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			res.Scripts = append(res.Scripts, ScriptResult{File: name, Errors: []string{err.Error()}})
			log.Error("script unreadable", "file", name, "error", err)
			continue
		}
		sr := ScriptResult{File: name}
		for _, stmt := range sqlast.SplitStatements(string(data)) {
			if err := ex.Execute(ctx, stmt); err != nil {
				sr.Failed++
				sr.Errors = append(sr.Errors, err.Error())
				log.Error("statement failed", "file", name, "error", err)
				continue
			}
			sr.Executed++
		}
		log.Info("script applied", "file", name, "executed", sr.Executed, "failed", sr.Failed)
		res.Scripts = append(res.Scripts, sr)
		res.Executed += sr.Executed
		res.Failed += sr.Failed
	}
	return res, nil
}
