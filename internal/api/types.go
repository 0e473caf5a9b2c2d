package api

import "github.com/sqlporter/sqlporter/internal/runner"

// ConvertRequest is the request body for POST /api/convert.
type ConvertRequest struct {
	SourceDialect   string `json:"source_dialect"`
	TargetDialect   string `json:"target_dialect"`
	TargetVersion   string `json:"target_version,omitempty"`
	SourceDir       string `json:"source_dir"`
	GenerateCleanup bool   `json:"generate_cleanup"`
}

// ConvertResponse wraps a run result; Error is set only when the run failed
// before producing any output.
type ConvertResponse struct {
	*runner.RunResult
	Error string `json:"error,omitempty"`
}

// DialectsResponse lists the dialects the engine can parse and print.
type DialectsResponse struct {
	Dialects []string `json:"dialects"`
}

// RulesResponse returns the rule documents configured for a dialect pair.
type RulesResponse struct {
	Source    string         `json:"source_dialect"`
	Target    string         `json:"target_dialect"`
	Behaviors map[string]any `json:"dialect_behaviors"`
	DataTypes map[string]any `json:"data_types"`
}
