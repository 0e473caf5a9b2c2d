// Package rules loads and models the per-dialect-pair conversion rule
// bundles. Rules are data, not code: the rewriter and router consult a
// RuleSet but never embed pair-specific logic themselves.
package rules

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Behavior toggle names found in dialect_behaviors.json.
const (
	BehaviorVirtualColumns   = "convert_virtual_columns"
	BehaviorRemoveClauses    = "remove_clauses"
	BehaviorRemoveProperties = "remove_with_properties"
	BehaviorComments         = "convert_comments"
	BehaviorSkipStatements   = "skip_statements"
	BehaviorStripBlocks      = "strip_procedural_blocks"
)

// Behavior is one named toggle with its parameters. Unused fields stay at
// their zero value for toggles that do not take them.
type Behavior struct {
	Enabled        bool     `json:"enabled"`
	Clauses        []string `json:"clauses,omitempty"`
	Properties     []string `json:"properties,omitempty"`
	Patterns       []string `json:"patterns,omitempty"`
	TableTemplate  string   `json:"table_template,omitempty"`
	ColumnTemplate string   `json:"column_template,omitempty"`
}

// DynamicRule sizes a source type into a target type: sizes at or below
// MaxSize render into Template, larger sizes switch to OverflowType with the
// size dropped.
type DynamicRule struct {
	MaxSize      int    `json:"max_size"`
	OverflowType string `json:"overflow_type"`
	Template     string `json:"template"`
}

// Apply resolves a concrete source size into the target type string and
// reports whether the size overflowed into the overflow type.
func (r DynamicRule) Apply(size int) (string, bool) {
	if size > r.MaxSize {
		return r.OverflowType, true
	}
	return strings.ReplaceAll(r.Template, "{size}", strconv.Itoa(size)), false
}

// Alias is one output substitution, applied to rendered SQL in order.
type Alias struct {
	From, To string
}

// RuleSet is the merged, normalized rule bundle for one dialect pair. The
// zero value is inert: every lookup misses, every toggle is off, nothing is
// skipped. All key lookups are upper-cased and underscore-insensitive.
type RuleSet struct {
	behaviors    map[string]Behavior
	typeMap      map[string]string
	dynamic      map[string]DynamicRule
	paramless    map[string]bool
	aliases      []Alias
	skipPatterns []*regexp.Regexp
}

// Behavior returns the named toggle; an absent toggle is disabled.
func (rs *RuleSet) Behavior(name string) Behavior {
	return rs.behaviors[name]
}

// TargetType resolves a source type name through the merged type map.
func (rs *RuleSet) TargetType(name string) (string, bool) {
	t, ok := rs.typeMap[normalizeKey(name)]
	return t, ok
}

// Dynamic returns the dynamic-sizing rule for a source type name.
func (rs *RuleSet) Dynamic(name string) (DynamicRule, bool) {
	r, ok := rs.dynamic[normalizeKey(name)]
	return r, ok
}

// Paramless reports whether the target type must never carry size arguments.
func (rs *RuleSet) Paramless(name string) bool {
	return rs.paramless[normalizeKey(name)]
}

// ApplyAliases rewrites rendered SQL through the output alias substitutions.
func (rs *RuleSet) ApplyAliases(sql string) string {
	for _, a := range rs.aliases {
		sql = strings.ReplaceAll(sql, a.From, a.To)
	}
	return sql
}

// ShouldSkip reports whether a statement's comment-stripped text matches any
// skip pattern, returning the matching pattern for logging.
func (rs *RuleSet) ShouldSkip(sql string) (string, bool) {
	for _, p := range rs.skipPatterns {
		if p.MatchString(sql) {
			return p.String(), true
		}
	}
	return "", false
}

// RemovableClauses lists the clause keywords the clause-removal behavior
// targets, upper-cased. Empty when the behavior is disabled.
func (rs *RuleSet) RemovableClauses() []string {
	b := rs.behaviors[BehaviorRemoveClauses]
	if !b.Enabled {
		return nil
	}
	out := make([]string, len(b.Clauses))
	for i, c := range b.Clauses {
		out[i] = strings.ToUpper(c)
	}
	return out
}

// RemovableProperties lists the table-property names the property-removal
// behavior targets, upper-cased. Empty when the behavior is disabled.
func (rs *RuleSet) RemovableProperties() []string {
	b := rs.behaviors[BehaviorRemoveProperties]
	if !b.Enabled {
		return nil
	}
	out := make([]string, len(b.Properties))
	for i, p := range b.Properties {
		out[i] = strings.ToUpper(p)
	}
	return out
}

// CommentTemplates returns the table and column comment-statement templates,
// falling back to the standard COMMENT ON forms when the behavior does not
// configure its own.
func (rs *RuleSet) CommentTemplates() (table, column string) {
	b := rs.behaviors[BehaviorComments]
	table = b.TableTemplate
	if table == "" {
		table = "COMMENT ON TABLE {table} IS {comment}"
	}
	column = b.ColumnTemplate
	if column == "" {
		column = "COMMENT ON COLUMN {table}.{column} IS {comment}"
	}
	return table, column
}

// normalizeKey upper-cases and removes underscores so TIMESTAMP_NTZ and
// TIMESTAMPNTZ resolve to the same entry.
func normalizeKey(name string) string {
	return strings.ReplaceAll(strings.ToUpper(name), "_", "")
}

func buildRuleSet(behaviors map[string]Behavior, types typeDocument) *RuleSet {
	rs := &RuleSet{
		behaviors: behaviors,
		typeMap:   map[string]string{},
		dynamic:   map[string]DynamicRule{},
		paramless: map[string]bool{},
	}
	if rs.behaviors == nil {
		rs.behaviors = map[string]Behavior{}
	}

	merged := map[string]string{}
	for k, v := range types.Default {
		merged[strings.ToUpper(k)] = v
	}
	if ov, ok := types.VersionOverrides[types.version]; ok {
		for k, v := range ov.Default {
			merged[strings.ToUpper(k)] = v
		}
	}
	for k, v := range merged {
		rs.typeMap[normalizeKey(k)] = v
	}

	for k, v := range types.DynamicRules {
		rs.dynamic[normalizeKey(k)] = v
	}
	for _, t := range types.ParamlessTargets {
		rs.paramless[normalizeKey(t)] = true
	}

	// substitutions applied in sorted order so output is deterministic
	keys := make([]string, 0, len(types.OutputAliases))
	for k := range types.OutputAliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rs.aliases = append(rs.aliases, Alias{From: k, To: types.OutputAliases[k]})
	}

	return rs
}
