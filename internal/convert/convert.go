// Package convert routes parsed statements and rewrites CREATE TABLE ASTs
// from the source dialect into the target dialect, driven entirely by a
// loaded rule set.
package convert

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/sqlporter/sqlporter/internal/review"
	"github.com/sqlporter/sqlporter/internal/rules"
	"github.com/sqlporter/sqlporter/internal/sqlast"
)

// Log entry action tags.
const (
	ActionTransform = "transformation"
	ActionFallback  = "fallback"
	ActionSkip      = "skip"
	ActionError     = "error"
)

// LogEntry records one conversion decision for the run summary.
type LogEntry struct {
	Action string `json:"action"`
	Detail string `json:"detail"`
	File   string `json:"file"`
}

// Converter transforms the statements of one source file. It is not safe for
// concurrent use; the orchestrator creates one per file.
type Converter struct {
	source  *sqlast.Dialect
	target  *sqlast.Dialect
	rules   *rules.RuleSet
	reviews *review.Collector
	log     *slog.Logger
	file    string

	entries []LogEntry
}

func New(source, target *sqlast.Dialect, rs *rules.RuleSet, reviews *review.Collector, log *slog.Logger, file string) *Converter {
	if log == nil {
		log = slog.Default()
	}
	return &Converter{
		source:  source,
		target:  target,
		rules:   rs,
		reviews: reviews,
		log:     log,
		file:    file,
	}
}

// Entries returns the log entries recorded so far.
func (c *Converter) Entries() []LogEntry {
	return c.entries
}

func (c *Converter) logf(action, format string, args ...any) {
	detail := fmt.Sprintf(format, args...)
	c.entries = append(c.entries, LogEntry{Action: action, Detail: detail, File: c.file})
	c.log.Debug("conversion", "file", c.file, "action", action, "detail", detail)
}

var (
	createTableRe = regexp.MustCompile(`(?is)^\s*CREATE\s+(?:OR\s+REPLACE\s+)?TABLE\b`)

	// trailing vendor clause the grammar may fail on even after extension
	rowAccessPolicyRe = regexp.MustCompile(`(?is)\s+WITH\s+ROW\s+ACCESS\s+POLICY\s+\S+\s+ON\s*\([^)]*\)`)
)

// ConvertStatement converts one parsed statement into zero or more target
// statements. CREATE TABLE goes through the rewrite pipeline; everything
// else re-prints through the target dialect. A panic anywhere in the
// pipeline is converted into a commented error marker so one bad statement
// never stops the file.
func (c *Converter) ConvertStatement(stmt sqlast.ParsedStatement) (out []string) {
	defer func() {
		if r := recover(); r != nil {
			c.logf(ActionError, "statement rewrite failed: %v; sql: %s", r, firstLine(stmt.Text))
			out = []string{fmt.Sprintf("-- ERROR: statement could not be converted: %v", r)}
		}
	}()

	c.inspect(stmt)

	if ct, ok := stmt.Node.(*sqlast.CreateTable); ok {
		return c.rewriteCreateTable(ct)
	}

	if stmt.IsOpaque() && createTableRe.MatchString(stmt.Text) {
		if ct := c.recoverCreateTable(stmt.Text); ct != nil {
			return c.rewriteCreateTable(ct)
		}
		c.logf(ActionFallback, "CREATE TABLE could not be parsed, emitted verbatim: %s", firstLine(stmt.Text))
		return []string{c.rules.ApplyAliases(stmt.Text)}
	}

	c.logf(ActionFallback, "statement re-printed without structural conversion: %s", firstLine(stmt.Text))
	return []string{c.rules.ApplyAliases(sqlast.SQL(c.target, stmt.Node))}
}

// recoverCreateTable strips the known-unparseable trailing clauses from the
// literal text and reparses. This is a targeted repair for vendor clauses
// nested where the extended grammar does not reach, not a general corrector.
func (c *Converter) recoverCreateTable(text string) *sqlast.CreateTable {
	stripped := rowAccessPolicyRe.ReplaceAllString(text, "")
	if stripped == text {
		return nil
	}
	node, err := sqlast.ParseStatement(c.source, stripped)
	if err != nil {
		return nil
	}
	ct, ok := node.(*sqlast.CreateTable)
	if !ok {
		return nil
	}
	c.logf(ActionTransform, "recovered CREATE TABLE %s after stripping row access policy clause", ct.Name)
	return ct
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i] + " ..."
	}
	return s
}
