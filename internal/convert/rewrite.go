package convert

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/sqlporter/sqlporter/internal/review"
	"github.com/sqlporter/sqlporter/internal/rules"
	"github.com/sqlporter/sqlporter/internal/sqlast"
)

// rewriteCreateTable applies the fixed-order rewrite pipeline to one CREATE
// TABLE AST and returns the rendered statement plus any comment statements.
// Later steps assume earlier ones already normalized the tree, so the order
// is load-bearing.
func (c *Converter) rewriteCreateTable(ct *sqlast.CreateTable) []string {
	c.convertTypes(ct)
	c.convertVirtualColumns(ct)
	c.removeClauses(ct)
	c.removeProperties(ct)
	comments := c.extractComments(ct)

	if ct.OrReplace {
		ct.OrReplace = false
		c.logf(ActionTransform, "normalized CREATE OR REPLACE to CREATE for table %s", ct.Name)
	}

	out := []string{c.cleanup(sqlast.SQL(c.target, ct))}
	for _, stmt := range comments {
		out = append(out, c.rules.ApplyAliases(stmt))
	}
	return out
}

// convertTypes maps every column type through the rule set. A failure on one
// type node is logged and that node left unconverted; the rest of the
// statement still converts.
func (c *Converter) convertTypes(ct *sqlast.CreateTable) {
	for _, col := range ct.Columns {
		if col.Type == nil {
			continue
		}
		c.convertColumnType(ct, col)
	}
}

func (c *Converter) convertColumnType(ct *sqlast.CreateTable, col *sqlast.ColumnDef) {
	src := col.Type
	resolved := ""
	fromDynamic := false

	if dyn, ok := c.rules.Dynamic(src.Name); ok && len(src.Args) > 0 {
		fromDynamic = true
		size, err := parseSize(src.Args[0])
		if err != nil {
			c.logf(ActionError, "column %s.%s: unusable size %q for dynamic rule: %v",
				ct.Name.Object(), col.Name, src.Args[0], err)
			return
		}
		target, overflow := dyn.Apply(size)
		resolved = target
		if overflow {
			c.logf(ActionTransform, "column %s.%s: %s(%d) exceeds max size, using %s",
				ct.Name.Object(), col.Name, src.Name, size, target)
		}
	} else if target, ok := c.rules.TargetType(src.Name); ok {
		resolved = target
	} else {
		return
	}

	dt, err := sqlast.ParseDataType(c.target, resolved)
	if err != nil {
		c.logf(ActionError, "column %s.%s: target type %q did not parse: %v",
			ct.Name.Object(), col.Name, resolved, err)
		return
	}

	switch {
	case c.rules.Paramless(dt.Name):
		dt.Args = nil
	case len(dt.Args) == 0 && !fromDynamic:
		// carry the source precision through when the mapping did not
		// produce its own
		dt.Args = src.Args
	}
	if dt.Suffix == "" {
		dt.Suffix = src.Suffix
	}

	c.logf(ActionTransform, "column %s.%s: %s -> %s", ct.Name.Object(), col.Name, src.SQL(), dt.SQL())
	col.Type = dt
}

// parseSize extracts the leading integer of a type argument such as "4000"
// or "10 CHAR".
func parseSize(arg string) (int, error) {
	fields := strings.Fields(arg)
	if len(fields) == 0 {
		return 0, strconv.ErrSyntax
	}
	return strconv.Atoi(fields[0])
}

// convertVirtualColumns rewrites computed (non-identity) columns into the
// target's GENERATED ALWAYS AS (...) VIRTUAL form.
func (c *Converter) convertVirtualColumns(ct *sqlast.CreateTable) {
	if !c.rules.Behavior(rules.BehaviorVirtualColumns).Enabled {
		return
	}
	for _, col := range ct.Columns {
		g := col.Generated
		if g == nil || g.Identity {
			continue
		}
		g.Always = true
		g.Virtual = true
		c.logf(ActionTransform, "column %s.%s: computed expression converted to virtual column",
			ct.Name.Object(), col.Name)
	}
}

// removeClauses strips the configured top-level clauses present as distinct
// AST nodes. Clauses that survive into rendered text are caught again by the
// post-render cleanup.
func (c *Converter) removeClauses(ct *sqlast.CreateTable) {
	for _, clause := range c.rules.RemovableClauses() {
		if clause == "CLUSTER BY" && ct.ClusterBy != nil {
			ct.ClusterBy = nil
			c.logf(ActionTransform, "removed CLUSTER BY clause from table %s", ct.Name)
		}
	}
}

// removeProperties drops configured table properties plus any row access
// policy or tag clauses. A literal "TAG" substring in a rendered property is
// also dropped; this over-matches identifiers containing TAG but mirrors
// long-standing behavior downstream consumers rely on.
func (c *Converter) removeProperties(ct *sqlast.CreateTable) {
	if !c.rules.Behavior(rules.BehaviorRemoveProperties).Enabled {
		return
	}
	named := c.rules.RemovableProperties()

	kept := ct.Properties[:0]
	for _, p := range ct.Properties {
		if reason := c.propertyRemovalReason(p, named); reason != "" {
			c.logf(ActionTransform, "removed table property from %s: %s", ct.Name, reason)
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		ct.Properties = nil
	} else {
		ct.Properties = kept
	}
}

func (c *Converter) propertyRemovalReason(p sqlast.TableProperty, named []string) string {
	switch p.Kind() {
	case "row_access_policy":
		return "row access policy"
	case "tags":
		return "tag list"
	}
	rendered := strings.ToUpper(c.source.PropertySQL(p))
	if strings.Contains(rendered, "TAG") {
		return "property containing TAG"
	}
	for _, name := range named {
		if gp, ok := p.(*sqlast.GenericProperty); ok && strings.ToUpper(gp.Name) == name {
			return gp.Name
		}
	}
	return ""
}

// extractComments pulls the table and column comments out of the AST so they
// do not render inline, and returns the COMMENT statements generated from
// the configured templates.
func (c *Converter) extractComments(ct *sqlast.CreateTable) []string {
	if !c.rules.Behavior(rules.BehaviorComments).Enabled {
		return nil
	}
	tableTmpl, columnTmpl := c.rules.CommentTemplates()
	table := ct.Name.String()

	var out []string
	if ct.HasComment {
		out = append(out, renderComment(tableTmpl, table, "", ct.Comment))
		ct.Comment = ""
		ct.HasComment = false
		c.logf(ActionTransform, "table comment on %s converted to COMMENT statement", ct.Name)
	}
	for _, col := range ct.Columns {
		if !col.HasComment {
			continue
		}
		out = append(out, renderComment(columnTmpl, table, col.Name, col.Comment))
		col.Comment = ""
		col.HasComment = false
		c.logf(ActionTransform, "column comment on %s.%s converted to COMMENT statement",
			ct.Name.Object(), col.Name)
	}
	return out
}

func renderComment(tmpl, table, column, text string) string {
	r := strings.NewReplacer(
		"{table}", table,
		"{column}", column,
		"{comment}", sqlast.StringLiteral(text),
	)
	return r.Replace(tmpl)
}

var timeZonePrecisionRe = regexp.MustCompile(`(?i)\bTIMESTAMP\s+WITH\s+(LOCAL\s+)?TIME\s+ZONE\s*\((\d+)\)`)

// cleanup is the text-level pass over rendered SQL: drop lines that still
// carry a removable clause keyword, apply output aliases, and move a
// time-zone type's precision before the zone qualifier where the target
// grammar requires it.
func (c *Converter) cleanup(sql string) string {
	if clauses := c.rules.RemovableClauses(); len(clauses) > 0 {
		lines := strings.Split(sql, "\n")
		kept := lines[:0]
	line:
		for _, ln := range lines {
			upper := strings.ToUpper(ln)
			for _, clause := range clauses {
				if strings.Contains(upper, clause) {
					c.logf(ActionTransform, "dropped output line containing %s", clause)
					continue line
				}
			}
			kept = append(kept, ln)
		}
		sql = strings.Join(kept, "\n")
	}

	sql = c.rules.ApplyAliases(sql)
	sql = timeZonePrecisionRe.ReplaceAllString(sql, "TIMESTAMP($2) WITH ${1}TIME ZONE")
	return sql
}

// inspect runs the manual-review detectors over one statement before any
// conversion happens, so findings survive even when the statement later
// degrades or errors.
func (c *Converter) inspect(stmt sqlast.ParsedStatement) {
	if c.reviews == nil {
		return
	}
	if ct, ok := stmt.Node.(*sqlast.CreateTable); ok {
		c.inspectColumnTypes(ct)
	}
	c.inspectText(stmt.Text)
}

// semi-structured warehouse types with no scalar target equivalent
var variantTypes = map[string]bool{"VARIANT": true, "OBJECT": true, "ARRAY": true}

func (c *Converter) inspectColumnTypes(ct *sqlast.CreateTable) {
	for _, col := range ct.Columns {
		if col.Type == nil || !variantTypes[col.Type.Name] {
			continue
		}
		if _, mapped := c.rules.TargetType(col.Type.Name); mapped {
			continue
		}
		c.reviews.Record(review.Finding{
			File:            c.file,
			Object:          ct.Name.Object(),
			ObjectType:      "TABLE",
			IssueType:       "semi_structured_type",
			Severity:        review.SeverityWarning,
			Message:         "column " + col.Name + " uses semi-structured type " + col.Type.Name + " with no mapping rule",
			SuggestedAction: "map to CLOB with JSON check constraint, or restructure the column",
		})
	}
}

var (
	dynamicSQLRe     = regexp.MustCompile(`(?i)\bEXECUTE\s+IMMEDIATE\b|\bIDENTIFIER\s*\(`)
	externalLangRe   = regexp.MustCompile(`(?i)\bLANGUAGE\s+(JAVASCRIPT|PYTHON|JAVA|SCALA)\b`)
	lateralFlattenRe = regexp.MustCompile(`(?i)\bLATERAL\s+FLATTEN\s*\(`)
	qualifyRe        = regexp.MustCompile(`(?i)\bQUALIFY\b`)
	updateFromRe     = regexp.MustCompile(`(?is)\bUPDATE\b.+\bSET\b.+\bFROM\b`)
	objectNameRe     = regexp.MustCompile(`(?is)^\s*CREATE\s+(?:OR\s+REPLACE\s+)?(?:\w+\s+)?(\w+)\s+([\w"\.]+)`)
)

func (c *Converter) inspectText(text string) {
	objType, objName := "STATEMENT", ""
	if m := objectNameRe.FindStringSubmatch(text); m != nil {
		objType, objName = strings.ToUpper(m[1]), m[2]
	}

	if dynamicSQLRe.MatchString(text) {
		c.reviews.Record(review.Finding{
			File:            c.file,
			Object:          objName,
			ObjectType:      objType,
			IssueType:       "dynamic_sql",
			Severity:        review.SeverityError,
			Message:         "statement builds SQL dynamically and cannot be converted mechanically",
			SuggestedAction: "port the dynamic SQL by hand and validate against the target",
		})
	}
	if m := externalLangRe.FindStringSubmatch(text); m != nil {
		c.reviews.Record(review.Finding{
			File:            c.file,
			Object:          objName,
			ObjectType:      objType,
			IssueType:       "external_language_routine",
			Severity:        review.SeverityError,
			Message:         "routine body is written in " + strings.ToUpper(m[1]) + ", which the target cannot host",
			SuggestedAction: "rewrite the routine in the target's procedural language",
		})
	}
	if lateralFlattenRe.MatchString(text) {
		c.reviews.Record(review.Finding{
			File:            c.file,
			Object:          objName,
			ObjectType:      objType,
			IssueType:       "lateral_flatten",
			Severity:        review.SeverityWarning,
			Message:         "LATERAL FLATTEN has no direct equivalent in the target",
			SuggestedAction: "rewrite with JSON_TABLE or a correlated subquery",
		})
	}
	if qualifyRe.MatchString(text) {
		c.reviews.Record(review.Finding{
			File:            c.file,
			Object:          objName,
			ObjectType:      objType,
			IssueType:       "qualify_clause",
			Severity:        review.SeverityWarning,
			Message:         "QUALIFY filters on window functions and must become a wrapping subquery",
			SuggestedAction: "move the window predicate into an outer WHERE over a subquery",
		})
	}
	if updateFromRe.MatchString(text) {
		c.reviews.Record(review.Finding{
			File:            c.file,
			Object:          objName,
			ObjectType:      objType,
			IssueType:       "update_from_join",
			Severity:        review.SeverityWarning,
			Message:         "UPDATE ... FROM join syntax is not supported by the target",
			SuggestedAction: "rewrite as MERGE or a correlated UPDATE",
		})
	}
}
