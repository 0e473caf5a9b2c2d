package sqlast

import "strings"

// Statement is one parsed SQL statement. Concrete types are *CreateTable for
// table DDL the parser understands, and *RawStatement for everything else.
type Statement interface {
	statement()
}

// RawStatement is the opaque fallback node: the statement's original text,
// kept verbatim when the grammar cannot (or need not) build a typed tree.
type RawStatement struct {
	Text string
}

func (*RawStatement) statement() {}

// ParsedStatement pairs a statement's AST with its original textual span.
// Node is nil only when lexing produced nothing (blank input).
type ParsedStatement struct {
	Text string
	Node Statement
}

// IsOpaque reports whether the statement degraded to raw text.
func (p ParsedStatement) IsOpaque() bool {
	_, ok := p.Node.(*RawStatement)
	return ok || p.Node == nil
}

// ObjectName is a possibly-qualified, possibly-quoted identifier.
type ObjectName struct {
	Parts []string // as written, quotes preserved
}

func (n ObjectName) String() string {
	return strings.Join(n.Parts, ".")
}

// Object returns the unqualified name with any surrounding quotes removed.
func (n ObjectName) Object() string {
	if len(n.Parts) == 0 {
		return ""
	}
	return strings.Trim(n.Parts[len(n.Parts)-1], `"`)
}

// CreateTable is the typed AST for a CREATE TABLE statement.
type CreateTable struct {
	Name        ObjectName
	OrReplace   bool
	IfNotExists bool
	Columns     []*ColumnDef
	Constraints []string // table-level constraints, raw text
	ClusterBy   []string // clustering expressions, raw text; nil when absent
	Properties  []TableProperty
	Comment     string
	HasComment  bool
}

func (*CreateTable) statement() {}

// ColumnDef is one column definition inside a CREATE TABLE.
type ColumnDef struct {
	Name       string // as written, quotes preserved
	Type       *DataType
	NotNull    bool
	Default    string // raw default expression, "" when absent
	Collate    string
	Generated  *GeneratedColumn
	Comment    string
	HasComment bool
	Extras     []string // inline constraints carried through verbatim
}

// DataType is a column type with optional size/precision arguments and an
// optional trailing time-zone qualifier.
type DataType struct {
	Name   string   // upper-cased type name as a single token
	Args   []string // raw argument tokens, usually numbers
	Suffix string   // "WITH TIME ZONE", "WITH LOCAL TIME ZONE", or ""
}

// GeneratedColumn captures computed-column syntax. Identity distinguishes
// sequence-backed identity columns from expression-computed ones.
type GeneratedColumn struct {
	Expr     string
	Always   bool
	Identity bool
	Virtual  bool
}

// TableProperty is a table-level property clause. GenericProperty covers
// NAME = VALUE pairs; vendor clauses registered by a grammar extension
// provide their own typed nodes.
type TableProperty interface {
	// Kind is a stable tag used to look up print rules and to classify
	// properties during rewriting.
	Kind() string
	// SQL renders the property in source form.
	SQL() string
}

// GenericProperty is a plain NAME = VALUE table property.
type GenericProperty struct {
	Name  string
	Value string // raw, "" when the property has no value
}

func (p *GenericProperty) Kind() string { return "property" }

func (p *GenericProperty) SQL() string {
	if p.Value == "" {
		return p.Name
	}
	return p.Name + " = " + p.Value
}

// RowAccessPolicyProperty is the vendor clause
// `WITH ROW ACCESS POLICY <name> ON (<cols>)`, recognized only after the
// warehouse grammar extension is applied.
type RowAccessPolicyProperty struct {
	Policy  string
	Columns []string
}

func (p *RowAccessPolicyProperty) Kind() string { return "row_access_policy" }

func (p *RowAccessPolicyProperty) SQL() string {
	return "ROW ACCESS POLICY " + p.Policy + " ON (" + strings.Join(p.Columns, ", ") + ")"
}

// TagProperty is the vendor clause `WITH TAG (<name> = '<value>', ...)`.
type TagProperty struct {
	Tags []TagAssignment
}

// TagAssignment is one name/value pair inside a TAG clause.
type TagAssignment struct {
	Name  string
	Value string // raw literal, quotes preserved
}

func (p *TagProperty) Kind() string { return "tags" }

func (p *TagProperty) SQL() string {
	parts := make([]string, len(p.Tags))
	for i, t := range p.Tags {
		parts[i] = t.Name + " = " + t.Value
	}
	return "TAG (" + strings.Join(parts, ", ") + ")"
}
