package sqlast

import "strings"

// SQL renders a statement back to text for the given dialect. Raw statements
// are emitted verbatim.
func SQL(d *Dialect, stmt Statement) string {
	switch s := stmt.(type) {
	case *RawStatement:
		return s.Text
	case *CreateTable:
		return printCreateTable(d, s)
	}
	return ""
}

func printCreateTable(d *Dialect, ct *CreateTable) string {
	var b strings.Builder

	b.WriteString("CREATE ")
	if ct.OrReplace {
		b.WriteString("OR REPLACE ")
	}
	b.WriteString("TABLE ")
	if ct.IfNotExists {
		b.WriteString("IF NOT EXISTS ")
	}
	b.WriteString(ct.Name.String())
	b.WriteString(" (\n")

	defs := make([]string, 0, len(ct.Columns)+len(ct.Constraints))
	for _, col := range ct.Columns {
		defs = append(defs, "  "+printColumn(col))
	}
	for _, c := range ct.Constraints {
		defs = append(defs, "  "+c)
	}
	b.WriteString(strings.Join(defs, ",\n"))
	b.WriteString("\n)")

	if len(ct.ClusterBy) > 0 {
		b.WriteString(" CLUSTER BY (")
		b.WriteString(strings.Join(ct.ClusterBy, ", "))
		b.WriteString(")")
	}
	for _, p := range ct.Properties {
		b.WriteString(" ")
		b.WriteString(d.PropertySQL(p))
	}
	if ct.HasComment {
		b.WriteString(" COMMENT = ")
		b.WriteString(StringLiteral(ct.Comment))
	}
	return b.String()
}

func printColumn(col *ColumnDef) string {
	var b strings.Builder
	b.WriteString(col.Name)
	b.WriteString(" ")
	b.WriteString(col.Type.SQL())

	if col.Collate != "" {
		b.WriteString(" COLLATE ")
		b.WriteString(col.Collate)
	}
	if col.Default != "" {
		b.WriteString(" DEFAULT ")
		b.WriteString(col.Default)
	}
	if g := col.Generated; g != nil {
		switch {
		case g.Identity:
			if g.Always {
				b.WriteString(" GENERATED ALWAYS AS IDENTITY")
			} else {
				b.WriteString(" GENERATED BY DEFAULT AS IDENTITY")
			}
		default:
			// a plain AS (expr) source form stays plain; only the
			// explicit GENERATED ALWAYS form prints the long syntax
			if g.Always {
				b.WriteString(" GENERATED ALWAYS AS (")
			} else {
				b.WriteString(" AS (")
			}
			b.WriteString(g.Expr)
			b.WriteString(")")
			if g.Virtual {
				b.WriteString(" VIRTUAL")
			}
		}
	}
	if col.NotNull {
		b.WriteString(" NOT NULL")
	}
	for _, e := range col.Extras {
		b.WriteString(" ")
		b.WriteString(e)
	}
	if col.HasComment {
		b.WriteString(" COMMENT ")
		b.WriteString(StringLiteral(col.Comment))
	}
	return b.String()
}

// SQL renders the data type. The precision of a time-zone qualified type is
// written between the base name and the qualifier, TIMESTAMP(9) WITH TIME
// ZONE, which is the form both source and target grammars accept.
func (dt *DataType) SQL() string {
	var b strings.Builder
	b.WriteString(dt.Name)
	if len(dt.Args) > 0 {
		b.WriteString("(")
		b.WriteString(strings.Join(dt.Args, ", "))
		b.WriteString(")")
	}
	if dt.Suffix != "" {
		b.WriteString(" ")
		b.WriteString(dt.Suffix)
	}
	return b.String()
}
