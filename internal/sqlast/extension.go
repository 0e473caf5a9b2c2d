package sqlast

// WarehouseDDLExtension is the registration name for the vendor table-clause
// grammar below.
const WarehouseDDLExtension = "warehouse_ddl"

// ExtendWarehouseDDL teaches a dialect the governance clauses that appear on
// warehouse CREATE TABLE statements but are absent from the stock grammar:
//
//	WITH ROW ACCESS POLICY <name> ON (<columns>)
//	WITH TAG (<name> = '<value>', ...)
//
// Without the extension these clauses fail the table-options parse and the
// whole statement degrades to raw text. Registration is idempotent.
func ExtendWarehouseDDL(d *Dialect) {
	d.Extend(WarehouseDDLExtension, []PropertyRule{
		{Name: "row_access_policy", Parse: parseRowAccessPolicy},
		{Name: "tags", Parse: parseTags},
	}, map[string]func(TableProperty) string{
		"row_access_policy": func(p TableProperty) string { return p.SQL() },
		"tags":              func(p TableProperty) string { return p.SQL() },
	})
}

func parseRowAccessPolicy(c *Cursor) (TableProperty, bool) {
	if !c.MatchKeywords("ROW", "ACCESS", "POLICY") {
		return nil, false
	}
	name, ok := c.ReadIdent()
	if !ok {
		return nil, false
	}
	if !c.MatchKeywords("ON") {
		return nil, false
	}
	cols, ok := c.ReadIdentList()
	if !ok {
		return nil, false
	}
	return &RowAccessPolicyProperty{Policy: name, Columns: cols}, true
}

func parseTags(c *Cursor) (TableProperty, bool) {
	if !c.MatchKeywords("TAG") {
		return nil, false
	}
	tags, ok := c.ReadAssignments()
	if !ok {
		return nil, false
	}
	return &TagProperty{Tags: tags}, true
}
