package sqlast

import (
	"strings"
	"testing"
)

func snowflake(t *testing.T) *Dialect {
	t.Helper()
	d, err := Get("snowflake")
	if err != nil {
		t.Fatalf("Get(snowflake): %v", err)
	}
	ExtendWarehouseDDL(d)
	return d
}

func parseTable(t *testing.T, d *Dialect, sql string) *CreateTable {
	t.Helper()
	stmt, err := ParseStatement(d, sql)
	if err != nil {
		t.Fatalf("ParseStatement(%q): %v", sql, err)
	}
	ct, ok := stmt.(*CreateTable)
	if !ok {
		t.Fatalf("ParseStatement(%q) = %T, want *CreateTable", sql, stmt)
	}
	return ct
}

func TestParseCreateTableBasics(t *testing.T) {
	d := snowflake(t)
	ct := parseTable(t, d, `CREATE OR REPLACE TABLE sales.public.ORDERS (
		id NUMBER(38,0) NOT NULL,
		name VARCHAR(100) DEFAULT 'unknown',
		created TIMESTAMP_NTZ(9)
	)`)

	if !ct.OrReplace {
		t.Error("OrReplace = false, want true")
	}
	if got := ct.Name.String(); got != "sales.public.ORDERS" {
		t.Errorf("Name = %q, want sales.public.ORDERS", got)
	}
	if got := ct.Name.Object(); got != "ORDERS" {
		t.Errorf("Object = %q, want ORDERS", got)
	}
	if len(ct.Columns) != 3 {
		t.Fatalf("got %d columns, want 3", len(ct.Columns))
	}

	id := ct.Columns[0]
	if id.Type.Name != "NUMBER" || len(id.Type.Args) != 2 || id.Type.Args[0] != "38" || id.Type.Args[1] != "0" {
		t.Errorf("id type = %+v, want NUMBER(38,0)", id.Type)
	}
	if !id.NotNull {
		t.Error("id NotNull = false, want true")
	}
	if ct.Columns[1].Default != "'unknown'" {
		t.Errorf("name default = %q, want 'unknown'", ct.Columns[1].Default)
	}
	if ct.Columns[2].Type.Name != "TIMESTAMP_NTZ" {
		t.Errorf("created type = %q, want TIMESTAMP_NTZ", ct.Columns[2].Type.Name)
	}
}

func TestParseIfNotExistsAndQuotedNames(t *testing.T) {
	d := snowflake(t)
	ct := parseTable(t, d, `CREATE TABLE IF NOT EXISTS "My Schema"."Order Lines" ("Qty" NUMBER)`)

	if !ct.IfNotExists {
		t.Error("IfNotExists = false, want true")
	}
	if got := ct.Name.String(); got != `"My Schema"."Order Lines"` {
		t.Errorf("Name = %q", got)
	}
	if got := ct.Name.Object(); got != "Order Lines" {
		t.Errorf("Object = %q, want Order Lines", got)
	}
	if ct.Columns[0].Name != `"Qty"` {
		t.Errorf("column name = %q, want quoted Qty", ct.Columns[0].Name)
	}
}

func TestParseTimeZoneSuffix(t *testing.T) {
	d := snowflake(t)

	cases := []struct {
		sql    string
		name   string
		args   []string
		suffix string
	}{
		{"TIMESTAMP(6) WITH TIME ZONE", "TIMESTAMP", []string{"6"}, "WITH TIME ZONE"},
		{"TIMESTAMP WITH LOCAL TIME ZONE(9)", "TIMESTAMP", []string{"9"}, "WITH LOCAL TIME ZONE"},
		{"TIMESTAMP WITHOUT TIME ZONE", "TIMESTAMP", nil, "WITHOUT TIME ZONE"},
		{"DOUBLE PRECISION", "DOUBLE PRECISION", nil, ""},
		{"VARCHAR2(10 CHAR)", "VARCHAR2", []string{"10 CHAR"}, ""},
	}
	for _, tc := range cases {
		dt, err := ParseDataType(d, tc.sql)
		if err != nil {
			t.Errorf("ParseDataType(%q): %v", tc.sql, err)
			continue
		}
		if dt.Name != tc.name || dt.Suffix != tc.suffix || len(dt.Args) != len(tc.args) {
			t.Errorf("ParseDataType(%q) = %+v", tc.sql, dt)
			continue
		}
		for i := range tc.args {
			if dt.Args[i] != tc.args[i] {
				t.Errorf("ParseDataType(%q) arg %d = %q, want %q", tc.sql, i, dt.Args[i], tc.args[i])
			}
		}
	}
}

func TestParseGeneratedColumns(t *testing.T) {
	d := snowflake(t)
	ct := parseTable(t, d, `CREATE TABLE t (
		id NUMBER IDENTITY(1,1) ORDER,
		full_name VARCHAR AS (first || ' ' || last),
		seq NUMBER GENERATED ALWAYS AS IDENTITY
	)`)

	if g := ct.Columns[0].Generated; g == nil || !g.Identity {
		t.Errorf("id generated = %+v, want identity", g)
	}
	if g := ct.Columns[1].Generated; g == nil || g.Expr != "first || ' ' || last" {
		t.Errorf("full_name generated = %+v", g)
	}
	if g := ct.Columns[2].Generated; g == nil || !g.Identity || !g.Always {
		t.Errorf("seq generated = %+v, want always identity", g)
	}
}

func TestParseTableConstraintsAndClusterBy(t *testing.T) {
	d := snowflake(t)
	ct := parseTable(t, d, `CREATE TABLE t (
		a NUMBER,
		b NUMBER,
		PRIMARY KEY (a),
		CONSTRAINT fk_b FOREIGN KEY (b) REFERENCES other (id)
	) CLUSTER BY (a, TRUNC(b, 2))`)

	if len(ct.Columns) != 2 {
		t.Fatalf("got %d columns, want 2", len(ct.Columns))
	}
	if len(ct.Constraints) != 2 {
		t.Fatalf("got %d constraints, want 2: %v", len(ct.Constraints), ct.Constraints)
	}
	if ct.Constraints[0] != "PRIMARY KEY (a)" {
		t.Errorf("constraint 0 = %q", ct.Constraints[0])
	}
	if !strings.HasPrefix(ct.Constraints[1], "CONSTRAINT fk_b") {
		t.Errorf("constraint 1 = %q", ct.Constraints[1])
	}
	if len(ct.ClusterBy) != 2 || ct.ClusterBy[1] != "TRUNC(b, 2)" {
		t.Errorf("ClusterBy = %v", ct.ClusterBy)
	}
}

func TestParseCommentsAndProperties(t *testing.T) {
	d := snowflake(t)
	ct := parseTable(t, d, `CREATE TABLE t (
		a NUMBER COMMENT 'the ''a'' column'
	) DATA_RETENTION_TIME_IN_DAYS = 30 COMMENT = 'fact table'`)

	if !ct.Columns[0].HasComment || ct.Columns[0].Comment != "the 'a' column" {
		t.Errorf("column comment = %q", ct.Columns[0].Comment)
	}
	if !ct.HasComment || ct.Comment != "fact table" {
		t.Errorf("table comment = %q", ct.Comment)
	}
	if len(ct.Properties) != 1 {
		t.Fatalf("got %d properties, want 1", len(ct.Properties))
	}
	gp, ok := ct.Properties[0].(*GenericProperty)
	if !ok || gp.Name != "DATA_RETENTION_TIME_IN_DAYS" || gp.Value != "30" {
		t.Errorf("property = %+v", ct.Properties[0])
	}
}

func TestParseWarehouseExtensionClauses(t *testing.T) {
	d := snowflake(t)
	ct := parseTable(t, d, `CREATE TABLE t (a NUMBER)
		WITH ROW ACCESS POLICY rap_region ON (region_id)
		WITH TAG (owner = 'data-eng', tier = 'gold')`)

	if len(ct.Properties) != 2 {
		t.Fatalf("got %d properties, want 2", len(ct.Properties))
	}
	rap, ok := ct.Properties[0].(*RowAccessPolicyProperty)
	if !ok || rap.Policy != "rap_region" || len(rap.Columns) != 1 || rap.Columns[0] != "region_id" {
		t.Errorf("row access policy = %+v", ct.Properties[0])
	}
	tags, ok := ct.Properties[1].(*TagProperty)
	if !ok || len(tags.Tags) != 2 || tags.Tags[0].Name != "owner" || tags.Tags[0].Value != "'data-eng'" {
		t.Errorf("tags = %+v", ct.Properties[1])
	}
}

func TestParseStatementsDegradesUnknownSyntax(t *testing.T) {
	d := snowflake(t)
	stmts := ParseStatements(d, `
		CREATE TABLE t (a NUMBER);
		GRANT SELECT ON t TO ROLE analyst;
		CREATE TABLE broken (a NUMBER %%);
	`)
	if len(stmts) != 3 {
		t.Fatalf("got %d statements, want 3", len(stmts))
	}
	if stmts[0].IsOpaque() {
		t.Error("statement 0 should parse as CREATE TABLE")
	}
	if !stmts[1].IsOpaque() {
		t.Error("GRANT should be opaque")
	}
	if !stmts[2].IsOpaque() {
		t.Error("malformed CREATE TABLE should degrade to opaque")
	}
	if got := stmts[1].Text; !strings.HasPrefix(got, "GRANT SELECT") {
		t.Errorf("opaque text = %q", got)
	}
}

func TestPrintRoundTrip(t *testing.T) {
	d := snowflake(t)
	ct := parseTable(t, d, `CREATE TABLE s.t (
		id NUMBER(38,0) NOT NULL,
		ts TIMESTAMP(9) WITH LOCAL TIME ZONE,
		note VARCHAR2(50) DEFAULT 'n/a' COMMENT 'free text',
		PRIMARY KEY (id)
	) COMMENT = 'demo'`)

	out := SQL(d, ct)
	wantLines := []string{
		"CREATE TABLE s.t (",
		"  id NUMBER(38, 0) NOT NULL,",
		"  ts TIMESTAMP(9) WITH LOCAL TIME ZONE,",
		"  note VARCHAR2(50) DEFAULT 'n/a' COMMENT 'free text',",
		"  PRIMARY KEY (id)",
		") COMMENT = 'demo'",
	}
	if got := strings.Split(out, "\n"); len(got) != len(wantLines) {
		t.Fatalf("rendered:\n%s", out)
	} else {
		for i := range wantLines {
			if got[i] != wantLines[i] {
				t.Errorf("line %d = %q, want %q", i, got[i], wantLines[i])
			}
		}
	}
}

func TestExtendIsIdempotent(t *testing.T) {
	d, err := Get("oracle")
	if err != nil {
		t.Fatal(err)
	}
	ExtendWarehouseDDL(d)
	ExtendWarehouseDDL(d)
	if n := len(d.rules()); n != 2 {
		t.Errorf("got %d property rules after double registration, want 2", n)
	}
	if !d.Extended(WarehouseDDLExtension) {
		t.Error("Extended = false after registration")
	}
}

func TestSplitStatements(t *testing.T) {
	src := "\uFEFFCREATE TABLE a (x NUMBER);\r\n-- a comment; with a semicolon\nINSERT INTO a VALUES (';');\n\n"
	got := SplitStatements(src)
	if len(got) != 2 {
		t.Fatalf("got %d statements: %q", len(got), got)
	}
	if got[0] != "CREATE TABLE a (x NUMBER)" {
		t.Errorf("statement 0 = %q", got[0])
	}
	if got[1] != "-- a comment; with a semicolon\nINSERT INTO a VALUES (';')" {
		t.Errorf("statement 1 = %q", got[1])
	}
}

func TestStripComments(t *testing.T) {
	src := "SELECT 'keep -- this' /* drop\nthis */ FROM t -- tail"
	got := StripComments(src)
	if strings.Contains(got, "drop") || strings.Contains(got, "tail") {
		t.Errorf("comments survived: %q", got)
	}
	if !strings.Contains(got, "'keep -- this'") {
		t.Errorf("string literal damaged: %q", got)
	}
}
