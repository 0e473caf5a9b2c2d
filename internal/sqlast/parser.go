package sqlast

import (
	"fmt"
	"strings"
)

// ParseStatements splits src into statements and parses each one leniently:
// statements the grammar understands become typed nodes, everything else
// degrades to *RawStatement. It never returns an error for the script as a
// whole; a file of unparseable SQL is a file of opaque statements.
func ParseStatements(d *Dialect, src string) []ParsedStatement {
	texts := SplitStatements(src)
	out := make([]ParsedStatement, 0, len(texts))
	for _, text := range texts {
		node, err := ParseStatement(d, text)
		if err != nil {
			node = &RawStatement{Text: text}
		}
		out = append(out, ParsedStatement{Text: text, Node: node})
	}
	return out
}

// ParseStatement parses a single statement. CREATE TABLE yields a typed
// *CreateTable; any other statement kind is returned as *RawStatement
// without error. A CREATE TABLE the grammar cannot fully consume returns an
// error so the caller can decide how to degrade.
func ParseStatement(d *Dialect, text string) (Statement, error) {
	p := &parser{src: text, toks: lex(text), d: d}
	if !p.atKeywords("CREATE", "OR", "REPLACE", "TABLE") && !p.atKeywords("CREATE", "TABLE") {
		return &RawStatement{Text: text}, nil
	}
	ct, err := p.parseCreateTable()
	if err != nil {
		return nil, err
	}
	return ct, nil
}

// ParseDataType parses a bare data-type string such as "VARCHAR2(10)" or
// "TIMESTAMP(9) WITH LOCAL TIME ZONE" against the dialect.
func ParseDataType(d *Dialect, text string) (*DataType, error) {
	p := &parser{src: text, toks: lex(text), d: d}
	dt, err := p.parseDataType()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != TokenEOF {
		return nil, p.errorf("unexpected %q after data type", p.cur().Text)
	}
	return dt, nil
}

type parser struct {
	src  string
	toks []Token
	pos  int
	d    *Dialect
}

func (p *parser) cur() Token  { return p.toks[p.pos] }
func (p *parser) peek() Token { return p.toks[min(p.pos+1, len(p.toks)-1)] }

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if t.Kind != TokenEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(format string, args ...any) error {
	return fmt.Errorf("near offset %d: %s", p.cur().Pos, fmt.Sprintf(format, args...))
}

// at reports whether the current token is the given keyword or punctuation.
func (p *parser) at(upper string) bool {
	return p.cur().Upper == upper
}

// atKeywords reports whether the next tokens are exactly the given keyword
// sequence, without consuming them.
func (p *parser) atKeywords(words ...string) bool {
	for i, w := range words {
		idx := p.pos + i
		if idx >= len(p.toks) || p.toks[idx].Kind != TokenIdent || p.toks[idx].Upper != w {
			return false
		}
	}
	return true
}

func (p *parser) accept(upper string) bool {
	if p.at(upper) {
		p.next()
		return true
	}
	return false
}

func (p *parser) acceptKeywords(words ...string) bool {
	if p.atKeywords(words...) {
		p.pos += len(words)
		return true
	}
	return false
}

func (p *parser) expect(upper string) error {
	if !p.accept(upper) {
		return p.errorf("expected %q, found %q", upper, p.cur().Text)
	}
	return nil
}

func (p *parser) ident() (string, error) {
	t := p.cur()
	if t.Kind != TokenIdent && t.Kind != TokenQuotedIdent {
		return "", p.errorf("expected identifier, found %q", t.Text)
	}
	p.next()
	return t.Text, nil
}

// rawSpan returns the original source between two token indexes, trimmed.
func (p *parser) rawSpan(from, to int) string {
	if from >= to {
		return ""
	}
	return strings.TrimSpace(p.src[p.toks[from].Pos:p.toks[to-1].End])
}

func (p *parser) parseCreateTable() (*CreateTable, error) {
	ct := &CreateTable{}

	if err := p.expect("CREATE"); err != nil {
		return nil, err
	}
	if p.acceptKeywords("OR", "REPLACE") {
		ct.OrReplace = true
	}
	if err := p.expect("TABLE"); err != nil {
		return nil, err
	}
	if p.acceptKeywords("IF", "NOT", "EXISTS") {
		ct.IfNotExists = true
	}

	name, err := p.parseObjectName()
	if err != nil {
		return nil, err
	}
	ct.Name = name

	if err := p.expect("("); err != nil {
		return nil, err
	}

	for {
		if p.at(")") {
			break
		}
		if p.atConstraintStart() {
			ct.Constraints = append(ct.Constraints, p.rawUntilTopLevel())
		} else {
			col, err := p.parseColumnDef()
			if err != nil {
				return nil, err
			}
			ct.Columns = append(ct.Columns, col)
		}
		if p.accept(",") {
			continue
		}
		break
	}
	if err := p.expect(")"); err != nil {
		return nil, err
	}

	if err := p.parseTableTail(ct); err != nil {
		return nil, err
	}
	if p.cur().Kind != TokenEOF {
		return nil, p.errorf("unexpected trailing %q", p.cur().Text)
	}
	return ct, nil
}

func (p *parser) parseObjectName() (ObjectName, error) {
	var n ObjectName
	part, err := p.ident()
	if err != nil {
		return n, err
	}
	n.Parts = append(n.Parts, part)
	for p.accept(".") {
		part, err := p.ident()
		if err != nil {
			return n, err
		}
		n.Parts = append(n.Parts, part)
	}
	return n, nil
}

func (p *parser) atConstraintStart() bool {
	switch p.cur().Upper {
	case "CONSTRAINT", "FOREIGN", "CHECK":
		return true
	case "PRIMARY", "UNIQUE":
		// table-level only when followed by KEY or a column list
		return p.peek().Upper == "KEY" || p.peek().Upper == "("
	}
	return false
}

// rawUntilTopLevel consumes tokens through the end of the current clause:
// up to a comma or closing paren at the current nesting depth.
func (p *parser) rawUntilTopLevel() string {
	start := p.pos
	depth := 0
	for {
		t := p.cur()
		if t.Kind == TokenEOF {
			break
		}
		if t.Upper == "(" {
			depth++
		} else if t.Upper == ")" {
			if depth == 0 {
				break
			}
			depth--
		} else if t.Upper == "," && depth == 0 {
			break
		}
		p.next()
	}
	return p.rawSpan(start, p.pos)
}

// columnStopWords end a default expression at nesting depth zero.
var columnStopWords = map[string]bool{
	"NOT": true, "NULL": true, "DEFAULT": true, "COMMENT": true,
	"COLLATE": true, "GENERATED": true, "AS": true, "IDENTITY": true,
	"AUTOINCREMENT": true, "PRIMARY": true, "UNIQUE": true,
	"REFERENCES": true, "CHECK": true, "CONSTRAINT": true, "WITH": true,
}

func (p *parser) parseColumnDef() (*ColumnDef, error) {
	name, err := p.ident()
	if err != nil {
		return nil, err
	}
	col := &ColumnDef{Name: name}

	col.Type, err = p.parseDataType()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.acceptKeywords("NOT", "NULL"):
			col.NotNull = true
		case p.accept("NULL"):
			// explicit nullability, the default; nothing to record
		case p.accept("DEFAULT"):
			col.Default = p.captureExpr()
			if col.Default == "" {
				return nil, p.errorf("empty DEFAULT expression for column %s", col.Name)
			}
		case p.accept("COLLATE"):
			t := p.next()
			if t.Kind != TokenString && t.Kind != TokenIdent && t.Kind != TokenQuotedIdent {
				return nil, p.errorf("expected collation after COLLATE")
			}
			col.Collate = t.Text
		case p.accept("COMMENT"):
			p.accept("=")
			t := p.cur()
			if t.Kind != TokenString {
				return nil, p.errorf("expected string after COMMENT")
			}
			p.next()
			col.Comment = unquoteString(t.Text)
			col.HasComment = true
		case p.at("AS"):
			p.next()
			expr, err := p.parenRaw()
			if err != nil {
				return nil, err
			}
			col.Generated = &GeneratedColumn{Expr: expr}
		case p.at("GENERATED"):
			gen, err := p.parseGenerated()
			if err != nil {
				return nil, err
			}
			col.Generated = gen
		case p.at("IDENTITY") || p.at("AUTOINCREMENT"):
			p.next()
			if p.at("(") {
				if _, err := p.parenRaw(); err != nil {
					return nil, err
				}
			}
			p.accept("ORDER")
			p.accept("NOORDER")
			col.Generated = &GeneratedColumn{Identity: true}
		case p.at("PRIMARY") || p.at("UNIQUE") || p.at("REFERENCES") || p.at("CHECK") || p.at("CONSTRAINT"):
			col.Extras = append(col.Extras, p.rawUntilTopLevel())
		case p.at(",") || p.at(")") || p.cur().Kind == TokenEOF:
			return col, nil
		default:
			return nil, p.errorf("unexpected %q in definition of column %s", p.cur().Text, col.Name)
		}
	}
}

func (p *parser) parseGenerated() (*GeneratedColumn, error) {
	if err := p.expect("GENERATED"); err != nil {
		return nil, err
	}
	gen := &GeneratedColumn{}
	switch {
	case p.accept("ALWAYS"):
		gen.Always = true
	case p.acceptKeywords("BY", "DEFAULT"):
	default:
		return nil, p.errorf("expected ALWAYS or BY DEFAULT after GENERATED")
	}
	if err := p.expect("AS"); err != nil {
		return nil, err
	}
	if p.accept("IDENTITY") {
		gen.Identity = true
		if p.at("(") {
			if _, err := p.parenRaw(); err != nil {
				return nil, err
			}
		}
		return gen, nil
	}
	expr, err := p.parenRaw()
	if err != nil {
		return nil, err
	}
	gen.Expr = expr
	if p.accept("VIRTUAL") {
		gen.Virtual = true
	}
	return gen, nil
}

// parenRaw consumes a balanced parenthesized group and returns the raw text
// inside the outer parens.
func (p *parser) parenRaw() (string, error) {
	if err := p.expect("("); err != nil {
		return "", err
	}
	start := p.pos
	depth := 0
	for {
		t := p.cur()
		if t.Kind == TokenEOF {
			return "", p.errorf("unterminated parenthesized expression")
		}
		if t.Upper == "(" {
			depth++
		} else if t.Upper == ")" {
			if depth == 0 {
				raw := p.rawSpan(start, p.pos)
				p.next()
				return raw, nil
			}
			depth--
		}
		p.next()
	}
}

// captureExpr consumes a value expression: tokens up to a column-level stop
// word, comma, or closing paren at depth zero.
func (p *parser) captureExpr() string {
	start := p.pos
	depth := 0
	for {
		t := p.cur()
		if t.Kind == TokenEOF {
			break
		}
		if depth == 0 {
			if t.Upper == "," || t.Upper == ")" {
				break
			}
			if t.Kind == TokenIdent && columnStopWords[t.Upper] {
				break
			}
		}
		if t.Upper == "(" {
			depth++
		} else if t.Upper == ")" {
			depth--
		}
		p.next()
	}
	return p.rawSpan(start, p.pos)
}

func (p *parser) parseDataType() (*DataType, error) {
	t := p.cur()
	if t.Kind != TokenIdent {
		return nil, p.errorf("expected data type, found %q", t.Text)
	}
	p.next()
	dt := &DataType{Name: t.Upper}

	// two-word type names
	if dt.Name == "DOUBLE" && p.accept("PRECISION") {
		dt.Name = "DOUBLE PRECISION"
	}
	if dt.Name == "LONG" && p.accept("RAW") {
		dt.Name = "LONG RAW"
	}

	args, err := p.typeArgs()
	if err != nil {
		return nil, err
	}
	dt.Args = args

	switch {
	case p.acceptKeywords("WITH", "LOCAL", "TIME", "ZONE"):
		dt.Suffix = "WITH LOCAL TIME ZONE"
	case p.acceptKeywords("WITH", "TIME", "ZONE"):
		dt.Suffix = "WITH TIME ZONE"
	case p.acceptKeywords("WITHOUT", "TIME", "ZONE"):
		dt.Suffix = "WITHOUT TIME ZONE"
	}

	// precision written after the zone qualifier
	if dt.Suffix != "" && len(dt.Args) == 0 {
		args, err := p.typeArgs()
		if err != nil {
			return nil, err
		}
		dt.Args = args
	}
	return dt, nil
}

func (p *parser) typeArgs() ([]string, error) {
	if !p.accept("(") {
		return nil, nil
	}
	var args []string
	start := p.pos
	for {
		t := p.cur()
		switch {
		case t.Kind == TokenEOF:
			return nil, p.errorf("unterminated type arguments")
		case t.Upper == ")":
			if arg := p.rawSpan(start, p.pos); arg != "" {
				args = append(args, arg)
			}
			p.next()
			return args, nil
		case t.Upper == ",":
			args = append(args, p.rawSpan(start, p.pos))
			p.next()
			start = p.pos
		default:
			p.next()
		}
	}
}

func (p *parser) parseTableTail(ct *CreateTable) error {
	for p.cur().Kind != TokenEOF {
		switch {
		case p.acceptKeywords("CLUSTER", "BY"):
			exprs, err := p.parenExprList()
			if err != nil {
				return err
			}
			ct.ClusterBy = exprs
		case p.at("COMMENT"):
			p.next()
			p.accept("=")
			t := p.cur()
			if t.Kind != TokenString {
				return p.errorf("expected string after table COMMENT")
			}
			p.next()
			ct.Comment = unquoteString(t.Text)
			ct.HasComment = true
		case p.accept("WITH"):
			// WITH is an optional prefix before any property clause
		default:
			prop, ok, err := p.parseProperty()
			if err != nil {
				return err
			}
			if !ok {
				return p.errorf("unexpected %q in table options", p.cur().Text)
			}
			ct.Properties = append(ct.Properties, prop)
		}
		p.accept(",")
	}
	return nil
}

func (p *parser) parseProperty() (TableProperty, bool, error) {
	// extension-registered vendor clauses take priority
	for _, rule := range p.d.rules() {
		if prop, ok := rule.Parse(&Cursor{p: p}); ok {
			return prop, true, nil
		}
	}

	if p.cur().Kind != TokenIdent {
		return nil, false, nil
	}
	name, err := p.ident()
	if err != nil {
		return nil, false, err
	}
	prop := &GenericProperty{Name: name}
	if p.accept("=") {
		t := p.cur()
		switch t.Kind {
		case TokenString, TokenNumber, TokenIdent, TokenQuotedIdent:
			p.next()
			prop.Value = t.Text
		default:
			if p.at("(") {
				raw, err := p.parenRaw()
				if err != nil {
					return nil, false, err
				}
				prop.Value = "(" + raw + ")"
			} else {
				return nil, false, p.errorf("expected property value for %s", name)
			}
		}
	}
	return prop, true, nil
}

// parenExprList reads "(expr, expr, ...)" returning each expression's raw
// text.
func (p *parser) parenExprList() ([]string, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var exprs []string
	start := p.pos
	depth := 0
	for {
		t := p.cur()
		switch {
		case t.Kind == TokenEOF:
			return nil, p.errorf("unterminated expression list")
		case t.Upper == "(":
			depth++
			p.next()
		case t.Upper == ")":
			if depth == 0 {
				if e := p.rawSpan(start, p.pos); e != "" {
					exprs = append(exprs, e)
				}
				p.next()
				return exprs, nil
			}
			depth--
			p.next()
		case t.Upper == "," && depth == 0:
			exprs = append(exprs, p.rawSpan(start, p.pos))
			p.next()
			start = p.pos
		default:
			p.next()
		}
	}
}

// Cursor is the restricted token-stream view handed to grammar-extension
// parse rules. All Match/Read methods are all-or-nothing: on failure the
// cursor is left where it was.
type Cursor struct {
	p *parser
}

// MatchKeywords consumes the exact keyword sequence, or nothing.
func (c *Cursor) MatchKeywords(words ...string) bool {
	return c.p.acceptKeywords(words...)
}

// MatchPunct consumes the given punctuation token if present.
func (c *Cursor) MatchPunct(s string) bool {
	return c.p.accept(s)
}

// ReadIdent consumes and returns an identifier.
func (c *Cursor) ReadIdent() (string, bool) {
	id, err := c.p.ident()
	return id, err == nil
}

// ReadIdentList consumes "(ident, ident, ...)".
func (c *Cursor) ReadIdentList() ([]string, bool) {
	mark := c.p.pos
	if !c.p.accept("(") {
		return nil, false
	}
	var ids []string
	for {
		id, err := c.p.ident()
		if err != nil {
			c.p.pos = mark
			return nil, false
		}
		ids = append(ids, id)
		if c.p.accept(",") {
			continue
		}
		if c.p.accept(")") {
			return ids, true
		}
		c.p.pos = mark
		return nil, false
	}
}

// ReadAssignments consumes "(name = value, ...)" where value is a string,
// number, or identifier.
func (c *Cursor) ReadAssignments() ([]TagAssignment, bool) {
	mark := c.p.pos
	if !c.p.accept("(") {
		return nil, false
	}
	var out []TagAssignment
	for {
		name, err := c.p.ident()
		if err != nil {
			c.p.pos = mark
			return nil, false
		}
		if !c.p.accept("=") {
			c.p.pos = mark
			return nil, false
		}
		t := c.p.cur()
		if t.Kind != TokenString && t.Kind != TokenNumber && t.Kind != TokenIdent {
			c.p.pos = mark
			return nil, false
		}
		c.p.next()
		out = append(out, TagAssignment{Name: name, Value: t.Text})
		if c.p.accept(",") {
			continue
		}
		if c.p.accept(")") {
			return out, true
		}
		c.p.pos = mark
		return nil, false
	}
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
