package sqlast

import (
	"fmt"
	"strings"
	"sync"
)

// Dialect describes one SQL grammar: how statements are parsed and how ASTs
// are rendered back to text. Dialect objects are shared singletons so that a
// grammar extension registered once is visible to every caller.
type Dialect struct {
	Name string

	mu             sync.Mutex
	extensions     map[string]bool
	propertyRules  []PropertyRule
	propertyPrints map[string]func(TableProperty) string
}

// PropertyRule teaches the parser one additional table-property clause.
// Parse must either consume the clause and return its typed node, or leave
// the cursor untouched and return ok=false.
type PropertyRule struct {
	Name  string
	Parse func(c *Cursor) (TableProperty, bool)
}

var (
	dialectsMu sync.Mutex
	dialects   = map[string]*Dialect{
		"snowflake": {Name: "snowflake"},
		"oracle":    {Name: "oracle"},
		"postgres":  {Name: "postgres"},
	}
)

// Get returns the shared dialect object for name (case-insensitive).
func Get(name string) (*Dialect, error) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	d, ok := dialects[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unsupported dialect %q", name)
	}
	return d, nil
}

// Names returns the supported dialect names, sorted.
func Names() []string {
	return []string{"oracle", "postgres", "snowflake"}
}

// Extended reports whether the named extension has been registered.
func (d *Dialect) Extended(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.extensions[name]
}

// Extend registers a set of property rules and print rules under a named
// extension. Registration is idempotent: a second call with the same name is
// a no-op, so concurrent initializers cannot double-register rules.
func (d *Dialect) Extend(name string, rules []PropertyRule, prints map[string]func(TableProperty) string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.extensions == nil {
		d.extensions = map[string]bool{}
	}
	if d.extensions[name] {
		return
	}
	d.extensions[name] = true
	d.propertyRules = append(d.propertyRules, rules...)
	if d.propertyPrints == nil {
		d.propertyPrints = map[string]func(TableProperty) string{}
	}
	for k, fn := range prints {
		d.propertyPrints[k] = fn
	}
}

func (d *Dialect) rules() []PropertyRule {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]PropertyRule, len(d.propertyRules))
	copy(out, d.propertyRules)
	return out
}

// PropertySQL renders a table property using a registered print rule when
// one exists, falling back to the node's own source form.
func (d *Dialect) PropertySQL(p TableProperty) string {
	d.mu.Lock()
	fn := d.propertyPrints[p.Kind()]
	d.mu.Unlock()
	if fn != nil {
		return fn(p)
	}
	return p.SQL()
}
