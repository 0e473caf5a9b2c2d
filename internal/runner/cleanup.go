package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// CleanupScriptName is the drop-script file written into the output
// directory, prefixed so it sorts first.
const CleanupScriptName = "00_cleanup.sql"

var createdObjectRe = regexp.MustCompile(`(?im)^\s*CREATE\s+(?:OR\s+REPLACE\s+)?(TABLE|VIEW|SEQUENCE|PROCEDURE|FUNCTION|PACKAGE|MATERIALIZED\s+VIEW)\s+(?:IF\s+NOT\s+EXISTS\s+)?([\w"\.]+)`)

type createdObject struct {
	Type string
	Name string
}

// writeCleanupScript scans all converted statements for created objects and
// emits one DROP per unique (type, name) pair, sorted, so a re-run against a
// live target starts clean.
func (r *Runner) writeCleanupScript(outDir string, results []FileResult) (string, error) {
	seen := map[createdObject]bool{}
	var objects []createdObject
	for _, fr := range results {
		for _, stmt := range fr.Statements {
			for _, m := range createdObjectRe.FindAllStringSubmatch(stmt, -1) {
				obj := createdObject{
					Type: strings.Join(strings.Fields(strings.ToUpper(m[1])), " "),
					Name: m[2],
				}
				if !seen[obj] {
					seen[obj] = true
					objects = append(objects, obj)
				}
			}
		}
	}
	if len(objects) == 0 {
		return "", nil
	}

	sort.Slice(objects, func(i, j int) bool {
		if objects[i].Type != objects[j].Type {
			return objects[i].Type < objects[j].Type
		}
		return objects[i].Name < objects[j].Name
	})

	var b strings.Builder
	b.WriteString("-- Drops every object created by this conversion run.\n")
	b.WriteString("-- Run before re-applying the converted scripts.\n\n")
	for _, obj := range objects {
		b.WriteString(dropStatement(obj))
		b.WriteString("\n")
	}

	path := filepath.Join(outDir, CleanupScriptName)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing cleanup script: %w", err)
	}
	r.log.Info("cleanup script written", "path", path, "objects", len(objects))
	return path, nil
}

func dropStatement(obj createdObject) string {
	switch obj.Type {
	case "TABLE":
		return fmt.Sprintf("DROP TABLE %s CASCADE CONSTRAINTS;", obj.Name)
	case "MATERIALIZED VIEW":
		return fmt.Sprintf("DROP MATERIALIZED VIEW %s;", obj.Name)
	default:
		return fmt.Sprintf("DROP %s %s;", obj.Type, obj.Name)
	}
}

var (
	beginLineRe = regexp.MustCompile(`(?i)^\s*BEGIN\b`)
	endLineRe   = regexp.MustCompile(`(?i)^\s*END\s*;?\s*$`)
)

// StripProceduralBlocks removes literal BEGIN ... END bodies line by line,
// tracking nesting with a depth counter so declarative statements around the
// stripped code survive. Only a line starting with BEGIN opens a block and
// only a bare END line closes one; BEGIN or END mid-line (comments, string
// contents) does not count.
func StripProceduralBlocks(src string) string {
	var out []string
	depth := 0
	for _, line := range strings.Split(src, "\n") {
		switch {
		case beginLineRe.MatchString(line):
			depth++
		case endLineRe.MatchString(line) && depth > 0:
			depth--
		case depth == 0:
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
