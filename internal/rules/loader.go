package rules

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// CategoryDDL is the rule category holding DDL conversion bundles.
const CategoryDDL = "ddl_conversion_rules"

// File names within a category directory.
const (
	FileBehaviors = "dialect_behaviors.json"
	FileDataTypes = "data_types.json"
)

// Loader resolves rule files for a (source, target) dialect pair under a
// configured root directory. Missing files are expected and yield empty
// documents; malformed files are logged and likewise degrade to empty.
type Loader struct {
	root string
	log  *slog.Logger
}

func NewLoader(root string, log *slog.Logger) *Loader {
	if log == nil {
		log = slog.Default()
	}
	return &Loader{root: root, log: log}
}

// Path returns the deterministic location of one rule file:
// <root>/<source>_<target>/<category>/<name>.
func (l *Loader) Path(source, target, category, name string) string {
	pair := strings.ToLower(source) + "_" + strings.ToLower(target)
	return filepath.Join(l.root, pair, category, name)
}

// Document loads one rule file as a generic JSON object. An absent or
// unreadable file returns an empty document, never an error.
func (l *Loader) Document(source, target, category, name string) map[string]any {
	doc := map[string]any{}
	l.read(source, target, category, name, &doc)
	return doc
}

// Load builds the merged RuleSet for a dialect pair. targetVersion selects a
// version_overrides entry in the type map and may be empty.
func (l *Loader) Load(source, target, targetVersion string) *RuleSet {
	behaviors := map[string]Behavior{}
	if !l.read(source, target, CategoryDDL, FileBehaviors, &behaviors) {
		behaviors = map[string]Behavior{}
	}

	var types typeDocument
	if !l.read(source, target, CategoryDDL, FileDataTypes, &types) {
		types = typeDocument{}
	}
	types.version = targetVersion

	rs := buildRuleSet(behaviors, types)

	if skip := behaviors[BehaviorSkipStatements]; skip.Enabled {
		for _, pat := range skip.Patterns {
			re, err := regexp.Compile(pat)
			if err != nil {
				l.log.Error("invalid skip pattern ignored", "pattern", pat, "error", err)
				continue
			}
			rs.skipPatterns = append(rs.skipPatterns, re)
		}
	}
	return rs
}

// read unmarshals one rule file into out, reporting whether the file existed
// and parsed. out is left untouched on any failure.
func (l *Loader) read(source, target, category, name string, out any) bool {
	if l.root == "" {
		l.log.Info("no rules root configured, using empty rules")
		return false
	}
	path := l.Path(source, target, category, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			l.log.Info("rule file absent, using empty rules", "path", path)
		} else {
			l.log.Error("rule file unreadable, using empty rules", "path", path, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		l.log.Error("rule file malformed, using empty rules", "path", path, "error", err)
		return false
	}
	return true
}

// typeDocument is the on-disk shape of data_types.json.
type typeDocument struct {
	Default          map[string]string          `json:"default"`
	VersionOverrides map[string]versionOverride `json:"version_overrides"`
	DynamicRules     map[string]DynamicRule     `json:"dynamic_rules"`
	ParamlessTargets []string                   `json:"paramless_targets"`
	OutputAliases    map[string]string          `json:"output_aliases"`

	version string
}

type versionOverride struct {
	Default map[string]string `json:"default"`
}
