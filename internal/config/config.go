package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	CurrentVersion = 1
	DefaultPath    = "~/.sqlporter/sqlporter.yaml"
)

// Config is the top-level configuration.
type Config struct {
	Version    int              `yaml:"version"`
	Conversion ConversionConfig `yaml:"conversion"`
	Execution  ExecutionConfig  `yaml:"execution,omitempty"`
	Server     ServerConfig     `yaml:"server,omitempty"`
	Logging    LogConfig        `yaml:"logging,omitempty"`
}

// ConversionConfig defines the defaults for conversion runs.
type ConversionConfig struct {
	RulesRoot       string `yaml:"rules_root"`
	SourceDialect   string `yaml:"source_dialect,omitempty"`
	TargetDialect   string `yaml:"target_dialect,omitempty"`
	TargetVersion   string `yaml:"target_version,omitempty"`
	GenerateCleanup bool   `yaml:"generate_cleanup,omitempty"`
	Workers         int    `yaml:"workers,omitempty"` // default 1, max 16
}

// ExecutionConfig defines the target database connection used to apply
// converted scripts.
type ExecutionConfig struct {
	Type     string `yaml:"type"` // oracle or postgresql
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"` // service name for oracle
	Schema   string `yaml:"schema,omitempty"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	SSL      bool   `yaml:"ssl,omitempty"`
}

// ServerConfig defines the HTTP API settings.
type ServerConfig struct {
	Port int `yaml:"port,omitempty"` // default 8080
}

// LogConfig defines logging settings.
type LogConfig struct {
	Level         string `yaml:"level,omitempty"`          // debug, info, warn, error
	Directory     string `yaml:"directory,omitempty"`      // default ~/.sqlporter/logs/
	RetentionDays int    `yaml:"retention_days,omitempty"` // default 30
}

// Load reads and parses the config file from the given path.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version %d (expected %d)", cfg.Version, CurrentVersion)
	}

	if err := cfg.resolveSecrets(); err != nil {
		return nil, fmt.Errorf("resolving secrets: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the config to the given path.
func (c *Config) Save(path string) error {
	if path == "" {
		path = ExpandHome(DefaultPath)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	return os.WriteFile(path, data, 0o600)
}

func (c *Config) applyDefaults() {
	if c.Conversion.RulesRoot != "" {
		c.Conversion.RulesRoot = ExpandHome(c.Conversion.RulesRoot)
	}
	if c.Conversion.Workers == 0 {
		c.Conversion.Workers = 1
	}
	if c.Conversion.Workers > 16 {
		c.Conversion.Workers = 16
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Directory == "" {
		c.Logging.Directory = ExpandHome("~/.sqlporter/logs/")
	}
	if c.Logging.RetentionDays == 0 {
		c.Logging.RetentionDays = 30
	}
}

var secretPattern = regexp.MustCompile(`\$\{(ENV|VAULT|AWS_SM):([^}]+)\}`)

func (c *Config) resolveSecrets() error {
	var err error
	c.Execution.Password, err = ResolveValue(c.Execution.Password)
	if err != nil {
		return fmt.Errorf("execution password: %w", err)
	}
	return nil
}

// ResolveValue resolves secret references in a string value.
func ResolveValue(val string) (string, error) {
	matches := secretPattern.FindStringSubmatch(val)
	if matches == nil {
		return val, nil
	}

	provider := matches[1]
	ref := matches[2]

	switch provider {
	case "ENV":
		v := os.Getenv(ref)
		if v == "" {
			return "", fmt.Errorf("environment variable %s not set", ref)
		}
		return v, nil
	case "VAULT":
		return resolveVault(ref)
	case "AWS_SM":
		return resolveAWSSecretsManager(ref)
	default:
		return "", fmt.Errorf("unknown secrets provider: %s", provider)
	}
}

// ExpandHome expands ~ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}
