package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadValidConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sqlporter.yaml")

	content := `version: 1
conversion:
  rules_root: /etc/sqlporter/rules
  source_dialect: snowflake
  target_dialect: oracle
execution:
  type: oracle
  host: localhost
  port: 1521
  database: ORCLPDB1
  username: testuser
  password: testpass
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("expected version 1, got %d", cfg.Version)
	}
	if cfg.Conversion.SourceDialect != "snowflake" {
		t.Errorf("expected source dialect snowflake, got %s", cfg.Conversion.SourceDialect)
	}
	if cfg.Conversion.Workers != 1 {
		t.Errorf("expected default workers 1, got %d", cfg.Conversion.Workers)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected default log level info, got %s", cfg.Logging.Level)
	}
}

func TestLoadInvalidVersion(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sqlporter.yaml")

	content := `version: 99
conversion:
  rules_root: /etc/sqlporter/rules
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for invalid version")
	}
}

func TestResolveEnvSecret(t *testing.T) {
	t.Setenv("TEST_SECRET", "mysecret")
	val, err := ResolveValue("${ENV:TEST_SECRET}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "mysecret" {
		t.Errorf("expected mysecret, got %s", val)
	}
}

func TestResolvePlainValue(t *testing.T) {
	val, err := ResolveValue("plaintext")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if val != "plaintext" {
		t.Errorf("expected plaintext, got %s", val)
	}
}

func TestWorkersCapped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sqlporter.yaml")

	content := `version: 1
conversion:
  rules_root: /etc/sqlporter/rules
  workers: 100
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Conversion.Workers != 16 {
		t.Errorf("expected workers capped at 16, got %d", cfg.Conversion.Workers)
	}
}
