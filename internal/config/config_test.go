package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOverridesMergesOwners(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.yaml")
	content := `operator:
  owners:
    - alice@example.com
    - bob@example.com
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write overrides file: %v", err)
	}

	cfg := Config{}
	if err := LoadOverrides(&cfg, path); err != nil {
		t.Fatalf("LoadOverrides: %v", err)
	}
	if len(cfg.Operator.Owners) != 2 || cfg.Operator.Owners[0] != "alice@example.com" {
		t.Fatalf("unexpected owners: %#v", cfg.Operator.Owners)
	}
}

func TestLoadOverridesMissingFileIsNotAnError(t *testing.T) {
	cfg := Config{Operator: OperatorConfig{Owners: []string{"existing@example.com"}}}
	if err := LoadOverrides(&cfg, filepath.Join(t.TempDir(), "nonexistent.yaml")); err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if len(cfg.Operator.Owners) != 1 || cfg.Operator.Owners[0] != "existing@example.com" {
		t.Fatalf("expected owners to remain untouched, got %#v", cfg.Operator.Owners)
	}
}

func TestLoadOverridesInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("not: [valid"), 0o644); err != nil {
		t.Fatalf("write bad yaml: %v", err)
	}

	cfg := Config{}
	if err := LoadOverrides(&cfg, path); err == nil {
		t.Fatal("expected error for invalid YAML, got nil")
	}
}

func TestLoadOverridesLeavesOwnersWhenSectionAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "overrides.yaml")
	if err := os.WriteFile(path, []byte("archive:\n  backend: file\n"), 0o644); err != nil {
		t.Fatalf("write overrides file: %v", err)
	}

	cfg := Config{Operator: OperatorConfig{Owners: []string{"existing@example.com"}}}
	if err := LoadOverrides(&cfg, path); err != nil {
		t.Fatalf("LoadOverrides: %v", err)
	}
	if len(cfg.Operator.Owners) != 1 || cfg.Operator.Owners[0] != "existing@example.com" {
		t.Fatalf("expected owners to remain untouched, got %#v", cfg.Operator.Owners)
	}
}
