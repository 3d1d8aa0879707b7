package config

import (
	"os"
	"testing"
)

func unsetAll(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		old, had := os.LookupEnv(k)
		_ = os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				_ = os.Setenv(k, old)
			}
		})
	}
}

func TestFirstNonEmpty(t *testing.T) {
	if v := firstNonEmpty("", "foo", "bar"); v != "foo" {
		t.Fatalf("expected 'foo', got %q", v)
	}
	if v := firstNonEmpty(); v != "" {
		t.Fatalf("expected empty, got %q", v)
	}
}

func TestParseInt(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		n, err := parseInt("42")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 42 {
			t.Fatalf("expected 42, got %d", n)
		}
	})
	t.Run("invalid", func(t *testing.T) {
		if _, err := parseInt("notanint"); err == nil {
			t.Fatalf("expected error for invalid int")
		}
	})
}

func TestIntFromEnv(t *testing.T) {
	key := "RETENTIONLOOP_TEST_INT_FROM_ENV"
	unsetAll(t, key)

	if got := intFromEnv(key, 7); got != 7 {
		t.Fatalf("expected default 7, got %d", got)
	}
	_ = os.Setenv(key, "123")
	if got := intFromEnv(key, 7); got != 123 {
		t.Fatalf("expected 123, got %d", got)
	}
	_ = os.Setenv(key, "not-a-number")
	if got := intFromEnv(key, 7); got != 7 {
		t.Fatalf("expected fallback to default on bad value, got %d", got)
	}
}

func TestParseCommaSeparatedList(t *testing.T) {
	got := parseCommaSeparatedList(" alice@example.com, bob@example.com ,, carol@example.com")
	want := []string{"alice@example.com", "bob@example.com", "carol@example.com"}
	if len(got) != len(want) {
		t.Fatalf("got %#v, want %#v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %#v, want %#v", got, want)
		}
	}
}

func TestLoadDefaultsToMemoryBackendsWithoutDatabase(t *testing.T) {
	unsetAll(t, "DATABASE_URL", "DATABASE_DSN", "CONFIGSTORE_BACKEND", "EXPERIMENTS_BACKEND",
		"METRICS_BACKEND", "FEEDBACK_BACKEND", "SECURITY_BACKEND", "ARCHIVE_BACKEND", "ARCHIVE_S3_BUCKET",
		"ARCHIVE_DIR", "PORT", "CONFIG_OVERRIDES_PATH")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backends.ConfigStore != "memory" {
		t.Errorf("ConfigStore backend = %q, want memory", cfg.Backends.ConfigStore)
	}
	if cfg.Backends.Experiments != "memory" {
		t.Errorf("Experiments backend = %q, want memory", cfg.Backends.Experiments)
	}
	if cfg.Archive.Backend != "memory" {
		t.Errorf("Archive backend = %q, want memory", cfg.Archive.Backend)
	}
	if cfg.Server.Port != 8090 {
		t.Errorf("Server.Port = %d, want 8090", cfg.Server.Port)
	}
}

func TestLoadDefaultsToAutoBackendsWithDatabase(t *testing.T) {
	unsetAll(t, "DATABASE_URL", "DATABASE_DSN", "CONFIGSTORE_BACKEND", "EXPERIMENTS_BACKEND",
		"METRICS_BACKEND", "FEEDBACK_BACKEND", "SECURITY_BACKEND", "CONFIG_OVERRIDES_PATH")
	_ = os.Setenv("DATABASE_URL", "postgres://localhost/retentionloop")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backends.ConfigStore != "auto" {
		t.Errorf("ConfigStore backend = %q, want auto", cfg.Backends.ConfigStore)
	}
	if cfg.Database.DSN != "postgres://localhost/retentionloop" {
		t.Errorf("Database.DSN = %q", cfg.Database.DSN)
	}
}

func TestLoadParsesOperatorOwners(t *testing.T) {
	unsetAll(t, "OPERATOR_OWNERS", "CONFIG_OVERRIDES_PATH")
	_ = os.Setenv("OPERATOR_OWNERS", "alice@example.com,bob@example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Operator.Owners) != 2 {
		t.Fatalf("Operator.Owners = %#v, want 2 entries", cfg.Operator.Owners)
	}
}

func TestLoadArchiveBackendInferredFromS3Bucket(t *testing.T) {
	unsetAll(t, "ARCHIVE_BACKEND", "ARCHIVE_DIR", "ARCHIVE_S3_BUCKET", "CONFIG_OVERRIDES_PATH")
	_ = os.Setenv("ARCHIVE_S3_BUCKET", "retentionloop-audit-bucket")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Archive.Backend != "s3" {
		t.Errorf("Archive.Backend = %q, want s3", cfg.Archive.Backend)
	}
}

func TestLoadAppliesConfigOverridesPath(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/overrides.yaml"
	if err := os.WriteFile(path, []byte("operator:\n  owners:\n    - ops@example.com\n"), 0o644); err != nil {
		t.Fatalf("write overrides: %v", err)
	}
	unsetAll(t, "OPERATOR_OWNERS", "CONFIG_OVERRIDES_PATH")
	_ = os.Setenv("CONFIG_OVERRIDES_PATH", path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Operator.Owners) != 1 || cfg.Operator.Owners[0] != "ops@example.com" {
		t.Fatalf("Operator.Owners = %#v", cfg.Operator.Owners)
	}
}
