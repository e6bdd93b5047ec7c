package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/parley-dev/parley/internal/storage"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "API_KEY", "STORAGE_CONTEXT", "STORAGE_BACKEND",
		"WORKSPACE_DIR", "DATA_DIR", "LOG_LEVEL", "RATE_RPS", "RATE_BURST",
		"PARLEY_CONFIG", "PARLEY_SERVER_URL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 8787 {
		t.Fatalf("expected default port 8787, got %d", cfg.Port)
	}
	if cfg.StorageContext != storage.ScopeWorkspace {
		t.Fatalf("expected workspace scope, got %q", cfg.StorageContext)
	}
	if cfg.StorageBackend != storage.BackendSQLite {
		t.Fatalf("expected sqlite backend, got %q", cfg.StorageBackend)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("STORAGE_CONTEXT", "global")
	t.Setenv("STORAGE_BACKEND", "pebble")
	t.Setenv("API_KEY", "secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9000 || cfg.APIKey != "secret" {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.StorageContext != storage.ScopeGlobal || cfg.StorageBackend != storage.BackendPebble {
		t.Fatalf("storage overrides not applied: %+v", cfg)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "parley.yaml")
	data := "port: 9100\nstorage_context: global\napi_key: from-file\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("PARLEY_CONFIG", path)
	t.Setenv("API_KEY", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9100 || cfg.StorageContext != storage.ScopeGlobal {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.APIKey != "from-env" {
		t.Fatalf("env must win over file, got %q", cfg.APIKey)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad scope", "STORAGE_CONTEXT", "session"},
		{"bad backend", "STORAGE_BACKEND", "redis"},
		{"bad port", "PORT", "99999"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tc.key, tc.value)
			}
		})
	}
}

func TestResolveDataDir(t *testing.T) {
	t.Run("explicit data dir wins", func(t *testing.T) {
		cfg := &Config{DataDir: "/var/lib/parley", StorageContext: storage.ScopeWorkspace}
		dir, err := cfg.ResolveDataDir()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir != "/var/lib/parley" {
			t.Fatalf("unexpected dir %q", dir)
		}
	})

	t.Run("falls back to scope resolution", func(t *testing.T) {
		ws := t.TempDir()
		cfg := &Config{StorageContext: storage.ScopeWorkspace, WorkspaceDir: ws}
		dir, err := cfg.ResolveDataDir()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if dir != filepath.Join(ws, ".parley") {
			t.Fatalf("unexpected dir %q", dir)
		}
	})
}
