package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := "api_url = \"http://records.local:9000\"\npage_size = 20\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := resolveConfig(Options{ConfigPath: path})
	if err != nil {
		t.Fatalf("resolveConfig() error = %v", err)
	}
	if cfg.APIURL != "http://records.local:9000" || cfg.PageSize != 20 {
		t.Fatalf("resolveConfig() = %+v, want file values", cfg)
	}

	cfg, err = resolveConfig(Options{ConfigPath: path, APIURL: " http://other:8000 ", PageSize: 5})
	if err != nil {
		t.Fatalf("resolveConfig() error = %v", err)
	}
	if cfg.APIURL != "http://other:8000" {
		t.Fatalf("APIURL = %q, want flag override", cfg.APIURL)
	}
	if cfg.PageSize != 5 {
		t.Fatalf("PageSize = %d, want 5", cfg.PageSize)
	}
}

func TestResolveConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := resolveConfig(Options{ConfigPath: filepath.Join(t.TempDir(), "missing.toml")})
	if err != nil {
		t.Fatalf("resolveConfig() error = %v", err)
	}
	if cfg.PageSize != 50 {
		t.Fatalf("PageSize = %d, want default 50", cfg.PageSize)
	}
}

func TestResolveConfigInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("page_size = -1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := resolveConfig(Options{ConfigPath: path}); err == nil {
		t.Fatalf("resolveConfig() should reject a negative page size")
	}
}
