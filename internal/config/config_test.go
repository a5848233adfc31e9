package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"structa/internal/settings"
)

func newFlags(cfg *Config) *pflag.FlagSet {
	fs := pflag.NewFlagSet("structa", pflag.ContinueOnError)
	BindGlobal(fs, cfg)
	BindManifest(fs, cfg)
	BindApply(fs, cfg)
	return fs
}

func TestResolveFlagsOverrideSettings(t *testing.T) {
	var cfg Config
	fs := newFlags(&cfg)
	if err := fs.Parse([]string{"-f", "s.yaml", "--no-functional-blanks", "--catalog-ttl", "0s", "--cache-dir", "/tmp/blanks", "-y"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := Resolve(fs, &cfg, settings.Defaults()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ManifestPath != "s.yaml" || !cfg.Yes {
		t.Fatalf("unexpected flags: %+v", cfg)
	}
	if cfg.Settings.CreateFunctionalBlankFiles() {
		t.Fatalf("expected functional blanks to be disabled")
	}
	if cfg.Settings.CatalogTTL != 0 {
		t.Fatalf("expected zero ttl, got %v", cfg.Settings.CatalogTTL.Std())
	}
	if cfg.Settings.CacheDir != "/tmp/blanks" {
		t.Fatalf("unexpected cache dir: %q", cfg.Settings.CacheDir)
	}
}

func TestResolveUnchangedFlagsKeepSettings(t *testing.T) {
	var cfg Config
	fs := newFlags(&cfg)
	if err := fs.Parse(nil); err != nil {
		t.Fatal(err)
	}
	st := settings.Defaults()
	st.CatalogTTL = settings.Duration(time.Hour)

	if err := Resolve(fs, &cfg, st); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Settings.CatalogTTL.Std() != time.Hour {
		t.Fatalf("unchanged flag must not override settings, got %v", cfg.Settings.CatalogTTL.Std())
	}
	if !cfg.Settings.CreateFunctionalBlankFiles() {
		t.Fatalf("expected functional blanks by default")
	}
}

func TestResolveEnvironment(t *testing.T) {
	t.Setenv("STRUCTA_CREATE_FUNCTIONAL_BLANK_FILES", "false")
	t.Setenv("STRUCTA_CATALOG_TTL", "2h")
	t.Setenv("STRUCTA_HTTP_TIMEOUT", "3s")
	t.Setenv("STRUCTA_CATALOG_URL", "https://mirror.test/files.json")
	t.Setenv("STRUCTA_VERBOSE", "yes")

	var cfg Config
	if err := Resolve(nil, &cfg, settings.Defaults()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	st := cfg.Settings
	if st.FunctionalBlanks || st.CatalogTTL.Std() != 2*time.Hour || st.HTTPTimeout.Std() != 3*time.Second {
		t.Fatalf("unexpected settings: %+v", st)
	}
	if st.CatalogURL != "https://mirror.test/files.json" || !cfg.Verbose {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestResolveRejectsInvalidEnvironment(t *testing.T) {
	t.Setenv("STRUCTA_CATALOG_TTL", "tomorrow")
	var cfg Config
	if err := Resolve(nil, &cfg, settings.Defaults()); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestRequireManifest(t *testing.T) {
	var cfg Config
	if err := cfg.RequireManifest(); err == nil {
		t.Fatalf("expected error without manifest")
	}
	t.Setenv("STRUCTA_MANIFEST", "from-env.yaml")
	if err := cfg.RequireManifest(); err != nil || cfg.ManifestPath != "from-env.yaml" {
		t.Fatalf("expected manifest from env, got %q (%v)", cfg.ManifestPath, err)
	}
}

func TestLoadEnvIgnoresMissingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("STRUCTA_TEST_LOADENV=loaded\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("STRUCTA_TEST_LOADENV") })

	if err := LoadEnv(filepath.Join(dir, "missing.env"), path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := os.Getenv("STRUCTA_TEST_LOADENV"); got != "loaded" {
		t.Fatalf("expected variable from .env, got %q", got)
	}
}
