package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"structa/internal/settings"
)

// Config is the per-invocation configuration: command flags plus the
// effective settings after env and flag overrides.
type Config struct {
	ManifestPath       string
	Verbose            bool
	Yes                bool
	TUI                bool
	NoFunctionalBlanks bool
	CacheDir           string
	CatalogTTL         time.Duration
	Settings           settings.Settings
}

// BindGlobal registers flags shared by every command.
func BindGlobal(flags *pflag.FlagSet, cfg *Config) {
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Verbose output")
	flags.StringVar(&cfg.CacheDir, "cache-dir", "", "Directory for downloaded blank templates")
}

// BindManifest registers the manifest flag.
func BindManifest(flags *pflag.FlagSet, cfg *Config) {
	flags.StringVarP(&cfg.ManifestPath, "file", "f", "", "Structure manifest (YAML or JSON)")
}

// BindApply registers the flags of the apply command.
func BindApply(flags *pflag.FlagSet, cfg *Config) {
	flags.BoolVarP(&cfg.Yes, "yes", "y", false, "Overwrite existing targets without asking")
	flags.BoolVar(&cfg.TUI, "tui", false, "Run the interactive terminal UI")
	flags.BoolVar(&cfg.NoFunctionalBlanks, "no-functional-blanks", false, "Create empty files instead of functional blanks")
	flags.DurationVar(&cfg.CatalogTTL, "catalog-ttl", 0, "How long the blank catalog is reused (0 refetches)")
}

// LoadEnv loads .env files into the process environment. Missing files are
// ignored; variables already set are kept.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", path, err)
		}
	}
	return nil
}

// Resolve layers the environment and changed flags over st and stores the
// result in cfg.Settings.
func Resolve(flags *pflag.FlagSet, cfg *Config, st settings.Settings) error {
	if err := applyEnv(&st); err != nil {
		return err
	}
	if !cfg.Verbose {
		cfg.Verbose = envTruthy("STRUCTA_VERBOSE")
	}

	if flagChanged(flags, "cache-dir") && strings.TrimSpace(cfg.CacheDir) != "" {
		st.CacheDir = settings.ExpandHome(strings.TrimSpace(cfg.CacheDir))
	}
	if flagChanged(flags, "catalog-ttl") {
		st.CatalogTTL = settings.Duration(cfg.CatalogTTL)
	}
	if cfg.NoFunctionalBlanks {
		st.FunctionalBlanks = false
	}

	if err := st.Validate(); err != nil {
		return err
	}
	cfg.Settings = st
	return nil
}

// RequireManifest fails when no manifest was given by flag or environment.
func (c *Config) RequireManifest() error {
	if c.ManifestPath == "" {
		c.ManifestPath = envOrEmpty("STRUCTA_MANIFEST")
	}
	if c.ManifestPath == "" {
		return errors.New("manifest is required, use --file")
	}
	return nil
}

func applyEnv(st *settings.Settings) error {
	if v := envOrEmpty("STRUCTA_CREATE_FUNCTIONAL_BLANK_FILES"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid STRUCTA_CREATE_FUNCTIONAL_BLANK_FILES %q", v)
		}
		st.FunctionalBlanks = enabled
	}
	if v := envOrEmpty("STRUCTA_CATALOG_URL"); v != "" {
		st.CatalogURL = v
	}
	if v := envOrEmpty("STRUCTA_CATALOG_BASE_URL"); v != "" {
		st.CatalogBaseURL = v
	}
	if v := envOrEmpty("STRUCTA_CACHE_DIR"); v != "" {
		st.CacheDir = settings.ExpandHome(v)
	}
	for key, dst := range map[string]*settings.Duration{
		"STRUCTA_CATALOG_TTL":  &st.CatalogTTL,
		"STRUCTA_HTTP_TIMEOUT": &st.HTTPTimeout,
	} {
		v := envOrEmpty(key)
		if v == "" {
			continue
		}
		if err := dst.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("invalid %s %q, use a duration like 24h", key, v)
		}
	}
	return nil
}

func flagChanged(flags *pflag.FlagSet, name string) bool {
	if flags == nil {
		return false
	}
	f := flags.Lookup(name)
	return f != nil && f.Changed
}

func envOrEmpty(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envTruthy(key string) bool {
	val := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	return val == "1" || val == "true" || val == "yes" || val == "y"
}
