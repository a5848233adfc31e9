// Package settings persists user preferences in a TOML file.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"structa/internal/blank"
)

const (
	FileName = "settings.toml"

	DefaultHTTPTimeout = 15 * time.Second
)

// Duration is a time.Duration stored as a Go duration string ("24h").
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Settings struct {
	FunctionalBlanks bool     `toml:"create_functional_blank_files"`
	CatalogURL       string   `toml:"catalog_url,omitempty"`
	CatalogBaseURL   string   `toml:"catalog_base_url,omitempty"`
	CatalogTTL       Duration `toml:"catalog_ttl"`
	CacheDir         string   `toml:"cache_dir,omitempty"`
	HTTPTimeout      Duration `toml:"http_timeout"`
}

func Defaults() Settings {
	return Settings{
		FunctionalBlanks: true,
		CatalogTTL:       Duration(blank.DefaultCatalogTTL),
		CacheDir:         DefaultCacheDir(),
		HTTPTimeout:      Duration(DefaultHTTPTimeout),
	}
}

// CreateFunctionalBlankFiles satisfies the executor's preference lookup.
func (s Settings) CreateFunctionalBlankFiles() bool {
	return s.FunctionalBlanks
}

func (s Settings) Validate() error {
	if s.CatalogTTL < 0 {
		return errors.New("catalog_ttl must not be negative")
	}
	if s.HTTPTimeout < 0 {
		return errors.New("http_timeout must not be negative")
	}
	if strings.TrimSpace(s.CacheDir) == "" {
		return errors.New("cache_dir must not be empty")
	}
	return nil
}

// Store reads and writes one settings file.
type Store struct {
	Path string
}

func DefaultStore() Store {
	return Store{Path: filepath.Join(Dir(), FileName)}
}

// Load returns the defaults overlaid with the file contents. A missing file
// is not an error.
func (s Store) Load() (Settings, error) {
	st := Defaults()
	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return st, nil
		}
		return st, fmt.Errorf("read settings: %w", err)
	}
	if err := toml.Unmarshal(data, &st); err != nil {
		return Defaults(), fmt.Errorf("parse %s: %w", s.Path, err)
	}
	if strings.TrimSpace(st.CacheDir) == "" {
		st.CacheDir = DefaultCacheDir()
	}
	st.CacheDir = ExpandHome(st.CacheDir)
	return st, st.Validate()
}

func (s Store) Save(st Settings) error {
	if err := st.Validate(); err != nil {
		return err
	}
	data, err := toml.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	return os.WriteFile(s.Path, data, 0o644)
}

// Dir returns the configuration directory. STRUCTA_CONFIG_DIR overrides the
// per-OS default.
func Dir() string {
	if override := os.Getenv("STRUCTA_CONFIG_DIR"); override != "" {
		return override
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".structa"
	}

	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "structa")
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "structa")
	default:
		return filepath.Join(home, ".config", "structa")
	}
}

// DefaultCacheDir is where downloaded blank templates are kept.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".structa", "BlankFiles")
	}
	return filepath.Join(home, "Documents", "Structa", "BlankFiles")
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
