package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory configuration.
type Paths struct {
	StateFile string `toml:"state_file"`
	BooksDir  string `toml:"books_dir"`
	LogDir    string `toml:"log_dir"`
}

// NPR contains configuration for the NPR Books We Love feeds.
type NPR struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Readarr contains configuration for the Readarr API. The profile and root
// folder fields are only consulted when adding a book to the library.
type Readarr struct {
	Endpoint          string `toml:"endpoint"`
	APIKey            string `toml:"api_key"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	QualityProfileID  int    `toml:"quality_profile_id"`
	MetadataProfileID int    `toml:"metadata_profile_id"`
	RootFolderPath    string `toml:"root_folder_path"`
}

// SearchCache contains configuration for the local search result cache.
type SearchCache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	TTLDays int    `toml:"ttl_days"`
}

// Tracker contains configuration for acquire run behaviour.
type Tracker struct {
	Limit       int `toml:"limit"`
	MaxAttempts int `toml:"max_attempts"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for bookshelf.
//
// Configuration sections by subsystem:
//   - Paths: datastore location, seed list directory, and log directory
//   - NPR: Books We Love feed endpoint and timeout
//   - Readarr: search API endpoint and credentials
//   - SearchCache: local cache of successful search responses
//   - Tracker: acquire run batch size and retry ceiling
//   - Logging: log format and level
type Config struct {
	Paths       Paths       `toml:"paths"`
	NPR         NPR         `toml:"npr"`
	Readarr     Readarr     `toml:"readarr"`
	SearchCache SearchCache `toml:"search_cache"`
	Tracker     Tracker     `toml:"tracker"`
	Logging     Logging     `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/bookshelf/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/bookshelf/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("bookshelf.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the tracker writes into.
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Paths.StateFile), c.Paths.BooksDir, c.Paths.LogDir}
	if c.SearchCache.Enabled && strings.TrimSpace(c.SearchCache.Path) != "" {
		dirs = append(dirs, filepath.Dir(c.SearchCache.Path))
	}
	for _, dir := range dirs {
		if dir == "" || dir == "." {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
