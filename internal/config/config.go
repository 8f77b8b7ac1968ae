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

// Server contains the remote prankweb endpoint configuration.
type Server struct {
	// URL of the prankweb server, without a trailing slash.
	URL string `toml:"url"`
	// PredictionDir optionally points at a local prediction directory.
	// When set, result archives are read from disk instead of downloaded.
	PredictionDir string `toml:"prediction_dir"`
}

// PDB contains the record-discovery endpoint configuration.
type PDB struct {
	SearchURL string `toml:"search_url"`
}

// Paths contains local directory configuration.
type Paths struct {
	// DataDir holds the registry document, working directories, and the
	// published ftp tree.
	DataDir string `toml:"data_dir"`
}

// Sync contains pipeline behavior configuration.
type Sync struct {
	P2RankVersion string `toml:"p2rank_version"`
	// Strict converts per-entry conversion failures into a whole-run abort.
	Strict bool `toml:"strict"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for prankweb-sync.
type Config struct {
	Server  Server  `toml:"server"`
	PDB     PDB     `toml:"pdb"`
	Paths   Paths   `toml:"paths"`
	Sync    Sync    `toml:"sync"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/prankweb-sync/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file existed at the resolved path.
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

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func (c *Config) normalize() error {
	c.Server.URL = strings.TrimRight(strings.TrimSpace(c.Server.URL), "/")
	c.PDB.SearchURL = strings.TrimRight(strings.TrimSpace(c.PDB.SearchURL), "/")
	c.Sync.P2RankVersion = strings.TrimSpace(c.Sync.P2RankVersion)
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))

	var err error
	if c.Paths.DataDir, err = expandPath(strings.TrimSpace(c.Paths.DataDir)); err != nil {
		return err
	}
	if dir := strings.TrimSpace(c.Server.PredictionDir); dir != "" {
		if c.Server.PredictionDir, err = expandPath(dir); err != nil {
			return err
		}
	} else {
		c.Server.PredictionDir = ""
	}
	return nil
}

// EnsureDirectories creates the directories one run needs under the data dir.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.WorkingDir(), c.FTPDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// WorkingDir returns the root of the per-entry scratch directories.
func (c *Config) WorkingDir() string {
	return filepath.Join(c.Paths.DataDir, "working")
}

// FTPDir returns the root of the sharded publication tree.
func (c *Config) FTPDir() string {
	return filepath.Join(c.Paths.DataDir, "ftp")
}

// LockPath returns the lock file guarding the registry document.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "prankweb-sync.lock")
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
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
