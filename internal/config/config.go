// internal/config/config.go
//
// This package handles the launcher configuration file. The file lives next
// to the executable as config.toml and names the project directory, the
// conda environment and the application script to start.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// FileName is the conventional name of the configuration file.
const FileName = "config.toml"

// ErrNotFound reports that no configuration file exists at the given path.
var ErrNotFound = errors.New("config file not found")

// ReadError wraps an I/O failure on an existing configuration file.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("config: read %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error { return e.Err }

// ParseError wraps a decode or schema failure.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("config: parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Config models config.toml. Values are never changed after Load returns.
type Config struct {
	// Directory is where every command runs. Relative values resolve
	// against the working directory the launcher was started from.
	Directory string `toml:"directory" yaml:"directory"`

	// Environment is the conda environment to activate.
	Environment string `toml:"environment" yaml:"environment"`

	// Script is the application entry point handed to `streamlit run`.
	Script string `toml:"script" yaml:"script"`

	// EnvFile is the environment specification used by create and update.
	EnvFile string `toml:"env_file" yaml:"env_file"`

	// CondaPath is the root of the conda installation. Empty means the
	// bare `conda` command is looked up on PATH.
	CondaPath string `toml:"conda_path" yaml:"conda_path"`

	// Shell overrides the Unix interpreter used for the activation chain.
	Shell string `toml:"shell" yaml:"shell"`
}

// DefaultPath returns config.toml in the directory of the running executable.
func DefaultPath() string {
	exe, err := os.Executable()
	if err != nil {
		return FileName
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Join(filepath.Dir(exe), FileName)
}

// Read returns the raw file contents. A missing file yields an error that
// matches ErrNotFound; any other failure is a *ReadError.
func Read(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: %s: %w", path, ErrNotFound)
		}
		return nil, &ReadError{Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &ReadError{Path: path, Err: fmt.Errorf("is a directory")}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return data, nil
}

// Parse decodes data according to the extension of path. YAML is used for
// .yaml and .yml files, TOML for everything else.
func Parse(path string, data []byte) (*Config, error) {
	var parsed Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &parsed); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
	default:
		if _, err := toml.Decode(string(data), &parsed); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
	}
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &parsed, nil
}

// Apply returns a copy of c with the given key=value overrides applied and
// re-validated. Keys use the file's field names.
func (c Config) Apply(overrides map[string]string) (*Config, error) {
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		field := c.field(key)
		if field == nil {
			return nil, fmt.Errorf("config: unknown key %q", key)
		}
		*field = overrides[key]
	}
	c.normalize()
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &c, nil
}

func (c *Config) field(key string) *string {
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "directory":
		return &c.Directory
	case "environment":
		return &c.Environment
	case "script":
		return &c.Script
	case "env_file":
		return &c.EnvFile
	case "conda_path":
		return &c.CondaPath
	case "shell":
		return &c.Shell
	}
	return nil
}

func (c *Config) normalize() {
	c.Directory = strings.TrimSpace(c.Directory)
	c.Environment = strings.TrimSpace(c.Environment)
	c.Script = strings.TrimSpace(c.Script)
	c.EnvFile = strings.TrimSpace(c.EnvFile)
	c.CondaPath = strings.TrimSpace(c.CondaPath)
	c.Shell = strings.TrimSpace(c.Shell)
}

func (c *Config) validate() error {
	var missing []string
	if c.Directory == "" {
		missing = append(missing, "directory")
	}
	if c.Environment == "" {
		missing = append(missing, "environment")
	}
	if c.Script == "" {
		missing = append(missing, "script")
	}
	if c.EnvFile == "" {
		missing = append(missing, "env_file")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required field(s): %s", strings.Join(missing, ", "))
	}
	return nil
}
