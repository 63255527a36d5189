package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/oshokin/alh2phoebus/internal/logger"
)

// Config holds converter settings shared by all commands.
type Config struct {
	// IncludeBaseDir resolves relative INCLUDE paths. Empty means the directory of each input file.
	IncludeBaseDir string `yaml:"include_base_dir,omitempty" toml:"include_base_dir,omitempty"`
	// OutputDir receives documents converted from included files. Empty means the directory of the main output.
	OutputDir string `yaml:"output_dir,omitempty" toml:"output_dir,omitempty"`
	// Indent indents nested XML elements.
	Indent string `yaml:"indent" toml:"indent"`
	// Compact disables indentation.
	Compact bool `yaml:"compact,omitempty" toml:"compact,omitempty"`
	// ResolveIncludes converts every included file as well.
	ResolveIncludes bool `yaml:"resolve_includes" toml:"resolve_includes"`
	// LogLevel is the minimum level of log messages.
	LogLevel string `yaml:"log_level" toml:"log_level"`
	// IncludeLogLevel is the minimum level of messages logged while converting included files.
	IncludeLogLevel string `yaml:"include_log_level" toml:"include_log_level"`
	// Jobs limits the number of files converted concurrently in batch mode. Zero means one per CPU.
	Jobs int `yaml:"jobs" toml:"jobs"`
	// ManifestFile records checksums of batch conversions.
	ManifestFile string `yaml:"manifest_file" toml:"manifest_file"`
}

const (
	// DefaultConfigFilename is the settings file looked up when no path is given.
	DefaultConfigFilename = "alh2phoebus.yaml"

	// DefaultManifestFilename is the default batch manifest.
	DefaultManifestFilename = ".alh2phoebus-manifest.yaml"

	// DefaultIndent is the default indentation of XML output.
	DefaultIndent = "  "

	// DefaultLogLevel is the default level of log messages.
	DefaultLogLevel = "info"

	// DefaultIncludeLogLevel is the default level of messages about included files.
	DefaultIncludeLogLevel = "warn"

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// tomlExtension selects the TOML format.
	tomlExtension = ".toml"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errInvalidIndent is returned when the indent holds something other than spaces and tabs.
	errInvalidIndent = errors.New("indent must contain only spaces and tabs")
	// errInvalidJobs is returned for a negative job count.
	errInvalidJobs = errors.New("jobs must not be negative")
	// errInvalidLogLevel is returned for an unknown level name.
	errInvalidLogLevel = errors.New("unknown log level")
)

// Default returns validated default settings.
func Default() *Config {
	cfg := new(Config)
	_ = Validate(cfg)

	return cfg
}

// Load reads settings from path. An empty path loads DefaultConfigFilename when
// it exists and the defaults otherwise. Files ending in .toml are read as TOML,
// everything else as YAML.
func Load(path string) (*Config, error) {
	if path == "" {
		if _, err := os.Stat(DefaultConfigFilename); errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if isTOML(path) {
		err = toml.Unmarshal(contents, &cfg)
	} else {
		err = yaml.Unmarshal(contents, &cfg)
	}

	if err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path in the format chosen by its extension.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := marshal(path, cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate fills defaults and rejects settings that cannot be used.
func Validate(settings *Config) error {
	if settings == nil {
		return errConfigIsNotSet
	}

	if settings.Indent == "" {
		settings.Indent = DefaultIndent
	}

	if strings.Trim(settings.Indent, " \t") != "" {
		return fmt.Errorf("%w: %q", errInvalidIndent, settings.Indent)
	}

	if settings.LogLevel == "" {
		settings.LogLevel = DefaultLogLevel
	}

	if settings.IncludeLogLevel == "" {
		settings.IncludeLogLevel = DefaultIncludeLogLevel
	}

	for _, level := range []string{settings.LogLevel, settings.IncludeLogLevel} {
		if _, ok := logger.ParseLogLevel(level); !ok {
			return fmt.Errorf("%w: %q", errInvalidLogLevel, level)
		}
	}

	if settings.Jobs < 0 {
		return errInvalidJobs
	}

	if settings.ManifestFile == "" {
		settings.ManifestFile = DefaultManifestFilename
	}

	return nil
}

// Concurrency returns the number of files to convert at once.
func (c *Config) Concurrency() int {
	if c.Jobs > 0 {
		return c.Jobs
	}

	return runtime.NumCPU()
}

// OutputIndent returns the indentation to use for XML output.
func (c *Config) OutputIndent() string {
	if c.Compact {
		return ""
	}

	return c.Indent
}

// marshal encodes cfg in the format selected by path.
func marshal(path string, cfg *Config) ([]byte, error) {
	if !isTOML(path) {
		return yaml.Marshal(cfg)
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// isTOML reports whether path names a TOML file.
func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), tomlExtension)
}
