package config

import (
	"bytes"
	stdErrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"line-truncator/internal/truncate"
)

// DefaultMaxLines is the retain cutoff used when none is configured.
const DefaultMaxLines = truncate.DefaultMaxLines

// Config holds all configurable values for the truncator.
type Config struct {
	Path           string `yaml:"-" toml:"-"`
	ConfigFile     string `yaml:"-" toml:"-"`
	MaxLines       int    `yaml:"max_lines" toml:"max_lines"`
	Atomic         bool   `yaml:"atomic" toml:"atomic"`
	Lock           bool   `yaml:"lock" toml:"lock"`
	LockTimeoutSec int    `yaml:"lock_timeout_sec" toml:"lock_timeout_sec"`
	MaxFileSizeMB  int    `yaml:"max_file_size_mb" toml:"max_file_size_mb"`
	Verbose        bool   `yaml:"verbose" toml:"verbose"`
}

// Default returns a Config with every field at its default.
func Default() *Config {
	return &Config{
		MaxLines:       DefaultMaxLines,
		Lock:           true,
		LockTimeoutSec: 10,
	}
}

// ParseFlags parses args (without the program name) into a Config.
// When -config is given the file is loaded first and flags set explicitly
// on the command line override its values.
func ParseFlags(name string, args []string, stderr io.Writer) (*Config, error) {
	cfg := Default()
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: %s [flags] <path>\n\nKeeps only the first N lines of a text file.\n\nFlags:\n", name)
		fs.PrintDefaults()
	}

	fs.StringVar(&cfg.ConfigFile, "config", "", "Path to a YAML or TOML config file")
	fs.IntVar(&cfg.MaxLines, "max-lines", cfg.MaxLines, "Number of leading lines to keep")
	fs.IntVar(&cfg.MaxLines, "n", cfg.MaxLines, "Shorthand for -max-lines")
	fs.BoolVar(&cfg.Atomic, "atomic", cfg.Atomic, "Write to a temporary file and rename it into place")
	fs.BoolVar(&cfg.Lock, "lock", cfg.Lock, "Hold an advisory exclusive lock on the file while truncating")
	fs.IntVar(&cfg.LockTimeoutSec, "lock-timeout", cfg.LockTimeoutSec, "Seconds to wait for the lock")
	fs.IntVar(&cfg.MaxFileSizeMB, "max-file-size", cfg.MaxFileSizeMB, "Refuse files larger than this many MB (0 = no limit)")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "Log progress to stderr")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if cfg.ConfigFile != "" {
		fileCfg, err := LoadFile(cfg.ConfigFile)
		if err != nil {
			return nil, err
		}
		explicit := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { explicit[f.Name] = true })
		cfg.merge(fileCfg, explicit)
	}

	switch fs.NArg() {
	case 0:
		return nil, fmt.Errorf("path is required")
	case 1:
		cfg.Path = fs.Arg(0)
	default:
		return nil, fmt.Errorf("exactly one path is expected, got %d", fs.NArg())
	}
	return cfg, nil
}

// merge copies values from file into c unless the matching flag was set explicitly.
func (c *Config) merge(file *Config, explicit map[string]bool) {
	if !explicit["max-lines"] && !explicit["n"] {
		c.MaxLines = file.MaxLines
	}
	if !explicit["atomic"] {
		c.Atomic = file.Atomic
	}
	if !explicit["lock"] {
		c.Lock = file.Lock
	}
	if !explicit["lock-timeout"] {
		c.LockTimeoutSec = file.LockTimeoutSec
	}
	if !explicit["max-file-size"] {
		c.MaxFileSizeMB = file.MaxFileSizeMB
	}
	if !explicit["verbose"] {
		c.Verbose = file.Verbose
	}
}

// LoadFile reads a config file. The format is chosen by extension:
// .yaml/.yml or .toml. Keys missing from the file keep their defaults;
// unknown keys are an error.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !stdErrors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parsing YAML config %s: %w", path, err)
		}
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("parsing TOML config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return nil, fmt.Errorf("parsing TOML config %s: unknown keys: %s", path, strings.Join(keys, ", "))
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension %q", ext)
	}
	return cfg, nil
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("path is required")
	}

	if c.MaxLines < 0 {
		return fmt.Errorf("max lines must be 0 or greater")
	}

	if c.LockTimeoutSec < 1 || c.LockTimeoutSec > 300 {
		return fmt.Errorf("lock timeout must be between 1 and 300 seconds")
	}

	if c.MaxFileSizeMB < 0 || c.MaxFileSizeMB > 1024 {
		return fmt.Errorf("max file size must be between 0 and 1024 MB")
	}

	return nil
}

// MaxFileSizeBytes returns the size limit in bytes, 0 meaning no limit.
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}
