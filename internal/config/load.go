package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for config files that are neither TOML nor YAML.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// ParseError describes a config file that could not be decoded.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// FileSystem is the subset of file operations Load needs.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS reads from the real file system.
type OSFS struct{}

// ReadFile calls os.ReadFile.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Load reads path over the defaults. An empty path or a missing file yields
// the defaults unchanged.
func Load(path string) (Config, error) {
	return LoadFS(OSFS{}, path)
}

// LoadFS is Load over a custom file system.
func LoadFS(fsys FileSystem, path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := fsys.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := decode(path, data, &cfg); err != nil {
		return Default(), err
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		d := toml.NewDecoder(bytes.NewReader(data))
		d.DisallowUnknownFields()
		err = d.Decode(cfg)
	case ".yaml", ".yml":
		d := yaml.NewDecoder(bytes.NewReader(data))
		d.KnownFields(true)
		err = d.Decode(cfg)
		if errors.Is(err, io.EOF) {
			err = nil
		}
	default:
		return fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return &ParseError{Path: path, Err: err}
	}
	return nil
}

// LookupFunc reports the value of an environment variable.
type LookupFunc func(key string) (string, bool)

// Environment variables read by ApplyEnv.
const (
	EnvLogLevel      = "BUSCTL_LOG_LEVEL"
	EnvLogFormat     = "BUSCTL_LOG_FORMAT"
	EnvScriptTimeout = "BUSCTL_SCRIPT_TIMEOUT"
	EnvWatchDebounce = "BUSCTL_WATCH_DEBOUNCE"
)

// ApplyEnv overrides cfg from the environment. A nil lookup uses os.LookupEnv.
// Empty values count as set.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if v, ok := lookup(EnvLogLevel); ok {
		cfg.Log.Level = v
	}
	if v, ok := lookup(EnvLogFormat); ok {
		cfg.Log.Format = v
	}
	var errs []error
	if v, ok := lookup(EnvScriptTimeout); ok {
		if err := cfg.Script.Timeout.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvScriptTimeout, err))
		}
	}
	if v, ok := lookup(EnvWatchDebounce); ok {
		if err := cfg.Watch.Debounce.UnmarshalText([]byte(v)); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvWatchDebounce, err))
		}
	}
	return errors.Join(errs...)
}
