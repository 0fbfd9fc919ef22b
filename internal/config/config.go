// Package config loads busctl settings from TOML or YAML files and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every busctl setting.
type Config struct {
	Log    LogConfig    `toml:"log" yaml:"log"`
	Script ScriptConfig `toml:"script" yaml:"script"`
	Watch  WatchConfig  `toml:"watch" yaml:"watch"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `toml:"level" yaml:"level"`

	// Format is text or json.
	Format string `toml:"format" yaml:"format"`
}

// ScriptConfig bounds script execution.
type ScriptConfig struct {
	// Timeout cancels a run that takes longer. Zero disables the limit.
	Timeout Duration `toml:"timeout" yaml:"timeout"`
}

// WatchConfig tunes --watch.
type WatchConfig struct {
	// Debounce coalesces bursts of file events into one re-run.
	Debounce Duration `toml:"debounce" yaml:"debounce"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Script: ScriptConfig{
			Timeout: Duration(30 * time.Second),
		},
		Watch: WatchConfig{
			Debounce: Duration(200 * time.Millisecond),
		},
	}
}

// Sentinel errors returned by Validate.
var (
	ErrInvalidLevel    = errors.New("invalid log level")
	ErrInvalidFormat   = errors.New("invalid log format")
	ErrNegativeSetting = errors.New("duration must not be negative")
)

// Validate checks every setting and joins all problems into one error.
func (c Config) Validate() error {
	var errs []error
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: %w", c.Log.Format, ErrInvalidFormat))
	}
	if c.Script.Timeout < 0 {
		errs = append(errs, fmt.Errorf("script.timeout %s: %w", c.Script.Timeout, ErrNegativeSetting))
	}
	if c.Watch.Debounce < 0 {
		errs = append(errs, fmt.Errorf("watch.debounce %s: %w", c.Watch.Debounce, ErrNegativeSetting))
	}
	return errors.Join(errs...)
}

// NewLogger builds a slog.Logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := parseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(l.Format) {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text", "":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log.format %q: %w", l.Format, ErrInvalidFormat)
	}
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("log.level %q: %w", s, ErrInvalidLevel)
}

// Duration is a time.Duration written as a Go duration string ("250ms", "1m").
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler; go-toml uses it.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}
