package config

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memFS map[string]string

func (m memFS) ReadFile(path string) ([]byte, error) {
	s, ok := m[path]
	if !ok {
		return nil, &fs.PathError{Op: "open", Path: path, Err: fs.ErrNotExist}
	}
	return []byte(s), nil
}

type brokenFS struct{}

func (brokenFS) ReadFile(string) ([]byte, error) {
	return nil, errors.New("permission denied")
}

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 30*time.Second, cfg.Script.Timeout.Std())
	assert.Equal(t, 200*time.Millisecond, cfg.Watch.Debounce.Std())
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "busctl.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[log]
level = "debug"
format = "json"

[script]
timeout = "5s"
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 5*time.Second, cfg.Script.Timeout.Std())
	assert.Equal(t, Default().Watch, cfg.Watch)
}

func TestLoadFS_YAML(t *testing.T) {
	fsys := memFS{"cfg.yaml": "log:\n  level: warn\nwatch:\n  debounce: 1s\n"}

	cfg, err := LoadFS(fsys, "cfg.yaml")
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, time.Second, cfg.Watch.Debounce.Std())
}

func TestLoadFS_EmptyYAML(t *testing.T) {
	cfg, err := LoadFS(memFS{"cfg.yml": ""}, "cfg.yml")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFS_Errors(t *testing.T) {
	tests := []struct {
		name string
		fsys FileSystem
		path string
		want error
	}{
		{"unknown extension", memFS{"cfg.ini": "x=1"}, "cfg.ini", ErrUnsupportedFormat},
		{"bad toml", memFS{"cfg.toml": "[log"}, "cfg.toml", nil},
		{"unknown toml field", memFS{"cfg.toml": "[log]\ncolour = true\n"}, "cfg.toml", nil},
		{"unknown yaml field", memFS{"cfg.yaml": "logs:\n  level: debug\n"}, "cfg.yaml", nil},
		{"bad duration", memFS{"cfg.yaml": "script:\n  timeout: soon\n"}, "cfg.yaml", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFS(tt.fsys, tt.path)
			require.Error(t, err)
			assert.Equal(t, Default(), cfg)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
				return
			}
			var perr *ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.path, perr.Path)
		})
	}
}

func TestLoadFS_ReadError(t *testing.T) {
	_, err := LoadFS(brokenFS{}, "cfg.toml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading config file cfg.toml")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvLogLevel:      "error",
		EnvLogFormat:     "json",
		EnvScriptTimeout: "750ms",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg, lookup))
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 750*time.Millisecond, cfg.Script.Timeout.Std())
	assert.Equal(t, Default().Watch, cfg.Watch)
}

func TestApplyEnv_BadDuration(t *testing.T) {
	t.Setenv(EnvWatchDebounce, "often")
	cfg := Default()
	err := ApplyEnv(&cfg, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvWatchDebounce)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Log.Level = "loud"
	cfg.Log.Format = "xml"
	cfg.Script.Timeout = Duration(-time.Second)
	cfg.Watch.Debounce = Duration(-time.Second)

	err := cfg.Validate()
	assert.ErrorIs(t, err, ErrInvalidLevel)
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.ErrorIs(t, err, ErrNegativeSetting)
}

func TestLogConfig_NewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LogConfig{Level: "debug", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)
	logger.Debug("hello", "n", 1)
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	logger, err = LogConfig{Level: "warn", Format: "text"}.NewLogger(&buf)
	require.NoError(t, err)
	logger.Info("hidden")
	assert.Empty(t, buf.String())

	_, err = LogConfig{Level: "info", Format: "xml"}.NewLogger(&buf)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}
