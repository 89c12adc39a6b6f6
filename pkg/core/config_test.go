package core

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "zsh", cfg.Shell)
	assert.Equal(t, []string{"-lc"}, cfg.ShellArgs)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.NotEmpty(t, cfg.Prefix)
	assert.NotNil(t, cfg.Taps)
}

func TestLoadConfigOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`prefix: /srv/brewlet
timeout: 30s
taps:
  adamzafir/qcd: https://github.com/adamzafir/homebrew-qcd
`), 0644))

	t.Setenv(PrefixEnv, "")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/brewlet", cfg.Prefix)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "zsh", cfg.Shell, "unset fields keep defaults")
	assert.Equal(t, "https://github.com/adamzafir/homebrew-qcd", cfg.Taps["adamzafir/qcd"])
}

func TestLoadConfigPrefixEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prefix: /srv/brewlet\n"), 0644))

	t.Setenv(PrefixEnv, "/env/prefix")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/env/prefix", cfg.Prefix)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("prefix: [unterminated\n"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Prefix = "/srv/brewlet"
	cfg.Taps["me/tools"] = "https://example.com/tools.git"

	require.NoError(t, SaveConfig(cfg, path))

	t.Setenv(PrefixEnv, "")
	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Prefix, loaded.Prefix)
	assert.Equal(t, cfg.Taps, loaded.Taps)
}
