package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cardsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("library: /data/cards.json\nmodel:\n  topics: 50\n  seed: 7\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/cards.json", cfg.Library)
	assert.Equal(t, 50, cfg.Model.Topics)
	assert.Equal(t, int64(7), cfg.Model.Seed)
	assert.Equal(t, 10, cfg.Model.Oversampling)
	assert.Equal(t, 2, cfg.Model.PowerIterations)
	assert.Equal(t, "cardsim.db", cfg.Artifacts.Path)
	assert.Equal(t, 10, cfg.Query.DefaultLimit)
	assert.Equal(t, 100, cfg.Query.MaxLimit)
	assert.Equal(t, ":8080", cfg.Server.Addr)
}

func TestLoad_DefaultLimitClampedToMax(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cardsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("query:\n  default_limit: 500\n  max_limit: 20\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Query.DefaultLimit)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvLibrary, "/env/cards.json.gz")
	t.Setenv(EnvArtifacts, "/env/cardsim.db")
	t.Setenv(EnvLogLevel, "debug")
	t.Setenv(EnvAddr, ":9090")

	path := filepath.Join(t.TempDir(), "cardsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("library: file.json\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/env/cards.json.gz", cfg.Library)
	assert.Equal(t, "/env/cardsim.db", cfg.Artifacts.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cardsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: [unterminated"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Model.Topics = 32
	cfg.Normalizer.StopwordsPath = "/etc/stopwords.txt"
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadDefault_WritesUserConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	chdir(t, t.TempDir())

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".config", "cardsim", "config.yaml"), path)
	assert.Equal(t, 100, cfg.Model.Topics)
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestLoadDefault_PrefersWorkingDirectory(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cardsim.yaml"), []byte("server:\n  addr: \":7000\"\n"), 0o644))

	cfg, path, err := LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, "cardsim.yaml", path)
	assert.Equal(t, ":7000", cfg.Server.Addr)
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent to testing.T.Chdir from Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
