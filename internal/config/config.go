package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ArtifactsConfig locates the artifact database.
type ArtifactsConfig struct {
	Path string `yaml:"path"`
}

// ModelConfig controls the latent projection fitted at build time.
type ModelConfig struct {
	Topics          int   `yaml:"topics"`
	Oversampling    int   `yaml:"oversampling"`
	PowerIterations int   `yaml:"power_iterations"`
	Seed            int64 `yaml:"seed"`
}

// NormalizerConfig configures token filtering.
type NormalizerConfig struct {
	// StopwordsPath replaces the built-in English list when set.
	StopwordsPath string `yaml:"stopwords_path"`
}

// QueryConfig bounds similar-card queries.
type QueryConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Env   string `yaml:"env"`
	Level string `yaml:"level"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Library    string           `yaml:"library"`
	Artifacts  ArtifactsConfig  `yaml:"artifacts"`
	Model      ModelConfig      `yaml:"model"`
	Normalizer NormalizerConfig `yaml:"normalizer"`
	Query      QueryConfig      `yaml:"query"`
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
}

// Environment variables that override file values.
const (
	EnvLibrary   = "CARDSIM_LIBRARY"
	EnvArtifacts = "CARDSIM_ARTIFACTS"
	EnvLogLevel  = "CARDSIM_LOG_LEVEL"
	EnvAddr      = "CARDSIM_ADDR"
)

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	applyEnv(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./cardsim.yaml first, then ~/.config/cardsim/config.yaml.
// If neither exists, it writes defaults to ~/.config/cardsim/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "cardsim.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	applyEnv(cfg)
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "cardsim", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	cfg := &AppConfig{
		Library:   "cards.json.gz",
		Artifacts: ArtifactsConfig{Path: "cardsim.db"},
		Model:     ModelConfig{Topics: 100, Oversampling: 10, PowerIterations: 2},
		Query:     QueryConfig{DefaultLimit: 10, MaxLimit: 100},
		Server:    ServerConfig{Addr: ":8080"},
		Log:       LogConfig{Env: "local", Level: "info"},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.Library == "" {
		cfg.Library = def.Library
	}
	if cfg.Artifacts.Path == "" {
		cfg.Artifacts.Path = def.Artifacts.Path
	}
	if cfg.Model.Topics == 0 {
		cfg.Model.Topics = def.Model.Topics
	}
	if cfg.Model.Oversampling == 0 {
		cfg.Model.Oversampling = def.Model.Oversampling
	}
	if cfg.Model.PowerIterations == 0 {
		cfg.Model.PowerIterations = def.Model.PowerIterations
	}
	if cfg.Query.DefaultLimit == 0 {
		cfg.Query.DefaultLimit = def.Query.DefaultLimit
	}
	if cfg.Query.MaxLimit == 0 {
		cfg.Query.MaxLimit = def.Query.MaxLimit
	}
	if cfg.Query.DefaultLimit > cfg.Query.MaxLimit {
		cfg.Query.DefaultLimit = cfg.Query.MaxLimit
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Log.Env == "" {
		cfg.Log.Env = def.Log.Env
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = def.Log.Level
	}
}

func applyEnv(cfg *AppConfig) {
	if v := os.Getenv(EnvLibrary); v != "" {
		cfg.Library = v
	}
	if v := os.Getenv(EnvArtifacts); v != "" {
		cfg.Artifacts.Path = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		cfg.Server.Addr = v
	}
}
