package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for the dex backend
type Config struct {
	Env     string        `yaml:"env"`
	Server  ServerConfig  `yaml:"server"`
	CORS    CORSConfig    `yaml:"cors"`
	Storage StorageConfig `yaml:"storage"`
	Gemini  GeminiConfig  `yaml:"gemini"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port int `yaml:"port"`
}

// CORSConfig cross-origin settings
type CORSConfig struct {
	AllowOrigins string `yaml:"allow_origins"`
}

// StorageConfig catalog document and media root locations
type StorageConfig struct {
	DataFile  string `yaml:"data_file"`
	UploadDir string `yaml:"upload_dir"`
}

// GeminiConfig external generation settings.
// APIKey is never read from yaml; it comes from the GEMINI_API_KEY env var
// so the key stays out of committed config files. An empty key selects
// placeholder generation mode.
type GeminiConfig struct {
	APIKey         string `yaml:"-"`
	Model          string `yaml:"model"`
	Endpoint       string `yaml:"endpoint"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Load reads a yaml config file and applies env-var overrides
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Env:    "local",
		Server: ServerConfig{Port: 5000},
		CORS:   CORSConfig{AllowOrigins: "*"},
		Storage: StorageConfig{
			DataFile:  "entries.json",
			UploadDir: "uploads",
		},
		Gemini: GeminiConfig{
			Model:          "gemini-2.5-flash",
			Endpoint:       "https://generativelanguage.googleapis.com/v1beta",
			TimeoutSeconds: 90,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("APP_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CORS_ALLOW_ORIGINS"); v != "" {
		cfg.CORS.AllowOrigins = v
	}
	if v := os.Getenv("DATA_FILE"); v != "" {
		cfg.Storage.DataFile = v
	}
	if v := os.Getenv("UPLOAD_DIR"); v != "" {
		cfg.Storage.UploadDir = v
	}
	if v := os.Getenv("GEMINI_MODEL"); v != "" {
		cfg.Gemini.Model = v
	}
	cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
}

// IsDevelopment reports whether the config targets a development environment
func (c *Config) IsDevelopment() bool {
	return c.Env == "local" || c.Env == "dev" || c.Env == "development"
}
