package config

import (
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Listen     string    `yaml:"listen"`
	DBPath     string    `yaml:"db_path"`
	RestoreDir string    `yaml:"restore_dir"`
	Log        LogConfig `yaml:"log"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Load reads the YAML file at path, then applies ANALYTICS_* environment
// overrides. A missing file is fine (defaults apply); a present-but-broken
// one is not. A .env file, if any, is folded into the environment first.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if v := os.Getenv("ANALYTICS_LISTEN"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("ANALYTICS_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("ANALYTICS_RESTORE_DIR"); v != "" {
		cfg.RestoreDir = v
	}
	if v := os.Getenv("ANALYTICS_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	if cfg.Listen == "" {
		cfg.Listen = ":8080"
	}
	if cfg.DBPath == "" {
		cfg.DBPath = "./data/analytics.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	return &cfg, nil
}
