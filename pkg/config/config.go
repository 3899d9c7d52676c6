// Package config loads process configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the complete configuration of the server and worker binaries.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Server    ServerConfig    `yaml:"server"`
	Broker    BrokerConfig    `yaml:"broker"`
	Redis     RedisConfig     `yaml:"redis"`
	Jobx      JobxConfig      `yaml:"jobx"`
	Predictor PredictorConfig `yaml:"predictor"`
	Storage   StorageConfig   `yaml:"storage"`
	Archive   ArchiveConfig   `yaml:"archive"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Environment string `yaml:"environment"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		App: AppConfig{
			Name:        "inferq",
			Version:     "1.0.0",
			Environment: "development",
		},
		Server:    defaultServerConfig(),
		Broker:    BrokerConfig{Mode: BrokerModeRedis},
		Redis:     defaultRedisConfig(),
		Jobx:      defaultJobxConfig(),
		Predictor: defaultPredictorConfig(),
		Storage:   defaultStorageConfig(),
		Archive:   defaultArchiveConfig(),
	}
}

// Load builds the configuration. A .env file in the working directory is
// loaded first when present; CONFIG_FILE names an optional YAML file whose
// values are overridden by environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.App.Name = getEnv("APP_NAME", c.App.Name)
	c.App.Version = getEnv("APP_VERSION", c.App.Version)
	c.App.Environment = getEnv("APP_ENV", c.App.Environment)

	c.Server.applyEnv()
	c.Broker.applyEnv()
	c.Redis.applyEnv()
	c.Jobx.applyEnv()
	c.Predictor.applyEnv()
	c.Storage.applyEnv()
	c.Archive.applyEnv()
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	validators := []func() error{
		c.Server.Validate,
		c.Broker.Validate,
		c.Redis.Validate,
		c.Jobx.Validate,
		c.Storage.Validate,
		c.Archive.Validate,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}
