package config

import (
	"fmt"
	"time"
)

// ArchiveConfig configures the optional Postgres log of finished jobs.
type ArchiveConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Name            string        `yaml:"name"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

func defaultArchiveConfig() ArchiveConfig {
	return ArchiveConfig{
		Host:            "localhost",
		Port:            5432,
		User:            "postgres",
		Name:            "inferq",
		SSLMode:         "disable",
		MaxOpenConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

func (a *ArchiveConfig) applyEnv() {
	a.Enabled = getEnvBool("ARCHIVE_ENABLED", a.Enabled)
	a.Host = getEnv("DB_HOST", a.Host)
	a.Port = getEnvInt("DB_PORT", a.Port)
	a.User = getEnv("DB_USER", a.User)
	a.Password = getEnv("DB_PASSWORD", a.Password)
	a.Name = getEnv("DB_NAME", a.Name)
	a.SSLMode = getEnv("DB_SSLMODE", a.SSLMode)
	a.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", a.MaxOpenConns)
	a.ConnMaxLifetime = getEnvDuration("DB_CONN_MAX_LIFETIME", a.ConnMaxLifetime)
}

func (a ArchiveConfig) Validate() error {
	if !a.Enabled {
		return nil
	}
	if a.Host == "" || a.Name == "" {
		return fmt.Errorf("archive database host and name are required")
	}
	return nil
}

func (a ArchiveConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		a.Host, a.Port, a.User, a.Password, a.Name, a.SSLMode)
}
