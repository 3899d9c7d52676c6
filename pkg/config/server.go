package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	BodyLimit       int           `yaml:"body_limit"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	CORSOrigins     string        `yaml:"cors_origins"`
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		Port:            8000,
		ReadTimeout:     10 * time.Second,
		WriteTimeout:    15 * time.Second,
		BodyLimit:       4 * 1024 * 1024,
		ShutdownTimeout: 10 * time.Second,
		CORSOrigins:     "*",
	}
}

func (s *ServerConfig) applyEnv() {
	s.Port = getEnvInt("PORT", s.Port)
	s.ReadTimeout = getEnvDuration("SERVER_READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = getEnvDuration("SERVER_WRITE_TIMEOUT", s.WriteTimeout)
	s.BodyLimit = getEnvInt("SERVER_BODY_LIMIT", s.BodyLimit)
	s.ShutdownTimeout = getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.CORSOrigins = getEnv("CORS_ORIGINS", s.CORSOrigins)
}

func (s ServerConfig) Validate() error {
	if s.Port <= 0 || s.Port > 65535 {
		return fmt.Errorf("server port %d out of range", s.Port)
	}
	if s.BodyLimit <= 0 {
		return fmt.Errorf("server body limit must be positive")
	}
	return nil
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}
