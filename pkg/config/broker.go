package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	BrokerModeRedis  = "redis"
	BrokerModeMemory = "memory"
)

// BrokerConfig selects the broker backend. The memory backend only works
// when server and worker run in the same process.
type BrokerConfig struct {
	Mode string `yaml:"mode"`
}

func (b *BrokerConfig) applyEnv() {
	b.Mode = getEnv("BROKER_MODE", b.Mode)
}

func (b BrokerConfig) Validate() error {
	switch b.Mode {
	case BrokerModeRedis, BrokerModeMemory:
		return nil
	default:
		return fmt.Errorf("unknown broker mode %q", b.Mode)
	}
}

type RedisConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// ConnectAttempts bounds the startup connection retries.
	ConnectAttempts int           `yaml:"connect_attempts"`
	ConnectBackoff  time.Duration `yaml:"connect_backoff"`
}

func defaultRedisConfig() RedisConfig {
	return RedisConfig{
		Host:            "localhost",
		Port:            6379,
		PoolSize:        10,
		DialTimeout:     2 * time.Second,
		ReadTimeout:     3 * time.Second,
		WriteTimeout:    3 * time.Second,
		ConnectAttempts: 5,
		ConnectBackoff:  500 * time.Millisecond,
	}
}

func (r *RedisConfig) applyEnv() {
	r.Host = getEnv("REDIS_HOST", r.Host)
	r.Port = getEnvInt("REDIS_PORT", r.Port)
	r.Password = getEnv("REDIS_PASSWORD", r.Password)
	r.DB = getEnvInt("REDIS_DB", r.DB)
	r.PoolSize = getEnvInt("REDIS_POOL_SIZE", r.PoolSize)
	r.DialTimeout = getEnvDuration("REDIS_DIAL_TIMEOUT", r.DialTimeout)
	r.ReadTimeout = getEnvDuration("REDIS_READ_TIMEOUT", r.ReadTimeout)
	r.WriteTimeout = getEnvDuration("REDIS_WRITE_TIMEOUT", r.WriteTimeout)
	r.ConnectAttempts = getEnvInt("REDIS_CONNECT_ATTEMPTS", r.ConnectAttempts)
	r.ConnectBackoff = getEnvDuration("REDIS_CONNECT_BACKOFF", r.ConnectBackoff)
}

func (r RedisConfig) Validate() error {
	if r.Host == "" {
		return fmt.Errorf("redis host is required")
	}
	if r.Port <= 0 || r.Port > 65535 {
		return fmt.Errorf("redis port %d out of range", r.Port)
	}
	if r.DB < 0 {
		return fmt.Errorf("redis db must not be negative")
	}
	if r.ConnectAttempts < 1 {
		return fmt.Errorf("redis connect attempts must be at least 1")
	}
	return nil
}

func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, strconv.Itoa(r.Port))
}
