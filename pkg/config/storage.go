package config

import "fmt"

const (
	StorageModeLocal = "local"
	StorageModeS3    = "s3"
)

// StorageConfig says where model files are read from.
type StorageConfig struct {
	Mode      string `yaml:"mode"`
	LocalPath string `yaml:"local_path"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	Region    string `yaml:"region"`
}

func defaultStorageConfig() StorageConfig {
	return StorageConfig{
		Mode:      StorageModeLocal,
		LocalPath: "./models",
		Region:    "us-east-1",
	}
}

func (s *StorageConfig) applyEnv() {
	s.Mode = getEnv("STORAGE_MODE", s.Mode)
	s.LocalPath = getEnv("MODEL_DIR", s.LocalPath)
	s.Bucket = getEnv("AWS_BUCKET", s.Bucket)
	s.Prefix = getEnv("AWS_PREFIX", s.Prefix)
	s.Region = getEnv("AWS_REGION", s.Region)
}

func (s StorageConfig) Validate() error {
	switch s.Mode {
	case StorageModeLocal:
		return nil
	case StorageModeS3:
		if s.Bucket == "" {
			return fmt.Errorf("AWS_BUCKET is required when storage mode is s3")
		}
		return nil
	default:
		return fmt.Errorf("unknown storage mode %q", s.Mode)
	}
}
