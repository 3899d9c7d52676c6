package config

import (
	"fmt"
	"time"
)

// JobxConfig configures the inference queue and its workers.
type JobxConfig struct {
	Queue           string        `yaml:"queue"`
	JobTTL          time.Duration `yaml:"job_ttl"`
	Concurrency     int           `yaml:"concurrency"`
	DequeueTimeout  time.Duration `yaml:"dequeue_timeout"`
	PredictTimeout  time.Duration `yaml:"predict_timeout"`
	ErrorBackoff    time.Duration `yaml:"error_backoff"`
	MaxErrorBackoff time.Duration `yaml:"max_error_backoff"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// MonitorSchedule is a cron spec for the worker-side health log.
	// "off" disables it.
	MonitorSchedule string `yaml:"monitor_schedule"`
}

func defaultJobxConfig() JobxConfig {
	return JobxConfig{
		Queue:           "predict_queue",
		JobTTL:          24 * time.Hour,
		Concurrency:     2,
		DequeueTimeout:  time.Second,
		PredictTimeout:  10 * time.Second,
		ErrorBackoff:    time.Second,
		MaxErrorBackoff: 10 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		MonitorSchedule: "@every 30s",
	}
}

func (j *JobxConfig) applyEnv() {
	j.Queue = getEnv("QUEUE_NAME", j.Queue)
	j.JobTTL = getEnvDuration("JOB_TTL", j.JobTTL)
	j.Concurrency = getEnvInt("NUM_WORKERS", j.Concurrency)
	j.DequeueTimeout = getEnvDuration("BRPOP_TIMEOUT", j.DequeueTimeout)
	j.PredictTimeout = getEnvDuration("PREDICTION_TIMEOUT", j.PredictTimeout)
	j.ErrorBackoff = getEnvDuration("JOBX_ERROR_BACKOFF", j.ErrorBackoff)
	j.MaxErrorBackoff = getEnvDuration("JOBX_MAX_ERROR_BACKOFF", j.MaxErrorBackoff)
	j.ShutdownTimeout = getEnvDuration("JOBX_SHUTDOWN_TIMEOUT", j.ShutdownTimeout)
	j.MonitorSchedule = getEnv("JOBX_MONITOR_SCHEDULE", j.MonitorSchedule)
}

func (j JobxConfig) Validate() error {
	switch {
	case j.Queue == "":
		return fmt.Errorf("queue name is required")
	case j.JobTTL <= 0:
		return fmt.Errorf("job ttl must be positive")
	case j.Concurrency < 1:
		return fmt.Errorf("worker concurrency must be at least 1")
	case j.DequeueTimeout < time.Second:
		// BRPOP only accepts whole seconds on older servers.
		return fmt.Errorf("dequeue timeout must be at least 1s")
	case j.PredictTimeout <= 0:
		return fmt.Errorf("prediction timeout must be positive")
	case j.ErrorBackoff <= 0:
		return fmt.Errorf("error backoff must be positive")
	case j.MaxErrorBackoff < j.ErrorBackoff:
		return fmt.Errorf("max error backoff must not be below error backoff")
	}
	return nil
}

func (j JobxConfig) MonitorEnabled() bool {
	return j.MonitorSchedule != "" && j.MonitorSchedule != "off"
}
