package jobx

import (
	"context"
	"sync/atomic"

	"github.com/Abraxas-365/inferq/pkg/errx"
	"github.com/Abraxas-365/inferq/pkg/logx"
	"github.com/robfig/cron/v3"
)

// Monitor runs the health probe on a cron schedule and logs the queue
// depth, so worker processes report broker trouble without an HTTP surface.
type Monitor struct {
	service  *Service
	schedule string
	log      *logx.Logger
	last     atomic.Pointer[HealthReport]
}

func NewMonitor(service *Service, schedule string, log *logx.Logger) *Monitor {
	if log == nil {
		log = logx.Default()
	}
	return &Monitor{
		service:  service,
		schedule: schedule,
		log:      log.With(logx.Fields{"component": "monitor"}),
	}
}

// Check probes once and remembers the report.
func (m *Monitor) Check(ctx context.Context) HealthReport {
	report := m.service.Health(ctx)
	m.last.Store(&report)

	entry := m.log.WithFields(logx.Fields{
		"broker": report.Components["broker"],
		"worker": report.Components["worker"],
	})
	if report.QueueLength != nil {
		entry = entry.WithField("queue_length", *report.QueueLength)
	}
	if report.Healthy() {
		entry.Debug("queue healthy")
	} else {
		entry.Warn("queue unhealthy")
	}
	return report
}

// Last returns the most recent report, if any check ran.
func (m *Monitor) Last() (HealthReport, bool) {
	r := m.last.Load()
	if r == nil {
		return HealthReport{}, false
	}
	return *r, true
}

// Start blocks until ctx is cancelled. An invalid schedule is reported
// before anything runs.
func (m *Monitor) Start(ctx context.Context) error {
	c := cron.New()
	if _, err := c.AddFunc(m.schedule, func() { m.Check(ctx) }); err != nil {
		return errx.Wrap(err, "invalid monitor schedule", errx.TypeValidation).
			WithDetail("schedule", m.schedule)
	}

	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
