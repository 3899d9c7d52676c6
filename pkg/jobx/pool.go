package jobx

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Abraxas-365/inferq/pkg/logx"
	"github.com/Abraxas-365/inferq/pkg/predictor"
)

// Pool runs Concurrency independent workers against one queue. The queue's
// atomic pop hands each id to exactly one of them.
type Pool struct {
	store     *Store
	predictor predictor.Predictor
	opts      WorkerOptions

	mu      sync.Mutex
	running bool
}

func NewPool(store *Store, p predictor.Predictor, options ...WorkerOption) *Pool {
	opts := defaultWorkerOptions()
	for _, o := range options {
		o(&opts)
	}
	return &Pool{store: store, predictor: p, opts: opts}
}

// Start blocks until ctx is cancelled, then waits up to ShutdownTimeout for
// in-flight jobs and releases the predictor.
func (p *Pool) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return jobxErrors.New(ErrAlreadyRunning)
	}
	p.running = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.running = false
		p.mu.Unlock()
	}()

	log := p.logger()
	log.Infof("jobx: starting %d workers on queue %s", p.opts.Concurrency, p.store.Queue())

	var wg sync.WaitGroup
	for i := range p.opts.Concurrency {
		w := newWorker(fmt.Sprintf("worker-%d", i), p.store, p.predictor, p.opts)
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.Run(ctx)
		}()
	}

	<-ctx.Done()
	log.Info("jobx: shutting down workers...")

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var shutdownErr error
	select {
	case <-done:
		log.Info("jobx: all workers stopped")
	case <-time.After(p.opts.ShutdownTimeout):
		log.Warn("jobx: shutdown timed out, some jobs may not have completed")
		shutdownErr = jobxErrors.New(ErrShutdownTimeout).
			WithDetail("timeout", p.opts.ShutdownTimeout.String())
	}

	if err := p.predictor.Close(); err != nil {
		log.WithError(err).Warn("jobx: failed to release predictor")
	}
	return shutdownErr
}

func (p *Pool) logger() *logx.Logger {
	if p.opts.Logger != nil {
		return p.opts.Logger
	}
	return logx.Default()
}
