package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Abraxas-365/inferq/pkg/config"
	"github.com/Abraxas-365/inferq/pkg/jobx"
	"github.com/Abraxas-365/inferq/pkg/logx"
)

const usage = `usage: inferq <mode>

modes:
  server   serve the submit/poll HTTP API
  worker   run the inference worker pool
  all      run both in one process (required for BROKER_MODE=memory)`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	mode := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		logx.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	container, err := NewContainer(ctx, cfg)
	if err != nil {
		logx.Fatalf("Failed to initialize container: %v", err)
	}
	defer container.Cleanup()

	switch mode {
	case "server":
		err = runServer(ctx, container)
	case "worker":
		err = runWorkers(ctx, container)
	case "all":
		err = runAll(ctx, container)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n\n%s\n", mode, usage)
		os.Exit(2)
	}

	if err != nil {
		logx.Errorf("%s exited with error: %v", mode, err)
		container.Cleanup()
		os.Exit(1)
	}
	logx.Info("✅ Exited successfully")
}

func runWorkers(ctx context.Context, c *Container) error {
	pool, err := c.NewPool(ctx)
	if err != nil {
		return err
	}
	if c.Config.Jobx.MonitorEnabled() {
		monitor := jobx.NewMonitor(c.Service, c.Config.Jobx.MonitorSchedule, nil)
		go func() {
			if err := monitor.Start(ctx); err != nil {
				logx.WithError(err).Error("Queue monitor stopped")
			}
		}()
	}

	logx.Infof("🔄 Starting %d workers on queue %s", c.Config.Jobx.Concurrency, c.Config.Jobx.Queue)
	return pool.Start(ctx)
}

func runAll(ctx context.Context, c *Container) error {
	errc := make(chan error, 1)
	go func() { errc <- runWorkers(ctx, c) }()

	serverErr := runServer(ctx, c)
	workerErr := <-errc
	if serverErr != nil {
		return serverErr
	}
	return workerErr
}
