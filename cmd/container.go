// cmd/container.go
//
// Composition root. Owns the broker, model storage and archive connections
// and builds the job queue service and worker pool on top of them.
package main

import (
	"context"
	"fmt"

	"github.com/Abraxas-365/inferq/pkg/asyncx"
	"github.com/Abraxas-365/inferq/pkg/broker"
	"github.com/Abraxas-365/inferq/pkg/broker/brokermemory"
	"github.com/Abraxas-365/inferq/pkg/broker/brokerredis"
	"github.com/Abraxas-365/inferq/pkg/config"
	"github.com/Abraxas-365/inferq/pkg/fsx"
	"github.com/Abraxas-365/inferq/pkg/fsx/fsxlocal"
	"github.com/Abraxas-365/inferq/pkg/fsx/fsxs3"
	"github.com/Abraxas-365/inferq/pkg/jobx"
	"github.com/Abraxas-365/inferq/pkg/jobx/jobxapi"
	"github.com/Abraxas-365/inferq/pkg/jobx/jobxpostgres"
	"github.com/Abraxas-365/inferq/pkg/logx"
	"github.com/Abraxas-365/inferq/pkg/predictor"
	"github.com/Abraxas-365/inferq/pkg/predictor/softmax"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds shared infrastructure and the job queue components.
type Container struct {
	Config *config.Config

	// Infrastructure
	Broker     broker.Client
	FileSystem fsx.FileReader
	DB         *sqlx.DB

	// Job queue
	Store         *jobx.Store
	Service       *jobx.Service
	FastPredictor predictor.Predictor
	Archive       *jobxpostgres.Recorder
	Handlers      *jobxapi.Handlers
}

func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}
	if err := c.initInfrastructure(ctx); err != nil {
		c.Cleanup()
		return nil, err
	}
	if err := c.initModules(ctx); err != nil {
		c.Cleanup()
		return nil, err
	}

	logx.Info("✅ Application container initialized")
	return c, nil
}

// ---------------------------------------------------------------------------
// Infrastructure: broker, model storage, archive database
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure(ctx context.Context) error {
	if err := c.initBroker(ctx); err != nil {
		return err
	}
	if err := c.initFileStorage(ctx); err != nil {
		return err
	}
	if c.Config.Archive.Enabled {
		if err := c.initArchiveDB(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *Container) initBroker(ctx context.Context) error {
	switch c.Config.Broker.Mode {
	case config.BrokerModeMemory:
		c.Broker = brokermemory.New()
		logx.Warn("  ⚠️ In-memory broker: jobs are lost on restart and not shared between processes")
		return nil

	case config.BrokerModeRedis:
		rc := c.Config.Redis
		client := brokerredis.NewFromConfig(rc)
		_, err := asyncx.RetryWithBackoff(ctx, rc.ConnectAttempts, rc.ConnectBackoff,
			func(ctx context.Context) (struct{}, error) {
				if !client.Ping(ctx) {
					return struct{}{}, broker.Connection("ping", fmt.Errorf("no answer from %s", rc.Addr()))
				}
				return struct{}{}, nil
			})
		if err != nil {
			_ = client.Close()
			return fmt.Errorf("connect to redis at %s: %w", rc.Addr(), err)
		}
		c.Broker = client
		logx.Infof("  ✅ Redis connected (%s, db %d)", rc.Addr(), rc.DB)
		return nil
	}
	return fmt.Errorf("unknown broker mode %q", c.Config.Broker.Mode)
}

func (c *Container) initFileStorage(ctx context.Context) error {
	sc := c.Config.Storage

	switch sc.Mode {
	case config.StorageModeS3:
		awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(sc.Region))
		if err != nil {
			return fmt.Errorf("load AWS SDK config: %w", err)
		}
		c.FileSystem = fsxs3.NewS3FileSystem(s3.NewFromConfig(awsCfg), sc.Bucket, sc.Prefix)
		logx.Infof("  ✅ S3 model storage configured (bucket: %s, region: %s)", sc.Bucket, sc.Region)

	case config.StorageModeLocal:
		localFS, err := fsxlocal.NewLocalFileSystem(sc.LocalPath)
		if err != nil {
			if c.Config.Predictor.ModelPath == "" && c.Config.Predictor.FastModelPath == "" {
				logx.Infof("  ℹ️ No model directory at %s, serving the built-in iris model", sc.LocalPath)
				return nil
			}
			return fmt.Errorf("init local model storage: %w", err)
		}
		c.FileSystem = localFS
		logx.Infof("  ✅ Local model storage configured (path: %s)", localFS.GetBasePath())

	default:
		return fmt.Errorf("unknown storage mode %q", sc.Mode)
	}
	return nil
}

func (c *Container) initArchiveDB(ctx context.Context) error {
	ac := c.Config.Archive

	db, err := sqlx.ConnectContext(ctx, "postgres", ac.DSN())
	if err != nil {
		return fmt.Errorf("connect to archive database: %w", err)
	}
	db.SetMaxOpenConns(ac.MaxOpenConns)
	db.SetConnMaxLifetime(ac.ConnMaxLifetime)
	c.DB = db
	logx.Info("  ✅ Archive database connected")
	return nil
}

// ---------------------------------------------------------------------------
// Modules
// ---------------------------------------------------------------------------

func (c *Container) initModules(ctx context.Context) error {
	c.Store = jobx.NewStore(c.Broker, c.Config.Jobx.Queue, c.Config.Jobx.JobTTL)

	if c.DB != nil {
		c.Archive = jobxpostgres.NewRecorder(c.DB)
		if err := c.Archive.EnsureSchema(ctx); err != nil {
			return err
		}
	}

	opts := []jobx.ServiceOption{}
	if md, err := c.modelMetadata(ctx); err == nil {
		opts = append(opts, jobx.WithModelMetadata(md))
	} else {
		logx.WithError(err).Warn("  ⚠️ Model metadata unavailable")
	}

	fast, err := c.loadPredictor(ctx, c.Config.Predictor.FastModelPath)
	if err != nil {
		return fmt.Errorf("load fast model: %w", err)
	}
	c.FastPredictor = fast
	opts = append(opts, jobx.WithFastPredictor(fast, c.Config.Jobx.PredictTimeout))

	c.Service = jobx.NewService(c.Store, opts...)
	c.Handlers = jobxapi.NewHandlers(c.Service, jobxapi.Info{
		Name:    c.Config.App.Name,
		Version: c.Config.App.Version,
	})
	return nil
}

// loadPredictor builds the model stored at path, or the built-in iris model
// when path is empty.
func (c *Container) loadPredictor(ctx context.Context, path string) (predictor.Predictor, error) {
	spec := softmax.Iris()
	if path != "" {
		var err error
		if spec, err = softmax.LoadSpec(ctx, c.FileSystem, path); err != nil {
			return nil, err
		}
		logx.Infof("  ✅ Model loaded from %s", path)
	}
	return softmax.New(spec)
}

func (c *Container) modelMetadata(ctx context.Context) (predictor.Metadata, error) {
	p, err := c.loadPredictor(ctx, c.Config.Predictor.ModelPath)
	if err != nil {
		return predictor.Metadata{}, err
	}
	defer p.Close()
	return p.Metadata(), nil
}

// NewPool builds the worker pool with the queued model.
func (c *Container) NewPool(ctx context.Context) (*jobx.Pool, error) {
	p, err := c.loadPredictor(ctx, c.Config.Predictor.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	jc := c.Config.Jobx
	opts := []jobx.WorkerOption{
		jobx.WithConcurrency(jc.Concurrency),
		jobx.WithDequeueTimeout(jc.DequeueTimeout),
		jobx.WithPredictTimeout(jc.PredictTimeout),
		jobx.WithErrorBackoff(jc.ErrorBackoff, jc.MaxErrorBackoff),
		jobx.WithShutdownTimeout(jc.ShutdownTimeout),
	}
	if c.Archive != nil {
		opts = append(opts, jobx.WithRecorder(c.Archive))
	}
	return jobx.NewPool(c.Store, p, opts...), nil
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.FastPredictor != nil {
		if err := c.FastPredictor.Close(); err != nil {
			logx.Errorf("Error closing fast model: %v", err)
		}
		c.FastPredictor = nil
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logx.Errorf("Error closing archive database: %v", err)
		} else {
			logx.Info("  ✅ Archive database connection closed")
		}
	}

	if c.Broker != nil {
		if err := c.Broker.Close(); err != nil {
			logx.Errorf("Error closing broker: %v", err)
		} else {
			logx.Info("  ✅ Broker connection closed")
		}
	}

	logx.Info("✅ Cleanup completed")
}
