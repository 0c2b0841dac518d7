// Package server builds the filevault processes: the API server with its
// optional in-process workers, and the standalone worker.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/auth"
	"github.com/dmitrijs2005/filevault/internal/server/blobstore"
	"github.com/dmitrijs2005/filevault/internal/server/config"
	"github.com/dmitrijs2005/filevault/internal/server/httpapi"
	"github.com/dmitrijs2005/filevault/internal/server/jobs"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/notify"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filevault/internal/server/services"
	"github.com/dmitrijs2005/filevault/internal/server/sessions"
	"github.com/dmitrijs2005/filevault/internal/server/thumbnails"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Mode selects which parts of the application run.
type Mode int

const (
	// ModeAPI serves HTTP and runs config.Workers in-process workers.
	ModeAPI Mode = iota
	// ModeWorker only consumes the Postgres queue.
	ModeWorker
)

var ErrWorkerNeedsPostgres = errors.New("worker process requires the postgres queue backend")

type App struct {
	config   *config.Config
	mode     Mode
	logger   logging.Logger
	registry *prometheus.Registry

	db       *sql.DB
	sessions *sessions.Store
	http     *httpapi.Server
	runner   *jobs.Runner
}

func NewApp(ctx context.Context, c *config.Config, mode Mode) (*App, error) {
	if mode == ModeWorker && c.QueueBackend != config.QueueBackendPostgres {
		return nil, ErrWorkerNeedsPostgres
	}

	app := &App{
		config:   c,
		mode:     mode,
		logger:   logging.NewJSONLogger(os.Stdout, slog.LevelInfo),
		registry: prometheus.NewRegistry(),
	}
	app.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := app.init(ctx); err != nil {
		app.close()
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config

	db, err := repomanager.OpenPostgres(ctx, c.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	blobs, err := newBlobStore(ctx, c)
	if err != nil {
		return fmt.Errorf("blob store init error: %w", err)
	}

	var store jobs.Store
	if c.QueueBackend == config.QueueBackendMemory {
		store = jobs.NewMemoryStore()
	} else {
		store = jobs.NewPostgresStore(db, rm)
	}

	workers := c.Workers
	if app.mode == ModeWorker && workers < 1 {
		workers = 1
	}
	if workers > 0 {
		app.runner = jobs.NewRunner(store, jobs.RunnerOptions{
			Workers:      workers,
			PollInterval: c.JobPollInterval,
			Lease:        c.JobLease,
			BackoffUnit:  c.JobBackoffUnit,
		}, jobs.NewMetrics(app.registry), app.logger.With("module", "jobs"))
		app.runner.Register(models.JobKindThumbnail, thumbnails.NewHandler(db, rm, blobs, app.logger.With("module", "thumbnails")))
		app.runner.Register(models.JobKindWelcome, notify.NewWelcomeHandler(db, rm, app.logger.With("module", "notify")))
	}

	if app.mode == ModeWorker {
		return nil
	}

	sess, err := sessions.Open(c.SessionDir, c.SessionTTL)
	if err != nil {
		return err
	}
	app.sessions = sess

	gateway := auth.NewGateway(sess)
	queue := jobs.NewQueue(store, c.JobMaxAttempts)

	userService := services.NewUserService(db, rm, gateway, sess, queue, app.logger.With("module", "users"))
	fileService := services.NewFileService(db, rm, gateway, blobs, queue, app.logger.With("module", "files"))
	statusService := services.NewStatusService(db, rm, sess)

	app.http = httpapi.NewServer(httpapi.Options{
		Address:      c.HTTPAddress,
		ConnectRate:  c.ConnectRate,
		ConnectBurst: c.ConnectBurst,
		MaxBodyBytes: c.MaxBodyBytes,
		Registry:     app.registry,
	}, userService, fileService, statusService, app.logger)
	return nil
}

func newBlobStore(ctx context.Context, c *config.Config) (blobstore.Store, error) {
	if c.BlobBackend == config.BlobBackendS3 {
		return blobstore.NewS3Store(ctx, blobstore.S3Config{
			Region:   c.S3Region,
			Endpoint: c.S3Endpoint,
			User:     c.S3User,
			Password: c.S3Password,
			Bucket:   c.S3Bucket,
		})
	}
	return blobstore.NewFSStore(c.BlobRoot)
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run blocks until a termination signal arrives, ctx is cancelled or the
// HTTP server fails, then releases every resource.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "mode", app.mode.String())
	app.initSignalHandler(ctx, cancelFunc)

	var (
		wg      sync.WaitGroup
		httpErr error
	)

	if app.http != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := app.http.Run(ctx); err != nil {
				app.logger.Error(ctx, "HTTP server failed", "error", err)
				httpErr = err
				cancelFunc()
			}
		}()
	}

	if app.runner != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.runner.Run(ctx)
		}()
	}

	wg.Wait()
	app.close()
	app.logger.Info(context.WithoutCancel(ctx), "App stopped")
	return httpErr
}

func (app *App) close() {
	if app.sessions != nil {
		if err := app.sessions.Close(); err != nil {
			app.logger.Error(context.Background(), "session store close failed", "error", err)
		}
	}
	if app.db != nil {
		_ = app.db.Close()
	}
}

func (m Mode) String() string {
	if m == ModeWorker {
		return "worker"
	}
	return "api"
}
