package factory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/mcoot/rasync/internal/dependencies/clock"
	"github.com/mcoot/rasync/internal/raapi"
	"github.com/mcoot/rasync/internal/services/account"
	"github.com/mcoot/rasync/internal/services/credentials"
	"github.com/mcoot/rasync/internal/services/presence"
	"github.com/mcoot/rasync/internal/services/session"
	"github.com/mcoot/rasync/internal/services/setsync"
	"github.com/mcoot/rasync/internal/services/signature"
	"github.com/mcoot/rasync/internal/services/snapshot"
	"github.com/mcoot/rasync/internal/services/submission"
	"github.com/mcoot/rasync/internal/services/tracker"
	"github.com/mcoot/rasync/internal/storage"
	"github.com/mcoot/rasync/internal/storage/memory"
	redisstorage "github.com/mcoot/rasync/internal/storage/redis"
	"github.com/mcoot/rasync/internal/web/sse"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock clock.Clock
	API   raapi.Client

	// Services
	Credentials       *credentials.Store
	Signatures        *signature.Provider
	Pipeline          *submission.Pipeline
	Tracker           *tracker.Tracker
	Snapshots         *snapshot.Aggregator
	Synchronizer      *setsync.Synchronizer
	Heartbeat         *presence.Heartbeat
	AccountService    *account.Service
	SessionController *session.Controller

	// Presentation
	Hub         *sse.Hub
	Broadcaster *sse.Broadcaster

	logger *slog.Logger
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config

	// Component settings; zero values fall back to each package's defaults
	API         raapi.Config
	Credentials credentials.Config
	Submission  submission.Config
	Sync        setsync.Config
	Presence    presence.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	api := raapi.New(cfg.API, logger)

	return newWithDependencies(store, clk, api, cfg, logger)
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, api raapi.Client, cfg Config, logger *slog.Logger) (*App, error) {
	creds, err := credentials.New(store, cfg.Credentials, logger)
	if err != nil {
		return nil, err
	}

	hub := sse.NewHub(logger)
	broadcaster := sse.NewBroadcaster(hub, logger)
	signatures := signature.New()

	pipeline := submission.New(api, creds, store, signatures, broadcaster, clk, logger, cfg.Submission)
	trk := tracker.New(pipeline, broadcaster, clk, logger)
	aggregator := snapshot.New(trk, broadcaster, clk, logger)
	trk.SetInvalidator(aggregator)

	synchronizer := setsync.New(api, store, trk, aggregator, clk, logger, cfg.Sync)
	heartbeat := presence.New(api, creds, logger, cfg.Presence)
	accountService := account.New(api, creds, broadcaster, clk, logger)
	sessionController := session.NewController(creds, synchronizer, trk, aggregator, heartbeat, pipeline, logger)

	// A rejected token logs the user out wherever it is noticed
	pipeline.OnAuthRejected(accountService.AuthRejected)
	synchronizer.OnAuthRejected(accountService.AuthRejected)

	// Logging in again flushes everything that waited for credentials
	accountService.OnLogin(func(ctx context.Context) {
		if _, err := pipeline.Requeue(ctx); err != nil {
			logger.Warn("failed to requeue pending unlocks after login", slog.String("error", err.Error()))
		}
		trk.Resubmit()
	})

	return &App{
		Storage:           store,
		Clock:             clk,
		API:               api,
		Credentials:       creds,
		Signatures:        signatures,
		Pipeline:          pipeline,
		Tracker:           trk,
		Snapshots:         aggregator,
		Synchronizer:      synchronizer,
		Heartbeat:         heartbeat,
		AccountService:    accountService,
		SessionController: sessionController,
		Hub:               hub,
		Broadcaster:       broadcaster,
		logger:            logger,
	}, nil
}

// Start launches the background loops: the SSE hub, the submission
// workers and the tracker's result consumer
func (a *App) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	a.wg.Add(3)
	go func() {
		defer a.wg.Done()
		a.Hub.Run()
	}()
	go func() {
		defer a.wg.Done()
		_ = a.Pipeline.Run(ctx)
	}()
	go func() {
		defer a.wg.Done()
		a.Tracker.Run(ctx, a.Pipeline.Results())
	}()
}

// Shutdown ends the running session, waits for queued submissions up to
// ctx's deadline and stops the background loops
func (a *App) Shutdown(ctx context.Context) error {
	a.SessionController.End()

	err := a.Pipeline.Flush(ctx)
	if err != nil {
		a.logger.Warn("shutdown with submissions outstanding; unlocks stay pending",
			slog.String("error", err.Error()))
	}

	a.Hub.Close()
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	if closer, ok := a.Storage.(io.Closer); ok {
		if cerr := closer.Close(); cerr != nil {
			return cerr
		}
	}
	return nil
}
