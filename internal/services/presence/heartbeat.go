package presence

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/rasync/internal/model"
	"github.com/mcoot/rasync/internal/raapi"
)

// CredentialSource resolves the current user's credentials
type CredentialSource interface {
	Get(ctx context.Context) (*model.UserAuth, error)
}

// Config holds configuration for the heartbeat
type Config struct {
	Interval time.Duration
}

// DefaultConfig returns default heartbeat configuration
func DefaultConfig() Config {
	return Config{Interval: 2 * time.Minute}
}

// Heartbeat tells the achievements service which game the user is playing.
// It posts the session start once and then pings until stopped.
type Heartbeat struct {
	api    raapi.Client
	creds  CredentialSource
	logger *slog.Logger
	cfg    Config

	mu     sync.Mutex
	gameID model.GameID
	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a new Heartbeat
func New(api raapi.Client, creds CredentialSource, logger *slog.Logger, cfg Config) *Heartbeat {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Heartbeat{
		api:    api,
		creds:  creds,
		logger: logger.With(slog.String("component", "presence")),
		cfg:    cfg,
	}
}

// Start begins reporting activity for a game, replacing any running
// heartbeat. It returns immediately; the heartbeat outlives ctx's
// cancellation and runs until Stop.
func (h *Heartbeat) Start(ctx context.Context, gameID model.GameID) {
	h.Stop()

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	h.mu.Lock()
	h.gameID = gameID
	h.cancel = cancel
	h.done = done
	h.mu.Unlock()

	go func() {
		defer close(done)
		h.run(runCtx, gameID)
	}()
}

// Stop ends the running heartbeat and waits for it to exit
func (h *Heartbeat) Stop() {
	h.mu.Lock()
	cancel, done := h.cancel, h.done
	h.cancel, h.done = nil, nil
	h.gameID = 0
	h.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Active returns the game being reported, if any
func (h *Heartbeat) Active() (model.GameID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.gameID, h.cancel != nil
}

func (h *Heartbeat) run(ctx context.Context, gameID model.GameID) {
	logger := h.logger.With(slog.String("game_id", gameID.String()))

	if auth := h.auth(ctx); auth != nil {
		if err := h.api.StartSession(ctx, *auth, gameID); err != nil {
			logger.Warn("failed to post session start", slog.String("error", err.Error()))
		} else {
			logger.Info("session start posted")
		}
	}

	ticker := time.NewTicker(h.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("heartbeat stopped")
			return
		case <-ticker.C:
			auth := h.auth(ctx)
			if auth == nil {
				continue
			}
			if err := h.api.Ping(ctx, *auth, gameID, ""); err != nil {
				logger.Warn("ping failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (h *Heartbeat) auth(ctx context.Context) *model.UserAuth {
	auth, err := h.creds.Get(ctx)
	if err != nil {
		h.logger.Error("failed to read credentials", slog.String("error", err.Error()))
		return nil
	}
	return auth
}
