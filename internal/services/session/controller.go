package session

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mcoot/rasync/internal/model"
)

// CredentialSource resolves the current user's credentials
type CredentialSource interface {
	Get(ctx context.Context) (*model.UserAuth, error)
}

// Loader synchronizes definitions for a game and opens its session
type Loader interface {
	LoadForGame(ctx context.Context, ident model.GameIdentifier, auth *model.UserAuth) (model.GameAchievementData, error)
}

// Tracker consumes runtime events for the open session
type Tracker interface {
	OnEvent(event model.Event) error
	EndSession()
	Resubmit() int
}

// Snapshotter produces the presentation snapshot
type Snapshotter interface {
	Snapshot() model.GameAchievementData
}

// Heartbeat reports the running game to the achievements service
type Heartbeat interface {
	Start(ctx context.Context, gameID model.GameID)
	Stop()
}

// Requeuer resubmits unlocks persisted by earlier runs
type Requeuer interface {
	Requeue(ctx context.Context) (int, error)
}

// EventError reports the first event of a batch that was rejected
type EventError struct {
	Index int
	Err   error
}

func (e *EventError) Error() string {
	return fmt.Sprintf("event %d: %v", e.Index, e.Err)
}

func (e *EventError) Unwrap() error {
	return e.Err
}

// Controller drives the lifecycle of the achievements session for the
// game the emulator is running
type Controller struct {
	creds     CredentialSource
	loader    Loader
	tracker   Tracker
	snapshots Snapshotter
	heartbeat Heartbeat
	requeuer  Requeuer
	logger    *slog.Logger
}

// NewController creates a new session Controller
func NewController(
	creds CredentialSource,
	loader Loader,
	tracker Tracker,
	snapshots Snapshotter,
	heartbeat Heartbeat,
	requeuer Requeuer,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		creds:     creds,
		loader:    loader,
		tracker:   tracker,
		snapshots: snapshots,
		heartbeat: heartbeat,
		requeuer:  requeuer,
		logger:    logger.With(slog.String("component", "session")),
	}
}

// Load opens a session for a game on launch. A game whose achievements
// cannot be loaded still launches with the disabled snapshot.
func (c *Controller) Load(ctx context.Context, ident model.GameIdentifier) (model.GameAchievementData, error) {
	auth, err := c.creds.Get(ctx)
	if err != nil {
		c.logger.Error("failed to read credentials", slog.String("error", err.Error()))
		auth = nil
	}

	data, err := c.loader.LoadForGame(ctx, ident, auth)
	if err != nil {
		c.heartbeat.Stop()
		return data, err
	}

	if !data.IntegrationEnabled {
		c.heartbeat.Stop()
		return data, nil
	}

	c.heartbeat.Start(ctx, data.GameID)
	if _, err := c.requeuer.Requeue(ctx); err != nil {
		c.logger.Warn("failed to requeue pending unlocks", slog.String("error", err.Error()))
	}

	c.logger.Info("game loaded",
		slog.String("game_id", data.GameID.String()),
		slog.Int("achievements", data.TotalAchievementCount),
		slog.Int("unlocked", data.UnlockedAchievementCount()))

	return data, nil
}

// End closes the session when the game stops
func (c *Controller) End() {
	c.tracker.EndSession()
	c.heartbeat.Stop()
}

// Snapshot returns the current presentation snapshot
func (c *Controller) Snapshot() model.GameAchievementData {
	return c.snapshots.Snapshot()
}

// HandleEvents applies a batch of runtime events in order. It stops at the
// first rejected event and returns how many were applied before it.
func (c *Controller) HandleEvents(events []model.Event) (int, error) {
	for i, event := range events {
		if err := c.tracker.OnEvent(event); err != nil {
			return i, &EventError{Index: i, Err: err}
		}
	}
	return len(events), nil
}

// Retry resubmits every unconfirmed unlock: those persisted in storage and
// those still triggered in the open session. It is called when the
// network becomes available again.
func (c *Controller) Retry(ctx context.Context) (int, error) {
	requeued, err := c.requeuer.Requeue(ctx)
	resubmitted := c.tracker.Resubmit()
	if err != nil {
		return requeued + resubmitted, err
	}

	c.logger.Info("submissions retried",
		slog.Int("requeued", requeued),
		slog.Int("resubmitted", resubmitted))
	return requeued + resubmitted, nil
}
