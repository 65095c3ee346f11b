package submission

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/mcoot/rasync/internal/dependencies/clock"
	"github.com/mcoot/rasync/internal/model"
	"github.com/mcoot/rasync/internal/notify"
	"github.com/mcoot/rasync/internal/raapi"
	"github.com/mcoot/rasync/internal/services/signature"
	"github.com/mcoot/rasync/internal/storage"
)

// CredentialSource resolves the current user's credentials; nil means
// nobody is logged in
type CredentialSource interface {
	Get(ctx context.Context) (*model.UserAuth, error)
}

// Config holds configuration for the submission pipeline
type Config struct {
	MaxAttempts         int
	InitialInterval     time.Duration
	MaxInterval         time.Duration
	Multiplier          float64
	RandomizationFactor float64
	Concurrency         int
	ResultBuffer        int
}

// DefaultConfig returns default pipeline configuration
func DefaultConfig() Config {
	return Config{
		MaxAttempts:         5,
		InitialInterval:     time.Second,
		MaxInterval:         30 * time.Second,
		Multiplier:          2,
		RandomizationFactor: 0.5,
		Concurrency:         4,
		ResultBuffer:        64,
	}
}

// Pipeline turns triggered unlocks and completed leaderboard attempts into
// API calls on background workers. Unlocks are persisted as pending before
// the first attempt and only forgotten once the server confirms them;
// leaderboard entries are best effort.
type Pipeline struct {
	api      raapi.Client
	creds    CredentialSource
	storage  storage.Storage
	signer   *signature.Provider
	notifier notify.Notifier
	clock    clock.Clock
	logger   *slog.Logger
	cfg      Config

	results chan model.SubmissionResult
	sem     *semaphore.Weighted
	locks   *keyedMutex
	signal  chan struct{}

	mu             sync.Mutex
	queue          []model.SubmissionTask
	open           map[string]bool
	activeUnlocks  map[model.AchievementID]bool
	mastered       map[masteryKey]bool
	outstanding    int
	onAuthRejected func(ctx context.Context)
}

type masteryKey struct {
	username     string
	gameID       model.GameID
	hardcoreMode bool
}

// New creates a new Pipeline. Call Run to start processing.
func New(
	api raapi.Client,
	creds CredentialSource,
	storage storage.Storage,
	signer *signature.Provider,
	notifier notify.Notifier,
	clock clock.Clock,
	logger *slog.Logger,
	cfg Config,
) *Pipeline {
	defaults := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaults.MaxAttempts
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = defaults.InitialInterval
	}
	if cfg.MaxInterval <= 0 {
		cfg.MaxInterval = defaults.MaxInterval
	}
	if cfg.Multiplier < 1 {
		cfg.Multiplier = defaults.Multiplier
	}
	if cfg.RandomizationFactor < 0 || cfg.RandomizationFactor > 1 {
		cfg.RandomizationFactor = defaults.RandomizationFactor
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaults.Concurrency
	}
	if cfg.ResultBuffer <= 0 {
		cfg.ResultBuffer = defaults.ResultBuffer
	}

	return &Pipeline{
		api:           api,
		creds:         creds,
		storage:       storage,
		signer:        signer,
		notifier:      notifier,
		clock:         clock,
		logger:        logger.With(slog.String("component", "submission")),
		cfg:           cfg,
		results:       make(chan model.SubmissionResult, cfg.ResultBuffer),
		sem:           semaphore.NewWeighted(int64(cfg.Concurrency)),
		locks:         newKeyedMutex(),
		signal:        make(chan struct{}, 1),
		open:          make(map[string]bool),
		activeUnlocks: make(map[model.AchievementID]bool),
		mastered:      make(map[masteryKey]bool),
	}
}

// OnAuthRejected registers a hook run when the server refuses the stored
// credentials
func (p *Pipeline) OnAuthRejected(fn func(ctx context.Context)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onAuthRejected = fn
}

// Results delivers the outcome of every finished task
func (p *Pipeline) Results() <-chan model.SubmissionResult {
	return p.results
}

// OpenSession starts accepting work for a session
func (p *Pipeline) OpenSession(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.open[sessionID] = true
}

// CloseSession rejects further work for a session. Queued and in-flight
// tasks still run to completion.
func (p *Pipeline) CloseSession(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.open, sessionID)
}

// SubmitUnlock queues an unlock without blocking. An unlock for an id
// that is already queued or in flight is coalesced into it.
func (p *Pipeline) SubmitUnlock(sessionID string, gameID model.GameID, id model.AchievementID, hardcoreMode bool) error {
	_, err := p.enqueueUnlock(model.SubmissionTask{
		Kind:          model.SubmissionUnlock,
		SessionID:     sessionID,
		GameID:        gameID,
		AchievementID: id,
		HardcoreMode:  hardcoreMode,
	})
	return err
}

// SubmitLeaderboardEntry queues a leaderboard entry without blocking
func (p *Pipeline) SubmitLeaderboardEntry(sessionID string, gameID model.GameID, id model.LeaderboardID, score int) error {
	task := model.SubmissionTask{
		ID:            uuid.NewString(),
		Kind:          model.SubmissionLeaderboard,
		SessionID:     sessionID,
		GameID:        gameID,
		LeaderboardID: id,
		Score:         score,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.acceptsLocked(sessionID) {
		return model.ErrSessionClosed
	}
	p.pushLocked(task)
	return nil
}

// Requeue queues every pending unlock of the current user, first taking
// over unlocks triggered while nobody was logged in. It is called on login
// and when the network becomes available.
func (p *Pipeline) Requeue(ctx context.Context) (int, error) {
	auth, err := p.creds.Get(ctx)
	if err != nil {
		return 0, err
	}
	if auth == nil {
		return 0, nil
	}

	if err := p.claimUnclaimed(ctx, auth.Username); err != nil {
		p.logger.Error("failed to claim unlocks made while logged out",
			slog.String("username", auth.Username),
			slog.String("error", err.Error()))
	}

	pending, err := p.storage.GetPendingUnlocks(ctx, auth.Username)
	if err != nil {
		return 0, err
	}

	queued := 0
	for _, pu := range pending {
		ok, err := p.enqueueUnlock(model.SubmissionTask{
			Kind:          model.SubmissionUnlock,
			GameID:        pu.GameID,
			AchievementID: pu.AchievementID,
			HardcoreMode:  pu.HardcoreMode,
			Requeued:      true,
		})
		if err != nil {
			return queued, err
		}
		if ok {
			queued++
		}
	}

	if queued > 0 {
		p.logger.Info("pending unlocks requeued",
			slog.String("username", auth.Username),
			slog.Int("count", queued))
	}
	return queued, nil
}

// claimUnclaimed moves pending unlocks made while logged out to username.
// The record is saved under its new owner before the old one is removed.
func (p *Pipeline) claimUnclaimed(ctx context.Context, username string) error {
	unclaimed, err := p.storage.GetPendingUnlocks(ctx, model.UnclaimedUsername)
	if err != nil {
		return err
	}

	for _, pu := range unclaimed {
		claimed := *pu
		claimed.Username = username
		if err := p.storage.SavePendingUnlock(ctx, &claimed); err != nil {
			return err
		}
		if err := p.storage.DeletePendingUnlock(ctx, model.UnclaimedUsername, pu.AchievementID); err != nil {
			return err
		}
	}

	if len(unclaimed) > 0 {
		p.logger.Info("unlocks made while logged out claimed",
			slog.String("username", username),
			slog.Int("count", len(unclaimed)))
	}
	return nil
}

// Run dispatches queued tasks to workers until ctx is done
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("submission pipeline started", slog.Int("concurrency", p.cfg.Concurrency))
	for {
		task, ok := p.pop()
		if !ok {
			select {
			case <-ctx.Done():
				p.logger.Info("submission pipeline stopped")
				return ctx.Err()
			case <-p.signal:
				continue
			}
		}

		if err := p.sem.Acquire(ctx, 1); err != nil {
			p.finish(task)
			p.logger.Info("submission pipeline stopped")
			return err
		}

		go func(task model.SubmissionTask) {
			defer p.sem.Release(1)
			p.process(ctx, task)
		}(task)
	}
}

// Flush waits until every queued and in-flight task has finished
func (p *Pipeline) Flush(ctx context.Context) error {
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		p.mu.Lock()
		outstanding := p.outstanding
		p.mu.Unlock()
		if outstanding == 0 {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (p *Pipeline) enqueueUnlock(task model.SubmissionTask) (bool, error) {
	task.ID = uuid.NewString()

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.acceptsLocked(task.SessionID) {
		return false, model.ErrSessionClosed
	}
	if p.activeUnlocks[task.AchievementID] {
		return false, nil
	}
	p.activeUnlocks[task.AchievementID] = true
	p.pushLocked(task)
	return true, nil
}

// acceptsLocked reports whether work for sessionID may be queued. Work
// without a session (requeued pending unlocks) is always accepted.
func (p *Pipeline) acceptsLocked(sessionID string) bool {
	return sessionID == "" || p.open[sessionID]
}

func (p *Pipeline) pushLocked(task model.SubmissionTask) {
	p.queue = append(p.queue, task)
	p.outstanding++
	select {
	case p.signal <- struct{}{}:
	default:
	}
}

func (p *Pipeline) pop() (model.SubmissionTask, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.queue) == 0 {
		return model.SubmissionTask{}, false
	}
	task := p.queue[0]
	p.queue = p.queue[1:]
	return task, true
}

func (p *Pipeline) finish(task model.SubmissionTask) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if task.Kind == model.SubmissionUnlock {
		delete(p.activeUnlocks, task.AchievementID)
	}
	p.outstanding--
}

func (p *Pipeline) process(ctx context.Context, task model.SubmissionTask) {
	unlock := p.locks.Lock(lockKey(task))
	defer unlock()

	var result model.SubmissionResult
	switch task.Kind {
	case model.SubmissionUnlock:
		result = p.processUnlock(ctx, task)
	case model.SubmissionLeaderboard:
		result = p.processLeaderboard(ctx, task)
	default:
		p.finish(task)
		return
	}

	// finished before publishing so a consumer reacting to the result can
	// queue the same achievement again
	p.finish(task)
	select {
	case p.results <- result:
	case <-ctx.Done():
	}
}

func (p *Pipeline) processUnlock(ctx context.Context, task model.SubmissionTask) model.SubmissionResult {
	logger := p.logger.With(
		slog.String("task_id", task.ID),
		slog.String("achievement_id", task.AchievementID.String()),
		slog.String("game_id", task.GameID.String()))

	auth, err := p.creds.Get(ctx)
	if err != nil {
		auth = nil
	}

	if !task.Requeued {
		owner := model.UnclaimedUsername
		if auth != nil {
			owner = auth.Username
		}
		pending := &model.PendingUnlock{
			AchievementID: task.AchievementID,
			GameID:        task.GameID,
			Username:      owner,
			HardcoreMode:  task.HardcoreMode,
			CreatedAt:     p.clock.Now(),
		}
		if err := p.storage.SavePendingUnlock(ctx, pending); err != nil {
			logger.Error("failed to persist pending unlock", slog.String("error", err.Error()))
		}
	}

	if auth == nil {
		logger.Debug("unlock deferred until login")
		return model.SubmissionResult{Task: task, Status: model.SubmissionDeferred, Err: model.ErrAuthRequired}
	}
	task.UserAuth = *auth

	task.Signature = p.signer.Achievement(task.AchievementID, *auth, task.HardcoreMode)

	resp, err := retry(ctx, p, &task, func() (model.UnlockResponse, error) {
		return p.api.SubmitUnlock(ctx, *auth, task.AchievementID, task.HardcoreMode, task.Signature)
	})
	if err != nil {
		p.handleFailure(ctx, err)
		logger.Warn("unlock deferred",
			slog.Int("attempts", task.Attempt),
			slog.String("error", err.Error()))
		return model.SubmissionResult{Task: task, Status: model.SubmissionDeferred, Err: err}
	}

	if err := p.storage.DeletePendingUnlock(ctx, auth.Username, task.AchievementID); err != nil {
		logger.Error("failed to clear pending unlock", slog.String("error", err.Error()))
	}
	if err := p.storage.AddUserUnlock(ctx, task.GameID, auth.Username, task.HardcoreMode, task.AchievementID); err != nil {
		logger.Error("failed to cache confirmed unlock", slog.String("error", err.Error()))
	}

	logger.Info("unlock confirmed",
		slog.Bool("awarded", resp.AchievementAwarded),
		slog.Int("remaining", resp.RemainingAchievements),
		slog.Int("attempts", task.Attempt))

	now := p.clock.Now()
	p.notifier.Notify(model.Notification{
		Type:        model.NotificationAchievementConfirmed,
		Timestamp:   now,
		GameID:      task.GameID,
		Achievement: &model.Achievement{ID: task.AchievementID, GameID: task.GameID},
	})
	if resp.SetMastered() && p.markMastered(masteryKey{auth.Username, task.GameID, task.HardcoreMode}) {
		logger.Info("set mastered")
		p.notifier.Notify(model.Notification{
			Type:      model.NotificationSetMastered,
			Timestamp: now,
			GameID:    task.GameID,
		})
	}

	return model.SubmissionResult{Task: task, Status: model.SubmissionConfirmed, Unlock: &resp}
}

func (p *Pipeline) processLeaderboard(ctx context.Context, task model.SubmissionTask) model.SubmissionResult {
	logger := p.logger.With(
		slog.String("task_id", task.ID),
		slog.String("leaderboard_id", task.LeaderboardID.String()),
		slog.Int("score", task.Score))

	auth, err := p.creds.Get(ctx)
	if err != nil || auth == nil {
		logger.Debug("leaderboard entry dropped, not logged in")
		return model.SubmissionResult{Task: task, Status: model.SubmissionDropped, Err: model.ErrAuthRequired}
	}
	task.UserAuth = *auth
	task.Signature = p.signer.Leaderboard(task.LeaderboardID, task.Score, *auth)

	resp, err := retry(ctx, p, &task, func() (model.LeaderboardEntryResponse, error) {
		return p.api.SubmitLeaderboardEntry(ctx, *auth, task.LeaderboardID, task.Score, task.Signature)
	})
	if err != nil {
		p.handleFailure(ctx, err)
		logger.Warn("leaderboard entry dropped",
			slog.Int("attempts", task.Attempt),
			slog.String("error", err.Error()))
		return model.SubmissionResult{Task: task, Status: model.SubmissionDropped, Err: err}
	}

	logger.Info("leaderboard entry submitted",
		slog.Int("rank", resp.Rank),
		slog.Int("entries", resp.NumEntries))

	p.notifier.Notify(model.Notification{
		Type:        model.NotificationLeaderboardSubmitted,
		Timestamp:   p.clock.Now(),
		GameID:      task.GameID,
		Leaderboard: &model.Leaderboard{ID: task.LeaderboardID, GameID: task.GameID},
		Entry:       &resp,
	})

	return model.SubmissionResult{Task: task, Status: model.SubmissionConfirmed, Leaderboard: &resp}
}

func (p *Pipeline) handleFailure(ctx context.Context, err error) {
	if !errors.Is(err, model.ErrAuthRejected) {
		return
	}
	p.mu.Lock()
	hook := p.onAuthRejected
	p.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}
}

// markMastered returns true the first time key is marked
func (p *Pipeline) markMastered(key masteryKey) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.mastered[key] {
		return false
	}
	p.mastered[key] = true
	return true
}

// retry runs op with bounded exponential backoff and jitter. Rejected
// credentials stop retrying immediately.
func retry[T any](ctx context.Context, p *Pipeline, task *model.SubmissionTask, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.cfg.InitialInterval
	b.MaxInterval = p.cfg.MaxInterval
	b.Multiplier = p.cfg.Multiplier
	b.RandomizationFactor = p.cfg.RandomizationFactor

	return backoff.Retry(ctx, func() (T, error) {
		task.Attempt++
		v, err := op()
		if errors.Is(err, model.ErrAuthRejected) {
			return v, backoff.Permanent(err)
		}
		return v, err
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(p.cfg.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			p.logger.Debug("submission attempt failed",
				slog.String("task_id", task.ID),
				slog.Int("attempt", task.Attempt),
				slog.Duration("retry_in", next),
				slog.String("error", err.Error()))
		}),
	)
}

func lockKey(task model.SubmissionTask) string {
	if task.Kind == model.SubmissionLeaderboard {
		return fmt.Sprintf("leaderboard:%s", task.LeaderboardID)
	}
	return fmt.Sprintf("achievement:%s", task.AchievementID)
}
