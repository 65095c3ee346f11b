package setsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/rasync/internal/dependencies/clock"
	"github.com/mcoot/rasync/internal/model"
	"github.com/mcoot/rasync/internal/raapi"
	"github.com/mcoot/rasync/internal/storage"
)

// Sessions is the tracker side of a game load
type Sessions interface {
	StartSession(seed model.SessionSeed) string
	EndSession()
}

// Snapshotter produces the presentation snapshot once a session is open
type Snapshotter interface {
	Snapshot() model.GameAchievementData
}

// Config holds configuration for the synchronizer
type Config struct {
	HardcoreMode   bool
	OptInSetTypes  []model.SetType
	HashLibraryTTL time.Duration
	GameSetsTTL    time.Duration
	UserUnlocksTTL time.Duration
}

// DefaultConfig returns default synchronizer configuration
func DefaultConfig() Config {
	return Config{
		HashLibraryTTL: 30 * 24 * time.Hour,
		GameSetsTTL:    7 * 24 * time.Hour,
		UserUnlocksTTL: 24 * time.Hour,
	}
}

// Synchronizer loads achievement definitions and the user's unlocks for a
// game and seeds a tracker session with them. Failures never abort the
// game launch; they produce a disabled snapshot instead.
type Synchronizer struct {
	api       raapi.Client
	storage   storage.Storage
	sessions  Sessions
	snapshots Snapshotter
	clock     clock.Clock
	logger    *slog.Logger
	cfg       Config

	mu             sync.Mutex
	onAuthRejected func(ctx context.Context)
}

// New creates a new Synchronizer
func New(
	api raapi.Client,
	storage storage.Storage,
	sessions Sessions,
	snapshots Snapshotter,
	clock clock.Clock,
	logger *slog.Logger,
	cfg Config,
) *Synchronizer {
	defaults := DefaultConfig()
	if cfg.HashLibraryTTL <= 0 {
		cfg.HashLibraryTTL = defaults.HashLibraryTTL
	}
	if cfg.GameSetsTTL <= 0 {
		cfg.GameSetsTTL = defaults.GameSetsTTL
	}
	if cfg.UserUnlocksTTL <= 0 {
		cfg.UserUnlocksTTL = defaults.UserUnlocksTTL
	}

	return &Synchronizer{
		api:       api,
		storage:   storage,
		sessions:  sessions,
		snapshots: snapshots,
		clock:     clock,
		logger:    logger.With(slog.String("component", "setsync")),
		cfg:       cfg,
	}
}

// OnAuthRejected registers a hook run when the server refuses the
// credentials used for a load
func (s *Synchronizer) OnAuthRejected(fn func(ctx context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onAuthRejected = fn
}

// HardcoreMode reports the mode new sessions are opened in
func (s *Synchronizer) HardcoreMode() bool {
	return s.cfg.HardcoreMode
}

// LoadForGame ends any running session and opens one for the identified
// game. With no auth, or when definitions cannot be obtained, it returns
// the disabled snapshot and a nil error. Only a missing identifier or a
// cancelled context is reported as an error.
func (s *Synchronizer) LoadForGame(ctx context.Context, ident model.GameIdentifier, auth *model.UserAuth) (model.GameAchievementData, error) {
	if ident.IsZero() {
		return model.DisabledGameAchievementData(), model.ErrInvalidGameIdentifier
	}

	s.sessions.EndSession()

	if auth == nil {
		s.logger.Info("achievements disabled, not logged in")
		return model.DisabledGameAchievementData(), nil
	}

	logger := s.logger.With(slog.String("username", auth.Username))

	seed, err := s.buildSeed(ctx, ident, *auth, logger)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return model.DisabledGameAchievementData(), ctxErr
		}
		if errors.Is(err, model.ErrAuthRejected) {
			s.authRejected(ctx)
		}
		logger.Warn("achievements disabled for game",
			slog.Int64("game_id", int64(ident.ID)),
			slog.String("hash", ident.Hash),
			slog.String("error", err.Error()))
		return model.DisabledGameAchievementData(), nil
	}

	s.sessions.StartSession(seed)
	return s.snapshots.Snapshot(), nil
}

func (s *Synchronizer) buildSeed(ctx context.Context, ident model.GameIdentifier, auth model.UserAuth, logger *slog.Logger) (model.SessionSeed, error) {
	gameID, err := s.resolveGameID(ctx, ident)
	if err != nil {
		return model.SessionSeed{}, fmt.Errorf("resolving game: %w", err)
	}

	game, err := s.loadGame(ctx, gameID, auth, logger)
	if err != nil {
		return model.SessionSeed{}, fmt.Errorf("loading achievement sets: %w", err)
	}

	unlocked, err := s.loadUnlocks(ctx, gameID, auth, logger)
	if err != nil {
		return model.SessionSeed{}, fmt.Errorf("loading user unlocks: %w", err)
	}

	pending, err := s.pendingFor(ctx, gameID, auth.Username)
	if err != nil {
		// A lost pending record only delays a resubmission; the pipeline
		// still holds it in storage.
		logger.Error("failed to read pending unlocks", slog.String("error", err.Error()))
	}

	achievements, leaderboards := s.merge(game)

	logger.Info("achievement sets loaded",
		slog.String("game_id", gameID.String()),
		slog.String("title", game.Title),
		slog.Int("achievements", len(achievements)),
		slog.Int("leaderboards", len(leaderboards)),
		slog.Int("unlocked", len(unlocked)),
		slog.Int("pending", len(pending)))

	return model.SessionSeed{
		Game:         *game,
		HardcoreMode: s.cfg.HardcoreMode,
		Achievements: achievements,
		Leaderboards: leaderboards,
		Unlocked:     unlocked,
		Pending:      pending,
	}, nil
}

func (s *Synchronizer) resolveGameID(ctx context.Context, ident model.GameIdentifier) (model.GameID, error) {
	if ident.ID != 0 {
		return ident.ID, nil
	}

	hash := strings.ToLower(ident.Hash)

	updatedAt, err := s.storage.GetHashLibraryUpdatedAt(ctx)
	if err != nil || clock.Since(s.clock, updatedAt) >= s.cfg.HashLibraryTTL {
		if err := s.refreshHashLibrary(ctx); err != nil {
			s.logger.Warn("hash library refresh failed, using cached copy",
				slog.String("error", err.Error()))
		}
	}

	return s.storage.GetGameIDForHash(ctx, hash)
}

func (s *Synchronizer) refreshHashLibrary(ctx context.Context) error {
	library, err := s.api.FetchHashLibrary(ctx)
	if err != nil {
		return err
	}

	normalized := make(map[string]model.GameID, len(library))
	for hash, id := range library {
		normalized[strings.ToLower(hash)] = id
	}
	if err := s.storage.SaveHashLibrary(ctx, normalized, s.clock.Now()); err != nil {
		return fmt.Errorf("saving hash library: %w", err)
	}

	s.logger.Info("hash library refreshed", slog.Int("hashes", len(normalized)))
	return nil
}

// loadGame serves the cached definitions while they are fresh and falls
// back to a stale copy when the server is unavailable
func (s *Synchronizer) loadGame(ctx context.Context, gameID model.GameID, auth model.UserAuth, logger *slog.Logger) (*model.Game, error) {
	meta, err := s.storage.GetGameSetMetadata(ctx, gameID)
	if err != nil {
		return nil, err
	}

	cached, cacheErr := s.storage.GetGame(ctx, gameID)
	if cacheErr == nil && clock.Since(s.clock, meta.LastAchievementSetUpdated) < s.cfg.GameSetsTTL {
		logger.Debug("using cached achievement sets", slog.String("game_id", gameID.String()))
		return cached, nil
	}

	game, err := s.api.FetchAchievementSets(ctx, gameID, auth)
	if err != nil {
		if cacheErr == nil && !errors.Is(err, model.ErrAuthRejected) {
			logger.Warn("achievement set refresh failed, using stale cache",
				slog.String("game_id", gameID.String()),
				slog.String("error", err.Error()))
			return cached, nil
		}
		return nil, err
	}

	if err := s.storage.SaveGame(ctx, game); err != nil {
		logger.Error("failed to cache achievement sets", slog.String("error", err.Error()))
		return game, nil
	}
	if err := s.touch(ctx, gameID, func(m *model.GameSetMetadata) { m.LastAchievementSetUpdated = s.clock.Now() }); err != nil {
		logger.Error("failed to update cache metadata", slog.String("error", err.Error()))
	}
	return game, nil
}

func (s *Synchronizer) loadUnlocks(ctx context.Context, gameID model.GameID, auth model.UserAuth, logger *slog.Logger) ([]model.AchievementID, error) {
	meta, err := s.storage.GetGameSetMetadata(ctx, gameID)
	if err != nil {
		return nil, err
	}

	cached, cacheErr := s.storage.GetUserUnlocks(ctx, gameID, auth.Username, s.cfg.HardcoreMode)
	if cacheErr == nil && clock.Since(s.clock, meta.LastUserDataUpdated) < s.cfg.UserUnlocksTTL {
		logger.Debug("using cached user unlocks", slog.String("game_id", gameID.String()))
		return cached.Achievements, nil
	}

	ids, err := s.api.FetchUserUnlocks(ctx, gameID, auth, s.cfg.HardcoreMode)
	if err != nil {
		if cacheErr == nil && !errors.Is(err, model.ErrAuthRejected) {
			logger.Warn("user unlock refresh failed, using stale cache",
				slog.String("game_id", gameID.String()),
				slog.String("error", err.Error()))
			return cached.Achievements, nil
		}
		return nil, err
	}

	unlocks := &model.UserUnlocks{
		GameID:       gameID,
		Username:     auth.Username,
		HardcoreMode: s.cfg.HardcoreMode,
		Achievements: ids,
	}
	if err := s.storage.SaveUserUnlocks(ctx, unlocks); err != nil {
		logger.Error("failed to cache user unlocks", slog.String("error", err.Error()))
		return ids, nil
	}
	if err := s.touch(ctx, gameID, func(m *model.GameSetMetadata) { m.LastUserDataUpdated = s.clock.Now() }); err != nil {
		logger.Error("failed to update cache metadata", slog.String("error", err.Error()))
	}
	return ids, nil
}

func (s *Synchronizer) touch(ctx context.Context, gameID model.GameID, update func(*model.GameSetMetadata)) error {
	meta, err := s.storage.GetGameSetMetadata(ctx, gameID)
	if err != nil {
		return err
	}
	meta.GameID = gameID
	update(meta)
	return s.storage.SaveGameSetMetadata(ctx, meta)
}

// pendingFor returns unconfirmed unlocks of this game made in the current mode
func (s *Synchronizer) pendingFor(ctx context.Context, gameID model.GameID, username string) ([]model.AchievementID, error) {
	pending, err := s.storage.GetPendingUnlocks(ctx, username)
	if err != nil {
		return nil, err
	}

	var ids []model.AchievementID
	for _, p := range pending {
		if p.GameID == gameID && p.HardcoreMode == s.cfg.HardcoreMode {
			ids = append(ids, p.AchievementID)
		}
	}
	return ids, nil
}

// merge flattens the core set and any opted-in sets. Achievements and
// leaderboards appearing in more than one set are kept once; unofficial
// achievements are not tracked.
func (s *Synchronizer) merge(game *model.Game) ([]model.Achievement, []model.Leaderboard) {
	var achievements []model.Achievement
	var leaderboards []model.Leaderboard
	seenAchievements := make(map[model.AchievementID]bool)
	seenLeaderboards := make(map[model.LeaderboardID]bool)

	for _, set := range game.Sets {
		if !s.includes(set.Type) {
			continue
		}
		for _, a := range set.Achievements {
			if !a.Type.IsOfficial() || seenAchievements[a.ID] {
				continue
			}
			seenAchievements[a.ID] = true
			achievements = append(achievements, a)
		}
		for _, l := range set.Leaderboards {
			if seenLeaderboards[l.ID] {
				continue
			}
			seenLeaderboards[l.ID] = true
			leaderboards = append(leaderboards, l)
		}
	}
	return achievements, leaderboards
}

func (s *Synchronizer) includes(t model.SetType) bool {
	if t == model.SetTypeCore {
		return true
	}
	for _, opt := range s.cfg.OptInSetTypes {
		if opt == t {
			return true
		}
	}
	return false
}

func (s *Synchronizer) authRejected(ctx context.Context) {
	s.mu.Lock()
	hook := s.onAuthRejected
	s.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}
}
