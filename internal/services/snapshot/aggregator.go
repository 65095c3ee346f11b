package snapshot

import (
	"log/slog"
	"sync"

	"github.com/mcoot/rasync/internal/dependencies/clock"
	"github.com/mcoot/rasync/internal/model"
	"github.com/mcoot/rasync/internal/notify"
)

// Source exposes the session state the snapshot is projected from.
// ok is false when no session is active.
type Source interface {
	View() (view model.SessionView, ok bool)
}

// Aggregator derives the presentation-facing snapshot from tracker state.
// It recomputes lazily: Invalidate marks the cached snapshot stale and the
// next Snapshot call projects the latest view.
type Aggregator struct {
	source   Source
	notifier notify.Notifier
	clock    clock.Clock
	logger   *slog.Logger

	mu     sync.Mutex
	dirty  bool
	cached model.GameAchievementData
}

// New creates a new Aggregator
func New(source Source, notifier notify.Notifier, clock clock.Clock, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		source:   source,
		notifier: notifier,
		clock:    clock,
		logger:   logger.With(slog.String("component", "snapshot")),
		dirty:    true,
	}
}

// Invalidate marks the cached snapshot stale and tells listeners
func (a *Aggregator) Invalidate() {
	a.mu.Lock()
	a.dirty = true
	a.mu.Unlock()

	a.notifier.Notify(model.Notification{
		Type:      model.NotificationSnapshotChanged,
		Timestamp: a.clock.Now(),
	})
}

// Snapshot returns the current GameAchievementData
func (a *Aggregator) Snapshot() model.GameAchievementData {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.dirty {
		view, ok := a.source.View()
		if ok {
			a.cached = Project(view)
		} else {
			a.cached = model.DisabledGameAchievementData()
		}
		a.dirty = false
		a.logger.Debug("snapshot recomputed",
			slog.Bool("integration_enabled", a.cached.IntegrationEnabled),
			slog.Int("locked", len(a.cached.LockedAchievements)),
			slog.Int("total", a.cached.TotalAchievementCount))
	}
	return cloneData(a.cached)
}

// Project is the pure projection of a session view onto a snapshot
func Project(view model.SessionView) model.GameAchievementData {
	data := model.GameAchievementData{
		IntegrationEnabled:    true,
		GameID:                view.Game.ID,
		Title:                 view.Game.Title,
		Icon:                  view.Game.IconURL,
		RichPresencePatch:     view.Game.RichPresencePatch,
		HardcoreMode:          view.HardcoreMode,
		LockedAchievements:    []model.Achievement{},
		TotalAchievementCount: len(view.Achievements),
		PrimedAchievements:    []model.Achievement{},
		Progress:              []model.AchievementProgress{},
		ActiveLeaderboards:    append([]model.LeaderboardAttempt{}, view.Leaderboards...),
	}

	for _, rs := range view.Achievements {
		data.TotalPoints += rs.Achievement.Points

		switch rs.State {
		case model.StateLocked, model.StatePrimed:
			data.LockedAchievements = append(data.LockedAchievements, rs.Achievement)
			if rs.State == model.StatePrimed {
				data.PrimedAchievements = append(data.PrimedAchievements, rs.Achievement)
			}
			if !rs.Progress.IsZero() {
				data.Progress = append(data.Progress, model.AchievementProgress{
					AchievementID: rs.Achievement.ID,
					Progress:      rs.Progress,
				})
			}
		case model.StateTriggered:
			data.PendingConfirmation++
			data.UnlockedPoints += rs.Achievement.Points
		case model.StateConfirmedUnlocked:
			data.UnlockedPoints += rs.Achievement.Points
		}
	}

	return data
}

func cloneData(d model.GameAchievementData) model.GameAchievementData {
	d.LockedAchievements = append([]model.Achievement{}, d.LockedAchievements...)
	d.PrimedAchievements = append([]model.Achievement{}, d.PrimedAchievements...)
	d.Progress = append([]model.AchievementProgress{}, d.Progress...)
	d.ActiveLeaderboards = append([]model.LeaderboardAttempt{}, d.ActiveLeaderboards...)
	return d
}
