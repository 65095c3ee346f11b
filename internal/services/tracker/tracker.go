package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/mcoot/rasync/internal/dependencies/clock"
	"github.com/mcoot/rasync/internal/model"
	"github.com/mcoot/rasync/internal/notify"
)

// Submitter accepts unlock and leaderboard work for background submission.
// Submit calls must not block.
type Submitter interface {
	OpenSession(sessionID string)
	CloseSession(sessionID string)
	SubmitUnlock(sessionID string, gameID model.GameID, id model.AchievementID, hardcoreMode bool) error
	SubmitLeaderboardEntry(sessionID string, gameID model.GameID, id model.LeaderboardID, score int) error
}

// Invalidator is told whenever session state changes
type Invalidator interface {
	Invalidate()
}

// Tracker owns the per-session achievement state map. All mutation goes
// through OnEvent, session start/end and submission results.
type Tracker struct {
	submitter   Submitter
	invalidator Invalidator
	notifier    notify.Notifier
	clock       clock.Clock
	logger      *slog.Logger

	mu      sync.RWMutex
	session *session
}

type session struct {
	id           string
	game         model.Game
	hardcoreMode bool
	order        []model.AchievementID
	achievements map[model.AchievementID]*model.AchievementRuntimeState
	leaderboards map[model.LeaderboardID]model.Leaderboard
	attempts     map[model.LeaderboardID]*model.LeaderboardAttempt
}

// submission is side-effect work collected under the lock and run after it
type submission struct {
	unlock      model.AchievementID
	leaderboard model.LeaderboardID
	score       int
}

// New creates a new Tracker
func New(submitter Submitter, notifier notify.Notifier, clock clock.Clock, logger *slog.Logger) *Tracker {
	return &Tracker{
		submitter: submitter,
		notifier:  notifier,
		clock:     clock,
		logger:    logger.With(slog.String("component", "tracker")),
	}
}

// SetInvalidator wires the snapshot aggregator
func (t *Tracker) SetInvalidator(inv Invalidator) {
	t.invalidator = inv
}

// StartSession replaces the current session with one seeded from seed and
// returns its id. Server-confirmed unlocks start ConfirmedUnlocked, locally
// pending unlocks start Triggered, everything else Locked.
func (t *Tracker) StartSession(seed model.SessionSeed) string {
	s := &session{
		id:           uuid.NewString(),
		game:         seed.Game,
		hardcoreMode: seed.HardcoreMode,
		order:        make([]model.AchievementID, 0, len(seed.Achievements)),
		achievements: make(map[model.AchievementID]*model.AchievementRuntimeState, len(seed.Achievements)),
		leaderboards: make(map[model.LeaderboardID]model.Leaderboard, len(seed.Leaderboards)),
		attempts:     make(map[model.LeaderboardID]*model.LeaderboardAttempt),
	}

	unlocked := toSet(seed.Unlocked)
	pending := toSet(seed.Pending)

	for _, a := range seed.Achievements {
		if _, dup := s.achievements[a.ID]; dup {
			continue
		}
		state := model.StateLocked
		if _, ok := unlocked[a.ID]; ok {
			state = model.StateConfirmedUnlocked
		} else if _, ok := pending[a.ID]; ok {
			state = model.StateTriggered
		}
		s.order = append(s.order, a.ID)
		s.achievements[a.ID] = &model.AchievementRuntimeState{Achievement: a, State: state}
	}
	for _, l := range seed.Leaderboards {
		s.leaderboards[l.ID] = l
	}

	t.mu.Lock()
	previous := t.session
	t.session = s
	t.mu.Unlock()

	if previous != nil {
		t.submitter.CloseSession(previous.id)
	}
	t.submitter.OpenSession(s.id)

	t.logger.Info("session started",
		slog.String("session_id", s.id),
		slog.String("game_id", s.game.ID.String()),
		slog.Int("achievements", len(s.order)),
		slog.Int("leaderboards", len(s.leaderboards)),
		slog.Bool("hardcore", s.hardcoreMode))

	t.invalidate()
	return s.id
}

// EndSession drops the current session. In-flight submissions finish;
// new work for the session is rejected by the submitter.
func (t *Tracker) EndSession() {
	t.mu.Lock()
	s := t.session
	t.session = nil
	t.mu.Unlock()

	if s == nil {
		return
	}

	t.submitter.CloseSession(s.id)
	t.logger.Info("session ended", slog.String("session_id", s.id))
	t.invalidate()
}

// SessionID returns the id of the active session
func (t *Tracker) SessionID() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.session == nil {
		return "", false
	}
	return t.session.id, true
}

// OnEvent applies a runtime event. It never blocks on I/O. Duplicate
// events and events for ids outside the loaded set are absorbed.
func (t *Tracker) OnEvent(event model.Event) error {
	if !event.Type.Valid() {
		return model.ErrInvalidEvent
	}

	t.mu.Lock()
	s := t.session
	if s == nil {
		t.mu.Unlock()
		return model.ErrNoActiveSession
	}

	var (
		n      *model.Notification
		submit *submission
		err    error
	)
	if event.Type.IsLeaderboardEvent() {
		n, submit, err = t.applyLeaderboard(s, event)
	} else {
		n, submit, err = t.applyAchievement(s, event)
	}
	t.mu.Unlock()

	if err != nil {
		if errors.Is(err, model.ErrDuplicateEvent) ||
			errors.Is(err, model.ErrUnknownAchievement) ||
			errors.Is(err, model.ErrUnknownLeaderboard) {
			t.logger.Debug("event absorbed",
				slog.String("type", string(event.Type)),
				slog.String("achievement_id", event.AchievementID.String()),
				slog.String("leaderboard_id", event.LeaderboardID.String()),
				slog.String("reason", err.Error()))
			return nil
		}
		return err
	}

	if submit != nil {
		t.submit(s, *submit)
	}
	if n != nil {
		t.notifier.Notify(*n)
	}
	t.invalidate()
	return nil
}

// applyAchievement runs the unlock lifecycle transition for an event.
// Callers hold t.mu.
func (t *Tracker) applyAchievement(s *session, event model.Event) (*model.Notification, *submission, error) {
	rs, ok := s.achievements[event.AchievementID]
	if !ok {
		return nil, nil, model.ErrUnknownAchievement
	}

	switch event.Type {
	case model.EventAchievementPrimed:
		if rs.State != model.StateLocked {
			return nil, nil, model.ErrDuplicateEvent
		}
		rs.State = model.StatePrimed
		return t.achievementNotification(model.NotificationAchievementPrimed, s, rs), nil, nil

	case model.EventAchievementUnprimed:
		if rs.State != model.StatePrimed {
			return nil, nil, model.ErrDuplicateEvent
		}
		rs.State = model.StateLocked
		rs.Progress = model.Progress{}
		return t.achievementNotification(model.NotificationAchievementUnprimed, s, rs), nil, nil

	case model.EventAchievementProgressUpdated:
		if rs.State.IsUnlocked() {
			return nil, nil, model.ErrDuplicateEvent
		}
		progress := model.Progress{Current: event.Current, Target: event.Target, Display: event.Display}
		if rs.Progress == progress {
			return nil, nil, model.ErrDuplicateEvent
		}
		rs.Progress = progress
		return nil, nil, nil

	case model.EventAchievementTriggered:
		if !rs.State.CanTransitionTo(model.StateTriggered) {
			return nil, nil, model.ErrDuplicateEvent
		}
		rs.State = model.StateTriggered
		rs.Progress = model.Progress{}
		return t.achievementNotification(model.NotificationAchievementTriggered, s, rs),
			&submission{unlock: rs.Achievement.ID}, nil
	}

	return nil, nil, model.ErrInvalidEvent
}

// applyLeaderboard tracks leaderboard attempts. A completed attempt is
// only submitted when it was started, which absorbs duplicate completions.
// Callers hold t.mu.
func (t *Tracker) applyLeaderboard(s *session, event model.Event) (*model.Notification, *submission, error) {
	lb, ok := s.leaderboards[event.LeaderboardID]
	if !ok {
		return nil, nil, model.ErrUnknownLeaderboard
	}
	attempt, active := s.attempts[lb.ID]

	switch event.Type {
	case model.EventLeaderboardAttemptStarted:
		if active {
			return nil, nil, model.ErrDuplicateEvent
		}
		s.attempts[lb.ID] = &model.LeaderboardAttempt{Leaderboard: lb, Display: event.Display}
		return t.leaderboardNotification(model.NotificationLeaderboardStarted, s, lb), nil, nil

	case model.EventLeaderboardAttemptUpdated:
		if !active || attempt.Display == event.Display {
			return nil, nil, model.ErrDuplicateEvent
		}
		attempt.Display = event.Display
		return nil, nil, nil

	case model.EventLeaderboardAttemptCanceled:
		if !active {
			return nil, nil, model.ErrDuplicateEvent
		}
		delete(s.attempts, lb.ID)
		return t.leaderboardNotification(model.NotificationLeaderboardCanceled, s, lb), nil, nil

	case model.EventLeaderboardAttemptCompleted:
		if !active {
			return nil, nil, model.ErrDuplicateEvent
		}
		delete(s.attempts, lb.ID)
		return nil, &submission{leaderboard: lb.ID, score: event.Value}, nil
	}

	return nil, nil, model.ErrInvalidEvent
}

func (t *Tracker) submit(s *session, work submission) {
	var err error
	if work.unlock != 0 {
		err = t.submitter.SubmitUnlock(s.id, s.game.ID, work.unlock, s.hardcoreMode)
	} else {
		err = t.submitter.SubmitLeaderboardEntry(s.id, s.game.ID, work.leaderboard, work.score)
	}
	if err != nil {
		t.logger.Warn("submission not accepted",
			slog.String("session_id", s.id),
			slog.String("achievement_id", work.unlock.String()),
			slog.String("leaderboard_id", work.leaderboard.String()),
			slog.String("error", err.Error()))
	}
}

// HandleResult applies the outcome of a finished submission. Confirmed
// unlocks apply when they belong to the running game and mode, whichever
// session queued them.
func (t *Tracker) HandleResult(result model.SubmissionResult) {
	if result.Task.Kind != model.SubmissionUnlock || result.Status != model.SubmissionConfirmed {
		return
	}

	t.mu.Lock()
	s := t.session
	if s == nil || !s.owns(result.Task) {
		t.mu.Unlock()
		return
	}
	rs, ok := s.achievements[result.Task.AchievementID]
	if !ok || !rs.State.CanTransitionTo(model.StateConfirmedUnlocked) {
		t.mu.Unlock()
		return
	}
	rs.State = model.StateConfirmedUnlocked
	t.mu.Unlock()

	t.logger.Info("unlock confirmed",
		slog.String("session_id", s.id),
		slog.String("achievement_id", result.Task.AchievementID.String()))
	t.invalidate()
}

// Run applies submission results until ctx is done or results is closed
func (t *Tracker) Run(ctx context.Context, results <-chan model.SubmissionResult) {
	for {
		select {
		case <-ctx.Done():
			return
		case result, ok := <-results:
			if !ok {
				return
			}
			t.HandleResult(result)
		}
	}
}

// Resubmit enqueues every achievement still waiting for confirmation.
// The submitter coalesces ids that are already queued.
func (t *Tracker) Resubmit() int {
	t.mu.RLock()
	s := t.session
	if s == nil {
		t.mu.RUnlock()
		return 0
	}
	var ids []model.AchievementID
	for _, id := range s.order {
		if s.achievements[id].State == model.StateTriggered {
			ids = append(ids, id)
		}
	}
	t.mu.RUnlock()

	for _, id := range ids {
		t.submit(s, submission{unlock: id})
	}
	return len(ids)
}

// View returns a copy of the session state for the snapshot aggregator
func (t *Tracker) View() (model.SessionView, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := t.session
	if s == nil {
		return model.SessionView{}, false
	}

	view := model.SessionView{
		SessionID:    s.id,
		Game:         s.game,
		HardcoreMode: s.hardcoreMode,
		Achievements: make([]model.AchievementRuntimeState, 0, len(s.order)),
		Leaderboards: make([]model.LeaderboardAttempt, 0, len(s.attempts)),
	}
	for _, id := range s.order {
		view.Achievements = append(view.Achievements, *s.achievements[id])
	}
	for _, attempt := range s.attempts {
		view.Leaderboards = append(view.Leaderboards, *attempt)
	}
	sort.Slice(view.Leaderboards, func(i, j int) bool {
		return view.Leaderboards[i].Leaderboard.ID < view.Leaderboards[j].Leaderboard.ID
	})
	return view, true
}

// State returns the runtime state of one achievement in the active session
func (t *Tracker) State(id model.AchievementID) (model.AchievementRuntimeState, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.session == nil {
		return model.AchievementRuntimeState{}, false
	}
	rs, ok := t.session.achievements[id]
	if !ok {
		return model.AchievementRuntimeState{}, false
	}
	return *rs, true
}

func (t *Tracker) invalidate() {
	if t.invalidator != nil {
		t.invalidator.Invalidate()
	}
}

func (t *Tracker) achievementNotification(typ model.NotificationType, s *session, rs *model.AchievementRuntimeState) *model.Notification {
	a := rs.Achievement
	return &model.Notification{
		Type:        typ,
		Timestamp:   t.clock.Now(),
		GameID:      s.game.ID,
		Achievement: &a,
	}
}

func (t *Tracker) leaderboardNotification(typ model.NotificationType, s *session, lb model.Leaderboard) *model.Notification {
	return &model.Notification{
		Type:        typ,
		Timestamp:   t.clock.Now(),
		GameID:      s.game.ID,
		Leaderboard: &lb,
	}
}

// owns reports whether a confirmed unlock applies to this session. Only
// game and mode are matched: a confirmation finishing after a reload
// applies to the new session.
func (s *session) owns(task model.SubmissionTask) bool {
	return task.GameID == s.game.ID && task.HardcoreMode == s.hardcoreMode
}

func toSet[T comparable](ids []T) map[T]struct{} {
	set := make(map[T]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
