package tracker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rasync/internal/dependencies/mocks"
	"github.com/mcoot/rasync/internal/model"
	"github.com/mcoot/rasync/internal/notify"
	"github.com/mcoot/rasync/internal/testutil"
)

type submittedUnlock struct {
	sessionID string
	gameID    model.GameID
	id        model.AchievementID
	hardcore  bool
}

type submittedEntry struct {
	sessionID string
	id        model.LeaderboardID
	score     int
}

type fakeSubmitter struct {
	mu      sync.Mutex
	open    map[string]bool
	closed  []string
	unlocks []submittedUnlock
	entries []submittedEntry
}

func newFakeSubmitter() *fakeSubmitter {
	return &fakeSubmitter{open: make(map[string]bool)}
}

func (f *fakeSubmitter) OpenSession(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open[id] = true
}

func (f *fakeSubmitter) CloseSession(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.open, id)
	f.closed = append(f.closed, id)
}

func (f *fakeSubmitter) SubmitUnlock(sessionID string, gameID model.GameID, id model.AchievementID, hardcore bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open[sessionID] {
		return model.ErrSessionClosed
	}
	f.unlocks = append(f.unlocks, submittedUnlock{sessionID, gameID, id, hardcore})
	return nil
}

func (f *fakeSubmitter) SubmitLeaderboardEntry(sessionID string, gameID model.GameID, id model.LeaderboardID, score int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open[sessionID] {
		return model.ErrSessionClosed
	}
	f.entries = append(f.entries, submittedEntry{sessionID, id, score})
	return nil
}

func (f *fakeSubmitter) unlockCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.unlocks)
}

type countingInvalidator struct {
	mu    sync.Mutex
	count int
}

func (c *countingInvalidator) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.count++
}

func (c *countingInvalidator) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

type TrackerSuite struct {
	suite.Suite
	submitter     *fakeSubmitter
	invalidator   *countingInvalidator
	notifications []model.Notification
	tracker       *Tracker
	sessionID     string
}

func TestTrackerSuite(t *testing.T) {
	suite.Run(t, new(TrackerSuite))
}

func (s *TrackerSuite) SetupTest() {
	s.submitter = newFakeSubmitter()
	s.invalidator = &countingInvalidator{}
	s.notifications = nil
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.tracker = New(s.submitter, notify.Func(func(n model.Notification) {
		s.notifications = append(s.notifications, n)
	}), clk, testutil.NopLogger())
	s.tracker.SetInvalidator(s.invalidator)
	s.sessionID = s.tracker.StartSession(s.seed())
}

func (s *TrackerSuite) seed() model.SessionSeed {
	return model.SessionSeed{
		Game:         model.Game{ID: 10, Title: "Sonic"},
		HardcoreMode: true,
		Achievements: []model.Achievement{
			{ID: 1, GameID: 10, Points: 5},
			{ID: 2, GameID: 10, Points: 10},
			{ID: 3, GameID: 10, Points: 25},
			{ID: 4, GameID: 10, Points: 50},
		},
		Leaderboards: []model.Leaderboard{{ID: 7, GameID: 10, Title: "Speedrun"}},
		Unlocked:     []model.AchievementID{3},
		Pending:      []model.AchievementID{4},
	}
}

func (s *TrackerSuite) state(id model.AchievementID) model.AchievementState {
	rs, ok := s.tracker.State(id)
	s.Require().True(ok)
	return rs.State
}

func (s *TrackerSuite) confirm(id model.AchievementID) {
	s.tracker.HandleResult(model.SubmissionResult{
		Task:   model.SubmissionTask{Kind: model.SubmissionUnlock, SessionID: s.sessionID, GameID: 10, AchievementID: id, HardcoreMode: true},
		Status: model.SubmissionConfirmed,
	})
}

// Seeding

func (s *TrackerSuite) TestSeedStates() {
	s.Equal(model.StateLocked, s.state(1))
	s.Equal(model.StateConfirmedUnlocked, s.state(3))
	s.Equal(model.StateTriggered, s.state(4))

	rs, _ := s.tracker.State(1)
	s.True(rs.Progress.IsZero())
}

func (s *TrackerSuite) TestStartSessionClosesPrevious() {
	previous := s.sessionID
	next := s.tracker.StartSession(s.seed())

	s.NotEqual(previous, next)
	s.Contains(s.submitter.closed, previous)
	s.True(s.submitter.open[next])
}

// Primed / Unprimed

func (s *TrackerSuite) TestPrimeAndUnprime() {
	s.Require().NoError(s.tracker.OnEvent(model.Primed(1)))
	s.Equal(model.StatePrimed, s.state(1))

	s.Require().NoError(s.tracker.OnEvent(model.ProgressUpdated(1, 2, 5, "2/5")))
	s.Require().NoError(s.tracker.OnEvent(model.Unprimed(1)))

	rs, _ := s.tracker.State(1)
	s.Equal(model.StateLocked, rs.State)
	s.True(rs.Progress.IsZero(), "unprime clears progress")
}

func (s *TrackerSuite) TestDuplicatePrimeIsNoop() {
	_ = s.tracker.OnEvent(model.Primed(1))
	before := s.invalidator.Count()

	s.Require().NoError(s.tracker.OnEvent(model.Primed(1)))

	s.Equal(model.StatePrimed, s.state(1))
	s.Equal(before, s.invalidator.Count())
}

func (s *TrackerSuite) TestUnprimeWhenLockedIsNoop() {
	s.Require().NoError(s.tracker.OnEvent(model.Unprimed(1)))
	s.Equal(model.StateLocked, s.state(1))
}

func (s *TrackerSuite) TestPrimeAfterUnlockIsNoop() {
	s.Require().NoError(s.tracker.OnEvent(model.Primed(3)))
	s.Equal(model.StateConfirmedUnlocked, s.state(3))
}

// Progress

func (s *TrackerSuite) TestProgressWhileLocked() {
	s.Require().NoError(s.tracker.OnEvent(model.ProgressUpdated(1, 3, 10, "3/10")))

	rs, _ := s.tracker.State(1)
	s.Equal(model.Progress{Current: 3, Target: 10, Display: "3/10"}, rs.Progress)
}

func (s *TrackerSuite) TestProgressFrozenAfterTrigger() {
	_ = s.tracker.OnEvent(model.Triggered(1))

	s.Require().NoError(s.tracker.OnEvent(model.ProgressUpdated(1, 9, 10, "9/10")))

	rs, _ := s.tracker.State(1)
	s.Equal(model.StateTriggered, rs.State)
	s.True(rs.Progress.IsZero())
}

// Triggered

func (s *TrackerSuite) TestTriggerFromLockedEnqueuesSubmission() {
	s.Require().NoError(s.tracker.OnEvent(model.Triggered(1)))

	s.Equal(model.StateTriggered, s.state(1))
	s.Require().Equal(1, s.submitter.unlockCount())
	s.Equal(submittedUnlock{s.sessionID, 10, 1, true}, s.submitter.unlocks[0])
}

func (s *TrackerSuite) TestTriggerFromPrimed() {
	_ = s.tracker.OnEvent(model.Primed(2))
	s.Require().NoError(s.tracker.OnEvent(model.Triggered(2)))

	s.Equal(model.StateTriggered, s.state(2))
}

func (s *TrackerSuite) TestDuplicateTriggerEnqueuesOnce() {
	_ = s.tracker.OnEvent(model.Triggered(1))
	_ = s.tracker.OnEvent(model.Triggered(1))
	_ = s.tracker.OnEvent(model.Triggered(1))

	s.Equal(1, s.submitter.unlockCount())
}

func (s *TrackerSuite) TestTriggerOfConfirmedIsNoop() {
	s.Require().NoError(s.tracker.OnEvent(model.Triggered(3)))

	s.Equal(model.StateConfirmedUnlocked, s.state(3))
	s.Equal(0, s.submitter.unlockCount())
}

func (s *TrackerSuite) TestTriggerNotifies() {
	_ = s.tracker.OnEvent(model.Triggered(1))

	s.Require().NotEmpty(s.notifications)
	last := s.notifications[len(s.notifications)-1]
	s.Equal(model.NotificationAchievementTriggered, last.Type)
	s.Equal(model.AchievementID(1), last.Achievement.ID)
}

// Unknown ids and invalid events

func (s *TrackerSuite) TestUnknownAchievementDropped() {
	before := s.invalidator.Count()

	s.Require().NoError(s.tracker.OnEvent(model.Triggered(999)))

	s.Equal(0, s.submitter.unlockCount())
	s.Equal(before, s.invalidator.Count())
}

func (s *TrackerSuite) TestUnknownLeaderboardDropped() {
	logger, logs := testutil.BufferLogger()
	tracker := New(s.submitter, notify.Nop{}, mocks.NewMockClock(time.Now()), logger)
	tracker.StartSession(s.seed())

	s.Require().NoError(tracker.OnEvent(model.LeaderboardStarted(999)))
	s.Require().NoError(tracker.OnEvent(model.LeaderboardCompleted(999, 100)))

	s.Empty(s.submitter.entries)
	s.Contains(logs.String(), `"reason":"unknown leaderboard"`)
	s.NotContains(logs.String(), "unknown achievement")
}

func (s *TrackerSuite) TestInvalidEventType() {
	err := s.tracker.OnEvent(model.Event{Type: "bogus", AchievementID: 1})
	s.ErrorIs(err, model.ErrInvalidEvent)
}

func (s *TrackerSuite) TestEventWithoutSession() {
	s.tracker.EndSession()

	err := s.tracker.OnEvent(model.Triggered(1))
	s.ErrorIs(err, model.ErrNoActiveSession)
}

// Confirmation

func (s *TrackerSuite) TestConfirmationMovesTriggeredToConfirmed() {
	_ = s.tracker.OnEvent(model.Triggered(1))
	s.confirm(1)

	s.Equal(model.StateConfirmedUnlocked, s.state(1))
}

func (s *TrackerSuite) TestConfirmationRequiresTriggered() {
	s.confirm(2)

	s.Equal(model.StateLocked, s.state(2))
}

func (s *TrackerSuite) TestResultFromEarlierSessionOfSameGameApplies() {
	_ = s.tracker.OnEvent(model.Triggered(1))

	s.tracker.HandleResult(model.SubmissionResult{
		Task:   model.SubmissionTask{Kind: model.SubmissionUnlock, SessionID: "earlier", GameID: 10, AchievementID: 1, HardcoreMode: true},
		Status: model.SubmissionConfirmed,
	})

	s.Equal(model.StateConfirmedUnlocked, s.state(1))
}

func (s *TrackerSuite) TestResultForOtherGameIgnored() {
	_ = s.tracker.OnEvent(model.Triggered(1))

	s.tracker.HandleResult(model.SubmissionResult{
		Task:   model.SubmissionTask{Kind: model.SubmissionUnlock, SessionID: "other", GameID: 11, AchievementID: 1, HardcoreMode: true},
		Status: model.SubmissionConfirmed,
	})

	s.Equal(model.StateTriggered, s.state(1))
}

func (s *TrackerSuite) TestResultForOtherModeIgnored() {
	_ = s.tracker.OnEvent(model.Triggered(1))

	s.tracker.HandleResult(model.SubmissionResult{
		Task:   model.SubmissionTask{Kind: model.SubmissionUnlock, SessionID: s.sessionID, GameID: 10, AchievementID: 1, HardcoreMode: false},
		Status: model.SubmissionConfirmed,
	})

	s.Equal(model.StateTriggered, s.state(1))
}

func (s *TrackerSuite) TestRequeuedResultAppliesToMatchingGame() {
	s.tracker.HandleResult(model.SubmissionResult{
		Task:   model.SubmissionTask{Kind: model.SubmissionUnlock, GameID: 10, AchievementID: 4, HardcoreMode: true},
		Status: model.SubmissionConfirmed,
	})

	s.Equal(model.StateConfirmedUnlocked, s.state(4))
}

func (s *TrackerSuite) TestDeferredResultKeepsTriggered() {
	_ = s.tracker.OnEvent(model.Triggered(1))

	s.tracker.HandleResult(model.SubmissionResult{
		Task:   model.SubmissionTask{Kind: model.SubmissionUnlock, SessionID: s.sessionID, GameID: 10, AchievementID: 1},
		Status: model.SubmissionDeferred,
	})

	s.Equal(model.StateTriggered, s.state(1))
}

func (s *TrackerSuite) TestRunConsumesResults() {
	_ = s.tracker.OnEvent(model.Triggered(1))

	results := make(chan model.SubmissionResult, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.tracker.Run(ctx, results)

	results <- model.SubmissionResult{
		Task:   model.SubmissionTask{Kind: model.SubmissionUnlock, SessionID: s.sessionID, GameID: 10, AchievementID: 1, HardcoreMode: true},
		Status: model.SubmissionConfirmed,
	}

	s.Eventually(func() bool {
		rs, _ := s.tracker.State(1)
		return rs.State == model.StateConfirmedUnlocked
	}, time.Second, 5*time.Millisecond)
}

// Lifecycle DAG

func (s *TrackerSuite) TestNoEventSequenceReachesConfirmedWithoutTrigger() {
	events := []model.Event{
		model.Primed(1), model.Unprimed(1), model.ProgressUpdated(1, 1, 2, ""),
		model.Primed(1), model.Primed(1), model.Unprimed(1),
	}
	for _, e := range events {
		_ = s.tracker.OnEvent(e)
		s.confirm(1)
		s.NotEqual(model.StateConfirmedUnlocked, s.state(1))
	}
}

func (s *TrackerSuite) TestStateNeverRegressesAfterTrigger() {
	_ = s.tracker.OnEvent(model.Triggered(1))

	for _, e := range []model.Event{model.Primed(1), model.Unprimed(1), model.ProgressUpdated(1, 1, 2, "")} {
		_ = s.tracker.OnEvent(e)
		s.Equal(model.StateTriggered, s.state(1))
	}

	s.confirm(1)
	for _, e := range []model.Event{model.Primed(1), model.Triggered(1), model.Unprimed(1)} {
		_ = s.tracker.OnEvent(e)
		s.Equal(model.StateConfirmedUnlocked, s.state(1))
	}
}

func (s *TrackerSuite) TestReplayingEventsIsIdempotent() {
	events := []model.Event{
		model.Primed(1), model.ProgressUpdated(2, 4, 8, "4/8"), model.Triggered(1),
		model.LeaderboardStarted(7), model.LeaderboardUpdated(7, "0:10"),
	}

	for _, e := range events {
		_ = s.tracker.OnEvent(e)
	}
	once, _ := s.tracker.View()

	for _, e := range events {
		_ = s.tracker.OnEvent(e)
		_ = s.tracker.OnEvent(e)
	}
	twice, _ := s.tracker.View()

	s.Equal(once, twice)
	s.Equal(1, s.submitter.unlockCount())
}

// Leaderboards

func (s *TrackerSuite) TestLeaderboardAttemptLifecycle() {
	s.Require().NoError(s.tracker.OnEvent(model.LeaderboardStarted(7)))
	s.Require().NoError(s.tracker.OnEvent(model.LeaderboardUpdated(7, "0:42")))

	view, _ := s.tracker.View()
	s.Require().Len(view.Leaderboards, 1)
	s.Equal("0:42", view.Leaderboards[0].Display)

	s.Require().NoError(s.tracker.OnEvent(model.LeaderboardCompleted(7, 4200)))

	view, _ = s.tracker.View()
	s.Empty(view.Leaderboards)
	s.Require().Len(s.submitter.entries, 1)
	s.Equal(submittedEntry{s.sessionID, 7, 4200}, s.submitter.entries[0])
}

func (s *TrackerSuite) TestLeaderboardCompletionWithoutStartIgnored() {
	s.Require().NoError(s.tracker.OnEvent(model.LeaderboardCompleted(7, 4200)))

	s.Empty(s.submitter.entries)
}

func (s *TrackerSuite) TestLeaderboardCanceled() {
	_ = s.tracker.OnEvent(model.LeaderboardStarted(7))
	s.Require().NoError(s.tracker.OnEvent(model.LeaderboardCanceled(7)))

	view, _ := s.tracker.View()
	s.Empty(view.Leaderboards)

	_ = s.tracker.OnEvent(model.LeaderboardCompleted(7, 1))
	s.Empty(s.submitter.entries)
}

// Session end

func (s *TrackerSuite) TestEndSessionClosesSubmitter() {
	s.tracker.EndSession()

	_, ok := s.tracker.View()
	s.False(ok)
	s.Contains(s.submitter.closed, s.sessionID)
}

func (s *TrackerSuite) TestResubmitEnqueuesTriggered() {
	_ = s.tracker.OnEvent(model.Triggered(1))

	n := s.tracker.Resubmit()

	s.Equal(2, n) // 1 and the pending 4
	s.Equal(3, s.submitter.unlockCount())
}
