package factory

import (
	"time"

	"github.com/mcoot/rasync/internal/dependencies/mocks"
	"github.com/mcoot/rasync/internal/model"
	"github.com/mcoot/rasync/internal/services/submission"
	"github.com/mcoot/rasync/internal/storage"
	"github.com/mcoot/rasync/internal/storage/memory"
	"github.com/mcoot/rasync/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock *mocks.MockClock
	MockAPI   *mocks.MockAPI
}

// NewTestApp creates an App configured for testing with mocked dependencies.
// Submission retries are shortened to milliseconds. Call Start before
// submitting events.
func NewTestApp() *TestApp {
	return NewTestAppWithStorage(memory.New())
}

// NewTestAppWithStorage is NewTestApp over an existing store, so a test can
// restart the app and keep what the previous instance persisted
func NewTestAppWithStorage(store storage.Storage) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	mockAPI := mocks.NewMockAPI()
	logger := testutil.NopLogger()

	cfg := Config{
		Submission: submission.Config{
			MaxAttempts:     3,
			InitialInterval: time.Millisecond,
			MaxInterval:     2 * time.Millisecond,
		},
	}

	app, err := newWithDependencies(store, mockClock, mockAPI, cfg, logger)
	if err != nil {
		// Only an invalid credential secret can fail, and none is set
		panic(err)
	}

	return &TestApp{
		App:       app,
		MockClock: mockClock,
		MockAPI:   mockAPI,
	}
}

// LoadTestGame registers a small game with the mock API: a core set of
// three achievements (one already unlocked by the user), a bonus set and
// one leaderboard
func (t *TestApp) LoadTestGame() *model.Game {
	game := &model.Game{
		ID:                1234,
		Title:             "Sonic the Hedgehog",
		IconURL:           "https://media.retroachievements.org/Images/085573.png",
		RichPresencePatch: "Display:\nPlaying",
		Sets: []model.AchievementSet{
			{
				ID:     1,
				GameID: 1234,
				Type:   model.SetTypeCore,
				Achievements: []model.Achievement{
					{ID: 101, SetID: 1, GameID: 1234, Title: "Ring Collector", Points: 5, DisplayOrder: 1, Type: model.AchievementTypeCore},
					{ID: 102, SetID: 1, GameID: 1234, Title: "Green Hill", Points: 10, DisplayOrder: 2, Type: model.AchievementTypeProgression},
					{ID: 103, SetID: 1, GameID: 1234, Title: "Chaos Emerald", Points: 25, DisplayOrder: 3, Type: model.AchievementTypeWinCondition},
				},
				Leaderboards: []model.Leaderboard{
					{ID: 501, GameID: 1234, Title: "Green Hill Act 1", Format: "TIME", LowerIsBetter: true},
				},
			},
			{
				ID:     2,
				GameID: 1234,
				Type:   model.SetTypeBonus,
				Achievements: []model.Achievement{
					{ID: 201, SetID: 2, GameID: 1234, Title: "No Rings", Points: 50, Type: model.AchievementTypeCore},
				},
			},
		},
	}
	t.MockAPI.Games[game.ID] = game
	t.MockAPI.Unlocks[game.ID] = []model.AchievementID{101}
	t.MockAPI.HashLibrary["0123456789abcdef0123456789abcdef"] = game.ID
	return game
}
