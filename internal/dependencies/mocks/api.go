package mocks

import (
	"context"
	"sync"

	"github.com/mcoot/rasync/internal/model"
	"github.com/mcoot/rasync/internal/raapi"
)

// UnlockCall records a SubmitUnlock invocation
type UnlockCall struct {
	Auth          model.UserAuth
	AchievementID model.AchievementID
	HardcoreMode  bool
	Signature     string
}

// LeaderboardCall records a SubmitLeaderboardEntry invocation
type LeaderboardCall struct {
	Auth          model.UserAuth
	LeaderboardID model.LeaderboardID
	Score         int
	Signature     string
}

// MockAPI is a scriptable implementation of raapi.Client for testing.
// Unset funcs fall back to canned data: Games, Unlocks and HashLibrary.
type MockAPI struct {
	mu sync.Mutex

	Games       map[model.GameID]*model.Game
	Unlocks     map[model.GameID][]model.AchievementID
	HashLibrary map[string]model.GameID

	LoginFunc                  func(username, password string) (model.UserAuth, error)
	FetchAchievementSetsErr    error
	FetchUserUnlocksErr        error
	FetchHashLibraryErr        error
	SubmitUnlockFunc           func(call UnlockCall) (model.UnlockResponse, error)
	SubmitLeaderboardEntryFunc func(call LeaderboardCall) (model.LeaderboardEntryResponse, error)
	PingErr                    error

	fetchSetsCalls    int
	fetchUnlocksCalls int
	fetchHashCalls    int
	unlockCalls       []UnlockCall
	leaderboardCalls  []LeaderboardCall
	startSessionCalls []model.GameID
	pingCalls         []model.GameID
}

// Ensure MockAPI implements Client
var _ raapi.Client = (*MockAPI)(nil)

// NewMockAPI creates an empty MockAPI
func NewMockAPI() *MockAPI {
	return &MockAPI{
		Games:       make(map[model.GameID]*model.Game),
		Unlocks:     make(map[model.GameID][]model.AchievementID),
		HashLibrary: make(map[string]model.GameID),
	}
}

// Login returns LoginFunc's result, or a token derived from the username
func (m *MockAPI) Login(ctx context.Context, username, password string) (model.UserAuth, error) {
	m.mu.Lock()
	fn := m.LoginFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(username, password)
	}
	return model.UserAuth{Username: username, Token: "token-" + username}, nil
}

func (m *MockAPI) FetchHashLibrary(ctx context.Context) (map[string]model.GameID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchHashCalls++
	if m.FetchHashLibraryErr != nil {
		return nil, m.FetchHashLibraryErr
	}
	library := make(map[string]model.GameID, len(m.HashLibrary))
	for hash, id := range m.HashLibrary {
		library[hash] = id
	}
	return library, nil
}

func (m *MockAPI) FetchAchievementSets(ctx context.Context, gameID model.GameID, auth model.UserAuth) (*model.Game, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchSetsCalls++
	if m.FetchAchievementSetsErr != nil {
		return nil, m.FetchAchievementSetsErr
	}
	game, ok := m.Games[gameID]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	return game, nil
}

func (m *MockAPI) FetchUserUnlocks(ctx context.Context, gameID model.GameID, auth model.UserAuth, hardcoreMode bool) ([]model.AchievementID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetchUnlocksCalls++
	if m.FetchUserUnlocksErr != nil {
		return nil, m.FetchUserUnlocksErr
	}
	return append([]model.AchievementID(nil), m.Unlocks[gameID]...), nil
}

// SubmitUnlock records the call and answers with SubmitUnlockFunc, or a
// plain awarded response with achievements remaining
func (m *MockAPI) SubmitUnlock(ctx context.Context, auth model.UserAuth, id model.AchievementID, hardcoreMode bool, signature string) (model.UnlockResponse, error) {
	call := UnlockCall{Auth: auth, AchievementID: id, HardcoreMode: hardcoreMode, Signature: signature}

	m.mu.Lock()
	m.unlockCalls = append(m.unlockCalls, call)
	fn := m.SubmitUnlockFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(call)
	}
	return model.UnlockResponse{AchievementAwarded: true, RemainingAchievements: 1}, nil
}

func (m *MockAPI) SubmitLeaderboardEntry(ctx context.Context, auth model.UserAuth, id model.LeaderboardID, score int, signature string) (model.LeaderboardEntryResponse, error) {
	call := LeaderboardCall{Auth: auth, LeaderboardID: id, Score: score, Signature: signature}

	m.mu.Lock()
	m.leaderboardCalls = append(m.leaderboardCalls, call)
	fn := m.SubmitLeaderboardEntryFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(call)
	}
	return model.LeaderboardEntryResponse{Rank: 1, NumEntries: 1, Score: score, BestScore: score}, nil
}

func (m *MockAPI) StartSession(ctx context.Context, auth model.UserAuth, gameID model.GameID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startSessionCalls = append(m.startSessionCalls, gameID)
	return nil
}

func (m *MockAPI) Ping(ctx context.Context, auth model.UserAuth, gameID model.GameID, richPresence string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingCalls = append(m.pingCalls, gameID)
	return m.PingErr
}

// SetSubmitUnlockFunc replaces the unlock behaviour while workers may be running
func (m *MockAPI) SetSubmitUnlockFunc(fn func(call UnlockCall) (model.UnlockResponse, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubmitUnlockFunc = fn
}

// SetSubmitLeaderboardEntryFunc replaces the leaderboard behaviour while workers may be running
func (m *MockAPI) SetSubmitLeaderboardEntryFunc(fn func(call LeaderboardCall) (model.LeaderboardEntryResponse, error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubmitLeaderboardEntryFunc = fn
}

// FetchSetsCalls returns how many times achievement sets were fetched
func (m *MockAPI) FetchSetsCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchSetsCalls
}

// FetchUnlocksCalls returns how many times user unlocks were fetched
func (m *MockAPI) FetchUnlocksCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchUnlocksCalls
}

// FetchHashLibraryCalls returns how many times the hash library was fetched
func (m *MockAPI) FetchHashLibraryCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fetchHashCalls
}

// UnlockCalls returns a copy of the recorded unlock submissions
func (m *MockAPI) UnlockCalls() []UnlockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]UnlockCall(nil), m.unlockCalls...)
}

// LeaderboardCalls returns a copy of the recorded leaderboard submissions
func (m *MockAPI) LeaderboardCalls() []LeaderboardCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]LeaderboardCall(nil), m.leaderboardCalls...)
}

// StartSessionCalls returns the games a session was started for
func (m *MockAPI) StartSessionCalls() []model.GameID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.GameID(nil), m.startSessionCalls...)
}

// PingCalls returns the games pinged so far
func (m *MockAPI) PingCalls() []model.GameID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.GameID(nil), m.pingCalls...)
}
