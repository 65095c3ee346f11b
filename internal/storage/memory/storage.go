package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/mcoot/rasync/internal/model"
	"github.com/mcoot/rasync/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	userAuth       *model.UserAuth
	pendingUnlocks map[pendingKey]*model.PendingUnlock
	games          map[model.GameID]*model.Game
	userUnlocks    map[unlocksKey]*model.UserUnlocks
	metadata       map[model.GameID]*model.GameSetMetadata
	hashLibrary    map[string]model.GameID
	hashUpdatedAt  time.Time
}

type pendingKey struct {
	username      string
	achievementID model.AchievementID
}

type unlocksKey struct {
	gameID       model.GameID
	username     string
	hardcoreMode bool
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		pendingUnlocks: make(map[pendingKey]*model.PendingUnlock),
		games:          make(map[model.GameID]*model.Game),
		userUnlocks:    make(map[unlocksKey]*model.UserUnlocks),
		metadata:       make(map[model.GameID]*model.GameSetMetadata),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User auth operations

func (s *Storage) GetUserAuth(ctx context.Context) (*model.UserAuth, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.userAuth == nil {
		return nil, model.ErrUserAuthNotFound
	}
	auth := *s.userAuth
	return &auth, nil
}

func (s *Storage) SaveUserAuth(ctx context.Context, auth *model.UserAuth) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *auth
	s.userAuth = &stored
	return nil
}

func (s *Storage) DeleteUserAuth(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userAuth = nil
	return nil
}

// Pending unlock operations

func (s *Storage) SavePendingUnlock(ctx context.Context, pending *model.PendingUnlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *pending
	s.pendingUnlocks[pendingKey{pending.Username, pending.AchievementID}] = &stored
	return nil
}

func (s *Storage) GetPendingUnlocks(ctx context.Context, username string) ([]*model.PendingUnlock, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var result []*model.PendingUnlock
	for key, pending := range s.pendingUnlocks {
		if key.username == username {
			p := *pending
			result = append(result, &p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *Storage) DeletePendingUnlock(ctx context.Context, username string, id model.AchievementID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pendingUnlocks, pendingKey{username, id})
	return nil
}

// Game definition cache operations

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.ID] = game
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameSetsNotCached
	}
	return game, nil
}

func (s *Storage) SaveUserUnlocks(ctx context.Context, unlocks *model.UserUnlocks) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userUnlocks[unlocksKey{unlocks.GameID, unlocks.Username, unlocks.HardcoreMode}] = unlocks
	return nil
}

func (s *Storage) GetUserUnlocks(ctx context.Context, gameID model.GameID, username string, hardcoreMode bool) (*model.UserUnlocks, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	unlocks, ok := s.userUnlocks[unlocksKey{gameID, username, hardcoreMode}]
	if !ok {
		return nil, model.ErrUserUnlocksNotCached
	}
	return unlocks, nil
}

func (s *Storage) AddUserUnlock(ctx context.Context, gameID model.GameID, username string, hardcoreMode bool, id model.AchievementID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := unlocksKey{gameID, username, hardcoreMode}
	unlocks, ok := s.userUnlocks[key]
	if !ok || slices.Contains(unlocks.Achievements, id) {
		return nil
	}
	updated := *unlocks
	updated.Achievements = append(slices.Clone(unlocks.Achievements), id)
	s.userUnlocks[key] = &updated
	return nil
}

// Cache metadata operations

func (s *Storage) SaveGameSetMetadata(ctx context.Context, metadata *model.GameSetMetadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *metadata
	s.metadata[metadata.GameID] = &stored
	return nil
}

func (s *Storage) GetGameSetMetadata(ctx context.Context, gameID model.GameID) (*model.GameSetMetadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	metadata, ok := s.metadata[gameID]
	if !ok {
		return &model.GameSetMetadata{GameID: gameID}, nil
	}
	m := *metadata
	return &m, nil
}

// Hash library operations

func (s *Storage) SaveHashLibrary(ctx context.Context, library map[string]model.GameID, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hashLibrary = make(map[string]model.GameID, len(library))
	for hash, id := range library {
		s.hashLibrary[hash] = id
	}
	s.hashUpdatedAt = updatedAt
	return nil
}

func (s *Storage) GetGameIDForHash(ctx context.Context, hash string) (model.GameID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.hashLibrary == nil {
		return 0, model.ErrHashLibraryNotCached
	}
	id, ok := s.hashLibrary[hash]
	if !ok {
		return 0, model.ErrGameNotFound
	}
	return id, nil
}

func (s *Storage) GetHashLibraryUpdatedAt(ctx context.Context) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hashUpdatedAt, nil
}
