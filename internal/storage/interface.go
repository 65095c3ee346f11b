package storage

import (
	"context"
	"time"

	"github.com/mcoot/rasync/internal/model"
)

// Storage defines the interface for data persistence
type Storage interface {
	// User auth operations. A single record; saves replace it whole.
	GetUserAuth(ctx context.Context) (*model.UserAuth, error)
	SaveUserAuth(ctx context.Context, auth *model.UserAuth) error
	DeleteUserAuth(ctx context.Context) error

	// Pending unlock operations
	SavePendingUnlock(ctx context.Context, pending *model.PendingUnlock) error
	GetPendingUnlocks(ctx context.Context, username string) ([]*model.PendingUnlock, error)
	DeletePendingUnlock(ctx context.Context, username string, id model.AchievementID) error

	// Game definition cache operations
	SaveGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	SaveUserUnlocks(ctx context.Context, unlocks *model.UserUnlocks) error
	GetUserUnlocks(ctx context.Context, gameID model.GameID, username string, hardcoreMode bool) (*model.UserUnlocks, error)
	// AddUserUnlock appends a confirmed unlock to the cached list. It is a
	// no-op when nothing is cached for the game, user and mode.
	AddUserUnlock(ctx context.Context, gameID model.GameID, username string, hardcoreMode bool, id model.AchievementID) error

	// Cache metadata operations. A missing record yields zero timestamps.
	SaveGameSetMetadata(ctx context.Context, metadata *model.GameSetMetadata) error
	GetGameSetMetadata(ctx context.Context, gameID model.GameID) (*model.GameSetMetadata, error)

	// Hash library operations
	SaveHashLibrary(ctx context.Context, library map[string]model.GameID, updatedAt time.Time) error
	GetGameIDForHash(ctx context.Context, hash string) (model.GameID, error)
	GetHashLibraryUpdatedAt(ctx context.Context) (time.Time, error)
}
