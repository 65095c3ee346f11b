package redis

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sort"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/rasync/internal/model"
	"github.com/mcoot/rasync/internal/storage"
)

// Storage is a Redis-backed implementation of the storage interface
type Storage struct {
	client *redis.Client
	cfg    Config
}

// New creates a new Redis storage instance
func New(cfg Config) (*Storage, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Storage{
		client: client,
		cfg:    cfg,
	}, nil
}

// NewWithClient creates a Redis storage with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config) *Storage {
	return &Storage{
		client: client,
		cfg:    cfg,
	}
}

// Close closes the Redis connection
func (s *Storage) Close() error {
	return s.client.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// User auth operations

func (s *Storage) GetUserAuth(ctx context.Context) (*model.UserAuth, error) {
	var auth model.UserAuth
	if err := s.getJSON(ctx, userAuthKey(), &auth, model.ErrUserAuthNotFound); err != nil {
		return nil, err
	}
	return &auth, nil
}

// SaveUserAuth writes the whole record with a single SET so readers never
// observe a half-written pair.
func (s *Storage) SaveUserAuth(ctx context.Context, auth *model.UserAuth) error {
	return s.setJSON(ctx, userAuthKey(), auth, 0)
}

func (s *Storage) DeleteUserAuth(ctx context.Context) error {
	return s.client.Del(ctx, userAuthKey()).Err()
}

// Pending unlock operations

func (s *Storage) SavePendingUnlock(ctx context.Context, pending *model.PendingUnlock) error {
	data, err := json.Marshal(pending)
	if err != nil {
		return err
	}

	key := pendingUnlockKey(pending.Username, pending.AchievementID)

	// Use pipeline for atomic save + index update
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, key, data, 0) // No TTL, unlocks are never abandoned
	pipe.SAdd(ctx, pendingUnlocksIndexKey(pending.Username), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Storage) GetPendingUnlocks(ctx context.Context, username string) ([]*model.PendingUnlock, error) {
	keys, err := s.client.SMembers(ctx, pendingUnlocksIndexKey(username)).Result()
	if err != nil {
		return nil, err
	}

	if len(keys) == 0 {
		return []*model.PendingUnlock{}, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	pending := make([]*model.PendingUnlock, 0, len(values))
	for _, val := range values {
		str, ok := val.(string)
		if !ok {
			continue // Deleted between SMEMBERS and MGET
		}
		var p model.PendingUnlock
		if err := json.Unmarshal([]byte(str), &p); err != nil {
			continue // Skip invalid data
		}
		pending = append(pending, &p)
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})
	return pending, nil
}

func (s *Storage) DeletePendingUnlock(ctx context.Context, username string, id model.AchievementID) error {
	key := pendingUnlockKey(username, id)

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, pendingUnlocksIndexKey(username), key)
	_, err := pipe.Exec(ctx)
	return err
}

// Game definition cache operations

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	return s.setJSON(ctx, gameKey(game.ID), game, s.cfg.GameTTL)
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	var game model.Game
	if err := s.getJSON(ctx, gameKey(id), &game, model.ErrGameSetsNotCached); err != nil {
		return nil, err
	}
	return &game, nil
}

func (s *Storage) SaveUserUnlocks(ctx context.Context, unlocks *model.UserUnlocks) error {
	key := userUnlocksKey(unlocks.GameID, unlocks.Username, unlocks.HardcoreMode)
	return s.setJSON(ctx, key, unlocks, s.cfg.UserUnlocksTTL)
}

func (s *Storage) GetUserUnlocks(ctx context.Context, gameID model.GameID, username string, hardcoreMode bool) (*model.UserUnlocks, error) {
	var unlocks model.UserUnlocks
	key := userUnlocksKey(gameID, username, hardcoreMode)
	if err := s.getJSON(ctx, key, &unlocks, model.ErrUserUnlocksNotCached); err != nil {
		return nil, err
	}
	return &unlocks, nil
}

// AddUserUnlock rewrites the cached list under WATCH so a concurrent refresh
// of the same key aborts the update instead of being overwritten.
func (s *Storage) AddUserUnlock(ctx context.Context, gameID model.GameID, username string, hardcoreMode bool, id model.AchievementID) error {
	key := userUnlocksKey(gameID, username, hardcoreMode)

	return s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}

		var unlocks model.UserUnlocks
		if err := json.Unmarshal(data, &unlocks); err != nil {
			return err
		}
		if slices.Contains(unlocks.Achievements, id) {
			return nil
		}
		unlocks.Achievements = append(unlocks.Achievements, id)

		updated, err := json.Marshal(&unlocks)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, redis.KeepTTL)
			return nil
		})
		return err
	}, key)
}

// Cache metadata operations

func (s *Storage) SaveGameSetMetadata(ctx context.Context, metadata *model.GameSetMetadata) error {
	return s.setJSON(ctx, gameSetMetadataKey(metadata.GameID), metadata, 0)
}

func (s *Storage) GetGameSetMetadata(ctx context.Context, gameID model.GameID) (*model.GameSetMetadata, error) {
	var metadata model.GameSetMetadata
	err := s.getJSON(ctx, gameSetMetadataKey(gameID), &metadata, model.ErrGameSetsNotCached)
	if errors.Is(err, model.ErrGameSetsNotCached) {
		return &model.GameSetMetadata{GameID: gameID}, nil
	}
	if err != nil {
		return nil, err
	}
	return &metadata, nil
}

// Hash library operations

func (s *Storage) SaveHashLibrary(ctx context.Context, library map[string]model.GameID, updatedAt time.Time) error {
	// Replace the library and its timestamp in one transaction
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, hashLibraryKey())

	if len(library) > 0 {
		fields := make(map[string]interface{}, len(library))
		for hash, id := range library {
			fields[hash] = int64(id)
		}
		pipe.HSet(ctx, hashLibraryKey(), fields)
	}
	pipe.Set(ctx, hashLibraryUpdatedKey(), updatedAt.UTC().Format(time.RFC3339Nano), 0)

	_, err := pipe.Exec(ctx)
	return err
}

func (s *Storage) GetGameIDForHash(ctx context.Context, hash string) (model.GameID, error) {
	updatedAt, err := s.GetHashLibraryUpdatedAt(ctx)
	if err != nil {
		return 0, err
	}
	if updatedAt.IsZero() {
		return 0, model.ErrHashLibraryNotCached
	}

	val, err := s.client.HGet(ctx, hashLibraryKey(), hash).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, model.ErrGameNotFound
		}
		return 0, err
	}

	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, err
	}
	return model.GameID(id), nil
}

func (s *Storage) GetHashLibraryUpdatedAt(ctx context.Context) (time.Time, error) {
	val, err := s.client.Get(ctx, hashLibraryUpdatedKey()).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return time.Time{}, nil
		}
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, val)
}

// Helpers

func (s *Storage) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s *Storage) getJSON(ctx context.Context, key string, v any, notFound error) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return notFound
		}
		return err
	}
	return json.Unmarshal(data, v)
}
