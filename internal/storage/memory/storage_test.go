package memory

import (
	"context"
	"testing"
	"time"

	"github.com/mcoot/rasync/internal/model"
	"github.com/stretchr/testify/suite"
)

type StorageSuite struct {
	suite.Suite
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.storage = New()
	s.ctx = context.Background()
}

// User auth tests

func (s *StorageSuite) TestSaveAndGetUserAuth() {
	err := s.storage.SaveUserAuth(s.ctx, &model.UserAuth{Username: "alice", Token: "tok"})
	s.Require().NoError(err)

	auth, err := s.storage.GetUserAuth(s.ctx)
	s.Require().NoError(err)
	s.Equal("alice", auth.Username)
	s.Equal("tok", auth.Token)
}

func (s *StorageSuite) TestGetUserAuthNotFound() {
	_, err := s.storage.GetUserAuth(s.ctx)
	s.ErrorIs(err, model.ErrUserAuthNotFound)
}

func (s *StorageSuite) TestSavedUserAuthIsCopied() {
	auth := &model.UserAuth{Username: "alice", Token: "tok"}
	_ = s.storage.SaveUserAuth(s.ctx, auth)
	auth.Token = "mutated"

	stored, err := s.storage.GetUserAuth(s.ctx)
	s.Require().NoError(err)
	s.Equal("tok", stored.Token)
}

func (s *StorageSuite) TestDeleteUserAuth() {
	_ = s.storage.SaveUserAuth(s.ctx, &model.UserAuth{Username: "alice", Token: "tok"})

	s.Require().NoError(s.storage.DeleteUserAuth(s.ctx))

	_, err := s.storage.GetUserAuth(s.ctx)
	s.ErrorIs(err, model.ErrUserAuthNotFound)
}

// Pending unlock tests

func (s *StorageSuite) TestPendingUnlocksAreScopedToUser() {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	_ = s.storage.SavePendingUnlock(s.ctx, &model.PendingUnlock{AchievementID: 2, GameID: 1, Username: "alice", CreatedAt: now.Add(time.Minute)})
	_ = s.storage.SavePendingUnlock(s.ctx, &model.PendingUnlock{AchievementID: 1, GameID: 1, Username: "alice", CreatedAt: now})
	_ = s.storage.SavePendingUnlock(s.ctx, &model.PendingUnlock{AchievementID: 3, GameID: 1, Username: "bob", CreatedAt: now})

	pending, err := s.storage.GetPendingUnlocks(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().Len(pending, 2)
	s.Equal(model.AchievementID(1), pending[0].AchievementID)
	s.Equal(model.AchievementID(2), pending[1].AchievementID)
}

func (s *StorageSuite) TestDeletePendingUnlock() {
	_ = s.storage.SavePendingUnlock(s.ctx, &model.PendingUnlock{AchievementID: 1, GameID: 1, Username: "alice"})

	s.Require().NoError(s.storage.DeletePendingUnlock(s.ctx, "alice", 1))

	pending, err := s.storage.GetPendingUnlocks(s.ctx, "alice")
	s.Require().NoError(err)
	s.Empty(pending)
}

// Game cache tests

func (s *StorageSuite) TestSaveAndGetGame() {
	game := &model.Game{ID: 10, Title: "Sonic", Sets: []model.AchievementSet{{ID: 1, GameID: 10, Type: model.SetTypeCore}}}
	s.Require().NoError(s.storage.SaveGame(s.ctx, game))

	retrieved, err := s.storage.GetGame(s.ctx, 10)
	s.Require().NoError(err)
	s.Equal("Sonic", retrieved.Title)
	s.Len(retrieved.Sets, 1)
}

func (s *StorageSuite) TestGetGameNotCached() {
	_, err := s.storage.GetGame(s.ctx, 10)
	s.ErrorIs(err, model.ErrGameSetsNotCached)
}

func (s *StorageSuite) TestUserUnlocksKeyedByMode() {
	_ = s.storage.SaveUserUnlocks(s.ctx, &model.UserUnlocks{GameID: 10, Username: "alice", HardcoreMode: true, Achievements: []model.AchievementID{1}})

	unlocks, err := s.storage.GetUserUnlocks(s.ctx, 10, "alice", true)
	s.Require().NoError(err)
	s.Equal([]model.AchievementID{1}, unlocks.Achievements)

	_, err = s.storage.GetUserUnlocks(s.ctx, 10, "alice", false)
	s.ErrorIs(err, model.ErrUserUnlocksNotCached)
}

func (s *StorageSuite) TestAddUserUnlock() {
	_ = s.storage.SaveUserUnlocks(s.ctx, &model.UserUnlocks{GameID: 10, Username: "alice", Achievements: []model.AchievementID{1}})
	before, _ := s.storage.GetUserUnlocks(s.ctx, 10, "alice", false)

	s.Require().NoError(s.storage.AddUserUnlock(s.ctx, 10, "alice", false, 2))
	s.Require().NoError(s.storage.AddUserUnlock(s.ctx, 10, "alice", false, 2))

	unlocks, err := s.storage.GetUserUnlocks(s.ctx, 10, "alice", false)
	s.Require().NoError(err)
	s.Equal([]model.AchievementID{1, 2}, unlocks.Achievements)
	s.Equal([]model.AchievementID{1}, before.Achievements, "earlier reads are not mutated")
}

func (s *StorageSuite) TestAddUserUnlockWithoutCacheIsNoop() {
	s.Require().NoError(s.storage.AddUserUnlock(s.ctx, 10, "alice", false, 2))

	_, err := s.storage.GetUserUnlocks(s.ctx, 10, "alice", false)
	s.ErrorIs(err, model.ErrUserUnlocksNotCached)
}

func (s *StorageSuite) TestGameSetMetadataDefaultsToZero() {
	metadata, err := s.storage.GetGameSetMetadata(s.ctx, 10)
	s.Require().NoError(err)
	s.Equal(model.GameID(10), metadata.GameID)
	s.True(metadata.LastAchievementSetUpdated.IsZero())
	s.True(metadata.LastUserDataUpdated.IsZero())
}

// Hash library tests

func (s *StorageSuite) TestHashLibraryNotCached() {
	_, err := s.storage.GetGameIDForHash(s.ctx, "abc")
	s.ErrorIs(err, model.ErrHashLibraryNotCached)
}

func (s *StorageSuite) TestHashLibraryLookup() {
	updated := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.storage.SaveHashLibrary(s.ctx, map[string]model.GameID{"abc": 10}, updated))

	id, err := s.storage.GetGameIDForHash(s.ctx, "abc")
	s.Require().NoError(err)
	s.Equal(model.GameID(10), id)

	_, err = s.storage.GetGameIDForHash(s.ctx, "def")
	s.ErrorIs(err, model.ErrGameNotFound)

	at, err := s.storage.GetHashLibraryUpdatedAt(s.ctx)
	s.Require().NoError(err)
	s.True(updated.Equal(at))
}
