package raapi

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/mcoot/rasync/internal/model"
)

const (
	requestLogin            = "login2"
	requestHashLibrary      = "hashlibrary"
	requestAchievementSets  = "achievementsets"
	requestUserUnlocks      = "unlocks"
	requestAwardAchievement = "awardachievement"
	requestSubmitLBEntry    = "submitlbentry"
	requestPostActivity     = "postactivity"
	requestPing             = "ping"

	activityStartSession = "3"

	alreadyAwardedPrefix = "User already has"
)

func authParams(auth model.UserAuth) url.Values {
	params := url.Values{}
	params.Set("u", auth.Username)
	params.Set("t", auth.Token)
	return params
}

func hardcoreFlag(hardcoreMode bool) string {
	if hardcoreMode {
		return "1"
	}
	return "0"
}

// Login exchanges a password for a session token
func (c *HTTPClient) Login(ctx context.Context, username, password string) (model.UserAuth, error) {
	params := url.Values{}
	params.Set("u", username)
	params.Set("p", password)

	var resp loginResponse
	if err := c.do(ctx, requestLogin, params, &resp); err != nil {
		return model.UserAuth{}, err
	}

	name := resp.User
	if name == "" {
		name = username
	}
	return model.UserAuth{Username: name, Token: resp.Token}, nil
}

// FetchHashLibrary returns the ROM hash to game id mapping
func (c *HTTPClient) FetchHashLibrary(ctx context.Context) (map[string]model.GameID, error) {
	var resp hashLibraryResponse
	if err := c.do(ctx, requestHashLibrary, url.Values{}, &resp); err != nil {
		return nil, err
	}

	library := make(map[string]model.GameID, len(resp.MD5List))
	for hash, id := range resp.MD5List {
		library[strings.ToLower(hash)] = model.GameID(id)
	}
	return library, nil
}

// FetchAchievementSets returns the game with every achievement set it exposes
func (c *HTTPClient) FetchAchievementSets(ctx context.Context, gameID model.GameID, auth model.UserAuth) (*model.Game, error) {
	params := authParams(auth)
	params.Set("g", gameID.String())

	var resp achievementSetsResponse
	if err := c.do(ctx, requestAchievementSets, params, &resp); err != nil {
		return nil, err
	}
	if resp.GameID == 0 {
		resp.GameID = int64(gameID)
	}
	return resp.toModel()
}

// FetchUserUnlocks returns the ids the user already unlocked in a game
func (c *HTTPClient) FetchUserUnlocks(ctx context.Context, gameID model.GameID, auth model.UserAuth, hardcoreMode bool) ([]model.AchievementID, error) {
	params := authParams(auth)
	params.Set("g", gameID.String())
	params.Set("h", hardcoreFlag(hardcoreMode))

	var resp unlocksResponse
	if err := c.do(ctx, requestUserUnlocks, params, &resp); err != nil {
		return nil, err
	}

	ids := make([]model.AchievementID, 0, len(resp.UserUnlocks))
	for _, id := range resp.UserUnlocks {
		ids = append(ids, model.AchievementID(id))
	}
	return ids, nil
}

// SubmitUnlock awards an achievement. The server refusing because the
// user already has it is reported as a successful, not-awarded unlock.
func (c *HTTPClient) SubmitUnlock(ctx context.Context, auth model.UserAuth, id model.AchievementID, hardcoreMode bool, signature string) (model.UnlockResponse, error) {
	params := authParams(auth)
	params.Set("a", id.String())
	params.Set("h", hardcoreFlag(hardcoreMode))
	params.Set("v", signature)

	var resp awardAchievementResponse
	err := c.do(ctx, requestAwardAchievement, params, &resp)
	if reqErr, ok := asRequestError(err); ok && strings.HasPrefix(reqErr.Message, alreadyAwardedPrefix) {
		c.logger.Debug("achievement already awarded", slog.String("achievement_id", id.String()))
		return model.UnlockResponse{AchievementAwarded: false, RemainingAchievements: -1}, nil
	}
	if err != nil {
		return model.UnlockResponse{}, err
	}

	remaining := -1
	if resp.AchievementsRemaining != nil {
		remaining = *resp.AchievementsRemaining
	}
	return model.UnlockResponse{
		AchievementAwarded:    true,
		RemainingAchievements: remaining,
		Score:                 resp.Score,
	}, nil
}

// SubmitLeaderboardEntry posts a score to a leaderboard
func (c *HTTPClient) SubmitLeaderboardEntry(ctx context.Context, auth model.UserAuth, id model.LeaderboardID, score int, signature string) (model.LeaderboardEntryResponse, error) {
	params := authParams(auth)
	params.Set("i", id.String())
	params.Set("s", strconv.Itoa(score))
	params.Set("v", signature)

	var resp submitLeaderboardEntryResponse
	if err := c.do(ctx, requestSubmitLBEntry, params, &resp); err != nil {
		return model.LeaderboardEntryResponse{}, err
	}

	return model.LeaderboardEntryResponse{
		Rank:           resp.Response.RankInfo.Rank,
		NumEntries:     resp.Response.RankInfo.NumEntries,
		Score:          resp.Response.Score,
		BestScore:      resp.Response.BestScore,
		FormattedScore: resp.Response.ScoreFormatted,
	}, nil
}

// StartSession posts the start-session activity for a game
func (c *HTTPClient) StartSession(ctx context.Context, auth model.UserAuth, gameID model.GameID) error {
	params := authParams(auth)
	params.Set("a", activityStartSession)
	params.Set("m", gameID.String())
	return c.do(ctx, requestPostActivity, params, nil)
}

// Ping keeps the session alive, optionally with a rich presence line
func (c *HTTPClient) Ping(ctx context.Context, auth model.UserAuth, gameID model.GameID, richPresence string) error {
	params := authParams(auth)
	params.Set("g", gameID.String())
	if richPresence != "" {
		params.Set("m", richPresence)
	}
	return c.do(ctx, requestPing, params, nil)
}
