package raapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rasync/internal/model"
	"github.com/mcoot/rasync/internal/testutil"
)

// fakeServer records the last form posted and answers with a canned body
type fakeServer struct {
	mu     sync.Mutex
	form   url.Values
	agent  string
	status int
	body   string
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	f.mu.Lock()
	f.form = r.PostForm
	f.agent = r.UserAgent()
	status, body := f.status, f.body
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (f *fakeServer) respond(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
	f.body = body
}

func (f *fakeServer) lastForm() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.form
}

func newTestClient(t *testing.T) (*HTTPClient, *fakeServer) {
	t.Helper()
	fake := &fakeServer{}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	client := New(Config{
		BaseURL:    srv.URL + "/dorequest.php",
		AppName:    "rasync",
		AppVersion: "1.2.3",
		Timeout:    time.Second,
	}, testutil.NopLogger())
	return client, fake
}

var alice = model.UserAuth{Username: "alice", Token: "tok"}

func TestLoginSendsCredentials(t *testing.T) {
	client, fake := newTestClient(t)
	fake.respond(http.StatusOK, `{"Success":true,"User":"Alice","Token":"abc","Score":10}`)

	auth, err := client.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)

	assert.Equal(t, model.UserAuth{Username: "Alice", Token: "abc"}, auth)
	form := fake.lastForm()
	assert.Equal(t, "login2", form.Get("r"))
	assert.Equal(t, "alice", form.Get("u"))
	assert.Equal(t, "secret", form.Get("p"))
	assert.Equal(t, "rasync/1.2.3", fake.agent)
}

func TestLoginRejected(t *testing.T) {
	client, fake := newTestClient(t)
	fake.respond(http.StatusUnauthorized, `{"Success":false,"Error":"Invalid User/Password combination. Please try again","Code":"invalid_credentials"}`)

	_, err := client.Login(context.Background(), "alice", "wrong")

	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrAuthRejected)
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, "invalid_credentials", reqErr.Code)
}

func TestServerErrorIsNetworkError(t *testing.T) {
	client, fake := newTestClient(t)
	fake.respond(http.StatusBadGateway, `<html>bad gateway</html>`)

	_, err := client.FetchHashLibrary(context.Background())

	assert.ErrorIs(t, err, model.ErrNetwork)
}

func TestUnreachableServerIsNetworkError(t *testing.T) {
	client := New(Config{BaseURL: "http://127.0.0.1:1/dorequest.php", Timeout: time.Second}, testutil.NopLogger())

	_, err := client.FetchHashLibrary(context.Background())

	assert.ErrorIs(t, err, model.ErrNetwork)
}

func TestMalformedResponseIsInvalidResponse(t *testing.T) {
	client, fake := newTestClient(t)
	fake.respond(http.StatusOK, `not json`)

	_, err := client.FetchHashLibrary(context.Background())

	assert.ErrorIs(t, err, model.ErrInvalidResponse)
}

func TestFetchHashLibraryLowercasesHashes(t *testing.T) {
	client, fake := newTestClient(t)
	fake.respond(http.StatusOK, `{"Success":true,"MD5List":{"ABCDEF":10,"123456":11}}`)

	library, err := client.FetchHashLibrary(context.Background())
	require.NoError(t, err)

	assert.Equal(t, map[string]model.GameID{"abcdef": 10, "123456": 11}, library)
	assert.Equal(t, "hashlibrary", fake.lastForm().Get("r"))
}

func TestFetchAchievementSetsMapsDefinitions(t *testing.T) {
	client, fake := newTestClient(t)
	fake.respond(http.StatusOK, `{
		"Success": true,
		"GameId": 10,
		"Title": "Sonic",
		"ImageIconUrl": "https://media/10.png",
		"RichPresencePatch": "Display:\nPlaying",
		"Sets": [
			{
				"AchievementSetId": 1,
				"Title": null,
				"Type": "core",
				"ImageIconUrl": "https://media/set1.png",
				"Achievements": [
					{"ID": 100, "MemAddr": "0xH1234=1", "Title": "Rings", "Description": "Get rings", "Points": 5, "BadgeURL": "u.png", "BadgeLockedURL": "l.png", "Flags": 3, "Type": "progression"},
					{"ID": 101, "MemAddr": "0xH1235=1", "Title": "Draft", "Points": 0, "Flags": 5}
				],
				"Leaderboards": [
					{"ID": 7, "Mem": "STA:0xH1=1", "Format": "SCORE", "LowerIsBetter": true, "Title": "Speedrun", "Hidden": false}
				]
			},
			{"AchievementSetId": 2, "GameId": 20, "Type": "bonus", "Achievements": [], "Leaderboards": []}
		]
	}`)

	game, err := client.FetchAchievementSets(context.Background(), 10, alice)
	require.NoError(t, err)

	form := fake.lastForm()
	assert.Equal(t, "achievementsets", form.Get("r"))
	assert.Equal(t, "10", form.Get("g"))
	assert.Equal(t, "tok", form.Get("t"))

	assert.Equal(t, model.GameID(10), game.ID)
	assert.Equal(t, "Display:\nPlaying", game.RichPresencePatch)
	require.Len(t, game.Sets, 2)

	core := game.Sets[0]
	assert.Equal(t, model.SetTypeCore, core.Type)
	assert.Equal(t, model.GameID(10), core.GameID)
	require.Len(t, core.Achievements, 2)
	assert.Equal(t, model.AchievementTypeProgression, core.Achievements[0].Type)
	assert.Equal(t, model.AchievementTypeUnofficial, core.Achievements[1].Type)
	assert.Equal(t, model.SetID(1), core.Achievements[0].SetID)
	assert.Equal(t, 1, core.Achievements[1].DisplayOrder)
	require.Len(t, core.Leaderboards, 1)
	assert.True(t, core.Leaderboards[0].LowerIsBetter)

	assert.Equal(t, model.SetTypeBonus, game.Sets[1].Type)
	assert.Equal(t, model.GameID(20), game.Sets[1].GameID)
}

func TestFetchAchievementSetsRejectsUnknownSetType(t *testing.T) {
	client, fake := newTestClient(t)
	fake.respond(http.StatusOK, `{"Success":true,"GameId":10,"Sets":[{"AchievementSetId":1,"Type":"mystery"}]}`)

	_, err := client.FetchAchievementSets(context.Background(), 10, alice)

	assert.ErrorIs(t, err, model.ErrInvalidResponse)
}

func TestFetchUserUnlocks(t *testing.T) {
	client, fake := newTestClient(t)
	fake.respond(http.StatusOK, `{"Success":true,"UserUnlocks":[100,102],"GameID":10,"HardcoreMode":true}`)

	ids, err := client.FetchUserUnlocks(context.Background(), 10, alice, true)
	require.NoError(t, err)

	assert.Equal(t, []model.AchievementID{100, 102}, ids)
	assert.Equal(t, "1", fake.lastForm().Get("h"))
}

func TestSubmitUnlockAwarded(t *testing.T) {
	client, fake := newTestClient(t)
	fake.respond(http.StatusOK, `{"Success":true,"Score":120,"AchievementID":42,"AchievementsRemaining":0}`)

	resp, err := client.SubmitUnlock(context.Background(), alice, 42, false, "sig")
	require.NoError(t, err)

	assert.True(t, resp.AchievementAwarded)
	assert.Equal(t, 0, resp.RemainingAchievements)
	assert.True(t, resp.SetMastered())

	form := fake.lastForm()
	assert.Equal(t, "awardachievement", form.Get("r"))
	assert.Equal(t, "42", form.Get("a"))
	assert.Equal(t, "0", form.Get("h"))
	assert.Equal(t, "sig", form.Get("v"))
}

func TestSubmitUnlockAlreadyAwardedIsSuccess(t *testing.T) {
	client, fake := newTestClient(t)
	fake.respond(http.StatusOK, `{"Success":false,"Error":"User already has this achievement unlocked in hardcore mode."}`)

	resp, err := client.SubmitUnlock(context.Background(), alice, 42, true, "sig")
	require.NoError(t, err)

	assert.False(t, resp.AchievementAwarded)
	assert.False(t, resp.SetMastered())
}

func TestSubmitUnlockExpiredToken(t *testing.T) {
	client, fake := newTestClient(t)
	fake.respond(http.StatusForbidden, `{"Success":false,"Error":"Token expired","Code":"expired_token"}`)

	_, err := client.SubmitUnlock(context.Background(), alice, 42, true, "sig")

	assert.ErrorIs(t, err, model.ErrAuthRejected)
}

func TestSubmitLeaderboardEntry(t *testing.T) {
	client, fake := newTestClient(t)
	fake.respond(http.StatusOK, `{"Success":true,"Response":{"Score":4500,"ScoreFormatted":"4,500","BestScore":5000,"RankInfo":{"NumEntries":30,"Rank":4},"LBData":{"LeaderboardID":7}}}`)

	resp, err := client.SubmitLeaderboardEntry(context.Background(), alice, 7, 4500, "sig")
	require.NoError(t, err)

	assert.Equal(t, model.LeaderboardEntryResponse{Rank: 4, NumEntries: 30, Score: 4500, BestScore: 5000, FormattedScore: "4,500"}, resp)
	form := fake.lastForm()
	assert.Equal(t, "submitlbentry", form.Get("r"))
	assert.Equal(t, "7", form.Get("i"))
	assert.Equal(t, "4500", form.Get("s"))
}

func TestStartSessionAndPing(t *testing.T) {
	client, fake := newTestClient(t)
	fake.respond(http.StatusOK, `{"Success":true}`)

	require.NoError(t, client.StartSession(context.Background(), alice, 10))
	form := fake.lastForm()
	assert.Equal(t, "postactivity", form.Get("r"))
	assert.Equal(t, "3", form.Get("a"))
	assert.Equal(t, "10", form.Get("m"))

	require.NoError(t, client.Ping(context.Background(), alice, 10, "Green Hill Zone"))
	form = fake.lastForm()
	assert.Equal(t, "ping", form.Get("r"))
	assert.Equal(t, "Green Hill Zone", form.Get("m"))
}

func TestCanceledContextIsReturned(t *testing.T) {
	client, fake := newTestClient(t)
	fake.respond(http.StatusOK, `{"Success":true}`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.Ping(ctx, alice, 10, "")

	assert.ErrorIs(t, err, context.Canceled)
}
