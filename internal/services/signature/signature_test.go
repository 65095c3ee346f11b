package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/rasync/internal/model"
)

func TestAchievementSignatureKnownVector(t *testing.T) {
	p := New()
	auth := model.UserAuth{Username: "alice", Token: "ignored"}

	// md5("42alice0")
	assert.Equal(t, "4bea69ee6c17e37445430db19ecefe33", p.Achievement(42, auth, false))
	// md5("42alice1")
	assert.Equal(t, "e7f111a65db0d6387764d1c9e65aa84a", p.Achievement(42, auth, true))
}

func TestAchievementSignatureIsDeterministic(t *testing.T) {
	p := New()
	auth := model.UserAuth{Username: "alice"}

	first := p.Achievement(1001, auth, true)
	second := p.Achievement(1001, auth, true)

	assert.Equal(t, first, second)
	require.Len(t, first, 32)
	assert.Regexp(t, "^[0-9a-f]{32}$", first)
}

func TestAchievementSignatureDependsOnHardcoreFlag(t *testing.T) {
	p := New()
	auth := model.UserAuth{Username: "alice"}

	assert.NotEqual(t, p.Achievement(7, auth, true), p.Achievement(7, auth, false))
}

func TestAchievementSignatureIgnoresToken(t *testing.T) {
	p := New()

	a := p.Achievement(7, model.UserAuth{Username: "alice", Token: "one"}, false)
	b := p.Achievement(7, model.UserAuth{Username: "alice", Token: "two"}, false)

	assert.Equal(t, a, b)
}

func TestLeaderboardSignatureKnownVector(t *testing.T) {
	p := New()

	// md5("123" + "4500" + "bob")
	got := p.Leaderboard(123, 4500, model.UserAuth{Username: "bob"})
	assert.Equal(t, "d15882475317397604b374a2ccd78a94", got)
}

func TestLeaderboardSignatureDependsOnScore(t *testing.T) {
	p := New()
	auth := model.UserAuth{Username: "bob"}

	assert.NotEqual(t, p.Leaderboard(123, 4500, auth), p.Leaderboard(123, 4501, auth))
	assert.Len(t, p.Leaderboard(123, -1, auth), 32)
}
