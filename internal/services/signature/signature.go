package signature

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/mcoot/rasync/internal/model"
)

// Provider computes the verification hashes the achievements service
// expects alongside unlock and leaderboard submissions. The digest is MD5
// over an order-dependent concatenation and must match the server byte
// for byte; it authenticates content, not transport.
type Provider struct{}

// New creates a new signature Provider
func New() *Provider {
	return &Provider{}
}

// Achievement signs an unlock: id + username + ("1" | "0")
func (p *Provider) Achievement(id model.AchievementID, auth model.UserAuth, hardcoreMode bool) string {
	flag := "0"
	if hardcoreMode {
		flag = "1"
	}
	return digest(strconv.FormatInt(int64(id), 10), auth.Username, flag)
}

// Leaderboard signs a leaderboard entry: id + score + username
func (p *Provider) Leaderboard(id model.LeaderboardID, score int, auth model.UserAuth) string {
	return digest(strconv.FormatInt(int64(id), 10), strconv.Itoa(score), auth.Username)
}

func digest(parts ...string) string {
	sum := md5.Sum([]byte(strings.Join(parts, "")))
	// hex of a 16 byte digest is always 32 chars, zero-padded
	return hex.EncodeToString(sum[:])
}
