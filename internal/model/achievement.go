package model

import "strconv"

// GameID identifies a game on the achievements service
type GameID int64

// SetID identifies an achievement set
type SetID int64

// AchievementID identifies an achievement
type AchievementID int64

// LeaderboardID identifies a leaderboard
type LeaderboardID int64

func (id GameID) String() string        { return strconv.FormatInt(int64(id), 10) }
func (id SetID) String() string         { return strconv.FormatInt(int64(id), 10) }
func (id AchievementID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id LeaderboardID) String() string { return strconv.FormatInt(int64(id), 10) }

// AchievementType classifies an achievement definition
type AchievementType string

const (
	AchievementTypeCore         AchievementType = "core"
	AchievementTypeUnofficial   AchievementType = "unofficial"
	AchievementTypeProgression  AchievementType = "progression"
	AchievementTypeWinCondition AchievementType = "win_condition"
)

// IsOfficial reports whether unlocks of this type count towards the user's progress
func (t AchievementType) IsOfficial() bool {
	return t != AchievementTypeUnofficial
}

// Achievement is an immutable achievement definition fetched from the server
type Achievement struct {
	ID               AchievementID   `json:"id"`
	SetID            SetID           `json:"set_id"`
	GameID           GameID          `json:"game_id"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Points           int             `json:"points"`
	DisplayOrder     int             `json:"display_order"`
	BadgeURLUnlocked string          `json:"badge_url_unlocked"`
	BadgeURLLocked   string          `json:"badge_url_locked"`
	MemoryAddress    string          `json:"memory_address"`
	Type             AchievementType `json:"type"`
}

// Leaderboard is an immutable leaderboard definition
type Leaderboard struct {
	ID            LeaderboardID `json:"id"`
	GameID        GameID        `json:"game_id"`
	Mem           string        `json:"mem"`
	Format        string        `json:"format"`
	LowerIsBetter bool          `json:"lower_is_better"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Hidden        bool          `json:"hidden"`
}

// SetType classifies an achievement set within a game
type SetType string

const (
	SetTypeCore      SetType = "core"
	SetTypeBonus     SetType = "bonus"
	SetTypeSpecialty SetType = "specialty"
	SetTypeExclusive SetType = "exclusive"
)

// ParseSetType converts the wire representation of a set type
func ParseSetType(s string) (SetType, bool) {
	switch SetType(s) {
	case SetTypeCore, SetTypeBonus, SetTypeSpecialty, SetTypeExclusive:
		return SetType(s), true
	default:
		return "", false
	}
}

// AchievementSet groups achievements and leaderboards of one set of a game
type AchievementSet struct {
	ID           SetID         `json:"id"`
	GameID       GameID        `json:"game_id"`
	Title        string        `json:"title,omitempty"`
	Type         SetType       `json:"type"`
	IconURL      string        `json:"icon_url"`
	Achievements []Achievement `json:"achievements"`
	Leaderboards []Leaderboard `json:"leaderboards"`
}

// Game holds every achievement set the server exposes for a game
type Game struct {
	ID                GameID           `json:"id"`
	Title             string           `json:"title"`
	IconURL           string           `json:"icon_url"`
	RichPresencePatch string           `json:"rich_presence_patch,omitempty"`
	Sets              []AchievementSet `json:"sets"`
}

// GameIdentifier names the running game either by service id or by ROM hash
type GameIdentifier struct {
	ID   GameID `json:"id,omitempty"`
	Hash string `json:"hash,omitempty"`
}

// IsZero reports whether neither id nor hash is set
func (g GameIdentifier) IsZero() bool {
	return g.ID == 0 && g.Hash == ""
}
