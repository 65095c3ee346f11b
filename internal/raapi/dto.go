package raapi

import (
	"fmt"

	"github.com/mcoot/rasync/internal/model"
)

// Achievement flag values used by the service
const (
	flagOfficial   = 3
	flagUnofficial = 5
)

type loginResponse struct {
	User  string `json:"User"`
	Token string `json:"Token"`
}

type hashLibraryResponse struct {
	MD5List map[string]int64 `json:"MD5List"`
}

type unlocksResponse struct {
	UserUnlocks []int64 `json:"UserUnlocks"`
}

type awardAchievementResponse struct {
	Score                 int   `json:"Score"`
	AchievementID         int64 `json:"AchievementID"`
	AchievementsRemaining *int  `json:"AchievementsRemaining"`
}

type submitLeaderboardEntryResponse struct {
	Response struct {
		Score          int    `json:"Score"`
		ScoreFormatted string `json:"ScoreFormatted"`
		BestScore      int    `json:"BestScore"`
		RankInfo       struct {
			NumEntries int `json:"NumEntries"`
			Rank       int `json:"Rank"`
		} `json:"RankInfo"`
	} `json:"Response"`
}

type achievementSetsResponse struct {
	GameID            int64                `json:"GameId"`
	Title             string               `json:"Title"`
	ImageIconURL      string               `json:"ImageIconUrl"`
	RichPresencePatch string               `json:"RichPresencePatch"`
	Sets              []achievementSetData `json:"Sets"`
}

type achievementSetData struct {
	AchievementSetID int64             `json:"AchievementSetId"`
	GameID           int64             `json:"GameId"`
	Title            string            `json:"Title"`
	Type             string            `json:"Type"`
	ImageIconURL     string            `json:"ImageIconUrl"`
	Achievements     []achievementData `json:"Achievements"`
	Leaderboards     []leaderboardData `json:"Leaderboards"`
}

type achievementData struct {
	ID             int64  `json:"ID"`
	MemAddr        string `json:"MemAddr"`
	Title          string `json:"Title"`
	Description    string `json:"Description"`
	Points         int    `json:"Points"`
	BadgeURL       string `json:"BadgeURL"`
	BadgeLockedURL string `json:"BadgeLockedURL"`
	Flags          int    `json:"Flags"`
	Type           string `json:"Type"`
}

type leaderboardData struct {
	ID            int64  `json:"ID"`
	Mem           string `json:"Mem"`
	Format        string `json:"Format"`
	LowerIsBetter bool   `json:"LowerIsBetter"`
	Title         string `json:"Title"`
	Description   string `json:"Description"`
	Hidden        bool   `json:"Hidden"`
}

func (r achievementSetsResponse) toModel() (*model.Game, error) {
	game := &model.Game{
		ID:                model.GameID(r.GameID),
		Title:             r.Title,
		IconURL:           r.ImageIconURL,
		RichPresencePatch: r.RichPresencePatch,
		Sets:              make([]model.AchievementSet, 0, len(r.Sets)),
	}

	for _, s := range r.Sets {
		setType, ok := model.ParseSetType(s.Type)
		if !ok {
			return nil, fmt.Errorf("%w: unknown achievement set type %q", model.ErrInvalidResponse, s.Type)
		}

		gameID := model.GameID(s.GameID)
		if gameID == 0 {
			gameID = game.ID
		}
		setID := model.SetID(s.AchievementSetID)

		set := model.AchievementSet{
			ID:           setID,
			GameID:       gameID,
			Title:        s.Title,
			Type:         setType,
			IconURL:      s.ImageIconURL,
			Achievements: make([]model.Achievement, 0, len(s.Achievements)),
			Leaderboards: make([]model.Leaderboard, 0, len(s.Leaderboards)),
		}

		for i, a := range s.Achievements {
			set.Achievements = append(set.Achievements, model.Achievement{
				ID:               model.AchievementID(a.ID),
				SetID:            setID,
				GameID:           gameID,
				Title:            a.Title,
				Description:      a.Description,
				Points:           a.Points,
				DisplayOrder:     i,
				BadgeURLUnlocked: a.BadgeURL,
				BadgeURLLocked:   a.BadgeLockedURL,
				MemoryAddress:    a.MemAddr,
				Type:             achievementType(a),
			})
		}

		for _, l := range s.Leaderboards {
			set.Leaderboards = append(set.Leaderboards, model.Leaderboard{
				ID:            model.LeaderboardID(l.ID),
				GameID:        gameID,
				Mem:           l.Mem,
				Format:        l.Format,
				LowerIsBetter: l.LowerIsBetter,
				Title:         l.Title,
				Description:   l.Description,
				Hidden:        l.Hidden,
			})
		}

		game.Sets = append(game.Sets, set)
	}

	return game, nil
}

func achievementType(a achievementData) model.AchievementType {
	if a.Flags == flagUnofficial {
		return model.AchievementTypeUnofficial
	}
	switch a.Type {
	case "progression":
		return model.AchievementTypeProgression
	case "win_condition":
		return model.AchievementTypeWinCondition
	default:
		return model.AchievementTypeCore
	}
}
