package models

import (
	"sort"
	"time"
)

const DefaultRating = 1000

type GameResult string

const (
	ResultWin  GameResult = "win"
	ResultLoss GameResult = "loss"
	ResultDraw GameResult = "draw"
)

type GameHistoryEntry struct {
	Date      time.Time  `json:"date"`
	Team      string     `json:"team"`
	Opponents string     `json:"opponents"`
	Score     string     `json:"score"` // "свои:чужие"
	Result    GameResult `json:"result"`
	Points    int        `json:"points"`
}

// RatingRecord is the persistent per-player aggregate, keyed by name.
type RatingRecord struct {
	Name        string             `json:"name" db:"name"`
	Rating      int                `json:"rating" db:"rating"`
	TotalGames  int                `json:"total_games" db:"total_games"`
	TotalWins   int                `json:"total_wins" db:"total_wins"`
	TotalPoints int                `json:"total_points" db:"total_points"`
	TotalScores int                `json:"total_scores" db:"total_scores"`
	LastActive  *time.Time         `json:"last_active,omitempty" db:"last_active"`
	GameHistory []GameHistoryEntry `json:"game_history" db:"game_history"`
	Teammates   map[string]int     `json:"teammates" db:"teammates"`
	Opponents   map[string]int     `json:"opponents" db:"opponents"`

	WinRate             float64  `json:"win_rate" db:"-"` // доля побед, 0..1
	AverageScorePerGame float64  `json:"average_score_per_game" db:"-"`
	UniqueTeammates     []string `json:"unique_teammates" db:"-"`
	UniqueOpponents     []string `json:"unique_opponents" db:"-"`
}

func NewRatingRecord(name string) *RatingRecord {
	return &RatingRecord{
		Name:        name,
		Rating:      DefaultRating,
		GameHistory: []GameHistoryEntry{},
		Teammates:   map[string]int{},
		Opponents:   map[string]int{},
	}
}

// RefreshDerived recomputes the fields that are never stored.
func (r *RatingRecord) RefreshDerived() {
	r.WinRate = 0
	r.AverageScorePerGame = 0
	if r.TotalGames > 0 {
		r.WinRate = float64(r.TotalWins) / float64(r.TotalGames)
		r.AverageScorePerGame = float64(r.TotalScores) / float64(r.TotalGames)
	}
	r.UniqueTeammates = sortedKeys(r.Teammates)
	r.UniqueOpponents = sortedKeys(r.Opponents)
}

func (r *RatingRecord) Clone() *RatingRecord {
	if r == nil {
		return nil
	}
	clone := *r
	if r.LastActive != nil {
		t := *r.LastActive
		clone.LastActive = &t
	}
	clone.GameHistory = append([]GameHistoryEntry(nil), r.GameHistory...)
	clone.Teammates = make(map[string]int, len(r.Teammates))
	for k, v := range r.Teammates {
		clone.Teammates[k] = v
	}
	clone.Opponents = make(map[string]int, len(r.Opponents))
	for k, v := range r.Opponents {
		clone.Opponents[k] = v
	}
	clone.UniqueTeammates = append([]string(nil), r.UniqueTeammates...)
	clone.UniqueOpponents = append([]string(nil), r.UniqueOpponents...)
	return &clone
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
