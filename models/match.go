package models

import "time"

type MatchStatus string

const (
	MatchStatusUpcoming MatchStatus = "upcoming"
	MatchStatusFinished MatchStatus = "finished"
)

// ScoringStatus is the state of the live scorer for the current round.
type ScoringStatus string

const (
	ScoringInProgress ScoringStatus = "in_progress"
	ScoringFinished   ScoringStatus = "finished"
)

type Match struct {
	Round     int         `json:"round" db:"round"`
	Teams     [2]*Team    `json:"teams" db:"-"`
	Score1    int         `json:"score1" db:"score1"`
	Score2    int         `json:"score2" db:"score2"`
	Points1   int         `json:"points1" db:"points1"`
	Points2   int         `json:"points2" db:"points2"`
	SetsWon1  int         `json:"sets_won1" db:"sets_won1"`
	SetsWon2  int         `json:"sets_won2" db:"sets_won2"`
	Status    MatchStatus `json:"status" db:"status"`
	Forced    bool        `json:"forced,omitempty" db:"forced"` // завершён вручную
	Timestamp *time.Time  `json:"timestamp,omitempty" db:"timestamp"`
}

// Winner returns 1 or 2 for the winning side and 0 for a draw or an
// unplayed match.
func (m *Match) Winner() int {
	if m == nil || m.Status != MatchStatusFinished {
		return 0
	}
	switch {
	case m.Score1 > m.Score2:
		return 1
	case m.Score2 > m.Score1:
		return 2
	default:
		return 0
	}
}

// LiveMatch is the persisted snapshot of the scorer for the round being played.
type LiveMatch struct {
	Round      int           `json:"round"`
	Score1     int           `json:"score1"`
	Score2     int           `json:"score2"`
	Status     ScoringStatus `json:"status"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}

type MatchPrediction struct {
	WinProbability1   float64 `json:"win_probability1"`
	WinProbability2   float64 `json:"win_probability2"`
	PredictedScore1   int     `json:"predicted_score1"`
	PredictedScore2   int     `json:"predicted_score2"`
	FavoredSide       int     `json:"favored_side"`
	RatingDiff        int     `json:"rating_diff"`
	ExpectedScoreDiff int     `json:"expected_score_diff"`
	IsCloseMatch      bool    `json:"is_close_match"`
}
