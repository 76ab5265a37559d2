package models

type StandingsRow struct {
	Name        string `json:"name" db:"name"`
	Points      int    `json:"points" db:"points"`
	Wins        int    `json:"wins" db:"wins"`
	Losses      int    `json:"losses" db:"losses"`
	ScoreDiff   int    `json:"score_diff" db:"score_diff"`
	GamesPlayed int    `json:"games_played" db:"games_played"`
	SetsWon     int    `json:"sets_won" db:"sets_won"`
	SetsLost    int    `json:"sets_lost" db:"sets_lost"`
}
