package models

type MaxScoreRounds struct {
	Full    int `json:"full"`
	Triples int `json:"triples"`
	Doubles int `json:"doubles"`
}

type TournamentSettings struct {
	MaxScoreRounds            MaxScoreRounds `json:"max_score_rounds"`
	MinPointDifference        int            `json:"min_point_difference"`
	RoundDuration             int            `json:"round_duration"` // минуты
	UseBalancing              bool           `json:"use_balancing"`
	PointsForWin              int            `json:"points_for_win"`
	PointsForLoseGood         int            `json:"points_for_lose_good"`
	PointsForLoseBad          int            `json:"points_for_lose_bad"`
	UseSetBasedScoringForFull bool           `json:"use_set_based_scoring_for_full"`
	FullFormatRounds          int            `json:"full_format_rounds"`
	DoublesTargetGames        int            `json:"doubles_target_games"`
	ShowTeamRatings           bool           `json:"show_team_ratings"`
	ShowPredictions           bool           `json:"show_predictions"`
	UseTotalPointsForTie      bool           `json:"use_total_points_for_tie"`
}

func DefaultTournamentSettings() TournamentSettings {
	return TournamentSettings{
		MaxScoreRounds:       MaxScoreRounds{Full: 25, Triples: 15, Doubles: 25},
		MinPointDifference:   2,
		RoundDuration:        10,
		UseBalancing:         true,
		PointsForWin:         3,
		PointsForLoseGood:    2,
		PointsForLoseBad:     1,
		FullFormatRounds:     7,
		DoublesTargetGames:   10,
		ShowTeamRatings:      true,
		ShowPredictions:      true,
		UseTotalPointsForTie: true,
	}
}

// MaxScoreFor returns the target score of a game in the given format.
func (s TournamentSettings) MaxScoreFor(f Format) int {
	switch f {
	case FormatTriples:
		return s.MaxScoreRounds.Triples
	case FormatDoubles:
		return s.MaxScoreRounds.Doubles
	default:
		return s.MaxScoreRounds.Full
	}
}
