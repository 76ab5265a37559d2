package services

import (
	"math"

	"github.com/Dosada05/volley-tournament/models"
)

const (
	eloScale             = 400.0
	ratingPointsPerScore = 20
	minPredictedScore    = 15
	closeMatchMargin     = 0.1
)

// ExpectedScore is the Elo win probability of a side rated ra against rb.
func ExpectedScore(ra, rb float64) float64 {
	return 1 / (1 + math.Pow(10, (rb-ra)/eloScale))
}

// PredictMatch gives an advisory forecast for two sides. baseline is the
// target score of the format.
func PredictMatch(a, b *models.Team, baseline int) models.MatchPrediction {
	ra, rb := a.TeamRating, b.TeamRating
	p1 := ExpectedScore(float64(ra), float64(rb))

	diff := ra - rb
	if diff < 0 {
		diff = -diff
	}

	floor := minPredictedScore
	if floor >= baseline {
		floor = baseline * 3 / 5
	}
	underdog := baseline - diff/ratingPointsPerScore
	if underdog < floor {
		underdog = floor
	}

	prediction := models.MatchPrediction{
		WinProbability1: p1,
		WinProbability2: 1 - p1,
		PredictedScore1: baseline,
		PredictedScore2: baseline,
		RatingDiff:      ra - rb,
		IsCloseMatch:    math.Abs(p1-0.5) < closeMatchMargin,
	}
	switch {
	case ra > rb:
		prediction.FavoredSide = 1
		prediction.PredictedScore2 = underdog
	case rb > ra:
		prediction.FavoredSide = 2
		prediction.PredictedScore1 = underdog
	}
	prediction.ExpectedScoreDiff = prediction.PredictedScore1 - prediction.PredictedScore2
	return prediction
}
