package services

import (
	"sort"

	"github.com/Dosada05/volley-tournament/models"
)

// NewStandings returns zeroed rows for the atomic teams, in team order.
func NewStandings(teams []*models.Team) []models.StandingsRow {
	rows := make([]models.StandingsRow, len(teams))
	for i, t := range teams {
		rows[i] = models.StandingsRow{Name: t.Name}
	}
	return rows
}

// ApplyMatch folds one finished match into the standings and returns a new
// slice. A row is credited when its team is one of the sides directly or one
// of a side's constituents. Applying the same match twice counts it twice:
// callers must apply every finished match exactly once.
func ApplyMatch(standings []models.StandingsRow, match *models.Match) []models.StandingsRow {
	updated := append([]models.StandingsRow(nil), standings...)
	if match == nil || match.Status != models.MatchStatusFinished {
		return updated
	}

	for i := range updated {
		row := &updated[i]
		switch {
		case match.Teams[0].Represents(row.Name):
			credit(row, match.Score1, match.Score2, match.Points1, match.SetsWon1, match.SetsWon2)
		case match.Teams[1].Represents(row.Name):
			credit(row, match.Score2, match.Score1, match.Points2, match.SetsWon2, match.SetsWon1)
		}
	}
	return updated
}

func credit(row *models.StandingsRow, own, other, points, setsWon, setsLost int) {
	row.Points += points
	row.ScoreDiff += own - other
	row.GamesPlayed++
	row.SetsWon += setsWon
	row.SetsLost += setsLost
	switch {
	case own > other:
		row.Wins++
	case own < other:
		row.Losses++
	}
}

// RankStandings orders rows by points. Ties are broken by score difference
// when useScoreDiffForTie is set, then by wins and name.
func RankStandings(rows []models.StandingsRow, useScoreDiffForTie bool) []models.StandingsRow {
	ranked := append([]models.StandingsRow(nil), rows...)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if useScoreDiffForTie && a.ScoreDiff != b.ScoreDiff {
			return a.ScoreDiff > b.ScoreDiff
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		return a.Name < b.Name
	})
	return ranked
}
