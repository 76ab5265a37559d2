package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/volley-tournament/models"
)

func finishedMatch(round int, a, b *models.Team, s1, s2, p1, p2 int) *models.Match {
	m := &models.Match{
		Round:   round,
		Teams:   [2]*models.Team{a, b},
		Score1:  s1,
		Score2:  s2,
		Points1: p1,
		Points2: p2,
		Status:  models.MatchStatusFinished,
	}
	if s1 > s2 {
		m.SetsWon1 = 1
	} else {
		m.SetsWon2 = 1
	}
	return m
}

func rowByName(t *testing.T, rows []models.StandingsRow, name string) models.StandingsRow {
	t.Helper()
	for _, r := range rows {
		if r.Name == name {
			return r
		}
	}
	require.Failf(t, "row not found", "no standings row %q", name)
	return models.StandingsRow{}
}

func TestApplyMatchAtomicTeams(t *testing.T) {
	a := models.NewAtomicTeam("Team 1", []string{"a"}, 1000)
	b := models.NewAtomicTeam("Team 2", []string{"b"}, 1000)
	rows := NewStandings([]*models.Team{a, b})

	updated := ApplyMatch(rows, finishedMatch(1, a, b, 25, 14, 3, 2))

	assert.Equal(t, models.StandingsRow{Name: "Team 1", Points: 3, Wins: 1, ScoreDiff: 11, GamesPlayed: 1, SetsWon: 1}, rowByName(t, updated, "Team 1"))
	assert.Equal(t, models.StandingsRow{Name: "Team 2", Points: 2, Losses: 1, ScoreDiff: -11, GamesPlayed: 1, SetsLost: 1}, rowByName(t, updated, "Team 2"))
	assert.Zero(t, rows[0].Points, "input slice is not modified")
}

func TestApplyMatchCreditsConstituents(t *testing.T) {
	teams := []*models.Team{
		models.NewAtomicTeam("Lightning", []string{"p1", "p2", "p3"}, 1000),
		models.NewAtomicTeam("Titans", []string{"p4", "p5", "p6"}, 1000),
		models.NewAtomicTeam("Fire", []string{"p7", "p8", "p9"}, 1000),
		models.NewAtomicTeam("Whirlwind", []string{"p10", "p11", "p12"}, 1000),
		models.NewAtomicTeam("Phoenix", []string{"p13", "p14", "p15"}, 1000),
	}
	side1 := models.NewCompositeTeam(teams[0], teams[1])
	side2 := models.NewCompositeTeam(teams[2], teams[3])

	rows := ApplyMatch(NewStandings(teams), finishedMatch(1, side1, side2, 13, 15, 2, 3))

	for _, name := range []string{"Lightning", "Titans"} {
		row := rowByName(t, rows, name)
		assert.Equal(t, 2, row.Points, name)
		assert.Equal(t, 1, row.Losses, name)
		assert.Equal(t, -2, row.ScoreDiff, name)
	}
	for _, name := range []string{"Fire", "Whirlwind"} {
		row := rowByName(t, rows, name)
		assert.Equal(t, 3, row.Points, name)
		assert.Equal(t, 1, row.Wins, name)
	}
	assert.Equal(t, models.StandingsRow{Name: "Phoenix"}, rowByName(t, rows, "Phoenix"))
}

func TestApplyMatchTwiceDoubleCounts(t *testing.T) {
	a := models.NewAtomicTeam("Team 1", []string{"a"}, 1000)
	b := models.NewAtomicTeam("Team 2", []string{"b"}, 1000)
	m := finishedMatch(1, a, b, 25, 9, 3, 1)

	once := ApplyMatch(NewStandings([]*models.Team{a, b}), m)
	twice := ApplyMatch(once, m)
	assert.Equal(t, 6, rowByName(t, twice, "Team 1").Points)
	assert.Equal(t, 2, rowByName(t, twice, "Team 1").GamesPlayed)
}

func TestApplyMatchIgnoresUnfinished(t *testing.T) {
	a := models.NewAtomicTeam("Team 1", []string{"a"}, 1000)
	b := models.NewAtomicTeam("Team 2", []string{"b"}, 1000)
	rows := NewStandings([]*models.Team{a, b})
	m := &models.Match{Round: 1, Teams: [2]*models.Team{a, b}, Status: models.MatchStatusUpcoming}
	assert.Equal(t, rows, ApplyMatch(rows, m))
}

func TestRankStandings(t *testing.T) {
	rows := []models.StandingsRow{
		{Name: "C", Points: 6, Wins: 2, ScoreDiff: 4},
		{Name: "A", Points: 6, Wins: 1, ScoreDiff: 10},
		{Name: "B", Points: 9, Wins: 3, ScoreDiff: -2},
		{Name: "D", Points: 6, Wins: 1, ScoreDiff: 10},
	}

	byDiff := RankStandings(rows, true)
	assert.Equal(t, []string{"B", "A", "D", "C"}, standingNames(byDiff))

	byWins := RankStandings(rows, false)
	assert.Equal(t, []string{"B", "C", "A", "D"}, standingNames(byWins))
	assert.Equal(t, "C", rows[0].Name)
}

func standingNames(rows []models.StandingsRow) []string {
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Name
	}
	return names
}
