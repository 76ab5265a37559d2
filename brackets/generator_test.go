package brackets

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/volley-tournament/models"
)

func makeTeams(count, size int) []*models.Team {
	teams := make([]*models.Team, 0, count)
	player := 0
	for i := 0; i < count; i++ {
		players := make([]string, 0, size)
		for j := 0; j < size; j++ {
			player++
			players = append(players, fmt.Sprintf("p%02d", player))
		}
		teams = append(teams, models.NewAtomicTeam(fmt.Sprintf("T%d", i+1), players, models.DefaultRating))
	}
	return teams
}

func TestNewScheduleGenerator(t *testing.T) {
	tests := []struct {
		format models.Format
		name   string
	}{
		{models.FormatFull, "Full"},
		{models.FormatTriples, "Triples"},
		{models.FormatDoubles, "Doubles"},
	}
	for _, tt := range tests {
		g, err := NewScheduleGenerator(tt.format, rand.New(rand.NewPCG(1, 2)))
		require.NoError(t, err)
		assert.Equal(t, tt.name, g.GetName())
	}

	_, err := NewScheduleGenerator(models.Format("quads"), nil)
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestFullGenerator(t *testing.T) {
	teams := makeTeams(2, 6)
	schedule, err := NewFullGenerator().GenerateSchedule(context.Background(), GenerateScheduleParams{
		Format:   models.FormatFull,
		Teams:    teams,
		Settings: models.DefaultTournamentSettings(),
	})
	require.NoError(t, err)
	require.Len(t, schedule, 7)

	for i, entry := range schedule {
		assert.Equal(t, i+1, entry.Round)
		assert.Equal(t, "T1", entry.GameTeams[0].Name)
		assert.Equal(t, "T2", entry.GameTeams[1].Name)
		assert.Empty(t, entry.Resting)
	}

	// записи не должны разделять указатели
	schedule[0].GameTeams[0].Players[0] = "changed"
	assert.Equal(t, "p01", schedule[1].GameTeams[0].Players[0])
}

func TestFullGeneratorRoundsFromSettings(t *testing.T) {
	settings := models.DefaultTournamentSettings()
	settings.FullFormatRounds = 3
	schedule, err := NewFullGenerator().GenerateSchedule(context.Background(), GenerateScheduleParams{
		Teams:    makeTeams(2, 5),
		Settings: settings,
	})
	require.NoError(t, err)
	assert.Len(t, schedule, 3)
}

func TestFullGeneratorNeedsTwoTeams(t *testing.T) {
	_, err := NewFullGenerator().GenerateSchedule(context.Background(), GenerateScheduleParams{Teams: makeTeams(1, 8)})
	assert.ErrorIs(t, err, ErrNotEnoughTeams)
}

func TestTriplesGeneratorSixTeams(t *testing.T) {
	teams := makeTeams(6, 3)
	schedule, err := NewTriplesGenerator().GenerateSchedule(context.Background(), GenerateScheduleParams{
		Format:   models.FormatTriples,
		Teams:    teams,
		Settings: models.DefaultTournamentSettings(),
	})
	require.NoError(t, err)
	require.Len(t, schedule, 15)

	seen := map[string]bool{}
	for i, entry := range schedule {
		assert.Equal(t, i+1, entry.Round)
		assert.Len(t, entry.Resting, 2)

		names := map[string]bool{}
		for _, side := range entry.GameTeams {
			require.True(t, side.IsComposite())
			require.Len(t, side.Constituents, 2)
			assert.Len(t, side.Players, 6)
			for _, c := range side.Constituents {
				names[c.Name] = true
			}
		}
		assert.Len(t, names, 4, "round %d must involve four distinct triples", entry.Round)
		for _, r := range entry.Resting {
			assert.False(t, names[r.Name], "resting team %s also plays in round %d", r.Name, entry.Round)
		}

		key := entry.GameTeams[0].Name + "|" + entry.GameTeams[1].Name
		assert.False(t, seen[key], "duplicate combination %s", key)
		seen[key] = true
	}

	assert.Equal(t, "T1 + T2", schedule[0].GameTeams[0].Name)
	assert.Equal(t, "T3 + T4", schedule[0].GameTeams[1].Name)
	assert.Equal(t, "T3 + T4", schedule[14].GameTeams[0].Name)
	assert.Equal(t, "T5 + T6", schedule[14].GameTeams[1].Name)
}

func TestTriplesGeneratorFiveTeams(t *testing.T) {
	schedule, err := NewTriplesGenerator().GenerateSchedule(context.Background(), GenerateScheduleParams{
		Teams:    makeTeams(5, 3),
		Settings: models.DefaultTournamentSettings(),
	})
	require.NoError(t, err)
	require.Len(t, schedule, 5)
	for _, entry := range schedule {
		assert.Len(t, entry.Resting, 1)
	}
}

func TestTriplesGeneratorFallsBackWhenTooFewTeams(t *testing.T) {
	schedule, err := NewTriplesGenerator().GenerateSchedule(context.Background(), GenerateScheduleParams{
		Teams:    makeTeams(3, 3),
		Settings: models.DefaultTournamentSettings(),
	})
	require.NoError(t, err)
	require.Len(t, schedule, 7)
	for _, entry := range schedule {
		assert.Empty(t, entry.Resting)
		assert.Equal(t, "T1 + T2", entry.GameTeams[0].Name)
		assert.Equal(t, "T3", entry.GameTeams[1].Name)
	}
}

func TestDoublesGeneratorEightTeams(t *testing.T) {
	teams := makeTeams(8, 2)
	g := NewDoublesGenerator(rand.New(rand.NewPCG(42, 7)))
	schedule, err := g.GenerateSchedule(context.Background(), GenerateScheduleParams{
		Format:   models.FormatDoubles,
		Teams:    teams,
		Settings: models.DefaultTournamentSettings(),
	})
	require.NoError(t, err)
	// ceil(10*8/6) = 14
	require.Len(t, schedule, 14)

	games := map[string]int{}
	for _, entry := range schedule {
		playing := map[string]bool{}
		for _, side := range entry.GameTeams {
			require.Len(t, side.Constituents, 3)
			for _, c := range side.Constituents {
				assert.False(t, playing[c.Name])
				playing[c.Name] = true
				games[c.Name]++
			}
		}
		assert.Len(t, entry.Resting, 2)
		for _, r := range entry.Resting {
			assert.False(t, playing[r.Name])
		}
	}

	minGames, maxGames := 1<<30, 0
	for _, team := range teams {
		n := games[team.Name]
		minGames = min(minGames, n)
		maxGames = max(maxGames, n)
	}
	assert.GreaterOrEqual(t, minGames, 10)
	assert.LessOrEqual(t, maxGames-minGames, 1)
}

func TestDoublesGeneratorTargetFromSettings(t *testing.T) {
	settings := models.DefaultTournamentSettings()
	settings.DoublesTargetGames = 3
	schedule, err := NewDoublesGenerator(rand.New(rand.NewPCG(3, 3))).GenerateSchedule(context.Background(), GenerateScheduleParams{
		Teams:    makeTeams(8, 2),
		Settings: settings,
	})
	require.NoError(t, err)
	assert.Len(t, schedule, 4)
}

func TestDoublesGeneratorFallsBackWhenTooFewTeams(t *testing.T) {
	schedule, err := NewDoublesGenerator(nil).GenerateSchedule(context.Background(), GenerateScheduleParams{
		Teams:    makeTeams(4, 2),
		Settings: models.DefaultTournamentSettings(),
	})
	require.NoError(t, err)
	require.Len(t, schedule, 7)
	for _, entry := range schedule {
		assert.Empty(t, entry.Resting)
		assert.Len(t, entry.GameTeams[0].Players, 4)
		assert.Len(t, entry.GameTeams[1].Players, 4)
	}
}

func TestGeneratorHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTriplesGenerator().GenerateSchedule(ctx, GenerateScheduleParams{Teams: makeTeams(6, 3)})
	assert.ErrorIs(t, err, context.Canceled)
}
