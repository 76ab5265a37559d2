package brackets

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"

	"github.com/Dosada05/volley-tournament/models"
)

const defaultFullFormatRounds = 7

var (
	// ErrInsufficientTeamsForFormat is handled inside the generators: they
	// fall back to a schedule where every team plays every round.
	ErrInsufficientTeamsForFormat = errors.New("not enough teams for the selected format")
	ErrNotEnoughTeams             = errors.New("at least two teams are required to build a schedule")
	ErrUnknownFormat              = errors.New("unknown tournament format")
)

type GenerateScheduleParams struct {
	Format   models.Format
	Teams    []*models.Team
	Settings models.TournamentSettings
}

type ScheduleGenerator interface {
	GenerateSchedule(ctx context.Context, params GenerateScheduleParams) ([]*models.ScheduleEntry, error)

	GetName() string
}

// NewScheduleGenerator picks the generator for a format. rng is only used by
// formats with random pairings and is not safe for concurrent use.
func NewScheduleGenerator(format models.Format, rng *rand.Rand) (ScheduleGenerator, error) {
	switch format {
	case models.FormatFull:
		return NewFullGenerator(), nil
	case models.FormatTriples:
		return NewTriplesGenerator(), nil
	case models.FormatDoubles:
		return NewDoublesGenerator(rng), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func fullFormatRounds(settings models.TournamentSettings) int {
	if settings.FullFormatRounds > 0 {
		return settings.FullFormatRounds
	}
	return defaultFullFormatRounds
}

// sideOf turns a group of atomic teams into one playing side.
func sideOf(teams []*models.Team) *models.Team {
	if len(teams) == 1 {
		return teams[0].Clone()
	}
	return models.NewCompositeTeam(teams...)
}

func cloneTeams(teams []*models.Team) []*models.Team {
	clones := make([]*models.Team, len(teams))
	for i, t := range teams {
		clones[i] = t.Clone()
	}
	return clones
}

// everyonePlays splits the teams into two halves that meet every round.
func everyonePlays(teams []*models.Team, rounds int) ([]*models.ScheduleEntry, error) {
	if len(teams) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrNotEnoughTeams, len(teams))
	}
	mid := (len(teams) + 1) / 2
	sideA := sideOf(teams[:mid])
	sideB := sideOf(teams[mid:])

	schedule := make([]*models.ScheduleEntry, 0, rounds)
	for round := 1; round <= rounds; round++ {
		schedule = append(schedule, &models.ScheduleEntry{
			Round:     round,
			GameTeams: [2]*models.Team{sideA.Clone(), sideB.Clone()},
			Resting:   []*models.Team{},
		})
	}
	return schedule, nil
}

func fallbackSchedule(name string, params GenerateScheduleParams, cause error) ([]*models.ScheduleEntry, error) {
	log.Printf("%s: %v (teams: %d), falling back to all-play schedule", name, cause, len(params.Teams))
	return everyonePlays(params.Teams, fullFormatRounds(params.Settings))
}
