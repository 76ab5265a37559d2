package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/volley-tournament/models"
)

// TriplesGenerator plays every combination of four triples once: the first
// two of a combination form one side, the last two the other.
type TriplesGenerator struct{}

func NewTriplesGenerator() ScheduleGenerator {
	return &TriplesGenerator{}
}

func (g *TriplesGenerator) GetName() string {
	return "Triples"
}

func (g *TriplesGenerator) GenerateSchedule(ctx context.Context, params GenerateScheduleParams) ([]*models.ScheduleEntry, error) {
	teams := params.Teams
	if len(teams) < 2 {
		return nil, fmt.Errorf("TriplesGenerator: %w (found %d)", ErrNotEnoughTeams, len(teams))
	}
	if len(teams) < 4 {
		return fallbackSchedule(g.GetName(), params, ErrInsufficientTeamsForFormat)
	}

	schedule := make([]*models.ScheduleEntry, 0)
	round := 0
	n := len(teams)

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				for l := k + 1; l < n; l++ {
					if err := ctx.Err(); err != nil {
						return nil, err
					}
					round++

					resting := make([]*models.Team, 0, n-4)
					for idx, t := range teams {
						if idx != i && idx != j && idx != k && idx != l {
							resting = append(resting, t.Clone())
						}
					}

					schedule = append(schedule, &models.ScheduleEntry{
						Round: round,
						GameTeams: [2]*models.Team{
							models.NewCompositeTeam(teams[i], teams[j]),
							models.NewCompositeTeam(teams[k], teams[l]),
						},
						Resting: resting,
					})
				}
			}
		}
	}

	return schedule, nil
}
