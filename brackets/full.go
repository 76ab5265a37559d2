package brackets

import (
	"context"
	"fmt"

	"github.com/Dosada05/volley-tournament/models"
)

type FullGenerator struct{}

func NewFullGenerator() ScheduleGenerator {
	return &FullGenerator{}
}

func (g *FullGenerator) GetName() string {
	return "Full"
}

// GenerateSchedule returns the same two teams facing each other every round.
func (g *FullGenerator) GenerateSchedule(ctx context.Context, params GenerateScheduleParams) ([]*models.ScheduleEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(params.Teams) < 2 {
		return nil, fmt.Errorf("FullGenerator: %w (found %d)", ErrNotEnoughTeams, len(params.Teams))
	}
	return everyonePlays(params.Teams, fullFormatRounds(params.Settings))
}
