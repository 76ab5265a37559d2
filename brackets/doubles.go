package brackets

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/Dosada05/volley-tournament/models"
	"github.com/Dosada05/volley-tournament/utils"
)

const (
	doublesPerSide         = 3
	defaultDoublesTarget   = 10
	doublesPlayingPerRound = doublesPerSide * 2
)

// DoublesGenerator rotates doubles greedily: each round the six teams with
// the fewest games so far are shuffled and split three against three.
type DoublesGenerator struct {
	rng *rand.Rand
}

func NewDoublesGenerator(rng *rand.Rand) ScheduleGenerator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &DoublesGenerator{rng: rng}
}

func (g *DoublesGenerator) GetName() string {
	return "Doubles"
}

func (g *DoublesGenerator) GenerateSchedule(ctx context.Context, params GenerateScheduleParams) ([]*models.ScheduleEntry, error) {
	teams := params.Teams
	if len(teams) < 2 {
		return nil, fmt.Errorf("DoublesGenerator: %w (found %d)", ErrNotEnoughTeams, len(teams))
	}
	if len(teams) < doublesPlayingPerRound {
		return fallbackSchedule(g.GetName(), params, ErrInsufficientTeamsForFormat)
	}

	target := params.Settings.DoublesTargetGames
	if target <= 0 {
		target = defaultDoublesTarget
	}
	maxRounds := utils.CeilDiv(target*len(teams), doublesPlayingPerRound)

	games := make([]int, len(teams))
	schedule := make([]*models.ScheduleEntry, 0, maxRounds)

	for round := 1; round <= maxRounds && !allReached(games, target); round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		order := make([]int, len(teams))
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return games[order[a]] < games[order[b]]
		})

		picked := append([]int(nil), order[:doublesPlayingPerRound]...)
		utils.Shuffle(g.rng, picked)

		sides := [2][]*models.Team{}
		for pos, idx := range picked {
			sides[pos/doublesPerSide] = append(sides[pos/doublesPerSide], teams[idx])
			games[idx]++
		}

		resting := append([]int(nil), order[doublesPlayingPerRound:]...)
		sort.Ints(resting)
		restingTeams := make([]*models.Team, 0, len(resting))
		for _, idx := range resting {
			restingTeams = append(restingTeams, teams[idx].Clone())
		}

		schedule = append(schedule, &models.ScheduleEntry{
			Round:     round,
			GameTeams: [2]*models.Team{models.NewCompositeTeam(sides[0]...), models.NewCompositeTeam(sides[1]...)},
			Resting:   restingTeams,
		})
	}

	return schedule, nil
}

func allReached(games []int, target int) bool {
	for _, g := range games {
		if g < target {
			return false
		}
	}
	return true
}
