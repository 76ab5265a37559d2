package services

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/Dosada05/volley-tournament/models"
	"github.com/Dosada05/volley-tournament/repositories"
	"github.com/Dosada05/volley-tournament/utils"
)

var teamNicknames = []string{
	"Lightning", "Titans", "Fire", "Whirlwind", "Phoenix", "Thunder", "Star", "Alpha",
	"Omega", "Hurricane", "Panther", "Eagles", "Dragons", "Typhoon", "Tornado", "Tsunami",
}

type TeamBalancer interface {
	// Balance splits players into teamCount groups. The multiset of players is preserved.
	Balance(ctx context.Context, players []string, teamCount int, useBalancing bool) ([][]string, error)
	// FormTeams applies the team-size policy and returns named atomic teams.
	FormTeams(ctx context.Context, players []string, useBalancing bool) ([]*models.Team, TeamLayout, error)
	PlayerRatings(ctx context.Context, players []string) (map[string]int, error)
}

type teamBalancer struct {
	ratingRepo repositories.RatingRepository
	mu         sync.Mutex // rng не потокобезопасен
	rng        *rand.Rand
}

func NewTeamBalancer(ratingRepo repositories.RatingRepository, rng *rand.Rand) TeamBalancer {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &teamBalancer{ratingRepo: ratingRepo, rng: rng}
}

func (b *teamBalancer) PlayerRatings(ctx context.Context, players []string) (map[string]int, error) {
	records, err := b.ratingRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load player ratings: %w", err)
	}
	ratings := make(map[string]int, len(players))
	for _, p := range players {
		ratings[p] = models.DefaultRating
		if rec, ok := records[p]; ok && rec != nil {
			ratings[p] = rec.Rating
		}
	}
	return ratings, nil
}

func (b *teamBalancer) Balance(ctx context.Context, players []string, teamCount int, useBalancing bool) ([][]string, error) {
	if teamCount < 1 || teamCount > len(players) {
		return nil, fmt.Errorf("%w: cannot split %d players into %d teams", ErrInvalidComposition, len(players), teamCount)
	}
	if !useBalancing {
		return b.randomSplit(players, teamCount), nil
	}
	ratings, err := b.PlayerRatings(ctx, players)
	if err != nil {
		return nil, err
	}

	// Нечётное число игроков в двойках: самый слабый добавляется к последней двойке
	if layout := TeamLayoutFor(len(players)); layout.Format == models.FormatDoubles && layout.TeamCount == teamCount && len(players)%2 == 1 {
		sorted := sortByRating(players, ratings)
		groups := SnakeDraft(sorted[:len(sorted)-1], ratings, teamCount)
		groups[teamCount-1] = append(groups[teamCount-1], sorted[len(sorted)-1])
		return groups, nil
	}
	return SnakeDraft(players, ratings, teamCount), nil
}

func (b *teamBalancer) FormTeams(ctx context.Context, players []string, useBalancing bool) ([]*models.Team, TeamLayout, error) {
	layout := TeamLayoutFor(len(players))

	groups, err := b.Balance(ctx, players, layout.TeamCount, useBalancing)
	if err != nil {
		return nil, layout, err
	}
	ratings, err := b.PlayerRatings(ctx, players)
	if err != nil {
		return nil, layout, err
	}

	names := TeamNames(layout.Format, layout.TeamCount)
	teams := make([]*models.Team, len(groups))
	for i, group := range groups {
		teams[i] = models.NewAtomicTeam(names[i], group, TeamRating(group, ratings))
	}
	return teams, layout, nil
}

func (b *teamBalancer) randomSplit(players []string, teamCount int) [][]string {
	shuffled := append([]string(nil), players...)
	b.mu.Lock()
	utils.Shuffle(b.rng, shuffled)
	b.mu.Unlock()
	return chunkPlayers(shuffled, teamCount)
}

// chunkPlayers cuts players into contiguous groups of near-equal size; the
// remainder goes to the last groups, one player each.
func chunkPlayers(players []string, teamCount int) [][]string {
	base := len(players) / teamCount
	extra := len(players) % teamCount
	groups := make([][]string, teamCount)
	pos := 0
	for i := 0; i < teamCount; i++ {
		size := base
		if i >= teamCount-extra {
			size++
		}
		groups[i] = append([]string(nil), players[pos:pos+size]...)
		pos += size
	}
	return groups
}

// SnakeDraft sorts players by rating (stable, descending) and deals them
// 0,1,..,T-1,T-1,..,0 repeatedly: sorted index i goes to slot i mod 2T.
func SnakeDraft(players []string, ratings map[string]int, teamCount int) [][]string {
	groups := make([][]string, teamCount)
	for i, p := range sortByRating(players, ratings) {
		slot := i % (2 * teamCount)
		idx := slot
		if slot >= teamCount {
			idx = 2*teamCount - 1 - slot
		}
		groups[idx] = append(groups[idx], p)
	}
	return groups
}

func sortByRating(players []string, ratings map[string]int) []string {
	sorted := append([]string(nil), players...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return ratingOf(ratings, sorted[i]) > ratingOf(ratings, sorted[j])
	})
	return sorted
}

func ratingOf(ratings map[string]int, player string) int {
	if r, ok := ratings[player]; ok {
		return r
	}
	return models.DefaultRating
}

// TeamRating is the rounded mean rating of the players.
func TeamRating(players []string, ratings map[string]int) int {
	if len(players) == 0 {
		return 0
	}
	sum := 0
	for _, p := range players {
		sum += ratingOf(ratings, p)
	}
	return int(math.Round(float64(sum) / float64(len(players))))
}

func TeamNames(format models.Format, count int) []string {
	names := make([]string, count)
	for i := range names {
		switch {
		case format == models.FormatFull:
			names[i] = fmt.Sprintf("Team %d", i+1)
		case i < len(teamNicknames):
			names[i] = teamNicknames[i]
		case format == models.FormatTriples:
			names[i] = fmt.Sprintf("Triple %d", i+1)
		default:
			names[i] = fmt.Sprintf("Double %d", i+1)
		}
	}
	return names
}

// RecomposeSides moves players between the two playing sides of an entry.
// The set of players on court must stay the same. Side names and
// constituents are kept so results are still attributed to the same teams.
func RecomposeSides(entry *models.ScheduleEntry, side1, side2 []string, ratings map[string]int) (*models.ScheduleEntry, error) {
	if entry == nil {
		return nil, fmt.Errorf("%w: no schedule entry", ErrInvalidComposition)
	}
	if len(side1) == 0 || len(side2) == 0 {
		return nil, fmt.Errorf("%w: both sides need at least one player", ErrInvalidComposition)
	}

	onCourt := 0
	for _, side := range entry.GameTeams {
		if side == nil {
			return nil, fmt.Errorf("%w: schedule entry has an empty side", ErrInvalidComposition)
		}
		onCourt += len(side.Players)
	}

	seen := make(map[string]bool, onCourt)
	for _, p := range append(append([]string(nil), side1...), side2...) {
		if seen[p] {
			return nil, fmt.Errorf("%w: player %q appears twice", ErrInvalidComposition, p)
		}
		if !entry.GameTeams[0].HasPlayer(p) && !entry.GameTeams[1].HasPlayer(p) {
			return nil, fmt.Errorf("%w: player %q is not playing this round", ErrInvalidComposition, p)
		}
		seen[p] = true
	}
	if len(seen) != onCourt {
		return nil, fmt.Errorf("%w: %d of %d players assigned", ErrInvalidComposition, len(seen), onCourt)
	}

	updated := entry.Clone()
	for i, players := range [][]string{side1, side2} {
		updated.GameTeams[i].Players = append([]string(nil), players...)
		updated.GameTeams[i].TeamRating = TeamRating(players, ratings)
	}
	return updated, nil
}
