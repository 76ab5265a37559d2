package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Dosada05/volley-tournament/models"
	"github.com/Dosada05/volley-tournament/repositories"
)

const EloKFactor = 32.0

type RatingSortField string

const (
	SortByRating     RatingSortField = "rating"
	SortByName       RatingSortField = "name"
	SortByGames      RatingSortField = "total_games"
	SortByWins       RatingSortField = "total_wins"
	SortByWinRate    RatingSortField = "win_rate"
	SortByPoints     RatingSortField = "total_points"
	SortByAvgScore   RatingSortField = "average_score_per_game"
	SortByLastActive RatingSortField = "last_active"
)

type ListRatingsFilter struct {
	Search    string
	SortBy    RatingSortField
	Ascending *bool // nil: по имени по возрастанию, остальное по убыванию
}

type ApplyRatingsResult struct {
	TournamentID   string `json:"tournament_id"`
	AlreadyApplied bool   `json:"already_applied"`
	PlayersUpdated int    `json:"players_updated"`
}

type RatingService interface {
	// ApplyTournament replays the matches of a history record into the
	// rating store. The whole batch is one transaction and runs at most once
	// per tournament.
	ApplyTournament(ctx context.Context, tournamentID string) (*ApplyRatingsResult, error)
	RetryPending(ctx context.Context) (int, error)
	ListRatings(ctx context.Context, filter ListRatingsFilter) ([]*models.RatingRecord, error)
	GetPlayer(ctx context.Context, name string) (*models.RatingRecord, error)
}

type ratingService struct {
	tx             repositories.Transactor
	ratingRepo     repositories.RatingRepository
	tournamentRepo repositories.TournamentRepository
	logger         *slog.Logger
	now            func() time.Time
}

func NewRatingService(
	tx repositories.Transactor,
	ratingRepo repositories.RatingRepository,
	tournamentRepo repositories.TournamentRepository,
	logger *slog.Logger,
) RatingService {
	return &ratingService{
		tx:             tx,
		ratingRepo:     ratingRepo,
		tournamentRepo: tournamentRepo,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *ratingService) ApplyTournament(ctx context.Context, tournamentID string) (*ApplyRatingsResult, error) {
	result := &ApplyRatingsResult{TournamentID: tournamentID}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		record, err := s.tournamentRepo.LockHistory(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if record.RatingsApplied {
			result.AlreadyApplied = true
			return nil
		}

		if err := s.ratingRepo.Lock(ctx, exec); err != nil {
			return err
		}
		current, err := s.ratingRepo.GetAll(ctx, exec)
		if err != nil {
			return err
		}

		updated := ReplayRatings(current, record.Matches, record.Date)
		touched := make(map[string]*models.RatingRecord)
		for _, name := range matchPlayers(record.Matches) {
			touched[name] = updated[name]
		}

		if err := s.ratingRepo.PutAll(ctx, exec, touched); err != nil {
			return err
		}
		if err := s.tournamentRepo.MarkRatingsApplied(ctx, exec, tournamentID, s.now()); err != nil {
			return err
		}
		result.PlayersUpdated = len(touched)
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTournamentNotFound, tournamentID)
		}
		s.logger.Error("rating batch rolled back",
			slog.String("tournament_id", tournamentID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: tournament %s: %w", ErrRatingBatchPartialFailure, tournamentID, err)
	}

	if result.AlreadyApplied {
		s.logger.Info("ratings already applied, skipping", slog.String("tournament_id", tournamentID))
	} else {
		s.logger.Info("ratings applied",
			slog.String("tournament_id", tournamentID), slog.Int("players", result.PlayersUpdated))
	}
	return result, nil
}

// RetryPending applies ratings for every history record still waiting for them.
func (s *ratingService) RetryPending(ctx context.Context) (int, error) {
	pending, err := s.tournamentRepo.ListPendingRatings(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to list pending rating batches: %w", err)
	}

	applied := 0
	var errs []error
	for _, record := range pending {
		res, err := s.ApplyTournament(ctx, record.ID)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !res.AlreadyApplied {
			applied++
		}
	}
	return applied, errors.Join(errs...)
}

func (s *ratingService) ListRatings(ctx context.Context, filter ListRatingsFilter) ([]*models.RatingRecord, error) {
	records, err := s.ratingRepo.GetAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	list := make([]*models.RatingRecord, 0, len(records))
	for _, rec := range records {
		if search != "" && !strings.Contains(strings.ToLower(rec.Name), search) {
			continue
		}
		rec.RefreshDerived()
		list = append(list, rec)
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = SortByRating
	}
	less, ok := ratingComparators[sortBy]
	if !ok {
		return nil, fmt.Errorf("%w: unknown sort field %q", ErrInvalidFilter, sortBy)
	}
	ascending := sortBy == SortByName
	if filter.Ascending != nil {
		ascending = *filter.Ascending
	}

	sort.SliceStable(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !ascending {
			a, b = b, a
		}
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return list[i].Name < list[j].Name
	})
	return list, nil
}

var ratingComparators = map[RatingSortField]func(a, b *models.RatingRecord) bool{
	SortByRating:   func(a, b *models.RatingRecord) bool { return a.Rating < b.Rating },
	SortByName:     func(a, b *models.RatingRecord) bool { return a.Name < b.Name },
	SortByGames:    func(a, b *models.RatingRecord) bool { return a.TotalGames < b.TotalGames },
	SortByWins:     func(a, b *models.RatingRecord) bool { return a.TotalWins < b.TotalWins },
	SortByWinRate:  func(a, b *models.RatingRecord) bool { return a.WinRate < b.WinRate },
	SortByPoints:   func(a, b *models.RatingRecord) bool { return a.TotalPoints < b.TotalPoints },
	SortByAvgScore: func(a, b *models.RatingRecord) bool { return a.AverageScorePerGame < b.AverageScorePerGame },
	SortByLastActive: func(a, b *models.RatingRecord) bool {
		if a.LastActive == nil || b.LastActive == nil {
			return a.LastActive == nil && b.LastActive != nil
		}
		return a.LastActive.Before(*b.LastActive)
	},
}

func (s *ratingService) GetPlayer(ctx context.Context, name string) (*models.RatingRecord, error) {
	record, err := s.ratingRepo.Get(ctx, nil, name)
	if err != nil {
		if errors.Is(err, repositories.ErrRatingNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrPlayerNotFound, name)
		}
		return nil, err
	}
	record.RefreshDerived()
	return record, nil
}

type playerRating struct {
	record *models.RatingRecord
	value  float64
}

// ReplayRatings folds matches into a copy of initial and returns the full
// resulting map. Side strength is the mean of the members' current
// ratings; the Elo delta of a side is split evenly across its players and
// ratings are rounded only once, at the end. fallback dates matches that
// carry no timestamp.
func ReplayRatings(initial map[string]*models.RatingRecord, matches []*models.Match, fallback time.Time) map[string]*models.RatingRecord {
	state := make(map[string]*playerRating, len(initial))
	lookup := func(name string) *playerRating {
		if pr, ok := state[name]; ok {
			return pr
		}
		rec := initial[name].Clone()
		if rec == nil {
			rec = models.NewRatingRecord(name)
		}
		rec.Name = name
		pr := &playerRating{record: rec, value: float64(rec.Rating)}
		state[name] = pr
		return pr
	}
	for name := range initial {
		lookup(name)
	}

	for _, m := range matches {
		if m == nil || m.Status != models.MatchStatusFinished {
			continue
		}
		side1, side2 := m.Teams[0], m.Teams[1]
		if side1 == nil || side2 == nil || len(side1.Players) == 0 || len(side2.Players) == 0 {
			continue
		}

		at := fallback
		if m.Timestamp != nil {
			at = *m.Timestamp
		}

		r1 := meanRating(side1.Players, lookup)
		r2 := meanRating(side2.Players, lookup)
		expected1 := ExpectedScore(r1, r2)

		actual1 := 0.5
		result1, result2 := models.ResultDraw, models.ResultDraw
		switch m.Winner() {
		case 1:
			actual1, result1, result2 = 1, models.ResultWin, models.ResultLoss
		case 2:
			actual1, result1, result2 = 0, models.ResultLoss, models.ResultWin
		}
		delta1 := EloKFactor * (actual1 - expected1)

		applySide(side1, side2, m.Score1, m.Score2, m.Points1, result1, delta1, at, lookup)
		applySide(side2, side1, m.Score2, m.Score1, m.Points2, result2, -delta1, at, lookup)
	}

	out := make(map[string]*models.RatingRecord, len(state))
	for name, pr := range state {
		pr.record.Rating = int(math.Round(pr.value))
		pr.record.RefreshDerived()
		out[name] = pr.record
	}
	return out
}

func meanRating(players []string, lookup func(string) *playerRating) float64 {
	sum := 0.0
	for _, p := range players {
		sum += lookup(p).value
	}
	return sum / float64(len(players))
}

func applySide(
	side, opponent *models.Team,
	own, other, points int,
	result models.GameResult,
	delta float64,
	at time.Time,
	lookup func(string) *playerRating,
) {
	share := delta / float64(len(side.Players))
	for _, player := range side.Players {
		pr := lookup(player)
		rec := pr.record
		pr.value += share

		rec.TotalGames++
		if result == models.ResultWin {
			rec.TotalWins++
		}
		rec.TotalPoints += points
		rec.TotalScores += own
		ts := at
		rec.LastActive = &ts
		rec.GameHistory = append(rec.GameHistory, models.GameHistoryEntry{
			Date:      at,
			Team:      side.Name,
			Opponents: opponent.Name,
			Score:     fmt.Sprintf("%d:%d", own, other),
			Result:    result,
			Points:    points,
		})

		for _, mate := range side.Players {
			if mate != player {
				rec.Teammates[mate]++
			}
		}
		for _, opp := range opponent.Players {
			rec.Opponents[opp]++
		}
	}
}

func matchPlayers(matches []*models.Match) []string {
	seen := make(map[string]bool)
	names := make([]string, 0)
	for _, m := range matches {
		if m == nil || m.Status != models.MatchStatusFinished {
			continue
		}
		for _, side := range m.Teams {
			if side == nil {
				continue
			}
			for _, p := range side.Players {
				if !seen[p] {
					seen[p] = true
					names = append(names, p)
				}
			}
		}
	}
	sort.Strings(names)
	return names
}
