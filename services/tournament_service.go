package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/Dosada05/volley-tournament/brackets"
	"github.com/Dosada05/volley-tournament/models"
	"github.com/Dosada05/volley-tournament/repositories"
)

// EventPublisher receives read-only notifications about state changes.
type EventPublisher interface {
	Publish(tournamentID, eventType string, payload interface{})
}

type StartTournamentInput struct {
	Players      []string `json:"players"`
	UseBalancing *bool    `json:"use_balancing,omitempty"`
	Replace      bool     `json:"replace,omitempty"`
}

type CurrentMatchView struct {
	TournamentID       string                  `json:"tournament_id"`
	Format             models.Format           `json:"format"`
	Round              int                     `json:"round"`
	TotalRounds        int                     `json:"total_rounds"`
	Entry              *models.ScheduleEntry   `json:"entry"`
	Live               *models.LiveMatch       `json:"live,omitempty"`
	MaxScore           int                     `json:"max_score"`
	MinPointDifference int                     `json:"min_point_difference"`
	ElapsedSeconds     int64                   `json:"elapsed_seconds"`
	RemainingSeconds   int64                   `json:"remaining_seconds"`
	Prediction         *models.MatchPrediction `json:"prediction,omitempty"`
}

type FinishMatchResult struct {
	Match        *models.Match         `json:"match"`
	Standings    []models.StandingsRow `json:"standings"`
	NextRound    int                   `json:"next_round,omitempty"`
	Completed    bool                  `json:"completed"`
	Ratings      *ApplyRatingsResult   `json:"ratings,omitempty"`
	RatingsError string                `json:"ratings_error,omitempty"`
}

type TournamentService interface {
	StartTournament(ctx context.Context, input StartTournamentInput) (*models.TournamentState, error)
	GetCurrentState(ctx context.Context) (*models.TournamentState, error)
	GetStandings(ctx context.Context) ([]models.StandingsRow, error)
	ClearTournament(ctx context.Context) error

	GetCurrentMatch(ctx context.Context) (*CurrentMatchView, error)
	StartRound(ctx context.Context, round int) (*CurrentMatchView, error)
	AddPoint(ctx context.Context, side int) (*CurrentMatchView, error)
	RemovePoint(ctx context.Context, side int) (*CurrentMatchView, error)
	SetScore(ctx context.Context, score1, score2 int) (*CurrentMatchView, error)
	ResetMatch(ctx context.Context, round int) (*CurrentMatchView, error)
	FinishMatch(ctx context.Context, force bool) (*FinishMatchResult, error)
	RecomposeCurrentMatch(ctx context.Context, side1, side2 []string) (*CurrentMatchView, error)
	PredictCurrentMatch(ctx context.Context) (*models.MatchPrediction, error)

	ListHistory(ctx context.Context) ([]*models.TournamentRecord, error)
	GetHistory(ctx context.Context, id string) (*models.TournamentRecord, error)
}

type tournamentService struct {
	tx              repositories.Transactor
	tournamentRepo  repositories.TournamentRepository
	balancer        TeamBalancer
	settingsService SettingsService
	ratingService   RatingService
	publisher       EventPublisher
	logger          *slog.Logger

	mu  sync.Mutex // один матч в процессе, все изменения состояния последовательны
	rng *rand.Rand
	now func() time.Time
}

func NewTournamentService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	balancer TeamBalancer,
	settingsService SettingsService,
	ratingService RatingService,
	publisher EventPublisher,
	logger *slog.Logger,
) TournamentService {
	return newTournamentService(tx, tournamentRepo, balancer, settingsService, ratingService, publisher, logger)
}

func newTournamentService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	balancer TeamBalancer,
	settingsService SettingsService,
	ratingService RatingService,
	publisher EventPublisher,
	logger *slog.Logger,
) *tournamentService {
	return &tournamentService{
		tx:              tx,
		tournamentRepo:  tournamentRepo,
		balancer:        balancer,
		settingsService: settingsService,
		ratingService:   ratingService,
		publisher:       publisher,
		logger:          logger,
		rng:             rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:             time.Now,
	}
}

func (s *tournamentService) StartTournament(ctx context.Context, input StartTournamentInput) (*models.TournamentState, error) {
	players, err := ValidatePlayers(input.Players)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.loadState(ctx)
	switch {
	case err == nil && !input.Replace:
		return nil, fmt.Errorf("%w: %s", ErrTournamentActive, existing.ID)
	case err != nil && !errors.Is(err, ErrNoActiveTournament):
		return nil, err
	}

	settings, err := s.settingsService.GetSettings(ctx)
	if err != nil {
		return nil, err
	}
	useBalancing := settings.UseBalancing
	if input.UseBalancing != nil {
		useBalancing = *input.UseBalancing
	}

	teams, layout, err := s.balancer.FormTeams(ctx, players, useBalancing)
	if err != nil {
		return nil, fmt.Errorf("failed to form teams: %w", err)
	}

	generator, err := brackets.NewScheduleGenerator(layout.Format, s.rng)
	if err != nil {
		return nil, err
	}
	schedule, err := generator.GenerateSchedule(ctx, brackets.GenerateScheduleParams{
		Format:   layout.Format,
		Teams:    teams,
		Settings: settings,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s schedule: %w", generator.GetName(), err)
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("failed to generate tournament id: %w", err)
	}

	now := s.now()
	state := &models.TournamentState{
		ID:        id.String(),
		Status:    models.StatusActive,
		Players:   players,
		Format:    layout.Format,
		Teams:     teams,
		Schedule:  schedule,
		Matches:   provisionalMatches(schedule),
		Standings: NewStandings(teams),
		Settings:  settings,
		StartedAt: now,
		UpdatedAt: now,
	}

	if err := s.tournamentRepo.SaveCurrentState(ctx, nil, state); err != nil {
		return nil, err
	}

	s.logger.Info("tournament started",
		slog.String("tournament_id", state.ID),
		slog.String("format", string(state.Format)),
		slog.Int("players", len(players)),
		slog.Int("teams", len(teams)),
		slog.Int("rounds", len(schedule)),
		slog.Bool("balanced", useBalancing),
	)
	s.publish(state.ID, brackets.EventTournamentStarted, state)
	return state, nil
}

func provisionalMatches(schedule []*models.ScheduleEntry) []*models.Match {
	matches := make([]*models.Match, len(schedule))
	for i, entry := range schedule {
		matches[i] = &models.Match{
			Round:  entry.Round,
			Teams:  [2]*models.Team{entry.GameTeams[0].Clone(), entry.GameTeams[1].Clone()},
			Status: models.MatchStatusUpcoming,
		}
	}
	return matches
}

func (s *tournamentService) GetCurrentState(ctx context.Context) (*models.TournamentState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadState(ctx)
}

func (s *tournamentService) GetStandings(ctx context.Context) ([]models.StandingsRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.loadState(ctx)
	if err != nil {
		return nil, err
	}
	return RankStandings(state.Standings, state.Settings.UseTotalPointsForTie), nil
}

func (s *tournamentService) ClearTournament(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.loadState(ctx)
	if err != nil {
		return err
	}
	if err := s.tournamentRepo.ClearCurrentState(ctx, nil); err != nil {
		return err
	}
	s.logger.Info("tournament cleared", slog.String("tournament_id", state.ID))
	s.publish(state.ID, brackets.EventTournamentCleared, nil)
	return nil
}

func (s *tournamentService) GetCurrentMatch(ctx context.Context) (*CurrentMatchView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.loadState(ctx)
	if err != nil {
		return nil, err
	}
	if state.IsLastRoundPlayed() {
		return nil, ErrRoundOutOfRange
	}
	return s.view(state), nil
}

// StartRound starts scoring of the next unplayed round. Starting the round
// that is already live is a no-op.
func (s *tournamentService) StartRound(ctx context.Context, round int) (*CurrentMatchView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.loadState(ctx)
	if err != nil {
		return nil, err
	}

	next := state.CurrentRound + 1
	switch {
	case round < 1 || round > len(state.Schedule):
		return nil, fmt.Errorf("%w: %d (1..%d)", ErrRoundOutOfRange, round, len(state.Schedule))
	case round < next:
		return nil, fmt.Errorf("%w: %d", ErrRoundAlreadyPlayed, round)
	case round > next:
		return nil, fmt.Errorf("%w: round %d must be played before %d", ErrRoundOutOfRange, next, round)
	}

	if state.Live != nil && state.Live.Round == round {
		return s.view(state), nil
	}

	scorer := NewMatchScorer(state.CurrentEntry(), state.Format, state.Settings, s.now)
	live := scorer.Snapshot()
	state.Live = &live
	if err := s.saveState(ctx, state); err != nil {
		return nil, err
	}

	view := s.view(state)
	s.publish(state.ID, brackets.EventRoundStarted, view)
	return view, nil
}

func (s *tournamentService) AddPoint(ctx context.Context, side int) (*CurrentMatchView, error) {
	return s.mutateLive(ctx, func(scorer *MatchScorer) error { return scorer.AddPoint(side) })
}

func (s *tournamentService) RemovePoint(ctx context.Context, side int) (*CurrentMatchView, error) {
	return s.mutateLive(ctx, func(scorer *MatchScorer) error { return scorer.RemovePoint(side) })
}

func (s *tournamentService) SetScore(ctx context.Context, score1, score2 int) (*CurrentMatchView, error) {
	return s.mutateLive(ctx, func(scorer *MatchScorer) error { return scorer.SetScore(score1, score2) })
}

// ResetMatch zeroes the live score of round. A round that has already been
// recorded into the standings cannot be reset.
func (s *tournamentService) ResetMatch(ctx context.Context, round int) (*CurrentMatchView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.loadState(ctx)
	if err != nil {
		return nil, err
	}
	if round >= 1 && round <= state.CurrentRound {
		return nil, fmt.Errorf("%w: round %d", ErrMatchAlreadyRecorded, round)
	}
	if state.Live == nil || state.Live.Round != round {
		return nil, fmt.Errorf("%w: round %d", ErrRoundNotStarted, round)
	}

	scorer := RestoreMatchScorer(state.CurrentEntry(), state.Format, state.Settings, *state.Live, s.now)
	scorer.Reset()
	return s.commitLive(ctx, state, scorer)
}

func (s *tournamentService) mutateLive(ctx context.Context, fn func(scorer *MatchScorer) error) (*CurrentMatchView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.loadState(ctx)
	if err != nil {
		return nil, err
	}
	if state.Live == nil {
		return nil, ErrRoundNotStarted
	}

	scorer := RestoreMatchScorer(state.CurrentEntry(), state.Format, state.Settings, *state.Live, s.now)
	if err := fn(scorer); err != nil {
		return nil, err
	}
	return s.commitLive(ctx, state, scorer)
}

func (s *tournamentService) commitLive(ctx context.Context, state *models.TournamentState, scorer *MatchScorer) (*CurrentMatchView, error) {
	live := scorer.Snapshot()
	state.Live = &live
	if err := s.saveState(ctx, state); err != nil {
		return nil, err
	}
	view := s.view(state)
	s.publish(state.ID, brackets.EventScoreUpdated, view)
	return view, nil
}

// FinishMatch records the live match, folds it into the standings and
// advances to the next round. After the last round the tournament moves to
// history and the rating batch is applied.
func (s *tournamentService) FinishMatch(ctx context.Context, force bool) (*FinishMatchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.loadState(ctx)
	if err != nil {
		return nil, err
	}
	if state.Live == nil {
		return nil, ErrRoundNotStarted
	}

	scorer := RestoreMatchScorer(state.CurrentEntry(), state.Format, state.Settings, *state.Live, s.now)
	match, err := scorer.Finalize(force)
	if err != nil {
		return nil, err
	}

	state.Matches[state.CurrentRound] = match
	state.Standings = ApplyMatch(state.Standings, match)
	state.CurrentRound++
	state.Live = nil

	result := &FinishMatchResult{
		Match:     match,
		Standings: RankStandings(state.Standings, state.Settings.UseTotalPointsForTie),
	}

	s.logger.Info("match finished",
		slog.String("tournament_id", state.ID),
		slog.Int("round", match.Round),
		slog.Int("score1", match.Score1),
		slog.Int("score2", match.Score2),
		slog.Bool("forced", match.Forced),
	)

	if !state.IsLastRoundPlayed() {
		if err := s.saveState(ctx, state); err != nil {
			return nil, err
		}
		result.NextRound = state.CurrentRound + 1
		s.publish(state.ID, brackets.EventMatchFinished, result)
		return result, nil
	}

	if err := s.completeTournament(ctx, state, result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *tournamentService) completeTournament(ctx context.Context, state *models.TournamentState, result *FinishMatchResult) error {
	state.Status = models.StatusCompleted
	record := &models.TournamentRecord{
		ID:        state.ID,
		Date:      s.now(),
		Format:    state.Format,
		Players:   state.Players,
		Teams:     state.Teams,
		Matches:   state.FinishedMatches(),
		Standings: result.Standings,
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.tournamentRepo.AppendHistory(ctx, exec, record); err != nil {
			return err
		}
		return s.tournamentRepo.ClearCurrentState(ctx, exec)
	})
	if err != nil {
		return fmt.Errorf("failed to archive tournament %s: %w", state.ID, err)
	}
	result.Completed = true

	// История уже сохранена; если пакет рейтингов упадёт, его повторит планировщик.
	ratings, err := s.ratingService.ApplyTournament(ctx, state.ID)
	if err != nil {
		s.logger.Error("rating batch failed, will retry",
			slog.String("tournament_id", state.ID), slog.Any("error", err))
		result.RatingsError = err.Error()
	} else {
		result.Ratings = ratings
	}

	s.logger.Info("tournament completed",
		slog.String("tournament_id", state.ID), slog.Int("matches", len(record.Matches)))
	s.publish(state.ID, brackets.EventTournamentCompleted, result)
	return nil
}

func (s *tournamentService) RecomposeCurrentMatch(ctx context.Context, side1, side2 []string) (*CurrentMatchView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.loadState(ctx)
	if err != nil {
		return nil, err
	}
	entry := state.CurrentEntry()
	if entry == nil {
		return nil, ErrRoundOutOfRange
	}

	onCourt := append(append([]string(nil), entry.GameTeams[0].Players...), entry.GameTeams[1].Players...)
	ratings, err := s.balancer.PlayerRatings(ctx, onCourt)
	if err != nil {
		return nil, err
	}
	updated, err := RecomposeSides(entry, side1, side2, ratings)
	if err != nil {
		return nil, err
	}

	state.Schedule[state.CurrentRound].GameTeams = updated.GameTeams
	state.Matches[state.CurrentRound].Teams = [2]*models.Team{updated.GameTeams[0].Clone(), updated.GameTeams[1].Clone()}
	if err := s.saveState(ctx, state); err != nil {
		return nil, err
	}

	view := s.view(state)
	s.publish(state.ID, brackets.EventTeamsRecomposed, view)
	return view, nil
}

func (s *tournamentService) PredictCurrentMatch(ctx context.Context) (*models.MatchPrediction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, err := s.loadState(ctx)
	if err != nil {
		return nil, err
	}
	entry := state.CurrentEntry()
	if entry == nil {
		return nil, ErrRoundOutOfRange
	}
	prediction := PredictMatch(entry.GameTeams[0], entry.GameTeams[1], state.Settings.MaxScoreFor(state.Format))
	return &prediction, nil
}

func (s *tournamentService) ListHistory(ctx context.Context) ([]*models.TournamentRecord, error) {
	return s.tournamentRepo.ListHistory(ctx, nil)
}

func (s *tournamentService) GetHistory(ctx context.Context, id string) (*models.TournamentRecord, error) {
	record, err := s.tournamentRepo.GetHistory(ctx, nil, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrTournamentNotFound, id)
		}
		return nil, err
	}
	return record, nil
}

func (s *tournamentService) loadState(ctx context.Context) (*models.TournamentState, error) {
	state, err := s.tournamentRepo.LoadCurrentState(ctx, nil)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentStateNotFound) {
			return nil, ErrNoActiveTournament
		}
		return nil, err
	}
	return state, nil
}

func (s *tournamentService) saveState(ctx context.Context, state *models.TournamentState) error {
	state.UpdatedAt = s.now()
	return s.tournamentRepo.SaveCurrentState(ctx, nil, state)
}

func (s *tournamentService) view(state *models.TournamentState) *CurrentMatchView {
	entry := state.CurrentEntry()
	view := &CurrentMatchView{
		TournamentID:       state.ID,
		Format:             state.Format,
		Round:              state.CurrentRound + 1,
		TotalRounds:        len(state.Schedule),
		Entry:              entry,
		MaxScore:           state.Settings.MaxScoreFor(state.Format),
		MinPointDifference: state.Settings.MinPointDifference,
	}
	if state.Live != nil && entry != nil {
		scorer := RestoreMatchScorer(entry, state.Format, state.Settings, *state.Live, s.now)
		live := scorer.Snapshot()
		view.Live = &live
		view.ElapsedSeconds = int64(scorer.Elapsed() / time.Second)
		view.RemainingSeconds = int64(scorer.Remaining() / time.Second)
	}
	if entry != nil && state.Settings.ShowPredictions {
		prediction := PredictMatch(entry.GameTeams[0], entry.GameTeams[1], view.MaxScore)
		view.Prediction = &prediction
	}
	return view
}

func (s *tournamentService) publish(tournamentID, eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(tournamentID, eventType, payload)
}
