package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/Dosada05/volley-tournament/models"
	"github.com/Dosada05/volley-tournament/repositories"
)

const maxConfiguredRounds = 50

// ValidationError carries per-field messages and matches ErrInvalidSettings.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrInvalidSettings, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidSettings
}

type SettingsService interface {
	GetSettings(ctx context.Context) (models.TournamentSettings, error)
	UpdateSettings(ctx context.Context, settings models.TournamentSettings) (models.TournamentSettings, error)
	ResetSettings(ctx context.Context) (models.TournamentSettings, error)
}

type settingsService struct {
	settingsRepo repositories.SettingsRepository
	logger       *slog.Logger
}

func NewSettingsService(settingsRepo repositories.SettingsRepository, logger *slog.Logger) SettingsService {
	return &settingsService{settingsRepo: settingsRepo, logger: logger}
}

// GetSettings falls back to defaults when nothing has been stored yet.
func (s *settingsService) GetSettings(ctx context.Context) (models.TournamentSettings, error) {
	stored, err := s.settingsRepo.Get(ctx, nil)
	if err != nil {
		if errors.Is(err, repositories.ErrSettingsNotFound) {
			return models.DefaultTournamentSettings(), nil
		}
		return models.TournamentSettings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return *stored, nil
}

func (s *settingsService) UpdateSettings(ctx context.Context, settings models.TournamentSettings) (models.TournamentSettings, error) {
	if err := ValidateSettings(settings); err != nil {
		return models.TournamentSettings{}, err
	}
	if err := s.settingsRepo.Save(ctx, nil, settings); err != nil {
		return models.TournamentSettings{}, fmt.Errorf("failed to save settings: %w", err)
	}
	s.logger.Info("tournament settings updated")
	return settings, nil
}

func (s *settingsService) ResetSettings(ctx context.Context) (models.TournamentSettings, error) {
	return s.UpdateSettings(ctx, models.DefaultTournamentSettings())
}

func ValidateSettings(st models.TournamentSettings) error {
	fields := make(map[string]string)

	if st.MaxScoreRounds.Full < 1 {
		fields["max_score_rounds.full"] = "must be at least 1"
	}
	if st.MaxScoreRounds.Triples < 1 {
		fields["max_score_rounds.triples"] = "must be at least 1"
	}
	if st.MaxScoreRounds.Doubles < 1 {
		fields["max_score_rounds.doubles"] = "must be at least 1"
	}
	if st.MinPointDifference < 1 {
		fields["min_point_difference"] = "must be at least 1"
	}
	if st.RoundDuration < 1 {
		fields["round_duration"] = "must be at least 1 minute"
	}
	if st.PointsForLoseBad < 0 {
		fields["points_for_lose_bad"] = "must not be negative"
	}
	if st.PointsForLoseGood < st.PointsForLoseBad {
		fields["points_for_lose_good"] = "must not be less than points_for_lose_bad"
	}
	if st.PointsForWin < st.PointsForLoseGood {
		fields["points_for_win"] = "must not be less than points_for_lose_good"
	}
	if st.FullFormatRounds < 1 || st.FullFormatRounds > maxConfiguredRounds {
		fields["full_format_rounds"] = fmt.Sprintf("must be between 1 and %d", maxConfiguredRounds)
	}
	if st.DoublesTargetGames < 1 || st.DoublesTargetGames > maxConfiguredRounds {
		fields["doubles_target_games"] = fmt.Sprintf("must be between 1 and %d", maxConfiguredRounds)
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}
