package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/volley-tournament/models"
)

var ErrSettingsNotFound = errors.New("tournament settings not stored")

type SettingsRepository interface {
	Get(ctx context.Context, exec SQLExecutor) (*models.TournamentSettings, error)
	Save(ctx context.Context, exec SQLExecutor, settings models.TournamentSettings) error
}

type postgresSettingsRepository struct {
	db *sql.DB
}

func NewPostgresSettingsRepository(db *sql.DB) SettingsRepository {
	return &postgresSettingsRepository{db: db}
}

func (r *postgresSettingsRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresSettingsRepository) Get(ctx context.Context, exec SQLExecutor) (*models.TournamentSettings, error) {
	var payload []byte
	err := r.getExecutor(exec).QueryRowContext(ctx, `SELECT settings FROM tournament_settings WHERE id = 1`).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSettingsNotFound
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	// Поля, которых нет в сохранённом JSON, берутся из значений по умолчанию.
	settings := models.DefaultTournamentSettings()
	if err := json.Unmarshal(payload, &settings); err != nil {
		return nil, fmt.Errorf("failed to decode settings: %w", err)
	}
	return &settings, nil
}

func (r *postgresSettingsRepository) Save(ctx context.Context, exec SQLExecutor, settings models.TournamentSettings) error {
	payload, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	query := `
		INSERT INTO tournament_settings (id, settings, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET settings = EXCLUDED.settings, updated_at = NOW()`
	if _, err := r.getExecutor(exec).ExecContext(ctx, query, payload); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
