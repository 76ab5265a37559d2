package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/Dosada05/volley-tournament/models"
	"github.com/lib/pq"
)

var (
	ErrRatingNotFound = errors.New("player rating not found")
	ErrRatingInvalid  = errors.New("player rating violates constraints")
)

type RatingRepository interface {
	GetAll(ctx context.Context, exec SQLExecutor) (map[string]*models.RatingRecord, error)
	Get(ctx context.Context, exec SQLExecutor, name string) (*models.RatingRecord, error)
	Put(ctx context.Context, exec SQLExecutor, record *models.RatingRecord) error
	PutAll(ctx context.Context, exec SQLExecutor, records map[string]*models.RatingRecord) error
	DeleteAll(ctx context.Context, exec SQLExecutor) error
	// Lock blocks concurrent rating batches until the transaction ends.
	Lock(ctx context.Context, exec SQLExecutor) error
}

type postgresRatingRepository struct {
	db *sql.DB
}

func NewPostgresRatingRepository(db *sql.DB) RatingRepository {
	return &postgresRatingRepository{db: db}
}

func (r *postgresRatingRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const ratingColumns = `name, rating, total_games, total_wins, total_points, total_scores,
	last_active, game_history, teammates, opponents`

func (r *postgresRatingRepository) GetAll(ctx context.Context, exec SQLExecutor) (map[string]*models.RatingRecord, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + ratingColumns + ` FROM player_ratings`

	rows, err := executor.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query player ratings: %w", err)
	}
	defer rows.Close()

	records := make(map[string]*models.RatingRecord)
	for rows.Next() {
		record, err := scanRating(rows)
		if err != nil {
			return nil, err
		}
		records[record.Name] = record
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating player ratings: %w", err)
	}
	return records, nil
}

func (r *postgresRatingRepository) Get(ctx context.Context, exec SQLExecutor, name string) (*models.RatingRecord, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + ratingColumns + ` FROM player_ratings WHERE name = $1`

	record, err := scanRating(executor.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRatingNotFound
		}
		return nil, err
	}
	return record, nil
}

func (r *postgresRatingRepository) Put(ctx context.Context, exec SQLExecutor, record *models.RatingRecord) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO player_ratings
			(name, rating, total_games, total_wins, total_points, total_scores,
			 last_active, game_history, teammates, opponents, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		ON CONFLICT (name) DO UPDATE SET
			rating = EXCLUDED.rating,
			total_games = EXCLUDED.total_games,
			total_wins = EXCLUDED.total_wins,
			total_points = EXCLUDED.total_points,
			total_scores = EXCLUDED.total_scores,
			last_active = EXCLUDED.last_active,
			game_history = EXCLUDED.game_history,
			teammates = EXCLUDED.teammates,
			opponents = EXCLUDED.opponents,
			updated_at = NOW()`

	history, err := json.Marshal(nonNilHistory(record.GameHistory))
	if err != nil {
		return fmt.Errorf("failed to encode game history for %s: %w", record.Name, err)
	}
	teammates, err := json.Marshal(nonNilCounts(record.Teammates))
	if err != nil {
		return fmt.Errorf("failed to encode teammates for %s: %w", record.Name, err)
	}
	opponents, err := json.Marshal(nonNilCounts(record.Opponents))
	if err != nil {
		return fmt.Errorf("failed to encode opponents for %s: %w", record.Name, err)
	}

	_, err = executor.ExecContext(ctx, query,
		record.Name, record.Rating, record.TotalGames, record.TotalWins, record.TotalPoints, record.TotalScores,
		record.LastActive, history, teammates, opponents,
	)
	return r.handleRatingError(err)
}

// PutAll writes records in name order so concurrent batches lock rows consistently.
func (r *postgresRatingRepository) PutAll(ctx context.Context, exec SQLExecutor, records map[string]*models.RatingRecord) error {
	names := make([]string, 0, len(records))
	for name := range records {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := r.Put(ctx, exec, records[name]); err != nil {
			return fmt.Errorf("failed to store rating for %s: %w", name, err)
		}
	}
	return nil
}

func (r *postgresRatingRepository) DeleteAll(ctx context.Context, exec SQLExecutor) error {
	_, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM player_ratings`)
	if err != nil {
		return fmt.Errorf("failed to delete player ratings: %w", err)
	}
	return nil
}

func (r *postgresRatingRepository) Lock(ctx context.Context, exec SQLExecutor) error {
	if exec == nil {
		return errors.New("rating table lock requires a transaction")
	}
	if _, err := exec.ExecContext(ctx, `LOCK TABLE player_ratings IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("failed to lock player ratings: %w", err)
	}
	return nil
}

func scanRating(row rowScanner) (*models.RatingRecord, error) {
	var (
		record     models.RatingRecord
		lastActive sql.NullTime
		history    []byte
		teammates  []byte
		opponents  []byte
	)
	err := row.Scan(
		&record.Name, &record.Rating, &record.TotalGames, &record.TotalWins, &record.TotalPoints, &record.TotalScores,
		&lastActive, &history, &teammates, &opponents,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan player rating: %w", err)
	}
	if lastActive.Valid {
		t := lastActive.Time
		record.LastActive = &t
	}
	if err := json.Unmarshal(history, &record.GameHistory); err != nil {
		return nil, fmt.Errorf("failed to decode game history for %s: %w", record.Name, err)
	}
	if err := json.Unmarshal(teammates, &record.Teammates); err != nil {
		return nil, fmt.Errorf("failed to decode teammates for %s: %w", record.Name, err)
	}
	if err := json.Unmarshal(opponents, &record.Opponents); err != nil {
		return nil, fmt.Errorf("failed to decode opponents for %s: %w", record.Name, err)
	}
	record.GameHistory = nonNilHistory(record.GameHistory)
	record.Teammates = nonNilCounts(record.Teammates)
	record.Opponents = nonNilCounts(record.Opponents)
	record.RefreshDerived()
	return &record, nil
}

func nonNilHistory(h []models.GameHistoryEntry) []models.GameHistoryEntry {
	if h == nil {
		return []models.GameHistoryEntry{}
	}
	return h
}

func nonNilCounts(m map[string]int) map[string]int {
	if m == nil {
		return map[string]int{}
	}
	return m
}

func (r *postgresRatingRepository) handleRatingError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23514" {
		return fmt.Errorf("%w: %s", ErrRatingInvalid, pqErr.Constraint)
	}
	return err
}
