package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/volley-tournament/models"
	"github.com/lib/pq"
)

var (
	ErrTournamentStateNotFound  = errors.New("no tournament in progress")
	ErrTournamentRecordNotFound = errors.New("tournament history record not found")
	ErrTournamentRecordConflict = errors.New("tournament history record already exists")
)

// TournamentRepository keeps the in-flight tournament and the history of
// completed ones.
type TournamentRepository interface {
	SaveCurrentState(ctx context.Context, exec SQLExecutor, state *models.TournamentState) error
	LoadCurrentState(ctx context.Context, exec SQLExecutor) (*models.TournamentState, error)
	ClearCurrentState(ctx context.Context, exec SQLExecutor) error

	AppendHistory(ctx context.Context, exec SQLExecutor, record *models.TournamentRecord) error
	ListHistory(ctx context.Context, exec SQLExecutor) ([]*models.TournamentRecord, error)
	GetHistory(ctx context.Context, exec SQLExecutor, id string) (*models.TournamentRecord, error)
	DeleteHistory(ctx context.Context, exec SQLExecutor) error

	// LockHistory reads a record with FOR UPDATE; must be called inside a transaction.
	LockHistory(ctx context.Context, exec SQLExecutor, id string) (*models.TournamentRecord, error)
	MarkRatingsApplied(ctx context.Context, exec SQLExecutor, id string, appliedAt time.Time) error
	ListPendingRatings(ctx context.Context, exec SQLExecutor) ([]*models.TournamentRecord, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresTournamentRepository) SaveCurrentState(ctx context.Context, exec SQLExecutor, state *models.TournamentState) error {
	executor := r.getExecutor(exec)
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode tournament state: %w", err)
	}

	query := `
		INSERT INTO tournament_current_state (id, tournament_id, state, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET
			tournament_id = EXCLUDED.tournament_id,
			state = EXCLUDED.state,
			updated_at = NOW()`

	if _, err := executor.ExecContext(ctx, query, state.ID, payload); err != nil {
		return fmt.Errorf("failed to save tournament state: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) LoadCurrentState(ctx context.Context, exec SQLExecutor) (*models.TournamentState, error) {
	executor := r.getExecutor(exec)
	var payload []byte
	err := executor.QueryRowContext(ctx, `SELECT state FROM tournament_current_state WHERE id = 1`).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentStateNotFound
		}
		return nil, fmt.Errorf("failed to load tournament state: %w", err)
	}

	var state models.TournamentState
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, fmt.Errorf("failed to decode tournament state: %w", err)
	}
	return &state, nil
}

func (r *postgresTournamentRepository) ClearCurrentState(ctx context.Context, exec SQLExecutor) error {
	_, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM tournament_current_state WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("failed to clear tournament state: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) AppendHistory(ctx context.Context, exec SQLExecutor, record *models.TournamentRecord) error {
	executor := r.getExecutor(exec)
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode tournament record: %w", err)
	}

	query := `
		INSERT INTO tournament_history (id, played_at, format, players, record, ratings_applied)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = executor.ExecContext(ctx, query,
		record.ID, record.Date, string(record.Format), pq.Array(record.Players), payload, record.RatingsApplied,
	)
	return r.handleHistoryError(err)
}

const historyColumns = `record, ratings_applied`

func (r *postgresTournamentRepository) ListHistory(ctx context.Context, exec SQLExecutor) ([]*models.TournamentRecord, error) {
	return r.queryHistory(ctx, exec, `SELECT `+historyColumns+` FROM tournament_history ORDER BY played_at ASC`)
}

func (r *postgresTournamentRepository) ListPendingRatings(ctx context.Context, exec SQLExecutor) ([]*models.TournamentRecord, error) {
	return r.queryHistory(ctx, exec,
		`SELECT `+historyColumns+` FROM tournament_history WHERE ratings_applied = FALSE ORDER BY played_at ASC`)
}

func (r *postgresTournamentRepository) GetHistory(ctx context.Context, exec SQLExecutor, id string) (*models.TournamentRecord, error) {
	row := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT `+historyColumns+` FROM tournament_history WHERE id = $1`, id)
	return scanHistory(row)
}

func (r *postgresTournamentRepository) LockHistory(ctx context.Context, exec SQLExecutor, id string) (*models.TournamentRecord, error) {
	row := r.getExecutor(exec).QueryRowContext(ctx,
		`SELECT `+historyColumns+` FROM tournament_history WHERE id = $1 FOR UPDATE`, id)
	return scanHistory(row)
}

func (r *postgresTournamentRepository) MarkRatingsApplied(ctx context.Context, exec SQLExecutor, id string, appliedAt time.Time) error {
	result, err := r.getExecutor(exec).ExecContext(ctx,
		`UPDATE tournament_history SET ratings_applied = TRUE, ratings_applied_at = $2 WHERE id = $1`, id, appliedAt)
	if err != nil {
		return fmt.Errorf("failed to mark ratings applied for %s: %w", id, err)
	}
	return checkAffectedRows(result, ErrTournamentRecordNotFound)
}

func (r *postgresTournamentRepository) DeleteHistory(ctx context.Context, exec SQLExecutor) error {
	if _, err := r.getExecutor(exec).ExecContext(ctx, `DELETE FROM tournament_history`); err != nil {
		return fmt.Errorf("failed to delete tournament history: %w", err)
	}
	return nil
}

func (r *postgresTournamentRepository) queryHistory(ctx context.Context, exec SQLExecutor, query string) ([]*models.TournamentRecord, error) {
	rows, err := r.getExecutor(exec).QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tournament history: %w", err)
	}
	defer rows.Close()

	records := make([]*models.TournamentRecord, 0)
	for rows.Next() {
		record, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tournament history: %w", err)
	}
	return records, nil
}

func scanHistory(row rowScanner) (*models.TournamentRecord, error) {
	var (
		payload []byte
		applied bool
	)
	if err := row.Scan(&payload, &applied); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentRecordNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament record: %w", err)
	}

	var record models.TournamentRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, fmt.Errorf("failed to decode tournament record: %w", err)
	}
	// колонка ratings_applied главнее копии внутри JSON
	record.RatingsApplied = applied
	return &record, nil
}

func (r *postgresTournamentRepository) handleHistoryError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrTournamentRecordConflict
	}
	return fmt.Errorf("failed to append tournament history: %w", err)
}
