package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/volley-tournament/models"
	"github.com/Dosada05/volley-tournament/repositories"
	"github.com/Dosada05/volley-tournament/storage"
)

const (
	exportVersion     = 1
	archiveKeyPrefix  = "exports/"
	archiveMaxBytes   = 32 << 20
	archiveTimeLayout = "20060102T150405Z"
)

type DataService interface {
	Export(ctx context.Context) (*models.DataExport, error)
	// Import replaces ratings, history, settings and the current state with
	// the document contents in a single transaction.
	Import(ctx context.Context, doc *models.DataExport) error
	Archive(ctx context.Context) (*storage.UploadResult, error)
	RestoreArchive(ctx context.Context, key string) error
}

type dataService struct {
	tx             repositories.Transactor
	ratingRepo     repositories.RatingRepository
	tournamentRepo repositories.TournamentRepository
	settingsRepo   repositories.SettingsRepository
	uploader       storage.FileUploader
	keepArchives   int
	logger         *slog.Logger
	now            func() time.Time
}

// NewDataService builds the service; uploader may be nil when no archive
// bucket is configured. keepArchives bounds the number of stored exports,
// 0 keeps them all.
func NewDataService(
	tx repositories.Transactor,
	ratingRepo repositories.RatingRepository,
	tournamentRepo repositories.TournamentRepository,
	settingsRepo repositories.SettingsRepository,
	uploader storage.FileUploader,
	keepArchives int,
	logger *slog.Logger,
) DataService {
	return &dataService{
		tx:             tx,
		ratingRepo:     ratingRepo,
		tournamentRepo: tournamentRepo,
		settingsRepo:   settingsRepo,
		uploader:       uploader,
		keepArchives:   keepArchives,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *dataService) Export(ctx context.Context) (*models.DataExport, error) {
	doc := &models.DataExport{
		Version:    exportVersion,
		ExportedAt: s.now().UTC(),
		Settings:   models.DefaultTournamentSettings(),
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		state, err := s.tournamentRepo.LoadCurrentState(gCtx, nil)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentStateNotFound) {
				return nil
			}
			return fmt.Errorf("failed to load current state: %w", err)
		}
		doc.CurrentState = state
		return nil
	})

	g.Go(func() error {
		history, err := s.tournamentRepo.ListHistory(gCtx, nil)
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		doc.TournamentHistory = history
		return nil
	})

	g.Go(func() error {
		ratings, err := s.ratingRepo.GetAll(gCtx, nil)
		if err != nil {
			return fmt.Errorf("failed to load ratings: %w", err)
		}
		doc.PlayerRatings = ratings
		return nil
	})

	g.Go(func() error {
		settings, err := s.settingsRepo.Get(gCtx, nil)
		if err != nil {
			if errors.Is(err, repositories.ErrSettingsNotFound) {
				return nil
			}
			return fmt.Errorf("failed to load settings: %w", err)
		}
		doc.Settings = *settings
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *dataService) Import(ctx context.Context, doc *models.DataExport) error {
	if err := validateImport(doc); err != nil {
		return err
	}

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if err := s.ratingRepo.DeleteAll(ctx, exec); err != nil {
			return err
		}
		if err := s.ratingRepo.PutAll(ctx, exec, doc.PlayerRatings); err != nil {
			return err
		}
		if err := s.tournamentRepo.DeleteHistory(ctx, exec); err != nil {
			return err
		}
		for _, record := range doc.TournamentHistory {
			if err := s.tournamentRepo.AppendHistory(ctx, exec, record); err != nil {
				return fmt.Errorf("failed to import tournament %s: %w", record.ID, err)
			}
		}
		if err := s.settingsRepo.Save(ctx, exec, doc.Settings); err != nil {
			return err
		}
		if doc.CurrentState == nil {
			return s.tournamentRepo.ClearCurrentState(ctx, exec)
		}
		return s.tournamentRepo.SaveCurrentState(ctx, exec, doc.CurrentState)
	})
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	s.logger.Info("data imported",
		slog.Int("players", len(doc.PlayerRatings)),
		slog.Int("tournaments", len(doc.TournamentHistory)),
		slog.Bool("with_current_state", doc.CurrentState != nil),
	)
	return nil
}

func validateImport(doc *models.DataExport) error {
	if doc == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidImport)
	}
	if doc.Version > exportVersion {
		return fmt.Errorf("%w: unsupported version %d", ErrInvalidImport, doc.Version)
	}
	if err := ValidateSettings(doc.Settings); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}

	for name, rec := range doc.PlayerRatings {
		if rec == nil {
			return fmt.Errorf("%w: empty rating for %q", ErrInvalidImport, name)
		}
		if rec.Name == "" {
			rec.Name = name
		}
		if rec.Name != name {
			return fmt.Errorf("%w: rating key %q does not match name %q", ErrInvalidImport, name, rec.Name)
		}
		if rec.TotalWins > rec.TotalGames || rec.TotalWins < 0 {
			return fmt.Errorf("%w: %q has %d wins in %d games", ErrInvalidImport, name, rec.TotalWins, rec.TotalGames)
		}
	}

	seen := make(map[string]bool, len(doc.TournamentHistory))
	for _, record := range doc.TournamentHistory {
		if record == nil || record.ID == "" {
			return fmt.Errorf("%w: history record without id", ErrInvalidImport)
		}
		if seen[record.ID] {
			return fmt.Errorf("%w: duplicate history record %s", ErrInvalidImport, record.ID)
		}
		seen[record.ID] = true
		if err := validateMatches(record.Matches); err != nil {
			return fmt.Errorf("%w: history record %s: %w", ErrInvalidImport, record.ID, err)
		}
	}

	if st := doc.CurrentState; st != nil {
		if st.ID == "" || !st.Format.IsValid() || len(st.Matches) != len(st.Schedule) {
			return fmt.Errorf("%w: malformed current state", ErrInvalidImport)
		}
		if st.CurrentRound < 0 || st.CurrentRound > len(st.Schedule) {
			return fmt.Errorf("%w: current round %d out of range", ErrInvalidImport, st.CurrentRound)
		}
		for i, entry := range st.Schedule {
			if entry == nil || entry.GameTeams[0] == nil || entry.GameTeams[1] == nil {
				return fmt.Errorf("%w: schedule entry %d has no teams", ErrInvalidImport, i+1)
			}
		}
		for _, team := range st.Teams {
			if team == nil {
				return fmt.Errorf("%w: empty team in current state", ErrInvalidImport)
			}
		}
		if err := validateMatches(st.Matches); err != nil {
			return fmt.Errorf("%w: current state: %w", ErrInvalidImport, err)
		}
	}
	return nil
}

func validateMatches(matches []*models.Match) error {
	for i, m := range matches {
		if m == nil || m.Teams[0] == nil || m.Teams[1] == nil {
			return fmt.Errorf("match %d has no teams", i+1)
		}
	}
	return nil
}

// Archive uploads a full export to object storage.
func (s *dataService) Archive(ctx context.Context) (*storage.UploadResult, error) {
	if s.uploader == nil {
		return nil, ErrArchiveUnavailable
	}
	doc, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	payload, err := json.MarshalIndent(doc, "", "\t")
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}

	key := archiveKeyPrefix + "volley-" + doc.ExportedAt.Format(archiveTimeLayout) + ".json"
	result, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	s.logger.Info("export archived", slog.String("key", result.Key), slog.Int("bytes", len(payload)))

	// Ошибка очистки не отменяет уже загруженный архив
	if removed, err := s.pruneArchives(ctx); err != nil {
		s.logger.Warn("failed to prune old archives", slog.Any("error", err))
	} else if removed > 0 {
		s.logger.Info("old archives pruned", slog.Int("removed", removed))
	}
	return result, nil
}

// pruneArchives deletes the oldest exports beyond keepArchives. Keys carry a
// sortable UTC timestamp, so lexical order is chronological.
func (s *dataService) pruneArchives(ctx context.Context) (int, error) {
	if s.keepArchives <= 0 {
		return 0, nil
	}
	keys, err := s.uploader.List(ctx, archiveKeyPrefix)
	if err != nil {
		return 0, err
	}
	if len(keys) <= s.keepArchives {
		return 0, nil
	}
	sort.Strings(keys)

	removed := 0
	for _, key := range keys[:len(keys)-s.keepArchives] {
		if err := s.uploader.Delete(ctx, key); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (s *dataService) RestoreArchive(ctx context.Context, key string) error {
	if s.uploader == nil {
		return ErrArchiveUnavailable
	}
	body, err := s.uploader.Download(ctx, key)
	if err != nil {
		return err
	}
	defer body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(io.LimitReader(body, archiveMaxBytes)); err != nil {
		return fmt.Errorf("failed to read archive %s: %w", key, err)
	}
	var doc models.DataExport
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}
	return s.Import(ctx, &doc)
}
