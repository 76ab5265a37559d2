package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/volley-tournament/models"
	"github.com/Dosada05/volley-tournament/storage"
)

func newTestDataService(db *memoryDB, uploader storage.FileUploader) *dataService {
	svc := NewDataService(
		&fakeTransactor{db: db},
		&fakeRatingRepo{db: db},
		&fakeTournamentRepo{db: db},
		&fakeSettingsRepo{db: db},
		uploader,
		0,
		discardLogger(),
	).(*dataService)
	svc.now = func() time.Time { return ratingDay }
	return svc
}

func seededDB(t *testing.T) *memoryDB {
	t.Helper()
	db := newMemoryDB()
	seedRatings(db, map[string]int{"Anna": 1040, "Boris": 960})
	appendTestRecord(t, db, "t1")
	settings := models.DefaultTournamentSettings()
	settings.RoundDuration = 12
	db.settings = &settings
	require.NoError(t, (&fakeTournamentRepo{db: db}).SaveCurrentState(context.Background(), nil, &models.TournamentState{
		ID:     "live",
		Status: models.StatusActive,
		Format: models.FormatFull,
	}))
	return db
}

func TestExport(t *testing.T) {
	doc, err := newTestDataService(seededDB(t), nil).Export(context.Background())
	require.NoError(t, err)

	assert.Equal(t, exportVersion, doc.Version)
	assert.Equal(t, ratingDay, doc.ExportedAt)
	require.NotNil(t, doc.CurrentState)
	assert.Equal(t, "live", doc.CurrentState.ID)
	require.Len(t, doc.TournamentHistory, 1)
	assert.Equal(t, "t1", doc.TournamentHistory[0].ID)
	assert.Equal(t, 1040, doc.PlayerRatings["Anna"].Rating)
	assert.Equal(t, 12, doc.Settings.RoundDuration)
}

func TestExportEmptyStore(t *testing.T) {
	doc, err := newTestDataService(newMemoryDB(), nil).Export(context.Background())
	require.NoError(t, err)
	assert.Nil(t, doc.CurrentState)
	assert.Empty(t, doc.TournamentHistory)
	assert.Empty(t, doc.PlayerRatings)
	assert.Equal(t, models.DefaultTournamentSettings(), doc.Settings)
}

func TestImportReplacesEverything(t *testing.T) {
	ctx := context.Background()
	doc, err := newTestDataService(seededDB(t), nil).Export(ctx)
	require.NoError(t, err)

	target := newMemoryDB()
	seedRatings(target, map[string]int{"Stale": 1500})
	appendTestRecord(t, target, "old")

	require.NoError(t, newTestDataService(target, nil).Import(ctx, doc))
	assert.Len(t, target.ratings, 2)
	assert.NotContains(t, target.ratings, "Stale")
	require.Len(t, target.history, 1)
	assert.Equal(t, 12, target.settings.RoundDuration)

	state, err := (&fakeTournamentRepo{db: target}).LoadCurrentState(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "live", state.ID)
}

func TestImportWithoutStateClearsCurrent(t *testing.T) {
	ctx := context.Background()
	target := seededDB(t)
	doc := &models.DataExport{Version: exportVersion, Settings: models.DefaultTournamentSettings()}

	require.NoError(t, newTestDataService(target, nil).Import(ctx, doc))
	assert.Nil(t, target.state)
	assert.Empty(t, target.ratings)
	assert.Empty(t, target.history)
}

func importState() *models.TournamentState {
	a := models.NewAtomicTeam("Team 1", []string{"Anna"}, 1000)
	b := models.NewAtomicTeam("Team 2", []string{"Boris"}, 1000)
	schedule := []*models.ScheduleEntry{{Round: 1, GameTeams: [2]*models.Team{a, b}}}
	return &models.TournamentState{
		ID:       "s",
		Status:   models.StatusActive,
		Format:   models.FormatFull,
		Teams:    []*models.Team{a, b},
		Schedule: schedule,
		Matches:  provisionalMatches(schedule),
	}
}

func TestImportAcceptsWellFormedState(t *testing.T) {
	doc := &models.DataExport{
		Version:      exportVersion,
		Settings:     models.DefaultTournamentSettings(),
		CurrentState: importState(),
	}
	assert.NoError(t, validateImport(doc))
}

func TestImportRejectsInvalidDocuments(t *testing.T) {
	valid := func() *models.DataExport {
		return &models.DataExport{
			Version:  exportVersion,
			Settings: models.DefaultTournamentSettings(),
			PlayerRatings: map[string]*models.RatingRecord{
				"Anna": models.NewRatingRecord("Anna"),
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(doc *models.DataExport) *models.DataExport
	}{
		{"nil document", func(*models.DataExport) *models.DataExport { return nil }},
		{"future version", func(d *models.DataExport) *models.DataExport { d.Version = 99; return d }},
		{"bad settings", func(d *models.DataExport) *models.DataExport { d.Settings.RoundDuration = 0; return d }},
		{"more wins than games", func(d *models.DataExport) *models.DataExport {
			d.PlayerRatings["Anna"].TotalWins = 3
			return d
		}},
		{"mismatched key", func(d *models.DataExport) *models.DataExport {
			d.PlayerRatings["Anna"].Name = "Boris"
			return d
		}},
		{"duplicate history", func(d *models.DataExport) *models.DataExport {
			d.TournamentHistory = []*models.TournamentRecord{{ID: "x"}, {ID: "x"}}
			return d
		}},
		{"malformed state", func(d *models.DataExport) *models.DataExport {
			d.CurrentState = &models.TournamentState{ID: "s", Format: "volleyball-7"}
			return d
		}},
		{"null schedule entry", func(d *models.DataExport) *models.DataExport {
			d.CurrentState = importState()
			d.CurrentState.Schedule[0] = nil
			return d
		}},
		{"schedule entry without a side", func(d *models.DataExport) *models.DataExport {
			d.CurrentState = importState()
			d.CurrentState.Schedule[0].GameTeams[1] = nil
			return d
		}},
		{"null match", func(d *models.DataExport) *models.DataExport {
			d.CurrentState = importState()
			d.CurrentState.Matches[0] = nil
			return d
		}},
		{"history match without teams", func(d *models.DataExport) *models.DataExport {
			d.TournamentHistory = []*models.TournamentRecord{{ID: "h", Matches: []*models.Match{{Round: 1}}}}
			return d
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := seededDB(t)
			svc := newTestDataService(db, nil)
			err := svc.Import(context.Background(), tt.mutate(valid()))
			assert.ErrorIs(t, err, ErrInvalidImport)
			assert.Len(t, db.ratings, 2, "store is untouched")
		})
	}
}

func TestImportRollsBackOnWriteFailure(t *testing.T) {
	ctx := context.Background()
	doc, err := newTestDataService(seededDB(t), nil).Export(ctx)
	require.NoError(t, err)

	target := newMemoryDB()
	seedRatings(target, map[string]int{"Stale": 1500})
	target.failHistory = errors.New("disk full")

	err = newTestDataService(target, nil).Import(ctx, doc)
	require.Error(t, err)
	assert.Contains(t, target.ratings, "Stale")
	assert.Len(t, target.ratings, 1)
}

func TestArchiveAndRestore(t *testing.T) {
	ctx := context.Background()
	uploader := newMemoryUploader()

	result, err := newTestDataService(seededDB(t), uploader).Archive(ctx)
	require.NoError(t, err)
	assert.Equal(t, "exports/volley-20260601T180000Z.json", result.Key)
	assert.Contains(t, uploader.objects, result.Key)

	target := newMemoryDB()
	require.NoError(t, newTestDataService(target, uploader).RestoreArchive(ctx, result.Key))
	assert.Equal(t, 960, target.ratings["Boris"].Rating)
	assert.Len(t, target.history, 1)

	err = newTestDataService(target, uploader).RestoreArchive(ctx, "exports/missing.json")
	assert.ErrorIs(t, err, storage.ErrObjectNotFound)
}

func TestArchivePrunesOldExports(t *testing.T) {
	uploader := newMemoryUploader()
	for _, key := range []string{
		"exports/volley-20260529T030000Z.json",
		"exports/volley-20260530T030000Z.json",
		"exports/volley-20260531T030000Z.json",
		"manual/keep-me.json",
	} {
		uploader.objects[key] = []byte("{}")
	}

	svc := newTestDataService(seededDB(t), uploader)
	svc.keepArchives = 2

	result, err := svc.Archive(context.Background())
	require.NoError(t, err)

	keys := make([]string, 0, len(uploader.objects))
	for key := range uploader.objects {
		keys = append(keys, key)
	}
	assert.ElementsMatch(t, []string{
		"exports/volley-20260531T030000Z.json",
		result.Key,
		"manual/keep-me.json",
	}, keys)
}

func TestArchiveKeepsEverythingWithoutRetention(t *testing.T) {
	uploader := newMemoryUploader()
	uploader.objects["exports/volley-20200101T000000Z.json"] = []byte("{}")

	_, err := newTestDataService(seededDB(t), uploader).Archive(context.Background())
	require.NoError(t, err)
	assert.Len(t, uploader.objects, 2)
}

func TestArchiveWithoutUploader(t *testing.T) {
	svc := newTestDataService(newMemoryDB(), nil)
	_, err := svc.Archive(context.Background())
	assert.ErrorIs(t, err, ErrArchiveUnavailable)
	assert.ErrorIs(t, svc.RestoreArchive(context.Background(), "any"), ErrArchiveUnavailable)
}
