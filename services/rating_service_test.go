package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/volley-tournament/models"
)

var ratingDay = time.Date(2026, 6, 1, 18, 0, 0, 0, time.UTC)

func sixAside(prefix string) *models.Team {
	players := make([]string, 6)
	for i := range players {
		players[i] = fmt.Sprintf("%s%d", prefix, i+1)
	}
	return models.NewAtomicTeam(prefix, players, 1000)
}

func newTestRatingService(db *memoryDB) (*ratingService, *fakeTransactor) {
	tx := &fakeTransactor{db: db}
	svc := NewRatingService(tx, &fakeRatingRepo{db: db}, &fakeTournamentRepo{db: db}, discardLogger()).(*ratingService)
	svc.now = func() time.Time { return ratingDay }
	return svc, tx
}

func TestReplayRatingsSixAside(t *testing.T) {
	a, b := sixAside("A"), sixAside("B")
	m := finishedMatch(1, a, b, 25, 20, 3, 2)

	out := ReplayRatings(map[string]*models.RatingRecord{}, []*models.Match{m}, ratingDay)
	require.Len(t, out, 12)

	winner := out["A1"]
	assert.Equal(t, 1003, winner.Rating)
	assert.Equal(t, 1, winner.TotalGames)
	assert.Equal(t, 1, winner.TotalWins)
	assert.Equal(t, 3, winner.TotalPoints)
	assert.Equal(t, 25, winner.TotalScores)
	assert.Equal(t, 1.0, winner.WinRate)
	assert.Equal(t, 25.0, winner.AverageScorePerGame)
	assert.Len(t, winner.UniqueTeammates, 5)
	assert.Len(t, winner.UniqueOpponents, 6)
	require.Len(t, winner.GameHistory, 1)
	assert.Equal(t, models.GameHistoryEntry{
		Date: ratingDay, Team: "A", Opponents: "B", Score: "25:20", Result: models.ResultWin, Points: 3,
	}, winner.GameHistory[0])

	loser := out["B6"]
	assert.Equal(t, 997, loser.Rating)
	assert.Equal(t, 0, loser.TotalWins)
	assert.Equal(t, 2, loser.TotalPoints)
	assert.Equal(t, "20:25", loser.GameHistory[0].Score)
	assert.Equal(t, models.ResultLoss, loser.GameHistory[0].Result)
	assert.LessOrEqual(t, loser.TotalWins, loser.TotalGames)
}

func TestReplayRatingsFoldsSequentially(t *testing.T) {
	a := models.NewAtomicTeam("A", []string{"ann"}, 1000)
	b := models.NewAtomicTeam("B", []string{"bob"}, 1000)
	matches := []*models.Match{
		finishedMatch(1, a, b, 25, 10, 3, 2),
		finishedMatch(2, a, b, 25, 10, 3, 2),
	}

	out := ReplayRatings(nil, matches, ratingDay)
	// 1016/984 after the first game, the second win is worth less
	assert.Equal(t, 1031, out["ann"].Rating)
	assert.Equal(t, 969, out["bob"].Rating)
	assert.Equal(t, 2, out["ann"].Opponents["bob"])
	assert.Empty(t, out["ann"].Teammates)
}

func TestReplayRatingsDraw(t *testing.T) {
	a := models.NewAtomicTeam("A", []string{"ann"}, 1000)
	b := models.NewAtomicTeam("B", []string{"bob"}, 1000)
	m := &models.Match{Round: 1, Teams: [2]*models.Team{a, b}, Score1: 20, Score2: 20, Status: models.MatchStatusFinished}

	out := ReplayRatings(nil, []*models.Match{m}, ratingDay)
	assert.Equal(t, 1000, out["ann"].Rating)
	assert.Equal(t, models.ResultDraw, out["ann"].GameHistory[0].Result)
	assert.Equal(t, 0, out["ann"].TotalWins)
}

func TestReplayRatingsDoesNotMutateInput(t *testing.T) {
	initial := map[string]*models.RatingRecord{"ann": models.NewRatingRecord("ann")}
	initial["ann"].Rating = 1200
	a := models.NewAtomicTeam("A", []string{"ann"}, 1200)
	b := models.NewAtomicTeam("B", []string{"bob"}, 1000)

	out := ReplayRatings(initial, []*models.Match{finishedMatch(1, a, b, 10, 25, 1, 3)}, ratingDay)
	assert.Equal(t, 1200, initial["ann"].Rating)
	assert.Equal(t, 0, initial["ann"].TotalGames)
	assert.Less(t, out["ann"].Rating, 1200)
	assert.Greater(t, out["bob"].Rating, 1000)
}

func appendTestRecord(t *testing.T, db *memoryDB, id string, matches ...*models.Match) {
	t.Helper()
	record := &models.TournamentRecord{ID: id, Date: ratingDay, Format: models.FormatFull, Matches: matches}
	require.NoError(t, (&fakeTournamentRepo{db: db}).AppendHistory(context.Background(), nil, record))
}

func TestApplyTournamentRunsOnce(t *testing.T) {
	db := newMemoryDB()
	svc, _ := newTestRatingService(db)
	appendTestRecord(t, db, "t1", finishedMatch(1, sixAside("A"), sixAside("B"), 25, 20, 3, 2))

	res, err := svc.ApplyTournament(context.Background(), "t1")
	require.NoError(t, err)
	assert.False(t, res.AlreadyApplied)
	assert.Equal(t, 12, res.PlayersUpdated)
	assert.Equal(t, 1003, db.ratings["A1"].Rating)
	assert.True(t, db.applied["t1"])

	res, err = svc.ApplyTournament(context.Background(), "t1")
	require.NoError(t, err)
	assert.True(t, res.AlreadyApplied)
	assert.Equal(t, 1003, db.ratings["A1"].Rating)
	assert.Equal(t, 1, db.ratings["A1"].TotalGames)
}

func TestApplyTournamentRollsBackOnFailure(t *testing.T) {
	db := newMemoryDB()
	existing := models.NewRatingRecord("A1")
	existing.Rating = 1100
	db.ratings["A1"] = existing
	db.failPutFor = "B3"

	svc, _ := newTestRatingService(db)
	appendTestRecord(t, db, "t1", finishedMatch(1, sixAside("A"), sixAside("B"), 25, 20, 3, 2))

	_, err := svc.ApplyTournament(context.Background(), "t1")
	require.ErrorIs(t, err, ErrRatingBatchPartialFailure)
	assert.Len(t, db.ratings, 1)
	assert.Equal(t, 1100, db.ratings["A1"].Rating)
	assert.False(t, db.applied["t1"])

	db.failPutFor = ""
	applied, err := svc.RetryPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Len(t, db.ratings, 12)
}

func TestApplyTournamentUnknownRecord(t *testing.T) {
	svc, _ := newTestRatingService(newMemoryDB())
	_, err := svc.ApplyTournament(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestRetryPendingSkipsApplied(t *testing.T) {
	db := newMemoryDB()
	svc, _ := newTestRatingService(db)
	a := models.NewAtomicTeam("A", []string{"ann"}, 1000)
	b := models.NewAtomicTeam("B", []string{"bob"}, 1000)
	appendTestRecord(t, db, "t1", finishedMatch(1, a, b, 25, 10, 3, 1))
	appendTestRecord(t, db, "t2", finishedMatch(1, a, b, 25, 10, 3, 1))
	_, err := svc.ApplyTournament(context.Background(), "t1")
	require.NoError(t, err)

	applied, err := svc.RetryPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, applied)
	assert.Equal(t, 2, db.ratings["ann"].TotalGames)

	applied, err = svc.RetryPending(context.Background())
	require.NoError(t, err)
	assert.Zero(t, applied)
}

func TestListRatings(t *testing.T) {
	db := newMemoryDB()
	for name, r := range map[string]struct{ rating, games, wins int }{
		"Anna":   {1050, 10, 7},
		"Boris":  {990, 4, 1},
		"Ivanna": {1120, 8, 2},
	} {
		rec := models.NewRatingRecord(name)
		rec.Rating, rec.TotalGames, rec.TotalWins = r.rating, r.games, r.wins
		db.ratings[name] = rec
	}
	svc, _ := newTestRatingService(db)
	ctx := context.Background()

	list, err := svc.ListRatings(ctx, ListRatingsFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ivanna", "Anna", "Boris"}, recordNames(list))

	list, err = svc.ListRatings(ctx, ListRatingsFilter{SortBy: SortByName})
	require.NoError(t, err)
	assert.Equal(t, []string{"Anna", "Boris", "Ivanna"}, recordNames(list))

	list, err = svc.ListRatings(ctx, ListRatingsFilter{SortBy: SortByWinRate})
	require.NoError(t, err)
	assert.Equal(t, []string{"Anna", "Boris", "Ivanna"}, recordNames(list))
	assert.Equal(t, 0.7, list[0].WinRate)

	asc := true
	list, err = svc.ListRatings(ctx, ListRatingsFilter{SortBy: SortByGames, Ascending: &asc})
	require.NoError(t, err)
	assert.Equal(t, []string{"Boris", "Ivanna", "Anna"}, recordNames(list))

	list, err = svc.ListRatings(ctx, ListRatingsFilter{Search: "ANN"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ivanna", "Anna"}, recordNames(list))

	_, err = svc.ListRatings(ctx, ListRatingsFilter{SortBy: "shoe_size"})
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestGetPlayer(t *testing.T) {
	db := newMemoryDB()
	rec := models.NewRatingRecord("Anna")
	rec.TotalGames, rec.TotalWins, rec.TotalScores = 4, 3, 80
	db.ratings["Anna"] = rec
	svc, _ := newTestRatingService(db)

	got, err := svc.GetPlayer(context.Background(), "Anna")
	require.NoError(t, err)
	assert.Equal(t, 0.75, got.WinRate)
	assert.Equal(t, 20.0, got.AverageScorePerGame)

	_, err = svc.GetPlayer(context.Background(), "Nobody")
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func recordNames(list []*models.RatingRecord) []string {
	names := make([]string, len(list))
	for i, r := range list {
		names[i] = r.Name
	}
	return names
}
