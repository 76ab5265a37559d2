package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Dosada05/volley-tournament/models"
	"github.com/Dosada05/volley-tournament/repositories"
	"github.com/Dosada05/volley-tournament/storage"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// memoryDB stands in for Postgres. Values are deep-copied on the way in and
// out so callers never share memory with the "database".
type memoryDB struct {
	mu       sync.Mutex
	ratings  map[string]*models.RatingRecord
	state    []byte
	history  [][]byte
	applied  map[string]bool
	settings *models.TournamentSettings

	failPutFor  string
	failGetAll  error
	failHistory error
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		ratings: map[string]*models.RatingRecord{},
		applied: map[string]bool{},
	}
}

type memorySnapshot struct {
	ratings  map[string]*models.RatingRecord
	state    []byte
	history  [][]byte
	applied  map[string]bool
	settings *models.TournamentSettings
}

func (db *memoryDB) snapshot() memorySnapshot {
	db.mu.Lock()
	defer db.mu.Unlock()
	snap := memorySnapshot{
		ratings: make(map[string]*models.RatingRecord, len(db.ratings)),
		state:   append([]byte(nil), db.state...),
		history: append([][]byte(nil), db.history...),
		applied: make(map[string]bool, len(db.applied)),
	}
	for k, v := range db.ratings {
		snap.ratings[k] = v.Clone()
	}
	for k, v := range db.applied {
		snap.applied[k] = v
	}
	if db.settings != nil {
		s := *db.settings
		snap.settings = &s
	}
	return snap
}

func (db *memoryDB) restore(snap memorySnapshot) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.ratings = snap.ratings
	db.state = snap.state
	db.history = snap.history
	db.applied = snap.applied
	db.settings = snap.settings
}

type fakeTransactor struct {
	db    *memoryDB
	calls int
}

func (t *fakeTransactor) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	t.calls++
	snap := t.db.snapshot()
	if err := fn(nil); err != nil {
		t.db.restore(snap)
		return err
	}
	return nil
}

type fakeRatingRepo struct{ db *memoryDB }

func (r *fakeRatingRepo) GetAll(ctx context.Context, exec repositories.SQLExecutor) (map[string]*models.RatingRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failGetAll != nil {
		return nil, r.db.failGetAll
	}
	out := make(map[string]*models.RatingRecord, len(r.db.ratings))
	for k, v := range r.db.ratings {
		out[k] = v.Clone()
	}
	return out, nil
}

func (r *fakeRatingRepo) Get(ctx context.Context, exec repositories.SQLExecutor, name string) (*models.RatingRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	rec, ok := r.db.ratings[name]
	if !ok {
		return nil, repositories.ErrRatingNotFound
	}
	return rec.Clone(), nil
}

func (r *fakeRatingRepo) Put(ctx context.Context, exec repositories.SQLExecutor, record *models.RatingRecord) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failPutFor != "" && record.Name == r.db.failPutFor {
		return fmt.Errorf("simulated write failure for %s", record.Name)
	}
	r.db.ratings[record.Name] = record.Clone()
	return nil
}

func (r *fakeRatingRepo) PutAll(ctx context.Context, exec repositories.SQLExecutor, records map[string]*models.RatingRecord) error {
	names := make([]string, 0, len(records))
	for n := range records {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if err := r.Put(ctx, exec, records[n]); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeRatingRepo) DeleteAll(ctx context.Context, exec repositories.SQLExecutor) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.ratings = map[string]*models.RatingRecord{}
	return nil
}

func (r *fakeRatingRepo) Lock(ctx context.Context, exec repositories.SQLExecutor) error {
	return nil
}

type fakeTournamentRepo struct{ db *memoryDB }

func (r *fakeTournamentRepo) SaveCurrentState(ctx context.Context, exec repositories.SQLExecutor, state *models.TournamentState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.state = payload
	return nil
}

func (r *fakeTournamentRepo) LoadCurrentState(ctx context.Context, exec repositories.SQLExecutor) (*models.TournamentState, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.state == nil {
		return nil, repositories.ErrTournamentStateNotFound
	}
	var state models.TournamentState
	if err := json.Unmarshal(r.db.state, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *fakeTournamentRepo) ClearCurrentState(ctx context.Context, exec repositories.SQLExecutor) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.state = nil
	return nil
}

func (r *fakeTournamentRepo) AppendHistory(ctx context.Context, exec repositories.SQLExecutor, record *models.TournamentRecord) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failHistory != nil {
		return r.db.failHistory
	}
	for _, raw := range r.db.history {
		var existing models.TournamentRecord
		_ = json.Unmarshal(raw, &existing)
		if existing.ID == record.ID {
			return repositories.ErrTournamentRecordConflict
		}
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	r.db.history = append(r.db.history, payload)
	r.db.applied[record.ID] = record.RatingsApplied
	return nil
}

func (r *fakeTournamentRepo) decode(raw []byte) *models.TournamentRecord {
	var record models.TournamentRecord
	_ = json.Unmarshal(raw, &record)
	record.RatingsApplied = r.db.applied[record.ID]
	return &record
}

func (r *fakeTournamentRepo) ListHistory(ctx context.Context, exec repositories.SQLExecutor) ([]*models.TournamentRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	out := make([]*models.TournamentRecord, 0, len(r.db.history))
	for _, raw := range r.db.history {
		out = append(out, r.decode(raw))
	}
	return out, nil
}

func (r *fakeTournamentRepo) GetHistory(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.TournamentRecord, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	for _, raw := range r.db.history {
		if rec := r.decode(raw); rec.ID == id {
			return rec, nil
		}
	}
	return nil, repositories.ErrTournamentRecordNotFound
}

func (r *fakeTournamentRepo) DeleteHistory(ctx context.Context, exec repositories.SQLExecutor) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.history = nil
	r.db.applied = map[string]bool{}
	return nil
}

func (r *fakeTournamentRepo) LockHistory(ctx context.Context, exec repositories.SQLExecutor, id string) (*models.TournamentRecord, error) {
	return r.GetHistory(ctx, exec, id)
}

func (r *fakeTournamentRepo) MarkRatingsApplied(ctx context.Context, exec repositories.SQLExecutor, id string, appliedAt time.Time) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.applied[id]; !ok {
		return repositories.ErrTournamentRecordNotFound
	}
	r.db.applied[id] = true
	return nil
}

func (r *fakeTournamentRepo) ListPendingRatings(ctx context.Context, exec repositories.SQLExecutor) ([]*models.TournamentRecord, error) {
	all, err := r.ListHistory(ctx, exec)
	if err != nil {
		return nil, err
	}
	pending := make([]*models.TournamentRecord, 0)
	for _, rec := range all {
		if !rec.RatingsApplied {
			pending = append(pending, rec)
		}
	}
	return pending, nil
}

type fakeSettingsRepo struct{ db *memoryDB }

func (r *fakeSettingsRepo) Get(ctx context.Context, exec repositories.SQLExecutor) (*models.TournamentSettings, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.settings == nil {
		return nil, repositories.ErrSettingsNotFound
	}
	s := *r.db.settings
	return &s, nil
}

func (r *fakeSettingsRepo) Save(ctx context.Context, exec repositories.SQLExecutor, settings models.TournamentSettings) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	r.db.settings = &settings
	return nil
}

type recordedEvent struct {
	TournamentID string
	Type         string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(tournamentID, eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{TournamentID: tournamentID, Type: eventType})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type memoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryUploader() *memoryUploader {
	return &memoryUploader{objects: map[string][]byte{}}
}

func (u *memoryUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = data
	return &storage.UploadResult{Key: key}, nil
}

func (u *memoryUploader) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	data, ok := u.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (u *memoryUploader) Delete(ctx context.Context, key string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.objects, key)
	return nil
}

func (u *memoryUploader) List(ctx context.Context, prefix string) ([]string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	var keys []string
	for key := range u.objects {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (u *memoryUploader) GetPublicURL(key string) string {
	return ""
}

// fixedClock returns a clock that advances by step on every call.
func fixedClock(start time.Time, step time.Duration) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t := current
		current = current.Add(step)
		return t
	}
}
