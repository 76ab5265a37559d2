package services

import (
	"fmt"
	"time"

	"github.com/Dosada05/volley-tournament/models"
)

// Очки за поражение зависят от того, набрал ли проигравший хотя бы столько.
const goodLossScoreThreshold = 10

// MatchScorer is the scoring state machine of the round being played.
// It is not safe for concurrent use; TournamentService serialises access.
type MatchScorer struct {
	entry    *models.ScheduleEntry
	format   models.Format
	settings models.TournamentSettings
	live     models.LiveMatch
	now      func() time.Time
}

func NewMatchScorer(entry *models.ScheduleEntry, format models.Format, settings models.TournamentSettings, now func() time.Time) *MatchScorer {
	if now == nil {
		now = time.Now
	}
	return &MatchScorer{
		entry:    entry,
		format:   format,
		settings: settings,
		live: models.LiveMatch{
			Round:     entry.Round,
			Status:    models.ScoringInProgress,
			StartedAt: now(),
		},
		now: now,
	}
}

// RestoreMatchScorer rebuilds a scorer from a persisted snapshot.
func RestoreMatchScorer(entry *models.ScheduleEntry, format models.Format, settings models.TournamentSettings, live models.LiveMatch, now func() time.Time) *MatchScorer {
	if now == nil {
		now = time.Now
	}
	return &MatchScorer{entry: entry, format: format, settings: settings, live: live, now: now}
}

func (s *MatchScorer) Snapshot() models.LiveMatch {
	snapshot := s.live
	if s.live.FinishedAt != nil {
		t := *s.live.FinishedAt
		snapshot.FinishedAt = &t
	}
	return snapshot
}

func (s *MatchScorer) Status() models.ScoringStatus {
	return s.live.Status
}

func (s *MatchScorer) Score() (int, int) {
	return s.live.Score1, s.live.Score2
}

func (s *MatchScorer) MaxScore() int {
	return s.settings.MaxScoreFor(s.format)
}

func (s *MatchScorer) AddPoint(side int) error {
	return s.adjust(side, 1)
}

// RemovePoint undoes a point; scores never go below zero.
func (s *MatchScorer) RemovePoint(side int) error {
	return s.adjust(side, -1)
}

func (s *MatchScorer) adjust(side, delta int) error {
	if s.live.Status == models.ScoringFinished {
		return ErrMatchAlreadyFinished
	}
	score, err := s.sideScore(side)
	if err != nil {
		return err
	}
	*score = max(*score+delta, 0)
	s.evaluate()
	return nil
}

// SetScore is the manual override path. It is accepted in any state and the
// finish condition is evaluated again afterwards.
func (s *MatchScorer) SetScore(score1, score2 int) error {
	if score1 < 0 || score2 < 0 {
		return ErrInvalidScore
	}
	s.live.Score1, s.live.Score2 = score1, score2
	s.evaluate()
	return nil
}

// Reset zeroes both scores and returns the scorer to in-progress. The round
// timer keeps running.
func (s *MatchScorer) Reset() {
	s.live.Score1, s.live.Score2 = 0, 0
	s.live.Status = models.ScoringInProgress
	s.live.FinishedAt = nil
}

// Finalize emits the match record. Without force the game must already be
// over; with force any non-tied score is accepted.
func (s *MatchScorer) Finalize(force bool) (*models.Match, error) {
	autoFinished := s.live.Status == models.ScoringFinished
	if !autoFinished && !force {
		return nil, fmt.Errorf("%w (score %d:%d, target %d, lead %d)",
			ErrMatchNotFinishable, s.live.Score1, s.live.Score2, s.MaxScore(), s.minLead())
	}
	if s.live.Score1 == s.live.Score2 {
		return nil, ErrMatchTied
	}

	points1, points2 := MatchPoints(s.format, s.settings, s.live.Score1, s.live.Score2)
	sets1, sets2 := 0, 0
	if s.live.Score1 > s.live.Score2 {
		sets1 = 1
	} else {
		sets2 = 1
	}

	ts := s.now()
	return &models.Match{
		Round:     s.entry.Round,
		Teams:     [2]*models.Team{s.entry.GameTeams[0].Clone(), s.entry.GameTeams[1].Clone()},
		Score1:    s.live.Score1,
		Score2:    s.live.Score2,
		Points1:   points1,
		Points2:   points2,
		SetsWon1:  sets1,
		SetsWon2:  sets2,
		Status:    models.MatchStatusFinished,
		Forced:    !autoFinished,
		Timestamp: &ts,
	}, nil
}

func (s *MatchScorer) Elapsed() time.Duration {
	return s.now().Sub(s.live.StartedAt)
}

// Remaining is the time left of the round duration, never negative.
func (s *MatchScorer) Remaining() time.Duration {
	left := time.Duration(s.settings.RoundDuration)*time.Minute - s.Elapsed()
	if left < 0 {
		return 0
	}
	return left
}

func (s *MatchScorer) sideScore(side int) (*int, error) {
	switch side {
	case 1:
		return &s.live.Score1, nil
	case 2:
		return &s.live.Score2, nil
	default:
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSide, side)
	}
}

func (s *MatchScorer) minLead() int {
	return max(s.settings.MinPointDifference, 1)
}

func (s *MatchScorer) evaluate() {
	if IsGameOver(s.live.Score1, s.live.Score2, s.MaxScore(), s.minLead()) {
		if s.live.Status != models.ScoringFinished {
			ts := s.now()
			s.live.FinishedAt = &ts
		}
		s.live.Status = models.ScoringFinished
		return
	}
	s.live.Status = models.ScoringInProgress
	s.live.FinishedAt = nil
}

// IsGameOver: one side reached maxScore and leads by at least minLead.
func IsGameOver(score1, score2, maxScore, minLead int) bool {
	lead := score1 - score2
	if lead < 0 {
		lead = -lead
	}
	return (score1 >= maxScore || score2 >= maxScore) && lead >= minLead
}

// MatchPoints returns the standings points for both sides of a decided game.
func MatchPoints(format models.Format, settings models.TournamentSettings, score1, score2 int) (int, int) {
	if score1 == score2 {
		return 0, 0
	}
	if format == models.FormatFull && settings.UseSetBasedScoringForFull {
		if score1 > score2 {
			return 1, 0
		}
		return 0, 1
	}

	loserPoints := func(score int) int {
		if score >= goodLossScoreThreshold {
			return settings.PointsForLoseGood
		}
		return settings.PointsForLoseBad
	}
	if score1 > score2 {
		return settings.PointsForWin, loserPoints(score2)
	}
	return loserPoints(score1), settings.PointsForWin
}
