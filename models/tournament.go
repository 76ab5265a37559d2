package models

import "time"

type TournamentStatus string

const (
	StatusActive    TournamentStatus = "active"
	StatusCompleted TournamentStatus = "completed"
)

// TournamentState is the single in-flight tournament.
type TournamentState struct {
	ID           string             `json:"id"`
	Status       TournamentStatus   `json:"status"`
	Players      []string           `json:"players"`
	Format       Format             `json:"format"`
	Teams        []*Team            `json:"teams"`
	Schedule     []*ScheduleEntry   `json:"schedule"`
	Matches      []*Match           `json:"matches"`
	Standings    []StandingsRow     `json:"standings"`
	CurrentRound int                `json:"current_round"` // индекс в Schedule, 0-based
	Live         *LiveMatch         `json:"live,omitempty"`
	Settings     TournamentSettings `json:"settings"`
	StartedAt    time.Time          `json:"started_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
}

func (s *TournamentState) CurrentEntry() *ScheduleEntry {
	if s == nil || s.CurrentRound < 0 || s.CurrentRound >= len(s.Schedule) {
		return nil
	}
	return s.Schedule[s.CurrentRound]
}

func (s *TournamentState) IsLastRoundPlayed() bool {
	return s != nil && s.CurrentRound >= len(s.Schedule)
}

func (s *TournamentState) FinishedMatches() []*Match {
	finished := make([]*Match, 0, len(s.Matches))
	for _, m := range s.Matches {
		if m.Status == MatchStatusFinished {
			finished = append(finished, m)
		}
	}
	return finished
}

// TournamentRecord is an entry of the completed tournaments history.
type TournamentRecord struct {
	ID             string         `json:"id" db:"id"`
	Date           time.Time      `json:"date" db:"date"`
	Format         Format         `json:"format" db:"format"`
	Players        []string       `json:"players" db:"players"`
	Teams          []*Team        `json:"teams" db:"-"`
	Matches        []*Match       `json:"matches" db:"-"`
	Standings      []StandingsRow `json:"standings" db:"-"`
	RatingsApplied bool           `json:"ratings_applied" db:"ratings_applied"`
}

// DataExport is the single document used for backup and restore.
type DataExport struct {
	Version           int                      `json:"version"`
	ExportedAt        time.Time                `json:"exported_at"`
	CurrentState      *TournamentState         `json:"current_state"`
	TournamentHistory []*TournamentRecord      `json:"tournament_history"`
	PlayerRatings     map[string]*RatingRecord `json:"player_ratings"`
	Settings          TournamentSettings       `json:"settings"`
}
