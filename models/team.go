package models

import "strings"

type TeamKind string

const (
	TeamKindAtomic    TeamKind = "atomic"
	TeamKindComposite TeamKind = "composite"
)

const compositeNameSeparator = " + "

// Team is either an atomic team formed at tournament start or a composite
// side built from several atomic teams for a single round.
type Team struct {
	Name       string   `json:"name" db:"name"`
	Kind       TeamKind `json:"kind" db:"kind"`
	Players    []string `json:"players" db:"players"`
	TeamRating int      `json:"team_rating" db:"team_rating"` // среднее по игрокам, только для отображения

	Constituents []*Team `json:"constituents,omitempty" db:"-"`
}

func NewAtomicTeam(name string, players []string, rating int) *Team {
	return &Team{
		Name:       name,
		Kind:       TeamKindAtomic,
		Players:    append([]string(nil), players...),
		TeamRating: rating,
	}
}

// NewCompositeTeam merges atomic teams into one side. The rating is the
// player-weighted mean of the parts.
func NewCompositeTeam(parts ...*Team) *Team {
	names := make([]string, 0, len(parts))
	players := make([]string, 0)
	constituents := make([]*Team, 0, len(parts))
	weighted := 0
	for _, p := range parts {
		names = append(names, p.Name)
		players = append(players, p.Players...)
		constituents = append(constituents, p.Clone())
		weighted += p.TeamRating * len(p.Players)
	}

	rating := 0
	if len(players) > 0 {
		rating = (weighted + len(players)/2) / len(players)
	}

	return &Team{
		Name:         strings.Join(names, compositeNameSeparator),
		Kind:         TeamKindComposite,
		Players:      players,
		TeamRating:   rating,
		Constituents: constituents,
	}
}

func (t *Team) IsComposite() bool {
	return t != nil && t.Kind == TeamKindComposite
}

func (t *Team) HasPlayer(name string) bool {
	if t == nil {
		return false
	}
	for _, p := range t.Players {
		if p == name {
			return true
		}
	}
	return false
}

// Represents reports whether results of this side count for the atomic
// team with the given name: a direct name match or one of the constituents.
func (t *Team) Represents(teamName string) bool {
	if t == nil {
		return false
	}
	if t.Name == teamName {
		return true
	}
	for _, c := range t.Constituents {
		if c.Name == teamName {
			return true
		}
	}
	return false
}

func (t *Team) Clone() *Team {
	if t == nil {
		return nil
	}
	clone := &Team{
		Name:       t.Name,
		Kind:       t.Kind,
		Players:    append([]string(nil), t.Players...),
		TeamRating: t.TeamRating,
	}
	if len(t.Constituents) > 0 {
		clone.Constituents = make([]*Team, len(t.Constituents))
		for i, c := range t.Constituents {
			clone.Constituents[i] = c.Clone()
		}
	}
	return clone
}
