package models

// ScheduleEntry describes one round: the two playing sides and the teams
// sitting out.
type ScheduleEntry struct {
	Round     int      `json:"round"`
	GameTeams [2]*Team `json:"game_teams"`
	Resting   []*Team  `json:"resting"`
}

func (e *ScheduleEntry) Clone() *ScheduleEntry {
	if e == nil {
		return nil
	}
	clone := &ScheduleEntry{
		Round:     e.Round,
		GameTeams: [2]*Team{e.GameTeams[0].Clone(), e.GameTeams[1].Clone()},
		Resting:   make([]*Team, len(e.Resting)),
	}
	for i, t := range e.Resting {
		clone.Resting[i] = t.Clone()
	}
	return clone
}
