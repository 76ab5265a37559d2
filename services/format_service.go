package services

import (
	"fmt"
	"strings"

	"github.com/Dosada05/volley-tournament/models"
	"github.com/Dosada05/volley-tournament/utils"
)

const (
	MinPlayers = 8
	MaxPlayers = 18

	fullFormatMaxPlayers = 14
)

type TeamLayout struct {
	Format    models.Format `json:"format"`
	TeamCount int           `json:"team_count"`
	TeamSize  int           `json:"team_size"`
}

// DecideFormat maps a validated player count to a format. It is total over
// all integers; callers validate the range with ValidatePlayers first.
func DecideFormat(playerCount int) models.Format {
	switch {
	case playerCount <= fullFormatMaxPlayers:
		return models.FormatFull
	case playerCount == 15 || playerCount == 18:
		return models.FormatTriples
	default:
		return models.FormatDoubles
	}
}

// TeamLayoutFor returns how many teams of which nominal size are formed.
// With an odd number of doubles players the final team gets three.
func TeamLayoutFor(playerCount int) TeamLayout {
	format := DecideFormat(playerCount)
	switch format {
	case models.FormatTriples:
		return TeamLayout{Format: format, TeamCount: playerCount / 3, TeamSize: 3}
	case models.FormatDoubles:
		return TeamLayout{Format: format, TeamCount: playerCount / 2, TeamSize: 2}
	default:
		return TeamLayout{Format: format, TeamCount: 2, TeamSize: utils.CeilDiv(playerCount, 2)}
	}
}

// ValidatePlayers trims names and rejects lists outside [MinPlayers, MaxPlayers],
// blank names and duplicates.
func ValidatePlayers(players []string) ([]string, error) {
	cleaned := make([]string, 0, len(players))
	seen := make(map[string]bool, len(players))
	for _, p := range players {
		name := strings.TrimSpace(p)
		if name == "" {
			return nil, fmt.Errorf("%w: blank player name", ErrInvalidPlayerCount)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate player %q", ErrInvalidPlayerCount, name)
		}
		seen[name] = true
		cleaned = append(cleaned, name)
	}
	if len(cleaned) < MinPlayers || len(cleaned) > MaxPlayers {
		return nil, fmt.Errorf("%w: got %d players", ErrInvalidPlayerCount, len(cleaned))
	}
	return cleaned, nil
}
