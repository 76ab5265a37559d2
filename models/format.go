package models

// Format определяет схему турнира в зависимости от количества игроков.
type Format string

const (
	FormatFull    Format = "full"
	FormatTriples Format = "triples"
	FormatDoubles Format = "doubles"
)

func (f Format) IsValid() bool {
	switch f {
	case FormatFull, FormatTriples, FormatDoubles:
		return true
	default:
		return false
	}
}

// TeamSize is the nominal number of players per atomic team. Full teams
// are sized by the player count, so 0 is returned for them.
func (f Format) TeamSize() int {
	switch f {
	case FormatTriples:
		return 3
	case FormatDoubles:
		return 2
	default:
		return 0
	}
}
