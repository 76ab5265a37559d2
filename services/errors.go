package services

import "errors"

var (
	// Ошибки состава игроков и формата
	ErrInvalidPlayerCount = errors.New("invalid player list: 8 to 18 unique non-empty names are required")
	ErrInvalidComposition = errors.New("invalid team composition")

	// Ошибки счёта и матча
	ErrMatchAlreadyFinished = errors.New("match is already finished, reset it to continue scoring")
	ErrMatchNotFinishable   = errors.New("match cannot be finished yet: score has not reached the target with the required lead")
	ErrMatchTied            = errors.New("match cannot be finished with a tied score")
	ErrMatchAlreadyRecorded = errors.New("match has already been recorded and can no longer be changed")
	ErrInvalidSide          = errors.New("side must be 1 or 2")
	ErrInvalidScore         = errors.New("scores must not be negative")

	// Ошибки жизненного цикла турнира
	ErrNoActiveTournament = errors.New("no tournament in progress")
	ErrTournamentActive   = errors.New("a tournament is already in progress")
	ErrRoundOutOfRange    = errors.New("round is out of range")
	ErrRoundAlreadyPlayed = errors.New("round has already been played")
	ErrRoundNotStarted    = errors.New("current round has not been started")

	// Ошибки рейтинга и данных
	ErrRatingBatchPartialFailure = errors.New("rating batch failed, no rating was changed")
	ErrPlayerNotFound            = errors.New("player not found")
	ErrTournamentNotFound        = errors.New("tournament not found")
	ErrInvalidSettings           = errors.New("invalid tournament settings")
	ErrInvalidImport             = errors.New("invalid import document")
	ErrInvalidFilter             = errors.New("invalid filter")
	ErrArchiveUnavailable        = errors.New("archive storage is not configured")
)
