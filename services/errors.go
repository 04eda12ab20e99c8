package services

import "errors"

// Errors shared across services and their HTTP mapping.
var (
	ErrTournamentFinished = errors.New("tournament has already finished")

	ErrNotMicroMatch       = errors.New("pairing is not a micro-match")
	ErrSecondLegExists     = errors.New("micro-match second leg already created")
	ErrIDReservationFailed = errors.New("game identifier reservation failed")
)
