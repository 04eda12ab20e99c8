package models

import "time"

// TournamentStatus represents swiss tournament statuses, matching the ENUM in the DB.
type TournamentStatus string

const (
	StatusCreated  TournamentStatus = "created"
	StatusOngoing  TournamentStatus = "ongoing"
	StatusFinished TournamentStatus = "finished"
)

// Variant identifies the chess variant a tournament is played in.
type Variant string

const (
	VariantStandard   Variant = "standard"
	VariantChess960   Variant = "chess960"
	VariantCrazyhouse Variant = "crazyhouse"
	// VariantFromPosition is the position-capable substitute used for games
	// that start from a configured FEN instead of the default start.
	VariantFromPosition Variant = "fromPosition"
)

// ClockConfig is the per-game clock copied onto every created game.
type ClockConfig struct {
	LimitSeconds     int `json:"limit_seconds" db:"clock_limit"`
	IncrementSeconds int `json:"increment_seconds" db:"clock_increment"`
}

// TournamentSettings are fixed at creation time and read by every round advance.
type TournamentSettings struct {
	Variant Variant     `json:"variant"`
	Clock   ClockConfig `json:"clock"`
	Rated   bool        `json:"rated"`
	// Position is an optional fixed starting FEN. Nil means default start.
	Position *string `json:"position,omitempty"`
	// OpeningTables enables a per-round uniform draw from the variant's
	// opening-table catalog instead of Position.
	OpeningTables bool `json:"opening_tables"`
	// MicroMatch marks pairings as two linked mini-games instead of one.
	MicroMatch bool `json:"micro_match"`
}

// Tournament is the swiss object. Round is monotonically non-decreasing and
// increases by exactly 1 per successful advance.
type Tournament struct {
	ID       int                `json:"id" db:"id"`
	Name     string             `json:"name" db:"name"`
	Round    int                `json:"round" db:"round"`
	Status   TournamentStatus   `json:"status" db:"status"`
	Settings TournamentSettings `json:"settings"`
	// NbOngoing is the number of games still running in the current round.
	NbOngoing   int        `json:"nb_ongoing" db:"nb_ongoing"`
	LastRoundAt *time.Time `json:"last_round_at,omitempty" db:"last_round_at"`
	// NextRoundAt schedules the next advance; cleared once the round starts.
	NextRoundAt *time.Time `json:"next_round_at,omitempty" db:"next_round_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

func (t *Tournament) IsFinished() bool {
	return t.Status == StatusFinished
}
