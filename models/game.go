package models

import "time"

type GameStatus string

const (
	GameCreated GameStatus = "created"
	GameStarted GameStatus = "started"
)

// GamePlayer is the per-side player snapshot frozen into a game at creation.
type GamePlayer struct {
	UserID      int  `json:"user_id"`
	Rating      int  `json:"rating"`
	Provisional bool `json:"provisional"`
}

// Game is the startable artifact produced for one pairing. This subsystem
// only creates games; it never runs game logic afterwards.
type Game struct {
	ID           string      `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	Variant      Variant     `json:"variant" db:"variant"`
	InitialFEN   *string     `json:"initial_fen,omitempty" db:"initial_fen"`
	White        GamePlayer  `json:"white"`
	Black        GamePlayer  `json:"black"`
	Clock        ClockConfig `json:"clock"`
	Rated        bool        `json:"rated" db:"rated"`
	// Turns counts plies from the game's own start. StartedAtTurn is non-zero
	// when the starting position implies the second side moves first.
	Turns         int        `json:"turns" db:"turns"`
	StartedAtTurn int        `json:"started_at_turn" db:"started_at_turn"`
	Status        GameStatus `json:"status" db:"status"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
}
