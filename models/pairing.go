package models

import "time"

type PairingStatus string

const (
	PairingOngoing  PairingStatus = "ongoing"
	PairingFinished PairingStatus = "finished"
)

// Game results as stored on a finished pairing.
const (
	ResultWhiteWins = "1-0"
	ResultBlackWins = "0-1"
	ResultDraw      = "1/2-1/2"
)

// Pairing assigns two participants to opposing sides for one round. Its ID
// doubles as the resulting game's ID. Side assignment is immutable once
// created; match progress is recorded elsewhere.
type Pairing struct {
	ID           string        `json:"id" db:"id"`
	TournamentID int           `json:"tournament_id" db:"tournament_id"`
	Round        int           `json:"round" db:"round"`
	WhiteUserID  int           `json:"white_user_id" db:"white_user_id"`
	BlackUserID  int           `json:"black_user_id" db:"black_user_id"`
	Status       PairingStatus `json:"status" db:"status"`
	Result       *string       `json:"result,omitempty" db:"result"`
	MicroMatch   bool          `json:"micro_match" db:"micro_match"`
	// SecondGameID is the micro-match second leg, assigned when that leg is
	// materialized (not at round start).
	SecondGameID *string   `json:"second_game_id,omitempty" db:"second_game_id"`
	OpeningFEN   *string   `json:"opening_fen,omitempty" db:"opening_fen"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func (p *Pairing) Has(userID int) bool {
	return p.WhiteUserID == userID || p.BlackUserID == userID
}

func (p *Pairing) Opponent(userID int) (int, bool) {
	switch userID {
	case p.WhiteUserID:
		return p.BlackUserID, true
	case p.BlackUserID:
		return p.WhiteUserID, true
	}
	return 0, false
}

// PendingPairing is an oracle-produced assignment that has not been
// materialized yet: side-1 maps to white, side-2 to black.
type PendingPairing struct {
	White int `json:"white"`
	Black int `json:"black"`
}

// PendingOutcome is the oracle output for one participant slot of the
// upcoming round: either a bye or a pending pairing. Never persisted
// standalone.
type PendingOutcome struct {
	Bye     *int            `json:"bye,omitempty"`
	Pairing *PendingPairing `json:"pairing,omitempty"`
}

func ByeOutcome(userID int) PendingOutcome {
	return PendingOutcome{Bye: &userID}
}

func PairingOutcome(white, black int) PendingOutcome {
	return PendingOutcome{Pairing: &PendingPairing{White: white, Black: black}}
}

func (o PendingOutcome) IsBye() bool {
	return o.Bye != nil
}
