package models

import "time"

// Player is one tournament participant. ByeRounds holds every round number in
// which the participant sat out; a round number appears at most once.
type Player struct {
	ID           int       `json:"id" db:"id"`
	TournamentID int       `json:"tournament_id" db:"tournament_id"`
	UserID       int       `json:"user_id" db:"user_id"`
	Rating       int       `json:"rating" db:"rating"`
	Provisional  bool      `json:"provisional" db:"provisional"`
	Withdrawn    bool      `json:"withdrawn" db:"withdrawn"`
	ByeRounds    []int64   `json:"bye_rounds" db:"bye_rounds"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

func (p *Player) HasByeIn(round int) bool {
	for _, r := range p.ByeRounds {
		if int(r) == round {
			return true
		}
	}
	return false
}
