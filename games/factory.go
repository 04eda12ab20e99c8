package games

import (
	"errors"
	"fmt"
	"time"

	"github.com/notnil/chess"

	"github.com/Dosada05/swiss-rounds/models"
)

// ErrPlayerMissing means a pairing references a participant absent from the
// freshly loaded roster. That is a roster/pairing desynchronization upstream
// and must abort the invocation, never be swallowed.
var ErrPlayerMissing = errors.New("pairing references a player missing from the roster")

// Roster is the participant lookup snapshot taken at the start of a round
// advance.
type Roster map[int]*models.Player

func RosterFromPlayers(players []*models.Player) Roster {
	roster := make(Roster, len(players))
	for _, p := range players {
		roster[p.UserID] = p
	}
	return roster
}

// MakeGame builds one startable game from a pairing and the roster snapshot.
// Side-1 (white) of the pairing maps to the game's white side unless rematch
// is set (the second leg of a micro-match), which swaps the mapping. In
// rematch mode the game id is the pairing's second-leg id.
func MakeGame(t *models.Tournament, p *models.Pairing, roster Roster, rematch bool) (*models.Game, error) {
	whiteID, blackID := p.WhiteUserID, p.BlackUserID
	gameID := p.ID
	if rematch {
		whiteID, blackID = blackID, whiteID
		if p.SecondGameID == nil {
			return nil, fmt.Errorf("pairing %s: rematch requested without a second game id", p.ID)
		}
		gameID = *p.SecondGameID
	}

	white, ok := roster[whiteID]
	if !ok {
		return nil, fmt.Errorf("pairing %s: user %d: %w", p.ID, whiteID, ErrPlayerMissing)
	}
	black, ok := roster[blackID]
	if !ok {
		return nil, fmt.Errorf("pairing %s: user %d: %w", p.ID, blackID, ErrPlayerMissing)
	}

	variant := t.Settings.Variant
	startedAtTurn := 0
	if p.OpeningFEN != nil {
		if variant != models.VariantChess960 {
			variant = models.VariantFromPosition
		}
		turn, err := sideToMove(*p.OpeningFEN)
		if err != nil {
			return nil, fmt.Errorf("pairing %s: %w", p.ID, err)
		}
		if turn == chess.Black {
			startedAtTurn = 1
		}
	}

	return &models.Game{
		ID:           gameID,
		TournamentID: t.ID,
		Variant:      variant,
		InitialFEN:   p.OpeningFEN,
		White: models.GamePlayer{
			UserID:      white.UserID,
			Rating:      white.Rating,
			Provisional: white.Provisional,
		},
		Black: models.GamePlayer{
			UserID:      black.UserID,
			Rating:      black.Rating,
			Provisional: black.Provisional,
		},
		Clock:         t.Settings.Clock,
		Rated:         t.Settings.Rated,
		Turns:         startedAtTurn,
		StartedAtTurn: startedAtTurn,
		Status:        models.GameCreated,
		CreatedAt:     time.Now(),
	}, nil
}

func sideToMove(fen string) (chess.Color, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return chess.NoColor, fmt.Errorf("invalid starting position %q: %w", fen, err)
	}
	game := chess.NewGame(opt)
	return game.Position().Turn(), nil
}
