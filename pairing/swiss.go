package pairing

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/Dosada05/swiss-rounds/models"
)

// SwissEngine is the default, in-process pairing oracle: score groups, rating
// order inside groups, rematch avoidance where possible, and an odd-player
// bye that never hits the same participant twice while anyone else is left.
type SwissEngine struct {
	// MaxRounds caps how many rounds the engine will pair. Zero means no cap.
	MaxRounds int
}

func NewSwissEngine(maxRounds int) Oracle {
	return &SwissEngine{MaxRounds: maxRounds}
}

func (e *SwissEngine) GetName() string {
	return "Swiss"
}

type rankedPlayer struct {
	UserID int
	Rating int
	Score  float64
	Byes   int
}

func (e *SwissEngine) ComputePairings(ctx context.Context, in Input) ([]models.PendingOutcome, error) {
	newRound := in.Tournament.Round + 1
	if e.MaxRounds > 0 && newRound > e.MaxRounds {
		return nil, &OracleError{
			Message:  fmt.Sprintf("round %d requested but engine is capped at %d rounds", newRound, e.MaxRounds),
			RawInput: encodeInput(in),
			Err:      ErrRoundCapReached,
		}
	}

	ranked := rankPlayers(in)
	if len(ranked) < 2 {
		// Nothing left to pair; the tournament has reached its natural end.
		return nil, nil
	}

	played := playedPairs(in.Pairings)
	whiteCounts := whiteGameCounts(in.Pairings)

	outcomes := make([]models.PendingOutcome, 0, len(ranked)/2+1)

	if len(ranked)%2 == 1 {
		bye := popByePlayer(&ranked)
		outcomes = append(outcomes, models.ByeOutcome(bye.UserID))
	}

	if newRound == 1 && len(in.Pairings) == 0 {
		// First round: top half against bottom half, alternating colors down
		// the boards.
		half := len(ranked) / 2
		for i := 0; i < half; i++ {
			top, bottom := ranked[i], ranked[i+half]
			if i%2 == 0 {
				outcomes = append(outcomes, models.PairingOutcome(top.UserID, bottom.UserID))
			} else {
				outcomes = append(outcomes, models.PairingOutcome(bottom.UserID, top.UserID))
			}
		}
		return outcomes, nil
	}

	paired := make([]bool, len(ranked))
	for i := range ranked {
		if paired[i] {
			continue
		}
		opp := -1
		for j := i + 1; j < len(ranked); j++ {
			if paired[j] {
				continue
			}
			if !played[pairKey(ranked[i].UserID, ranked[j].UserID)] {
				opp = j
				break
			}
			if opp == -1 {
				opp = j // rematch fallback when everyone below was already met
			}
		}
		if opp == -1 {
			break
		}
		paired[i], paired[opp] = true, true
		white, black := assignColors(ranked[i], ranked[opp], whiteCounts)
		outcomes = append(outcomes, models.PairingOutcome(white, black))
	}

	return outcomes, nil
}

// rankPlayers orders the active roster by score, then rating, then user id.
func rankPlayers(in Input) []rankedPlayer {
	scores := scoresFromHistory(in)

	ranked := make([]rankedPlayer, 0, len(in.Players))
	for _, p := range in.Players {
		if p.Withdrawn {
			continue
		}
		ranked = append(ranked, rankedPlayer{
			UserID: p.UserID,
			Rating: p.Rating,
			Score:  scores[p.UserID],
			Byes:   len(p.ByeRounds),
		})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if ranked[i].Rating != ranked[j].Rating {
			return ranked[i].Rating > ranked[j].Rating
		}
		return ranked[i].UserID < ranked[j].UserID
	})
	return ranked
}

// scoresFromHistory tallies 1/0.5/0 per finished pairing plus 1 per bye.
func scoresFromHistory(in Input) map[int]float64 {
	scores := make(map[int]float64, len(in.Players))
	for _, p := range in.Pairings {
		if p.Status != models.PairingFinished || p.Result == nil {
			continue
		}
		switch *p.Result {
		case models.ResultWhiteWins:
			scores[p.WhiteUserID]++
		case models.ResultBlackWins:
			scores[p.BlackUserID]++
		case models.ResultDraw:
			scores[p.WhiteUserID] += 0.5
			scores[p.BlackUserID] += 0.5
		}
	}
	for _, p := range in.Players {
		scores[p.UserID] += float64(len(p.ByeRounds))
	}
	return scores
}

func playedPairs(history []*models.Pairing) map[[2]int]bool {
	played := make(map[[2]int]bool, len(history))
	for _, p := range history {
		played[pairKey(p.WhiteUserID, p.BlackUserID)] = true
	}
	return played
}

func whiteGameCounts(history []*models.Pairing) map[int]int {
	counts := make(map[int]int, len(history))
	for _, p := range history {
		counts[p.WhiteUserID]++
	}
	return counts
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// popByePlayer removes and returns the bye recipient: the lowest-ranked
// player who has not had a bye yet, falling back to the lowest-ranked one.
func popByePlayer(ranked *[]rankedPlayer) rankedPlayer {
	rs := *ranked
	idx := len(rs) - 1
	for i := len(rs) - 1; i >= 0; i-- {
		if rs[i].Byes == 0 {
			idx = i
			break
		}
	}
	bye := rs[idx]
	*ranked = append(rs[:idx], rs[idx+1:]...)
	return bye
}

// assignColors gives white to whoever has had it less often; ties go to the
// lower-ranked side to even out the pressure of playing up.
func assignColors(a, b rankedPlayer, whiteCounts map[int]int) (white, black int) {
	if whiteCounts[a.UserID] > whiteCounts[b.UserID] {
		return b.UserID, a.UserID
	}
	if whiteCounts[a.UserID] < whiteCounts[b.UserID] {
		return a.UserID, b.UserID
	}
	return b.UserID, a.UserID
}

// encodeInput renders the oracle input for OracleError.RawInput.
func encodeInput(in Input) string {
	type playerLine struct {
		UserID int     `json:"user_id"`
		Rating int     `json:"rating"`
		Byes   []int64 `json:"byes,omitempty"`
	}
	var raw struct {
		TournamentID int          `json:"tournament_id"`
		Round        int          `json:"round"`
		Players      []playerLine `json:"players"`
		NbPairings   int          `json:"nb_pairings"`
	}
	raw.TournamentID = in.Tournament.ID
	raw.Round = in.Tournament.Round
	raw.NbPairings = len(in.Pairings)
	for _, p := range in.Players {
		raw.Players = append(raw.Players, playerLine{UserID: p.UserID, Rating: p.Rating, Byes: p.ByeRounds})
	}
	out, err := json.Marshal(raw)
	if err != nil {
		return fmt.Sprintf("tournament %d round %d (%d players)", in.Tournament.ID, in.Tournament.Round, len(in.Players))
	}
	return string(out)
}
