package pairing

import (
	"context"
	"errors"
	"testing"

	"github.com/Dosada05/swiss-rounds/models"
)

func enginePlayers(userIDs ...int) []*models.Player {
	players := make([]*models.Player, len(userIDs))
	for i, id := range userIDs {
		players[i] = &models.Player{
			UserID: id,
			Rating: 2000 - i*100,
		}
	}
	return players
}

func engineInput(round int, players []*models.Player, history []*models.Pairing) Input {
	return Input{
		Tournament: &models.Tournament{ID: 1, Round: round, Status: models.StatusOngoing},
		Players:    players,
		Pairings:   history,
	}
}

func finished(white, black int, result string) *models.Pairing {
	return &models.Pairing{
		TournamentID: 1,
		WhiteUserID:  white,
		BlackUserID:  black,
		Status:       models.PairingFinished,
		Result:       &result,
	}
}

func pairSet(t *testing.T, outcomes []models.PendingOutcome) map[[2]int]bool {
	t.Helper()
	pairs := make(map[[2]int]bool)
	for _, o := range outcomes {
		if o.Pairing == nil {
			continue
		}
		pairs[pairKey(o.Pairing.White, o.Pairing.Black)] = true
	}
	return pairs
}

func TestSwissEngineRoundCap(t *testing.T) {
	engine := NewSwissEngine(3)
	in := engineInput(3, enginePlayers(1, 2), nil)

	_, err := engine.ComputePairings(context.Background(), in)
	if !errors.Is(err, ErrRoundCapReached) {
		t.Fatalf("err = %v, want ErrRoundCapReached", err)
	}
	var oerr *OracleError
	if !errors.As(err, &oerr) {
		t.Fatal("round cap must surface as an OracleError")
	}
	if oerr.Message == "" || oerr.RawInput == "" {
		t.Errorf("OracleError missing context: %+v", oerr)
	}
}

func TestSwissEngineNoCap(t *testing.T) {
	engine := NewSwissEngine(0)
	in := engineInput(100, enginePlayers(1, 2), nil)

	outcomes, err := engine.ComputePairings(context.Background(), in)
	if err != nil {
		t.Fatalf("ComputePairings: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("outcomes = %d, want 1", len(outcomes))
	}
}

func TestSwissEngineTooFewPlayers(t *testing.T) {
	engine := NewSwissEngine(0)
	for _, players := range [][]*models.Player{nil, enginePlayers(1)} {
		outcomes, err := engine.ComputePairings(context.Background(), engineInput(0, players, nil))
		if err != nil {
			t.Fatalf("ComputePairings: %v", err)
		}
		if len(outcomes) != 0 {
			t.Errorf("outcomes = %+v, want none for %d players", outcomes, len(players))
		}
	}
}

func TestSwissEngineFirstRoundHalves(t *testing.T) {
	engine := NewSwissEngine(0)
	in := engineInput(0, enginePlayers(1, 2, 3, 4), nil)

	outcomes, err := engine.ComputePairings(context.Background(), in)
	if err != nil {
		t.Fatalf("ComputePairings: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2", len(outcomes))
	}

	// Top half meets bottom half, colors alternating down the boards.
	first, second := outcomes[0].Pairing, outcomes[1].Pairing
	if first == nil || first.White != 1 || first.Black != 3 {
		t.Errorf("board 1 = %+v, want 1 (white) vs 3", first)
	}
	if second == nil || second.White != 4 || second.Black != 2 {
		t.Errorf("board 2 = %+v, want 4 (white) vs 2", second)
	}
}

func TestSwissEngineOddPlayerBye(t *testing.T) {
	engine := NewSwissEngine(0)
	in := engineInput(0, enginePlayers(1, 2, 3, 4, 5), nil)

	outcomes, err := engine.ComputePairings(context.Background(), in)
	if err != nil {
		t.Fatalf("ComputePairings: %v", err)
	}
	if len(outcomes) != 3 {
		t.Fatalf("outcomes = %d, want bye plus two pairings", len(outcomes))
	}
	if !outcomes[0].IsBye() || *outcomes[0].Bye != 5 {
		t.Errorf("bye = %+v, want lowest-ranked user 5", outcomes[0])
	}
}

func TestSwissEngineByeNeverRepeats(t *testing.T) {
	players := enginePlayers(1, 2, 3, 4, 5)
	players[4].ByeRounds = []int64{1} // user 5 already sat out

	engine := NewSwissEngine(0)
	outcomes, err := engine.ComputePairings(context.Background(), engineInput(1, players, nil))
	if err != nil {
		t.Fatalf("ComputePairings: %v", err)
	}

	var bye *int
	for _, o := range outcomes {
		if o.IsBye() {
			bye = o.Bye
		}
	}
	if bye == nil {
		t.Fatal("odd roster must produce a bye")
	}
	if *bye == 5 {
		t.Error("user 5 received a second bye while others had none")
	}
}

func TestSwissEngineSkipsWithdrawn(t *testing.T) {
	players := enginePlayers(1, 2, 3, 4)
	players[1].Withdrawn = true

	engine := NewSwissEngine(0)
	outcomes, err := engine.ComputePairings(context.Background(), engineInput(0, players, nil))
	if err != nil {
		t.Fatalf("ComputePairings: %v", err)
	}
	for _, o := range outcomes {
		if o.Pairing != nil && (o.Pairing.White == 2 || o.Pairing.Black == 2) {
			t.Errorf("withdrawn user 2 was paired: %+v", o)
		}
		if o.IsBye() && *o.Bye == 2 {
			t.Errorf("withdrawn user 2 received the bye")
		}
	}
}

func TestSwissEngineAvoidsRematches(t *testing.T) {
	draw := models.ResultDraw
	history := []*models.Pairing{
		finished(1, 2, draw),
		finished(3, 4, draw),
		finished(1, 3, draw),
		finished(2, 4, draw),
	}

	engine := NewSwissEngine(0)
	outcomes, err := engine.ComputePairings(context.Background(), engineInput(2, enginePlayers(1, 2, 3, 4), history))
	if err != nil {
		t.Fatalf("ComputePairings: %v", err)
	}

	pairs := pairSet(t, outcomes)
	if len(pairs) != 2 {
		t.Fatalf("pairs = %v, want 2", pairs)
	}
	if !pairs[pairKey(1, 4)] || !pairs[pairKey(2, 3)] {
		t.Errorf("pairs = %v, want the two unplayed matchups 1-4 and 2-3", pairs)
	}
}

func TestSwissEngineRematchFallback(t *testing.T) {
	draw := models.ResultDraw
	// Full round robin already played; only rematches remain.
	history := []*models.Pairing{
		finished(1, 2, draw), finished(1, 3, draw), finished(1, 4, draw),
		finished(2, 3, draw), finished(2, 4, draw), finished(3, 4, draw),
	}

	engine := NewSwissEngine(0)
	outcomes, err := engine.ComputePairings(context.Background(), engineInput(3, enginePlayers(1, 2, 3, 4), history))
	if err != nil {
		t.Fatalf("ComputePairings: %v", err)
	}
	if len(pairSet(t, outcomes)) != 2 {
		t.Errorf("outcomes = %+v, want everyone paired even when only rematches remain", outcomes)
	}
}

func TestSwissEngineLeadersMeet(t *testing.T) {
	history := []*models.Pairing{
		finished(1, 3, models.ResultWhiteWins),
		finished(4, 2, models.ResultBlackWins),
	}

	engine := NewSwissEngine(0)
	outcomes, err := engine.ComputePairings(context.Background(), engineInput(1, enginePlayers(1, 2, 3, 4), history))
	if err != nil {
		t.Fatalf("ComputePairings: %v", err)
	}

	pairs := pairSet(t, outcomes)
	if !pairs[pairKey(1, 2)] {
		t.Errorf("pairs = %v, want the two winners on board 1", pairs)
	}
	if !pairs[pairKey(3, 4)] {
		t.Errorf("pairs = %v, want the two losers paired together", pairs)
	}
}
