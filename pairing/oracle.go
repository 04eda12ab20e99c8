package pairing

import (
	"context"
	"errors"
	"fmt"

	"github.com/Dosada05/swiss-rounds/models"
)

// ErrRoundCapReached is the failure class an oracle reports when the
// requested round count exceeds its configured maximum. Callers treat it as
// a no-op termination signal for the tournament, not as a computation bug.
var ErrRoundCapReached = errors.New("requested round count exceeds the configured maximum")

// Input is the full tournament state handed to the oracle: the round being
// started is Tournament.Round+1.
type Input struct {
	Tournament *models.Tournament
	Players    []*models.Player
	// Pairings is the full pairing history of the tournament.
	Pairings []*models.Pairing
}

// Oracle computes the outcomes (byes and pending pairings) for the upcoming
// round. An empty result is valid and means no further round can be paired.
// The algorithm behind the interface may be local or out-of-process; the
// scheduler depends only on this contract.
type Oracle interface {
	ComputePairings(ctx context.Context, in Input) ([]models.PendingOutcome, error)
	GetName() string
}

// OracleError carries the human-readable failure message together with the
// raw input that was fed to the algorithm, for diagnosis.
type OracleError struct {
	Message  string
	RawInput string
	Err      error
}

func (e *OracleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pairing oracle: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("pairing oracle: %s", e.Message)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}
