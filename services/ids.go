package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// GameIDReserver issues batches of unique game identifiers. Length-preserving
// and never reusing: ReserveIDs(n) returns exactly n fresh ids.
type GameIDReserver interface {
	ReserveIDs(ctx context.Context, count int) ([]string, error)
}

type uuidIDReserver struct{}

// NewUUIDIDReserver returns a GameIDReserver backed by random UUIDs.
func NewUUIDIDReserver() GameIDReserver {
	return uuidIDReserver{}
}

func (uuidIDReserver) ReserveIDs(_ context.Context, count int) ([]string, error) {
	ids := make([]string, count)
	for i := range ids {
		id, err := uuid.NewRandom()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIDReservationFailed, err)
		}
		ids[i] = id.String()
	}
	return ids, nil
}
