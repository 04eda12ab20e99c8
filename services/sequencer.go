package services

import "sync"

// TournamentSequencer serializes round advances per tournament. StartRound is
// not internally safe against concurrent calls for the same tournament, so
// every caller (scheduler ticker, admin trigger) must go through this.
// Different tournaments proceed in parallel.
type TournamentSequencer struct {
	mu    sync.Mutex
	locks map[int]*tournamentLock
}

type tournamentLock struct {
	mu   sync.Mutex
	refs int
}

func NewTournamentSequencer() *TournamentSequencer {
	return &TournamentSequencer{locks: make(map[int]*tournamentLock)}
}

// Do runs fn while holding the tournament's lock.
func (s *TournamentSequencer) Do(tournamentID int, fn func()) {
	lock := s.acquire(tournamentID)
	lock.mu.Lock()
	defer func() {
		lock.mu.Unlock()
		s.release(tournamentID, lock)
	}()
	fn()
}

func (s *TournamentSequencer) acquire(tournamentID int) *tournamentLock {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[tournamentID]
	if !ok {
		lock = &tournamentLock{}
		s.locks[tournamentID] = lock
	}
	lock.refs++
	return lock
}

func (s *TournamentSequencer) release(tournamentID int, lock *tournamentLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock.refs--
	if lock.refs == 0 {
		delete(s.locks, tournamentID)
	}
}
