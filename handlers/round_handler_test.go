package handlers

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/swiss-rounds/models"
	"github.com/Dosada05/swiss-rounds/repositories"
	"github.com/Dosada05/swiss-rounds/services"
)

type fakeTournamentStore struct {
	mu         sync.Mutex
	tournament *models.Tournament
}

func (f *fakeTournamentStore) GetByID(_ context.Context, id int) (*models.Tournament, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tournament == nil || f.tournament.ID != id {
		return nil, repositories.ErrTournamentNotFound
	}
	copied := *f.tournament
	return &copied, nil
}

func (f *fakeTournamentStore) AdvanceRound(context.Context, repositories.SQLExecutor, int, int, int, time.Time) error {
	return nil
}

func (f *fakeTournamentStore) SetStatus(context.Context, repositories.SQLExecutor, int, models.TournamentStatus) error {
	return nil
}

func (f *fakeTournamentStore) ListRoundDue(context.Context, time.Time) ([]*models.Tournament, error) {
	return nil, nil
}

func (f *fakeTournamentStore) setRound(round int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tournament.Round = round
}

type fakeRoundService struct {
	mu        sync.Mutex
	seenRound int
}

func (s *fakeRoundService) StartRound(_ context.Context, t *models.Tournament) (*models.Tournament, services.StartRoundStatus, error) {
	s.mu.Lock()
	s.seenRound = t.Round
	s.mu.Unlock()
	updated := *t
	updated.Round = t.Round + 1
	return &updated, services.RoundAdvanced, nil
}

func (s *fakeRoundService) StartMicroMatchRematch(context.Context, *models.Tournament, *models.Pairing) (*models.Game, error) {
	return nil, nil
}

func startRoundRequest(tournamentID string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/tournaments/"+tournamentID+"/rounds/start", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("tournamentID", tournamentID)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func newHandlerFixture(store *fakeTournamentStore, service *fakeRoundService, seq *services.TournamentSequencer) *RoundHandler {
	return NewRoundHandler(nil, store, service, seq,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// The tournament state must be loaded after the per-tournament lock is
// acquired: a request that waits out a concurrent advance has to see the new
// round, or it would pair the same round a second time.
func TestStartRoundLoadsFreshStateUnderLock(t *testing.T) {
	store := &fakeTournamentStore{tournament: &models.Tournament{
		ID: 1, Round: 2, Status: models.StatusOngoing,
	}}
	service := &fakeRoundService{}
	seq := services.NewTournamentSequencer()
	handler := newHandlerFixture(store, service, seq)

	held := make(chan struct{})
	release := make(chan struct{})
	go seq.Do(1, func() {
		close(held)
		<-release
	})
	<-held

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		rec := httptest.NewRecorder()
		handler.StartRound(rec, startRoundRequest("1"))
		done <- rec
	}()

	// Another advance completes while the request waits on the lock.
	store.setRound(3)
	close(release)

	rec := <-done
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if service.seenRound != 3 {
		t.Errorf("service saw round %d, want the fresh round 3", service.seenRound)
	}
}

func TestStartRoundNotFound(t *testing.T) {
	handler := newHandlerFixture(&fakeTournamentStore{}, &fakeRoundService{}, services.NewTournamentSequencer())

	rec := httptest.NewRecorder()
	handler.StartRound(rec, startRoundRequest("42"))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestStartRoundFinishedTournament(t *testing.T) {
	store := &fakeTournamentStore{tournament: &models.Tournament{
		ID: 1, Round: 5, Status: models.StatusFinished,
	}}
	service := &fakeRoundService{}
	handler := newHandlerFixture(store, service, services.NewTournamentSequencer())

	rec := httptest.NewRecorder()
	handler.StartRound(rec, startRoundRequest("1"))
	if rec.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", rec.Code)
	}
	if service.seenRound != 0 {
		t.Error("finished tournament must not reach the round service")
	}
}
