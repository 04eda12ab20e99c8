package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/swiss-rounds/games"
	"github.com/Dosada05/swiss-rounds/models"
	"github.com/Dosada05/swiss-rounds/pairing"
	"github.com/Dosada05/swiss-rounds/repositories"
)

// StartRoundStatus is the round-advance outcome from the caller's
// perspective.
type StartRoundStatus int

const (
	// RoundAdvanced: a new round started; the returned tournament carries the
	// updated state.
	RoundAdvanced StartRoundStatus = iota
	// RoundNotAdvanced: the oracle reached its round ceiling or produced no
	// pending pairings. The caller should stop scheduling further rounds.
	RoundNotAdvanced
	// RoundUnchanged: a recoverable failure before any write; the input state
	// is returned untouched and the caller retries on its own schedule.
	RoundUnchanged
)

// GameStartNotifier is invoked once per newly created game, after that
// game's persistence write completes.
type GameStartNotifier interface {
	GameStarted(tournamentID int, gameID string)
}

type RoundService interface {
	// StartRound advances the tournament by one round. The caller must
	// guarantee at most one in-flight invocation per tournament (see
	// TournamentSequencer). On a non-nil error the status is RoundUnchanged
	// by convention, but persisted state may be partially advanced: this
	// subsystem performs no rollback, and every write is idempotent so a
	// retry completes the round instead of duplicating it.
	StartRound(ctx context.Context, tournament *models.Tournament) (*models.Tournament, StartRoundStatus, error)
	// StartMicroMatchRematch materializes the second leg of a micro-match
	// pairing with colors swapped.
	StartMicroMatchRematch(ctx context.Context, tournament *models.Tournament, p *models.Pairing) (*models.Game, error)
}

type roundService struct {
	exec           repositories.SQLExecutor
	tournamentRepo repositories.TournamentRepository
	playerRepo     repositories.PlayerRepository
	pairingRepo    repositories.PairingRepository
	gameRepo       repositories.GameRepository
	oracle         pairing.Oracle
	ids            GameIDReserver
	notifier       GameStartNotifier
	catalogs       games.CatalogProvider
	rng            games.Rand
	logger         *slog.Logger
	now            func() time.Time
}

func NewRoundService(
	exec repositories.SQLExecutor,
	tournamentRepo repositories.TournamentRepository,
	playerRepo repositories.PlayerRepository,
	pairingRepo repositories.PairingRepository,
	gameRepo repositories.GameRepository,
	oracle pairing.Oracle,
	ids GameIDReserver,
	notifier GameStartNotifier,
	catalogs games.CatalogProvider,
	rng games.Rand,
	logger *slog.Logger,
) RoundService {
	return &roundService{
		exec:           exec,
		tournamentRepo: tournamentRepo,
		playerRepo:     playerRepo,
		pairingRepo:    pairingRepo,
		gameRepo:       gameRepo,
		oracle:         oracle,
		ids:            ids,
		notifier:       notifier,
		catalogs:       catalogs,
		rng:            rng,
		logger:         logger,
		now:            time.Now,
	}
}

func (s *roundService) StartRound(ctx context.Context, tournament *models.Tournament) (*models.Tournament, StartRoundStatus, error) {
	// Snapshot the roster and pairing history in one parallel load; the
	// whole advance works off this snapshot.
	var (
		players []*models.Player
		history []*models.Pairing
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		players, err = s.playerRepo.ListByTournament(gCtx, tournament.ID)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.pairingRepo.ListByTournament(gCtx, tournament.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("failed to load tournament snapshot",
			slog.Int("tournament_id", tournament.ID), slog.Any("error", err))
		return tournament, RoundUnchanged, nil
	}

	// Step 1-2: ask the oracle; a round-cap failure is a termination signal,
	// anything else is logged and retried later by the caller.
	outcomes, err := s.oracle.ComputePairings(ctx, pairing.Input{
		Tournament: tournament,
		Players:    players,
		Pairings:   history,
	})
	if err != nil {
		if isRoundCapReached(err) {
			s.logger.Info("pairing oracle reached its round ceiling",
				slog.Int("tournament_id", tournament.ID), slog.Int("round", tournament.Round))
			return nil, RoundNotAdvanced, nil
		}
		logOracleFailure(s.logger, tournament.ID, err)
		return tournament, RoundUnchanged, nil
	}

	// Step 3-4: partition; a round with only byes (or nothing) never starts.
	byes, pendings := partitionOutcomes(outcomes)
	if len(pendings) == 0 {
		return nil, RoundNotAdvanced, nil
	}

	// Step 5: one opening position per round, shared by every pairing.
	opening := games.SelectOpening(ctx, tournament.Settings, s.catalogs, s.rng)

	// Step 6: one fresh id per pending pairing.
	ids, err := s.ids.ReserveIDs(ctx, len(pendings))
	if err != nil {
		s.logger.Error("failed to reserve game ids",
			slog.Int("tournament_id", tournament.ID), slog.Any("error", err))
		return tournament, RoundUnchanged, nil
	}

	// Step 7: build pairing records in oracle order, ids assigned in order.
	newRound := tournament.Round + 1
	pairings := make([]*models.Pairing, len(pendings))
	for i, pd := range pendings {
		pairings[i] = &models.Pairing{
			ID:           ids[i],
			TournamentID: tournament.ID,
			Round:        newRound,
			WhiteUserID:  pd.White,
			BlackUserID:  pd.Black,
			Status:       models.PairingOngoing,
			MicroMatch:   tournament.Settings.MicroMatch,
			OpeningFEN:   opening,
		}
	}

	// A pairing referencing a player outside the snapshot means the roster
	// raced a withdrawal upstream. Fail loudly before anything is persisted.
	roster := games.RosterFromPlayers(players)
	for _, p := range pairings {
		if _, ok := roster[p.WhiteUserID]; !ok {
			return nil, RoundUnchanged, fmt.Errorf("tournament %d round %d: user %d: %w",
				tournament.ID, newRound, p.WhiteUserID, games.ErrPlayerMissing)
		}
		if _, ok := roster[p.BlackUserID]; !ok {
			return nil, RoundUnchanged, fmt.Errorf("tournament %d round %d: user %d: %w",
				tournament.ID, newRound, p.BlackUserID, games.ErrPlayerMissing)
		}
	}

	// Step 8: persist in order: tournament fields, bye set unions, pairing
	// batch. No enclosing transaction; each write is idempotent so a retry
	// after a partial failure converges instead of duplicating.
	startedAt := s.now()
	if err := s.tournamentRepo.AdvanceRound(ctx, s.exec, tournament.ID, newRound, len(pairings), startedAt); err != nil {
		return nil, RoundUnchanged, fmt.Errorf("advance round: %w", err)
	}
	for _, userID := range byes {
		if err := s.playerRepo.AddByeRound(ctx, s.exec, tournament.ID, userID, newRound); err != nil {
			return nil, RoundUnchanged, fmt.Errorf("record bye for user %d: %w", userID, err)
		}
	}
	if err := s.pairingRepo.InsertBatch(ctx, s.exec, pairings); err != nil {
		return nil, RoundUnchanged, fmt.Errorf("insert pairings: %w", err)
	}

	// Step 9: one game at a time, in pairing order: build, persist, announce.
	// Deliberately serial so downstream side effects (clocks, warmups,
	// notifications) fan out in a stable, auditable order.
	for _, p := range pairings {
		game, err := games.MakeGame(tournament, p, roster, false)
		if err != nil {
			return nil, RoundUnchanged, fmt.Errorf("build game for pairing %s: %w", p.ID, err)
		}
		if err := s.gameRepo.Insert(ctx, s.exec, game); err != nil {
			return nil, RoundUnchanged, fmt.Errorf("persist game %s: %w", game.ID, err)
		}
		s.notifier.GameStarted(tournament.ID, game.ID)
	}

	updated := *tournament
	updated.Round = newRound
	updated.NbOngoing = len(pairings)
	updated.LastRoundAt = &startedAt
	updated.NextRoundAt = nil

	s.logger.Info("round started",
		slog.Int("tournament_id", tournament.ID),
		slog.Int("round", newRound),
		slog.Int("pairings", len(pairings)),
		slog.Int("byes", len(byes)))

	return &updated, RoundAdvanced, nil
}

func (s *roundService) StartMicroMatchRematch(ctx context.Context, tournament *models.Tournament, p *models.Pairing) (*models.Game, error) {
	if !p.MicroMatch {
		return nil, ErrNotMicroMatch
	}

	// A recorded second-leg id with no persisted game means a previous
	// attempt failed after the id write; the retry reuses that id and
	// finishes materializing instead of burning a fresh one.
	var gameID string
	if p.SecondGameID != nil {
		if _, err := s.gameRepo.GetByID(ctx, *p.SecondGameID); err == nil {
			return nil, ErrSecondLegExists
		} else if !errors.Is(err, repositories.ErrGameNotFound) {
			return nil, fmt.Errorf("check second leg of pairing %s: %w", p.ID, err)
		}
		gameID = *p.SecondGameID
	} else {
		ids, err := s.ids.ReserveIDs(ctx, 1)
		if err != nil {
			return nil, fmt.Errorf("reserve second leg id: %w", err)
		}
		if err := s.pairingRepo.SetSecondGameID(ctx, s.exec, p.ID, ids[0]); err != nil {
			return nil, fmt.Errorf("record second leg id on pairing %s: %w", p.ID, err)
		}
		gameID = ids[0]
	}

	players, err := s.playerRepo.ListByTournament(ctx, tournament.ID)
	if err != nil {
		return nil, fmt.Errorf("load roster for rematch: %w", err)
	}

	leg := *p
	leg.SecondGameID = &gameID
	game, err := games.MakeGame(tournament, &leg, games.RosterFromPlayers(players), true)
	if err != nil {
		return nil, fmt.Errorf("build rematch game for pairing %s: %w", p.ID, err)
	}
	if err := s.gameRepo.Insert(ctx, s.exec, game); err != nil {
		return nil, fmt.Errorf("persist rematch game %s: %w", game.ID, err)
	}
	s.notifier.GameStarted(tournament.ID, game.ID)
	return game, nil
}

func partitionOutcomes(outcomes []models.PendingOutcome) (byes []int, pendings []models.PendingPairing) {
	for _, o := range outcomes {
		switch {
		case o.Bye != nil:
			byes = append(byes, *o.Bye)
		case o.Pairing != nil:
			pendings = append(pendings, *o.Pairing)
		}
	}
	return byes, pendings
}

func isRoundCapReached(err error) bool {
	return errors.Is(err, pairing.ErrRoundCapReached)
}

func logOracleFailure(logger *slog.Logger, tournamentID int, err error) {
	var oerr *pairing.OracleError
	if errors.As(err, &oerr) {
		logger.Error("pairing oracle failed",
			slog.Int("tournament_id", tournamentID),
			slog.String("message", oerr.Message),
			slog.String("raw_input", oerr.RawInput))
		return
	}
	logger.Error("pairing oracle failed",
		slog.Int("tournament_id", tournamentID), slog.Any("error", err))
}
