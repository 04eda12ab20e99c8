package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dosada05/swiss-rounds/models"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	// AdvanceRound moves the tournament to the given round, sets the ongoing
	// game count, stamps the round start and clears any scheduled next round.
	// Idempotent: re-applying the same round on a retry is a no-op update,
	// and the round number never decreases.
	AdvanceRound(ctx context.Context, exec SQLExecutor, id, round, nbOngoing int, lastRoundAt time.Time) error
	SetStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error
	// ListRoundDue returns ongoing tournaments whose next_round_at marker has
	// passed.
	ListRoundDue(ctx context.Context, now time.Time) ([]*models.Tournament, error)
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

const tournamentColumns = `
	id, name, round, status, variant, clock_limit, clock_increment, rated,
	position_fen, opening_tables, micro_match, nb_ongoing, last_round_at,
	next_round_at, created_at`

func (r *postgresTournamentRepository) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + ` FROM swiss_tournaments WHERE id = $1`
	t, err := scanTournament(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to scan tournament %d: %w", id, err)
	}
	return t, nil
}

func (r *postgresTournamentRepository) AdvanceRound(ctx context.Context, exec SQLExecutor, id, round, nbOngoing int, lastRoundAt time.Time) error {
	query := `
		UPDATE swiss_tournaments
		SET round = $2, nb_ongoing = $3, last_round_at = $4, next_round_at = NULL
		WHERE id = $1 AND round <= $2`

	result, err := exec.ExecContext(ctx, query, id, round, nbOngoing, lastRoundAt)
	if err != nil {
		return fmt.Errorf("failed to advance tournament %d to round %d: %w", id, round, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) SetStatus(ctx context.Context, exec SQLExecutor, id int, status models.TournamentStatus) error {
	query := `UPDATE swiss_tournaments SET status = $2 WHERE id = $1`
	result, err := exec.ExecContext(ctx, query, id, status)
	if err != nil {
		return fmt.Errorf("failed to set status %q on tournament %d: %w", status, id, err)
	}
	return checkAffectedRows(result, ErrTournamentNotFound)
}

func (r *postgresTournamentRepository) ListRoundDue(ctx context.Context, now time.Time) ([]*models.Tournament, error) {
	query := `SELECT` + tournamentColumns + `
		FROM swiss_tournaments
		WHERE status = $1 AND next_round_at IS NOT NULL AND next_round_at <= $2
		ORDER BY next_round_at ASC`

	rows, err := r.db.QueryContext(ctx, query, models.StatusOngoing, now)
	if err != nil {
		return nil, fmt.Errorf("failed to query due tournaments: %w", err)
	}
	defer rows.Close()

	tournaments := make([]*models.Tournament, 0)
	for rows.Next() {
		t, scanErr := scanTournament(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan due tournament row: %w", scanErr)
		}
		tournaments = append(tournaments, t)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during due tournament rows iteration: %w", err)
	}
	return tournaments, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTournament(row rowScanner) (*models.Tournament, error) {
	var t models.Tournament
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Round,
		&t.Status,
		&t.Settings.Variant,
		&t.Settings.Clock.LimitSeconds,
		&t.Settings.Clock.IncrementSeconds,
		&t.Settings.Rated,
		&t.Settings.Position,
		&t.Settings.OpeningTables,
		&t.Settings.MicroMatch,
		&t.NbOngoing,
		&t.LastRoundAt,
		&t.NextRoundAt,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
