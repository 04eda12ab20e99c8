package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Dosada05/swiss-rounds/models"
)

var ErrPlayerNotFound = errors.New("swiss player not found")

type PlayerRepository interface {
	// ListByTournament returns the active (non-withdrawn) roster.
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Player, error)
	// AddByeRound adds the round to the player's bye set. Set-union
	// semantics: adding an already-present round is a no-op, not an error.
	AddByeRound(ctx context.Context, exec SQLExecutor, tournamentID, userID, round int) error
}

type postgresPlayerRepository struct {
	db *sql.DB
}

func NewPostgresPlayerRepository(db *sql.DB) PlayerRepository {
	return &postgresPlayerRepository{db: db}
}

func (r *postgresPlayerRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Player, error) {
	query := `
		SELECT id, tournament_id, user_id, rating, provisional, withdrawn, bye_rounds, created_at
		FROM swiss_players
		WHERE tournament_id = $1 AND NOT withdrawn
		ORDER BY rating DESC, user_id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query players for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	players := make([]*models.Player, 0)
	for rows.Next() {
		var p models.Player
		var byes pq.Int64Array
		if scanErr := rows.Scan(
			&p.ID,
			&p.TournamentID,
			&p.UserID,
			&p.Rating,
			&p.Provisional,
			&p.Withdrawn,
			&byes,
			&p.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan player row: %w", scanErr)
		}
		p.ByeRounds = byes
		players = append(players, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during player rows iteration: %w", err)
	}
	return players, nil
}

func (r *postgresPlayerRepository) AddByeRound(ctx context.Context, exec SQLExecutor, tournamentID, userID, round int) error {
	// The CASE keeps the write idempotent: re-adding a recorded round leaves
	// the array untouched while still matching the row.
	query := `
		UPDATE swiss_players
		SET bye_rounds = CASE
			WHEN bye_rounds @> ARRAY[$3]::integer[] THEN bye_rounds
			ELSE array_append(bye_rounds, $3)
		END
		WHERE tournament_id = $1 AND user_id = $2`

	result, err := exec.ExecContext(ctx, query, tournamentID, userID, round)
	if err != nil {
		return fmt.Errorf("failed to add bye round %d for user %d in tournament %d: %w", round, userID, tournamentID, err)
	}
	return checkAffectedRows(result, ErrPlayerNotFound)
}
