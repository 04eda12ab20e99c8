package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Dosada05/swiss-rounds/models"
)

var ErrGameNotFound = errors.New("game not found")

type GameRepository interface {
	// Insert persists one game. Idempotent per game id so a retried round
	// advance never duplicates a game.
	Insert(ctx context.Context, exec SQLExecutor, game *models.Game) error
	GetByID(ctx context.Context, id string) (*models.Game, error)
}

type postgresGameRepository struct {
	db *sql.DB
}

func NewPostgresGameRepository(db *sql.DB) GameRepository {
	return &postgresGameRepository{db: db}
}

func (r *postgresGameRepository) Insert(ctx context.Context, exec SQLExecutor, game *models.Game) error {
	query := `
		INSERT INTO games
			(id, tournament_id, variant, initial_fen,
			 white_user_id, white_rating, white_provisional,
			 black_user_id, black_rating, black_provisional,
			 clock_limit, clock_increment, rated, turns, started_at_turn, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO NOTHING`

	_, err := exec.ExecContext(ctx, query,
		game.ID,
		game.TournamentID,
		game.Variant,
		game.InitialFEN,
		game.White.UserID,
		game.White.Rating,
		game.White.Provisional,
		game.Black.UserID,
		game.Black.Rating,
		game.Black.Provisional,
		game.Clock.LimitSeconds,
		game.Clock.IncrementSeconds,
		game.Rated,
		game.Turns,
		game.StartedAtTurn,
		game.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game %s: %w", game.ID, err)
	}
	return nil
}

func (r *postgresGameRepository) GetByID(ctx context.Context, id string) (*models.Game, error) {
	query := `
		SELECT id, tournament_id, variant, initial_fen,
		       white_user_id, white_rating, white_provisional,
		       black_user_id, black_rating, black_provisional,
		       clock_limit, clock_increment, rated, turns, started_at_turn, status, created_at
		FROM games
		WHERE id = $1`

	var g models.Game
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&g.ID,
		&g.TournamentID,
		&g.Variant,
		&g.InitialFEN,
		&g.White.UserID,
		&g.White.Rating,
		&g.White.Provisional,
		&g.Black.UserID,
		&g.Black.Rating,
		&g.Black.Provisional,
		&g.Clock.LimitSeconds,
		&g.Clock.IncrementSeconds,
		&g.Rated,
		&g.Turns,
		&g.StartedAtTurn,
		&g.Status,
		&g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to scan game %s: %w", id, err)
	}
	return &g, nil
}
