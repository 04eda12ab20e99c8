package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Dosada05/swiss-rounds/models"
)

var ErrPairingNotFound = errors.New("pairing not found")

type PairingRepository interface {
	// InsertBatch inserts all pairings of a round in one statement. Inserts
	// are idempotent per (tournament, round, white, black): a retry after a
	// partial-sequence failure re-issues the batch without duplicating rows.
	InsertBatch(ctx context.Context, exec SQLExecutor, pairings []*models.Pairing) error
	// ListByTournament returns the full pairing history, oldest first.
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Pairing, error)
	// SetSecondGameID records the micro-match second leg's game id.
	SetSecondGameID(ctx context.Context, exec SQLExecutor, pairingID, gameID string) error
}

type postgresPairingRepository struct {
	db *sql.DB
}

func NewPostgresPairingRepository(db *sql.DB) PairingRepository {
	return &postgresPairingRepository{db: db}
}

func (r *postgresPairingRepository) InsertBatch(ctx context.Context, exec SQLExecutor, pairings []*models.Pairing) error {
	if len(pairings) == 0 {
		return nil
	}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
		INSERT INTO swiss_pairings
			(id, tournament_id, round, white_user_id, black_user_id, status, micro_match, opening_fen)
		VALUES `)

	args := make([]interface{}, 0, len(pairings)*8)
	for i, p := range pairings {
		if i > 0 {
			queryBuilder.WriteString(", ")
		}
		base := i * 8
		queryBuilder.WriteString("(")
		for j := 1; j <= 8; j++ {
			if j > 1 {
				queryBuilder.WriteString(", ")
			}
			queryBuilder.WriteString("$")
			queryBuilder.WriteString(strconv.Itoa(base + j))
		}
		queryBuilder.WriteString(")")
		args = append(args,
			p.ID,
			p.TournamentID,
			p.Round,
			p.WhiteUserID,
			p.BlackUserID,
			p.Status,
			p.MicroMatch,
			p.OpeningFEN,
		)
	}
	queryBuilder.WriteString(`
		ON CONFLICT (tournament_id, round, white_user_id, black_user_id) DO NOTHING`)

	if _, err := exec.ExecContext(ctx, queryBuilder.String(), args...); err != nil {
		return fmt.Errorf("failed to insert %d pairings for tournament %d round %d: %w",
			len(pairings), pairings[0].TournamentID, pairings[0].Round, err)
	}
	return nil
}

func (r *postgresPairingRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Pairing, error) {
	query := `
		SELECT id, tournament_id, round, white_user_id, black_user_id, status,
		       result, micro_match, second_game_id, opening_fen, created_at
		FROM swiss_pairings
		WHERE tournament_id = $1
		ORDER BY round ASC, created_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pairings for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	pairings := make([]*models.Pairing, 0)
	for rows.Next() {
		var p models.Pairing
		if scanErr := rows.Scan(
			&p.ID,
			&p.TournamentID,
			&p.Round,
			&p.WhiteUserID,
			&p.BlackUserID,
			&p.Status,
			&p.Result,
			&p.MicroMatch,
			&p.SecondGameID,
			&p.OpeningFEN,
			&p.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan pairing row: %w", scanErr)
		}
		pairings = append(pairings, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during pairing rows iteration: %w", err)
	}
	return pairings, nil
}

func (r *postgresPairingRepository) SetSecondGameID(ctx context.Context, exec SQLExecutor, pairingID, gameID string) error {
	query := `
		UPDATE swiss_pairings
		SET second_game_id = $2
		WHERE id = $1 AND micro_match AND second_game_id IS NULL`

	result, err := exec.ExecContext(ctx, query, pairingID, gameID)
	if err != nil {
		return fmt.Errorf("failed to set second game id on pairing %s: %w", pairingID, err)
	}
	return checkAffectedRows(result, ErrPairingNotFound)
}
