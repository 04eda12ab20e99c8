package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/swiss-rounds/models"
	"github.com/Dosada05/swiss-rounds/repositories"
	"github.com/Dosada05/swiss-rounds/services"
)

type RoundHandler struct {
	exec           repositories.SQLExecutor
	tournamentRepo repositories.TournamentRepository
	roundService   services.RoundService
	sequencer      *services.TournamentSequencer
	logger         *slog.Logger
}

func NewRoundHandler(
	exec repositories.SQLExecutor,
	tournamentRepo repositories.TournamentRepository,
	roundService services.RoundService,
	sequencer *services.TournamentSequencer,
	logger *slog.Logger,
) *RoundHandler {
	return &RoundHandler{
		exec:           exec,
		tournamentRepo: tournamentRepo,
		roundService:   roundService,
		sequencer:      sequencer,
		logger:         logger,
	}
}

type startRoundResponse struct {
	Status     string             `json:"status"`
	Tournament *models.Tournament `json:"tournament,omitempty"`
}

// StartRound triggers a round advance for one tournament. All invocations go
// through the per-tournament sequencer, so a manual trigger can never overlap
// the background scheduler.
func (h *RoundHandler) StartRound(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := strconv.Atoi(chi.URLParam(r, "tournamentID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid tournament id")
		return
	}

	var (
		tournament *models.Tournament
		updated    *models.Tournament
		status     services.StartRoundStatus
		opErr      error
	)
	// Load inside the lock: the background scheduler may advance the
	// tournament while this request waits, and a stale round snapshot would
	// pair the same round twice.
	h.sequencer.Do(tournamentID, func() {
		tournament, opErr = h.tournamentRepo.GetByID(r.Context(), tournamentID)
		if opErr != nil || tournament.IsFinished() {
			return
		}
		updated, status, opErr = h.roundService.StartRound(r.Context(), tournament)
	})
	if opErr != nil {
		if errors.Is(opErr, repositories.ErrTournamentNotFound) {
			respondError(w, http.StatusNotFound, "tournament not found")
			return
		}
		h.logger.Error("round advance failed", slog.Int("tournament_id", tournamentID), slog.Any("error", opErr))
		respondError(w, http.StatusInternalServerError, "round advance failed")
		return
	}
	if tournament.IsFinished() {
		respondError(w, http.StatusConflict, services.ErrTournamentFinished.Error())
		return
	}

	switch status {
	case services.RoundAdvanced:
		respondJSON(w, http.StatusOK, startRoundResponse{Status: "advanced", Tournament: updated})
	case services.RoundNotAdvanced:
		if err := h.tournamentRepo.SetStatus(r.Context(), h.exec, tournamentID, models.StatusFinished); err != nil {
			h.logger.Error("failed to finish tournament", slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		}
		respondJSON(w, http.StatusOK, startRoundResponse{Status: "not_advanced"})
	default:
		respondJSON(w, http.StatusAccepted, startRoundResponse{Status: "unchanged", Tournament: tournament})
	}
}

func Healthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
