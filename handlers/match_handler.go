package handlers

import (
	"log/slog"
	"net/http"

	"github.com/padelpoint/tournament-engine/services"
)

type MatchHandler struct {
	matchSvc *services.MatchService
	logger   *slog.Logger
}

func NewMatchHandler(matchSvc *services.MatchService, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{matchSvc: matchSvc, logger: logger}
}

func (h *MatchHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if err := h.matchSvc.Start(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MatchHandler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input services.MatchResultInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	match, err := h.matchSvc.Complete(r.Context(), id, input)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, match)
}

func (h *MatchHandler) Walkover(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input struct {
		ForfeitingTeamID int `json:"forfeiting_team_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}

	match, err := h.matchSvc.Walkover(r.Context(), id, input.ForfeitingTeamID)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, match)
}

func (h *MatchHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "matchID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if err := h.matchSvc.Cancel(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
