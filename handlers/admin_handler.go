package handlers

import (
	"log/slog"
	"net/http"

	"github.com/padelpoint/tournament-engine/services"
)

// AdminHandler exposes the background-engine triggers for operators: the
// lifecycle sweep and the recurring-series generation, both also run on
// timers in main.
type AdminHandler struct {
	lifecycleSvc *services.LifecycleService
	recurringSvc *services.RecurringService
	logger       *slog.Logger
}

func NewAdminHandler(lifecycleSvc *services.LifecycleService, recurringSvc *services.RecurringService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{lifecycleSvc: lifecycleSvc, recurringSvc: recurringSvc, logger: logger}
}

func (h *AdminHandler) RunSweep(w http.ResponseWriter, r *http.Request) {
	report, err := h.lifecycleSvc.RunSweep(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, report)
}

func (h *AdminHandler) ListPendingExpiration(w http.ResponseWriter, r *http.Request) {
	pending, err := h.lifecycleSvc.ListPendingExpiration(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, jsonResponse{"pending": pending})
}

func (h *AdminHandler) CancelTournament(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if err := h.lifecycleSvc.Cancel(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) RunRecurringGeneration(w http.ResponseWriter, r *http.Request) {
	report, err := h.recurringSvc.GenerateDue(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, report)
}
