package handlers

import (
	"log/slog"
	"net/http"

	"github.com/padelpoint/tournament-engine/models"
	"github.com/padelpoint/tournament-engine/services"
)

type RecurringHandler struct {
	recurringSvc *services.RecurringService
	logger       *slog.Logger
}

func NewRecurringHandler(recurringSvc *services.RecurringService, logger *slog.Logger) *RecurringHandler {
	return &RecurringHandler{recurringSvc: recurringSvc, logger: logger}
}

func (h *RecurringHandler) Create(w http.ResponseWriter, r *http.Request) {
	var rec models.RecurringTournament
	if err := readJSON(w, r, &rec); err != nil {
		badRequestResponse(w, err)
		return
	}
	rec.IsActive = true
	rec.AutoGenerationEnabled = true

	created, err := h.recurringSvc.CreateSeries(r.Context(), &rec)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	_ = writeJSON(w, http.StatusCreated, created)
}

func (h *RecurringHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "recurringID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	rec, err := h.recurringSvc.GetSeries(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, rec)
}

func (h *RecurringHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "recurringID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var rec models.RecurringTournament
	if err := readJSON(w, r, &rec); err != nil {
		badRequestResponse(w, err)
		return
	}
	rec.ID = id

	if err := h.recurringSvc.UpdateSeries(r.Context(), &rec); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, rec)
}

func (h *RecurringHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "recurringID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if err := h.recurringSvc.DeactivateSeries(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
