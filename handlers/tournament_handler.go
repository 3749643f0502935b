package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/padelpoint/tournament-engine/models"
	"github.com/padelpoint/tournament-engine/repositories"
	"github.com/padelpoint/tournament-engine/services"
)

type TournamentHandler struct {
	tournamentSvc   *services.TournamentService
	registrationSvc *services.RegistrationService
	bracketSvc      *services.BracketService
	scheduleSvc     *services.ScheduleService
	logger          *slog.Logger
}

func NewTournamentHandler(
	tournamentSvc *services.TournamentService,
	registrationSvc *services.RegistrationService,
	bracketSvc *services.BracketService,
	scheduleSvc *services.ScheduleService,
	logger *slog.Logger,
) *TournamentHandler {
	return &TournamentHandler{
		tournamentSvc:   tournamentSvc,
		registrationSvc: registrationSvc,
		bracketSvc:      bracketSvc,
		scheduleSvc:     scheduleSvc,
		logger:          logger,
	}
}

type createTournamentRequest struct {
	ClubID               int                      `json:"club_id"`
	Name                 string                   `json:"name"`
	Type                 models.TournamentType    `json:"type"`
	StartDate            time.Time                `json:"start_date"`
	EndDate              time.Time                `json:"end_date"`
	RegistrationDeadline time.Time                `json:"registration_deadline"`
	MaxParticipants      int                      `json:"max_participants"`
	EntryFee             float64                  `json:"entry_fee"`
	AutoScheduleEnabled  *bool                    `json:"auto_schedule_enabled,omitempty"`
	MatchDurationMinutes int                      `json:"match_duration_minutes,omitempty"`
	AmericanoRounds      int                      `json:"americano_rounds,omitempty"`
	RatingWeight         float64                  `json:"rating_weight,omitempty"`
	Categories           []services.CategoryInput `json:"categories"`
	OpenRegistrationNow  bool                     `json:"open_registration_now"`
}

func (h *TournamentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTournamentRequest
	if err := readJSON(w, r, &req); err != nil {
		badRequestResponse(w, err)
		return
	}

	autoSchedule := true
	if req.AutoScheduleEnabled != nil {
		autoSchedule = *req.AutoScheduleEnabled
	}
	tournament := &models.Tournament{
		ClubID:               req.ClubID,
		Name:                 req.Name,
		Type:                 req.Type,
		StartDate:            req.StartDate,
		EndDate:              req.EndDate,
		RegistrationDeadline: req.RegistrationDeadline,
		MaxParticipants:      req.MaxParticipants,
		EntryFee:             req.EntryFee,
		AutoScheduleEnabled:  autoSchedule,
		MatchDurationMinutes: req.MatchDurationMinutes,
		AmericanoRounds:      req.AmericanoRounds,
		RatingWeight:         req.RatingWeight,
	}

	created, err := h.tournamentSvc.Create(r.Context(), tournament, req.Categories, req.OpenRegistrationNow)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	_ = writeJSON(w, http.StatusCreated, created)
}

func (h *TournamentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	tournament, err := h.tournamentSvc.GetByID(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, tournament)
}

func (h *TournamentHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := repositories.ListTournamentsFilter{Limit: 50}
	q := r.URL.Query()
	if v := q.Get("club_id"); v != "" {
		if clubID, err := strconv.Atoi(v); err == nil {
			filter.ClubID = &clubID
		}
	}
	if v := q.Get("status"); v != "" {
		status := models.TournamentStatus(v)
		filter.Status = &status
	}
	if v := q.Get("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil && limit > 0 {
			filter.Limit = limit
		}
	}
	if v := q.Get("offset"); v != "" {
		if offset, err := strconv.Atoi(v); err == nil && offset > 0 {
			filter.Offset = offset
		}
	}

	tournaments, err := h.tournamentSvc.List(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, jsonResponse{"tournaments": tournaments})
}

// View returns the tournament with categories, teams and the bracket.
func (h *TournamentHandler) View(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	view, err := h.tournamentSvc.GetView(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, view)
}

func (h *TournamentHandler) OpenRegistration(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if err := h.tournamentSvc.OpenRegistration(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, jsonResponse{"status": models.StatusRegistrationOpen})
}

func (h *TournamentHandler) RegisterTeam(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}

	var input services.RegisterTeamInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, err)
		return
	}
	input.TournamentID = id

	team, err := h.registrationSvc.RegisterTeam(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	_ = writeJSON(w, http.StatusCreated, team)
}

func (h *TournamentHandler) WithdrawTeam(w http.ResponseWriter, r *http.Request) {
	registrationID, err := urlParamInt(r, "registrationID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if err := h.registrationSvc.Withdraw(r.Context(), registrationID); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TournamentHandler) GenerateBracket(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	if err := h.bracketSvc.Generate(r.Context(), id); err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	view, err := h.tournamentSvc.GetView(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	_ = writeJSON(w, http.StatusCreated, view)
}

func (h *TournamentHandler) GenerateSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	result, err := h.scheduleSvc.Generate(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, result)
}

func (h *TournamentHandler) Standings(w http.ResponseWriter, r *http.Request) {
	categoryID, err := urlParamInt(r, "categoryID")
	if err != nil {
		badRequestResponse(w, err)
		return
	}
	standings, err := h.tournamentSvc.GetAmericanoStandings(r.Context(), categoryID)
	if err != nil {
		mapServiceErrorToHTTP(w, h.logger, err)
		return
	}
	_ = writeJSON(w, http.StatusOK, jsonResponse{"standings": standings})
}
