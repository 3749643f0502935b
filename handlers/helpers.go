package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/padelpoint/tournament-engine/services"
)

type jsonResponse map[string]interface{}

func readJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	maxBytes := 1_048_576 // 1MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)
		case err.Error() == "http: request body too large":
			return fmt.Errorf("body must not be larger than %d bytes", maxBytes)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("body must only contain a single JSON value")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	js, err := json.Marshal(data)
	if err != nil {
		return err
	}
	js = append(js, '\n')

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(js)
	return err
}

func urlParamInt(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || v < 1 {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return v, nil
}

func errorResponse(w http.ResponseWriter, status int, message interface{}) {
	_ = writeJSON(w, status, jsonResponse{"error": message})
}

func badRequestResponse(w http.ResponseWriter, err error) {
	errorResponse(w, http.StatusBadRequest, err.Error())
}

func serverErrorResponse(w http.ResponseWriter, logger *slog.Logger, err error) {
	logger.Error("internal server error", slog.Any("error", err))
	errorResponse(w, http.StatusInternalServerError,
		"the server encountered a problem and could not process your request")
}

// mapServiceErrorToHTTP translates the service error taxonomy:
// validation 422, conflict 409, state 409, not found 404.
func mapServiceErrorToHTTP(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, services.ErrTournamentNotFound),
		errors.Is(err, services.ErrCategoryNotFound),
		errors.Is(err, services.ErrMatchNotFound),
		errors.Is(err, services.ErrTeamNotFound),
		errors.Is(err, services.ErrRecurringNotFound),
		errors.Is(err, services.ErrCourtNotFound):
		errorResponse(w, http.StatusNotFound, err.Error())

	case errors.Is(err, services.ErrValidationFailed),
		errors.Is(err, services.ErrInvalidTournamentType),
		errors.Is(err, services.ErrInvalidDateRange),
		errors.Is(err, services.ErrInvalidRegDeadline),
		errors.Is(err, services.ErrInvalidCapacity),
		errors.Is(err, services.ErrInvalidCategoryBand),
		errors.Is(err, services.ErrOverlappingBands),
		errors.Is(err, services.ErrInvalidRecurrence),
		errors.Is(err, services.ErrTeamEloOutOfBand),
		errors.Is(err, services.ErrInvalidScore),
		errors.Is(err, services.ErrWinnerNotInMatch),
		errors.Is(err, services.ErrNotEnoughTeams),
		errors.Is(err, services.ErrAmericanoRoundsRequired):
		errorResponse(w, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, services.ErrTeamAlreadyRegistered),
		errors.Is(err, services.ErrCategoryFull),
		errors.Is(err, services.ErrTournamentNameConflict),
		errors.Is(err, services.ErrCourtSlotTaken),
		errors.Is(err, services.ErrRegistrationNotOpen),
		errors.Is(err, services.ErrInvalidStatusTransition),
		errors.Is(err, services.ErrTournamentNotInProgress),
		errors.Is(err, services.ErrTournamentTerminal),
		errors.Is(err, services.ErrBracketAlreadyGenerated),
		errors.Is(err, services.ErrScheduleAlreadyGenerated),
		errors.Is(err, services.ErrMatchNotPlayable),
		errors.Is(err, services.ErrMatchAlreadyDecided),
		errors.Is(err, services.ErrRecurringInactive):
		errorResponse(w, http.StatusConflict, err.Error())

	case errors.Is(err, services.ErrSchedulingInfeasible):
		errorResponse(w, http.StatusUnprocessableEntity, err.Error())

	case errors.Is(err, services.ErrInvalidCredentials):
		errorResponse(w, http.StatusUnauthorized, err.Error())

	default:
		serverErrorResponse(w, logger, err)
	}
}
