package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database/maintenance"
)

func createTechnicianHandler(log zerolog.Logger, repo maintenance.InterventionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "create-technician")
		defer func() { recordError(span, err) }()

		technician := maintenance.Technician{}
		err = json.NewDecoder(r.Body).Decode(&technician)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unable to decode request body")
			return
		}

		err = repo.CreateTechnician(ctx, &technician)
		if err != nil {
			log.Error().Err(err).Msg("unable to create technician")
			writeError(w, http.StatusInternalServerError, "unable to create technician")
			return
		}

		writeJSON(w, http.StatusOK, technician)
	}
}

func listTechniciansHandler(log zerolog.Logger, repo maintenance.InterventionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "list-technicians")
		defer func() { recordError(span, err) }()

		skip, limit := pagination(r)

		technicians, err := repo.GetTechnicians(ctx, skip, limit)
		if err != nil {
			log.Error().Err(err).Msg("unable to fetch technicians")
			writeError(w, http.StatusInternalServerError, "unable to fetch technicians")
			return
		}

		writeJSON(w, http.StatusOK, technicians)
	}
}

func createInterventionHandler(log zerolog.Logger, repo maintenance.InterventionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "create-intervention")
		defer func() { recordError(span, err) }()

		intervention := maintenance.Intervention{}
		err = json.NewDecoder(r.Body).Decode(&intervention)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unable to decode request body")
			return
		}

		err = repo.CreateIntervention(ctx, &intervention)
		if errors.Is(err, maintenance.ErrInvalidNature) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("unable to create intervention")
			writeError(w, http.StatusInternalServerError, "unable to create intervention")
			return
		}

		writeJSON(w, http.StatusOK, intervention)
	}
}

func listInterventionsHandler(log zerolog.Logger, repo maintenance.InterventionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "list-interventions")
		defer func() { recordError(span, err) }()

		skip, limit := pagination(r)

		interventions, err := repo.GetInterventions(ctx, skip, limit)
		if err != nil {
			log.Error().Err(err).Msg("unable to fetch interventions")
			writeError(w, http.StatusInternalServerError, "unable to fetch interventions")
			return
		}

		writeJSON(w, http.StatusOK, interventions)
	}
}

func getInterventionHandler(log zerolog.Logger, repo maintenance.InterventionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "get-intervention")
		defer func() { recordError(span, err) }()

		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed intervention id")
			return
		}

		intervention, err := repo.GetInterventionByID(ctx, id)
		if errors.Is(err, maintenance.ErrInterventionNotFound) {
			writeError(w, http.StatusNotFound, "intervention not found")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("unable to fetch intervention")
			writeError(w, http.StatusInternalServerError, "unable to fetch intervention")
			return
		}

		writeJSON(w, http.StatusOK, intervention)
	}
}

func closeInterventionHandler(log zerolog.Logger, repo maintenance.InterventionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "close-intervention")
		defer func() { recordError(span, err) }()

		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed intervention id")
			return
		}

		intervention, err := repo.CloseIntervention(ctx, id)
		if errors.Is(err, maintenance.ErrInterventionNotFound) {
			writeError(w, http.StatusNotFound, "intervention not found")
			return
		}
		if errors.Is(err, maintenance.ErrNotEnoughTechnicians) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("unable to close intervention")
			writeError(w, http.StatusInternalServerError, "unable to close intervention")
			return
		}

		writeJSON(w, http.StatusOK, intervention)
	}
}

func addAssignmentHandler(log zerolog.Logger, repo maintenance.InterventionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "add-assignment")
		defer func() { recordError(span, err) }()

		assignment := maintenance.Assignment{}
		err = json.NewDecoder(r.Body).Decode(&assignment)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unable to decode request body")
			return
		}

		assignment, err = repo.AddAssignment(ctx, assignment)
		if errors.Is(err, maintenance.ErrInterventionNotFound) || errors.Is(err, maintenance.ErrTechnicianNotFound) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("unable to add assignment")
			writeError(w, http.StatusInternalServerError, "unable to add assignment")
			return
		}

		writeJSON(w, http.StatusOK, assignment)
	}
}

func removeAssignmentHandler(log zerolog.Logger, repo maintenance.InterventionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "remove-assignment")
		defer func() { recordError(span, err) }()

		interventionID, err := strconv.ParseUint(r.URL.Query().Get("id_intervention"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed intervention id")
			return
		}

		technicianID, err := strconv.ParseUint(r.URL.Query().Get("id_technicien"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed technician id")
			return
		}

		removed, err := repo.RemoveAssignment(ctx, interventionID, technicianID)
		if err != nil {
			log.Error().Err(err).Msg("unable to remove assignment")
			writeError(w, http.StatusInternalServerError, "unable to remove assignment")
			return
		}
		if !removed {
			writeError(w, http.StatusNotFound, "assignment not found")
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}
