package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database/engagement"
)

func createCitizenHandler(log zerolog.Logger, repo engagement.EngagementRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "create-citizen")
		defer func() { recordError(span, err) }()

		citizen := engagement.Citizen{}
		err = json.NewDecoder(r.Body).Decode(&citizen)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unable to decode request body")
			return
		}

		err = repo.CreateCitizen(ctx, &citizen)
		if errors.Is(err, engagement.ErrDuplicateEmail) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("unable to create citizen")
			writeError(w, http.StatusInternalServerError, "unable to create citizen")
			return
		}

		writeJSON(w, http.StatusOK, citizen)
	}
}

func listCitizensHandler(log zerolog.Logger, repo engagement.EngagementRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "list-citizens")
		defer func() { recordError(span, err) }()

		skip, limit := pagination(r)

		citizens, err := repo.GetCitizens(ctx, skip, limit)
		if err != nil {
			log.Error().Err(err).Msg("unable to fetch citizens")
			writeError(w, http.StatusInternalServerError, "unable to fetch citizens")
			return
		}

		writeJSON(w, http.StatusOK, citizens)
	}
}

func mostEngagedHandler(log zerolog.Logger, repo engagement.EngagementRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "most-engaged-citizens")
		defer func() { recordError(span, err) }()

		limit := queryInt(r, "limit", 20)

		citizens, err := repo.MostEngaged(ctx, limit)
		if err != nil {
			log.Error().Err(err).Msg("unable to rank citizens")
			writeError(w, http.StatusInternalServerError, "unable to rank citizens")
			return
		}

		writeJSON(w, http.StatusOK, citizens)
	}
}

func createConsultationHandler(log zerolog.Logger, repo engagement.EngagementRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "create-consultation")
		defer func() { recordError(span, err) }()

		consultation := engagement.Consultation{}
		err = json.NewDecoder(r.Body).Decode(&consultation)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unable to decode request body")
			return
		}

		err = repo.CreateConsultation(ctx, &consultation)
		if err != nil {
			log.Error().Err(err).Msg("unable to create consultation")
			writeError(w, http.StatusInternalServerError, "unable to create consultation")
			return
		}

		writeJSON(w, http.StatusOK, consultation)
	}
}

func listConsultationsHandler(log zerolog.Logger, repo engagement.EngagementRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "list-consultations")
		defer func() { recordError(span, err) }()

		skip, limit := pagination(r)

		consultations, err := repo.GetConsultations(ctx, skip, limit)
		if err != nil {
			log.Error().Err(err).Msg("unable to fetch consultations")
			writeError(w, http.StatusInternalServerError, "unable to fetch consultations")
			return
		}

		writeJSON(w, http.StatusOK, consultations)
	}
}

func addParticipationHandler(log zerolog.Logger, repo engagement.EngagementRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "add-participation")
		defer func() { recordError(span, err) }()

		participation := engagement.Participation{}
		err = json.NewDecoder(r.Body).Decode(&participation)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unable to decode request body")
			return
		}

		err = repo.AddParticipation(ctx, &participation)
		if errors.Is(err, engagement.ErrCitizenNotFound) || errors.Is(err, engagement.ErrConsultationNotFound) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("unable to add participation")
			writeError(w, http.StatusInternalServerError, "unable to add participation")
			return
		}

		writeJSON(w, http.StatusOK, participation)
	}
}
