package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database/mobility"
)

func createVehicleHandler(log zerolog.Logger, repo mobility.TripRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "create-vehicle")
		defer func() { recordError(span, err) }()

		vehicle := mobility.Vehicle{}
		err = json.NewDecoder(r.Body).Decode(&vehicle)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unable to decode request body")
			return
		}

		err = repo.CreateVehicle(ctx, &vehicle)
		if err != nil {
			log.Error().Err(err).Msg("unable to create vehicle")
			writeError(w, http.StatusInternalServerError, "unable to create vehicle")
			return
		}

		writeJSON(w, http.StatusOK, vehicle)
	}
}

func createTripHandler(log zerolog.Logger, repo mobility.TripRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "create-trip")
		defer func() { recordError(span, err) }()

		trip := mobility.Trip{}
		err = json.NewDecoder(r.Body).Decode(&trip)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unable to decode request body")
			return
		}

		err = repo.CreateTrip(ctx, &trip)
		if errors.Is(err, mobility.ErrVehicleNotFound) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("unable to create trip")
			writeError(w, http.StatusInternalServerError, "unable to create trip")
			return
		}

		writeJSON(w, http.StatusOK, trip)
	}
}

func topTripsHandler(log zerolog.Logger, repo mobility.TripRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "top-trips")
		defer func() { recordError(span, err) }()

		limit := queryInt(r, "limit", 20)

		trips, err := repo.TopTrips(ctx, limit)
		if err != nil {
			log.Error().Err(err).Msg("unable to rank trips")
			writeError(w, http.StatusInternalServerError, "unable to rank trips")
			return
		}

		writeJSON(w, http.StatusOK, trips)
	}
}
