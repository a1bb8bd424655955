package api

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database/analytics"
)

func pollutionHandler(log zerolog.Logger, aggregates analytics.Analytics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "pollution-ranking")
		defer func() { recordError(span, err) }()

		pollutant := r.URL.Query().Get("pollutant")
		if pollutant == "" {
			pollutant = "PM2.5"
		}

		topN := queryInt(r, "top_n", 10)

		orderBy := analytics.OrderBy(r.URL.Query().Get("order_by"))
		if orderBy == "" {
			orderBy = analytics.OrderByMeasure
		}

		rows, err := aggregates.PollutionRanking(ctx, pollutant, topN, orderBy)
		if errors.Is(err, analytics.ErrInvalidOrderBy) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("unable to rank pollution levels")
			writeError(w, http.StatusInternalServerError, "unable to rank pollution levels")
			return
		}

		writeJSON(w, http.StatusOK, rows)
	}
}

func availabilityHandler(log zerolog.Logger, aggregates analytics.Analytics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "availability-ranking")
		defer func() { recordError(span, err) }()

		rows, err := aggregates.AvailabilityRanking(ctx)
		if err != nil {
			log.Error().Err(err).Msg("unable to rank sensor availability")
			writeError(w, http.StatusInternalServerError, "unable to rank sensor availability")
			return
		}

		writeJSON(w, http.StatusOK, rows)
	}
}

func predictiveHandler(log zerolog.Logger, aggregates analytics.Analytics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "predictive-summary")
		defer func() { recordError(span, err) }()

		summary, err := aggregates.PredictiveThisMonth(ctx)
		if err != nil {
			log.Error().Err(err).Msg("unable to summarise predictive interventions")
			writeError(w, http.StatusInternalServerError, "unable to summarise predictive interventions")
			return
		}

		writeJSON(w, http.StatusOK, summary)
	}
}
