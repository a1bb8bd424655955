package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database/analytics"
	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database/cityregistry"
	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database/engagement"
	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database/maintenance"
	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database/mobility"
)

var tracer = otel.Tracer("smartcity-api/api")

func RegisterHandlers(
	log zerolog.Logger,
	router *chi.Mux,
	registry cityregistry.SensorRegistry,
	interventions maintenance.InterventionRepository,
	citizens engagement.EngagementRepository,
	trips mobility.TripRepository,
	aggregates analytics.Analytics,
) *chi.Mux {

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	router.Route("/api", func(r chi.Router) {
		r.Route("/arrondissements", func(r chi.Router) {
			r.Post("/", createDistrictHandler(log, registry))
			r.Get("/", listDistrictsHandler(log, registry))
		})

		r.Route("/proprietaires", func(r chi.Router) {
			r.Post("/", createOwnerHandler(log, registry))
			r.Get("/", listOwnersHandler(log, registry))
			r.Get("/{id}", getOwnerHandler(log, registry))
		})

		r.Route("/capteurs", func(r chi.Router) {
			r.Post("/", createSensorHandler(log, registry))
			r.Get("/", listSensorsHandler(log, registry))
			r.Get("/{uuid}", getSensorHandler(log, registry))
			r.Put("/{uuid}", updateSensorHandler(log, registry))
			r.Delete("/{uuid}", deleteSensorHandler(log, registry))
			r.Post("/{uuid}/status", addStatusEntryHandler(log, registry))
		})

		r.Route("/mesures", func(r chi.Router) {
			r.Post("/", createMeasurementHandler(log, registry))
			r.Get("/", listMeasurementsHandler(log, registry))
		})

		r.Route("/techniciens", func(r chi.Router) {
			r.Post("/", createTechnicianHandler(log, interventions))
			r.Get("/", listTechniciansHandler(log, interventions))
		})

		r.Route("/interventions", func(r chi.Router) {
			r.Post("/", createInterventionHandler(log, interventions))
			r.Get("/", listInterventionsHandler(log, interventions))
			r.Get("/{id}", getInterventionHandler(log, interventions))
			r.Post("/{id}/close", closeInterventionHandler(log, interventions))
		})

		r.Route("/realisers", func(r chi.Router) {
			r.Post("/", addAssignmentHandler(log, interventions))
			r.Delete("/", removeAssignmentHandler(log, interventions))
		})

		r.Route("/citoyens", func(r chi.Router) {
			r.Post("/", createCitizenHandler(log, citizens))
			r.Get("/", listCitizensHandler(log, citizens))
		})

		r.Route("/consultations", func(r chi.Router) {
			r.Post("/", createConsultationHandler(log, citizens))
			r.Get("/", listConsultationsHandler(log, citizens))
		})

		r.Post("/participations", addParticipationHandler(log, citizens))

		r.Post("/vehicules", createVehicleHandler(log, trips))

		r.Route("/trajets", func(r chi.Router) {
			r.Post("/", createTripHandler(log, trips))
			r.Get("/top", topTripsHandler(log, trips))
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Get("/pollution_24h", pollutionHandler(log, aggregates))
			r.Get("/availability_by_arrondissement", availabilityHandler(log, aggregates))
			r.Get("/citizens_most_engaged", mostEngagedHandler(log, citizens))
			r.Get("/predictive_this_month", predictiveHandler(log, aggregates))
			r.Get("/top_trajets", topTripsHandler(log, trips))
		})
	})

	return router
}

func recordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	b, err := json.Marshal(body)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(b)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"message": message})
}

func queryInt(r *http.Request, name string, def int) int {
	value := r.URL.Query().Get(name)
	if value == "" {
		return def
	}

	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return def
	}

	return n
}

func pagination(r *http.Request) (int, int) {
	return queryInt(r, "skip", 0), queryInt(r, "limit", 100)
}
