package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database/cityregistry"
)

func createDistrictHandler(log zerolog.Logger, registry cityregistry.SensorRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "create-district")
		defer func() { recordError(span, err) }()

		district := cityregistry.District{}
		err = json.NewDecoder(r.Body).Decode(&district)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unable to decode request body")
			return
		}

		err = registry.CreateDistrict(ctx, &district)
		if err != nil {
			log.Error().Err(err).Msg("unable to create district")
			writeError(w, http.StatusInternalServerError, "unable to create district")
			return
		}

		writeJSON(w, http.StatusOK, district)
	}
}

func listDistrictsHandler(log zerolog.Logger, registry cityregistry.SensorRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "list-districts")
		defer func() { recordError(span, err) }()

		districts, err := registry.GetDistricts(ctx)
		if err != nil {
			log.Error().Err(err).Msg("unable to fetch districts")
			writeError(w, http.StatusInternalServerError, "unable to fetch districts")
			return
		}

		writeJSON(w, http.StatusOK, districts)
	}
}

func createOwnerHandler(log zerolog.Logger, registry cityregistry.SensorRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "create-owner")
		defer func() { recordError(span, err) }()

		owner := cityregistry.Owner{}
		err = json.NewDecoder(r.Body).Decode(&owner)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unable to decode request body")
			return
		}

		err = registry.CreateOwner(ctx, &owner)
		if errors.Is(err, cityregistry.ErrDuplicateEmail) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("unable to create owner")
			writeError(w, http.StatusInternalServerError, "unable to create owner")
			return
		}

		writeJSON(w, http.StatusCreated, owner)
	}
}

func listOwnersHandler(log zerolog.Logger, registry cityregistry.SensorRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "list-owners")
		defer func() { recordError(span, err) }()

		skip, limit := pagination(r)

		owners, err := registry.GetOwners(ctx, skip, limit)
		if err != nil {
			log.Error().Err(err).Msg("unable to fetch owners")
			writeError(w, http.StatusInternalServerError, "unable to fetch owners")
			return
		}

		writeJSON(w, http.StatusOK, owners)
	}
}

func getOwnerHandler(log zerolog.Logger, registry cityregistry.SensorRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "get-owner")
		defer func() { recordError(span, err) }()

		id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed owner id")
			return
		}

		owner, err := registry.GetOwnerByID(ctx, id)
		if errors.Is(err, cityregistry.ErrOwnerNotFound) {
			writeError(w, http.StatusNotFound, "owner not found")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("unable to fetch owner")
			writeError(w, http.StatusInternalServerError, "unable to fetch owner")
			return
		}

		writeJSON(w, http.StatusOK, owner)
	}
}

func createSensorHandler(log zerolog.Logger, registry cityregistry.SensorRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "create-sensor")
		defer func() { recordError(span, err) }()

		sensor := cityregistry.Sensor{}
		err = json.NewDecoder(r.Body).Decode(&sensor)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unable to decode request body")
			return
		}

		err = registry.CreateSensor(ctx, &sensor)
		if errors.Is(err, cityregistry.ErrInvalidUUID) || errors.Is(err, cityregistry.ErrInvalidStatus) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("unable to create sensor")
			writeError(w, http.StatusInternalServerError, "unable to create sensor")
			return
		}

		writeJSON(w, http.StatusOK, sensor)
	}
}

func listSensorsHandler(log zerolog.Logger, registry cityregistry.SensorRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "list-sensors")
		defer func() { recordError(span, err) }()

		skip, limit := pagination(r)

		sensors, err := registry.GetSensors(ctx, skip, limit)
		if err != nil {
			log.Error().Err(err).Msg("unable to fetch sensors")
			writeError(w, http.StatusInternalServerError, "unable to fetch sensors")
			return
		}

		writeJSON(w, http.StatusOK, sensors)
	}
}

func getSensorHandler(log zerolog.Logger, registry cityregistry.SensorRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "get-sensor")
		defer func() { recordError(span, err) }()

		sensorUUID, ok := sensorUUIDParam(w, r)
		if !ok {
			return
		}

		sensor, err := registry.GetSensorByUUID(ctx, sensorUUID)
		if errors.Is(err, cityregistry.ErrSensorNotFound) {
			writeError(w, http.StatusNotFound, "sensor not found")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("unable to fetch sensor")
			writeError(w, http.StatusInternalServerError, "unable to fetch sensor")
			return
		}

		writeJSON(w, http.StatusOK, sensor)
	}
}

func updateSensorHandler(log zerolog.Logger, registry cityregistry.SensorRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "update-sensor")
		defer func() { recordError(span, err) }()

		sensorUUID, ok := sensorUUIDParam(w, r)
		if !ok {
			return
		}

		fields := map[string]any{}
		err = json.NewDecoder(r.Body).Decode(&fields)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unable to decode request body")
			return
		}

		sensor, err := registry.UpdateSensor(ctx, sensorUUID, fields)
		if errors.Is(err, cityregistry.ErrSensorNotFound) {
			writeError(w, http.StatusNotFound, "sensor not found")
			return
		}
		if errors.Is(err, cityregistry.ErrInvalidStatus) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, sensor)
	}
}

func deleteSensorHandler(log zerolog.Logger, registry cityregistry.SensorRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "delete-sensor")
		defer func() { recordError(span, err) }()

		sensorUUID, ok := sensorUUIDParam(w, r)
		if !ok {
			return
		}

		deleted, err := registry.DeleteSensor(ctx, sensorUUID)
		if err != nil {
			log.Error().Err(err).Msg("unable to delete sensor")
			writeError(w, http.StatusInternalServerError, "unable to delete sensor")
			return
		}
		if !deleted {
			writeError(w, http.StatusNotFound, "sensor not found")
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
	}
}

func addStatusEntryHandler(log zerolog.Logger, registry cityregistry.SensorRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "add-status-entry")
		defer func() { recordError(span, err) }()

		sensorUUID, ok := sensorUUIDParam(w, r)
		if !ok {
			return
		}

		entry := cityregistry.StatusEntry{}
		err = json.NewDecoder(r.Body).Decode(&entry)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unable to decode request body")
			return
		}
		entry.SensorUUID = sensorUUID

		err = registry.AddStatusEntry(ctx, &entry)
		if errors.Is(err, cityregistry.ErrSensorNotFound) || errors.Is(err, cityregistry.ErrInvalidStatus) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("unable to add status entry")
			writeError(w, http.StatusInternalServerError, "unable to add status entry")
			return
		}

		writeJSON(w, http.StatusOK, entry)
	}
}

func createMeasurementHandler(log zerolog.Logger, registry cityregistry.SensorRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error
		defer r.Body.Close()

		ctx, span := tracer.Start(r.Context(), "create-measurement")
		defer func() { recordError(span, err) }()

		m := cityregistry.Measurement{}
		err = json.NewDecoder(r.Body).Decode(&m)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unable to decode request body")
			return
		}

		err = registry.AddMeasurement(ctx, &m)
		if errors.Is(err, cityregistry.ErrSensorNotFound) {
			writeError(w, http.StatusBadRequest, "sensor not found")
			return
		}
		if err != nil {
			log.Error().Err(err).Msg("unable to create measurement")
			writeError(w, http.StatusInternalServerError, "unable to create measurement")
			return
		}

		writeJSON(w, http.StatusOK, m)
	}
}

func listMeasurementsHandler(log zerolog.Logger, registry cityregistry.SensorRegistry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var err error

		ctx, span := tracer.Start(r.Context(), "list-measurements")
		defer func() { recordError(span, err) }()

		limit := queryInt(r, "limit", 100)

		measurements, err := registry.GetMeasurements(ctx, limit)
		if err != nil {
			log.Error().Err(err).Msg("unable to fetch measurements")
			writeError(w, http.StatusInternalServerError, "unable to fetch measurements")
			return
		}

		writeJSON(w, http.StatusOK, measurements)
	}
}

func sensorUUIDParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	sensorUUID := chi.URLParam(r, "uuid")
	if _, err := uuid.Parse(sensorUUID); err != nil {
		writeError(w, http.StatusBadRequest, "malformed sensor uuid")
		return "", false
	}
	return sensorUUID, true
}
