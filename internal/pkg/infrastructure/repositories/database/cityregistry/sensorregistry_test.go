package cityregistry

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database"
)

func TestCreateAndGetSensor(t *testing.T) {
	is, ctx, r := testSetupSensorRegistry(t)

	s := &Sensor{Type: "air_quality"}
	err := r.CreateSensor(ctx, s)
	is.NoErr(err)
	is.True(s.UUID != "") // uuid is generated when absent

	fromDb, err := r.GetSensorByUUID(ctx, s.UUID)
	is.NoErr(err)
	is.Equal(StatusActive, fromDb.Status)
}

func TestGetUnknownSensorReturnsNotFound(t *testing.T) {
	is, ctx, r := testSetupSensorRegistry(t)

	_, err := r.GetSensorByUUID(ctx, "6f1aaf04-8a4e-4af9-9e1e-1f2dbbb4a1b0")
	is.Equal(ErrSensorNotFound, err)
}

func TestCreateSensorRejectsMalformedUUID(t *testing.T) {
	is, ctx, r := testSetupSensorRegistry(t)

	err := r.CreateSensor(ctx, &Sensor{UUID: "not-a-uuid", Type: "air_quality"})
	is.Equal(ErrInvalidUUID, err)
}

func TestUpdateSensorAppliesOnlySuppliedFields(t *testing.T) {
	is, ctx, r := testSetupSensorRegistry(t)

	s := &Sensor{Type: "air_quality"}
	is.NoErr(r.CreateSensor(ctx, s))

	updated, err := r.UpdateSensor(ctx, s.UUID, map[string]any{
		"statut":  "maintenance",
		"ignored": "value",
	})
	is.NoErr(err)
	is.Equal(StatusMaintenance, updated.Status)
	is.Equal("air_quality", updated.Type)
}

func TestUpdateUnknownSensorReturnsNotFound(t *testing.T) {
	is, ctx, r := testSetupSensorRegistry(t)

	_, err := r.UpdateSensor(ctx, "a3a9fbb2-0676-43ab-a1c8-eb0a82ebe0a0", map[string]any{"statut": "failed"})
	is.Equal(ErrSensorNotFound, err)
}

func TestDeleteSensorCascades(t *testing.T) {
	is, ctx, r := testSetupSensorRegistry(t)

	s := &Sensor{Type: "air_quality"}
	is.NoErr(r.CreateSensor(ctx, s))

	is.NoErr(r.AddMeasurement(ctx, &Measurement{SensorUUID: s.UUID, Pollutant: "PM2.5", Value: 12.5}))
	is.NoErr(r.AddStatusEntry(ctx, &StatusEntry{SensorUUID: s.UUID, Status: StatusMaintenance}))

	deleted, err := r.DeleteSensor(ctx, s.UUID)
	is.NoErr(err)
	is.True(deleted)

	measurements, err := r.GetMeasurements(ctx, 10)
	is.NoErr(err)
	is.Equal(0, len(measurements))

	statuses, err := r.ResolveStatuses(ctx)
	is.NoErr(err)
	is.Equal(0, len(statuses))

	deleted, err = r.DeleteSensor(ctx, s.UUID)
	is.NoErr(err)
	is.True(!deleted)
}

func TestAddMeasurementRequiresExistingSensor(t *testing.T) {
	is, ctx, r := testSetupSensorRegistry(t)

	err := r.AddMeasurement(ctx, &Measurement{
		SensorUUID: "8c1f13c4-70a4-4f3b-96f4-9e5ad1188cd5",
		Pollutant:  "PM2.5",
		Value:      10,
	})
	is.Equal(ErrSensorNotFound, err)

	measurements, err := r.GetMeasurements(ctx, 10)
	is.NoErr(err)
	is.Equal(0, len(measurements)) // nothing was persisted
}

func TestResolveStatusesLatestEntryWins(t *testing.T) {
	is, ctx, r := testSetupSensorRegistry(t)

	withHistory := &Sensor{Type: "air_quality"}
	is.NoErr(r.CreateSensor(ctx, withHistory))

	withoutHistory := &Sensor{Type: "air_quality", Status: StatusMaintenance}
	is.NoErr(r.CreateSensor(ctx, withoutHistory))

	now := time.Now().UTC()
	is.NoErr(r.AddStatusEntry(ctx, &StatusEntry{SensorUUID: withHistory.UUID, Status: StatusFailed, Timestamp: now.Add(-2 * time.Hour)}))
	is.NoErr(r.AddStatusEntry(ctx, &StatusEntry{SensorUUID: withHistory.UUID, Status: StatusOutOfService, Timestamp: now.Add(-1 * time.Hour)}))

	statuses, err := r.ResolveStatuses(ctx)
	is.NoErr(err)
	is.Equal(2, len(statuses))
	is.Equal(StatusOutOfService, statuses[withHistory.UUID]) // most recent entry is authoritative
	is.Equal(StatusMaintenance, statuses[withoutHistory.UUID])
}

func TestResolveStatusesBreaksTimestampTies(t *testing.T) {
	is, ctx, r := testSetupSensorRegistry(t)

	s := &Sensor{Type: "air_quality"}
	is.NoErr(r.CreateSensor(ctx, s))

	tied := time.Now().UTC().Add(-1 * time.Hour)
	is.NoErr(r.AddStatusEntry(ctx, &StatusEntry{SensorUUID: s.UUID, Status: StatusFailed, Timestamp: tied}))
	is.NoErr(r.AddStatusEntry(ctx, &StatusEntry{SensorUUID: s.UUID, Status: StatusActive, Timestamp: tied}))

	statuses, err := r.ResolveStatuses(ctx)
	is.NoErr(err)
	is.Equal(1, len(statuses)) // one row per sensor, even with tied entries
	is.Equal(StatusActive, statuses[s.UUID])
}

func TestCreateOwnerRejectsDuplicateEmail(t *testing.T) {
	is, ctx, r := testSetupSensorRegistry(t)

	first := &Owner{Name: "Ville de Lyon", Email: "contact@lyon.fr"}
	is.NoErr(r.CreateOwner(ctx, first))

	err := r.CreateOwner(ctx, &Owner{Name: "Doublon", Email: "contact@lyon.fr"})
	is.Equal(ErrDuplicateEmail, err)

	fromDb, err := r.GetOwnerByID(ctx, first.ID)
	is.NoErr(err)
	is.Equal("Ville de Lyon", fromDb.Name)
}

func TestSeedDistricts(t *testing.T) {
	is, ctx, r := testSetupSensorRegistry(t)

	csv := bytes.NewBufferString(districtsCsvMock)

	is.NoErr(r.Seed(ctx, csv))
	is.NoErr(r.Seed(ctx, bytes.NewBufferString(districtsCsvMock))) // repeatable

	districts, err := r.GetDistricts(ctx)
	is.NoErr(err)
	is.Equal(3, len(districts))
	is.Equal("Croix-Rousse", districts[1].Name)
}

func testSetupSensorRegistry(t *testing.T) (*is.I, context.Context, SensorRegistry) {
	is := is.New(t)

	r, err := NewSensorRegistry(database.NewSQLiteConnector())
	is.NoErr(err)

	return is, context.Background(), r
}

const districtsCsvMock string = `id;nom
1;Presqu'île
2;Croix-Rousse
3;Vieux Lyon`
