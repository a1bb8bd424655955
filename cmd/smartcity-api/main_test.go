package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database"
	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database/analytics"
	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database/cityregistry"
	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database/engagement"
	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database/maintenance"
	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database/mobility"
	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/router"
	"github.com/urbansense/smartcity-api/internal/pkg/presentation/api"
)

func TestHealth(t *testing.T) {
	r, is := setupTest(t)
	server := httptest.NewServer(r)
	defer server.Close()

	resp, _ := testRequest(is, server, http.MethodGet, "/health", nil)

	is.Equal(resp.StatusCode, http.StatusNoContent)
}

func TestSeededDistrictsAreListed(t *testing.T) {
	r, is := setupTest(t)
	server := httptest.NewServer(r)
	defer server.Close()

	resp, body := testRequest(is, server, http.MethodGet, "/api/arrondissements", nil)

	is.Equal(resp.StatusCode, http.StatusOK)
	is.True(len(body) > 2)
}

func TestAvailabilityCoversSeededDistricts(t *testing.T) {
	r, is := setupTest(t)
	server := httptest.NewServer(r)
	defer server.Close()

	resp, body := testRequest(is, server, http.MethodGet, "/api/analytics/availability_by_arrondissement", nil)

	is.Equal(resp.StatusCode, http.StatusOK)
	is.True(bytes.Contains([]byte(body), []byte("Presqu'ile")))
}

func setupTest(t *testing.T) (*chi.Mux, *is.I) {
	is := is.New(t)
	log := zerolog.Logger{}

	connect := database.NewSQLiteConnector()

	registry, err := cityregistry.NewSensorRegistry(connect)
	is.NoErr(err)
	interventions, err := maintenance.NewInterventionRepository(connect)
	is.NoErr(err)
	citizens, err := engagement.NewEngagementRepository(connect)
	is.NoErr(err)
	trips, err := mobility.NewTripRepository(connect)
	is.NoErr(err)
	aggregates, err := analytics.New(connect)
	is.NoErr(err)

	err = registry.Seed(context.Background(), bytes.NewBufferString(csvMock))
	is.NoErr(err)

	r := router.New("testService")
	api.RegisterHandlers(log, r, registry, interventions, citizens, trips, aggregates)

	return r, is
}

func testRequest(is *is.I, ts *httptest.Server, method, path string, body io.Reader) (*http.Response, string) {
	req, _ := http.NewRequest(method, ts.URL+path, body)
	resp, _ := http.DefaultClient.Do(req)
	respBody, _ := io.ReadAll(resp.Body)
	defer resp.Body.Close()

	return resp, string(respBody)
}

const csvMock string = `id;nom
1;Presqu'ile
4;Croix-Rousse
8;Monplaisir`
