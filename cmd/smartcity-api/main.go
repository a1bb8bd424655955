package main

import (
	"context"
	"net/http"
	"os"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database"
	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database/analytics"
	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database/cityregistry"
	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database/engagement"
	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database/maintenance"
	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database/mobility"
	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/router"
	"github.com/urbansense/smartcity-api/internal/pkg/presentation/api"
)

const serviceName string = "smartcity-api"

func main() {
	serviceVersion := version()

	logger := newLogger(serviceName, serviceVersion)
	logger.Info().Msg("starting up ...")

	connect := newConnector(logger)

	registry, err := cityregistry.NewSensorRegistry(connect)
	exitIf(err, logger, "failed to create sensor registry")

	interventions, err := maintenance.NewInterventionRepository(connect)
	exitIf(err, logger, "failed to create intervention repository")

	citizens, err := engagement.NewEngagementRepository(connect)
	exitIf(err, logger, "failed to create engagement repository")

	trips, err := mobility.NewTripRepository(connect)
	exitIf(err, logger, "failed to create trip repository")

	aggregates, err := analytics.New(connect)
	exitIf(err, logger, "failed to create analytics")

	if districtsFile, ok := os.LookupEnv("DISTRICTS_FILE"); ok {
		districts, err := os.Open(districtsFile)
		exitIf(err, logger, "failed to open districts file")

		err = registry.Seed(context.Background(), districts)
		districts.Close()
		exitIf(err, logger, "failed to seed districts")
	}

	r := router.New(serviceName)
	api.RegisterHandlers(logger, r, registry, interventions, citizens, trips, aggregates)

	port := os.Getenv("SERVICE_PORT")
	if port == "" {
		port = "8080"
	}

	logger.Info().Str("port", port).Msg("listening for incoming connections")

	err = http.ListenAndServe(":"+port, r)
	exitIf(err, logger, "failed to start request router")
}

func newConnector(logger zerolog.Logger) database.ConnectorFunc {
	cfg := database.LoadConfigFromEnv()
	if cfg.Host == "" {
		logger.Info().Msg("no database host configured, using in-memory store")
		return database.NewSQLiteConnector()
	}

	return database.NewPostgreSQLConnector(logger, cfg)
}

func newLogger(serviceName, serviceVersion string) zerolog.Logger {
	logger := log.With().Str("service", strings.ToLower(serviceName)).Str("version", serviceVersion).Logger()
	return logger
}

func version() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}

	buildSettings := buildInfo.Settings
	infoMap := map[string]string{}
	for _, s := range buildSettings {
		infoMap[s.Key] = s.Value
	}

	sha := infoMap["vcs.revision"]
	if infoMap["vcs.modified"] == "true" {
		sha += "+"
	}

	return sha
}

func exitIf(err error, logger zerolog.Logger, msg string) {
	if err != nil {
		logger.Fatal().Err(err).Msg(msg)
	}
}
