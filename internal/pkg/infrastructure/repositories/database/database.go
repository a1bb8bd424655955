package database

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type ConnectorConfig struct {
	Host     string
	Port     string
	Username string
	DbName   string
	Password string
	SslMode  string
}

func LoadConfigFromEnv() ConnectorConfig {
	getenv := func(key, def string) string {
		if value, ok := os.LookupEnv(key); ok {
			return value
		}
		return def
	}

	return ConnectorConfig{
		Host:     os.Getenv("POSTGRES_HOST"),
		Port:     getenv("POSTGRES_PORT", "5432"),
		Username: os.Getenv("POSTGRES_USER"),
		DbName:   getenv("POSTGRES_DBNAME", "smartcity"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		SslMode:  getenv("POSTGRES_SSLMODE", "disable"),
	}
}

// ConnectorFunc hands out the database handle used by the repositories.
// Repeated calls return the same handle so that all repositories operate
// on one database.
type ConnectorFunc func() (*gorm.DB, error)

func NewSQLiteConnector() ConnectorFunc {
	var once sync.Once
	var db *gorm.DB
	var err error

	return func() (*gorm.DB, error) {
		once.Do(func() {
			db, err = gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
				Logger:          logger.Default.LogMode(logger.Silent),
				CreateBatchSize: 1000,
			})

			if err == nil {
				db.Exec("PRAGMA foreign_keys = ON")
				sqldb, _ := db.DB()
				sqldb.SetMaxOpenConns(1)
			}
		})

		return db, err
	}
}

func NewPostgreSQLConnector(log zerolog.Logger, cfg ConnectorConfig) ConnectorFunc {
	dbURI := fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s sslmode=%s password=%s",
		cfg.Host, cfg.Port, cfg.Username, cfg.DbName, cfg.SslMode, cfg.Password,
	)

	var once sync.Once
	var db *gorm.DB
	var err error

	return func() (*gorm.DB, error) {
		once.Do(func() {
			sublogger := log.With().
				Str("host", cfg.Host).
				Str("database", cfg.DbName).
				Logger()

			sublogger.Info().Msg("connecting to database host")

			db, err = gorm.Open(postgres.Open(dbURI), &gorm.Config{
				Logger: logger.New(
					&logadapter{logger: sublogger},
					logger.Config{
						SlowThreshold:             time.Second,
						LogLevel:                  logger.Warn,
						IgnoreRecordNotFoundError: true,
						Colorful:                  false,
					},
				),
			})
			if err != nil {
				sublogger.Error().Err(err).Msg("failed to connect to database")
			}
		})

		return db, err
	}
}

// logadapter provides a Printf interface to the gorm logger
// so that we can forward the log data to zerolog
type logadapter struct {
	logger zerolog.Logger
}

func (adapter *logadapter) Printf(format string, args ...interface{}) {
	adapter.logger.Info().Msgf(format, args...)
}
