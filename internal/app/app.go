// Package app provides application-level wiring for the bq-demo server.
package app

import (
	"database/sql"
	"log/slog"

	"bq-demo/internal/config"
	"bq-demo/internal/db/repository"
	"bq-demo/internal/domain"
	"bq-demo/internal/service/explore"
	"bq-demo/internal/service/metadata"
	"bq-demo/internal/sqlbuilder"
)

// Deps holds the external dependencies that main() must provide: database
// handles, config, and the warehouse client. Warehouse is nil in
// compile-only mode, where /query is unavailable but /explain works.
type Deps struct {
	Cfg       *config.Config
	WriteDB   *sql.DB
	ReadDB    *sql.DB
	Warehouse domain.Warehouse
	Logger    *slog.Logger
}

// Services groups the service pointers the API handler needs.
type Services struct {
	Metadata *metadata.Service
	Explore  *explore.Service
}

// App holds the fully-wired application.
type App struct {
	Services Services
}

// New wires repositories and services from the provided deps.
func New(deps Deps) (*App, error) {
	cfg := deps.Cfg

	dialect, err := sqlbuilder.DialectByName(cfg.Dialect)
	if err != nil {
		return nil, err
	}

	datasetRepo := repository.NewDatasetRepo(deps.WriteDB, deps.ReadDB)
	columnRepo := repository.NewColumnRepo(deps.WriteDB, deps.ReadDB)
	metricRepo := repository.NewMetricRepo(deps.WriteDB, deps.ReadDB)

	metaSvc := metadata.NewService(datasetRepo, columnRepo, metricRepo, deps.Warehouse, deps.Logger)
	exploreSvc := explore.NewService(metaSvc, deps.Warehouse, dialect, deps.Logger)
	exploreSvc.SetStrictFilters(cfg.StrictFilters)

	return &App{
		Services: Services{
			Metadata: metaSvc,
			Explore:  exploreSvc,
		},
	}, nil
}
