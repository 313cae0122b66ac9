package main

import (
	"context"
	"fmt"

	"github.com/ndelyukov/go-note-sync/internal/config"
	"github.com/ndelyukov/go-note-sync/internal/handler"
	"github.com/ndelyukov/go-note-sync/internal/ledger"
	"github.com/ndelyukov/go-note-sync/internal/logger"
	"github.com/ndelyukov/go-note-sync/internal/server"
	"github.com/ndelyukov/go-note-sync/internal/service"
	"github.com/ndelyukov/go-note-sync/internal/session"
	"github.com/ndelyukov/go-note-sync/internal/store"
	"github.com/ndelyukov/go-note-sync/internal/workers"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("note-sync-server")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Without persistence every repository is in-process: sessions and
	// statistics live in the manager's maps, the version ledger over a
	// memory repository. A restart then loses all sync state.
	var (
		sessionsRepo store.SessionRepository
		versionsRepo store.EntityVersionRepository = store.NewMemoryEntityVersionRepository()
		statsRepo    store.StatisticsRepository
	)

	if cfg.Sync.Persistence() {
		repositories, err := store.NewRepositories(ctx, cfg.Storage, log)
		if err != nil {
			log.Fatal().Err(err).Msg("error creating repositories")
		}
		defer repositories.Close()

		sessionsRepo = repositories.Sessions
		versionsRepo = repositories.EntityVersions
		statsRepo = repositories.Statistics
	} else {
		log.Warn().Msg("persistence disabled, all sync state is lost on restart")
	}

	versionLedger := ledger.NewLedger(versionsRepo, log)
	stats := session.NewStatsAggregator(statsRepo, log)
	manager := session.NewManager(sessionsRepo, stats, nil, cfg.Sync, log)

	var cleanup *session.CleanupWorker
	backgroundWorkers := workers.NewWorkers()

	if sessionsRepo != nil {
		recovered, err := session.NewRecoveryManager(sessionsRepo, cfg.Sync.RecoveryTimeout, log).Run(ctx)
		if err != nil {
			log.Err(err).Msg("error recovering interrupted sessions")
		} else if recovered > 0 {
			log.Info().Int("recovered", recovered).Msg("failed sessions interrupted by previous shutdown")
		}

		cleanup = session.NewCleanupWorker(sessionsRepo, cfg.Sync, log)
		backgroundWorkers = workers.NewWorkers(cleanup)
	}

	services := service.NewServices(service.Deps{
		Manager:  manager,
		Ledger:   versionLedger,
		Versions: versionsRepo,
		Sessions: sessionsRepo,
		Cleanup:  cleanup,
		Stats:    stats,
	}, log)

	handlers, err := handler.NewHandlers(services, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	srv, err := server.NewServer(handlers, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	backgroundWorkers.Run(ctx)

	srv.RunServer()

	cancel()
	backgroundWorkers.Wait()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
