package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/sair-explore/quest-api/internal/adapters/httpapi"
	"github.com/sair-explore/quest-api/internal/adapters/mappls"
	memquestrepo "github.com/sair-explore/quest-api/internal/adapters/memory/questrepo"
	memuserrepo "github.com/sair-explore/quest-api/internal/adapters/memory/userrepo"
	"github.com/sair-explore/quest-api/internal/adapters/postgres"
	"github.com/sair-explore/quest-api/internal/adapters/postgres/migrations"
	pgquestrepo "github.com/sair-explore/quest-api/internal/adapters/postgres/questrepo"
	pguserrepo "github.com/sair-explore/quest-api/internal/adapters/postgres/userrepo"
	"github.com/sair-explore/quest-api/internal/app/quests"
	"github.com/sair-explore/quest-api/internal/app/users"
	"github.com/sair-explore/quest-api/internal/app/wizard"
	platformclock "github.com/sair-explore/quest-api/internal/platform/clock"
	"github.com/sair-explore/quest-api/internal/platform/config"
	"github.com/sair-explore/quest-api/internal/ports/out/placesearch"
	questrepoport "github.com/sair-explore/quest-api/internal/ports/out/questrepo"
	userrepoport "github.com/sair-explore/quest-api/internal/ports/out/userrepo"
)

func main() {
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		log = log.Level(lvl)
	} else {
		log.Warn().Str("level", cfg.LogLevel).Msg("unknown log level, keeping info")
	}

	var authMW func(http.Handler) http.Handler
	switch cfg.AuthMode {
	case "dev":
		authMW = httpapi.NewDevAuthMiddleware(cfg.DevSubject)
		log.Warn().Msg("dev auth shim active; do not expose this deployment")
	default:
		if len(cfg.APITokens) == 0 {
			log.Fatal().Msg("AUTH_MODE=token requires API_TOKENS")
		}
		authMW = httpapi.NewAuthMiddleware(cfg.APITokens)
	}

	clk := platformclock.NewSystemClock()

	var (
		questRepo questrepoport.Repository
		userRepo  userrepoport.Repository
		cleanup   func()
	)
	switch cfg.StorageBackend {
	case "postgres":
		if err := migrations.Run(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("running migrations")
		}
		pool, err := postgres.NewPool(context.Background(), cfg.DatabaseURL, postgres.PoolOptions{})
		if err != nil {
			log.Fatal().Err(err).Msg("invalid postgres config")
		}
		cleanup = pool.Close
		questRepo = pgquestrepo.NewRepo(pool)
		userRepo = pguserrepo.NewRepo(pool)
	default:
		questRepo = memquestrepo.NewRepo()
		userRepo = memuserrepo.NewRepo()
	}
	if cleanup != nil {
		defer cleanup()
	}

	maps, err := mappls.NewClient(cfg.MapplsBaseURL, cfg.MapplsAPIKey, cfg.ExternalCallTimeout, log)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid mappls config")
	}

	questSvc := quests.NewService(questRepo, userRepo, clk, log)
	userSvc := users.NewService(userRepo, clk)

	registry := wizard.NewRegistry(
		wizard.Deps{
			Search: maps,
			Routes: maps,
			Saver:  questSvc,
			Clock:  clk,
			Log:    log,
		},
		wizard.Options{
			Anchor: placesearch.Anchor{Latitude: cfg.SearchAnchorLat, Longitude: cfg.SearchAnchorLng},
			Zoom:   cfg.SearchZoom,
		},
		cfg.DraftTTL,
	)

	api := httpapi.NewServer(questSvc, userSvc, registry)
	handler := httpapi.NewRouter(api, httpapi.RouterOptions{
		AuthMiddleware: authMW,
		Log:            log,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Idle wizard sessions accumulate state; sweep them on a fraction of
	// the TTL so memory is bounded without per-session timers.
	if cfg.DraftTTL > 0 {
		interval := cfg.DraftTTL / 4
		if interval < time.Minute {
			interval = time.Minute
		}
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case now := <-ticker.C:
					if n := registry.PurgeExpired(now); n > 0 {
						log.Info().Int("purged", n).Msg("expired draft sessions removed")
					}
				}
			}
		}()
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Str("storage", cfg.StorageBackend).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}
