package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mapa-accesible/mapa-accesible-backend/config"
	"github.com/mapa-accesible/mapa-accesible-backend/internal/auth"
	"github.com/mapa-accesible/mapa-accesible-backend/internal/bootstrap"
	pointscache "github.com/mapa-accesible/mapa-accesible-backend/internal/points/cache"
	"github.com/mapa-accesible/mapa-accesible-backend/internal/points/images"
	pointsrepo "github.com/mapa-accesible/mapa-accesible-backend/internal/points/repository"
	pointsvc "github.com/mapa-accesible/mapa-accesible-backend/internal/points/service"
	"github.com/mapa-accesible/mapa-accesible-backend/internal/roles/reconcile"
	rolesrepo "github.com/mapa-accesible/mapa-accesible-backend/internal/roles/repository"
	rolesvc "github.com/mapa-accesible/mapa-accesible-backend/internal/roles/service"
)

const serviceName = "mapa-accesible-backend"

func main() {
	log := newLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	log = log.Level(parseLevel(cfg.App.LogLevel))

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clients, err := auth.InitializeFirebase(ctx, &cfg.Firebase)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize Firebase")
	}
	defer clients.Firestore.Close()

	db, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Database.DSN()})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	rdb, err := bootstrap.OpenRedis(ctx, &cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open redis")
	}
	defer rdb.Close()

	claimsRepo := rolesrepo.NewClaimsRepo(clients.Auth)
	profileRepo := rolesrepo.NewProfileRepo(db)
	if err := profileRepo.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure schema")
	}

	roleService := rolesvc.New(claimsRepo, profileRepo, log, cfg.Roles.ListOpenToAll)

	pointRepo := pointsrepo.NewPointRepo(clients.Firestore, log)
	bookmarkRepo := pointsrepo.NewBookmarkRepo(clients.Firestore, log)
	imageStore := images.NewStore(clients.Bucket, cfg.Firebase.StorageBucket, log)
	approvedCache := pointscache.New(rdb, 5*time.Minute, log)

	pointService := pointsvc.New(pointRepo, bookmarkRepo, imageStore, approvedCache, log)

	reconciler := reconcile.New(claimsRepo, profileRepo, log)
	scheduler, err := reconcile.StartScheduler(reconciler, cfg.Roles.ReconcileSpec, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start reconcile scheduler")
	}
	defer scheduler.Stop()

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		DB:          db,
		Redis:       rdb,
		AuthClient:  clients.Auth,
		Roles:       roleService,
		Points:      pointService,
		Log:         log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

func newLogger() zerolog.Logger {
	return zerolog.New(os.Stdout).With().Timestamp().Str("service", serviceName).Logger()
}

func parseLevel(s string) zerolog.Level {
	level, err := zerolog.ParseLevel(s)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
