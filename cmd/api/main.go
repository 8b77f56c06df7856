package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"online_store/internal/adapters/auth"
	server "online_store/internal/adapters/http_server"
	"online_store/internal/adapters/observability"
	redisad "online_store/internal/adapters/redis"
	"online_store/internal/app"
	"online_store/internal/shared"
	mysqlrepo "online_store/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := observability.InitRegistry()
	metricsSrv := observability.Serve(cfg.MetricsAddr, reg)

	// db
	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("sql.Open failed")
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("db.Ping failed")
	}
	log.Info().Msg("database connection ok")

	// deps
	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		// reads fall back to MySQL on cache errors
		log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable")
	}
	tokens := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)

	ratings := app.NewRatingAggregator(repo)
	reviews := app.NewReviewService(repo, repo, repo, ratings, cache, cfg.CacheTTL)
	catalog := app.NewCatalogService(repo, cache, cfg.CacheTTL)
	accounts := app.NewAccountService(repo, auth.NewBcrypt(), tokens)

	// http
	srv := server.New(server.Options{
		Tokens:     tokens,
		WriteRPS:   cfg.WriteRPS,
		WriteBurst: cfg.WriteBurst,
	})
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Reviews: reviews, Catalog: catalog, Accounts: accounts})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	srv.Close()
}
