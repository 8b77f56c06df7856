package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/semaphore"

	"online_store/internal/adapters/observability"
	redisad "online_store/internal/adapters/redis"
	"online_store/internal/app"
	"online_store/internal/shared"
	mysqlrepo "online_store/internal/storage/mysql"
)

// rerate recomputes stored product ratings from the active reviews.
// With no arguments every product is processed; otherwise only the given ids.
func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	db, err := sql.Open("mysql", cfg.MySQLDSN)
	if err != nil {
		log.Error().Err(err).Msg("sql.Open failed")
		return 1
	}
	defer db.Close()
	if err := db.PingContext(ctx); err != nil {
		log.Error().Err(err).Msg("db.Ping failed")
		return 1
	}
	log.Info().Msg("db ping ok")

	repo := mysqlrepo.New(db)
	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	svc := app.NewReviewService(repo, repo, repo, app.NewRatingAggregator(repo), cache, cfg.CacheTTL)

	ids, err := productIDs(ctx, repo, os.Args[1:])
	if err != nil {
		log.Error().Err(err).Msg("resolve product ids failed")
		return 1
	}

	workers := cfg.RerateWorkers
	if workers < 1 {
		workers = 1
	}
	log.Info().Int("products", len(ids)).Int("workers", workers).Msg("rerate starting")

	res := rerateAll(ctx, ids, workers, svc.Rerate)
	log.Info().Int64("failed", res.failed).Int("skipped", res.skipped).Msg("rerate completed")
	if res.failed > 0 || res.skipped > 0 {
		return 1
	}
	return 0
}

type result struct {
	failed  int64
	skipped int // ids never started because ctx was cancelled
}

func rerateAll(ctx context.Context, ids []int64, workers int, rerate func(context.Context, int64) (decimal.Decimal, error)) result {
	sem := semaphore.NewWeighted(int64(workers))
	var (
		wg     sync.WaitGroup
		failed atomic.Int64
		res    result
	)
	for i, id := range ids {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			res.skipped = len(ids) - i
			log.Warn().Err(err).Int("skipped", res.skipped).Msg("rerate interrupted")
			break
		}

		wg.Add(1)
		go func(productID int64) {
			defer wg.Done()
			defer sem.Release(1)

			rating, err := rerate(ctx, productID)
			if err != nil {
				failed.Add(1)
				log.Warn().Int64("product_id", productID).Err(err).Msg("rerate failed")
				return
			}
			log.Info().Int64("product_id", productID).Str("rating", rating.StringFixed(app.RatingPlaces)).Msg("rerate ok")
		}(id)
	}

	wg.Wait()
	res.failed = failed.Load()
	return res
}

type productLister interface {
	ListProductIDs(ctx context.Context) ([]int64, error)
}

func productIDs(ctx context.Context, repo productLister, args []string) ([]int64, error) {
	if len(args) == 0 {
		return repo.ListProductIDs(ctx)
	}
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil || id <= 0 {
			return nil, &strconv.NumError{Func: "ParseInt", Num: a, Err: strconv.ErrSyntax}
		}
		ids = append(ids, id)
	}
	return ids, nil
}
