package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"online_store/internal/domain"
)

// Cached views are keyed by a generation counter. Writers bump the counter
// after commit, so a read that loaded rows before the commit can only fill a
// key no later reader asks for.
const reviewsGenKey = "reviews:gen"

func productGenKey(productID int64) string { return fmt.Sprintf("product:gen:%d", productID) }

func activeReviewsKey(gen int64) string { return fmt.Sprintf("reviews:active:g%d", gen) }
func productReviewsKey(productID, gen int64) string {
	return fmt.Sprintf("reviews:product:%d:g%d", productID, gen)
}
func productKey(productID, gen int64) string { return fmt.Sprintf("product:%d:g%d", productID, gen) }

// readCache wraps an optional domain.Cache. Every failure degrades to a miss.
type readCache struct {
	c   domain.Cache
	ttl time.Duration
}

// generation reads a counter; ok is false when caching must be skipped.
func (r readCache) generation(ctx context.Context, key string) (gen int64, ok bool) {
	if r.c == nil {
		return 0, false
	}
	if _, err := r.c.Get(ctx, key, &gen); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache generation read failed")
		return 0, false
	}
	return gen, true
}

func (r readCache) get(ctx context.Context, key string, dst any) bool {
	ok, err := r.c.Get(ctx, key, dst)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		return false
	}
	return ok
}

func (r readCache) set(ctx context.Context, key string, v any) {
	if err := r.c.Set(ctx, key, v, int(r.ttl.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// bump advances generation counters. A failed bump falls back to TTL expiry.
func (r readCache) bump(ctx context.Context, keys ...string) {
	if r.c == nil {
		return
	}
	for _, k := range keys {
		if _, err := r.c.Incr(ctx, k); err != nil {
			log.Warn().Err(err).Str("key", k).Msg("cache generation bump failed")
		}
	}
}
