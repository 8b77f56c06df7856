package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"online_store/internal/adapters/observability"
	"online_store/internal/domain"
)

// RatingPlaces matches the precision of products.rating.
const RatingPlaces = 2

// MeanGrade is the product rating for the given active-review stats:
// the mean grade rounded half away from zero, or zero when there are no reviews.
func MeanGrade(s domain.GradeStats) decimal.Decimal {
	if s.Count <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(s.Sum).DivRound(decimal.NewFromInt(s.Count), RatingPlaces)
}

// RatingAggregator keeps products.rating equal to the mean grade of the
// product's active reviews. It always recomputes from scratch.
type RatingAggregator struct {
	uow domain.UnitOfWork
}

func NewRatingAggregator(uow domain.UnitOfWork) *RatingAggregator {
	return &RatingAggregator{uow: uow}
}

// Recompute runs inside the caller's transaction. The product row lock is taken
// before the aggregate read, so concurrent recomputes of one product serialize.
func (a *RatingAggregator) Recompute(ctx context.Context, tx domain.RatingStore, productID int64) (decimal.Decimal, error) {
	start := time.Now()
	rating, err := a.recompute(ctx, tx, productID)
	observability.ObserveRating(outcome(err), time.Since(start))
	return rating, err
}

func (a *RatingAggregator) recompute(ctx context.Context, tx domain.RatingStore, productID int64) (decimal.Decimal, error) {
	if _, err := tx.LockProduct(ctx, productID); err != nil {
		return decimal.Decimal{}, err
	}
	stats, err := tx.ActiveGradeStats(ctx, productID)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("aggregate grades for product %d: %w", productID, err)
	}
	rating := MeanGrade(stats)
	if err := tx.SetProductRating(ctx, productID, rating); err != nil {
		return decimal.Decimal{}, fmt.Errorf("store rating for product %d: %w", productID, err)
	}
	log.Debug().
		Int64("product_id", productID).
		Int64("active_reviews", stats.Count).
		Str("rating", rating.StringFixed(RatingPlaces)).
		Msg("rating recomputed")
	return rating, nil
}

// Refresh recomputes one product's rating in its own transaction.
func (a *RatingAggregator) Refresh(ctx context.Context, productID int64) (decimal.Decimal, error) {
	var rating decimal.Decimal
	err := a.uow.WithinTx(ctx, func(tx domain.Tx) error {
		r, err := a.Recompute(ctx, tx, productID)
		rating = r
		return err
	})
	if err != nil {
		return decimal.Decimal{}, err
	}
	return rating, nil
}

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	return "error"
}
