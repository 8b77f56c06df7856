package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"online_store/internal/domain"
)

const productGoneMsg = "The product has been deleted or does not exist"

type ReviewInput struct {
	ProductID int64
	Comment   *string
	Grade     int
}

// ReviewService owns the review lifecycle. Every mutation and the rating
// recompute it triggers commit in one transaction.
type ReviewService struct {
	uow      domain.UnitOfWork
	reviews  domain.ReviewRepository
	catalog  domain.CatalogRepository
	ratings  *RatingAggregator
	cache    readCache
	now      func() time.Time
}

func NewReviewService(uow domain.UnitOfWork, reviews domain.ReviewRepository, catalog domain.CatalogRepository,
	ratings *RatingAggregator, cache domain.Cache, ttl time.Duration) *ReviewService {
	return &ReviewService{
		uow:      uow,
		reviews:  reviews,
		catalog:  catalog,
		ratings:  ratings,
		cache:    readCache{c: cache, ttl: ttl},
		now:      time.Now,
	}
}

func (s *ReviewService) Create(ctx context.Context, actor domain.Actor, in ReviewInput) (domain.Review, error) {
	if err := domain.RequireRole(actor, domain.RoleBuyer); err != nil {
		return domain.Review{}, err
	}
	if in.Grade < domain.MinGrade || in.Grade > domain.MaxGrade {
		return domain.Review{}, domain.InvalidInput(fmt.Sprintf("grade must be between %d and %d", domain.MinGrade, domain.MaxGrade))
	}

	rv := domain.Review{
		ProductID:   in.ProductID,
		UserID:      actor.UserID,
		Comment:     in.Comment,
		CommentDate: s.now().UTC().Truncate(time.Second),
		Grade:       in.Grade,
		IsActive:    true,
	}
	var rating decimal.Decimal
	err := s.uow.WithinTx(ctx, func(tx domain.Tx) error {
		p, err := tx.LockProduct(ctx, in.ProductID)
		if errors.Is(err, domain.ErrNotFound) || (err == nil && !p.IsActive) {
			return domain.WithMessage(domain.NotFound("product", in.ProductID), productGoneMsg)
		}
		if err != nil {
			return err
		}
		if err := tx.InsertReview(ctx, &rv); err != nil {
			return fmt.Errorf("insert review: %w", err)
		}
		rating, err = s.ratings.Recompute(ctx, tx, rv.ProductID)
		return err
	})
	if err != nil {
		return domain.Review{}, err
	}

	s.invalidate(ctx, rv.ProductID)
	log.Info().
		Int64("review_id", rv.ID).
		Int64("product_id", rv.ProductID).
		Int64("user_id", rv.UserID).
		Int("grade", rv.Grade).
		Str("rating", rating.StringFixed(RatingPlaces)).
		Msg("review created")
	return rv, nil
}

// Delete soft-deletes an active review. Inactive reviews are reported as missing.
func (s *ReviewService) Delete(ctx context.Context, actor domain.Actor, reviewID int64) (domain.Review, error) {
	if err := domain.RequireRole(actor, domain.RoleAdmin); err != nil {
		return domain.Review{}, err
	}

	var (
		rv     domain.Review
		rating decimal.Decimal
	)
	err := s.uow.WithinTx(ctx, func(tx domain.Tx) error {
		r, err := tx.LockReview(ctx, reviewID)
		if err != nil {
			return err
		}
		if !r.IsActive {
			return domain.NotFound("review", reviewID)
		}
		if _, err := tx.LockProduct(ctx, r.ProductID); err != nil {
			return err
		}
		if err := tx.DeactivateReview(ctx, reviewID); err != nil {
			return fmt.Errorf("deactivate review: %w", err)
		}
		r.IsActive = false
		rv = r
		rating, err = s.ratings.Recompute(ctx, tx, r.ProductID)
		return err
	})
	if err != nil {
		return domain.Review{}, err
	}

	s.invalidate(ctx, rv.ProductID)
	log.Info().
		Int64("review_id", rv.ID).
		Int64("product_id", rv.ProductID).
		Int64("admin_id", actor.UserID).
		Str("rating", rating.StringFixed(RatingPlaces)).
		Msg("review deactivated")
	return rv, nil
}

func (s *ReviewService) ListActive(ctx context.Context) ([]domain.Review, error) {
	gen, useCache := s.cache.generation(ctx, reviewsGenKey)
	key := activeReviewsKey(gen)
	var out []domain.Review
	if useCache && s.cache.get(ctx, key, &out) {
		return out, nil
	}
	out, err := s.reviews.ListActiveReviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	if useCache {
		s.cache.set(ctx, key, out)
	}
	return out, nil
}

func (s *ReviewService) ListByProduct(ctx context.Context, productID int64) ([]domain.Review, error) {
	p, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, domain.NotFound("product", productID)
	}

	gen, useCache := s.cache.generation(ctx, productGenKey(productID))
	key := productReviewsKey(productID, gen)
	var out []domain.Review
	if useCache && s.cache.get(ctx, key, &out) {
		return out, nil
	}
	out, err = s.reviews.ListActiveReviewsByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list reviews of product %d: %w", productID, err)
	}
	if useCache {
		s.cache.set(ctx, key, out)
	}
	return out, nil
}

// invalidate retires every cached view that embeds the product's reviews or rating.
func (s *ReviewService) invalidate(ctx context.Context, productID int64) {
	s.cache.bump(ctx, reviewsGenKey, productGenKey(productID))
}

// Rerate recomputes one product's rating outside any review mutation and
// evicts the cached views of it.
func (s *ReviewService) Rerate(ctx context.Context, productID int64) (decimal.Decimal, error) {
	rating, err := s.ratings.Refresh(ctx, productID)
	if err != nil {
		return decimal.Decimal{}, err
	}
	s.invalidate(ctx, productID)
	return rating, nil
}
