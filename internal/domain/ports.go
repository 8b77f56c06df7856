package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// UnitOfWork runs fn inside a single transaction. A non-nil error from fn
// (or a cancelled ctx) rolls back every write made through tx.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}

// RatingStore is the slice of a transaction the rating aggregator needs.
type RatingStore interface {
	// LockProduct returns the product row and holds its lock until the
	// transaction ends. Inactive products are returned; missing ones are ErrNotFound.
	LockProduct(ctx context.Context, id int64) (Product, error)
	ActiveGradeStats(ctx context.Context, productID int64) (GradeStats, error)
	SetProductRating(ctx context.Context, productID int64, rating decimal.Decimal) error
}

// Tx is the transaction-scoped view of the store used by review mutations.
type Tx interface {
	RatingStore

	// LockReview returns the review row (active or not) and holds its lock.
	LockReview(ctx context.Context, id int64) (Review, error)
	InsertReview(ctx context.Context, r *Review) error
	DeactivateReview(ctx context.Context, id int64) error
}

type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]Category, error)
	ListProducts(ctx context.Context, q ProductsQuery) ([]Product, error)
	// GetProduct returns active and inactive products alike.
	GetProduct(ctx context.Context, id int64) (Product, error)
	ListProductIDs(ctx context.Context) ([]int64, error)
}

type ReviewRepository interface {
	ListActiveReviews(ctx context.Context) ([]Review, error)
	ListActiveReviewsByProduct(ctx context.Context, productID int64) ([]Review, error)
}

type UserRepository interface {
	// CreateUser fills u.ID; a duplicate email is ErrAlreadyExists.
	CreateUser(ctx context.Context, u *User) error
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, keys ...string) error
	// Incr atomically increments an integer counter, creating it at 1.
	Incr(ctx context.Context, key string) (int64, error)
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type TokenIssuer interface {
	Issue(u User) (string, error)
}
