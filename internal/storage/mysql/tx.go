package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"online_store/internal/domain"
)

// WithinTx runs fn in a READ COMMITTED transaction: once a row lock is granted,
// later plain reads see everything committed before it.
func (r *Repo) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	sqlTx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = sqlTx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&txStore{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Error().Err(rbErr).Msg("rollback failed")
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type txStore struct{ tx *sql.Tx }

func (t *txStore) LockProduct(ctx context.Context, id int64) (domain.Product, error) {
	return getProduct(ctx, t.tx, lockProductSQL, id)
}

func (t *txStore) ActiveGradeStats(ctx context.Context, productID int64) (domain.GradeStats, error) {
	var s domain.GradeStats
	if err := t.tx.QueryRowContext(ctx, gradeStatsSQL, productID).Scan(&s.Count, &s.Sum); err != nil {
		return domain.GradeStats{}, err
	}
	return s, nil
}

func (t *txStore) SetProductRating(ctx context.Context, productID int64, rating decimal.Decimal) error {
	// RowsAffected is 0 when the value is unchanged, so it cannot detect a
	// missing product; LockProduct guards that.
	_, err := t.tx.ExecContext(ctx, setRatingSQL, rating.StringFixed(2), productID)
	return err
}

func (t *txStore) LockReview(ctx context.Context, id int64) (domain.Review, error) {
	rv, err := scanReview(t.tx.QueryRowContext(ctx, lockReviewSQL, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Review{}, domain.NotFound("review", id)
	}
	if err != nil {
		return domain.Review{}, fmt.Errorf("load review %d: %w", id, err)
	}
	return rv, nil
}

func (t *txStore) InsertReview(ctx context.Context, rv *domain.Review) error {
	res, err := t.tx.ExecContext(ctx, insertReviewSQL,
		rv.ProductID,
		rv.UserID,
		valStr(rv.Comment),
		rv.CommentDate,
		rv.Grade,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	rv.ID = id
	rv.IsActive = true
	return nil
}

func (t *txStore) DeactivateReview(ctx context.Context, id int64) error {
	_, err := t.tx.ExecContext(ctx, deactivateReviewSQL, id)
	return err
}
