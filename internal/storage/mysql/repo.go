package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	mysqldrv "github.com/go-sql-driver/mysql"

	"online_store/internal/domain"
)

const errDuplicateEntry = 1062

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullStr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

// ---- catalog ----

func (r *Repo) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx, listCategoriesSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		var parent sql.NullInt64
		if err := rows.Scan(&c.ID, &c.Name, &parent, &c.IsActive); err != nil {
			return nil, err
		}
		if parent.Valid {
			p := parent.Int64
			c.ParentID = &p
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) ListProducts(ctx context.Context, q domain.ProductsQuery) ([]domain.Product, error) {
	query, args := listProductsSQL, []any{}
	if q.CategoryID != nil {
		query += ` AND category_id = ?`
		args = append(args, *q.CategoryID)
	}
	query += ` ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	return getProduct(ctx, r.db, getProductSQL, id)
}

func (r *Repo) ListProductIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, listProductIDsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ---- reviews ----

func (r *Repo) ListActiveReviews(ctx context.Context) ([]domain.Review, error) {
	return listReviews(ctx, r.db, listActiveReviewsSQL)
}

func (r *Repo) ListActiveReviewsByProduct(ctx context.Context, productID int64) ([]domain.Review, error) {
	return listReviews(ctx, r.db, listActiveReviewsByProductSQL, productID)
}

// ---- users ----

func (r *Repo) CreateUser(ctx context.Context, u *domain.User) error {
	res, err := r.db.ExecContext(ctx, insertUserSQL, u.Email, u.PasswordHash, string(u.Role), u.IsActive)
	if err != nil {
		var me *mysqldrv.MySQLError
		if errors.As(err, &me) && me.Number == errDuplicateEntry {
			return domain.AlreadyExists("email is already registered")
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	var role string
	err := r.db.QueryRowContext(ctx, getUserByEmailSQL, email).
		Scan(&u.ID, &u.Email, &u.PasswordHash, &role, &u.IsActive)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, &domain.Error{Kind: domain.ErrNotFound, Message: "user not found"}
	}
	if err != nil {
		return domain.User{}, err
	}
	u.Role = domain.Role(role)
	return u, nil
}

// ---- shared scanning ----

func getProduct(ctx context.Context, q queryer, query string, id int64) (domain.Product, error) {
	p, err := scanProduct(q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Product{}, domain.NotFound("product", id)
	}
	if err != nil {
		return domain.Product{}, fmt.Errorf("load product %d: %w", id, err)
	}
	return p, nil
}

func scanProduct(s scanner) (domain.Product, error) {
	var p domain.Product
	var desc, img sql.NullString
	if err := s.Scan(
		&p.ID,
		&p.Name,
		&desc,
		&p.Price,
		&img,
		&p.Stock,
		&p.IsActive,
		&p.CategoryID,
		&p.Rating,
	); err != nil {
		return domain.Product{}, err
	}
	p.Description = nullStr(desc)
	p.ImageURL = nullStr(img)
	return p, nil
}

func scanReview(s scanner) (domain.Review, error) {
	var rv domain.Review
	var comment sql.NullString
	if err := s.Scan(
		&rv.ID,
		&rv.ProductID,
		&rv.UserID,
		&comment,
		&rv.CommentDate,
		&rv.Grade,
		&rv.IsActive,
	); err != nil {
		return domain.Review{}, err
	}
	rv.Comment = nullStr(comment)
	return rv, nil
}

func listReviews(ctx context.Context, q queryer, query string, args ...any) ([]domain.Review, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
