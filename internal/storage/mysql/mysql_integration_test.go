//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"online_store/internal/app"
	"online_store/internal/domain"
	mysqlrepo "online_store/internal/storage/mysql"
)

// ---------- small helpers ----------

func migrationsDir(t *testing.T) string {
	t.Helper()
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir(t)

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("MIGRATIONS_DIR=%s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	// Start isolated MySQL; let Docker pick a free host port.
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Fatalf("dockertest: %v", err)
	}

	runOpts := &dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=store",
		},
	}
	resource, err := pool.RunWithOptions(runOpts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	hostPort := resource.GetPort("3306/tcp")
	dsn := fmt.Sprintf("root:%s@tcp(127.0.0.1:%s)/%s?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		"root", hostPort, "store")

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func rating(t *testing.T, db *sql.DB, productID int64) string {
	t.Helper()
	var r string
	if err := db.QueryRow(`SELECT rating FROM products WHERE id = ?`, productID).Scan(&r); err != nil {
		t.Fatalf("read rating: %v", err)
	}
	return r
}

// ---------- the tests ----------

func TestRepo_MySQL_ReviewLifecycleMaintainsRating(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	buyer := domain.User{Email: "buyer@example.com", PasswordHash: "x", Role: domain.RoleBuyer, IsActive: true}
	if err := repo.CreateUser(ctx, &buyer); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	actor := domain.Actor{UserID: buyer.ID, Role: domain.RoleBuyer}
	admin := domain.Actor{UserID: buyer.ID, Role: domain.RoleAdmin}

	svc := app.NewReviewService(repo, repo, repo, app.NewRatingAggregator(repo), nil, time.Minute)

	if got := rating(t, db, 1); got != "0.00" {
		t.Fatalf("initial rating = %s", got)
	}
	r4, err := svc.Create(ctx, actor, app.ReviewInput{ProductID: 1, Grade: 4})
	if err != nil {
		t.Fatalf("create grade 4: %v", err)
	}
	if got := rating(t, db, 1); got != "4.00" {
		t.Fatalf("rating after 4 = %s", got)
	}
	if _, err := svc.Create(ctx, actor, app.ReviewInput{ProductID: 1, Grade: 2}); err != nil {
		t.Fatalf("create grade 2: %v", err)
	}
	if got := rating(t, db, 1); got != "3.00" {
		t.Fatalf("rating after 2 = %s", got)
	}
	if _, err := svc.Delete(ctx, admin, r4.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := rating(t, db, 1); got != "2.00" {
		t.Fatalf("rating after delete = %s", got)
	}

	// inactive product from the seed data
	if _, err := svc.Create(ctx, actor, app.ReviewInput{ProductID: 2, Grade: 5}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found for inactive product, got %v", err)
	}

	// abort after insert: neither the review nor the rating change survives
	errAbort := errors.New("abort")
	err = repo.WithinTx(ctx, func(tx domain.Tx) error {
		rv := domain.Review{ProductID: 1, UserID: buyer.ID, Grade: 5, CommentDate: time.Now().UTC()}
		if err := tx.InsertReview(ctx, &rv); err != nil {
			return err
		}
		if _, err := app.NewRatingAggregator(repo).Recompute(ctx, tx, 1); err != nil {
			return err
		}
		return errAbort
	})
	if !errors.Is(err, errAbort) {
		t.Fatalf("expected abort, got %v", err)
	}
	if got := rating(t, db, 1); got != "2.00" {
		t.Fatalf("rating after aborted tx = %s", got)
	}
	active, err := repo.ListActiveReviewsByProduct(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 1 || active[0].Grade != 2 {
		t.Fatalf("unexpected active reviews: %+v", active)
	}
}

func TestRepo_MySQL_ConcurrentReviewsConverge(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	buyer := domain.User{Email: "many@example.com", PasswordHash: "x", Role: domain.RoleBuyer, IsActive: true}
	if err := repo.CreateUser(ctx, &buyer); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	actor := domain.Actor{UserID: buyer.ID, Role: domain.RoleBuyer}
	svc := app.NewReviewService(repo, repo, repo, app.NewRatingAggregator(repo), nil, time.Minute)

	grades := []int{5, 1, 4, 4, 2, 3, 5, 5, 1, 2, 3, 4, 5, 5, 4, 3}
	var wg sync.WaitGroup
	errs := make(chan error, len(grades))
	for _, g := range grades {
		wg.Add(1)
		go func(grade int) {
			defer wg.Done()
			if _, err := svc.Create(ctx, actor, app.ReviewInput{ProductID: 1, Grade: grade}); err != nil {
				errs <- err
			}
		}(g)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent create: %v", err)
	}

	// 56 / 16
	if got := rating(t, db, 1); got != "3.50" {
		t.Fatalf("rating after concurrent creates = %s", got)
	}
}
