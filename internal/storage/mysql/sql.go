package mysql

const productColumns = `id, name, description, price, image_url, stock, is_active, category_id, rating`

const reviewColumns = "id, product_id, user_id, comment, comment_date, grade, is_active"

// -----------------------------------------------------------------------------
// TRANSACTION-SCOPED STATEMENTS
// -----------------------------------------------------------------------------

// Row lock on the product; every rating write for the product queues behind it.
const lockProductSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ? FOR UPDATE`

const lockReviewSQL = `SELECT ` + reviewColumns + ` FROM reviews WHERE id = ? FOR UPDATE`

// COUNT and SUM instead of AVG so the mean is rounded once, in Go, with decimal arithmetic.
const gradeStatsSQL = `
SELECT COUNT(*), COALESCE(SUM(grade), 0)
FROM reviews
WHERE product_id = ? AND is_active = 1
`

const setRatingSQL = `UPDATE products SET rating = ? WHERE id = ?`

const insertReviewSQL = `
INSERT INTO reviews
  (product_id, user_id, comment, comment_date, grade, is_active)
VALUES
  (?, ?, ?, ?, ?, 1)
`

const deactivateReviewSQL = `UPDATE reviews SET is_active = 0 WHERE id = ?`

// -----------------------------------------------------------------------------
// READ QUERIES
// -----------------------------------------------------------------------------

const getProductSQL = `SELECT ` + productColumns + ` FROM products WHERE id = ?`

const listProductsSQL = `SELECT ` + productColumns + ` FROM products WHERE is_active = 1`

const listProductIDsSQL = `SELECT id FROM products ORDER BY id`

const listCategoriesSQL = `
SELECT id, name, parent_id, is_active
FROM categories
WHERE is_active = 1
ORDER BY id
`

const listActiveReviewsSQL = `SELECT ` + reviewColumns + ` FROM reviews WHERE is_active = 1 ORDER BY id`

const listActiveReviewsByProductSQL = `SELECT ` + reviewColumns + `
FROM reviews
WHERE product_id = ? AND is_active = 1
ORDER BY id
`

// -----------------------------------------------------------------------------
// USERS
// -----------------------------------------------------------------------------

const insertUserSQL = `
INSERT INTO users (email, password_hash, role, is_active)
VALUES (?, ?, ?, ?)
`

const getUserByEmailSQL = `
SELECT id, email, password_hash, role, is_active
FROM users
WHERE email = ?
`
