package domain

import "time"

// Review grades are bounded to a five-point scale.
const (
	MinGrade = 1
	MaxGrade = 5
)

// Review is soft-deleted by clearing IsActive; rows are never removed.
type Review struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	UserID      int64     `json:"user_id"`
	Comment     *string   `json:"comment"`
	CommentDate time.Time `json:"comment_date"`
	Grade       int       `json:"grade"`
	IsActive    bool      `json:"is_active"`
}

// GradeStats summarizes the active reviews of one product.
type GradeStats struct {
	Count int64
	Sum   int64
}
