package httpserver

import (
	"online_store/internal/app"
	"online_store/internal/domain"
)

// productView renders money and rating as fixed two-place strings.
type productView struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       string  `json:"price"`
	ImageURL    *string `json:"image_url"`
	Stock       int     `json:"stock"`
	IsActive    bool    `json:"is_active"`
	CategoryID  int64   `json:"category_id"`
	Rating      string  `json:"rating"`
}

func toProductView(p domain.Product) productView {
	return productView{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.StringFixed(2),
		ImageURL:    p.ImageURL,
		Stock:       p.Stock,
		IsActive:    p.IsActive,
		CategoryID:  p.CategoryID,
		Rating:      p.Rating.StringFixed(app.RatingPlaces),
	}
}

func toProductViews(ps []domain.Product) []productView {
	out := make([]productView, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProductView(p))
	}
	return out
}

type userView struct {
	ID       int64       `json:"id"`
	Email    string      `json:"email"`
	Role     domain.Role `json:"role"`
	IsActive bool        `json:"is_active"`
}

type tokenView struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// ---- requests ----

type createReviewRequest struct {
	ProductID int64   `json:"product_id" validate:"required,gt=0"`
	Comment   *string `json:"comment" validate:"omitempty,max=2000"`
	Grade     int     `json:"grade" validate:"gte=1,lte=5"`
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=buyer seller"`
}

type tokenRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}
