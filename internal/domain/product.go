package domain

import "github.com/shopspring/decimal"

type Category struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	ParentID *int64 `json:"parent_id"`
	IsActive bool   `json:"is_active"`
}

// Product.Rating is owned by the rating aggregator; handlers never write it.
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    *string         `json:"image_url"`
	Stock       int             `json:"stock"`
	IsActive    bool            `json:"is_active"`
	CategoryID  int64           `json:"category_id"`
	Rating      decimal.Decimal `json:"rating"`
}

type ProductsQuery struct {
	CategoryID *int64
}
