package models

import "time"

// Category groups product models into functional families.
type Category struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// CategoryFilter captures filtering criteria for listing categories.
type CategoryFilter struct {
	Active   *bool
	Search   string
	Page     int
	PageSize int
}

// ProductModel represents a sellable model produced by a factory.
type ProductModel struct {
	ID             string    `db:"id" json:"id"`
	Code           string    `db:"code" json:"code"`
	Name           string    `db:"name" json:"name"`
	CategoryID     string    `db:"category_id" json:"category_id"`
	FactoryID      string    `db:"factory_id" json:"factory_id"`
	WarrantyMonths int       `db:"warranty_months" json:"warranty_months"`
	Price          float64   `db:"price" json:"price"`
	Active         bool      `db:"active" json:"active"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// ProductModelFilter captures filtering criteria for listing models.
type ProductModelFilter struct {
	CategoryID string
	FactoryID  string
	Active     *bool
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
