package models

import "time"

// ProductStatus tracks where a physical unit sits in the chain.
type ProductStatus string

const (
	ProductInStock   ProductStatus = "IN_STOCK"
	ProductAllocated ProductStatus = "ALLOCATED"
	ProductSold      ProductStatus = "SOLD"
)

// Product represents a serialised physical unit of a product model.
type Product struct {
	ID            string        `db:"id" json:"id"`
	SerialNumber  string        `db:"serial_number" json:"serial_number"`
	ModelID       string        `db:"model_id" json:"model_id"`
	Status        ProductStatus `db:"status" json:"status"`
	DistributorID *string       `db:"distributor_id" json:"distributor_id,omitempty"`
	DealerID      *string       `db:"dealer_id" json:"dealer_id,omitempty"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// ProductFilter captures filtering criteria for listing products.
type ProductFilter struct {
	ModelID   string
	Status    *ProductStatus
	DealerID  string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
