package models

import "time"

// Sale records a dealer selling a serialised product to a customer.
type Sale struct {
	ID         string    `db:"id" json:"id"`
	ProductID  string    `db:"product_id" json:"product_id"`
	CustomerID string    `db:"customer_id" json:"customer_id"`
	DealerID   string    `db:"dealer_id" json:"dealer_id"`
	Price      float64   `db:"price" json:"price"`
	SoldAt     time.Time `db:"sold_at" json:"sold_at"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// WarrantySnapshot is a point-in-time warranty evaluation derived from the
// sale date and the model warranty period. It is computed on read and never
// stored.
type WarrantySnapshot struct {
	InWarranty bool      `json:"in_warranty"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// WarrantyAt evaluates the warranty for a sale against the given reference
// time using the model's warranty period in months.
func (s *Sale) WarrantyAt(now time.Time, warrantyMonths int) WarrantySnapshot {
	expiry := s.SoldAt.AddDate(0, warrantyMonths, 0)
	return WarrantySnapshot{
		InWarranty: now.Before(expiry),
		ExpiresAt:  expiry,
	}
}

// SaleFilter captures filtering criteria for listing sales.
type SaleFilter struct {
	CustomerID string
	DealerID   string
	ProductID  string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
