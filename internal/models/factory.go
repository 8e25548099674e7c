package models

import "time"

// Factory represents a manufacturing site at the top of the supply chain.
type Factory struct {
	ID           string    `db:"id" json:"id"`
	Code         string    `db:"code" json:"code"`
	Name         string    `db:"name" json:"name"`
	State        string    `db:"state" json:"state"`
	City         string    `db:"city" json:"city"`
	ContactName  string    `db:"contact_name" json:"contact_name"`
	ContactPhone string    `db:"contact_phone" json:"contact_phone"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// FactoryFilter captures filtering criteria for listing factories.
type FactoryFilter struct {
	Active    *bool
	State     string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
