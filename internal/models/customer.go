package models

import "time"

// Customer represents an end customer attached to a user account.
type Customer struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	FullName  string    `db:"full_name" json:"full_name"`
	Phone     string    `db:"phone" json:"phone"`
	State     string    `db:"state" json:"state"`
	City      string    `db:"city" json:"city"`
	Address   string    `db:"address" json:"address"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CustomerFilter captures filtering criteria for listing customers.
type CustomerFilter struct {
	State     string
	City      string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
