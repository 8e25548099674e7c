package models

import "time"

// Technician represents a field service technician.
type Technician struct {
	ID        string    `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	FullName  string    `db:"full_name" json:"full_name"`
	Phone     string    `db:"phone" json:"phone"`
	State     string    `db:"state" json:"state"`
	City      string    `db:"city" json:"city"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TechnicianFilter captures filtering criteria for listing technicians.
type TechnicianFilter struct {
	Active    *bool
	State     string
	City      string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
