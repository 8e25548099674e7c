package models

import (
	"time"

	"github.com/lib/pq"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleSuperAdmin  UserRole = "SUPERADMIN"
	RoleAdmin       UserRole = "ADMIN"
	RoleFactory     UserRole = "FACTORY"
	RoleDistributor UserRole = "DISTRIBUTOR"
	RoleDealer      UserRole = "DEALER"
	RoleCustomer    UserRole = "CUSTOMER"
	RoleTechnician  UserRole = "TECHNICIAN"
)

// Admin section names gating functional areas of the admin surface.
const (
	SectionManagement   = "management"
	SectionOrders       = "orders"
	SectionCustomers    = "customers"
	SectionReplacements = "replacements"
	SectionBilling      = "billing"
	SectionReports      = "reports"
)

// User represents an application user stored in the users table.
type User struct {
	ID           string         `db:"id" json:"id"`
	Email        string         `db:"email" json:"email"`
	PasswordHash string         `db:"password_hash" json:"-"`
	FullName     string         `db:"full_name" json:"full_name"`
	Phone        string         `db:"phone" json:"phone"`
	Role         UserRole       `db:"role" json:"role"`
	Sections     pq.StringArray `db:"sections" json:"sections"`
	Active       bool           `db:"active" json:"active"`
	LastLogin    *time.Time     `db:"last_login" json:"last_login,omitempty"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
