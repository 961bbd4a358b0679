package entity

import "time"

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleAdmin    UserRole = "admin"
)

type User struct {
	Base
	Username  string     `db:"username"`
	Email     string     `db:"email"`
	Role      UserRole   `db:"role"`
	IsActive  bool       `db:"is_active"`
	DeletedAt *time.Time `db:"deleted_at"`
}
