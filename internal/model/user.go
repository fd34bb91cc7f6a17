package model

// User represents a staff account bound to exactly one role
type User struct {
	Base
	FullName     string `json:"full_name" db:"full_name"`
	LoginID      string `json:"login_id" db:"login_id"`
	Password     string `json:"password,omitempty" db:"-"`
	PasswordHash string `json:"-" db:"password_hash"`
	RoleCode     string `json:"role_code" db:"role_code"`
	IsActive     bool   `json:"is_active" db:"is_active"`
}

type CreateUserRequest struct {
	FullName string `json:"full_name" binding:"required"`
	LoginID  string `json:"login_id" binding:"required"`
	Password string `json:"password" binding:"required,password"`
	RoleCode string `json:"role_code" binding:"required"`
}

// UpdateUserRequest carries partial updates; an empty Password leaves
// the stored credential unchanged.
type UpdateUserRequest struct {
	FullName *string `json:"full_name"`
	Password string  `json:"password" binding:"omitempty,password"`
	RoleCode *string `json:"role_code"`
}

type UserFilter struct {
	Status string `form:"status"`
	Search string `form:"search"`
	Pagination
}
