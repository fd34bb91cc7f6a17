package model

// Role codes seeded at install time. Only CLINIC_ADMIN is marked as a
// system role; the other two are ordinary starter roles.
const (
	RoleCodeClinicAdmin  = "CLINIC_ADMIN"
	RoleCodeDoctor       = "DOCTOR"
	RoleCodeReceptionist = "RECEPTIONIST"
)

// Role is a named permission bundle assignable to staff accounts
type Role struct {
	Base
	Code           string        `json:"code" db:"code"`
	DisplayName    string        `json:"display_name" db:"display_name"`
	Description    string        `json:"description" db:"description"`
	Icon           string        `json:"icon" db:"icon"`
	IsProfessional bool          `json:"is_professional" db:"is_professional"`
	IsSystemRole   bool          `json:"is_system_role" db:"is_system_role"`
	IsActive       bool          `json:"is_active" db:"is_active"`
	Permissions    PermissionSet `json:"permissions" db:"permissions"`
}

type CreateRoleRequest struct {
	Code           string        `json:"code" binding:"required,role_code"`
	DisplayName    string        `json:"display_name" binding:"required"`
	Description    string        `json:"description"`
	Icon           string        `json:"icon"`
	IsProfessional bool          `json:"is_professional"`
	Permissions    PermissionSet `json:"permissions"`
}

type UpdateRoleRequest struct {
	DisplayName    *string       `json:"display_name"`
	Description    *string       `json:"description"`
	Icon           *string       `json:"icon"`
	IsProfessional *bool         `json:"is_professional"`
	Permissions    PermissionSet `json:"permissions"`
}

type RoleFilter struct {
	ActiveOnly bool `form:"active_only"`
}
