package model

import "time"

// Patient is a registered clinic patient. Patients are deactivated,
// never deleted, so invoices and appointments keep valid references.
type Patient struct {
	Base
	Code           string     `json:"code" db:"code"`
	FullName       string     `json:"full_name" db:"full_name"`
	Gender         string     `json:"gender" db:"gender"`
	DateOfBirth    *time.Time `json:"date_of_birth" db:"date_of_birth"`
	Phone          string     `json:"phone" db:"phone"`
	Email          string     `json:"email" db:"email"`
	Address        string     `json:"address" db:"address"`
	Occupation     string     `json:"occupation" db:"occupation"`
	EmergencyName  string     `json:"emergency_name" db:"emergency_name"`
	EmergencyPhone string     `json:"emergency_phone" db:"emergency_phone"`
	IsActive       bool       `json:"is_active" db:"is_active"`
}

type CreatePatientRequest struct {
	FullName       string     `json:"full_name" binding:"required"`
	Gender         string     `json:"gender" binding:"omitempty,oneof=male female other"`
	DateOfBirth    *time.Time `json:"date_of_birth"`
	Phone          string     `json:"phone" binding:"required"`
	Email          string     `json:"email" binding:"omitempty,email"`
	Address        string     `json:"address"`
	Occupation     string     `json:"occupation"`
	EmergencyName  string     `json:"emergency_name"`
	EmergencyPhone string     `json:"emergency_phone"`
}

type UpdatePatientRequest struct {
	FullName       *string    `json:"full_name"`
	Gender         *string    `json:"gender" binding:"omitempty,oneof=male female other"`
	DateOfBirth    *time.Time `json:"date_of_birth"`
	Phone          *string    `json:"phone"`
	Email          *string    `json:"email" binding:"omitempty,email"`
	Address        *string    `json:"address"`
	Occupation     *string    `json:"occupation"`
	EmergencyName  *string    `json:"emergency_name"`
	EmergencyPhone *string    `json:"emergency_phone"`
}

// PatientFilter supports paginated name/phone/code search
type PatientFilter struct {
	Search string `form:"search"`
	Status string `form:"status"`
	Pagination
}
