package model

import "github.com/google/uuid"

// Procedure is a clinical line item performed on a patient. It becomes
// billable once completed and stays billable until an invoice claims it.
type Procedure struct {
	Base
	PatientID   uuid.UUID `json:"patient_id" db:"patient_id"`
	Name        string    `json:"name" db:"name"`
	ToothNumber *int      `json:"tooth_number" db:"tooth_number"`
	IsCompleted bool      `json:"is_completed" db:"is_completed"`
	IsBillable  bool      `json:"is_billable" db:"is_billable"`
}

type CreateProcedureRequest struct {
	Name        string `json:"name" binding:"required"`
	ToothNumber *int   `json:"tooth_number" binding:"omitempty,min=1,max=85"`
}

type ProcedureFilter struct {
	PatientID    uuid.UUID
	BillableOnly bool `form:"billable_only"`
}
