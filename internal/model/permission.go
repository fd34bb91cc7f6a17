package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
)

// Resource is a permission-gated area of the application
type Resource string

const (
	ResourcePatient        Resource = "PATIENT"
	ResourceAppointment    Resource = "APPOINTMENT"
	ResourceCasePersonal   Resource = "CASE_PERSONAL"
	ResourceCaseMedical    Resource = "CASE_MEDICAL"
	ResourceCaseExam       Resource = "CASE_EXAM"
	ResourceCaseDiagnosis  Resource = "CASE_DIAGNOSIS"
	ResourceCaseTreatment  Resource = "CASE_TREATMENT"
	ResourceCaseProcedure  Resource = "CASE_PROCEDURE"
	ResourceCaseNotes      Resource = "CASE_NOTES"
	ResourceBilling        Resource = "BILLING"
	ResourcePrescription   Resource = "PRESCRIPTION"
	ResourceImaging        Resource = "IMAGING"
	ResourceReports        Resource = "REPORTS"
	ResourceUserManagement Resource = "USER_MANAGEMENT"
	ResourceRoleManagement Resource = "ROLE_MANAGEMENT"
)

// Action is an operation on a resource
type Action string

const (
	ActionView   Action = "VIEW"
	ActionCreate Action = "CREATE"
	ActionEdit   Action = "EDIT"
	ActionDelete Action = "DELETE"

	// REPORTS sub-permissions, checked with OR semantics
	ActionReportsFinancial Action = "FINANCIAL"
	ActionReportsClinical  Action = "CLINICAL"
	ActionReportsAdmin     Action = "ADMIN"
)

var knownResources = map[Resource]bool{
	ResourcePatient:        true,
	ResourceAppointment:    true,
	ResourceCasePersonal:   true,
	ResourceCaseMedical:    true,
	ResourceCaseExam:       true,
	ResourceCaseDiagnosis:  true,
	ResourceCaseTreatment:  true,
	ResourceCaseProcedure:  true,
	ResourceCaseNotes:      true,
	ResourceBilling:        true,
	ResourcePrescription:   true,
	ResourceImaging:        true,
	ResourceReports:        true,
	ResourceUserManagement: true,
	ResourceRoleManagement: true,
}

var knownActions = map[Action]bool{
	ActionView:             true,
	ActionCreate:           true,
	ActionEdit:             true,
	ActionDelete:           true,
	ActionReportsFinancial: true,
	ActionReportsClinical:  true,
	ActionReportsAdmin:     true,
}

// KnownResource reports whether r is part of the closed resource set
func KnownResource(r Resource) bool {
	return knownResources[r]
}

// KnownAction reports whether a is part of the closed action set
func KnownAction(a Action) bool {
	return knownActions[a]
}

// PermissionSet maps a resource to its granted actions. A missing
// resource key means no actions are granted for it (default-deny).
// Stored as a JSONB column.
type PermissionSet map[Resource][]Action

func (p PermissionSet) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p)
}

func (p *PermissionSet) Scan(value interface{}) error {
	if value == nil {
		*p = PermissionSet{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, p)
}

// Grants reports whether the set grants the action on the resource
func (p PermissionSet) Grants(resource Resource, action Action) bool {
	actions, ok := p[resource]
	if !ok {
		return false
	}
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}

// Validate rejects grants outside the closed resource/action sets,
// so a typo in a role write cannot create an unreachable permission.
func (p PermissionSet) Validate() error {
	for resource, actions := range p {
		if !KnownResource(resource) {
			return errors.New("unknown resource: " + string(resource))
		}
		for _, action := range actions {
			if !KnownAction(action) {
				return errors.New("unknown action: " + string(action))
			}
		}
	}
	return nil
}

// Principal is the authenticated actor attached to a request after
// the auth middleware resolved its role from the role store.
type Principal struct {
	UserID       uuid.UUID     `json:"user_id"`
	LoginID      string        `json:"login_id"`
	RoleCode     string        `json:"role_code"`
	IsSystemRole bool          `json:"is_system_role"`
	Permissions  PermissionSet `json:"permissions"`
}
