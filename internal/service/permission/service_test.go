package permission

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dentalbuddy/clinic-api/internal/model"
)

func TestCanAccessDefaultDeny(t *testing.T) {
	svc := NewService()

	principal := &model.Principal{
		RoleCode:    "ASSISTANT",
		Permissions: model.PermissionSet{},
	}

	assert.False(t, svc.CanAccess(principal, model.ResourcePatient, model.ActionView))
	assert.False(t, svc.CanAccess(principal, model.ResourceBilling, model.ActionCreate))
}

func TestCanAccessGrantedAction(t *testing.T) {
	svc := NewService()

	principal := &model.Principal{
		RoleCode: "RECEPTIONIST",
		Permissions: model.PermissionSet{
			model.ResourcePatient: {model.ActionView, model.ActionCreate},
			model.ResourceBilling: {model.ActionView},
		},
	}

	assert.True(t, svc.CanAccess(principal, model.ResourcePatient, model.ActionView))
	assert.True(t, svc.CanAccess(principal, model.ResourcePatient, model.ActionCreate))
	assert.True(t, svc.CanAccess(principal, model.ResourceBilling, model.ActionView))

	assert.False(t, svc.CanAccess(principal, model.ResourcePatient, model.ActionDelete))
	assert.False(t, svc.CanAccess(principal, model.ResourceBilling, model.ActionCreate))
	assert.False(t, svc.CanAccess(principal, model.ResourceReports, model.ActionView))
}

func TestCanAccessMultiActionOrSemantics(t *testing.T) {
	svc := NewService()

	principal := &model.Principal{
		RoleCode: "DOCTOR",
		Permissions: model.PermissionSet{
			model.ResourceReports: {model.ActionReportsClinical},
		},
	}

	// any granted alternative is enough
	assert.True(t, svc.CanAccess(principal, model.ResourceReports,
		model.ActionReportsFinancial, model.ActionReportsClinical, model.ActionReportsAdmin))

	assert.False(t, svc.CanAccess(principal, model.ResourceReports,
		model.ActionReportsFinancial, model.ActionReportsAdmin))

	// no actions supplied means no access
	assert.False(t, svc.CanAccess(principal, model.ResourceReports))
}

func TestCanAccessClinicAdminBypass(t *testing.T) {
	svc := NewService()

	admin := &model.Principal{
		RoleCode:     model.RoleCodeClinicAdmin,
		IsSystemRole: true,
		Permissions:  model.PermissionSet{},
	}

	for resource := range map[model.Resource]bool{
		model.ResourcePatient:        true,
		model.ResourceBilling:        true,
		model.ResourceReports:        true,
		model.ResourceUserManagement: true,
		model.ResourceRoleManagement: true,
	} {
		for _, action := range []model.Action{model.ActionView, model.ActionCreate, model.ActionEdit, model.ActionDelete} {
			assert.True(t, svc.CanAccess(admin, resource, action),
				"admin should access %s/%s", resource, action)
		}
	}
}

func TestCanAccessAdminCodeWithoutSystemFlag(t *testing.T) {
	svc := NewService()

	// a custom role that merely reuses the admin code gets no bypass
	impostor := &model.Principal{
		RoleCode:     model.RoleCodeClinicAdmin,
		IsSystemRole: false,
		Permissions:  model.PermissionSet{},
	}

	assert.False(t, svc.CanAccess(impostor, model.ResourcePatient, model.ActionView))
}

func TestCanAccessUnknownResource(t *testing.T) {
	svc := NewService()

	principal := &model.Principal{
		RoleCode: "RECEPTIONIST",
		Permissions: model.PermissionSet{
			"SOMETHING_ELSE": {model.ActionView},
		},
	}

	// unknown strings are ungranted, not errors
	assert.False(t, svc.CanAccess(principal, "NOT_A_RESOURCE", model.ActionView))
	assert.False(t, svc.CanAccess(principal, model.ResourcePatient, "NOT_AN_ACTION"))
}

func TestCanAccessNilPrincipal(t *testing.T) {
	svc := NewService()
	assert.False(t, svc.CanAccess(nil, model.ResourcePatient, model.ActionView))
}
