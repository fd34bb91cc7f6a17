package permission

import (
	"github.com/dentalbuddy/clinic-api/internal/model"
)

// Service evaluates access decisions. Evaluation is pure: no caching,
// no side effects, the same inputs always produce the same answer.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// CanAccess decides whether the principal may perform any of the given
// actions on the resource. Multi-action checks use OR semantics: one
// granted action is enough. Unknown resources and actions are treated
// as ungranted, never as an error.
//
// The CLINIC_ADMIN system role bypasses the permission map entirely.
// This is a deliberate, named escape hatch; do not generalize it to
// other roles, that would erode the default-deny guarantee.
func (s *Service) CanAccess(principal *model.Principal, resource model.Resource, actions ...model.Action) bool {
	if principal == nil {
		return false
	}
	if principal.IsSystemRole && principal.RoleCode == model.RoleCodeClinicAdmin {
		return true
	}
	if len(actions) == 0 {
		return false
	}
	for _, action := range actions {
		if principal.Permissions.Grants(resource, action) {
			return true
		}
	}
	return false
}
