package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dentalbuddy/clinic-api/internal/handler"
	"github.com/dentalbuddy/clinic-api/internal/model"
	"github.com/dentalbuddy/clinic-api/internal/repository"
	"github.com/dentalbuddy/clinic-api/internal/service/permission"
	"github.com/dentalbuddy/clinic-api/pkg/auth"
)

const ContextPrincipal = "principal"

type AuthMiddleware struct {
	jwtService    auth.JWTService
	permissionSvc *permission.Service
	userRepo      repository.UserRepository
	roleRepo      repository.RoleRepository
}

func NewAuthMiddleware(jwtService auth.JWTService, permissionSvc *permission.Service, userRepo repository.UserRepository, roleRepo repository.RoleRepository) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:    jwtService,
		permissionSvc: permissionSvc,
		userRepo:      userRepo,
		roleRepo:      roleRepo,
	}
}

// Authenticate verifies the JWT and resolves the caller's principal.
// The permission set is re-read from the role store on every request,
// so a role edit takes effect on the holder's next call.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid authorization format"))
			c.Abort()
			return
		}

		claims, err := m.jwtService.ValidateToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("invalid token"))
			c.Abort()
			return
		}

		user, err := m.userRepo.Get(c.Request.Context(), claims.UserID)
		if err != nil || !user.IsActive {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("account is not active"))
			c.Abort()
			return
		}

		role, err := m.roleRepo.GetByCode(c.Request.Context(), user.RoleCode)
		if err != nil || !role.IsActive {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("role is not active"))
			c.Abort()
			return
		}

		c.Set(ContextPrincipal, &model.Principal{
			UserID:       user.ID,
			LoginID:      user.LoginID,
			RoleCode:     role.Code,
			IsSystemRole: role.IsSystemRole,
			Permissions:  role.Permissions,
		})
		c.Next()
	}
}

// RequirePermission denies the request unless the principal holds at
// least one of the given actions on the resource. A denial has no side
// effects beyond the 403 response.
func (m *AuthMiddleware) RequirePermission(resource model.Resource, actions ...model.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := GetPrincipal(c)
		if principal == nil {
			c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("authentication required"))
			c.Abort()
			return
		}

		if !m.permissionSvc.CanAccess(principal, resource, actions...) {
			c.JSON(http.StatusForbidden, handler.NewErrorResponse("permission denied"))
			c.Abort()
			return
		}

		c.Next()
	}
}

func GetPrincipal(c *gin.Context) *model.Principal {
	if v, exists := c.Get(ContextPrincipal); exists {
		if principal, ok := v.(*model.Principal); ok {
			return principal
		}
	}
	return nil
}
