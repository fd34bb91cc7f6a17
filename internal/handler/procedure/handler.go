package procedure

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dentalbuddy/clinic-api/internal/handler"
	"github.com/dentalbuddy/clinic-api/internal/middleware"
	"github.com/dentalbuddy/clinic-api/internal/model"
	"github.com/dentalbuddy/clinic-api/internal/service/procedure"
)

type Handler struct {
	service *procedure.Service
}

func NewHandler(service *procedure.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	procedures := r.Group("/procedures")
	{
		procedures.GET("/:id", auth.RequirePermission(model.ResourceCaseProcedure, model.ActionView), h.GetProcedure)
		procedures.POST("/:id/complete", auth.RequirePermission(model.ResourceCaseProcedure, model.ActionEdit), h.CompleteProcedure)
	}
}

func (h *Handler) GetProcedure(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid procedure ID"))
		return
	}

	found, err := h.service.GetProcedure(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

// CompleteProcedure marks a procedure done, which also makes it
// eligible for billing. Completing twice is a no-op.
func (h *Handler) CompleteProcedure(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid procedure ID"))
		return
	}

	completed, err := h.service.CompleteProcedure(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(completed))
}
