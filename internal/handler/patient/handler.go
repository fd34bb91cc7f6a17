package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dentalbuddy/clinic-api/internal/handler"
	"github.com/dentalbuddy/clinic-api/internal/middleware"
	"github.com/dentalbuddy/clinic-api/internal/model"
	"github.com/dentalbuddy/clinic-api/internal/service/patient"
	"github.com/dentalbuddy/clinic-api/internal/service/procedure"
)

type Handler struct {
	service      *patient.Service
	procedureSvc *procedure.Service
}

func NewHandler(service *patient.Service, procedureSvc *procedure.Service) *Handler {
	return &Handler{
		service:      service,
		procedureSvc: procedureSvc,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	patients := r.Group("/patients")
	{
		patients.POST("", auth.RequirePermission(model.ResourcePatient, model.ActionCreate), h.RegisterPatient)
		patients.GET("", auth.RequirePermission(model.ResourcePatient, model.ActionView), h.ListPatients)
		patients.GET("/:id", auth.RequirePermission(model.ResourcePatient, model.ActionView), h.GetPatient)
		patients.PUT("/:id", auth.RequirePermission(model.ResourcePatient, model.ActionEdit), h.UpdatePatient)
		patients.PATCH("/:id/active", auth.RequirePermission(model.ResourcePatient, model.ActionEdit), h.ToggleActive)

		patients.POST("/:id/procedures", auth.RequirePermission(model.ResourceCaseProcedure, model.ActionCreate), h.CreateProcedure)
		patients.GET("/:id/procedures", auth.RequirePermission(model.ResourceCaseProcedure, model.ActionView), h.ListProcedures)
	}
}

func (h *Handler) RegisterPatient(c *gin.Context) {
	var req model.CreatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	created, err := h.service.RegisterPatient(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) GetPatient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	found, err := h.service.GetPatient(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(found))
}

func (h *Handler) ListPatients(c *gin.Context) {
	var filter model.PatientFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	patients, total, err := h.service.ListPatients(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	pageInfo := model.NewPageInfo(filter.Pagination, total)
	c.JSON(http.StatusOK, handler.NewPagedResponse(patients, &pageInfo))
}

func (h *Handler) UpdatePatient(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	var req model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	updated, err := h.service.UpdatePatient(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) ToggleActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	updated, err := h.service.ToggleActive(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(updated))
}

func (h *Handler) CreateProcedure(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	var req model.CreateProcedureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	created, err := h.procedureSvc.CreateProcedure(c.Request.Context(), patientID, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(created))
}

func (h *Handler) ListProcedures(c *gin.Context) {
	patientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid patient ID"))
		return
	}

	var filter model.ProcedureFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}
	filter.PatientID = patientID

	procedures, err := h.procedureSvc.ListProcedures(c.Request.Context(), &filter)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(procedures))
}
