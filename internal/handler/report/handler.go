package report

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dentalbuddy/clinic-api/internal/handler"
	"github.com/dentalbuddy/clinic-api/internal/middleware"
	"github.com/dentalbuddy/clinic-api/internal/model"
	"github.com/dentalbuddy/clinic-api/internal/service/report"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service *report.Service
}

func NewHandler(service *report.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, auth *middleware.AuthMiddleware) {
	reports := r.Group("/reports")
	{
		reports.GET("/daily-collection", auth.RequirePermission(model.ResourceReports, model.ActionReportsFinancial, model.ActionReportsAdmin), h.DailyCollection)
		reports.GET("/monthly-revenue", auth.RequirePermission(model.ResourceReports, model.ActionReportsFinancial, model.ActionReportsAdmin), h.MonthlyRevenue)
		reports.GET("/procedure-stats", auth.RequirePermission(model.ResourceReports, model.ActionReportsClinical, model.ActionReportsAdmin), h.ProcedureStats)
		reports.GET("/new-patients", auth.RequirePermission(model.ResourceReports, model.ActionReportsClinical, model.ActionReportsAdmin), h.NewPatients)
		reports.GET("/outstanding", auth.RequirePermission(model.ResourceReports, model.ActionReportsFinancial, model.ActionReportsAdmin), h.OutstandingInvoices)
	}
}

func (h *Handler) DailyCollection(c *gin.Context) {
	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid date, expected YYYY-MM-DD"))
			return
		}
		day = parsed
	}

	rows, err := h.service.DailyCollection(c.Request.Context(), day)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(rows))
}

func (h *Handler) MonthlyRevenue(c *gin.Context) {
	year, err := h.yearParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid year"))
		return
	}

	rows, err := h.service.MonthlyRevenue(c.Request.Context(), year)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(rows))
}

func (h *Handler) ProcedureStats(c *gin.Context) {
	from, err := time.Parse(dateLayout, c.DefaultQuery("from", time.Now().AddDate(0, -1, 0).Format(dateLayout)))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid from date, expected YYYY-MM-DD"))
		return
	}
	to, err := time.Parse(dateLayout, c.DefaultQuery("to", time.Now().Format(dateLayout)))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid to date, expected YYYY-MM-DD"))
		return
	}

	rows, err := h.service.ProcedureStats(c.Request.Context(), from, to)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(rows))
}

func (h *Handler) NewPatients(c *gin.Context) {
	year, err := h.yearParam(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid year"))
		return
	}

	rows, err := h.service.NewPatients(c.Request.Context(), year)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(rows))
}

func (h *Handler) OutstandingInvoices(c *gin.Context) {
	rows, err := h.service.OutstandingInvoices(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(rows))
}

func (h *Handler) yearParam(c *gin.Context) (int, error) {
	raw := c.Query("year")
	if raw == "" {
		return time.Now().Year(), nil
	}
	return strconv.Atoi(raw)
}
