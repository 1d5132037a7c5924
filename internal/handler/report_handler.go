package handler

import (
	"net/http"
	"time"

	"microfin/internal/middleware"
	"microfin/internal/service"
	"microfin/pkg/response"

	"github.com/gin-gonic/gin"
)

type ReportHandler struct {
	reportService service.ReportService
}

func NewReportHandler(reportService service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

func (h *ReportHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/reports")
	group.Use(middleware.RequireRole("manager", "director", "admin"))
	{
		group.GET("/portfolio", h.GetPortfolioSummary)
	}
}

// GetPortfolioSummary returns cash-flow and exposure figures for a date window
// @Summary      Portfolio summary
// @Description  Aggregates cash in/out, balances, outstanding principal and tier exposure
// @Tags         reports
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query  string  false  "Window start (YYYY-MM-DD, default first of month)"
// @Param        end_date    query  string  false  "Window end (YYYY-MM-DD, default today)"
// @Success      200  {object}  response.Response{data=model.PortfolioSummary}
// @Failure      400  {object}  response.Response
// @Router       /api/reports/portfolio [get]
func (h *ReportHandler) GetPortfolioSummary(c *gin.Context) {
	now := time.Now()
	startDate := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	endDate := now

	if s := c.Query("start_date"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid start_date, expected YYYY-MM-DD"))
			return
		}
		startDate = parsed
	}
	if s := c.Query("end_date"); s != "" {
		parsed, err := time.Parse("2006-01-02", s)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid end_date, expected YYYY-MM-DD"))
			return
		}
		// Include the whole end day
		endDate = parsed.Add(24*time.Hour - time.Nanosecond)
	}

	if endDate.Before(startDate) {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "end_date must not be before start_date"))
		return
	}

	summary, err := h.reportService.GetPortfolioSummary(c.Request.Context(), startDate, endDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to build portfolio summary: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, summary))
}
