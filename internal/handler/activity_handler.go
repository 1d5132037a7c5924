package handler

import (
	"net/http"

	"microfin/internal/middleware"
	"microfin/internal/service"
	"microfin/pkg/pagination"
	"microfin/pkg/response"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct {
	activityService service.ActivityService
}

func NewActivityHandler(activityService service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

func (h *ActivityHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/activity-logs")
	group.Use(middleware.RequireRole("admin", "manager")) // Protect history logs
	{
		group.GET("", h.GetActivityLogs)
	}
}

// GetActivityLogs retrieves paginated activity records
// @Summary      Get activity logs
// @Description  Retrieves the engine's mutation history, optionally filtered by action
// @Tags         activity
// @Security     BearerAuth
// @Produce      json
// @Param        action  query  string  false  "Action filter"
// @Param        page    query  int     false  "Page number (default 1)"
// @Param        limit   query  int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/activity-logs [get]
func (h *ActivityHandler) GetActivityLogs(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.activityService.GetActivityLogs(c.Request.Context(), c.Query("action"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to retrieve activity logs: "+err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"logs":  logs,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}
