package handler

import (
	"net/http"

	"microfin/internal/middleware"
	"microfin/internal/service"
	"microfin/pkg/pagination"
	"microfin/pkg/response"

	"github.com/gin-gonic/gin"
)

type BorrowerHandler struct {
	borrowerService service.BorrowerService
}

func NewBorrowerHandler(borrowerService service.BorrowerService) *BorrowerHandler {
	return &BorrowerHandler{borrowerService: borrowerService}
}

func (h *BorrowerHandler) RegisterRoutes(router *gin.RouterGroup) {
	borrowers := router.Group("/api/borrowers")
	{
		borrowers.GET("", middleware.RequireRole("officer", "supervisor", "manager", "director", "admin"), h.GetBorrowers)
		borrowers.POST("", middleware.RequireRole("officer", "manager", "admin"), h.CreateBorrower)
		borrowers.PUT("/:id", middleware.RequireRole("officer", "manager", "admin"), h.UpdateBorrower)
		borrowers.DELETE("/:id", middleware.RequireRole("admin"), h.DeleteBorrower)
	}
}

// GetBorrowers returns borrowers with optional search
// @Summary      List borrowers
// @Tags         borrowers
// @Security     BearerAuth
// @Produce      json
// @Param        search  query  string  false  "Search by name, phone or community"
// @Param        page    query  int     false  "Page number (default 1)"
// @Param        limit   query  int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/borrowers [get]
func (h *BorrowerHandler) GetBorrowers(c *gin.Context) {
	params := pagination.Parse(c)

	borrowers, total, err := h.borrowerService.GetBorrowers(c.Request.Context(), c.Query("search"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"borrowers": borrowers,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}

// CreateBorrower registers a new borrower
// @Summary      Create borrower
// @Tags         borrowers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        borrower  body      service.CreateBorrowerRequest  true  "Borrower payload"
// @Success      201       {object}  response.Response{data=service.BorrowerResponse}
// @Router       /api/borrowers [post]
func (h *BorrowerHandler) CreateBorrower(c *gin.Context) {
	var req service.CreateBorrowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	result, err := h.borrowerService.CreateBorrower(c.Request.Context(), middleware.ActorID(c), req)
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// UpdateBorrower updates borrower fields; nil fields are left untouched
// @Summary      Update borrower
// @Tags         borrowers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id        path      string                         true  "Borrower ID"
// @Param        borrower  body      service.UpdateBorrowerRequest  true  "Borrower payload"
// @Success      200       {object}  response.Response{data=service.BorrowerResponse}
// @Router       /api/borrowers/{id} [put]
func (h *BorrowerHandler) UpdateBorrower(c *gin.Context) {
	var req service.UpdateBorrowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	result, err := h.borrowerService.UpdateBorrower(c.Request.Context(), c.Param("id"), middleware.ActorID(c), req)
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// DeleteBorrower soft-deletes a borrower
// @Summary      Delete borrower
// @Tags         borrowers
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Borrower ID"
// @Success      200  {object}  response.Response
// @Router       /api/borrowers/{id} [delete]
func (h *BorrowerHandler) DeleteBorrower(c *gin.Context) {
	if err := h.borrowerService.DeleteBorrower(c.Request.Context(), c.Param("id"), middleware.ActorID(c)); err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"deleted": true}))
}
