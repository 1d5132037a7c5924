package handler

import (
	"net/http"

	"microfin/internal/middleware"
	"microfin/internal/service"
	"microfin/pkg/pagination"
	"microfin/pkg/response"

	"github.com/gin-gonic/gin"
)

type LoanHandler struct {
	loanService service.LoanService
}

func NewLoanHandler(loanService service.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

func (h *LoanHandler) RegisterRoutes(router *gin.RouterGroup) {
	loans := router.Group("/api/loans")
	{
		loans.POST("", middleware.RequireRole("officer", "manager", "admin"), h.CreateLoan)
		loans.GET("", middleware.RequireRole("officer", "supervisor", "manager", "director", "admin"), h.ListLoans)
		loans.GET("/:id", middleware.RequireRole("officer", "supervisor", "manager", "director", "admin"), h.GetLoan)
		loans.GET("/:id/schedule", middleware.RequireRole("officer", "supervisor", "manager", "director", "admin"), h.GetSchedule)
		loans.PUT("/:id/dpd", middleware.RequireRole("manager", "admin"), h.UpdateDPD)
	}
}

// CreateLoan registers a new loan awaiting disbursement approval
// @Summary      Create loan
// @Description  Creates a loan at the first disbursement approval stage
// @Tags         loans
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        loan  body      service.CreateLoanRequest  true  "Loan payload"
// @Success      201   {object}  response.Response{data=service.LoanResponse}
// @Router       /api/loans [post]
func (h *LoanHandler) CreateLoan(c *gin.Context) {
	var req service.CreateLoanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	result, err := h.loanService.CreateLoan(c.Request.Context(), middleware.ActorID(c), req)
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListLoans returns loans filtered by tier, disbursement status and borrower
// @Summary      List loans
// @Tags         loans
// @Security     BearerAuth
// @Produce      json
// @Param        tier                 query  string  false  "Risk tier filter"
// @Param        disbursement_status  query  string  false  "Disbursement status filter"
// @Param        borrower_id          query  string  false  "Borrower filter"
// @Param        page                 query  int     false  "Page number (default 1)"
// @Param        limit                query  int     false  "Items per page (default 20)"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/loans [get]
func (h *LoanHandler) ListLoans(c *gin.Context) {
	params := pagination.Parse(c)
	filter := service.LoanFilter{
		Tier:               c.Query("tier"),
		DisbursementStatus: c.Query("disbursement_status"),
		BorrowerID:         c.Query("borrower_id"),
		Page:               params.Page,
		Limit:              params.Limit,
	}

	loans, total, err := h.loanService.ListLoans(c.Request.Context(), filter)
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"loans": loans,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// GetLoan returns one loan with derived fields and its pending withdrawal set
// @Summary      Get loan
// @Tags         loans
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Loan ID"
// @Success      200  {object}  response.Response{data=service.LoanDetailResponse}
// @Router       /api/loans/{id} [get]
func (h *LoanHandler) GetLoan(c *gin.Context) {
	result, err := h.loanService.GetLoan(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// GetSchedule returns the derived instalment schedule for a loan
// @Summary      Get repayment schedule
// @Description  Derives the instalment schedule with per-period payment status; empty for undisbursed loans
// @Tags         loans
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Loan ID"
// @Success      200  {object}  response.Response{data=[]service.InstallmentResponse}
// @Router       /api/loans/{id}/schedule [get]
func (h *LoanHandler) GetSchedule(c *gin.Context) {
	result, err := h.loanService.GetSchedule(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// UpdateDPD sets a loan's days-past-due and recomputes its risk tier
// @Summary      Update days past due
// @Tags         loans
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id   path      string                    true  "Loan ID"
// @Param        dpd  body      service.UpdateDPDRequest  true  "DPD payload"
// @Success      200  {object}  response.Response{data=service.LoanResponse}
// @Router       /api/loans/{id}/dpd [put]
func (h *LoanHandler) UpdateDPD(c *gin.Context) {
	var req service.UpdateDPDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	result, err := h.loanService.UpdateDPD(c.Request.Context(), c.Param("id"), middleware.ActorID(c), req.DPD)
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
