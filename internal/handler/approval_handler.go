package handler

import (
	"net/http"

	"microfin/internal/middleware"
	"microfin/internal/service"
	"microfin/pkg/pagination"
	"microfin/pkg/response"

	"github.com/gin-gonic/gin"
)

type ApprovalHandler struct {
	approvalService service.ApprovalService
}

func NewApprovalHandler(approvalService service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{approvalService: approvalService}
}

func (h *ApprovalHandler) RegisterRoutes(router *gin.RouterGroup) {
	withdrawals := router.Group("/api/withdrawals")
	{
		withdrawals.GET("", middleware.RequireRole("officer", "supervisor", "manager", "director", "admin"), h.ListWithdrawals)
		withdrawals.PUT("/:id/advance", middleware.RequireRole("supervisor", "manager", "director", "admin"), h.AdvanceWithdrawal)
		withdrawals.PUT("/:id/reject", middleware.RequireRole("supervisor", "manager", "director", "admin"), h.RejectWithdrawal)
	}

	loans := router.Group("/api/loans")
	{
		loans.POST("/:id/withdrawals", middleware.RequireRole("officer", "manager", "admin"), h.SubmitWithdrawal)
		loans.PUT("/:id/disbursement/advance", middleware.RequireRole("supervisor", "manager", "director", "admin"), h.AdvanceDisbursement)
		loans.PUT("/:id/disbursement/reject", middleware.RequireRole("supervisor", "manager", "director", "admin"), h.RejectDisbursement)
	}
}

// SubmitWithdrawal opens a staged withdrawal request against savings or adashe
// @Summary      Submit withdrawal request
// @Description  The only way to initiate an Out-direction savings/adashe movement; no balance changes until final approval
// @Tags         approvals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id          path      string                           true  "Loan ID"
// @Param        withdrawal  body      service.SubmitWithdrawalRequest  true  "Withdrawal payload"
// @Success      201         {object}  response.Response{data=service.WithdrawalResponse}
// @Router       /api/loans/{id}/withdrawals [post]
func (h *ApprovalHandler) SubmitWithdrawal(c *gin.Context) {
	var req service.SubmitWithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	result, err := h.approvalService.SubmitWithdrawal(c.Request.Context(), c.Param("id"), middleware.ActorID(c), req)
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListWithdrawals returns withdrawal requests, optionally filtered by status
// @Summary      List withdrawal requests
// @Tags         approvals
// @Security     BearerAuth
// @Produce      json
// @Param        status  query  string  false  "Status filter"
// @Param        page    query  int     false  "Page number (default 1)"
// @Param        limit   query  int     false  "Items per page (default 20)"
// @Success      200     {object}  response.Response{data=object}
// @Router       /api/withdrawals [get]
func (h *ApprovalHandler) ListWithdrawals(c *gin.Context) {
	params := pagination.Parse(c)

	requests, total, err := h.approvalService.ListWithdrawals(c.Request.Context(), c.Query("status"), params.Page, params.Limit)
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"requests": requests,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// AdvanceWithdrawal moves a withdrawal request one approval stage forward
// @Summary      Advance withdrawal request
// @Description  Three advances reach APPROVED, which posts the withdrawal payment atomically
// @Tags         approvals
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Request ID"
// @Success      200  {object}  response.Response{data=service.WithdrawalResponse}
// @Router       /api/withdrawals/{id}/advance [put]
func (h *ApprovalHandler) AdvanceWithdrawal(c *gin.Context) {
	result, err := h.approvalService.AdvanceWithdrawal(c.Request.Context(), c.Param("id"), middleware.ActorID(c))
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// RejectWithdrawal terminates a pending withdrawal request
// @Summary      Reject withdrawal request
// @Tags         approvals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id      path      string             true   "Request ID"
// @Param        reason  body      service.RejectDTO  false  "Rejection reason"
// @Success      200     {object}  response.Response{data=service.WithdrawalResponse}
// @Router       /api/withdrawals/{id}/reject [put]
func (h *ApprovalHandler) RejectWithdrawal(c *gin.Context) {
	var req service.RejectDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		// Allow empty body — reason is optional
		req.Reason = ""
	}

	result, err := h.approvalService.RejectWithdrawal(c.Request.Context(), c.Param("id"), middleware.ActorID(c), req.Reason)
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// AdvanceDisbursement moves a loan's disbursement one approval stage forward
// @Summary      Advance disbursement
// @Description  On terminal approval the disbursement date is set and the loan becomes schedule-eligible
// @Tags         approvals
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Loan ID"
// @Success      200  {object}  response.Response{data=service.DisbursementResponse}
// @Router       /api/loans/{id}/disbursement/advance [put]
func (h *ApprovalHandler) AdvanceDisbursement(c *gin.Context) {
	result, err := h.approvalService.AdvanceDisbursement(c.Request.Context(), c.Param("id"), middleware.ActorID(c))
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// RejectDisbursement terminates a loan's disbursement chain
// @Summary      Reject disbursement
// @Tags         approvals
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id      path      string             true   "Loan ID"
// @Param        reason  body      service.RejectDTO  false  "Rejection reason"
// @Success      200     {object}  response.Response{data=service.DisbursementResponse}
// @Router       /api/loans/{id}/disbursement/reject [put]
func (h *ApprovalHandler) RejectDisbursement(c *gin.Context) {
	var req service.RejectDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		req.Reason = ""
	}

	result, err := h.approvalService.RejectDisbursement(c.Request.Context(), c.Param("id"), middleware.ActorID(c), req.Reason)
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}
