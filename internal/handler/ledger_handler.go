package handler

import (
	"net/http"

	"microfin/internal/middleware"
	"microfin/internal/service"
	"microfin/pkg/pagination"
	"microfin/pkg/response"

	"github.com/gin-gonic/gin"
)

type LedgerHandler struct {
	ledgerService service.LedgerService
}

func NewLedgerHandler(ledgerService service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerService: ledgerService}
}

func (h *LedgerHandler) RegisterRoutes(router *gin.RouterGroup) {
	loans := router.Group("/api/loans")
	{
		loans.POST("/:id/payments", middleware.RequireRole("officer", "manager", "admin"), h.ApplyTransaction)
		loans.GET("/:id/payments", middleware.RequireRole("officer", "supervisor", "manager", "director", "admin"), h.ListPayments)
		loans.DELETE("/:id/payments/:paymentID", middleware.RequireRole("manager", "admin"), h.ReverseTransaction)
		loans.GET("/:id/outstanding", middleware.RequireRole("officer", "supervisor", "manager", "director", "admin"), h.OutstandingPrincipal)
	}
}

// ApplyTransaction posts a payment to a loan's ledger
// @Summary      Apply transaction
// @Description  Appends an immutable payment and applies its balance effect. Out-direction savings/adashe movements are refused; submit a withdrawal request instead.
// @Tags         ledger
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                           true  "Loan ID"
// @Param        payment  body      service.ApplyTransactionRequest  true  "Payment payload"
// @Success      201      {object}  response.Response{data=service.PaymentResponse}
// @Router       /api/loans/{id}/payments [post]
func (h *LedgerHandler) ApplyTransaction(c *gin.Context) {
	var req service.ApplyTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	result, err := h.ledgerService.ApplyTransaction(c.Request.Context(), c.Param("id"), middleware.ActorID(c), req)
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, result))
}

// ListPayments returns a loan's payment log in ledger order
// @Summary      List payments
// @Tags         ledger
// @Security     BearerAuth
// @Produce      json
// @Param        id     path   string  true   "Loan ID"
// @Param        page   query  int     false  "Page number (default 1)"
// @Param        limit  query  int     false  "Items per page (default 20)"
// @Success      200    {object}  response.Response{data=object}
// @Router       /api/loans/{id}/payments [get]
func (h *LedgerHandler) ListPayments(c *gin.Context) {
	params := pagination.Parse(c)

	payments, total, err := h.ledgerService.ListPayments(c.Request.Context(), c.Param("id"), params.Page, params.Limit)
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"payments": payments,
		"total":    total,
		"page":     params.Page,
		"limit":    params.Limit,
	}))
}

// ReverseTransaction removes a payment and re-applies its inverse effect
// @Summary      Reverse transaction
// @Description  The only correction mechanism; there is no in-place edit
// @Tags         ledger
// @Security     BearerAuth
// @Produce      json
// @Param        id         path  string  true  "Loan ID"
// @Param        paymentID  path  string  true  "Payment ID"
// @Success      200  {object}  response.Response
// @Router       /api/loans/{id}/payments/{paymentID} [delete]
func (h *LedgerHandler) ReverseTransaction(c *gin.Context) {
	err := h.ledgerService.ReverseTransaction(c.Request.Context(), c.Param("id"), c.Param("paymentID"), middleware.ActorID(c))
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"reversed": true}))
}

// OutstandingPrincipal returns the derived remaining principal for a loan
// @Summary      Outstanding principal
// @Tags         ledger
// @Security     BearerAuth
// @Produce      json
// @Param        id  path      string  true  "Loan ID"
// @Success      200  {object}  response.Response{data=object}
// @Router       /api/loans/{id}/outstanding [get]
func (h *LedgerHandler) OutstandingPrincipal(c *gin.Context) {
	outstanding, err := h.ledgerService.OutstandingPrincipal(c.Request.Context(), c.Param("id"))
	if err != nil {
		status := errorStatus(err)
		c.JSON(status, response.Error(status, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"outstanding_principal": outstanding}))
}
