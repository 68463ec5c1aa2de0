package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ride-engine/internal/domain"
	"ride-engine/internal/service"
)

// PaymentHandler handles HTTP requests for payments.
type PaymentHandler struct {
	paymentService *service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService}
}

// ProcessPaymentRequest is the HTTP request body for processing a payment.
type ProcessPaymentRequest struct {
	TripID          string `json:"trip_id"`
	PaymentMethodID string `json:"payment_method_id"`
}

// RefundRequest is the HTTP request body for refunding a payment.
type RefundRequest struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason,omitempty"`
}

// PaymentResponse is the HTTP response for payment operations.
type PaymentResponse struct {
	ID               string  `json:"id"`
	TripID           string  `json:"trip_id"`
	Amount           float64 `json:"amount"`
	Status           string  `json:"status"`
	PSPTransactionID string  `json:"psp_transaction_id,omitempty"`
	FailureReason    string  `json:"failure_reason,omitempty"`
	Attempts         int     `json:"attempts"`
}

func toPaymentResponse(p *domain.Payment) PaymentResponse {
	return PaymentResponse{
		ID: p.ID, TripID: p.TripID, Amount: p.Amount, Status: string(p.Status),
		PSPTransactionID: p.PSPTransactionID, FailureReason: p.FailureReason, Attempts: p.Attempts,
	}
}

// ProcessPayment handles POST /v1/payments
func (h *PaymentHandler) ProcessPayment(c *gin.Context) {
	var req ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	idempotencyKey := c.GetHeader("Idempotency-Key")

	payment, err := h.paymentService.ProcessPayment(c.Request.Context(), req.TripID, domain.PaymentMethod(req.PaymentMethodID), idempotencyKey)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toPaymentResponse(payment))
}

// GetPayment handles GET /v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.paymentService.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// RetryPayment handles POST /v1/payments/:id/retry
func (h *PaymentHandler) RetryPayment(c *gin.Context) {
	payment, err := h.paymentService.RetryPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toPaymentResponse(payment))
}

// RefundPayment handles POST /v1/payments/:id/refund
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	var req RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	refund, err := h.paymentService.Refund(c.Request.Context(), c.Param("id"), req.Amount, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, gin.H{
		"id": refund.ID, "payment_id": refund.PaymentID, "amount": refund.Amount, "reason": refund.Reason,
	})
}
