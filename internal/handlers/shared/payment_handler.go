package handlers

import (
	"seekeradv/internal/models"
	"seekeradv/internal/services"
	"seekeradv/internal/utils"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	paymentService services.PaymentService
	webhookService services.WebhookService
}

func NewPaymentHandler(paymentService services.PaymentService, webhookService services.WebhookService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		webhookService: webhookService,
	}
}

// CreatePayment opens a gateway payment for part of the booking balance.
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var request models.PaymentCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		bindError(c, err)
		return
	}

	bookingID := c.Param("booking_id")
	if bookingID == "" {
		bookingID = request.BookingID
	}

	response, err := h.paymentService.CreatePayment(c.Request.Context(), actor, bookingID, &request, c.GetHeader("Origin"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, response.Message, response)
}

// GetStripeStatus polls a checkout session and reconciles it when paid.
func (h *PaymentHandler) GetStripeStatus(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	status, err := h.webhookService.PollStripeSession(c.Request.Context(), actor, c.Param("booking_id"), c.Param("session_id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Payment status retrieved", status)
}

func (h *PaymentHandler) CheckBillplzPayments(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	result, err := h.webhookService.CheckBillplzPayments(c.Request.Context(), actor, c.Param("booking_id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Payment check completed", result)
}
