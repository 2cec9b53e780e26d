package admin

import (
	"seekeradv/internal/middleware"
	"seekeradv/internal/models"
	"seekeradv/internal/services"
	"seekeradv/internal/utils"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	bookingService services.BookingService
}

func NewBookingHandler(bookingService services.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// ListBookings lists every booking, optionally filtered by booking status
// and payment status.
func (h *BookingHandler) ListBookings(c *gin.Context) {
	filter := models.BookingListFilter{
		BookingStatus: models.BookingStatus(c.Query("status")),
		PaymentStatus: models.PaymentStatus(c.Query("payment_status")),
	}
	if filter.BookingStatus != "" && !filter.BookingStatus.IsValid() {
		utils.BadRequestResponse(c, "Invalid status")
		return
	}

	params := utils.GetPaginationParams(c, utils.DefaultPageSize, utils.MaxPageSize)
	list, err := h.bookingService.ListBookings(c.Request.Context(), filter, params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Bookings retrieved successfully", list, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, list.Total),
		Total:      list.Total,
		Count:      len(list.Bookings),
	})
}

func (h *BookingHandler) UpdateBookingStatus(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	status := models.BookingStatus(c.Query("status"))
	if status == "" {
		utils.BadRequestResponse(c, "status is required")
		return
	}

	booking, err := h.bookingService.UpdateBookingStatus(c.Request.Context(), actor, c.Param("booking_id"), status)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Booking status updated", booking)
}

// ConfirmPayment marks a pending record as paid, typically a verified bank
// transfer.
func (h *BookingHandler) ConfirmPayment(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	booking, err := h.bookingService.ConfirmPayment(c.Request.Context(), actor, c.Param("booking_id"), c.Query("payment_id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Payment confirmed", booking)
}

func (h *BookingHandler) FailPayment(c *gin.Context) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		utils.UnauthorizedResponse(c)
		return
	}

	booking, err := h.bookingService.FailPayment(c.Request.Context(), actor, c.Param("booking_id"), c.Query("payment_id"), c.Query("reason"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Payment marked as failed", booking)
}

// GetAuditTrail lists administrative changes to a booking, newest first.
func (h *BookingHandler) GetAuditTrail(c *gin.Context) {
	params := utils.GetPaginationParams(c, utils.DefaultPageSize, utils.MaxPageSize)
	logs, total, err := h.bookingService.GetAuditTrail(c.Request.Context(), c.Param("booking_id"), params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Audit trail retrieved successfully", logs, &utils.Meta{
		Pagination: utils.CreatePaginationMeta(params, total),
		Total:      total,
		Count:      len(logs),
	})
}
