package handlers

import (
	"net/http"

	"seekeradv/internal/models"
	"seekeradv/internal/services"
	"seekeradv/internal/utils"
	"seekeradv/pkg/logger"
	"seekeradv/pkg/websocket"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	bookingService services.BookingService
	wsHandler      *websocket.Handler
	maxUploadSize  int64
	logger         *logger.Logger
}

func NewBookingHandler(bookingService services.BookingService, wsHandler *websocket.Handler, maxUploadSize int64, logger *logger.Logger) *BookingHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = utils.MaxProofSize
	}
	return &BookingHandler{
		bookingService: bookingService,
		wsHandler:      wsHandler,
		maxUploadSize:  maxUploadSize,
		logger:         logger,
	}
}

// CreateBooking creates a booking for the authenticated user
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var request models.BookingCreateRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		bindError(c, err)
		return
	}

	booking, err := h.bookingService.CreateBooking(c.Request.Context(), actor, &request)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.CreatedResponse(c, "Booking created successfully", booking)
}

func (h *BookingHandler) GetMyBookings(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	status := models.BookingStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		utils.BadRequestResponse(c, "Invalid status")
		return
	}

	params := utils.GetPaginationParams(c, utils.DefaultPageSize, utils.MaxMyBookingsSize)
	list, err := h.bookingService.ListMyBookings(c.Request.Context(), actor, status, params)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponseWithMeta(c, "Bookings retrieved successfully", list, paginationMeta(list, params))
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	booking, err := h.bookingService.GetBooking(c.Request.Context(), actor, c.Param("booking_id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Booking retrieved successfully", booking)
}

func (h *BookingHandler) CancelBooking(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	booking, err := h.bookingService.CancelBooking(c.Request.Context(), actor, c.Param("booking_id"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Booking cancelled successfully", booking)
}

// UploadPaymentProof accepts a multipart "file" with the transfer receipt.
func (h *BookingHandler) UploadPaymentProof(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize+1<<20)
	fileHeader, err := c.FormFile("file")
	if err != nil {
		utils.BadRequestResponse(c, "Proof file is required")
		return
	}
	if fileHeader.Size > h.maxUploadSize {
		utils.BadRequestResponse(c, "Proof file is too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		utils.BadRequestResponse(c, "Failed to read proof file")
		return
	}
	defer file.Close()

	booking, err := h.bookingService.UploadPaymentProof(c.Request.Context(), actor, c.Param("booking_id"), c.Param("payment_id"), &services.ProofUpload{
		Filename: fileHeader.Filename,
		Size:     fileHeader.Size,
		Reader:   file,
	})
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.SuccessResponse(c, "Payment proof uploaded successfully", booking)
}

// BookingFeed upgrades to a websocket that receives payment updates for one
// booking the caller may view.
func (h *BookingHandler) BookingFeed(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	bookingID := c.Param("booking_id")
	if _, err := h.bookingService.GetBooking(c.Request.Context(), actor, bookingID); err != nil {
		utils.HandleError(c, err)
		return
	}

	if err := h.wsHandler.ServeBooking(c.Writer, c.Request, actor.UserID, bookingID); err != nil {
		h.logger.WithError(err).WithBookingID(bookingID).Warn("Websocket upgrade failed")
	}
}
