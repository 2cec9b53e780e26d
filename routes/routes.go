package routes

import (
	"context"
	"net/http"
	"time"

	"seekeradv/internal/handlers/admin"
	handlers "seekeradv/internal/handlers/shared"
	"seekeradv/internal/handlers/webhooks"
	"seekeradv/internal/middleware"
	"seekeradv/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Booking *handlers.BookingHandler
	Payment *handlers.PaymentHandler
	Admin   *admin.BookingHandler
	Webhook *webhooks.WebhookHandler
}

// HealthCheck reports whether a backing dependency is reachable.
type HealthCheck func(ctx context.Context) error

// SetupBookingRoutes sets up the authenticated booking and payment routes
func SetupBookingRoutes(api *gin.RouterGroup, h *Handlers, jwtSecret string) {
	bookings := api.Group("/bookings")
	bookings.Use(middleware.AuthRequired(jwtSecret, false))
	{
		bookings.POST("", h.Booking.CreateBooking)
		bookings.GET("/my-bookings", h.Booking.GetMyBookings)
		bookings.GET("/:booking_id", h.Booking.GetBooking)
		bookings.PUT("/:booking_id/cancel", h.Booking.CancelBooking)

		bookings.POST("/:booking_id/pay", h.Payment.CreatePayment)
		bookings.GET("/:booking_id/payment-status/:session_id", h.Payment.GetStripeStatus)
		bookings.GET("/:booking_id/check-payment", h.Payment.CheckBillplzPayments)
		bookings.POST("/:booking_id/payments/:payment_id/proof", h.Booking.UploadPaymentProof)
	}

	// Browsers cannot set headers on websocket upgrades.
	ws := api.Group("/ws")
	ws.Use(middleware.AuthRequired(jwtSecret, true))
	{
		ws.GET("/bookings/:booking_id", h.Booking.BookingFeed)
	}
}

func SetupAdminRoutes(api *gin.RouterGroup, h *Handlers, jwtSecret string) {
	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.AuthRequired(jwtSecret, false), middleware.AdminRequired())
	{
		adminGroup.GET("/bookings", h.Admin.ListBookings)
		adminGroup.PUT("/bookings/:booking_id/status", h.Admin.UpdateBookingStatus)
		adminGroup.PUT("/bookings/:booking_id/payment-confirm", h.Admin.ConfirmPayment)
		adminGroup.PUT("/bookings/:booking_id/payment-fail", h.Admin.FailPayment)
		adminGroup.GET("/bookings/:booking_id/audit", h.Admin.GetAuditTrail)
	}
}

// SetupWebhookRoutes registers gateway callbacks. These are public and authenticate by signature.
func SetupWebhookRoutes(api *gin.RouterGroup, h *Handlers) {
	api.POST("/payments/webhook/billplz", h.Webhook.Billplz)
	api.POST("/bookings/webhook/billplz", h.Webhook.Billplz)

	api.POST("/webhook/stripe", h.Webhook.Stripe)

	api.POST("/bookings/webhook/bayarcash", h.Webhook.Bayarcash)
	api.POST("/webhooks/bayarcash", h.Webhook.Bayarcash)
}

func SetupSystemRoutes(router *gin.Engine, api *gin.RouterGroup, version string, checks map[string]HealthCheck) {
	api.GET("", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": utils.AppName + " API",
			"version": version,
		})
	})

	api.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		components := gin.H{}
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				components[name] = "unhealthy"
				continue
			}
			components[name] = "healthy"
		}

		overall := "healthy"
		if status != http.StatusOK {
			overall = "unhealthy"
		}
		c.JSON(status, gin.H{
			"status":     overall,
			"version":    version,
			"components": components,
			"timestamp":  time.Now().UTC(),
		})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// SetupRoutes wires every route group under /api.
func SetupRoutes(router *gin.Engine, h *Handlers, jwtSecret, version string, checks map[string]HealthCheck) {
	api := router.Group("/api")
	SetupSystemRoutes(router, api, version, checks)
	SetupWebhookRoutes(api, h)
	SetupBookingRoutes(api, h, jwtSecret)
	SetupAdminRoutes(api, h, jwtSecret)
}
