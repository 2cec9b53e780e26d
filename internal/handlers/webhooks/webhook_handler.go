package webhooks

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"seekeradv/internal/services"
	"seekeradv/internal/utils"
	"seekeradv/pkg/logger"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 20

type WebhookHandler struct {
	webhookService services.WebhookService
	logger         *logger.Logger
}

func NewWebhookHandler(webhookService services.WebhookService, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
		logger:         logger,
	}
}

// Billplz posts form-encoded callbacks, signed with X-Signature when a key
// is configured.
func (h *WebhookHandler) Billplz(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		utils.WebhookAck(c, utils.WebhookError, nil)
		return
	}

	result, err := h.webhookService.HandleBillplz(c.Request.Context(), body, c.GetHeader("X-Signature"))
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.WebhookAck(c, result.Status, nil)
}

func (h *WebhookHandler) Stripe(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		utils.WebhookAck(c, utils.WebhookError, nil)
		return
	}

	result := h.webhookService.HandleStripe(c.Request.Context(), body, c.GetHeader("Stripe-Signature"))
	utils.WebhookAck(c, result.Status, nil)
}

// Bayarcash callbacks arrive either as JSON or as a form post.
func (h *WebhookHandler) Bayarcash(c *gin.Context) {
	fields, err := bayarcashFields(c)
	if err != nil {
		h.logger.WithError(err).Warn("Failed to parse Bayarcash callback")
		utils.WebhookAck(c, utils.WebhookError, nil)
		return
	}

	result, err := h.webhookService.HandleBayarcash(c.Request.Context(), fields)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	utils.WebhookAck(c, result.Status, nil)
}

func readBody(c *gin.Context) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
}

func bayarcashFields(c *gin.Context) (map[string]string, error) {
	fields := make(map[string]string)

	if strings.HasPrefix(c.ContentType(), "application/json") {
		var raw map[string]interface{}
		if err := c.ShouldBindJSON(&raw); err != nil {
			return nil, err
		}
		for k, v := range raw {
			if s, ok := stringify(v); ok {
				fields[k] = s
			}
		}
		return fields, nil
	}

	if err := c.Request.ParseForm(); err != nil {
		return nil, err
	}
	for k := range c.Request.PostForm {
		fields[k] = c.Request.PostForm.Get(k)
	}
	return fields, nil
}

// stringify renders JSON scalars the way they appear in form posts so the
// checksum is computed over the same text either way.
func stringify(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(t), true
	}
	return "", false
}
