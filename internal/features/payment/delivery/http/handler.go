package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	apperrors "erp-telegram-bot/internal/common/errors"
	"erp-telegram-bot/internal/common/middleware"
	"erp-telegram-bot/internal/features/payment/models"
	"erp-telegram-bot/internal/features/payment/service"
)

const SecretHeader = "X-Webhook-Secret"

type PaymentHandler struct {
	relay  *service.Relay
	secret string
	logger zerolog.Logger
}

func NewPaymentHandler(relay *service.Relay, secret string, logger zerolog.Logger) *PaymentHandler {
	return &PaymentHandler{
		relay:  relay,
		secret: secret,
		logger: logger.With().Str("component", "payment_webhook").Logger(),
	}
}

func (h *PaymentHandler) RegisterRoutes(router gin.IRouter) {
	router.POST("/webhook/payment-entry", h.paymentEntry)
}

// @Summary Payment entry webhook
// @Description Called by the ERP when a Payment Entry is submitted. Relays a confirmation to the customer's Telegram chat when one is linked. ERPNext field names (name, party, custom_contract_reference, paid_amount, custom_telegram_id, posting_date, mode_of_payment) are accepted as aliases.
// @Tags webhooks
// @Accept json
// @Produce json
// @Param X-Webhook-Secret header string false "Shared secret, required when configured"
// @Param payload body models.PaymentEvent true "Payment event"
// @Success 200 {object} models.DeliveryResponse "Acknowledged"
// @Failure 400 {object} middleware.ErrorResponse "Invalid payload"
// @Failure 401 {object} middleware.ErrorResponse "Bad secret"
// @Failure 502 {object} middleware.ErrorResponse "Telegram delivery failed"
// @Router /webhook/payment-entry [post]
func (h *PaymentHandler) paymentEntry(c *gin.Context) {
	if h.secret != "" {
		got := c.GetHeader(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			middleware.AbortWithError(c, apperrors.NewUnauthorizedError("invalid webhook secret"), h.logger)
			return
		}
	}

	var ev models.PaymentEvent
	if err := c.ShouldBindJSON(&ev); err != nil {
		middleware.AbortWithError(c, apperrors.Wrap(err, apperrors.ErrCodeBadRequest, "invalid JSON body"), h.logger)
		return
	}
	if err := ev.Validate(); err != nil {
		middleware.AbortWithError(c, err, h.logger)
		return
	}

	delivered, err := h.relay.Deliver(c.Request.Context(), ev)
	if err != nil {
		if _, ok := apperrors.AsAppError(err); !ok {
			err = apperrors.NewTelegramAPIError("sendMessage", err)
		}
		middleware.AbortWithError(c, err, h.logger.With().Str("payment_id", ev.PaymentID).Logger())
		return
	}

	c.JSON(http.StatusOK, models.DeliveryResponse{Success: true, Delivered: delivered})
}
