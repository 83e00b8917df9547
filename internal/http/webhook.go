package http

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"erp-telegram-bot/internal/common/errors"
	"erp-telegram-bot/internal/common/middleware"
	"erp-telegram-bot/internal/features/conversation"
	"erp-telegram-bot/internal/platform/telegram"
)

// UpdateSink accepts inbound conversation events. The per-identity
// dispatcher implements it.
type UpdateSink interface {
	Submit(ev conversation.Event) bool
}

// TelegramWebhook receives Bot API updates. Updates without a sender are
// acknowledged and dropped. A rejected event answers 503 so Telegram
// redelivers it.
func TelegramWebhook(secret string, sink UpdateSink, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret != "" {
			got := c.GetHeader(telegram.SecretHeader)
			if subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
				middleware.AbortWithError(c, errors.NewUnauthorizedError("invalid webhook secret"), logger)
				return
			}
		}

		var update tgbotapi.Update
		if err := c.ShouldBindJSON(&update); err != nil {
			middleware.AbortWithError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "malformed update"), logger)
			return
		}

		ev, ok := conversation.EventFromUpdate(update)
		if !ok {
			c.Status(http.StatusOK)
			return
		}
		if !sink.Submit(ev) {
			logger.Warn().Int("update_id", update.UpdateID).Int64("user_id", ev.UserID).Msg("Update rejected, dispatcher stopping")
			c.Status(http.StatusServiceUnavailable)
			return
		}
		c.Status(http.StatusOK)
	}
}
