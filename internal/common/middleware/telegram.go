package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"erp-telegram-bot/internal/common/errors"
)

const (
	InitDataHeader = "X-Telegram-Init-Data"
	InitDataQuery  = "init_data"

	userKey = "user"
)

// TelegramInitData authenticates Mini App requests. Init data is read
// from the X-Telegram-Init-Data header, then from the init_data query
// parameter. ttl of 0 disables the expiry check.
func TelegramInitData(token string, ttl time.Duration, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token == "" {
			AbortWithError(c, errors.New(errors.ErrCodeInternal, "init data validation is not configured"), logger)
			return
		}

		raw := c.GetHeader(InitDataHeader)
		if raw == "" {
			raw = c.Query(InitDataQuery)
		}
		if raw == "" {
			AbortWithError(c, errors.NewUnauthorizedError("Telegram init data required"), logger)
			return
		}

		if err := initdata.Validate(raw, token, ttl); err != nil {
			logger.Debug().Err(err).Msg("Init data validation failed")
			AbortWithError(c, errors.NewUnauthorizedError("invalid init data"), logger)
			return
		}

		parsed, err := initdata.Parse(raw)
		if err != nil {
			AbortWithError(c, errors.Wrap(err, errors.ErrCodeBadRequest, "malformed init data"), logger)
			return
		}
		if parsed.User.ID == 0 {
			AbortWithError(c, errors.NewUnauthorizedError("init data carries no user"), logger)
			return
		}

		c.Set(userKey, parsed.User)
		c.Next()
	}
}

// TelegramUser returns the user authenticated by TelegramInitData.
func TelegramUser(c *gin.Context) (initdata.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return initdata.User{}, false
	}
	user, ok := v.(initdata.User)
	return user, ok
}
