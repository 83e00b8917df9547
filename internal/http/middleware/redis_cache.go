package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	commonmw "erp-telegram-bot/internal/common/middleware"
	rplatform "erp-telegram-bot/internal/platform/redis"
)

const CacheHeader = "X-Cache"

type cachedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// RedisCache caches successful GET responses of Mini App endpoints for a
// short TTL. Entries are keyed by the authenticated Telegram user and the
// full request URI, so it must run after TelegramInitData.
func RedisCache(rdb *rplatform.Client, ttl time.Duration, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ttl <= 0 || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		user, ok := commonmw.TelegramUser(c)
		if !ok {
			c.Next()
			return
		}

		key := "httpcache:" + strconv.FormatInt(user.ID, 10) + ":" + c.Request.URL.RequestURI()

		if bs, err := rdb.Get(c.Request.Context(), key).Bytes(); err == nil && len(bs) > 0 {
			var entry cachedResponse
			if json.Unmarshal(bs, &entry) == nil {
				c.Header(CacheHeader, "HIT")
				c.Data(entry.Status, entry.ContentType, entry.Body)
				c.Abort()
				return
			}
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Header(CacheHeader, "MISS")
		c.Next()

		status := rec.Status()
		if status < 200 || status >= 300 {
			return
		}
		entry := cachedResponse{Status: status, ContentType: rec.Header().Get("Content-Type"), Body: rec.body.Bytes()}
		payload, err := json.Marshal(entry)
		if err != nil {
			return
		}
		if err := rdb.Set(context.WithoutCancel(c.Request.Context()), key, payload, ttl).Err(); err != nil {
			logger.Warn().Err(err).Str("key", key).Msg("Failed to cache response")
		}
	}
}
