package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "erp-telegram-bot/docs"
	"erp-telegram-bot/internal/common/config"
	"erp-telegram-bot/internal/common/middleware"
	customerhttp "erp-telegram-bot/internal/features/customer/delivery/http"
	paymenthttp "erp-telegram-bot/internal/features/payment/delivery/http"
	mw "erp-telegram-bot/internal/http/middleware"
	rplatform "erp-telegram-bot/internal/platform/redis"
)

// Checker is a dependency probed by /ready.
type Checker func(ctx context.Context) error

type Deps struct {
	Config    *config.Config
	Redis     *rplatform.Client
	Updates   UpdateSink
	Payments  *paymenthttp.PaymentHandler
	Customers *customerhttp.CustomerHandler
	// Checks are probed in order by /ready, keyed by dependency name.
	Checks []NamedCheck
	Logger zerolog.Logger
}

type NamedCheck struct {
	Name  string
	Check Checker
}

// NewRouter builds the gin engine: Telegram webhook intake, the ERP payment
// webhook, the Mini App API, probes and swagger.
func NewRouter(d Deps) *gin.Engine {
	cfg := d.Config
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	logger := d.Logger.With().Str("component", "http").Logger()

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.Logger(logger, "/health", "/live", "/ready"))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Server.Origin}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Content-Type", "Accept", middleware.InitDataHeader, middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	if d.Updates != nil {
		router.POST(cfg.Telegram.WebhookPath, TelegramWebhook(cfg.Telegram.WebhookSecret, d.Updates, logger))
	}
	if d.Payments != nil {
		d.Payments.RegisterRoutes(router)
	}
	if d.Customers != nil {
		v1 := router.Group("/api/v1",
			middleware.TelegramInitData(cfg.Telegram.BotToken, cfg.Telegram.InitDataTTL, logger),
		)
		if d.Redis != nil {
			v1.Use(mw.RedisCache(d.Redis, cfg.Server.CacheTTL, logger))
		}
		d.Customers.RegisterRoutes(v1)
	}

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	registerProbes(router, cfg.ServiceName, d.Checks)

	return router
}

func registerProbes(router *gin.Engine, service string, checks []NamedCheck) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC(),
			"service":   service,
		})
	})

	router.GET("/live", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	router.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status":  "unready",
					"error":   check.Name + " unavailable",
					"details": err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "ready",
			"timestamp": time.Now().UTC(),
			"service":   service,
		})
	})
}

// NewServer wraps handler with the production timeouts.
func NewServer(port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
