package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"erp-telegram-bot/internal/common/errors"
	"erp-telegram-bot/internal/common/middleware"
	"erp-telegram-bot/internal/features/customer/models"
	"erp-telegram-bot/internal/platform/erp"
)

type Gateway interface {
	LookupByPlatformID(ctx context.Context, platformID int64) (*erp.Result[erp.CustomerLookup], error)
	ListReminders(ctx context.Context, platformID int64) (*erp.Result[erp.ReminderList], error)
}

type CustomerHandler struct {
	gateway Gateway
	logger  zerolog.Logger
}

func NewCustomerHandler(gateway Gateway, logger zerolog.Logger) *CustomerHandler {
	return &CustomerHandler{
		gateway: gateway,
		logger:  logger.With().Str("component", "customer_api").Logger(),
	}
}

// RegisterRoutes mounts the Mini App endpoints. router must already
// carry the init-data middleware.
func (h *CustomerHandler) RegisterRoutes(router gin.IRouter) {
	me := router.Group("/me")
	{
		me.GET("", h.getMe)
		me.GET("/reminders", h.getReminders)
	}
}

// @Summary Current customer
// @Description Profile and contracts of the ERP customer linked to the Telegram user.
// @Tags customer
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} models.ProfileResponse
// @Failure 401 {object} middleware.ErrorResponse "Missing or invalid init data"
// @Failure 404 {object} middleware.ErrorResponse "Telegram account is not linked"
// @Failure 502 {object} middleware.ErrorResponse "ERP unavailable"
// @Router /me [get]
func (h *CustomerHandler) getMe(c *gin.Context) {
	user, ok := middleware.TelegramUser(c)
	if !ok {
		middleware.AbortWithError(c, errors.NewUnauthorizedError("Telegram init data required"), h.logger)
		return
	}

	res, err := h.gateway.LookupByPlatformID(c.Request.Context(), user.ID)
	if err != nil {
		middleware.AbortWithError(c, err, h.logger)
		return
	}
	if res.Failed() || res.Data.Customer == nil {
		middleware.AbortWithError(c, errors.NewNotFoundError("customer", user.ID).WithUserID(user.ID), h.logger)
		return
	}

	c.JSON(http.StatusOK, models.NewProfileResponse(res.Data))
}

// @Summary Upcoming payments
// @Description Upcoming and overdue instalments of the linked customer.
// @Tags customer
// @Produce json
// @Security TelegramInitData
// @Success 200 {object} models.RemindersResponse
// @Failure 401 {object} middleware.ErrorResponse "Missing or invalid init data"
// @Failure 404 {object} middleware.ErrorResponse "Telegram account is not linked"
// @Failure 502 {object} middleware.ErrorResponse "ERP unavailable"
// @Router /me/reminders [get]
func (h *CustomerHandler) getReminders(c *gin.Context) {
	user, ok := middleware.TelegramUser(c)
	if !ok {
		middleware.AbortWithError(c, errors.NewUnauthorizedError("Telegram init data required"), h.logger)
		return
	}

	res, err := h.gateway.ListReminders(c.Request.Context(), user.ID)
	if err != nil {
		middleware.AbortWithError(c, err, h.logger)
		return
	}
	if res.Failed() {
		middleware.AbortWithError(c, errors.NewNotFoundError("customer", user.ID).WithUserID(user.ID), h.logger)
		return
	}

	c.JSON(http.StatusOK, models.NewRemindersResponse(res.Data))
}
