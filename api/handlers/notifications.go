package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/opentracing/opentracing-go"

	"github.com/expirehq/domain-monitor/interfaces"
	"github.com/expirehq/domain-monitor/internal/tracing"
)

type NotificationsHandler struct {
	notifier interfaces.NotifierService
}

func NewNotificationsHandler(notifier interfaces.NotifierService) *NotificationsHandler {
	return &NotificationsHandler{
		notifier: notifier,
	}
}

// Test fires a synthetic webhook delivery to validate the configuration
func (h *NotificationsHandler) Test() gin.HandlerFunc {
	return func(c *gin.Context) {
		span, ctx := opentracing.StartSpanFromContext(c.Request.Context(), "NotificationsHandler.Test")
		defer span.Finish()
		tracing.SetDefaultRestSpanTags(ctx, span)

		result := h.notifier.SendTestNotification(ctx)
		if !result.Success {
			c.JSON(http.StatusBadGateway, result)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
