package handlers

import (
	"net/http"

	"shikkha_backend/internal/services"
	"shikkha_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type PushHandler struct {
	*BaseHandler
	subscriptionService services.PushSubscriptionService
}

func NewPushHandler(base *BaseHandler, subscriptionService services.PushSubscriptionService) *PushHandler {
	return &PushHandler{
		BaseHandler:         base,
		subscriptionService: subscriptionService,
	}
}

func (h *PushHandler) RegisterRoutes(r *gin.RouterGroup) {
	push := r.Group("/push")
	{
		push.POST("/subscriptions", h.RegisterSubscription)
	}
}

// RegisterSubscription stores or refreshes an admin browser's push target.
func (h *PushHandler) RegisterSubscription(c *gin.Context) {
	var req dto.RegisterSubscriptionRequest
	if !h.BindAndValidateJSON(c, &req) {
		return
	}

	if err := h.subscriptionService.Register(c.Request.Context(), &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Subscription registered"})
}
