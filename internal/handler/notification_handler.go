package handler

import (
	"errors"
	"net/http"

	"copyforge/internal/middleware"
	"copyforge/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	svc *service.NotificationService
}

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// List handles GET /me/notifications. It always answers 200; "partial" tells
// the client some sources could not be read.
func (h *NotificationHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Feed(c.Request.Context(), middleware.GetUserID(c)))
}

// Dismiss handles POST /me/notifications/:id/dismiss.
func (h *NotificationHandler) Dismiss(c *gin.Context) {
	id := c.Param("id")
	err := h.svc.Dismiss(c.Request.Context(), middleware.GetUserID(c), id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "ok", "id": id})
	case errors.Is(err, service.ErrInvalidNotificationID):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not dismiss notification, try again"})
	}
}

// DismissAll handles POST /me/notifications/dismiss-all.
func (h *NotificationHandler) DismissAll(c *gin.Context) {
	ids, err := h.svc.DismissAll(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not clear notifications, try again"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"dismissed": ids})
}

// MarkRead handles PUT /me/notifications/:id/read. Read flags live in memory.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.svc.MarkRead(middleware.GetUserID(c), c.Param("id")); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// MarkAllRead handles PUT /me/notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	h.svc.MarkAllRead(c.Request.Context(), middleware.GetUserID(c))
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
