package handler

import (
	"errors"
	"net/http"
	"strconv"

	"copyforge/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type AdminHandler struct {
	notifications *service.AdminNotificationService
	usage         *service.UsageService
	log           logrus.FieldLogger
}

func NewAdminHandler(notifications *service.AdminNotificationService, usage *service.UsageService, log logrus.FieldLogger) *AdminHandler {
	return &AdminHandler{notifications: notifications, usage: usage, log: log}
}

// ListNotifications handles GET /admin/notifications.
func (h *AdminHandler) ListNotifications(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.notifications.List(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// CreateNotification handles POST /admin/notifications.
func (h *AdminHandler) CreateNotification(c *gin.Context) {
	var req service.CreateNotificationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n, err := h.notifications.Create(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidNotification) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.log.WithError(err).Error("create notification failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, n)
}

// SetNotificationActive handles PATCH /admin/notifications/:id/active.
func (h *AdminHandler) SetNotificationActive(c *gin.Context) {
	var req struct {
		IsActive *bool `json:"is_active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n, err := h.notifications.SetActive(c.Request.Context(), c.Param("id"), *req.IsActive)
	if err != nil {
		h.writeLookupError(c, err, "update failed")
		return
	}
	c.JSON(http.StatusOK, n)
}

// DeleteNotification handles DELETE /admin/notifications/:id.
func (h *AdminHandler) DeleteNotification(c *gin.Context) {
	if err := h.notifications.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeLookupError(c, err, "delete failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// SetWordsLimit handles PATCH /admin/users/:id/limit.
func (h *AdminHandler) SetWordsLimit(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var req struct {
		WordsLimit *int `json:"words_limit" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.usage.SetLimit(c.Request.Context(), uint(id), *req.WordsLimit); err != nil {
		if errors.Is(err, service.ErrInvalidUsage) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "words_limit must not be negative"})
			return
		}
		h.writeLookupError(c, err, "update failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ResetUsage handles POST /admin/users/:id/reset-usage.
func (h *AdminHandler) ResetUsage(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	if err := h.usage.ResetUsage(c.Request.Context(), uint(id)); err != nil {
		h.writeLookupError(c, err, "reset failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *AdminHandler) writeLookupError(c *gin.Context, err error, msg string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	h.log.WithError(err).Error(msg)
	c.JSON(http.StatusInternalServerError, gin.H{"error": msg})
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}
