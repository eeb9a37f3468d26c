package handler

import (
	"errors"
	"net/http"

	"copyforge/internal/middleware"
	"copyforge/internal/repository"
	"copyforge/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type MeHandler struct {
	userRepo *repository.UserRepository
	usage    *service.UsageService
	log      logrus.FieldLogger
}

func NewMeHandler(userRepo *repository.UserRepository, usage *service.UsageService, log logrus.FieldLogger) *MeHandler {
	return &MeHandler{userRepo: userRepo, usage: usage, log: log}
}

// GetProfile handles GET /me/profile.
func (h *MeHandler) GetProfile(c *gin.Context) {
	u, err := h.userRepo.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

type RecordUsageRequest struct {
	Tool  string `json:"tool" binding:"required"`
	Words int    `json:"words" binding:"required,gt=0"`
}

// RecordUsage handles POST /me/usage, called after a generator run.
func (h *MeHandler) RecordUsage(c *gin.Context) {
	var req RecordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.usage.Record(c.Request.Context(), middleware.GetUserID(c), req.Tool, req.Words)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidUsage):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		default:
			h.log.WithError(err).Error("record usage failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record usage"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u})
}

// UsageHistory handles GET /me/usage.
func (h *MeHandler) UsageHistory(c *gin.Context) {
	page, limit := parsePagination(c)
	list, err := h.usage.History(c.Request.Context(), middleware.GetUserID(c), limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "page": page, "limit": limit})
}
