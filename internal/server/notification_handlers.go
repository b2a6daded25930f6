package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/admitd-dev/admitd/internal/models"
)

func (s *Server) listNotifications(c *gin.Context) {
	user, _ := CurrentUser(c)

	var notifications []models.Notification
	err := s.db.Where("user_id = ?", user.ID).
		Order("created_at DESC").
		Limit(100).
		Find(&notifications).Error
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list notifications")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

func (s *Server) markNotificationRead(c *gin.Context) {
	user, _ := CurrentUser(c)
	notificationID := c.Param("id")

	var notification models.Notification
	if err := models.FindByID(s.db, notificationID, &notification); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find notification")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if notification.UserID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied for your role"})
		return
	}

	if err := s.db.Model(&notification).Update("is_read", true).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to mark notification read")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}

	c.JSON(http.StatusOK, notification)
}
