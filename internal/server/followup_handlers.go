package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/admitd-dev/admitd/internal/models"
)

// CreateFollowUpRequest schedules a counselor reminder
type CreateFollowUpRequest struct {
	EnquiryID string    `json:"enquiry_id"`
	Note      string    `json:"note" binding:"required"`
	DueAt     time.Time `json:"due_at" binding:"required"`
}

func (s *Server) createFollowUp(c *gin.Context) {
	user, _ := CurrentUser(c)

	var req CreateFollowUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.EnquiryID != "" {
		var enquiry models.Enquiry
		if err := models.FindByID(s.db, req.EnquiryID, &enquiry); err != nil {
			if err == gorm.ErrRecordNotFound {
				c.JSON(http.StatusNotFound, gin.H{"error": "Enquiry not found"})
				return
			}
			s.logger.Error().Err(err).Msg("Failed to find enquiry")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	followUp := &models.FollowUp{
		CounselorID: user.ID,
		EnquiryID:   req.EnquiryID,
		Note:        req.Note,
		DueAt:       req.DueAt,
	}
	if err := s.db.Create(followUp).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create follow-up")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create follow-up"})
		return
	}

	c.JSON(http.StatusCreated, followUp)
}

func (s *Server) listFollowUps(c *gin.Context) {
	user, _ := CurrentUser(c)

	var followUps []models.FollowUp
	err := s.db.Where("counselor_id = ?", user.ID).
		Order("due_at ASC").
		Find(&followUps).Error
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list follow-ups")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, followUps)
}

func (s *Server) markFollowUpDone(c *gin.Context) {
	user, _ := CurrentUser(c)
	followUpID := c.Param("id")

	var followUp models.FollowUp
	if err := models.FindByID(s.db, followUpID, &followUp); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Follow-up not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find follow-up")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if followUp.CounselorID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied for your role"})
		return
	}

	if err := s.db.Model(&followUp).Update("done", true).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to mark follow-up done")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update follow-up"})
		return
	}

	c.JSON(http.StatusOK, followUp)
}
