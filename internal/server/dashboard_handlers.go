package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/admitd-dev/admitd/internal/guard"
	"github.com/admitd-dev/admitd/internal/models"
)

// genericDashboard serves the student dashboard and sends counselors and
// admins to their own dashboard paths. The redirect fires once: role-specific
// paths never point back at the generic one.
func (s *Server) genericDashboard(c *gin.Context) {
	user, _ := CurrentUser(c)

	if target, ok := guard.DecideRedirect(user.Role, c.Request.URL.Path); ok {
		c.Redirect(http.StatusTemporaryRedirect, target)
		return
	}

	var enrollments []models.Enrollment
	if err := s.db.Where("student_id = ?", user.ID).Order("created_at DESC").Find(&enrollments).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to load student enrollments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	views := make([]enrollmentView, len(enrollments))
	for i, enrollment := range enrollments {
		views[i] = enrollmentWithProgress(enrollment)
	}

	var pendingPayments int64
	if err := s.db.Model(&models.Payment{}).
		Where("student_id = ? AND status = ?", user.ID, models.PaymentPending).
		Count(&pendingPayments).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count pending payments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":             userDetail(user),
		"enrollments":      views,
		"pending_payments": pendingPayments,
	})
}

func (s *Server) counselorDashboard(c *gin.Context) {
	user, _ := CurrentUser(c)

	stats, err := s.computeStats()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to compute stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	var dueFollowUps int64
	if err := s.db.Model(&models.FollowUp{}).
		Where("counselor_id = ? AND done = ?", user.ID, false).
		Count(&dueFollowUps).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count follow-ups")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":            userDetail(user),
		"stats":           stats,
		"open_follow_ups": dueFollowUps,
	})
}

func (s *Server) adminDashboard(c *gin.Context) {
	user, _ := CurrentUser(c)

	stats, err := s.computeStats()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to compute stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  userDetail(user),
		"stats": stats,
	})
}
