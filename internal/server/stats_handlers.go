package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/admitd-dev/admitd/internal/models"
)

func (s *Server) computeStats() (*models.Stats, error) {
	var stats models.Stats

	counts := []struct {
		dest  *int64
		query *gorm.DB
	}{
		{&stats.TotalStudents, s.db.Model(&models.User{}).Where("role = ?", models.RoleStudent)},
		{&stats.TotalEnquiries, s.db.Model(&models.Enquiry{})},
		{&stats.TotalEnrollments, s.db.Model(&models.Enrollment{})},
		{&stats.TotalPayments, s.db.Model(&models.Payment{})},
		{&stats.PendingEnquiries, s.db.Model(&models.Enquiry{}).Where("status = ?", models.EnquiryPending)},
		{&stats.PendingEnrollments, s.db.Model(&models.Enrollment{}).Where("status IN ?",
			[]models.EnrollmentStatus{models.EnrollmentSubmitted, models.EnrollmentUnderReview})},
		{&stats.PendingPayments, s.db.Model(&models.Payment{}).Where("status = ?", models.PaymentPending)},
	}

	for _, count := range counts {
		if err := count.query.Count(count.dest).Error; err != nil {
			return nil, err
		}
	}

	return &stats, nil
}

func (s *Server) getStats(c *gin.Context) {
	stats, err := s.computeStats()
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to compute stats")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
