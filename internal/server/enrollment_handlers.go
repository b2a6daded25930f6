package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/admitd-dev/admitd/internal/models"
)

// CreateEnrollmentRequest represents a student's application to a course
type CreateEnrollmentRequest struct {
	Course      string `json:"course" binding:"required"`
	DateOfBirth string `json:"date_of_birth" binding:"required"`
	Gender      string `json:"gender"`
	Address     string `json:"address" binding:"required"`
	City        string `json:"city" binding:"required"`
	State       string `json:"state"`
	ZipCode     string `json:"zip_code"`
	Country     string `json:"country" binding:"required"`
	Phone       string `json:"phone" binding:"required"`

	Documents []struct {
		Name string `json:"name" binding:"required"`
		Type string `json:"type"`
		URL  string `json:"url" binding:"required,url"`
	} `json:"documents"`
}

// UpdateEnrollmentStatusRequest moves an enrollment through review
type UpdateEnrollmentStatusRequest struct {
	Status  models.EnrollmentStatus `json:"status" binding:"required"`
	Remarks string                  `json:"remarks"`
}

// enrollmentView adds the derived progress percentage to an enrollment
type enrollmentView struct {
	models.Enrollment
	Progress int `json:"progress"`
}

func enrollmentWithProgress(e models.Enrollment) enrollmentView {
	return enrollmentView{Enrollment: e, Progress: e.Status.Progress()}
}

func (s *Server) createEnrollment(c *gin.Context) {
	user, _ := CurrentUser(c)

	var req CreateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	enrollment := &models.Enrollment{
		StudentID:   user.ID,
		StudentName: user.Name,
		Course:      req.Course,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		Address:     req.Address,
		City:        req.City,
		State:       req.State,
		ZipCode:     req.ZipCode,
		Country:     req.Country,
		Phone:       req.Phone,
		Status:      models.EnrollmentSubmitted,
	}
	for _, doc := range req.Documents {
		enrollment.Documents = append(enrollment.Documents, models.Document{
			Name: doc.Name,
			Type: doc.Type,
			URL:  doc.URL,
		})
	}

	if err := s.db.Create(enrollment).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create enrollment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create enrollment"})
		return
	}

	s.logger.Info().
		Str("enrollment_id", enrollment.ID).
		Str("student_id", user.ID).
		Str("course", req.Course).
		Msg("Enrollment submitted")

	c.JSON(http.StatusCreated, enrollmentWithProgress(*enrollment))
}

func (s *Server) listEnrollments(c *gin.Context) {
	user, _ := CurrentUser(c)

	query := s.db.Preload("Documents").Order("created_at DESC")

	// Students only see their own enrollments
	if user.Role == models.RoleStudent {
		query = query.Where("student_id = ?", user.ID)
	}

	var enrollments []models.Enrollment
	if err := query.Find(&enrollments).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list enrollments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	views := make([]enrollmentView, len(enrollments))
	for i, enrollment := range enrollments {
		views[i] = enrollmentWithProgress(enrollment)
	}

	c.JSON(http.StatusOK, views)
}

func (s *Server) getEnrollment(c *gin.Context) {
	user, _ := CurrentUser(c)
	enrollmentID := c.Param("id")

	var enrollment models.Enrollment
	err := s.db.Preload("Documents").Where("id = ?", enrollmentID).First(&enrollment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Enrollment not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find enrollment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if user.Role == models.RoleStudent && enrollment.StudentID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied for your role"})
		return
	}

	c.JSON(http.StatusOK, enrollmentWithProgress(enrollment))
}

func (s *Server) updateEnrollmentStatus(c *gin.Context) {
	enrollmentID := c.Param("id")

	var req UpdateEnrollmentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown enrollment status"})
		return
	}

	var enrollment models.Enrollment
	if err := models.FindByID(s.db, enrollmentID, &enrollment); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Enrollment not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find enrollment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !enrollment.Status.CanTransition(req.Status) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Invalid status transition",
			"from":  enrollment.Status,
			"to":    req.Status,
		})
		return
	}

	updates := map[string]interface{}{"status": req.Status}
	if req.Remarks != "" {
		updates["remarks"] = req.Remarks
	}
	if err := s.db.Model(&enrollment).Updates(updates).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update enrollment status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update enrollment"})
		return
	}

	s.enqueueNotification(enrollment.StudentID, "Enrollment update",
		"Your application for "+enrollment.Course+" is now "+string(req.Status))

	c.JSON(http.StatusOK, enrollmentWithProgress(enrollment))
}
