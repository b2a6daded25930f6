package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/admitd-dev/admitd/internal/models"
)

// CreateEnquiryRequest represents a new admission enquiry. Posted from the
// public site, so the student id is taken from the session when present
// rather than from the body.
type CreateEnquiryRequest struct {
	StudentName string `json:"student_name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Contact     string `json:"contact"`
	Course      string `json:"course" binding:"required"`
	Message     string `json:"message" binding:"required"`
}

// UpdateEnquiryStatusRequest moves an enquiry through its lifecycle
type UpdateEnquiryStatusRequest struct {
	Status models.EnquiryStatus `json:"status" binding:"required"`
}

// CreateEnquiryResponseRequest is a staff reply to an enquiry
type CreateEnquiryResponseRequest struct {
	Message string `json:"message" binding:"required"`
}

func (s *Server) createEnquiry(c *gin.Context) {
	var req CreateEnquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	enquiry := &models.Enquiry{
		StudentName: req.StudentName,
		Email:       req.Email,
		Contact:     req.Contact,
		Course:      req.Course,
		Message:     req.Message,
		Status:      models.EnquiryPending,
	}

	// Tie the enquiry to the student when one is signed in.
	if user, ok := CurrentUser(c); ok {
		enquiry.StudentID = user.ID
	}

	if err := s.db.Create(enquiry).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create enquiry")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create enquiry"})
		return
	}

	s.logger.Info().Str("enquiry_id", enquiry.ID).Str("course", enquiry.Course).Msg("Enquiry created")

	c.JSON(http.StatusCreated, enquiry)
}

func (s *Server) listEnquiries(c *gin.Context) {
	user, _ := CurrentUser(c)

	query := s.db.Preload("Responses").Order("created_at DESC")

	// Students only see their own enquiries
	if user.Role == models.RoleStudent {
		query = query.Where("student_id = ?", user.ID)
	}

	var enquiries []models.Enquiry
	if err := query.Find(&enquiries).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list enquiries")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, enquiries)
}

func (s *Server) getEnquiry(c *gin.Context) {
	user, _ := CurrentUser(c)
	enquiryID := c.Param("id")

	var enquiry models.Enquiry
	err := s.db.Preload("Responses").Where("id = ?", enquiryID).First(&enquiry).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Enquiry not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find enquiry")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if user.Role == models.RoleStudent && enquiry.StudentID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied for your role"})
		return
	}

	c.JSON(http.StatusOK, enquiry)
}

func (s *Server) updateEnquiryStatus(c *gin.Context) {
	enquiryID := c.Param("id")

	var req UpdateEnquiryStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown enquiry status"})
		return
	}

	var enquiry models.Enquiry
	if err := models.FindByID(s.db, enquiryID, &enquiry); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Enquiry not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find enquiry")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !enquiry.Status.CanTransition(req.Status) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Invalid status transition",
			"from":  enquiry.Status,
			"to":    req.Status,
		})
		return
	}

	if err := s.db.Model(&enquiry).Update("status", req.Status).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update enquiry status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update enquiry"})
		return
	}

	s.enqueueNotification(enquiry.StudentID, "Enquiry update",
		"Your enquiry about "+enquiry.Course+" is now "+string(req.Status))

	c.JSON(http.StatusOK, enquiry)
}

func (s *Server) createEnquiryResponse(c *gin.Context) {
	user, _ := CurrentUser(c)
	enquiryID := c.Param("id")

	var req CreateEnquiryResponseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var enquiry models.Enquiry
	if err := models.FindByID(s.db, enquiryID, &enquiry); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Enquiry not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find enquiry")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := &models.EnquiryResponse{
		EnquiryID: enquiry.ID,
		StaffID:   user.ID,
		StaffName: user.Name,
		Message:   req.Message,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(response).Error; err != nil {
			return err
		}
		// First response moves the enquiry out of pending.
		if enquiry.Status == models.EnquiryPending {
			return tx.Model(&enquiry).Update("status", models.EnquiryResponded).Error
		}
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to create enquiry response")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create response"})
		return
	}

	s.enqueueNotification(enquiry.StudentID, "New response to your enquiry", req.Message)

	c.JSON(http.StatusCreated, response)
}
