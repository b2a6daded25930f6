package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/admitd-dev/admitd/internal/models"
)

// CreatePaymentRequest represents a fee payment submission
type CreatePaymentRequest struct {
	EnrollmentID string               `json:"enrollment_id" binding:"required"`
	Amount       int64                `json:"amount" binding:"required,gt=0"`
	Method       models.PaymentMethod `json:"method" binding:"required"`
	ReceiptURL   string               `json:"receipt_url"`
}

// UpdatePaymentStatusRequest approves or rejects a pending payment
type UpdatePaymentStatusRequest struct {
	Status models.PaymentStatus `json:"status" binding:"required"`
}

func (s *Server) createPayment(c *gin.Context) {
	user, _ := CurrentUser(c)

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !req.Method.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown payment method"})
		return
	}

	// The enrollment must exist and belong to the paying student.
	var enrollment models.Enrollment
	if err := models.FindByID(s.db, req.EnrollmentID, &enrollment); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Enrollment not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find enrollment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if enrollment.StudentID != user.ID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied for your role"})
		return
	}

	payment := &models.Payment{
		StudentID:    user.ID,
		StudentName:  user.Name,
		EnrollmentID: enrollment.ID,
		Amount:       req.Amount,
		Method:       req.Method,
		ReceiptURL:   req.ReceiptURL,
		Status:       models.PaymentPending,
	}
	if err := s.db.Create(payment).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create payment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create payment"})
		return
	}

	s.logger.Info().
		Str("payment_id", payment.ID).
		Str("student_id", user.ID).
		Int64("amount", req.Amount).
		Msg("Payment submitted")

	c.JSON(http.StatusCreated, payment)
}

func (s *Server) listPayments(c *gin.Context) {
	user, _ := CurrentUser(c)

	query := s.db.Order("created_at DESC")

	// Students only see their own payments
	if user.Role == models.RoleStudent {
		query = query.Where("student_id = ?", user.ID)
	}

	var payments []models.Payment
	if err := query.Find(&payments).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list payments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, payments)
}

func (s *Server) updatePaymentStatus(c *gin.Context) {
	paymentID := c.Param("id")

	var req UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown payment status"})
		return
	}

	var payment models.Payment
	if err := models.FindByID(s.db, paymentID, &payment); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Payment not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find payment")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !payment.Status.CanTransition(req.Status) {
		c.JSON(http.StatusConflict, gin.H{
			"error": "Invalid status transition",
			"from":  payment.Status,
			"to":    req.Status,
		})
		return
	}

	if err := s.db.Model(&payment).Update("status", req.Status).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update payment status")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update payment"})
		return
	}

	s.enqueueNotification(payment.StudentID, "Payment update",
		"Your payment was "+string(req.Status))

	c.JSON(http.StatusOK, payment)
}
