package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/admitd-dev/admitd/internal/identity"
	"github.com/admitd-dev/admitd/internal/models"
)

// CreateUserRequest represents an admin request to create a new user
type CreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,role"`
}

func (s *Server) listUsers(c *gin.Context) {
	var users []models.User
	if err := s.db.Order("created_at DESC").Find(&users).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	details := make([]*UserDetail, len(users))
	for i := range users {
		details[i] = userDetail(&users[i])
	}

	c.JSON(http.StatusOK, details)
}

func (s *Server) createUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, err := models.ParseRole(req.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := s.identity.CreateAccount(c.Request.Context(), req.Email, req.Password,
		identity.Metadata{Name: req.Name, Role: string(role)})
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "Email is already in use"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to create account")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	user := &models.User{
		ID:    sess.UserID,
		Name:  req.Name,
		Email: req.Email,
		Role:  role,
	}
	if err := s.profiles.Upsert(c.Request.Context(), user); err != nil {
		s.logger.Error().Err(err).Str("user_id", sess.UserID).Msg("Failed to create profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}

	admin, _ := CurrentUser(c)
	s.logger.Info().
		Str("user_id", user.ID).
		Str("email", user.Email).
		Str("role", string(role)).
		Str("created_by", admin.ID).
		Msg("User created")

	c.JSON(http.StatusCreated, gin.H{"user": userDetail(user)})
}

func (s *Server) deleteUser(c *gin.Context) {
	userID := c.Param("id")

	admin, _ := CurrentUser(c)

	// Prevent deleting self
	if userID == admin.ID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot delete yourself"})
		return
	}

	var user models.User
	if err := models.FindByID(s.db, userID, &user); err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to find user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := s.db.Delete(&user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to delete user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}

	// Remove the credential record too, invalidating outstanding tokens.
	if err := s.identity.DeleteAccount(c.Request.Context(), userID); err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to delete account")
	}

	s.logger.Info().
		Str("user_id", userID).
		Str("deleted_by", admin.ID).
		Msg("User deleted")

	c.Status(http.StatusNoContent)
}
