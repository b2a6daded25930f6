package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/admitd-dev/admitd/internal/identity"
	"github.com/admitd-dev/admitd/internal/models"
	"github.com/admitd-dev/admitd/internal/session"
)

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Role     string `json:"role" binding:"required,role"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token string      `json:"token"`
	User  *UserDetail `json:"user"`
}

// UserDetail represents user information returned in responses
type UserDetail struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	AvatarURL string      `json:"avatar_url,omitempty"`
	Phone     string      `json:"phone,omitempty"`
	Address   string      `json:"address,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

func userDetail(user *models.User) *UserDetail {
	return &UserDetail{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      user.Role,
		AvatarURL: user.AvatarURL,
		Phone:     user.Phone,
		Address:   user.Address,
		CreatedAt: user.CreatedAt,
	}
}

func (s *Server) register(c *gin.Context) {
	if s.identity == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Authentication is not configured"})
		return
	}

	var req RegisterRequest
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
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	profile := &models.User{
		ID:    sess.UserID,
		Name:  req.Name,
		Email: req.Email,
		Role:  role,
	}
	if err := s.profiles.Upsert(c.Request.Context(), profile); err != nil {
		// The auth account exists; report success with a warning rather than
		// stranding the caller with credentials that "failed".
		s.logger.Error().Err(err).Str("user_id", sess.UserID).Msg("Profile insert failed after sign-up")
		c.JSON(http.StatusCreated, gin.H{
			"token":   sess.Token,
			"warning": "Account created, but profile setup failed. Contact support.",
		})
		return
	}

	s.logger.Info().Str("user_id", sess.UserID).Str("email", req.Email).Str("role", string(role)).Msg("User registered")

	c.JSON(http.StatusCreated, LoginResponse{
		Token: sess.Token,
		User:  userDetail(profile),
	})
}

func (s *Server) login(c *gin.Context) {
	if s.identity == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Authentication is not configured"})
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := s.identity.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		s.logger.Error().Err(err).Msg("Failed to authenticate")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	user, err := session.Resolve(c.Request.Context(), s.profiles, sess)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", sess.UserID).Msg("Failed to resolve profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	s.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User logged in")

	c.JSON(http.StatusOK, LoginResponse{
		Token: sess.Token,
		User:  userDetail(user),
	})
}

func (s *Server) logout(c *gin.Context) {
	token, err := extractBearerToken(c.GetHeader("Authorization"))
	if err == nil {
		if err := s.identity.Revoke(c.Request.Context(), token); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to revoke session")
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "You have been logged out"})
}

func (s *Server) getCurrentUser(c *gin.Context) {
	user, exists := CurrentUser(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.JSON(http.StatusOK, userDetail(user))
}
