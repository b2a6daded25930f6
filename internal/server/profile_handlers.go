package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/admitd-dev/admitd/internal/models"
)

// UpdateProfileRequest represents a partial profile update. Role and email
// are deliberately absent: the role is externally authoritative and never
// edited through the profile surface.
type UpdateProfileRequest struct {
	Name      *string `json:"name"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
	AvatarURL *string `json:"avatar_url"`
}

func (s *Server) getProfile(c *gin.Context) {
	user, _ := CurrentUser(c)
	c.JSON(http.StatusOK, userDetail(user))
}

func (s *Server) updateProfile(c *gin.Context) {
	user, _ := CurrentUser(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil && *req.Name != "" {
		updates["name"] = *req.Name
	}
	if req.Phone != nil {
		updates["phone"] = *req.Phone
	}
	if req.Address != nil {
		updates["address"] = *req.Address
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = *req.AvatarURL
	}

	if len(updates) == 0 {
		c.JSON(http.StatusOK, userDetail(user))
		return
	}

	if err := s.db.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to update profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	var updated models.User
	if err := models.FindByID(s.db, user.ID, &updated); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("Failed to reload profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, userDetail(&updated))
}
