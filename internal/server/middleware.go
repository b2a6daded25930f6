package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/admitd-dev/admitd/internal/guard"
	"github.com/admitd-dev/admitd/internal/models"
	"github.com/admitd-dev/admitd/internal/session"
)

const bearerPrefix = "Bearer "

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
)

const currentUserKey = "currentUser"

func setCurrentUser(c *gin.Context, user *models.User) {
	c.Set(currentUserKey, user)
}

// CurrentUser returns the authenticated user's profile for the request
func CurrentUser(c *gin.Context) (*models.User, bool) {
	value, exists := c.Get(currentUserKey)
	if !exists {
		return nil, false
	}

	user, ok := value.(*models.User)
	return user, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

func (s *Server) respondWithError(c *gin.Context, statusCode int, err error, message string) {
	s.logger.Warn().Err(err).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// authMiddleware validates the session token and resolves the caller's
// profile row, provisioning one when missing.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.identity == nil {
			s.respondWithError(c, http.StatusServiceUnavailable, errors.New("identity not configured"),
				"Authentication is not configured")
			return
		}

		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			var message string
			switch err {
			case ErrMissingAuthHeader:
				message = "Missing authorization header"
			case ErrInvalidAuthFormat:
				message = "Invalid authorization header format"
			case ErrEmptyToken:
				message = "Empty token"
			}
			s.respondWithError(c, http.StatusUnauthorized, err, message)
			return
		}

		sess, err := s.identity.Validate(c.Request.Context(), token)
		if err != nil {
			s.respondWithError(c, http.StatusUnauthorized, ErrInvalidToken, "Invalid or expired token")
			return
		}

		user, err := session.Resolve(c.Request.Context(), s.profiles, sess)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", sess.UserID).Msg("Failed to resolve profile")
			s.respondWithError(c, http.StatusUnauthorized, err, "User not found")
			return
		}

		setCurrentUser(c, user)

		c.Next()
	}
}

// optionalAuthMiddleware resolves the caller's profile when a valid session
// token is present and stays silent otherwise. Public routes use it so
// submissions from signed-in users are tied to their profile without
// requiring a session.
func (s *Server) optionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.identity == nil {
			c.Next()
			return
		}

		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.Next()
			return
		}

		sess, err := s.identity.Validate(c.Request.Context(), token)
		if err != nil {
			c.Next()
			return
		}

		if user, err := session.Resolve(c.Request.Context(), s.profiles, sess); err == nil {
			setCurrentUser(c, user)
		}

		c.Next()
	}
}

// requireRoles gates a route behind an allow-list of roles using the guard's
// decision procedure. Must run after authMiddleware.
func (s *Server) requireRoles(allowed ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, _ := CurrentUser(c)
		decision := guard.Decide(session.State{User: user, Configured: true}, allowed, c.Request.URL.Path)

		switch decision.Outcome {
		case guard.Authorized:
			c.Next()
		case guard.Unauthenticated:
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":       "Unauthorized",
				"redirect_to": decision.RedirectTo,
				"from":        decision.From,
			})
			c.Abort()
		default:
			c.JSON(http.StatusForbidden, gin.H{
				"error":         "Access denied for your role",
				"redirect_to":   decision.RedirectTo,
				"from":          decision.From,
				"allowed_roles": decision.Allowed,
			})
			c.Abort()
		}
	}
}
