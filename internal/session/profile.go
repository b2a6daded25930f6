package session

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/admitd-dev/admitd/internal/identity"
	"github.com/admitd-dev/admitd/internal/models"
)

// ErrProfileNotFound is returned when no profile row exists for an identity
var ErrProfileNotFound = errors.New("profile not found")

// ProfileStore is the profile-table collaborator consumed by the Store
type ProfileStore interface {
	// GetByID returns the profile row for an identity, or ErrProfileNotFound.
	GetByID(ctx context.Context, id string) (*models.User, error)

	// Upsert inserts the profile row, or leaves an existing row in place.
	// Idempotent by id so concurrent provisioning from two clients is safe.
	Upsert(ctx context.Context, user *models.User) error
}

// GormProfiles is the ProfileStore over the portal's users table
type GormProfiles struct {
	DB *gorm.DB
}

func (p GormProfiles) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := p.DB.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (p GormProfiles) Upsert(ctx context.Context, user *models.User) error {
	return p.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(user).Error
}

// Resolve loads the profile row for an authenticated session,
// auto-provisioning a row when the identity has none (first login after
// out-of-band account creation, or provider/table desync). The provision is
// an upsert by id, so two clients racing it converge on a single row.
func Resolve(ctx context.Context, profiles ProfileStore, sess *identity.Session) (*models.User, error) {
	user, err := profiles.GetByID(ctx, sess.UserID)
	if errors.Is(err, ErrProfileNotFound) {
		provisioned := &models.User{
			ID:    sess.UserID,
			Name:  profileName(sess),
			Email: sess.Email,
			Role:  profileRole(sess),
		}
		if err := profiles.Upsert(ctx, provisioned); err != nil {
			return nil, err
		}
		return profiles.GetByID(ctx, sess.UserID)
	}
	return user, err
}

func profileName(sess *identity.Session) string {
	if sess.Metadata.Name != "" {
		return sess.Metadata.Name
	}
	// Fall back to the local part of the email.
	if at := strings.Index(sess.Email, "@"); at > 0 {
		return sess.Email[:at]
	}
	return sess.Email
}

func profileRole(sess *identity.Session) models.Role {
	role, err := models.ParseRole(sess.Metadata.Role)
	if err != nil {
		return models.RoleStudent
	}
	return role
}
