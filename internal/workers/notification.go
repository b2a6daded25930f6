package workers

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/admitd-dev/admitd/internal/models"
	"github.com/admitd-dev/admitd/internal/tasks"
)

// HandleNotificationDeliver writes a notification row for the target user.
// Email/SMS channels would hang off this handler; the inbox row is the only
// delivery channel today.
func HandleNotificationDeliver(ctx context.Context, t *asynq.Task, db *gorm.DB, logger zerolog.Logger) error {
	payload, err := tasks.ParseNotificationPayload(t)
	if err != nil {
		return err
	}

	// The target user may have been deleted between enqueue and delivery.
	var user models.User
	if err := models.FindByID(db.WithContext(ctx), payload.UserID, &user); err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Warn().Str("user_id", payload.UserID).Msg("Dropping notification for missing user")
			return nil
		}
		return err
	}

	notification := &models.Notification{
		UserID:  payload.UserID,
		Title:   payload.Title,
		Message: payload.Message,
	}
	if err := db.WithContext(ctx).Create(notification).Error; err != nil {
		return err
	}

	logger.Info().
		Str("user_id", payload.UserID).
		Str("notification_id", notification.ID).
		Str("title", payload.Title).
		Msg("Notification delivered")

	return nil
}
