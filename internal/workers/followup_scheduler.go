package workers

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/admitd-dev/admitd/internal/models"
	"github.com/admitd-dev/admitd/internal/tasks"
)

// StartFollowUpScheduler scans for due follow-ups on the given cron schedule
// and enqueues a reminder task for each. Blocks until the process exits.
func StartFollowUpScheduler(client *asynq.Client, db *gorm.DB, schedule string, logger zerolog.Logger) {
	spec, err := cron.ParseStandard(schedule)
	if err != nil {
		logger.Error().Err(err).Str("schedule", schedule).Msg("Invalid follow-up schedule, scheduler disabled")
		return
	}

	// Run immediately on startup, then on the schedule
	enqueueDueFollowUps(client, db, logger)

	for {
		next := spec.Next(time.Now())
		time.Sleep(time.Until(next))
		enqueueDueFollowUps(client, db, logger)
	}
}

func enqueueDueFollowUps(client *asynq.Client, db *gorm.DB, logger zerolog.Logger) {
	var due []models.FollowUp
	err := db.Where("done = ? AND reminded_at IS NULL AND due_at <= ?", false, time.Now()).
		Find(&due).Error
	if err != nil {
		logger.Error().Err(err).Msg("Failed to query due follow-ups")
		return
	}

	for _, followUp := range due {
		task, err := tasks.NewFollowUpRemindTask(followUp.ID)
		if err != nil {
			logger.Error().Err(err).Str("follow_up_id", followUp.ID).Msg("Failed to build reminder task")
			continue
		}
		if _, err := client.Enqueue(task, asynq.Queue("default")); err != nil {
			logger.Error().Err(err).Str("follow_up_id", followUp.ID).Msg("Failed to enqueue reminder task")
			continue
		}
		logger.Info().
			Str("follow_up_id", followUp.ID).
			Time("due_at", followUp.DueAt).
			Msg("Enqueued follow-up reminder")
	}
}

// HandleFollowUpRemind delivers the reminder to the counselor's inbox and
// marks the follow-up as reminded so it is not picked up again.
func HandleFollowUpRemind(ctx context.Context, t *asynq.Task, client *asynq.Client, db *gorm.DB, logger zerolog.Logger) error {
	payload, err := tasks.ParseFollowUpPayload(t)
	if err != nil {
		return err
	}

	var followUp models.FollowUp
	if err := models.FindByID(db.WithContext(ctx), payload.FollowUpID, &followUp); err != nil {
		if err == gorm.ErrRecordNotFound {
			logger.Warn().Str("follow_up_id", payload.FollowUpID).Msg("Follow-up deleted before reminder")
			return nil
		}
		return err
	}

	if followUp.Done || followUp.RemindedAt != nil {
		return nil
	}

	notificationTask, err := tasks.NewNotificationDeliverTask(
		followUp.CounselorID,
		"Follow-up due",
		followUp.Note,
	)
	if err != nil {
		return err
	}
	if _, err := client.Enqueue(notificationTask, asynq.Queue("default")); err != nil {
		return err
	}

	now := time.Now()
	return db.WithContext(ctx).Model(&followUp).Update("reminded_at", &now).Error
}
