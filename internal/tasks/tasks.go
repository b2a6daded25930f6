package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// Notification fan-out (enquiry responses, status changes)
	TypeNotificationDeliver = "notification:deliver"

	// Counselor follow-up reminders
	TypeFollowUpRemind = "followup:remind"
)

// NotificationPayload is the payload for notification delivery tasks
type NotificationPayload struct {
	UserID  string `json:"user_id"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// FollowUpPayload is the payload for follow-up reminder tasks
type FollowUpPayload struct {
	FollowUpID string `json:"follow_up_id"`
}

// NewNotificationDeliverTask creates a task to deliver a notification to a user
func NewNotificationDeliverTask(userID, title, message string) (*asynq.Task, error) {
	payload, err := json.Marshal(NotificationPayload{
		UserID:  userID,
		Title:   title,
		Message: message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeNotificationDeliver, payload), nil
}

// NewFollowUpRemindTask creates a task to remind a counselor of a due follow-up
func NewFollowUpRemindTask(followUpID string) (*asynq.Task, error) {
	payload, err := json.Marshal(FollowUpPayload{
		FollowUpID: followUpID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeFollowUpRemind, payload), nil
}

// ParseNotificationPayload parses a notification task payload
func ParseNotificationPayload(task *asynq.Task) (NotificationPayload, error) {
	var payload NotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}

// ParseFollowUpPayload parses a follow-up task payload
func ParseFollowUpPayload(task *asynq.Task) (FollowUpPayload, error) {
	var payload FollowUpPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}
