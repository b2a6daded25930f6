// Package notify carries transient user-facing notifications, the server-side
// analog of a toast. Only the most recent notification is retained.
package notify

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Level is the notification severity
type Level string

const (
	Success Level = "success"
	Info    Level = "info"
	Error   Level = "error"
)

// Notification is a single transient message
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Notifier receives transient notifications from the session store and handlers
type Notifier interface {
	Notify(level Level, format string, args ...interface{})
}

// LogNotifier writes notifications to the application log
type LogNotifier struct {
	Logger zerolog.Logger
}

func (n LogNotifier) Notify(level Level, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	switch level {
	case Error:
		n.Logger.Warn().Str("toast", string(level)).Msg(msg)
	default:
		n.Logger.Info().Str("toast", string(level)).Msg(msg)
	}
}

// Capture retains the most recent notification. Safe for concurrent use.
type Capture struct {
	mu   sync.Mutex
	last *Notification
}

func (c *Capture) Notify(level Level, format string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = &Notification{Level: level, Message: fmt.Sprintf(format, args...)}
}

// Last returns the most recent notification, or nil if none was sent.
func (c *Capture) Last() *Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}
