package app

import (
	"sync"
	"time"

	"github.com/yourusername/quickdl-go/internal/domain"
	"go.uber.org/zap"
)

// DefaultAutoDismiss matches the transient display time of the web client
const DefaultAutoDismiss = 6 * time.Second

// NotificationChannel surfaces workflow outcomes to the user. Only one
// notification is visible at a time: a new one replaces the current one.
type NotificationChannel struct {
	autoDismiss time.Duration
	sinks       []domain.NotificationSink

	mu      sync.Mutex
	current *domain.Notification
	seq     uint64
	timer   *time.Timer
}

// NewNotificationChannel creates a channel hiding notifications after
// autoDismiss; zero or negative means DefaultAutoDismiss.
func NewNotificationChannel(autoDismiss time.Duration, sinks ...domain.NotificationSink) *NotificationChannel {
	if autoDismiss <= 0 {
		autoDismiss = DefaultAutoDismiss
	}
	return &NotificationChannel{
		autoDismiss: autoDismiss,
		sinks:       sinks,
	}
}

// Notify displays a message, replacing whatever is currently shown
func (c *NotificationChannel) Notify(severity domain.Severity, message string) domain.Notification {
	c.mu.Lock()
	c.seq++
	n := domain.Notification{
		Severity: severity,
		Message:  message,
		ShownAt:  time.Now(),
		Seq:      c.seq,
	}
	c.current = &n
	if c.timer != nil {
		c.timer.Stop()
	}
	seq := n.Seq
	c.timer = time.AfterFunc(c.autoDismiss, func() { c.expire(seq) })
	c.mu.Unlock()

	for _, sink := range c.sinks {
		sink.Deliver(n)
	}
	return n
}

// Success shows a success notification
func (c *NotificationChannel) Success(message string) domain.Notification {
	return c.Notify(domain.SeveritySuccess, message)
}

// Error shows an error notification
func (c *NotificationChannel) Error(message string) domain.Notification {
	return c.Notify(domain.SeverityError, message)
}

// Current returns the visible notification, if any
func (c *NotificationChannel) Current() (domain.Notification, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return domain.Notification{}, false
	}
	return *c.current, true
}

// Dismiss hides the visible notification early
func (c *NotificationChannel) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// expire hides notification seq unless a newer one replaced it
func (c *NotificationChannel) expire(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && c.current.Seq == seq {
		c.current = nil
		c.timer = nil
	}
}

// LogSink mirrors notifications into the structured log
type LogSink struct {
	Logger   *zap.Logger
	Platform domain.Platform
}

// Deliver implements domain.NotificationSink
func (s LogSink) Deliver(n domain.Notification) {
	if s.Logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("platform", string(s.Platform)),
		zap.String("severity", string(n.Severity)),
		zap.String("message", n.Message),
	}
	if n.Severity == domain.SeverityError {
		s.Logger.Warn("Notification shown", fields...)
		return
	}
	s.Logger.Debug("Notification shown", fields...)
}
