package domain

import "time"

// Severity of a user-facing notification
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Notification is a transient message shown to the user
type Notification struct {
	Severity Severity  `json:"severity"`
	Message  string    `json:"message"`
	ShownAt  time.Time `json:"shown_at"`
	Seq      uint64    `json:"seq"`
}

// NotificationSink receives every notification as it is shown
type NotificationSink interface {
	Deliver(n Notification)
}
