package domain

import "time"

type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyInfo    NotificationKind = "info"
	NotifyWarning NotificationKind = "warning"
	NotifyError   NotificationKind = "error"
)

// CategoryJob tags notifications produced by job completion.
const CategoryJob = "job"

// Notification is a transient user-facing message. Non-persistent
// notifications expire Duration after being added; persistent ones stay
// until explicitly dismissed. The ID is assigned by the notification
// center and never reused.
type Notification struct {
	ID         string           `json:"id"`
	Kind       NotificationKind `json:"kind"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	Duration   time.Duration    `json:"duration"`
	Persistent bool             `json:"persistent"`
	Category   string           `json:"category,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}
