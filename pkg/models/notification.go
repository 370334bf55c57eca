package models

// NotificationType classifies notifications for the receiving channel.
type NotificationType string

const (
	NotificationInfo     NotificationType = "info"
	NotificationSuccess  NotificationType = "success"
	NotificationWarning  NotificationType = "warning"
	NotificationError    NotificationType = "error"
	NotificationApproval NotificationType = "approval"
)

// Notification is the payload handed to the notification dispatcher.
type Notification struct {
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	Type       NotificationType `json:"type"`
	Recipients []string         `json:"recipients,omitempty"`
	Priority   string           `json:"priority,omitempty"`
	Data       map[string]any   `json:"data,omitempty"`
}
