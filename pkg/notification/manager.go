package notification

import (
	"fmt"
)

// NotificationManager manages notifiers and notification templates.
type NotificationManager struct {
	notifiers            map[NotificationSystem]Notifier
	notificationRegistry map[NotificationType]map[NotificationSystem]NoticeTemplate
}

// NewNotificationManager creates and returns a new NotificationManager.
func NewNotificationManager() *NotificationManager {
	return &NotificationManager{
		notifiers:            make(map[NotificationSystem]Notifier),
		notificationRegistry: make(map[NotificationType]map[NotificationSystem]NoticeTemplate),
	}
}

// RegisterNotifier registers a notifier for a specific system.
func (nm *NotificationManager) RegisterNotifier(system NotificationSystem, notifier Notifier) {
	nm.notifiers[system] = notifier
}

// RegisterNotification adds a notification template to the registry.
func (nm *NotificationManager) RegisterNotification(notifType NotificationType, system NotificationSystem, template NoticeTemplate) error {
	if notifType == "" || system == "" {
		return fmt.Errorf("invalid input: notification type and system cannot be empty")
	}

	if _, exists := nm.notificationRegistry[notifType]; !exists {
		nm.notificationRegistry[notifType] = make(map[NotificationSystem]NoticeTemplate)
	}

	nm.notificationRegistry[notifType][system] = template
	return nil
}

// Send sends a notification of the given type through the given system.
func (nm *NotificationManager) Send(notifType NotificationType, system NotificationSystem, notification NotificationData) error {
	systemTemplates, exists := nm.notificationRegistry[notifType]
	if !exists {
		return fmt.Errorf("no templates registered for notification type: %s", notifType)
	}

	template, exists := systemTemplates[system]
	if !exists {
		return fmt.Errorf("no template registered for system: %s under notification type: %s", system, notifType)
	}

	notifier, exists := nm.notifiers[system]
	if !exists {
		return fmt.Errorf("no notifier registered for system: %s", system)
	}

	return notifier.Send(notifType, notification, template)
}
