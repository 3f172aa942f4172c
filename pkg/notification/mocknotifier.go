package notification

// MockNotifier records notifications instead of delivering them. Test use only.
type MockNotifier struct {
	SentNotifications []NotificationData
}

func (m *MockNotifier) Send(noticeType NotificationType, notification NotificationData, template NoticeTemplate) error {
	m.SentNotifications = append(m.SentNotifications, notification)
	return nil
}
