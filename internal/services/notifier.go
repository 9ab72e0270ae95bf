package services

import "log"

// NoticeLevel classifies user-visible notices.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeWarning NoticeLevel = "warning"
	NoticeError   NoticeLevel = "error"
)

// Notifier is the toast sink services report human-readable outcomes to.
type Notifier interface {
	Notify(level NoticeLevel, message string)
}

// LogNotifier writes notices to the standard logger.
type LogNotifier struct{}

// Notify logs the notice.
func (LogNotifier) Notify(level NoticeLevel, message string) {
	log.Printf("[notice:%s] %s", level, message)
}
