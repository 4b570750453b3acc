package usecase

import (
	"errors"

	"github.com/secmon-lab/contactbook/pkg/domain/types"
)

// Sentinel errors for use case layer
var (
	// Not found errors
	ErrKnowledgeNotFound    = errors.New("knowledge entry not found")
	ErrReminderNotFound     = errors.New("reminder not found")
	ErrNotificationNotFound = errors.New("notification not found")

	// Input errors
	ErrInvalidInput  = errors.New("invalid input")
	ErrQueryTooShort = errors.New("search query is too short")

	// Status errors
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrScanInProgress    = errors.New("reminder scan is already running")

	// Upstream errors. The wrapped cause is for logs only.
	ErrGenerationFailed = errors.New("answer generation failed")

	// Access control errors
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrAccessDenied    = errors.New("access denied")
)

// Context keys for error values
const (
	QuestionKey       = "question"
	PlatformKey       = "platform"
	LocaleKey         = "locale"
	NotificationIDKey = "notification_id"
)

// GenerationFailedMessage is the only text a user sees when ErrGenerationFailed occurs
func GenerationFailedMessage(locale types.Locale) string {
	if locale == types.LocaleEN {
		return "Sorry, we could not answer your question right now. Please try again later."
	}
	return "Xin lỗi, hiện chưa thể trả lời câu hỏi của bạn. Vui lòng thử lại sau."
}
