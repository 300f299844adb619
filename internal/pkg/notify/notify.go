package notify

import (
	"github.com/gofiber/fiber/v2/log"

	"github.com/FlorianWeber/FitFox/app/models"
	"github.com/FlorianWeber/FitFox/app/repository"
)

// Notifier surfaces events to users. It is fire-and-forget: callers never
// wait for delivery and failures are only logged.
type Notifier struct {
	repo repository.NotificationRepository
}

// New creates a notifier over the notification repository.
func New(repo repository.NotificationRepository) *Notifier {
	return &Notifier{repo: repo}
}

// Notify records a notification for the user. Errors are swallowed; a lost
// notification must never fail the operation that produced it.
func (n *Notifier) Notify(userID uint, notificationType, content string) {
	notification := &models.Notification{
		UserID:  userID,
		Type:    notificationType,
		Content: content,
	}
	if err := n.repo.Create(notification); err != nil {
		log.Warnf("[Notify] dropping %s notification for user %d: %v", notificationType, userID, err)
	}
}
