package bot

import (
	"fmt"

	"github.com/adilzhm/meetmate/models"
)

// emojiByType подбирает префикс для каждого типа уведомления.
var emojiByType = map[models.NotificationType]string{
	models.NotificationNewResponse:           "🙋",
	models.NotificationParticipationApproved: "✅",
	models.NotificationParticipationRejected: "❌",
	models.NotificationParticipationExcluded: "🚫",
	models.NotificationRequestCancelled:      "🗑",
	models.NotificationRequestRescheduled:    "📅",
	models.NotificationNewMessage:            "💬",
	models.NotificationNewReview:             "⭐",
	models.NotificationComplaintResolved:     "🛡",
	models.NotificationActivityReminder:      "⏰",
}

// Notifier дублирует уведомления сайта в Telegram.
// Реализует services.TelegramSender.
type Notifier struct {
	client *Client
}

func NewNotifier(client *Client) *Notifier {
	return &Notifier{client: client}
}

func (n *Notifier) SendNotification(chatID int64, notification *models.Notification) error {
	emoji, ok := emojiByType[notification.Type]
	if !ok {
		emoji = "🔔"
	}
	text := fmt.Sprintf("%s <b>%s</b>\n%s", emoji, notification.Title, notification.Message)
	return n.client.SendMessage(chatID, text)
}
