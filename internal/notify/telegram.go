// Package notify sends staff-chat notifications over Telegram. Delivery is
// best-effort; failures are logged and dropped.
package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"loungepos/internal/models"
)

// Sender is the minimal Telegram surface the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts session-close summaries to a staff chat.
type TelegramNotifier struct {
	sender Sender
	chatID int64
	logger *zerolog.Logger
}

// New builds a notifier from a bot token.
func New(token string, chatID int64, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return NewWithSender(bot, chatID, logger), nil
}

// NewWithSender builds a notifier around an existing sender.
func NewWithSender(sender Sender, chatID int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{sender: sender, chatID: chatID, logger: logger}
}

// SessionClosed announces a closed session and the amount due.
func (n *TelegramNotifier) SessionClosed(item *models.LineItem, warnings []string) {
	text := fmt.Sprintf("💰 %s\n%d units x %d = %d", item.Label, item.Units, item.UnitRate, item.Amount)
	for _, w := range warnings {
		text += fmt.Sprintf("\n⚠️ %s", w)
	}

	msg := tgbotapi.NewMessage(n.chatID, text)
	if _, err := n.sender.Send(msg); err != nil {
		n.logger.Warn().Err(err).Str("session_id", item.SessionID).Msg("failed to notify staff chat")
	}
}
