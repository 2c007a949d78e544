package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/Nuhyi/internal/format"
	"github.com/hray3182/Nuhyi/internal/models"
)

// Callback data prefixes of the buttons attached to urgent notifications.
const (
	CallbackAck    = "ack"
	CallbackSnooze = "snooze"
)

// Sender is the part of tgbotapi.BotAPI used to deliver messages.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends notifications as chat messages. Users talk to the bot in a
// private chat, so the chat id equals the user id.
type Telegram struct {
	api Sender
}

func NewTelegram(api Sender) *Telegram {
	return &Telegram{api: api}
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Notify(_ context.Context, userID int64, n models.Notification) error {
	if _, err := t.api.Send(BuildMessage(userID, n)); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// BuildMessage renders n with a bold title. Urgent notifications carry an
// acknowledge button, and prayer notifications a snooze button as well.
func BuildMessage(chatID int64, n models.Notification) tgbotapi.MessageConfig {
	text := n.Title
	if n.Body != "" {
		text += "\n\n" + n.Body
	}

	msg := tgbotapi.NewMessage(chatID, text)
	if n.Title != "" {
		msg.Entities = []tgbotapi.MessageEntity{{Type: "bold", Offset: 0, Length: format.UTF16Len(n.Title)}}
	}
	msg.DisableNotification = n.Silent

	if n.Urgent {
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData("✅ تم", CallbackAck),
		}
		if n.Prayer != "" {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("⏰ غفوة", CallbackSnooze+":"+n.Prayer.Key()))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(row)
	}
	return msg
}
