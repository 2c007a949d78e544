package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/Nuhyi/internal/bot/handlers"
	"github.com/rs/zerolog/log"
)

var commands = []tgbotapi.BotCommand{
	{Command: "times", Description: "مواقيت الصلاة اليوم"},
	{Command: "next", Description: "الصلاة القادمة"},
	{Command: "settings", Description: "الإعدادات"},
	{Command: "city", Description: "تغيير المدينة"},
	{Command: "lead", Description: "التنبيه قبل الصلاة"},
	{Command: "remind", Description: "إضافة تذكير يومي"},
	{Command: "reminders", Description: "قائمة التذكيرات"},
	{Command: "delreminder", Description: "حذف تذكير"},
	{Command: "verse", Description: "آية عشوائية"},
	{Command: "adhkar", Description: "الأذكار"},
	{Command: "help", Description: "المساعدة"},
}

type Bot struct {
	api      *tgbotapi.BotAPI
	handlers *handlers.Handlers
}

func New(api *tgbotapi.BotAPI, h *handlers.Handlers) *Bot {
	return &Bot{api: api, handlers: h}
}

// NewAPI authorizes the bot token against Telegram.
func NewAPI(token string, debug bool) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	api.Debug = debug
	return api, nil
}

// Start polls for updates until ctx is done. Each update is handled on its
// own goroutine.
func (b *Bot) Start(ctx context.Context) error {
	log.Info().Str("account", b.api.Self.UserName).Msg("Authorized on account")

	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(commands...)); err != nil {
		log.Warn().Err(err).Msg("Failed to register bot commands")
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Int("update", update.UpdateID).Msg("Update handler panicked")
		}
	}()

	if update.CallbackQuery != nil {
		b.handlers.HandleCallbackQuery(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}

	if update.Message.IsCommand() {
		b.handlers.HandleCommand(ctx, update.Message)
		return
	}

	b.handlers.HandleMessage(ctx, update.Message)
}
