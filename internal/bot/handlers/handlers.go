package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/Nuhyi/internal/ai"
	"github.com/hray3182/Nuhyi/internal/format"
	"github.com/hray3182/Nuhyi/internal/geocode"
	"github.com/hray3182/Nuhyi/internal/models"
	"github.com/hray3182/Nuhyi/internal/quran"
	"github.com/rs/zerolog/log"
)

// API is the part of tgbotapi.BotAPI the handlers talk to.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Scheduler is the prayer service as seen by the bot.
type Scheduler interface {
	Bootstrap(ctx context.Context, userID int64) error
	TodayTimetable(ctx context.Context, userID int64, now time.Time) (*models.Timetable, error)
	NextPrayer(ctx context.Context, userID int64, now time.Time) (models.Prayer, time.Time, error)
	Settings(ctx context.Context, userID int64) (*models.Settings, error)
	ApplySettings(ctx context.Context, userID int64, old, next *models.Settings) error
	AddReminder(ctx context.Context, userID int64, text string, clock models.ClockTime) (*models.Reminder, error)
	ListReminders(ctx context.Context, userID int64) ([]*models.Reminder, error)
	RemoveReminder(ctx context.Context, userID int64, reminderID int) error
	Snooze(ctx context.Context, userID int64, p models.Prayer) (int, error)
}

type Users interface {
	GetOrCreate(ctx context.Context, userID int64, userName string) (*models.User, error)
}

type VerseSource interface {
	RandomVerse(ctx context.Context) (*quran.Verse, error)
}

type Geocoder interface {
	ReverseGeocode(ctx context.Context, latitude, longitude float64) (*geocode.Place, error)
}

type IntentParser interface {
	ParseIntent(ctx context.Context, userMessage string, now time.Time) (*ai.Intent, error)
}

// Deps wires the handlers. Verses, Geocoder and AI are optional.
type Deps struct {
	API       API
	Scheduler Scheduler
	Users     Users
	Verses    VerseSource
	Geocoder  Geocoder
	AI        IntentParser
	Clock     func() time.Time
}

type Handlers struct {
	api      API
	sched    Scheduler
	users    Users
	verses   VerseSource
	geocoder Geocoder
	ai       IntentParser
	clock    func() time.Time
}

func New(d Deps) *Handlers {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return &Handlers{
		api:      d.API,
		sched:    d.Scheduler,
		users:    d.Users,
		verses:   d.Verses,
		geocoder: d.Geocoder,
		ai:       d.AI,
		clock:    d.Clock,
	}
}

func (h *Handlers) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	if !h.ensureUser(ctx, msg.From) {
		return
	}

	switch msg.Command() {
	case "start":
		h.handleStart(ctx, msg)
	case "help":
		h.handleHelp(msg)
	case "times":
		h.sendMessage(msg.Chat.ID, h.timesText(ctx, msg.From.ID))
	case "next":
		h.sendMessage(msg.Chat.ID, h.nextText(ctx, msg.From.ID))
	case "verse":
		h.sendMessage(msg.Chat.ID, h.verseText(ctx))
	case "adhkar":
		h.handleAdhkar(msg)
	case "remind":
		h.handleReminder(ctx, msg)
	case "reminders":
		h.sendMessage(msg.Chat.ID, h.remindersText(ctx, msg.From.ID))
	case "delreminder":
		h.handleDeleteReminder(ctx, msg)
	case "settings":
		h.handleSettings(ctx, msg)
	case "city":
		h.handleCity(ctx, msg)
	case "lead":
		h.handleLead(ctx, msg)
	default:
		h.sendMessage(msg.Chat.ID, "أمر غير معروف، أرسل /help لعرض الأوامر")
	}
}

// HandleMessage handles non-command messages: shared locations update the
// user's city and free text goes to the intent parser.
func (h *Handlers) HandleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !h.ensureUser(ctx, msg.From) {
		return
	}

	if msg.Location != nil {
		h.handleLocation(ctx, msg)
		return
	}
	if strings.TrimSpace(msg.Text) == "" {
		return
	}
	h.handleAIMessage(ctx, msg)
}

func (h *Handlers) HandleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		h.answerCallback(callback.ID, "")
		return
	}

	parts := strings.Split(callback.Data, ":")
	switch parts[0] {
	case "settings":
		h.answerCallback(callback.ID, "")
		h.handleSettingsCallback(ctx, callback, parts[1:])
	case "adhkar":
		h.answerCallback(callback.ID, "")
		h.handleAdhkarCallback(callback, parts[1:])
	case "ack":
		h.handleAckCallback(callback)
	case "snooze":
		h.handleSnoozeCallback(ctx, callback, parts[1:])
	default:
		h.answerCallback(callback.ID, "")
		log.Debug().Str("data", callback.Data).Msg("Unknown callback")
	}
}

func (h *Handlers) ensureUser(ctx context.Context, from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	if _, err := h.users.GetOrCreate(ctx, from.ID, from.UserName); err != nil {
		log.Error().Err(err).Int64("user", from.ID).Msg("Failed to get/create user")
		return false
	}
	return true
}

// now returns the current time in the user's timezone.
func (h *Handlers) now(ctx context.Context, userID int64) time.Time {
	now := h.clock()
	settings, err := h.sched.Settings(ctx, userID)
	if err != nil {
		return now
	}
	return now.In(settings.Location())
}

func (h *Handlers) sendMessage(chatID int64, text string) {
	parsed := format.ParseMarkdown(text)
	msg := tgbotapi.NewMessage(chatID, parsed.Text)
	msg.Entities = parsed.Entities
	if _, err := h.api.Send(msg); err != nil {
		log.Error().Err(err).Int64("chat", chatID).Msg("Failed to send message")
	}
}

func (h *Handlers) sendWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	parsed := format.ParseMarkdown(text)
	msg := tgbotapi.NewMessage(chatID, parsed.Text)
	msg.Entities = parsed.Entities
	msg.ReplyMarkup = keyboard
	if _, err := h.api.Send(msg); err != nil {
		log.Error().Err(err).Int64("chat", chatID).Msg("Failed to send message with keyboard")
	}
}

func (h *Handlers) editMessageWithKeyboard(chatID int64, messageID int, text string, keyboard tgbotapi.InlineKeyboardMarkup) {
	parsed := format.ParseMarkdown(text)
	edit := tgbotapi.NewEditMessageText(chatID, messageID, parsed.Text)
	edit.Entities = parsed.Entities
	edit.ReplyMarkup = &keyboard
	if _, err := h.api.Send(edit); err != nil {
		log.Error().Err(err).Int64("chat", chatID).Msg("Failed to edit message with keyboard")
	}
}

// removeKeyboard strips the inline buttons from a delivered notification.
func (h *Handlers) removeKeyboard(chatID int64, messageID int) {
	empty := tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}}
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, empty)
	if _, err := h.api.Request(edit); err != nil {
		log.Warn().Err(err).Int64("chat", chatID).Msg("Failed to remove keyboard")
	}
}

func (h *Handlers) deleteMessage(chatID int64, messageID int) {
	if _, err := h.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		log.Warn().Err(err).Int64("chat", chatID).Msg("Failed to delete message")
	}
}

func (h *Handlers) answerCallback(callbackID, text string) {
	if _, err := h.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		log.Warn().Err(err).Msg("Failed to answer callback")
	}
}

func (h *Handlers) handleStart(ctx context.Context, msg *tgbotapi.Message) {
	if err := h.sched.Bootstrap(ctx, msg.From.ID); err != nil {
		log.Warn().Err(err).Int64("user", msg.From.ID).Msg("Bootstrap incomplete")
	}

	text := fmt.Sprintf(`السلام عليكم %s 👋

أنا **Nuhyi**، أذكّرك بمواقيت الصلاة وأرسل لك آيات وأذكارًا.

📍 أرسل موقعك أو استخدم /city لتحديد مدينتك
⚙️ استخدم /settings لضبط التنبيهات

أرسل /help لعرض جميع الأوامر`, msg.From.FirstName)
	h.sendMessage(msg.Chat.ID, text)
}

func (h *Handlers) handleHelp(msg *tgbotapi.Message) {
	text := `📖 **الأوامر**

**الصلاة**
/times - مواقيت اليوم
/next - الصلاة القادمة
/city <المدينة>, <الدولة> - تغيير الموقع
/lead <دقائق> - التنبيه قبل الصلاة (0 للإيقاف)
/settings - الإعدادات

**التذكيرات**
/remind <HH:MM> <النص> - تذكير يومي
/reminders - قائمة التذكيرات
/delreminder <رقم> - حذف تذكير

**أخرى**
/verse - آية عشوائية
/adhkar [morning|evening|sleep] - الأذكار

💡 يمكنك أيضًا الكتابة بلغة طبيعية`
	h.sendMessage(msg.Chat.ID, text)
}
