package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/Nuhyi/internal/models"
	"github.com/hray3182/Nuhyi/internal/prayer"
	"github.com/rs/zerolog/log"
)

var (
	leadChoices  = []int{0, 5, 10, 15, 20, 30}
	nudgeChoices = []int{1, 2, 3, 4, 6, 8}
)

var audioTitles = map[string]string{
	"makkah":  "مكة المكرمة",
	"madinah": "المدينة المنورة",
	"alaqsa":  "المسجد الأقصى",
}

// handleSettings shows the settings menu
func (h *Handlers) handleSettings(ctx context.Context, msg *tgbotapi.Message) {
	settings, err := h.sched.Settings(ctx, msg.From.ID)
	if err != nil {
		log.Error().Err(err).Int64("user", msg.From.ID).Msg("Failed to get user settings")
		h.sendMessage(msg.Chat.ID, "تعذر جلب الإعدادات، حاول لاحقًا")
		return
	}
	h.sendWithKeyboard(msg.Chat.ID, buildSettingsMainText(settings), buildSettingsMainKeyboard(settings))
}

// handleSettingsCallback handles settings:* callbacks. Pickers only redraw
// the message; every other action updates the settings and returns to the
// main menu.
func (h *Handlers) handleSettingsCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, parts []string) {
	userID := callback.From.ID
	chatID := callback.Message.Chat.ID
	messageID := callback.Message.MessageID

	if len(parts) == 0 {
		parts = []string{"main"}
	}

	switch {
	case parts[0] == "close":
		h.deleteMessage(chatID, messageID)
		return
	case parts[0] == "lead" && len(parts) == 1:
		h.editMessageWithKeyboard(chatID, messageID, "🔔 **التنبيه قبل الصلاة**\n\nكم دقيقة قبل الأذان؟", leadPickerKeyboard())
		return
	case parts[0] == "nudge" && len(parts) == 1:
		h.editMessageWithKeyboard(chatID, messageID, "📿 **الصلاة على النبي ﷺ**\n\nكل كم ساعة؟", nudgePickerKeyboard())
		return
	case parts[0] == "audio" && len(parts) == 1:
		h.editMessageWithKeyboard(chatID, messageID, "🎙 **صوت الأذان**\n\nاختر التسجيل:", audioPickerKeyboard())
		return
	case parts[0] == "main":
	default:
		err := h.updateSettings(ctx, userID, func(s *models.Settings) bool {
			return applySettingsChange(s, parts)
		})
		if errors.Is(err, prayer.ErrSettingsNotSaved) {
			h.answerCallback(callback.ID, "تعذر حفظ الإعدادات")
			return
		}
	}

	h.showSettingsMain(ctx, chatID, messageID, userID)
}

// applySettingsChange applies one settings:* action to s and reports
// whether the action was recognised.
func applySettingsChange(s *models.Settings, parts []string) bool {
	if len(parts) < 2 {
		return false
	}
	action, value := parts[0], parts[1]

	switch action {
	case "pre":
		if value != "toggle" {
			return false
		}
		s.PrePrayerEnabled = !s.PrePrayerEnabled
		if s.PrePrayerEnabled && s.PrePrayerMinutes == 0 {
			s.PrePrayerMinutes = models.DefaultPrePrayerMinutes
		}
	case "lead":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return false
		}
		setLead(s, n)
	case "sound":
		if value != "toggle" {
			return false
		}
		s.AzanSound = !s.AzanSound
	case "audio":
		if _, ok := audioTitles[value]; !ok {
			return false
		}
		s.AzanAudio = value
	case "nudge":
		if value == "toggle" {
			s.SalahReminder = !s.SalahReminder
			return true
		}
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return false
		}
		s.SalahReminder = true
		s.SalahReminderHours = n
	default:
		return false
	}
	return true
}

// setLead sets the pre-alert lead time; zero turns pre-alerts off.
func setLead(s *models.Settings, minutes int) {
	s.PrePrayerMinutes = minutes
	s.PrePrayerEnabled = minutes > 0
}

// updateSettings applies mutate to a copy of the user's settings and hands
// both versions to the scheduler. Nothing is written when mutate returns
// false. Load failures are reported as prayer.ErrSettingsNotSaved.
func (h *Handlers) updateSettings(ctx context.Context, userID int64, mutate func(*models.Settings) bool) error {
	old, err := h.sched.Settings(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user", userID).Msg("Failed to get user settings")
		return fmt.Errorf("%w: %w", prayer.ErrSettingsNotSaved, err)
	}

	next := *old
	if !mutate(&next) {
		return nil
	}
	if err := h.sched.ApplySettings(ctx, userID, old, &next); err != nil {
		if errors.Is(err, prayer.ErrSettingsNotSaved) {
			log.Error().Err(err).Int64("user", userID).Msg("Failed to save settings")
		} else {
			log.Warn().Err(err).Int64("user", userID).Msg("Settings saved, rescheduling failed")
		}
		return err
	}
	return nil
}

// settingsReply turns the outcome of updateSettings into a chat reply.
func settingsReply(err error, success string) string {
	switch {
	case err == nil:
		return success
	case errors.Is(err, prayer.ErrSettingsNotSaved):
		return "تعذر حفظ الإعدادات، حاول لاحقًا"
	default:
		return success + "\n\n⚠️ تعذر تحديث مواقيت الصلاة الآن"
	}
}

func (h *Handlers) handleCity(ctx context.Context, msg *tgbotapi.Message) {
	city, country, ok := parseCityArgs(msg.CommandArguments())
	if !ok {
		h.sendMessage(msg.Chat.ID, "الاستخدام: /city <المدينة>, <الدولة>\nمثال: /city Cairo, Egypt\n\n📍 أو أرسل موقعك مباشرة")
		return
	}
	h.sendMessage(msg.Chat.ID, h.setCity(ctx, msg.From.ID, city, country))
}

// parseCityArgs splits "City, Country". The Arabic comma is accepted too.
func parseCityArgs(args string) (string, string, bool) {
	args = strings.ReplaceAll(args, "،", ",")
	city, country, ok := strings.Cut(args, ",")
	city, country = strings.TrimSpace(city), strings.TrimSpace(country)
	if !ok || city == "" || country == "" {
		return "", "", false
	}
	return city, country, true
}

func (h *Handlers) setCity(ctx context.Context, userID int64, city, country string) string {
	err := h.updateSettings(ctx, userID, func(s *models.Settings) bool {
		s.City = city
		s.Country = country
		return true
	})
	return settingsReply(err, fmt.Sprintf("📍 تم تحديث الموقع: **%s، %s**", city, country))
}

func (h *Handlers) handleLocation(ctx context.Context, msg *tgbotapi.Message) {
	if h.geocoder == nil {
		h.sendMessage(msg.Chat.ID, "تحديد الموقع غير متاح، استخدم /city")
		return
	}

	place, err := h.geocoder.ReverseGeocode(ctx, msg.Location.Latitude, msg.Location.Longitude)
	if err != nil {
		log.Warn().Err(err).Int64("user", msg.From.ID).Msg("Reverse geocoding failed")
		h.sendMessage(msg.Chat.ID, "تعذر تحديد مدينتك، استخدم /city")
		return
	}
	h.sendMessage(msg.Chat.ID, h.setCity(ctx, msg.From.ID, place.City, place.Country))
}

func (h *Handlers) handleLead(ctx context.Context, msg *tgbotapi.Message) {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		h.sendMessage(msg.Chat.ID, "الاستخدام: /lead <دقائق>\n0 لإيقاف التنبيه قبل الصلاة")
		return
	}
	h.sendMessage(msg.Chat.ID, h.setLeadMinutes(ctx, msg.From.ID, models.ParseLeadMinutes(arg)))
}

func (h *Handlers) setLeadMinutes(ctx context.Context, userID int64, minutes int) string {
	err := h.updateSettings(ctx, userID, func(s *models.Settings) bool {
		setLead(s, minutes)
		return true
	})
	if minutes == 0 {
		return settingsReply(err, "🔕 تم إيقاف التنبيه قبل الصلاة")
	}
	return settingsReply(err, fmt.Sprintf("🔔 سيصلك تنبيه قبل كل صلاة بـ %d دقيقة", minutes))
}

// --- Menus ---

func statusText(on bool) string {
	if on {
		return "✅ مفعّل"
	}
	return "❌ معطّل"
}

func buildSettingsMainText(s *models.Settings) string {
	audio := audioTitles[s.AzanAudio]
	if audio == "" {
		audio = s.AzanAudio
	}
	return fmt.Sprintf(`⚙️ **الإعدادات**

📍 الموقع: %s، %s
🔔 التنبيه قبل الصلاة: %s (%d دقيقة)
🔊 صوت الأذان: %s
🎙 الأذان: %s
📿 الصلاة على النبي ﷺ: %s (كل %d ساعة)`,
		s.City, s.Country,
		statusText(s.PrePrayerEnabled), s.PrePrayerMinutes,
		statusText(s.AzanSound),
		audio,
		statusText(s.SalahReminder), s.SalahReminderHours,
	)
}

func toggleLabel(on bool, name string) string {
	if on {
		return "❌ إيقاف " + name
	}
	return "✅ تفعيل " + name
}

func buildSettingsMainKeyboard(s *models.Settings) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(toggleLabel(s.PrePrayerEnabled, "التنبيه"), "settings:pre:toggle"),
			tgbotapi.NewInlineKeyboardButtonData("⏱ مدة التنبيه", "settings:lead"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(toggleLabel(s.AzanSound, "الصوت"), "settings:sound:toggle"),
			tgbotapi.NewInlineKeyboardButtonData("🎙 الأذان", "settings:audio"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(toggleLabel(s.SalahReminder, "الصلاة على النبي"), "settings:nudge:toggle"),
			tgbotapi.NewInlineKeyboardButtonData("⏱ التكرار", "settings:nudge"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ إغلاق", "settings:close"),
		),
	)
}

func (h *Handlers) showSettingsMain(ctx context.Context, chatID int64, messageID int, userID int64) {
	settings, err := h.sched.Settings(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user", userID).Msg("Failed to get user settings")
		return
	}
	h.editMessageWithKeyboard(chatID, messageID, buildSettingsMainText(settings), buildSettingsMainKeyboard(settings))
}

// choiceKeyboard lays out numeric choices three per row with a back button.
func choiceKeyboard(prefix string, choices []int, label func(int) string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(choices); i += 3 {
		end := min(i+3, len(choices))
		var row []tgbotapi.InlineKeyboardButton
		for _, n := range choices[i:end] {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(label(n), fmt.Sprintf("%s:%d", prefix, n)))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ رجوع", "settings:main"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func leadPickerKeyboard() tgbotapi.InlineKeyboardMarkup {
	return choiceKeyboard("settings:lead", leadChoices, func(n int) string {
		if n == 0 {
			return "إيقاف"
		}
		return fmt.Sprintf("%d د", n)
	})
}

func nudgePickerKeyboard() tgbotapi.InlineKeyboardMarkup {
	return choiceKeyboard("settings:nudge", nudgeChoices, func(n int) string {
		return fmt.Sprintf("%d س", n)
	})
}

func audioPickerKeyboard() tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, name := range models.AzanAudios {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(audioTitles[name], "settings:audio:"+name),
		))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ رجوع", "settings:main"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
