package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/Nuhyi/internal/adhkar"
	"github.com/hray3182/Nuhyi/internal/models"
	"github.com/rs/zerolog/log"
)

var categoryTitles = map[adhkar.Category]string{
	adhkar.Morning: "🌅 أذكار الصباح",
	adhkar.Evening: "🌇 أذكار المساء",
	adhkar.Sleep:   "🌙 أذكار النوم",
}

func (h *Handlers) timesText(ctx context.Context, userID int64) string {
	now := h.clock()
	tt, err := h.sched.TodayTimetable(ctx, userID, now)
	if err != nil {
		log.Error().Err(err).Int64("user", userID).Msg("Failed to get timetable")
		return "تعذر جلب مواقيت الصلاة، حاول لاحقًا"
	}
	return formatTimetable(tt, now)
}

// formatTimetable lists the day's prayers and marks the next one when it
// falls on the same day.
func formatTimetable(tt *models.Timetable, now time.Time) string {
	next, nextAt, ok := tt.NextPrayer(now)
	local := now.In(tt.Location())
	if ok && nextAt.Format(models.DateLayout) != local.Format(models.DateLayout) {
		next = ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🕌 **مواقيت الصلاة** - %s، %s\n📅 %s\n\n", tt.City, tt.Country, tt.Date)
	for _, p := range models.Prayers {
		ct, ok := tt.Times[p]
		if !ok {
			continue
		}
		marker := ""
		if p == next {
			marker = " ⬅️"
		}
		fmt.Fprintf(&sb, "%s  `%s`%s\n", p.ArabicName(), ct, marker)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (h *Handlers) nextText(ctx context.Context, userID int64) string {
	now := h.clock()
	p, at, err := h.sched.NextPrayer(ctx, userID, now)
	if err != nil {
		log.Error().Err(err).Int64("user", userID).Msg("Failed to get next prayer")
		return "تعذر جلب مواقيت الصلاة، حاول لاحقًا"
	}
	return fmt.Sprintf("⏳ الصلاة القادمة: **%s** الساعة `%s`\nبعد %s", p.ArabicName(), at.Format("15:04"), formatRemaining(at.Sub(now)))
}

// formatRemaining renders a countdown rounded up to the minute.
func formatRemaining(d time.Duration) string {
	total := int((d + time.Minute - 1) / time.Minute)
	if total < 1 {
		total = 1
	}
	hours, minutes := total/60, total%60
	switch {
	case hours == 0:
		return fmt.Sprintf("%d دقيقة", minutes)
	case minutes == 0:
		return fmt.Sprintf("%d ساعة", hours)
	default:
		return fmt.Sprintf("%d ساعة و %d دقيقة", hours, minutes)
	}
}

func (h *Handlers) verseText(ctx context.Context) string {
	if h.verses == nil {
		return "الآيات غير متاحة حاليًا"
	}
	v, err := h.verses.RandomVerse(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch verse")
		return "تعذر جلب آية، حاول لاحقًا"
	}

	surah := v.SurahArabic
	if surah == "" {
		surah = v.Surah
	}
	return fmt.Sprintf("📖 **%s** (%d)\n\n%s\n\n%s", surah, v.Ayah, v.Text, v.Translation)
}

func (h *Handlers) handleAdhkar(msg *tgbotapi.Message) {
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		h.sendWithKeyboard(msg.Chat.ID, "📿 **الأذكار**\n\nاختر القسم:", adhkarKeyboard())
		return
	}

	c, ok := adhkar.ParseCategory(arg)
	if !ok {
		h.sendMessage(msg.Chat.ID, "القسم غير معروف، استخدم: morning أو evening أو sleep")
		return
	}
	h.sendMessage(msg.Chat.ID, adhkarText(c))
}

func (h *Handlers) handleAdhkarCallback(callback *tgbotapi.CallbackQuery, parts []string) {
	if len(parts) == 0 {
		return
	}
	c, ok := adhkar.ParseCategory(parts[0])
	if !ok {
		return
	}
	h.editMessageWithKeyboard(callback.Message.Chat.ID, callback.Message.MessageID, adhkarText(c), adhkarKeyboard())
}

func adhkarKeyboard() tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(adhkar.Categories))
	for _, c := range adhkar.Categories {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(categoryTitles[c], "adhkar:"+string(c)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func adhkarText(c adhkar.Category) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**%s**\n", categoryTitles[c])
	for i, d := range adhkar.ForCategory(c) {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, d.Text)
		if d.Count > 1 {
			fmt.Fprintf(&sb, " (×%d)", d.Count)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (h *Handlers) handleAckCallback(callback *tgbotapi.CallbackQuery) {
	h.answerCallback(callback.ID, "✅")
	h.removeKeyboard(callback.Message.Chat.ID, callback.Message.MessageID)
}

func (h *Handlers) handleSnoozeCallback(ctx context.Context, callback *tgbotapi.CallbackQuery, parts []string) {
	if len(parts) == 0 {
		h.answerCallback(callback.ID, "")
		return
	}
	p, ok := models.ParsePrayer(parts[0])
	if !ok {
		h.answerCallback(callback.ID, "")
		return
	}

	mins, err := h.sched.Snooze(ctx, callback.From.ID, p)
	if err != nil {
		log.Error().Err(err).Int64("user", callback.From.ID).Str("prayer", string(p)).Msg("Failed to snooze")
		h.answerCallback(callback.ID, "تعذر تأجيل التنبيه")
		return
	}
	h.answerCallback(callback.ID, fmt.Sprintf("⏰ سأذكّرك بعد %d دقائق", mins))
	h.removeKeyboard(callback.Message.Chat.ID, callback.Message.MessageID)
}
