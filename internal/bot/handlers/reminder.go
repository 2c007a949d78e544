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

var errRemindUsage = errors.New("usage: /remind HH:MM text")

func (h *Handlers) handleReminder(ctx context.Context, msg *tgbotapi.Message) {
	clock, text, err := parseRemindArgs(msg.CommandArguments())
	if err != nil {
		h.sendMessage(msg.Chat.ID, "الاستخدام: /remind <HH:MM> <النص>\nمثال: /remind 21:30 قراءة سورة الملك")
		return
	}
	h.sendMessage(msg.Chat.ID, h.addReminder(ctx, msg.From.ID, clock, text))
}

// parseRemindArgs splits "HH:MM text" into its clock time and text.
func parseRemindArgs(args string) (models.ClockTime, string, error) {
	timeStr, text, ok := strings.Cut(strings.TrimSpace(args), " ")
	text = strings.TrimSpace(text)
	if !ok || text == "" {
		return models.ClockTime{}, "", errRemindUsage
	}
	clock, err := models.ParseClockTime(timeStr)
	if err != nil {
		return models.ClockTime{}, "", err
	}
	return clock, text, nil
}

func (h *Handlers) addReminder(ctx context.Context, userID int64, clock models.ClockTime, text string) string {
	r, err := h.sched.AddReminder(ctx, userID, text, clock)
	if errors.Is(err, prayer.ErrEmptyReminder) {
		return "نص التذكير فارغ"
	}
	if err != nil {
		log.Error().Err(err).Int64("user", userID).Msg("Failed to add reminder")
		return "تعذر إضافة التذكير، حاول لاحقًا"
	}
	return fmt.Sprintf("⏰ تم إضافة التذكير **#%d**\nيوميًا الساعة `%s`\n%s", r.ReminderID, r.Time, r.Text)
}

func (h *Handlers) remindersText(ctx context.Context, userID int64) string {
	reminders, err := h.sched.ListReminders(ctx, userID)
	if err != nil {
		log.Error().Err(err).Int64("user", userID).Msg("Failed to list reminders")
		return "تعذر جلب التذكيرات، حاول لاحقًا"
	}
	if len(reminders) == 0 {
		return "⏰ لا توجد تذكيرات\nأضف تذكيرًا بالأمر /remind"
	}

	var sb strings.Builder
	sb.WriteString("⏰ **التذكيرات**\n")
	for _, r := range reminders {
		fmt.Fprintf(&sb, "\n**#%d** `%s` %s", r.ReminderID, r.Time, r.Text)
	}
	return sb.String()
}

func (h *Handlers) handleDeleteReminder(ctx context.Context, msg *tgbotapi.Message) {
	id, err := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(msg.CommandArguments()), "#"))
	if err != nil || id <= 0 {
		h.sendMessage(msg.Chat.ID, "الاستخدام: /delreminder <رقم>")
		return
	}
	h.sendMessage(msg.Chat.ID, h.removeReminder(ctx, msg.From.ID, id))
}

func (h *Handlers) removeReminder(ctx context.Context, userID int64, reminderID int) string {
	err := h.sched.RemoveReminder(ctx, userID, reminderID)
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Sprintf("لم يتم العثور على التذكير #%d", reminderID)
	}
	if err != nil {
		log.Error().Err(err).Int64("user", userID).Int("reminder", reminderID).Msg("Failed to remove reminder")
		return "تعذر حذف التذكير، حاول لاحقًا"
	}
	return fmt.Sprintf("🗑 تم حذف التذكير #%d", reminderID)
}
