package handlers

import (
	"context"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/Nuhyi/internal/ai"
	"github.com/hray3182/Nuhyi/internal/models"
	"github.com/rs/zerolog/log"
)

const minConfidence = 0.5

func (h *Handlers) handleAIMessage(ctx context.Context, msg *tgbotapi.Message) {
	if h.ai == nil {
		h.sendMessage(msg.Chat.ID, "أرسل /help لعرض الأوامر المتاحة")
		return
	}

	intent, err := h.ai.ParseIntent(ctx, msg.Text, h.now(ctx, msg.From.ID))
	if err != nil {
		log.Error().Err(err).Int64("user", msg.From.ID).Msg("Failed to parse intent")
		h.sendMessage(msg.Chat.ID, "عذرًا، لم أفهم رسالتك. أرسل /help لعرض الأوامر")
		return
	}

	log.Debug().
		Int64("user", msg.From.ID).
		Str("action", intent.Action).
		Float64("confidence", intent.Confidence).
		Interface("params", intent.Parameters).
		Msg("Parsed intent")

	h.sendMessage(msg.Chat.ID, h.executeIntent(ctx, msg.From.ID, intent))
}

// executeIntent runs a parsed intent and returns the reply for the user.
func (h *Handlers) executeIntent(ctx context.Context, userID int64, intent *ai.Intent) string {
	if intent.Confidence < minConfidence {
		return fallbackReply(intent)
	}

	switch intent.Action {
	case ai.ActionCreateReminder:
		clock, err := models.ParseClockTime(intent.Param("time"))
		if err != nil || intent.Param("text") == "" {
			return fallbackReply(intent)
		}
		return h.addReminder(ctx, userID, clock, intent.Param("text"))
	case ai.ActionListReminder:
		return h.remindersText(ctx, userID)
	case ai.ActionDeleteReminder:
		id, err := strconv.Atoi(strings.TrimPrefix(intent.Param("id"), "#"))
		if err != nil || id <= 0 {
			return fallbackReply(intent)
		}
		return h.removeReminder(ctx, userID, id)
	case ai.ActionSetCity:
		city, country := intent.Param("city"), intent.Param("country")
		if city == "" || country == "" {
			return fallbackReply(intent)
		}
		return h.setCity(ctx, userID, city, country)
	case ai.ActionSetLead:
		if intent.Param("minutes") == "" {
			return fallbackReply(intent)
		}
		return h.setLeadMinutes(ctx, userID, models.ParseLeadMinutes(intent.Param("minutes")))
	case ai.ActionPrayerTimes:
		return h.timesText(ctx, userID)
	case ai.ActionVerse:
		return h.verseText(ctx)
	default:
		return fallbackReply(intent)
	}
}

func fallbackReply(intent *ai.Intent) string {
	if msg := strings.TrimSpace(intent.AIMessage); msg != "" {
		return msg
	}
	return "لم أفهم طلبك، أرسل /help لعرض الأوامر"
}
