package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Actions the assistant can map a message to.
const (
	ActionCreateReminder = "create_reminder"
	ActionListReminder   = "list_reminder"
	ActionDeleteReminder = "delete_reminder"
	ActionSetCity        = "set_city"
	ActionSetLead        = "set_lead"
	ActionPrayerTimes    = "prayer_times"
	ActionVerse          = "verse"
	ActionUnknown        = "unknown"
)

var ErrNoChoices = errors.New("no response from AI")

type Client struct {
	client *openai.Client
	model  string
}

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

type Intent struct {
	Action     string            `json:"action"`
	Parameters map[string]string `json:"parameters"`
	Confidence float64           `json:"confidence"`
	// AIMessage is a short reply for the user, used for chit-chat and
	// follow-up questions.
	AIMessage   string `json:"ai_message"`
	RawResponse string `json:"-"`
}

// Param returns a trimmed parameter value.
func (i *Intent) Param(key string) string {
	return strings.TrimSpace(i.Parameters[key])
}

const systemPromptTemplate = `You are the assistant of Nuhyi, a Telegram bot that sends Islamic prayer-time alerts, daily reminders and Quran verses. Convert the user's message into a structured intent.

Current time: %s

Actions:
- create_reminder: a daily reminder. parameters: time (HH:MM, 24h), text
- list_reminder: list the user's reminders
- delete_reminder: delete a reminder. parameters: id
- set_city: change location. parameters: city, country (English names)
- set_lead: minutes before each prayer to send a heads-up. parameters: minutes
- prayer_times: show today's prayer times or the next prayer
- verse: show a random Quran verse
- unknown: anything else

Rules:
1. Resolve relative times ("in two hours", "after Maghrib" is not a clock time) against the current time and output HH:MM. If the time cannot be resolved, use unknown and ask in ai_message.
2. The user may write in Arabic or English; answer ai_message in the user's language.
3. Keep ai_message to one or two sentences.`

func systemPrompt(now time.Time) string {
	return fmt.Sprintf(systemPromptTemplate, now.Format("2006-01-02 15:04 (Monday) MST"))
}

// intentSchema constrains the model to a single Intent object.
var intentSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"action": {
			"type": "string",
			"enum": ["create_reminder", "list_reminder", "delete_reminder", "set_city", "set_lead", "prayer_times", "verse", "unknown"],
			"description": "The action to perform"
		},
		"parameters": {
			"type": "object",
			"additionalProperties": {
				"type": "string"
			},
			"description": "Parameters for the action"
		},
		"confidence": {
			"type": "number",
			"minimum": 0,
			"maximum": 1,
			"description": "Confidence score between 0 and 1"
		},
		"ai_message": {
			"type": "string",
			"description": "Friendly message to show the user"
		}
	},
	"required": ["action", "parameters", "confidence", "ai_message"],
	"additionalProperties": false
}`)

// ParseIntent classifies a free-text message. now should be in the user's
// timezone so relative times resolve against their wall clock.
func (c *Client) ParseIntent(ctx context.Context, userMessage string, now time.Time) (*Intent, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt(now),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userMessage,
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "intent",
				Schema: intentSchema,
				Strict: true,
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call AI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, ErrNoChoices
	}
	return decodeIntent(resp.Choices[0].Message.Content)
}

func decodeIntent(content string) (*Intent, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimSuffix(strings.TrimPrefix(content, "```"), "```")

	intent := &Intent{RawResponse: content}
	if err := json.Unmarshal([]byte(content), intent); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}
	if intent.Action == "" {
		intent.Action = ActionUnknown
	}
	return intent, nil
}
