package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)

		var req openai.ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Contains(t, req.Messages[0].Content, "2026-10-19 13:00")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{
				{Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: content}},
			},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestParseIntent(t *testing.T) {
	srv := completionServer(t, `{"action": "create_reminder", "parameters": {"time": "07:30", "text": " read Quran "}, "confidence": 0.93, "ai_message": "Done"}`)
	client := New("key", srv.URL, "test-model")

	intent, err := client.ParseIntent(context.Background(), "remind me to read Quran at 7:30", time.Date(2026, 10, 19, 13, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, ActionCreateReminder, intent.Action)
	assert.Equal(t, "07:30", intent.Param("time"))
	assert.Equal(t, "read Quran", intent.Param("text"))
	assert.InDelta(t, 0.93, intent.Confidence, 0.001)
}

func TestDecodeIntent(t *testing.T) {
	tests := []struct {
		name    string
		content string
		action  string
		wantErr bool
	}{
		{"plain", `{"action": "verse", "parameters": {}, "confidence": 1, "ai_message": ""}`, ActionVerse, false},
		{"fenced", "```json\n{\"action\": \"set_lead\", \"parameters\": {\"minutes\": \"15\"}}\n```", ActionSetLead, false},
		{"missing action", `{"parameters": {}}`, ActionUnknown, false},
		{"not json", `I think you want prayer times`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent, err := decodeIntent(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.action, intent.Action)
		})
	}
}
