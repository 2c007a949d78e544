package handlers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hray3182/Nuhyi/internal/ai"
	"github.com/hray3182/Nuhyi/internal/geocode"
	"github.com/hray3182/Nuhyi/internal/models"
	"github.com/hray3182/Nuhyi/internal/prayer"
	"github.com/hray3182/Nuhyi/internal/quran"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUser int64 = 7

var riyadh = models.LoadLocation("Asia/Riyadh")

type fakeAPI struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) lastText(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent)
	switch c := f.sent[len(f.sent)-1].(type) {
	case tgbotapi.MessageConfig:
		return c.Text
	case tgbotapi.EditMessageTextConfig:
		return c.Text
	default:
		t.Fatalf("unexpected chattable %T", c)
		return ""
	}
}

func (f *fakeAPI) callbackAnswers() []string {
	var out []string
	for _, r := range f.requests {
		if cb, ok := r.(tgbotapi.CallbackConfig); ok {
			out = append(out, cb.Text)
		}
	}
	return out
}

type fakeScheduler struct {
	settings     models.Settings
	timetable    *models.Timetable
	applyErr     error
	applied      *models.Settings
	reminders    []*models.Reminder
	removeErr    error
	snoozed      []models.Prayer
	bootstrapped bool
}

func newFakeScheduler() *fakeScheduler {
	s := models.NewDefaultSettings(testUser)
	s.Timezone = "Asia/Riyadh"
	return &fakeScheduler{
		settings: *s,
		timetable: &models.Timetable{
			Date:     "2026-10-19",
			Timezone: "Asia/Riyadh",
			City:     "Mecca",
			Country:  "Saudi Arabia",
			Times: map[models.Prayer]models.ClockTime{
				models.Fajr:    {Hour: 4, Minute: 30},
				models.Dhuhr:   {Hour: 12, Minute: 15},
				models.Asr:     {Hour: 15, Minute: 45},
				models.Maghrib: {Hour: 18, Minute: 20},
				models.Isha:    {Hour: 19, Minute: 50},
			},
		},
	}
}

func (f *fakeScheduler) Bootstrap(context.Context, int64) error {
	f.bootstrapped = true
	return nil
}

func (f *fakeScheduler) TodayTimetable(context.Context, int64, time.Time) (*models.Timetable, error) {
	if f.timetable == nil {
		return nil, errors.New("aladhan unreachable")
	}
	return f.timetable, nil
}

func (f *fakeScheduler) NextPrayer(_ context.Context, _ int64, now time.Time) (models.Prayer, time.Time, error) {
	p, at, ok := f.timetable.NextPrayer(now)
	if !ok {
		return "", time.Time{}, prayer.ErrNoTimetable
	}
	return p, at, nil
}

func (f *fakeScheduler) Settings(context.Context, int64) (*models.Settings, error) {
	s := f.settings
	return &s, nil
}

func (f *fakeScheduler) ApplySettings(_ context.Context, _ int64, _, next *models.Settings) error {
	f.applied = next
	if !errors.Is(f.applyErr, prayer.ErrSettingsNotSaved) {
		f.settings = *next
	}
	return f.applyErr
}

func (f *fakeScheduler) AddReminder(_ context.Context, userID int64, text string, clock models.ClockTime) (*models.Reminder, error) {
	if strings.TrimSpace(text) == "" {
		return nil, prayer.ErrEmptyReminder
	}
	r := &models.Reminder{ReminderID: len(f.reminders) + 1, UserID: userID, Text: text, Time: clock}
	f.reminders = append(f.reminders, r)
	return r, nil
}

func (f *fakeScheduler) ListReminders(context.Context, int64) ([]*models.Reminder, error) {
	return f.reminders, nil
}

func (f *fakeScheduler) RemoveReminder(context.Context, int64, int) error {
	return f.removeErr
}

func (f *fakeScheduler) Snooze(_ context.Context, _ int64, p models.Prayer) (int, error) {
	f.snoozed = append(f.snoozed, p)
	return f.settings.SnoozeMinutes, nil
}

type fakeUsers struct{}

func (fakeUsers) GetOrCreate(_ context.Context, userID int64, userName string) (*models.User, error) {
	return &models.User{UserID: userID, UserName: userName}, nil
}

type fakeGeocoder struct {
	place *geocode.Place
	err   error
}

func (f fakeGeocoder) ReverseGeocode(context.Context, float64, float64) (*geocode.Place, error) {
	return f.place, f.err
}

type fakeVerses struct{}

func (fakeVerses) RandomVerse(context.Context) (*quran.Verse, error) {
	return &quran.Verse{Text: "الحمد لله رب العالمين", Surah: "Al-Faatiha", SurahArabic: "سورة الفاتحة", Ayah: 2, Translation: "All praise is due to Allah"}, nil
}

type fakeParser struct {
	intent *ai.Intent
}

func (f fakeParser) ParseIntent(context.Context, string, time.Time) (*ai.Intent, error) {
	return f.intent, nil
}

func newTestHandlers(sched *fakeScheduler) (*Handlers, *fakeAPI) {
	api := &fakeAPI{}
	h := New(Deps{
		API:       api,
		Scheduler: sched,
		Users:     fakeUsers{},
		Verses:    fakeVerses{},
		Geocoder:  fakeGeocoder{place: &geocode.Place{City: "Cairo", Country: "Egypt"}},
		Clock:     func() time.Time { return time.Date(2026, 10, 19, 13, 0, 0, 0, riyadh) },
	})
	return h, api
}

func command(text string) *tgbotapi.Message {
	cmd, _, _ := strings.Cut(text, " ")
	return &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: testUser, UserName: "tester", FirstName: "Test"},
		Chat:      &tgbotapi.Chat{ID: testUser},
		Text:      text,
		Entities:  []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(cmd)}},
	}
}

func callback(data string) *tgbotapi.CallbackQuery {
	return &tgbotapi.CallbackQuery{
		ID:      "cb-1",
		From:    &tgbotapi.User{ID: testUser},
		Message: &tgbotapi.Message{MessageID: 99, Chat: &tgbotapi.Chat{ID: testUser}},
		Data:    data,
	}
}

func TestParseRemindArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     string
		wantTime models.ClockTime
		wantText string
		wantErr  bool
	}{
		{"time and text", "21:30 read surah al-mulk", models.ClockTime{Hour: 21, Minute: 30}, "read surah al-mulk", false},
		{"extra spaces", "  06:05   drink water ", models.ClockTime{Hour: 6, Minute: 5}, "drink water", false},
		{"no text", "21:30", models.ClockTime{}, "", true},
		{"blank text", "21:30    ", models.ClockTime{}, "", true},
		{"bad time", "25:00 late", models.ClockTime{}, "", true},
		{"empty", "", models.ClockTime{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock, text, err := parseRemindArgs(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTime, clock)
			assert.Equal(t, tt.wantText, text)
		})
	}
}

func TestParseCityArgs(t *testing.T) {
	tests := []struct {
		args    string
		city    string
		country string
		ok      bool
	}{
		{"Cairo, Egypt", "Cairo", "Egypt", true},
		{"  New York ,  United States ", "New York", "United States", true},
		{"القاهرة، مصر", "القاهرة", "مصر", true},
		{"Cairo", "", "", false},
		{"Cairo,", "", "", false},
		{", Egypt", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.args, func(t *testing.T) {
			city, country, ok := parseCityArgs(tt.args)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.city, city)
			assert.Equal(t, tt.country, country)
		})
	}
}

func TestApplySettingsChange(t *testing.T) {
	tests := []struct {
		name   string
		parts  []string
		ok     bool
		verify func(t *testing.T, s *models.Settings)
	}{
		{"toggle pre-alert off", []string{"pre", "toggle"}, true, func(t *testing.T, s *models.Settings) {
			assert.False(t, s.PrePrayerEnabled)
			assert.Equal(t, 10, s.PrePrayerMinutes)
		}},
		{"lead minutes", []string{"lead", "15"}, true, func(t *testing.T, s *models.Settings) {
			assert.True(t, s.PrePrayerEnabled)
			assert.Equal(t, 15, s.PrePrayerMinutes)
		}},
		{"lead zero disables", []string{"lead", "0"}, true, func(t *testing.T, s *models.Settings) {
			assert.False(t, s.PrePrayerEnabled)
		}},
		{"negative lead", []string{"lead", "-5"}, false, nil},
		{"toggle sound", []string{"sound", "toggle"}, true, func(t *testing.T, s *models.Settings) {
			assert.False(t, s.AzanSound)
		}},
		{"audio", []string{"audio", "madinah"}, true, func(t *testing.T, s *models.Settings) {
			assert.Equal(t, "madinah", s.AzanAudio)
		}},
		{"unknown audio", []string{"audio", "cairo"}, false, nil},
		{"toggle nudge", []string{"nudge", "toggle"}, true, func(t *testing.T, s *models.Settings) {
			assert.False(t, s.SalahReminder)
		}},
		{"nudge hours", []string{"nudge", "4"}, true, func(t *testing.T, s *models.Settings) {
			assert.True(t, s.SalahReminder)
			assert.Equal(t, 4, s.SalahReminderHours)
		}},
		{"missing value", []string{"lead"}, false, nil},
		{"unknown action", []string{"theme", "dark"}, false, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := models.NewDefaultSettings(testUser)
			before := *s
			ok := applySettingsChange(s, tt.parts)
			assert.Equal(t, tt.ok, ok)
			if !tt.ok {
				assert.Equal(t, before, *s)
				return
			}
			tt.verify(t, s)
		})
	}
}

func TestPreAlertToggleRestoresLead(t *testing.T) {
	s := models.NewDefaultSettings(testUser)
	setLead(s, 0)
	require.True(t, applySettingsChange(s, []string{"pre", "toggle"}))
	assert.True(t, s.PrePrayerEnabled)
	assert.Equal(t, models.DefaultPrePrayerMinutes, s.PrePrayerMinutes)
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "1 دقيقة"},
		{45 * time.Minute, "45 دقيقة"},
		{2 * time.Hour, "2 ساعة"},
		{2*time.Hour + 44*time.Minute + 10*time.Second, "2 ساعة و 45 دقيقة"},
		{-time.Minute, "1 دقيقة"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatRemaining(tt.d), tt.d.String())
	}
}

func TestFormatTimetableMarksNextPrayer(t *testing.T) {
	tt := newFakeScheduler().timetable

	text := formatTimetable(tt, time.Date(2026, 10, 19, 13, 0, 0, 0, riyadh))
	assert.Contains(t, text, "العصر  `15:45` ⬅️")
	assert.Equal(t, 1, strings.Count(text, "⬅️"))

	text = formatTimetable(tt, time.Date(2026, 10, 19, 21, 0, 0, 0, riyadh))
	assert.NotContains(t, text, "⬅️")
}

func TestTimesCommand(t *testing.T) {
	sched := newFakeScheduler()
	h, api := newTestHandlers(sched)

	h.HandleCommand(context.Background(), command("/times"))
	text := api.lastText(t)
	assert.Contains(t, text, "مواقيت الصلاة - Mecca، Saudi Arabia")
	assert.Contains(t, text, "الفجر  04:30")

	sched.timetable = nil
	h.HandleCommand(context.Background(), command("/times"))
	assert.Equal(t, "تعذر جلب مواقيت الصلاة، حاول لاحقًا", api.lastText(t))
}

func TestNextCommand(t *testing.T) {
	h, api := newTestHandlers(newFakeScheduler())

	h.HandleCommand(context.Background(), command("/next"))
	text := api.lastText(t)
	assert.Contains(t, text, "العصر")
	assert.Contains(t, text, "15:45")
	assert.Contains(t, text, "2 ساعة و 45 دقيقة")
}

func TestStartBootstraps(t *testing.T) {
	sched := newFakeScheduler()
	h, api := newTestHandlers(sched)

	h.HandleCommand(context.Background(), command("/start"))
	assert.True(t, sched.bootstrapped)
	assert.Contains(t, api.lastText(t), "السلام عليكم Test")
}

func TestReminderCommands(t *testing.T) {
	sched := newFakeScheduler()
	h, api := newTestHandlers(sched)
	ctx := context.Background()

	h.HandleCommand(ctx, command("/remind 21:30 قراءة سورة الملك"))
	require.Len(t, sched.reminders, 1)
	assert.Equal(t, models.ClockTime{Hour: 21, Minute: 30}, sched.reminders[0].Time)
	assert.Contains(t, api.lastText(t), "#1")

	h.HandleCommand(ctx, command("/remind soon"))
	assert.Contains(t, api.lastText(t), "الاستخدام")
	assert.Len(t, sched.reminders, 1)

	h.HandleCommand(ctx, command("/reminders"))
	assert.Contains(t, api.lastText(t), "#1 21:30 قراءة سورة الملك")

	sched.removeErr = prayer.ErrReminderNotFound
	h.HandleCommand(ctx, command("/delreminder 3"))
	assert.Equal(t, "لم يتم العثور على التذكير #3", api.lastText(t))

	sched.removeErr = nil
	h.HandleCommand(ctx, command("/delreminder #1"))
	assert.Equal(t, "🗑 تم حذف التذكير #1", api.lastText(t))

	h.HandleCommand(ctx, command("/delreminder one"))
	assert.Contains(t, api.lastText(t), "الاستخدام")
}

func TestEmptyReminderList(t *testing.T) {
	h, api := newTestHandlers(newFakeScheduler())
	h.HandleCommand(context.Background(), command("/reminders"))
	assert.Contains(t, api.lastText(t), "لا توجد تذكيرات")
}

func TestCityCommand(t *testing.T) {
	tests := []struct {
		name     string
		applyErr error
		want     string
	}{
		{"saved", nil, "📍 تم تحديث الموقع: Cairo، Egypt"},
		{"refresh failed", errors.New("aladhan unreachable"), "⚠️ تعذر تحديث مواقيت الصلاة الآن"},
		{"not saved", fmt.Errorf("%w: db down", prayer.ErrSettingsNotSaved), "تعذر حفظ الإعدادات، حاول لاحقًا"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sched := newFakeScheduler()
			sched.applyErr = tt.applyErr
			h, api := newTestHandlers(sched)

			h.HandleCommand(context.Background(), command("/city Cairo, Egypt"))
			require.NotNil(t, sched.applied)
			assert.Equal(t, "Cairo", sched.applied.City)
			assert.Equal(t, "Egypt", sched.applied.Country)
			assert.Contains(t, api.lastText(t), tt.want)
		})
	}
}

func TestCityCommandUsage(t *testing.T) {
	sched := newFakeScheduler()
	h, api := newTestHandlers(sched)

	h.HandleCommand(context.Background(), command("/city Cairo"))
	assert.Nil(t, sched.applied)
	assert.Contains(t, api.lastText(t), "الاستخدام")
}

func TestLeadCommand(t *testing.T) {
	sched := newFakeScheduler()
	h, api := newTestHandlers(sched)
	ctx := context.Background()

	h.HandleCommand(ctx, command("/lead 20"))
	require.NotNil(t, sched.applied)
	assert.Equal(t, 20, sched.applied.PrePrayerMinutes)
	assert.True(t, sched.applied.PrePrayerEnabled)
	assert.Contains(t, api.lastText(t), "20")

	h.HandleCommand(ctx, command("/lead 0"))
	assert.False(t, sched.applied.PrePrayerEnabled)
	assert.Equal(t, "🔕 تم إيقاف التنبيه قبل الصلاة", api.lastText(t))
}

func TestLocationMessage(t *testing.T) {
	sched := newFakeScheduler()
	h, api := newTestHandlers(sched)

	msg := &tgbotapi.Message{
		From:     &tgbotapi.User{ID: testUser},
		Chat:     &tgbotapi.Chat{ID: testUser},
		Location: &tgbotapi.Location{Latitude: 30.04, Longitude: 31.24},
	}
	h.HandleMessage(context.Background(), msg)
	require.NotNil(t, sched.applied)
	assert.Equal(t, "Cairo", sched.applied.City)
	assert.Contains(t, api.lastText(t), "Cairo، Egypt")

	h.geocoder = fakeGeocoder{err: geocode.ErrNoLocation}
	h.HandleMessage(context.Background(), msg)
	assert.Contains(t, api.lastText(t), "/city")
}

func TestSettingsCallback(t *testing.T) {
	sched := newFakeScheduler()
	h, api := newTestHandlers(sched)

	h.HandleCallbackQuery(context.Background(), callback("settings:lead:15"))
	require.NotNil(t, sched.applied)
	assert.Equal(t, 15, sched.applied.PrePrayerMinutes)

	edit, ok := api.sent[len(api.sent)-1].(tgbotapi.EditMessageTextConfig)
	require.True(t, ok)
	assert.Equal(t, 99, edit.MessageID)
	assert.Contains(t, edit.Text, "(15 دقيقة)")
	require.NotNil(t, edit.ReplyMarkup)
	assert.Equal(t, []string{""}, api.callbackAnswers())
}

func TestSettingsPickerDoesNotWrite(t *testing.T) {
	sched := newFakeScheduler()
	h, api := newTestHandlers(sched)

	h.HandleCallbackQuery(context.Background(), callback("settings:lead"))
	assert.Nil(t, sched.applied)
	edit := api.sent[len(api.sent)-1].(tgbotapi.EditMessageTextConfig)
	require.NotNil(t, edit.ReplyMarkup)
	assert.Equal(t, "settings:lead:0", *edit.ReplyMarkup.InlineKeyboard[0][0].CallbackData)

	h.HandleCallbackQuery(context.Background(), callback("settings:close"))
	_, deleted := api.requests[len(api.requests)-1].(tgbotapi.DeleteMessageConfig)
	assert.True(t, deleted)
}

func TestSnoozeCallback(t *testing.T) {
	sched := newFakeScheduler()
	h, api := newTestHandlers(sched)

	h.HandleCallbackQuery(context.Background(), callback("snooze:asr"))
	assert.Equal(t, []models.Prayer{models.Asr}, sched.snoozed)
	assert.Equal(t, []string{"⏰ سأذكّرك بعد 5 دقائق"}, api.callbackAnswers())
	_, edited := api.requests[len(api.requests)-1].(tgbotapi.EditMessageReplyMarkupConfig)
	assert.True(t, edited)

	h.HandleCallbackQuery(context.Background(), callback("snooze:brunch"))
	assert.Len(t, sched.snoozed, 1)
}

func TestAckCallbackRemovesKeyboard(t *testing.T) {
	h, api := newTestHandlers(newFakeScheduler())

	h.HandleCallbackQuery(context.Background(), callback("ack"))
	assert.Equal(t, []string{"✅"}, api.callbackAnswers())
	edit, ok := api.requests[len(api.requests)-1].(tgbotapi.EditMessageReplyMarkupConfig)
	require.True(t, ok)
	assert.Equal(t, 99, edit.MessageID)
}

func TestAdhkar(t *testing.T) {
	h, api := newTestHandlers(newFakeScheduler())

	h.HandleCommand(context.Background(), command("/adhkar sleep"))
	text := api.lastText(t)
	assert.True(t, strings.HasPrefix(text, "🌙 أذكار النوم"))
	assert.Contains(t, text, "(×34)")

	h.HandleCommand(context.Background(), command("/adhkar"))
	msg := api.sent[len(api.sent)-1].(tgbotapi.MessageConfig)
	assert.NotNil(t, msg.ReplyMarkup)

	h.HandleCallbackQuery(context.Background(), callback("adhkar:morning"))
	assert.True(t, strings.HasPrefix(api.lastText(t), "🌅 أذكار الصباح"))
}

func TestVerseCommand(t *testing.T) {
	h, api := newTestHandlers(newFakeScheduler())

	h.HandleCommand(context.Background(), command("/verse"))
	text := api.lastText(t)
	assert.Contains(t, text, "سورة الفاتحة (2)")
	assert.Contains(t, text, "All praise is due to Allah")

	h.verses = nil
	h.HandleCommand(context.Background(), command("/verse"))
	assert.Equal(t, "الآيات غير متاحة حاليًا", api.lastText(t))
}

func TestExecuteIntent(t *testing.T) {
	tests := []struct {
		name   string
		intent *ai.Intent
		want   string
	}{
		{
			name:   "low confidence uses ai message",
			intent: &ai.Intent{Action: ai.ActionVerse, Confidence: 0.2, AIMessage: "Do you want a verse?"},
			want:   "Do you want a verse?",
		},
		{
			name:   "create reminder",
			intent: &ai.Intent{Action: ai.ActionCreateReminder, Confidence: 0.9, Parameters: map[string]string{"time": "07:15", "text": "morning adhkar"}},
			want:   "07:15",
		},
		{
			name:   "create reminder without time",
			intent: &ai.Intent{Action: ai.ActionCreateReminder, Confidence: 0.9, Parameters: map[string]string{"text": "water"}},
			want:   "لم أفهم طلبك",
		},
		{
			name:   "set city",
			intent: &ai.Intent{Action: ai.ActionSetCity, Confidence: 0.95, Parameters: map[string]string{"city": "Istanbul", "country": "Turkey"}},
			want:   "Istanbul، Turkey",
		},
		{
			name:   "set lead",
			intent: &ai.Intent{Action: ai.ActionSetLead, Confidence: 0.8, Parameters: map[string]string{"minutes": "5"}},
			want:   "5 دقيقة",
		},
		{
			name:   "prayer times",
			intent: &ai.Intent{Action: ai.ActionPrayerTimes, Confidence: 0.99},
			want:   "مواقيت الصلاة",
		},
		{
			name:   "unknown",
			intent: &ai.Intent{Action: ai.ActionUnknown, Confidence: 0.9, AIMessage: "وعليكم السلام"},
			want:   "وعليكم السلام",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandlers(newFakeScheduler())
			assert.Contains(t, h.executeIntent(context.Background(), testUser, tt.intent), tt.want)
		})
	}
}

func TestFreeTextGoesToParser(t *testing.T) {
	sched := newFakeScheduler()
	h, api := newTestHandlers(sched)
	msg := &tgbotapi.Message{From: &tgbotapi.User{ID: testUser}, Chat: &tgbotapi.Chat{ID: testUser}, Text: "remind me at 9pm to pray witr"}

	h.HandleMessage(context.Background(), msg)
	assert.Contains(t, api.lastText(t), "/help")

	h.ai = fakeParser{intent: &ai.Intent{Action: ai.ActionCreateReminder, Confidence: 0.9, Parameters: map[string]string{"time": "21:00", "text": "pray witr"}}}
	h.HandleMessage(context.Background(), msg)
	require.Len(t, sched.reminders, 1)
	assert.Equal(t, "pray witr", sched.reminders[0].Text)
}
