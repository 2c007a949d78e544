package prayer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hray3182/Nuhyi/internal/alarm"
	"github.com/hray3182/Nuhyi/internal/models"
	"github.com/stretchr/testify/require"
)

const testUser int64 = 1001

var riyadh = mustLoad("Asia/Riyadh")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// at returns a wall-clock instant in Riyadh in October 2026.
func at(day, hour, minute int) time.Time {
	return time.Date(2026, time.October, day, hour, minute, 0, 0, riyadh)
}

func sampleTimetable() *models.Timetable {
	return &models.Timetable{
		Date:     "2026-10-19",
		Timezone: "Asia/Riyadh",
		City:     models.DefaultCity,
		Country:  models.DefaultCountry,
		Times: map[models.Prayer]models.ClockTime{
			models.Fajr:    {Hour: 4, Minute: 30},
			models.Dhuhr:   {Hour: 12, Minute: 15},
			models.Asr:     {Hour: 15, Minute: 45},
			models.Maghrib: {Hour: 18, Minute: 20},
			models.Isha:    {Hour: 19, Minute: 50},
		},
	}
}

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

type fakeSource struct {
	tt    *models.Timetable
	err   error
	calls int
}

func (f *fakeSource) FetchTimetable(_ context.Context, city, country string, _ int) (*models.Timetable, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	tt := *f.tt
	tt.City, tt.Country = city, country
	return &tt, nil
}

type memCache struct {
	data map[int64]*models.Timetable
	err  error
}

func (c *memCache) Get(_ context.Context, userID int64) (*models.Timetable, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.data[userID], nil
}

func (c *memCache) Set(_ context.Context, userID int64, tt *models.Timetable) error {
	if c.err != nil {
		return c.err
	}
	c.data[userID] = tt
	return nil
}

func (c *memCache) Invalidate(_ context.Context, userID int64) error {
	if c.err != nil {
		return c.err
	}
	delete(c.data, userID)
	return nil
}

type memSettings struct {
	data     map[int64]models.Settings
	timezone string
	err      error
}

func (m *memSettings) GetOrCreate(_ context.Context, userID int64) (*models.Settings, error) {
	if m.err != nil {
		return nil, m.err
	}
	s, ok := m.data[userID]
	if !ok {
		s = *models.NewDefaultSettings(userID)
		s.Timezone = m.timezone
		m.data[userID] = s
	}
	return &s, nil
}

func (m *memSettings) Update(_ context.Context, s *models.Settings) error {
	if m.err != nil {
		return m.err
	}
	m.data[s.UserID] = *s
	return nil
}

type memReminders struct {
	list   []models.Reminder
	nextID int
}

func (m *memReminders) Create(_ context.Context, r *models.Reminder) error {
	m.nextID++
	r.ReminderID = m.nextID
	m.list = append(m.list, *r)
	return nil
}

func (m *memReminders) GetByID(_ context.Context, reminderID int, userID int64) (*models.Reminder, error) {
	for _, r := range m.list {
		if r.ReminderID == reminderID && r.UserID == userID {
			return &r, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memReminders) GetByUserID(_ context.Context, userID int64) ([]*models.Reminder, error) {
	var out []*models.Reminder
	for i := range m.list {
		if m.list[i].UserID == userID {
			r := m.list[i]
			out = append(out, &r)
		}
	}
	return out, nil
}

func (m *memReminders) Delete(_ context.Context, reminderID int, userID int64) error {
	for i, r := range m.list {
		if r.ReminderID == reminderID && r.UserID == userID {
			m.list = append(m.list[:i], m.list[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

type sentNotification struct {
	userID int64
	n      models.Notification
}

type recordingNotifier struct {
	sent []sentNotification
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, userID int64, n models.Notification) error {
	r.sent = append(r.sent, sentNotification{userID: userID, n: n})
	return r.err
}

// failingList wraps Timers and fails every List call.
type failingList struct {
	Timers
}

func (failingList) List(context.Context, int64) ([]models.Alarm, error) {
	return nil, errors.New("timer store unavailable")
}

// failingCreate wraps Timers and fails every Create after the first ok
// calls have gone through.
type failingCreate struct {
	Timers
	ok int
}

func (f *failingCreate) Create(ctx context.Context, userID int64, id models.AlarmID, opts models.AlarmOptions) error {
	if f.ok <= 0 {
		return errors.New("timer store write failed")
	}
	f.ok--
	return f.Timers.Create(ctx, userID, id, opts)
}

type harness struct {
	ctx       context.Context
	clock     *fakeClock
	runner    *alarm.Runner
	source    *fakeSource
	cache     *memCache
	settings  *memSettings
	reminders *memReminders
	notifier  *recordingNotifier
	sched     *Scheduler
}

func newHarness(now time.Time) *harness {
	h := &harness{
		ctx:       context.Background(),
		clock:     &fakeClock{now: now},
		source:    &fakeSource{tt: sampleTimetable()},
		cache:     &memCache{data: map[int64]*models.Timetable{}},
		settings:  &memSettings{data: map[int64]models.Settings{}, timezone: "Asia/Riyadh"},
		reminders: &memReminders{},
		notifier:  &recordingNotifier{},
	}
	h.runner = alarm.New(alarm.NewMemoryStore(), alarm.WithClock(h.clock.Now), alarm.WithInterval(time.Minute))
	h.sched = New(h.deps())
	h.runner.SetHandler(h.sched.OnAlarm)
	return h
}

func (h *harness) deps() Deps {
	return Deps{
		Timers:    h.runner,
		Source:    h.source,
		Cache:     h.cache,
		Settings:  h.settings,
		Reminders: h.reminders,
		Notifier:  h.notifier,
		Clock:     h.clock.Now,
		Rand:      func(int) int { return 0 },
	}
}

func (h *harness) advanceTo(t time.Time) int {
	h.clock.now = t
	return h.runner.RunDue(h.ctx)
}

func (h *harness) pending(t *testing.T) []models.Alarm {
	t.Helper()
	alarms, err := h.runner.List(h.ctx, testUser)
	require.NoError(t, err)
	return alarms
}

func (h *harness) find(t *testing.T, id models.AlarmID) (models.Alarm, bool) {
	t.Helper()
	for _, a := range h.pending(t) {
		if a.ID == id {
			return a, true
		}
	}
	return models.Alarm{}, false
}

func (h *harness) requireFiresAt(t *testing.T, id models.AlarmID, want time.Time) {
	t.Helper()
	a, ok := h.find(t, id)
	require.True(t, ok, "alarm %s not pending", id)
	require.True(t, want.Equal(a.FireAt), "alarm %s fires at %s, want %s", id, a.FireAt.In(riyadh), want)
}

func countKind(alarms []models.Alarm, kind models.AlarmKind) int {
	n := 0
	for _, a := range alarms {
		if a.ID.Kind == kind {
			n++
		}
	}
	return n
}
