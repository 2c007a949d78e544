package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hray3182/Nuhyi/internal/adhkar"
	"github.com/hray3182/Nuhyi/internal/models"
	"github.com/hray3182/Nuhyi/internal/prayer"
)

type prayerTimesResponse struct {
	Date     string                   `json:"date"`
	Timezone string                   `json:"timezone"`
	City     string                   `json:"city"`
	Country  string                   `json:"country"`
	Times    map[models.Prayer]string `json:"times"`
	Next     *nextPrayerResponse      `json:"next,omitempty"`
}

type nextPrayerResponse struct {
	Prayer models.Prayer `json:"prayer"`
	At     time.Time     `json:"at"`
}

type reminderRequest struct {
	Text string `json:"text" binding:"required"`
	Time string `json:"time" binding:"required"`
}

type recurringRequest struct {
	Enabled bool `json:"enabled"`
	Hours   int  `json:"hours"`
}

type settingsResponse struct {
	Settings *models.Settings `json:"settings"`
	Warning  string           `json:"warning,omitempty"`
}

type alarmResponse struct {
	Name   string    `json:"name"`
	FireAt time.Time `json:"fire_at"`
	Period string    `json:"period,omitempty"`
}

func (s *Server) prayerTimes(c *gin.Context) (any, *Error) {
	uid, apiErr := userID(c)
	if apiErr != nil {
		return nil, apiErr
	}

	now := s.cfg.Clock()
	tt, err := s.sched.TodayTimetable(c.Request.Context(), uid, now)
	if err != nil {
		return nil, &Error{Code: http.StatusBadGateway, Message: err.Error()}
	}

	resp := prayerTimesResponse{
		Date:     tt.Date,
		Timezone: tt.Timezone,
		City:     tt.City,
		Country:  tt.Country,
		Times:    make(map[models.Prayer]string, len(tt.Times)),
	}
	for p, ct := range tt.Times {
		resp.Times[p] = ct.String()
	}
	if p, at, ok := tt.NextPrayer(now); ok {
		resp.Next = &nextPrayerResponse{Prayer: p, At: at}
	}
	return resp, nil
}

func (s *Server) getSettings(c *gin.Context) (any, *Error) {
	uid, apiErr := userID(c)
	if apiErr != nil {
		return nil, apiErr
	}
	settings, err := s.sched.Settings(c.Request.Context(), uid)
	if err != nil {
		return nil, serverError(err)
	}
	return settings, nil
}

// putSettings replaces the settings. Fields missing from the body keep
// their current values.
func (s *Server) putSettings(c *gin.Context) (any, *Error) {
	uid, apiErr := userID(c)
	if apiErr != nil {
		return nil, apiErr
	}

	ctx := c.Request.Context()
	old, err := s.sched.Settings(ctx, uid)
	if err != nil {
		return nil, serverError(err)
	}
	next := *old
	if err := c.ShouldBindJSON(&next); err != nil {
		return nil, badRequest(err.Error())
	}

	resp := settingsResponse{Settings: &next}
	if err := s.sched.ApplySettings(ctx, uid, old, &next); err != nil {
		if errors.Is(err, prayer.ErrSettingsNotSaved) {
			return nil, serverError(err)
		}
		// Saved, but the alarms could not be rebuilt yet.
		resp.Warning = err.Error()
	}
	return resp, nil
}

func (s *Server) listReminders(c *gin.Context) (any, *Error) {
	uid, apiErr := userID(c)
	if apiErr != nil {
		return nil, apiErr
	}
	list, err := s.sched.ListReminders(c.Request.Context(), uid)
	if err != nil {
		return nil, serverError(err)
	}
	if list == nil {
		list = []*models.Reminder{}
	}
	return list, nil
}

func (s *Server) addReminder(c *gin.Context) (any, *Error) {
	uid, apiErr := userID(c)
	if apiErr != nil {
		return nil, apiErr
	}

	var req reminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, badRequest(err.Error())
	}
	clock, err := models.ParseClockTime(req.Time)
	if err != nil {
		return nil, badRequest(err.Error())
	}

	r, err := s.sched.AddReminder(c.Request.Context(), uid, req.Text, clock)
	if errors.Is(err, prayer.ErrEmptyReminder) {
		return nil, badRequest(err.Error())
	}
	if err != nil {
		return nil, serverError(err)
	}
	return r, nil
}

func (s *Server) removeReminder(c *gin.Context) (any, *Error) {
	uid, apiErr := userID(c)
	if apiErr != nil {
		return nil, apiErr
	}
	rid, err := strconv.Atoi(c.Param("rid"))
	if err != nil {
		return nil, badRequest("invalid reminder id")
	}

	if err := s.sched.RemoveReminder(c.Request.Context(), uid, rid); err != nil {
		if isNotFound(err) {
			return nil, notFound(err)
		}
		return nil, serverError(err)
	}
	return gin.H{"success": true}, nil
}

func (s *Server) putRecurring(c *gin.Context) (any, *Error) {
	uid, apiErr := userID(c)
	if apiErr != nil {
		return nil, apiErr
	}
	var req recurringRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, badRequest(err.Error())
	}
	if err := s.sched.UpdateRecurring(c.Request.Context(), uid, req.Enabled, req.Hours); err != nil {
		return nil, serverError(err)
	}
	return gin.H{"success": true}, nil
}

func (s *Server) alarms(c *gin.Context) (any, *Error) {
	uid, apiErr := userID(c)
	if apiErr != nil {
		return nil, apiErr
	}
	pending, err := s.sched.PendingAlarms(c.Request.Context(), uid)
	if err != nil {
		return nil, serverError(err)
	}

	out := make([]alarmResponse, 0, len(pending))
	for _, a := range pending {
		r := alarmResponse{Name: a.Name, FireAt: a.FireAt}
		if a.IsPeriodic() {
			r.Period = a.Period.String()
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *Server) verse(c *gin.Context) (any, *Error) {
	if s.verses == nil {
		return nil, &Error{Code: http.StatusServiceUnavailable, Message: "verse source not configured"}
	}
	v, err := s.verses.RandomVerse(c.Request.Context())
	if err != nil {
		return nil, &Error{Code: http.StatusBadGateway, Message: err.Error()}
	}
	return v, nil
}

func (s *Server) adhkarList(c *gin.Context) (any, *Error) {
	category, ok := adhkar.ParseCategory(c.Param("category"))
	if !ok {
		return []adhkar.Dhikr{}, nil
	}
	return adhkar.ForCategory(category), nil
}
