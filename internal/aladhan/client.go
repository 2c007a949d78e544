package aladhan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hray3182/Nuhyi/internal/models"
)

const DefaultBaseURL = "https://api.aladhan.com"

// ErrMalformed is returned when the response does not carry usable timings.
var ErrMalformed = errors.New("malformed timetable response")

// Client fetches daily prayer timetables from the Aladhan API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type timingsResponse struct {
	Code int `json:"code"`
	Data struct {
		Timings map[string]string `json:"timings"`
		Date    struct {
			Gregorian struct {
				Date string `json:"date"` // DD-MM-YYYY
			} `json:"gregorian"`
		} `json:"date"`
		Meta struct {
			Timezone string `json:"timezone"`
		} `json:"meta"`
	} `json:"data"`
}

// FetchTimetable returns today's timetable for a city. Prayers the response
// omits or cannot be parsed are left out; a response with none is an error.
func (c *Client) FetchTimetable(ctx context.Context, city, country string, method int) (*models.Timetable, error) {
	q := url.Values{}
	q.Set("city", city)
	q.Set("country", country)
	q.Set("method", strconv.Itoa(method))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/timingsByCity?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call aladhan: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("aladhan returned status %d", resp.StatusCode)
	}

	var body timingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if body.Code != http.StatusOK || len(body.Data.Timings) == 0 {
		return nil, ErrMalformed
	}

	tt := &models.Timetable{
		Timezone: body.Data.Meta.Timezone,
		City:     city,
		Country:  country,
		Times:    make(map[models.Prayer]models.ClockTime, len(models.Prayers)),
	}
	for _, p := range models.Prayers {
		raw, ok := body.Data.Timings[string(p)]
		if !ok {
			continue
		}
		ct, err := models.ParseClockTime(raw)
		if err != nil {
			continue
		}
		tt.Times[p] = ct
	}
	if len(tt.Times) == 0 {
		return nil, ErrMalformed
	}

	if d, err := time.Parse("02-01-2006", body.Data.Date.Gregorian.Date); err == nil {
		tt.Date = d.Format(models.DateLayout)
	} else {
		tt.Date = time.Now().In(tt.Location()).Format(models.DateLayout)
	}
	return tt, nil
}
