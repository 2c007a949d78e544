package geocode

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
)

const DefaultBaseURL = "https://api.bigdatacloud.net"

// ErrNoLocation is returned when the coordinates do not resolve to a city and country.
var ErrNoLocation = errors.New("location not resolved")

type Place struct {
	City    string `json:"city"`
	Country string `json:"country"`
}

// Client resolves coordinates to a city and country via BigDataCloud.
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

func (c *Client) ReverseGeocode(ctx context.Context, latitude, longitude float64) (*Place, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(latitude, 'f', 6, 64))
	q.Set("longitude", strconv.FormatFloat(longitude, 'f', 6, 64))
	q.Set("localityLanguage", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/data/reverse-geocode-client?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call geocoder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var body struct {
		City        string `json:"city"`
		Locality    string `json:"locality"`
		CountryName string `json:"countryName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode geocoder response: %w", err)
	}

	city := body.City
	if city == "" {
		city = body.Locality
	}
	if city == "" || body.CountryName == "" {
		return nil, ErrNoLocation
	}
	return &Place{City: city, Country: body.CountryName}, nil
}
