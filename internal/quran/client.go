package quran

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://api.alquran.cloud"

	arabicEdition      = "quran-uthmani"
	translationEdition = "en.sahih"
	noTranslation      = "Translation not available"
)

var ErrMalformed = errors.New("malformed verse response")

type Verse struct {
	Text        string `json:"text"`
	Surah       string `json:"surah"`
	SurahArabic string `json:"surah_arabic"`
	Ayah        int    `json:"ayah"`
	Translation string `json:"translation"`
}

// Client fetches random verses from the alquran.cloud API.
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

type ayah struct {
	Text          string `json:"text"`
	NumberInSurah int    `json:"numberInSurah"`
	Surah         struct {
		Name        string `json:"name"`
		EnglishName string `json:"englishName"`
	} `json:"surah"`
}

type editionsResponse struct {
	Code int    `json:"code"`
	Data []ayah `json:"data"`
}

// RandomVerse returns a random verse in Arabic with its English translation.
func (c *Client) RandomVerse(ctx context.Context) (*Verse, error) {
	endpoint := fmt.Sprintf("%s/v1/ayah/random/editions/%s,%s", c.baseURL, arabicEdition, translationEdition)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call alquran.cloud: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alquran.cloud returned status %d", resp.StatusCode)
	}

	var body editionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if body.Code != http.StatusOK || len(body.Data) == 0 || body.Data[0].Text == "" {
		return nil, ErrMalformed
	}

	arabic := body.Data[0]
	verse := &Verse{
		Text:        arabic.Text,
		Surah:       arabic.Surah.EnglishName,
		SurahArabic: arabic.Surah.Name,
		Ayah:        arabic.NumberInSurah,
		Translation: noTranslation,
	}
	if len(body.Data) > 1 && body.Data[1].Text != "" {
		verse.Translation = body.Data[1].Text
	}
	return verse, nil
}
