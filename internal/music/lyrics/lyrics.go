// Package lyrics fetches plain-text song lyrics from lrclib.net.
package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/keshon/deejay/pkg/retrylimit"
)

// ErrNotFound is returned when no lyrics are found.
var ErrNotFound = errors.New("lyrics not found")

const (
	DefaultBaseURL = "https://lrclib.net/api"
	userAgent      = "deejay-discord-bot/1.0 (https://github.com/keshon/deejay)"
	attempts       = 2
)

type statusError struct{ code int }

func (e *statusError) Error() string   { return fmt.Sprintf("unexpected status: %d", e.code) }
func (e *statusError) StatusCode() int { return e.code }

// Client is an lrclib.net API client.
type Client struct {
	baseURL    string
	httpClient *http.Client
	lim        *retrylimit.AdaptiveLimiter
}

// New creates a client; an empty baseURL means lrclib.net.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		lim:        retrylimit.NewAdaptiveLimiter(2, 1, 5, 1, 0.5),
	}
}

type result struct {
	TrackName    string `json:"trackName"`
	ArtistName   string `json:"artistName"`
	Instrumental bool   `json:"instrumental"`
	PlainLyrics  string `json:"plainLyrics"`
}

// Get returns the plain lyrics of title by author. An exact match is tried
// first, then a free-text search.
func (c *Client) Get(ctx context.Context, author, title string) (string, error) {
	var exact result
	err := c.fetch(ctx, "/get", url.Values{"artist_name": {author}, "track_name": {title}}, &exact)
	switch {
	case err == nil && exact.PlainLyrics != "":
		return clean(exact.PlainLyrics, title), nil
	case err != nil && !errors.Is(err, ErrNotFound):
		return "", err
	}

	var found []result
	if err := c.fetch(ctx, "/search", url.Values{"q": {strings.TrimSpace(author + " " + title)}}, &found); err != nil {
		return "", err
	}
	hit, ok := lo.Find(found, func(r result) bool { return r.PlainLyrics != "" })
	if !ok {
		return "", ErrNotFound
	}
	return clean(hit.PlainLyrics, title), nil
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values, out any) error {
	reqURL := c.baseURL + path + "?" + params.Encode()
	return retrylimit.WithRetryMax(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return &retrylimit.FatalError{Err: fmt.Errorf("create request: %w", err)}
		}
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("http request: %w", err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return &retrylimit.FatalError{Err: ErrNotFound}
		case resp.StatusCode != http.StatusOK:
			return &statusError{code: resp.StatusCode}
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return &retrylimit.FatalError{Err: fmt.Errorf("decode response: %w", err)}
		}
		return nil
	}, c.lim, attempts)
}

// clean drops a leading line that only repeats the song title.
func clean(text, title string) string {
	text = strings.TrimSpace(text)
	first, rest, ok := strings.Cut(text, "\n")
	if ok && title != "" && strings.Contains(strings.ToLower(first), strings.ToLower(title)) {
		return strings.TrimSpace(rest)
	}
	return text
}
