package lavalink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/keshon/deejay/pkg/retrylimit"
)

const loadAttempts = 3

var ErrNotReady = errors.New("lavalink node not ready")

// StatusError is a non-2xx REST response.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("lavalink: status %d", e.Code)
	}
	return fmt.Sprintf("lavalink: status %d: %s", e.Code, e.Message)
}

// StatusCode lets retrylimit classify the error.
func (e *StatusError) StatusCode() int { return e.Code }

// Client is a Lavalink v4 REST client.
type Client struct {
	baseURL  string
	password string
	http     *http.Client
	lim      *retrylimit.AdaptiveLimiter
}

// NewClient returns a client for the node at baseURL, e.g. http://localhost:2233.
func NewClient(baseURL, password string) *Client {
	return &Client{
		baseURL:  baseURL,
		password: password,
		http:     &http.Client{Timeout: 10 * time.Second},
		lim:      retrylimit.NewAdaptiveLimiter(10, 1, 50, 1, 0.5),
	}
}

// LoadTracks resolves identifier, retrying transient failures.
func (c *Client) LoadTracks(ctx context.Context, identifier string) (*LoadResult, error) {
	var res LoadResult
	path := "/v4/loadtracks?identifier=" + url.QueryEscape(identifier)
	err := retrylimit.WithRetryMax(ctx, func() error {
		err := c.do(ctx, http.MethodGet, path, nil, &res)
		var se *StatusError
		if errors.As(err, &se) && se.Code >= 400 && se.Code < 500 && se.Code != http.StatusTooManyRequests {
			return &retrylimit.FatalError{Err: err}
		}
		return err
	}, c.lim, loadAttempts)
	if err != nil {
		return nil, fmt.Errorf("load tracks: %w", err)
	}
	return &res, nil
}

// UpdatePlayer patches the guild's player, creating it when absent.
func (c *Client) UpdatePlayer(ctx context.Context, sessionID string, guildID snowflake.ID, u PlayerUpdate) error {
	if sessionID == "" {
		return ErrNotReady
	}
	path := fmt.Sprintf("/v4/sessions/%s/players/%s", sessionID, guildID)
	return c.do(ctx, http.MethodPatch, path, u, nil)
}

// DestroyPlayer removes the guild's player from the node.
func (c *Client) DestroyPlayer(ctx context.Context, sessionID string, guildID snowflake.ID) error {
	if sessionID == "" {
		return ErrNotReady
	}
	path := fmt.Sprintf("/v4/sessions/%s/players/%s", sessionID, guildID)
	err := c.do(ctx, http.MethodDelete, path, nil, nil)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return nil
	}
	return err
}

// EnableResuming keeps players alive for timeout after the websocket drops.
func (c *Client) EnableResuming(ctx context.Context, sessionID string, timeout time.Duration) error {
	body := struct {
		Resuming bool  `json:"resuming"`
		Timeout  int64 `json:"timeout"`
	}{true, int64(timeout / time.Second)}
	return c.do(ctx, http.MethodPatch, "/v4/sessions/"+sessionID, body, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader = http.NoBody
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", c.password)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &StatusError{Code: resp.StatusCode, Message: e.Message}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
