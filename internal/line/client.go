// internal/line/client.go

package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ElephantWatchAPI/internal/config"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

var ErrNotConfigured = errors.New("line: no channel credentials configured")

// APIError is a non-2xx reply from the messaging API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("line: push failed with status %d: %s", e.StatusCode, e.Body)
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []FlexMessage `json:"messages"`
}

// Client pushes messages with a bearer token from either a long-lived
// channel access token or the client-credentials flow.
type Client struct {
	http    *http.Client
	baseURL string
}

func NewClient(ctx context.Context, cfg config.LineConfig) (*Client, error) {
	var ts oauth2.TokenSource
	switch {
	case cfg.ChannelAccessToken != "":
		ts = oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: cfg.ChannelAccessToken,
			TokenType:   "Bearer",
		})
	case cfg.ChannelID != "" && cfg.ChannelSecret != "":
		cc := &clientcredentials.Config{
			ClientID:     cfg.ChannelID,
			ClientSecret: cfg.ChannelSecret,
			TokenURL:     cfg.TokenURL,
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		ts = cc.TokenSource(ctx)
	default:
		return nil, ErrNotConfigured
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := &http.Client{Timeout: timeout}
	httpClient := oauth2.NewClient(context.WithValue(ctx, oauth2.HTTPClient, base), ts)
	httpClient.Timeout = timeout

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimSuffix(cfg.APIBaseURL, "/"),
	}, nil
}

// Push sends messages to a single user.
func (c *Client) Push(ctx context.Context, to string, msgs ...FlexMessage) error {
	payload, err := json.Marshal(pushRequest{To: to, Messages: msgs})
	if err != nil {
		return fmt.Errorf("line: marshal push: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/bot/message/push", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("line: build push: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Line-Retry-Key", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("line: push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	return nil
}
