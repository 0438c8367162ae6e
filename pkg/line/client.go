package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultReplyEndpoint is the production LINE reply API.
const DefaultReplyEndpoint = "https://api.line.me/v2/bot/message/reply"

// ClientConfig configures the reply client.
type ClientConfig struct {
	// ChannelAccessToken is the bot's bearer token.
	ChannelAccessToken string

	// ReplyEndpoint overrides the reply API URL (tests, proxies).
	ReplyEndpoint string

	// Timeout bounds each reply call. Default: 10s.
	Timeout time.Duration
}

// Client delivers reply messages to LINE.
type Client struct {
	cfg    ClientConfig
	client *http.Client
}

// replyRequest is the reply API body.
type replyRequest struct {
	ReplyToken string         `json:"replyToken"`
	Messages   []replyMessage `json:"messages"`
}

type replyMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewClient creates a LINE reply client.
func NewClient(cfg ClientConfig) *Client {
	if cfg.ReplyEndpoint == "" {
		cfg.ReplyEndpoint = DefaultReplyEndpoint
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Reply sends one text message against a reply token.
func (c *Client) Reply(ctx context.Context, replyToken, text string) error {
	body, err := json.Marshal(replyRequest{
		ReplyToken: replyToken,
		Messages:   []replyMessage{{Type: "text", Text: text}},
	})
	if err != nil {
		return fmt.Errorf("failed to encode reply: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.ReplyEndpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.ChannelAccessToken)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("reply request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("reply rejected with status %d: %s", resp.StatusCode, raw)
	}
	return nil
}
