package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

type ErrorKind string

const (
	ErrFloodWait      ErrorKind = "flood_wait"
	ErrInvalidChannel ErrorKind = "invalid_channel"
	ErrTransient      ErrorKind = "transient"
)

// SendError is the classified result of a failed send. Wait carries the
// mandatory cool-down for flood waits.
type SendError struct {
	Kind    ErrorKind
	Message string
	Wait    time.Duration
}

func (e *SendError) Error() string {
	if e.Wait > 0 {
		return fmt.Sprintf("%s: %s (wait %s)", e.Kind, e.Message, e.Wait)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Publisher delivers text to a channel and returns the message id.
type Publisher interface {
	Send(ctx context.Context, channel, text string) (int64, error)
}

// BotClient publishes through the Telegram Bot API.
type BotClient struct {
	token   string
	baseURL string
	client  *http.Client
}

func NewBotClient(token string) *BotClient {
	return &BotClient{
		token:   token,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts text to the channel. Flood waits come back as a SendError
// carrying the wait the API demanded; an unknown or inaccessible channel
// is ErrInvalidChannel; everything else is ErrTransient.
func (c *BotClient) Send(ctx context.Context, channel, text string) (int64, error) {
	if c.token == "" || channel == "" {
		return 0, &SendError{Kind: ErrInvalidChannel, Message: "telegram publisher misconfigured"}
	}

	channel = strings.TrimPrefix(channel, "@")
	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
	form := url.Values{}
	form.Set("chat_id", "@"+channel)
	form.Set("text", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, &SendError{Kind: ErrTransient, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, &SendError{Kind: ErrTransient, Message: err.Error()}
	}
	defer resp.Body.Close()

	var body apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, &SendError{Kind: ErrTransient, Message: fmt.Sprintf("decode response: %v", err)}
	}

	if body.OK {
		return body.Result.MessageID, nil
	}

	return 0, classify(&body)
}

func classify(body *apiResponse) *SendError {
	desc := body.Description

	if body.ErrorCode == http.StatusTooManyRequests {
		wait := time.Duration(body.Parameters.RetryAfter) * time.Second
		return &SendError{Kind: ErrFloodWait, Message: desc, Wait: wait}
	}

	lower := strings.ToLower(desc)
	if body.ErrorCode == http.StatusForbidden ||
		strings.Contains(lower, "chat not found") ||
		strings.Contains(lower, "channel") {
		return &SendError{Kind: ErrInvalidChannel, Message: desc}
	}

	return &SendError{Kind: ErrTransient, Message: desc}
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code"`
	Description string `json:"description"`
	Parameters  struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
	Result struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}
