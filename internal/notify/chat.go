package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

type chatPayload struct {
	MsgType string   `json:"msgtype"`
	Text    chatText `json:"text"`
}

type chatText struct {
	Mention string `json:"mention,omitempty"`
	Content string `json:"content"`
}

// ChatGateway posts alerts to a chat webhook (DingTalk/WeCom-compatible
// text payload).
type ChatGateway struct {
	url    string
	client *http.Client
}

// ChatOption configures the chat gateway.
type ChatOption func(*ChatGateway)

// WithChatClient overrides the HTTP client.
func WithChatClient(client *http.Client) ChatOption {
	return func(g *ChatGateway) {
		if client != nil {
			g.client = client
		}
	}
}

// NewChatGateway constructs a live chat webhook gateway.
func NewChatGateway(url string, opts ...ChatOption) (*ChatGateway, error) {
	if url == "" {
		return nil, errors.New("chat gateway: empty url")
	}
	g := &ChatGateway{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Send posts one message; destination is the recipient's chat handle
// included as a mention
func (g *ChatGateway) Send(ctx context.Context, destination, body string) error {
	payload := chatPayload{
		MsgType: "text",
		Text:    chatText{Mention: destination, Content: body},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("chat gateway: non-2xx response %d", resp.StatusCode)
	}
	return nil
}

// Live always returns true for the real gateway
func (g *ChatGateway) Live() bool { return true }
