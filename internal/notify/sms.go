package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSGateway delivers over an HTTP SMS provider (form-encoded POST).
type SMSGateway struct {
	endpoint string
	apiKey   string
	sender   string
	client   *http.Client
}

// SMSOption configures the SMS gateway.
type SMSOption func(*SMSGateway)

// WithSMSClient overrides the HTTP client.
func WithSMSClient(client *http.Client) SMSOption {
	return func(g *SMSGateway) {
		if client != nil {
			g.client = client
		}
	}
}

// NewSMSGateway constructs a live SMS gateway.
func NewSMSGateway(endpoint, apiKey, sender string, opts ...SMSOption) (*SMSGateway, error) {
	if endpoint == "" {
		return nil, errors.New("sms gateway: empty endpoint")
	}
	if apiKey == "" {
		return nil, errors.New("sms gateway: empty api key")
	}
	g := &SMSGateway{
		endpoint: endpoint,
		apiKey:   apiKey,
		sender:   sender,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Send posts one SMS to destination
func (g *SMSGateway) Send(ctx context.Context, destination, body string) error {
	if destination == "" {
		return errors.New("sms gateway: empty destination")
	}

	form := url.Values{}
	form.Set("to", destination)
	form.Set("from", g.sender)
	form.Set("body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway: non-2xx response %d", resp.StatusCode)
	}
	return nil
}

// Live always returns true for the real gateway
func (g *SMSGateway) Live() bool { return true }
