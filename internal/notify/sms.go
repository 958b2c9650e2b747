package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// SMSSender delivers one SMS to one E.164 recipient.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) error
}

// SMSClient talks to a 46elks-style SMS gateway: basic-auth form POST,
// one message per call.
type SMSClient struct {
	BaseURL    string
	Username   string
	Password   string
	From       string // alphanumeric sender id, e.g. "KalasKoll"
	HTTPClient *http.Client
}

func NewSMSClient(baseURL, username, password, from string) *SMSClient {
	return &SMSClient{
		BaseURL:  baseURL,
		Username: username,
		Password: password,
		From:     from,
		HTTPClient: &http.Client{
			// The gateway occasionally queues for a while; match the
			// explicit 30s abort used on outbound calls.
			Timeout: 30 * time.Second,
		},
	}
}

func (c *SMSClient) SendSMS(ctx context.Context, to, message string) error {
	form := url.Values{}
	form.Set("from", c.From)
	form.Set("to", to)
	form.Set("message", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/sms", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create sms request: %w", err)
	}
	req.SetBasicAuth(c.Username, c.Password)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("send sms: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}
