// Package mail delivers customer email through the mail bridge, a web app
// that accepts JSON messages over POST and sends them from the business
// mailbox.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Message is a single outbound email.
type Message struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	HTMLBody string `json:"htmlBody,omitempty"`
}

// Client is an HTTP client for the mail bridge.
type Client struct {
	url        string
	httpClient *http.Client
}

// NewClient builds a client for the bridge at url. The timeout bounds each
// request end to end.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type bridgeResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// Send delivers one message. The bridge does its own sending asynchronously;
// a success response only means the message was accepted.
func (c *Client) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("mail send failed: %w", err)
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return err
	}
	if httpResp.StatusCode != http.StatusOK {
		return fmt.Errorf("mail bridge returned status %d", httpResp.StatusCode)
	}

	var resp bridgeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return fmt.Errorf("mail bridge returned invalid JSON: %w", err)
	}
	if !resp.Success {
		if resp.Error == "" {
			resp.Error = "unspecified bridge error"
		}
		return fmt.Errorf("mail bridge reported failure: %s", resp.Error)
	}
	return nil
}
