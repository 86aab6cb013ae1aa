// Package calendar talks to the calendar bridge, a web app that accepts
// JSON commands over POST and manages events on the shared room calendar.
package calendar

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// EventSpec describes an event to create.
type EventSpec struct {
	Summary     string
	Description string
	Location    string
	Start       time.Time
	End         time.Time
}

// Event is an entry reported by the bridge.
type Event struct {
	ID          string `json:"id"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
}

// Client is an HTTP client for the calendar bridge.
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
	Success bool    `json:"success"`
	Error   string  `json:"error"`
	EventID string  `json:"eventId"`
	Events  []Event `json:"events"`
}

// CreateEvent creates an event and returns the bridge assigned id.
func (c *Client) CreateEvent(ctx context.Context, spec EventSpec) (string, error) {
	payload := map[string]any{
		"action":      "create",
		"summary":     spec.Summary,
		"description": spec.Description,
		"location":    spec.Location,
		"start":       spec.Start.Format(time.RFC3339),
		"end":         spec.End.Format(time.RFC3339),
	}

	resp, err := c.post(ctx, payload)
	if err != nil {
		return "", fmt.Errorf("calendar create failed: %w", err)
	}
	return resp.EventID, nil
}

// DeleteEvent removes an event by id.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	payload := map[string]any{
		"action":  "delete",
		"eventId": eventID,
	}

	if _, err := c.post(ctx, payload); err != nil {
		return fmt.Errorf("calendar delete failed: %w", err)
	}
	return nil
}

// ListEvents returns the events between from and to.
func (c *Client) ListEvents(ctx context.Context, from, to time.Time) ([]Event, error) {
	payload := map[string]any{
		"action": "list",
		"from":   from.Format(time.RFC3339),
		"to":     to.Format(time.RFC3339),
	}

	resp, err := c.post(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("calendar list failed: %w", err)
	}
	return resp.Events, nil
}

func (c *Client) post(ctx context.Context, payload map[string]any) (bridgeResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return bridgeResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return bridgeResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return bridgeResponse{}, err
	}
	defer httpResp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(httpResp.Body, 1<<20))
	if err != nil {
		return bridgeResponse{}, err
	}
	if httpResp.StatusCode != http.StatusOK {
		return bridgeResponse{}, fmt.Errorf("bridge returned status %d", httpResp.StatusCode)
	}

	var resp bridgeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return bridgeResponse{}, fmt.Errorf("bridge returned invalid JSON: %w", err)
	}
	if !resp.Success {
		if resp.Error == "" {
			resp.Error = "unspecified bridge error"
		}
		return bridgeResponse{}, fmt.Errorf("bridge reported failure: %s", resp.Error)
	}
	return resp, nil
}
