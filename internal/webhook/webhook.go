// Package webhook triggers home-automation events over the IFTTT maker
// webhook API.
package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

const defaultBaseURL = "https://maker.ifttt.com"

// Client fires the toggle_light maker event. Failures are logged and
// never surfaced to the caller; a light that stays off must not break
// the conversation.
type Client struct {
	key     string
	baseURL string
	http    *http.Client
}

func NewClient(key string) *Client {
	return &Client{
		key:     key,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// WithBaseURL overrides the IFTTT endpoint. Used by tests.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = url
	return c
}

// Trigger fires the toggle_light event in the background.
func (c *Client) Trigger(command string) {
	go func() {
		if err := c.send(command); err != nil {
			log.Printf("Warning: light webhook failed: %v", err)
		}
	}()
}

func (c *Client) send(command string) error {
	if c.key == "" {
		return fmt.Errorf("IFTTT webhook key not configured")
	}

	body, err := json.Marshal(map[string]string{"value1": command})
	if err != nil {
		return fmt.Errorf("encoding webhook payload: %w", err)
	}

	url := fmt.Sprintf("%s/trigger/toggle_light/with/key/%s", c.baseURL, c.key)
	resp, err := c.http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
