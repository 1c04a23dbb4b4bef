package onesignal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the OneSignal REST API. Recipients are targeted by
// user tags; the booking app tags every device with its account e-mail.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	AppID      string
	APIKey     string
}

// Tag is a single OneSignal tag filter entry. Consecutive tags are
// OR-combined via {"operator": "OR"} entries.
type Tag struct {
	Key      string `json:"key,omitempty"`
	Relation string `json:"relation,omitempty"`
	Value    string `json:"value,omitempty"`
	Operator string `json:"operator,omitempty"`
}

// TagsFromEmails builds an OR-combined e-mail tag filter from recipient
// addresses, lowercased the way devices register them.
func TagsFromEmails(emails []string) []Tag {
	var tags []Tag
	for _, e := range emails {
		if len(tags) > 0 {
			tags = append(tags, Tag{Operator: "OR"})
		}
		tags = append(tags, Tag{Key: "email", Relation: "=", Value: strings.ToLower(e)})
	}
	return tags
}

// Notification is the wire shape of a OneSignal create-notification call.
type Notification struct {
	AppID         string            `json:"app_id"`
	Tags          []Tag             `json:"tags"`
	Data          map[string]any    `json:"data"`
	Title         map[string]string `json:"title"`
	Contents      map[string]string `json:"contents"`
	IOSBadgeType  string            `json:"ios_badgeType"`
	IOSBadgeCount int               `json:"ios_badgeCount"`
	AndroidSound  string            `json:"android_sound"`
	IOSSound      string            `json:"ios_sound"`
	// SendAfter defers delivery, used for night-time opt-outs.
	SendAfter string `json:"send_after,omitempty"`
}

func (c Client) Send(ctx context.Context, n Notification) error {
	if c.AppID == "" || c.APIKey == "" {
		return fmt.Errorf("missing onesignal app id or api key")
	}
	n.AppID = c.AppID

	var resp struct {
		ID     string   `json:"id"`
		Errors []string `json:"errors"`
	}
	if _, err := c.doJSON(ctx, http.MethodPost, "/notifications", n, &resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		return fmt.Errorf("onesignal rejected notification: %s", strings.Join(resp.Errors, "; "))
	}
	return nil
}

func (c Client) doJSON(ctx context.Context, method, path string, reqBody any, respBody any) (int, error) {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 20 * time.Second}
	}
	if c.BaseURL == "" {
		c.BaseURL = "https://onesignal.com/api/v1"
	}

	var buf bytes.Buffer
	if reqBody != nil {
		if err := json.NewEncoder(&buf).Encode(reqBody); err != nil {
			return 0, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, &buf)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Basic "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	b, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return resp.StatusCode, readErr
	}

	// Surface the error body for non-2xx so callers can see bad app ids,
	// malformed tag filters, etc.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if len(b) > 0 {
			return resp.StatusCode, fmt.Errorf("onesignal api error: status=%d body=%s", resp.StatusCode, string(b))
		}
		return resp.StatusCode, fmt.Errorf("onesignal api error: status=%d", resp.StatusCode)
	}

	if respBody != nil && len(b) > 0 {
		if err := json.Unmarshal(b, respBody); err != nil {
			return resp.StatusCode, fmt.Errorf("decode onesignal response failed: %w body=%s", err, string(b))
		}
	}

	return resp.StatusCode, nil
}
