package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client sends SMS through a Twilio-compatible messaging API.
type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	AccountSID string
	AuthToken  string
}

func (c Client) Send(ctx context.Context, from, to, message string) error {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 20 * time.Second}
	}
	if c.BaseURL == "" || c.AccountSID == "" || c.AuthToken == "" {
		return fmt.Errorf("missing sms credentials")
	}

	form := url.Values{}
	form.Set("From", from)
	form.Set("To", to)
	form.Set("Body", message)

	u := fmt.Sprintf("%s/Accounts/%s/Messages.json", c.BaseURL, c.AccountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.AccountSID, c.AuthToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		if len(b) > 0 {
			return fmt.Errorf("sms api error: status=%d body=%s", resp.StatusCode, string(b))
		}
		return fmt.Errorf("sms api error: status=%d", resp.StatusCode)
	}
	return nil
}
