// Package daraja is a minimal client for the Safaricom Daraja STK push API.
package daraja

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	stkPushPath  = "/mpesa/stkpush/v1/processrequest"
	stkQueryPath = "/mpesa/stkpushquery/v1/query"

	// TransactionTypePayBill is the STK push transaction type for paybill
	// shortcodes.
	TransactionTypePayBill = "CustomerPayBillOnline"
)

type Client struct {
	BaseURL    string
	Tokens     TokenSource
	HTTPClient *http.Client
}

func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{BaseURL: baseURL, Tokens: tokens}
}

// Password builds the Lipa na M-Pesa password for the given timestamp:
// base64(shortcode + passkey + timestamp).
func Password(shortCode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
}

// Timestamp formats t in the YYYYMMDDHHmmss form Daraja expects.
func Timestamp(t time.Time) string {
	return t.Format("20060102150405")
}

func (c *Client) STKPush(ctx context.Context, req *STKPushRequest) (*STKPushResponse, error) {
	var out STKPushResponse
	if err := c.post(ctx, stkPushPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) STKQuery(ctx context.Context, req *STKQueryRequest) (*STKQueryResponse, error) {
	var out STKQueryResponse
	if err := c.post(ctx, stkQueryPath, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	token, err := c.Tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: body}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
