// Package remote talks to the durable layout endpoint backing cross-device
// preference sync. It implements layout.RemoteStore over HTTP JSON.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"spendshare/internal/layout"
)

type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client rooted at baseURL, e.g.
// https://sync.example.com/layouts. Layout resources live at
// {baseURL}/{ownerID}/{reportType}.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) layoutURL(ownerID, reportType string) string {
	return fmt.Sprintf("%s/%s/%s", c.baseURL,
		url.PathEscape(ownerID), url.PathEscape(reportType))
}

// FetchLayout implements layout.RemoteStore. A 404 means the remote has no
// saved layout and is not an error.
func (c *Client) FetchLayout(ctx context.Context, ownerID, reportType string) ([]layout.Section, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.layoutURL(ownerID, reportType), nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch layout: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch layout: unexpected status %d", resp.StatusCode)
	}

	var sections []layout.Section
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&sections); err != nil {
		return nil, fmt.Errorf("decode layout response: %w", err)
	}
	return sections, nil
}

// PushLayout implements layout.RemoteStore. The full section list replaces
// whatever the remote holds.
func (c *Client) PushLayout(ctx context.Context, ownerID, reportType string, sections []layout.Section) error {
	body, err := json.Marshal(sections)
	if err != nil {
		return fmt.Errorf("encode layout: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.layoutURL(ownerID, reportType), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("push layout: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("push layout: unexpected status %d", resp.StatusCode)
	}
	return nil
}
