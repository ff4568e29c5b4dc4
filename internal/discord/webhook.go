package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// defaultRetryAfter is used when a 429 response carries no parseable
// Retry-After header.
const defaultRetryAfter = 30 * time.Second

type sendStatus int

const (
	sendOK sendStatus = iota
	sendRateLimited
	sendFailed
)

func newHTTPClient(timeout time.Duration) *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 10
	t.MaxConnsPerHost = 10
	t.MaxIdleConnsPerHost = 10
	t.ResponseHeaderTimeout = timeout
	t.IdleConnTimeout = time.Minute

	return &http.Client{
		Timeout:   timeout,
		Transport: t,
	}
}

// post delivers one webhook payload. A 2xx response is success. 429 maps
// to sendRateLimited with the server-requested wait. Any other status maps
// to sendFailed with the response body (best effort) folded into err.
func (c *Client) post(ctx context.Context, embeds []*Embed) (sendStatus, time.Duration, error) {
	body, err := json.Marshal(payload{Content: c.content, Embeds: embeds})
	if err != nil {
		return sendFailed, 0, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return sendFailed, 0, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "hookrelay")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return sendFailed, 0, fmt.Errorf("http post: %w", err)
	}
	defer func() {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return sendOK, 0, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return sendRateLimited, retryAfter(resp.Header.Get("Retry-After")), nil
	default:
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return sendFailed, 0, fmt.Errorf("webhook responded %s: %s", resp.Status, string(b))
	}
}

// retryAfter parses a Retry-After header given in whole seconds.
func retryAfter(h string) time.Duration {
	secs, err := strconv.Atoi(h)
	if err != nil || secs < 0 {
		return defaultRetryAfter
	}
	return time.Duration(secs) * time.Second
}
