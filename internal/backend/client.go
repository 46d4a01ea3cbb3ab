package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"
)

const maxBody = 1 << 20

// Client talks to the remote booking backend. Every call runs under its
// own deadline; hitting it surfaces as ErrTimeout.
type Client struct {
	BaseURL  string
	HTTP     *http.Client
	Timeout  time.Duration
	Location *time.Location
}

func New(baseURL string, timeout time.Duration, loc *time.Location) *Client {
	if loc == nil {
		loc = time.UTC
	}
	return &Client{
		BaseURL:  strings.TrimRight(baseURL, "/"),
		HTTP:     &http.Client{},
		Timeout:  timeout,
		Location: loc,
	}
}

// Submit posts the booking. Failures come back as *RejectionError,
// ErrTimeout, *TransportError or *UnknownError.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) (*Receipt, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode submit request: %w", err)
	}
	status, resp, err := c.do(ctx, http.MethodPost, "/tables-appointment/bookings", body)
	if err != nil {
		return nil, err
	}
	if status >= 200 && status < 300 {
		// the booking went through either way; an unreadable receipt must not
		// turn it into a failure that invites a second submission
		var rc Receipt
		if err := json.Unmarshal(resp, &rc); err != nil {
			log.Printf("backend: decode receipt status=%d: %v", status, err)
		}
		return &rc, nil
	}
	if rej := classify(resp, c.Location); rej != nil {
		return nil, rej
	}
	return nil, &UnknownError{Status: status, Body: string(resp)}
}

func (c *Client) Settings(ctx context.Context) (Settings, error) {
	var s Settings
	status, resp, err := c.do(ctx, http.MethodGet, "/system/settings", nil)
	if err != nil {
		return s, err
	}
	if status != http.StatusOK {
		return s, &UnknownError{Status: status, Body: string(resp)}
	}
	if err := json.Unmarshal(resp, &s); err != nil {
		return s, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte) (int, []byte, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, transportErr(err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return 0, nil, transportErr(err)
	}
	return resp.StatusCode, b, nil
}

func transportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrTimeout
	}
	return &TransportError{Err: err}
}
