package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// emptyReply is returned in place of a blank 2xx body from the chat API.
const emptyReply = "No reply received, please try again."

// pingMessage is the canned probe sent by Ping.
const pingMessage = "hello"

func NewHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          200,
		MaxIdleConnsPerHost:   100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// Client talks to the third-party chat API: one text message in, one text
// reply out.
type Client struct {
	base        *url.URL
	http        *http.Client
	timeout     time.Duration
	testTimeout time.Duration
}

func New(rawURL string, timeout, testTimeout time.Duration) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream url %q must be absolute", rawURL)
	}
	return &Client{
		base:        u,
		http:        &http.Client{Transport: NewHTTPTransport()},
		timeout:     timeout,
		testTimeout: testTimeout,
	}, nil
}

// Send forwards one user message and returns the chat API's trimmed text
// reply. Failures come back as ErrTimeout, ErrConnection or *StatusError.
func (c *Client) Send(ctx context.Context, message string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	status, body, _, err := c.do(ctx, message)
	if err != nil {
		return "", err
	}
	if status < 200 || status > 299 {
		return "", &StatusError{Code: status, Body: strings.TrimSpace(body)}
	}

	reply := strings.TrimSpace(body)
	if reply == "" {
		reply = emptyReply
	}
	return reply, nil
}

// TestResult is the raw outcome of a connectivity probe.
type TestResult struct {
	StatusCode int    `json:"status_code"`
	Response   string `json:"response"`
	URL        string `json:"url"`
}

// Ping issues a lightweight probe with a canned message under the shorter
// test timeout. Unlike Send, a non-2xx status is reported as data, not error.
func (c *Client) Ping(ctx context.Context) (TestResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.testTimeout)
	defer cancel()

	status, body, finalURL, err := c.do(ctx, pingMessage)
	if err != nil {
		return TestResult{}, err
	}
	return TestResult{StatusCode: status, Response: body, URL: finalURL}, nil
}

func (c *Client) do(ctx context.Context, message string) (status int, body, finalURL string, err error) {
	u := *c.base
	q := u.Query()
	q.Set("message", message)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, "", "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", "", classify(err)
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", "", classify(err)
	}
	return resp.StatusCode, string(b), u.String(), nil
}

// classify tags a transport error as timeout or connection failure.
func classify(err error) error {
	var nerr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &nerr) && nerr.Timeout()) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrConnection, err)
}
