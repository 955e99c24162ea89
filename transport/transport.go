package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mentorbridge/aigate/observe"
	"github.com/mentorbridge/aigate/resilience"
)

// BadJSONMessage is the synthetic error message substituted when a
// response body cannot be decoded as JSON.
const BadJSONMessage = "Bad JSON"

// errRetryableStatus marks an HTTP status worth another attempt. It
// never escapes Do.
var errRetryableStatus = errors.New("transport: retryable status")

// Policy bounds a call: per-attempt timeout plus a decrementing retry
// budget with doubling backoff.
type Policy struct {
	// Timeout bounds every individual attempt. Default: 15s.
	Timeout time.Duration

	// MaxRetries is the number of retries after the initial attempt.
	// Default: 1.
	MaxRetries int

	// InitialDelay is the wait before the first retry; it doubles
	// after each attempt. Default: 600ms.
	InitialDelay time.Duration

	// Jitter adds randomness to the backoff waits. Off by default.
	Jitter bool
}

// DefaultPolicy returns the stock call policy.
func DefaultPolicy() Policy {
	return Policy{
		Timeout:      15 * time.Second,
		MaxRetries:   1,
		InitialDelay: 600 * time.Millisecond,
	}
}

func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.Timeout <= 0 {
		p.Timeout = d.Timeout
	}
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}
	if p.InitialDelay <= 0 {
		p.InitialDelay = d.InitialDelay
	}
	return p
}

// Request describes one outbound call.
type Request struct {
	// Path is appended to the client's base URL.
	Path string

	// Method defaults to POST when Body is set, GET otherwise.
	Method string

	// Body, when non-nil, is JSON-encoded into the request.
	Body any

	// Headers override the defaults. Content-Type: application/json
	// is attached unless the caller overrides it here.
	Headers map[string]string
}

// Response is the decoded outcome of a completed HTTP exchange.
type Response struct {
	// Status is the HTTP status code of the final attempt.
	Status int

	// Envelope is the decoded response body. A body that is not
	// valid JSON decodes to the synthetic Bad JSON envelope rather
	// than failing the call.
	Envelope Envelope

	// Malformed is set when the body could not be decoded and the
	// synthetic envelope was substituted.
	Malformed bool
}

// Envelope is the backend's uniform response shape.
type Envelope struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error *ErrorBody      `json:"error,omitempty"`
}

// ErrorBody carries the backend's error message.
type ErrorBody struct {
	Message string `json:"message"`
}

// Client issues resilient calls against a fixed base URL.
//
// Contract:
// - Do returns (resp, nil) for every completed HTTP exchange, whatever
//   the status; it returns (nil, err) only when no HTTP response was
//   obtained (timeout, connection failure, encoding failure).
// - Retries are attempted silently for 429 and 5xx while budget
//   remains; the caller only ever sees the final attempt.
type Client struct {
	base   string
	http   *http.Client
	policy Policy
	logger observe.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithPolicy replaces the default call policy.
func WithPolicy(p Policy) Option {
	return func(c *Client) { c.policy = p.withDefaults() }
}

// WithLogger installs a logger for retry and degradation events.
func WithLogger(l observe.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a transport client for the given base URL.
func New(base string, opts ...Option) *Client {
	c := &Client{
		base:   strings.TrimRight(base, "/"),
		http:   &http.Client{},
		policy: DefaultPolicy(),
		logger: observe.NopLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Policy returns the client's call policy.
func (c *Client) Policy() Policy {
	return c.policy
}

// Do performs the call described by req under the client's policy.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	var body []byte
	if req.Body != nil {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("transport: encode request body: %w", err)
		}
		body = b
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
		if body != nil {
			method = http.MethodPost
		}
	}
	url := c.base + "/" + strings.TrimLeft(req.Path, "/")
	requestID := uuid.NewString()

	timeout := resilience.NewTimeout(resilience.TimeoutConfig{Timeout: c.policy.Timeout})
	retry := resilience.NewRetry(resilience.RetryConfig{
		MaxRetries:   c.policy.MaxRetries,
		InitialDelay: c.policy.InitialDelay,
		Jitter:       c.policy.Jitter,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			c.logger.Warn(ctx, "retrying request",
				observe.String("url", url),
				observe.String("request_id", requestID),
				observe.Int("attempt", attempt),
				observe.Duration("delay", delay),
				observe.Error(err),
			)
		},
	})

	var last *Response
	err := retry.Execute(ctx, func(ctx context.Context) error {
		return timeout.Execute(ctx, func(ctx context.Context) error {
			resp, err := c.attempt(ctx, method, url, requestID, body, req.Headers)
			if err != nil {
				return err
			}
			last = resp
			if retryable(resp.Status) {
				return fmt.Errorf("%w: %d", errRetryableStatus, resp.Status)
			}
			return nil
		})
	})

	if err != nil && !errors.Is(err, errRetryableStatus) {
		// No usable HTTP exchange: surface as a network-class error.
		return nil, err
	}
	// Budget exhausted on a retryable status still yields the final
	// response; classification is the gateway's job.
	return last, nil
}

// attempt performs one HTTP round trip and decodes the envelope.
func (c *Client) attempt(ctx context.Context, method, url, requestID string, body []byte, headers map[string]string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("transport: build request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	for k, v := range headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}
	defer httpResp.Body.Close()

	resp := &Response{Status: httpResp.StatusCode}
	if err := json.NewDecoder(httpResp.Body).Decode(&resp.Envelope); err != nil {
		// A malformed body degrades to a synthetic failure payload;
		// a decode error must never crash the call.
		resp.Envelope = Envelope{OK: false, Error: &ErrorBody{Message: BadJSONMessage}}
		resp.Malformed = true
	}
	return resp, nil
}

// retryable reports whether an HTTP status merits another attempt:
// 429 or anything in the 500-599 range.
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status <= 599)
}
