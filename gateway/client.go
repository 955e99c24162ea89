package gateway

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/mentorbridge/aigate/cache"
	"github.com/mentorbridge/aigate/observe"
	"github.com/mentorbridge/aigate/resilience"
	"github.com/mentorbridge/aigate/transport"
)

// Sentinel errors for client construction.
var (
	ErrNilTransport = errors.New("gateway: transport is required")
)

// Transport performs the HTTP exchange for one call. Satisfied by
// *transport.Client; tests substitute stubs.
type Transport interface {
	Do(ctx context.Context, req transport.Request) (*transport.Response, error)
}

// Options configures a Client. Only Transport is required; every
// other dependency defaults to an inert implementation.
type Options struct {
	// Transport performs the network calls.
	Transport Transport

	// Cache stores cacheable responses. Nil disables caching.
	Cache cache.Cache

	// Keyer derives cache keys. Nil uses the default namespace.
	Keyer *cache.Keyer

	// TTL assigns per-endpoint freshness. Zero value uses the stock
	// table.
	TTL cache.TTLPolicy

	// Notifier receives success/error/rate-limit events. Nil drops
	// them.
	Notifier Notifier

	// Logger, Metrics, Tracer observe calls. Nil means noop.
	Logger  observe.Logger
	Metrics observe.Metrics
	Tracer  observe.Tracer

	// Limiter optionally throttles outbound calls client-side. Nil
	// means no local throttling; the core never suppresses calls on
	// its own.
	Limiter *resilience.Limiter
}

// Client is the gateway to the AI-backed API. Construct with New;
// the zero value is not usable.
type Client struct {
	transport Transport
	cache     cache.Cache
	keyer     *cache.Keyer
	ttl       cache.TTLPolicy
	notifier  Notifier
	logger    observe.Logger
	metrics   observe.Metrics
	tracer    observe.Tracer
	limiter   *resilience.Limiter

	rate     RateState
	inflight singleflight.Group

	now func() time.Time
}

// New creates a gateway client from opts.
func New(opts Options) (*Client, error) {
	if opts.Transport == nil {
		return nil, ErrNilTransport
	}
	c := &Client{
		transport: opts.Transport,
		cache:     opts.Cache,
		keyer:     opts.Keyer,
		ttl:       opts.TTL,
		notifier:  opts.Notifier,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		tracer:    opts.Tracer,
		limiter:   opts.Limiter,
		now:       time.Now,
	}
	if c.cache == nil {
		c.cache = cache.NopCache{}
	}
	if c.keyer == nil {
		c.keyer = cache.NewKeyer("")
	}
	if c.ttl.IsZero() {
		c.ttl = cache.DefaultTTLPolicy()
	}
	if c.notifier == nil {
		c.notifier = NopNotifier()
	}
	if c.logger == nil {
		c.logger = observe.NopLogger()
	}
	if c.metrics == nil {
		c.metrics = observe.NopMetrics()
	}
	if c.tracer == nil {
		c.tracer = observe.NopTracer()
	}
	return c, nil
}

// RateState exposes the client's rate-limit observation for callers
// that want to throttle themselves.
func (c *Client) RateState() *RateState {
	return &c.rate
}

// Call invokes an arbitrary endpoint. keyParts are the semantically
// relevant inputs; they are hashed into the cache key when the
// endpoint is cacheable and ignored otherwise.
func (c *Client) Call(ctx context.Context, endpoint, method string, body any, keyParts ...string) Result {
	var key string
	if c.ttl.Cacheable(endpoint) {
		key = c.keyer.Key(endpoint, keyParts...)
	}
	return c.call(ctx, endpoint, method, body, key)
}

// call is the single primitive behind every endpoint method. An
// empty key means the call is never cached.
func (c *Client) call(ctx context.Context, endpoint, method string, body any, key string) Result {
	start := c.now()
	ctx, span := c.tracer.StartCall(ctx, endpoint)

	res := c.dispatch(ctx, endpoint, method, body, key)

	errKind := ""
	if !res.OK {
		errKind = res.Err.Kind.String()
	}
	c.tracer.EndCall(span, errKind, res.Meta.Cached)
	c.metrics.RecordCall(ctx, endpoint, c.now().Sub(start), errKind, res.Meta.Cached)
	return res
}

func (c *Client) dispatch(ctx context.Context, endpoint, method string, body any, key string) Result {
	cacheable := key != "" && c.ttl.Cacheable(endpoint)

	if cacheable {
		if data, ok := c.cache.Get(ctx, key); ok {
			c.logger.Debug(ctx, "cache hit",
				observe.String("endpoint", endpoint),
				observe.String("key", key),
			)
			return success(data, true)
		}
	}

	resp, err := c.fetch(ctx, endpoint, method, body, key, cacheable)
	return c.classify(ctx, endpoint, key, cacheable, resp, err)
}

// fetch performs the network call. Concurrent identical cacheable
// calls collapse onto one in-flight request keyed by the cache key;
// uncacheable endpoints always reach the network individually.
func (c *Client) fetch(ctx context.Context, endpoint, method string, body any, key string, cacheable bool) (*transport.Response, error) {
	do := func() (*transport.Response, error) {
		var resp *transport.Response
		op := func(ctx context.Context) error {
			var err error
			resp, err = c.transport.Do(ctx, transport.Request{
				Path:   endpoint,
				Method: method,
				Body:   body,
			})
			return err
		}
		var err error
		if c.limiter != nil {
			err = c.limiter.Execute(ctx, op)
		} else {
			err = op(ctx)
		}
		return resp, err
	}

	if !cacheable {
		return do()
	}
	v, err, _ := c.inflight.Do(key, func() (any, error) {
		return do()
	})
	resp, _ := v.(*transport.Response)
	return resp, err
}

// classify turns the raw transport outcome into the caller-facing
// Result, updates RateState, populates the cache, and informs the
// Notifier. No transport error ever escapes this boundary.
func (c *Client) classify(ctx context.Context, endpoint, key string, cacheable bool, resp *transport.Response, err error) Result {
	switch {
	case errors.Is(err, resilience.ErrRateLimitExceeded):
		// Local throttle rejection: no upstream 429 was observed, so
		// RateState stays untouched.
		c.notify(ctx, EventRateLimited, endpoint, "client-side rate limit")
		return failure(KindRateLimited, err.Error(), 0)

	case err != nil:
		c.logger.Warn(ctx, "network failure",
			observe.String("endpoint", endpoint),
			observe.Error(err),
		)
		c.notify(ctx, EventError, endpoint, "network error")
		return failure(KindNetwork, err.Error(), 0)

	case resp.Status == 429:
		c.rate.mark(c.now())
		c.logger.Warn(ctx, "rate limited upstream",
			observe.String("endpoint", endpoint),
		)
		c.notify(ctx, EventRateLimited, endpoint, "rate limited, try again shortly")
		return failure(KindRateLimited, envelopeMessage(resp, "rate limited"), resp.Status)

	case resp.Malformed:
		c.notify(ctx, EventError, endpoint, transport.BadJSONMessage)
		return failure(KindMalformedResponse, transport.BadJSONMessage, resp.Status)

	case resp.Status < 200 || resp.Status > 299 || !resp.Envelope.OK:
		msg := envelopeMessage(resp, "request failed")
		c.notify(ctx, EventError, endpoint, msg)
		return failure(KindUpstream, msg, resp.Status)

	default:
		if cacheable {
			// Best-effort population; a failed write must not fail
			// the call.
			_ = c.cache.Set(ctx, key, resp.Envelope.Data, c.ttl.TTLFor(endpoint))
		}
		c.notify(ctx, EventSuccess, endpoint, "")
		return success(resp.Envelope.Data, false)
	}
}

func (c *Client) notify(ctx context.Context, kind EventKind, endpoint, message string) {
	c.notifier.Notify(ctx, Event{Kind: kind, Endpoint: endpoint, Message: message})
}

func envelopeMessage(resp *transport.Response, fallback string) string {
	if resp.Envelope.Error != nil && resp.Envelope.Error.Message != "" {
		return resp.Envelope.Error.Message
	}
	return fallback
}
