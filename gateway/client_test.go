package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mentorbridge/aigate/cache"
	"github.com/mentorbridge/aigate/resilience"
	"github.com/mentorbridge/aigate/transport"
)

// stubTransport replays scripted outcomes and counts calls.
type stubTransport struct {
	mu      sync.Mutex
	calls   int
	queue   []stubOutcome
	lastReq transport.Request
	release chan struct{} // when set, Do blocks until closed
}

type stubOutcome struct {
	resp *transport.Response
	err  error
}

func (s *stubTransport) Do(ctx context.Context, req transport.Request) (*transport.Response, error) {
	s.mu.Lock()
	s.calls++
	s.lastReq = req
	out := stubOutcome{resp: okResponse(`{"echo":true}`)}
	if len(s.queue) > 0 {
		out = s.queue[0]
		s.queue = s.queue[1:]
	}
	release := s.release
	s.mu.Unlock()

	if release != nil {
		<-release
	}
	return out.resp, out.err
}

func (s *stubTransport) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func okResponse(data string) *transport.Response {
	return &transport.Response{
		Status:   200,
		Envelope: transport.Envelope{OK: true, Data: json.RawMessage(data)},
	}
}

func errResponse(status int, message string) *transport.Response {
	return &transport.Response{
		Status: status,
		Envelope: transport.Envelope{
			OK:    false,
			Error: &transport.ErrorBody{Message: message},
		},
	}
}

// recordingNotifier captures every event for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingNotifier) Notify(_ context.Context, e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingNotifier) kinds() []EventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventKind, len(r.events))
	for i, e := range r.events {
		out[i] = e.Kind
	}
	return out
}

func newTestClient(t *testing.T, tr Transport) (*Client, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	c, err := New(Options{
		Transport: tr,
		Cache:     cache.NewMemoryCache(0),
		Notifier:  notifier,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c, notifier
}

func TestNew_RequiresTransport(t *testing.T) {
	_, err := New(Options{})
	if !errors.Is(err, ErrNilTransport) {
		t.Errorf("New() error = %v, want ErrNilTransport", err)
	}
}

func TestSummary_MissThenHit(t *testing.T) {
	tr := &stubTransport{queue: []stubOutcome{
		{resp: okResponse(`{"summary":{"bullets":["x"],"sentiment":"positive"}}`)},
	}}
	c, _ := newTestClient(t, tr)
	ctx := context.Background()

	first := c.Summary(ctx, "A")
	if !first.OK {
		t.Fatalf("first Summary() failed: %+v", first.Err)
	}
	if first.Meta.Cached {
		t.Error("first call reported cached=true")
	}
	var payload struct {
		Summary struct {
			Bullets   []string `json:"bullets"`
			Sentiment string   `json:"sentiment"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(first.Data, &payload); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if len(payload.Summary.Bullets) != 1 || payload.Summary.Bullets[0] != "x" {
		t.Errorf("payload bullets = %v, want [x]", payload.Summary.Bullets)
	}

	second := c.Summary(ctx, "A")
	if !second.OK {
		t.Fatalf("second Summary() failed: %+v", second.Err)
	}
	if !second.Meta.Cached {
		t.Error("second call reported cached=false, want cache hit")
	}
	if got := tr.callCount(); got != 1 {
		t.Errorf("transport calls = %d, want 1 (second call must not reach the network)", got)
	}
}

func TestSummary_DistinctTextsDistinctEntries(t *testing.T) {
	tr := &stubTransport{}
	c, _ := newTestClient(t, tr)
	ctx := context.Background()

	c.Summary(ctx, "first text")
	c.Summary(ctx, "second text")
	if got := tr.callCount(); got != 2 {
		t.Errorf("transport calls = %d, want 2 for distinct inputs", got)
	}
}

func TestModerate_NeverCached(t *testing.T) {
	tr := &stubTransport{}
	c, _ := newTestClient(t, tr)
	ctx := context.Background()

	c.Moderate(ctx, "the same content")
	c.Moderate(ctx, "the same content")
	if got := tr.callCount(); got != 2 {
		t.Errorf("transport calls = %d, want 2 (moderation is never cached)", got)
	}
}

func TestSuggestTopics_OrderInsensitiveKey(t *testing.T) {
	tr := &stubTransport{}
	c, _ := newTestClient(t, tr)
	ctx := context.Background()

	c.SuggestTopics(ctx, []string{"go", "mentoring", "ai"})
	res := c.SuggestTopics(ctx, []string{"ai", "go", "mentoring"})

	if !res.Meta.Cached {
		t.Error("reordered interest set missed the cache")
	}
	if got := tr.callCount(); got != 1 {
		t.Errorf("transport calls = %d, want 1", got)
	}
}

func TestRateLimited(t *testing.T) {
	tr := &stubTransport{queue: []stubOutcome{
		{resp: errResponse(429, "slow down")},
	}}
	c, notifier := newTestClient(t, tr)

	before := time.Now()
	res := c.Summary(context.Background(), "text")

	if res.OK {
		t.Fatal("Summary() succeeded on a 429")
	}
	if res.Err.Kind != KindRateLimited {
		t.Errorf("Kind = %v, want KindRateLimited", res.Err.Kind)
	}
	if res.Err.HTTPStatus != 429 {
		t.Errorf("HTTPStatus = %d, want 429", res.Err.HTTPStatus)
	}

	at, ok := c.RateState().LastRateLimitedAt()
	if !ok {
		t.Fatal("RateState not marked after 429")
	}
	if at.Before(before) {
		t.Errorf("LastRateLimitedAt = %v, before the call started", at)
	}

	kinds := notifier.kinds()
	if len(kinds) != 1 || kinds[0] != EventRateLimited {
		t.Errorf("notifier events = %v, want [rate_limited]", kinds)
	}
}

func TestNetworkFailure(t *testing.T) {
	tr := &stubTransport{queue: []stubOutcome{
		{err: errors.New("dial tcp: connection refused")},
	}}
	c, notifier := newTestClient(t, tr)

	res := c.Insight(context.Background(), "text")
	if res.OK {
		t.Fatal("Insight() succeeded on a transport error")
	}
	if res.Err.Kind != KindNetwork {
		t.Errorf("Kind = %v, want KindNetwork", res.Err.Kind)
	}

	kinds := notifier.kinds()
	if len(kinds) != 1 || kinds[0] != EventError {
		t.Errorf("notifier events = %v, want [error]", kinds)
	}
}

func TestUpstreamFailure(t *testing.T) {
	tr := &stubTransport{queue: []stubOutcome{
		{resp: errResponse(400, "text too long")},
	}}
	c, _ := newTestClient(t, tr)

	res := c.Rewrite(context.Background(), "text", "formal")
	if res.OK {
		t.Fatal("Rewrite() succeeded on a 400")
	}
	if res.Err.Kind != KindUpstream {
		t.Errorf("Kind = %v, want KindUpstream", res.Err.Kind)
	}
	if res.Err.Message != "text too long" {
		t.Errorf("Message = %q, want upstream message", res.Err.Message)
	}
}

func TestUpstreamFailure_OKFalseWith200(t *testing.T) {
	resp := errResponse(200, "model unavailable")
	tr := &stubTransport{queue: []stubOutcome{{resp: resp}}}
	c, _ := newTestClient(t, tr)

	res := c.Summary(context.Background(), "text")
	if res.OK {
		t.Fatal("Summary() succeeded on an ok:false payload")
	}
	if res.Err.Kind != KindUpstream {
		t.Errorf("Kind = %v, want KindUpstream", res.Err.Kind)
	}
}

func TestMalformedResponse(t *testing.T) {
	tr := &stubTransport{queue: []stubOutcome{
		{resp: &transport.Response{
			Status:    200,
			Envelope:  transport.Envelope{OK: false, Error: &transport.ErrorBody{Message: transport.BadJSONMessage}},
			Malformed: true,
		}},
	}}
	c, _ := newTestClient(t, tr)

	res := c.Summary(context.Background(), "text")
	if res.OK {
		t.Fatal("Summary() succeeded on a malformed body")
	}
	if res.Err.Kind != KindMalformedResponse {
		t.Errorf("Kind = %v, want KindMalformedResponse", res.Err.Kind)
	}
	if res.Err.Message != transport.BadJSONMessage {
		t.Errorf("Message = %q, want %q", res.Err.Message, transport.BadJSONMessage)
	}
}

func TestFailuresAreNotCached(t *testing.T) {
	tr := &stubTransport{queue: []stubOutcome{
		{resp: errResponse(500, "boom")},
		{resp: okResponse(`{"fine":true}`)},
	}}
	c, _ := newTestClient(t, tr)
	ctx := context.Background()

	first := c.Summary(ctx, "text")
	if first.OK {
		t.Fatal("first call should have failed")
	}
	second := c.Summary(ctx, "text")
	if !second.OK {
		t.Fatalf("second call failed: %+v", second.Err)
	}
	if second.Meta.Cached {
		t.Error("failure leaked into the cache")
	}
	if got := tr.callCount(); got != 2 {
		t.Errorf("transport calls = %d, want 2", got)
	}
}

func TestDegradedStorage(t *testing.T) {
	// A cache whose backend fails on write must neither fail the
	// call nor serve a later hit.
	degraded := cache.NewDegrading(writeFailCache{}, nil)
	tr := &stubTransport{}
	c, err := New(Options{Transport: tr, Cache: degraded})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	res := c.Summary(ctx, "text")
	if !res.OK {
		t.Fatalf("Summary() failed on a degraded cache: %+v", res.Err)
	}
	res = c.Summary(ctx, "text")
	if res.Meta.Cached {
		t.Error("degraded cache produced a hit")
	}
	if got := tr.callCount(); got != 2 {
		t.Errorf("transport calls = %d, want 2", got)
	}
}

// writeFailCache misses every read and errors every write.
type writeFailCache struct{}

func (writeFailCache) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (writeFailCache) Set(context.Context, string, []byte, time.Duration) error {
	return cache.ErrUnavailable
}
func (writeFailCache) Delete(context.Context, string) error { return nil }

func TestSuccessNotification(t *testing.T) {
	tr := &stubTransport{}
	c, notifier := newTestClient(t, tr)
	ctx := context.Background()

	c.Summary(ctx, "text")
	c.Summary(ctx, "text") // cache hit, no event

	kinds := notifier.kinds()
	if len(kinds) != 1 || kinds[0] != EventSuccess {
		t.Errorf("notifier events = %v, want exactly one success event", kinds)
	}
}

func TestInFlightDeduplication(t *testing.T) {
	release := make(chan struct{})
	tr := &stubTransport{release: release}
	c, _ := newTestClient(t, tr)
	ctx := context.Background()

	const callers = 4
	var wg sync.WaitGroup
	results := make([]Result, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.Summary(ctx, "same text")
		}(i)
	}

	// Let the goroutines pile onto the in-flight request, then
	// release the single network call.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := tr.callCount(); got != 1 {
		t.Errorf("transport calls = %d, want 1 (identical in-flight calls must collapse)", got)
	}
	for i, res := range results {
		if !res.OK {
			t.Errorf("caller %d failed: %+v", i, res.Err)
		}
	}
}

func TestCall_UnknownEndpointUncached(t *testing.T) {
	tr := &stubTransport{}
	c, _ := newTestClient(t, tr)
	ctx := context.Background()

	c.Call(ctx, "experimental", "POST", map[string]string{"x": "y"}, "y")
	c.Call(ctx, "experimental", "POST", map[string]string{"x": "y"}, "y")
	if got := tr.callCount(); got != 2 {
		t.Errorf("transport calls = %d, want 2 (no TTL entry means no caching)", got)
	}
}

func TestHealth_UsesGet(t *testing.T) {
	tr := &stubTransport{}
	c, _ := newTestClient(t, tr)

	res := c.Health(context.Background())
	if !res.OK {
		t.Fatalf("Health() failed: %+v", res.Err)
	}
	if tr.lastReq.Method != "GET" {
		t.Errorf("Health method = %q, want GET", tr.lastReq.Method)
	}
	if tr.lastReq.Path != "health" {
		t.Errorf("Health path = %q, want health", tr.lastReq.Path)
	}
}

func TestRateState_UnsetInitially(t *testing.T) {
	tr := &stubTransport{}
	c, _ := newTestClient(t, tr)
	if _, ok := c.RateState().LastRateLimitedAt(); ok {
		t.Error("RateState set before any 429 was observed")
	}
}

func TestLocalLimiterRejectionIsRateLimited(t *testing.T) {
	tr := &stubTransport{}
	notifier := &recordingNotifier{}
	c, err := New(Options{
		Transport: tr,
		Notifier:  notifier,
		Limiter:   resilience.NewLimiter(resilience.LimiterConfig{RPS: 0.001, Burst: 1}),
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	ctx := context.Background()

	if res := c.Moderate(ctx, "first"); !res.OK {
		t.Fatalf("first call failed: %+v", res.Err)
	}

	res := c.Moderate(ctx, "second")
	if res.OK {
		t.Fatal("second call admitted past an exhausted limiter")
	}
	if res.Err.Kind != KindRateLimited {
		t.Errorf("kind = %v, want KindRateLimited", res.Err.Kind)
	}
	if _, ok := c.RateState().LastRateLimitedAt(); ok {
		t.Error("local throttle must not mark RateState")
	}
	if got := tr.callCount(); got != 1 {
		t.Errorf("transport calls = %d, want 1", got)
	}

	kinds := notifier.kinds()
	if len(kinds) != 2 || kinds[1] != EventRateLimited {
		t.Errorf("events = %v, want success then rate_limited", kinds)
	}
}
