package health

import (
	"context"
	"errors"
	"time"

	"github.com/mentorbridge/aigate/gateway"
)

// ErrBackendUnavailable indicates the AI backend could not be reached
// or reported a failure.
var ErrBackendUnavailable = errors.New("health: ai backend unavailable")

// GatewayChecker probes the AI backend through the gateway's health
// endpoint and translates the call classification into a status.
type GatewayChecker struct {
	client *gateway.Client
}

// NewGatewayChecker creates a checker for the given gateway client.
func NewGatewayChecker(client *gateway.Client) *GatewayChecker {
	return &GatewayChecker{client: client}
}

// Name returns the checker name.
func (c *GatewayChecker) Name() string { return "ai-backend" }

// Check calls the backend health endpoint. Rate limiting means the
// backend is up but pushing back, so it maps to degraded rather than
// unhealthy.
func (c *GatewayChecker) Check(ctx context.Context) Result {
	start := time.Now()
	res := c.client.Health(ctx)
	elapsed := time.Since(start)

	if res.OK {
		msg := "backend responding"
		if res.Meta.Cached {
			msg = "backend responding (cached probe)"
		}
		out := Healthy(msg)
		out.Duration = elapsed
		return out
	}

	if res.Err == nil {
		out := Unhealthy("backend reported failure", ErrBackendUnavailable)
		out.Duration = elapsed
		return out
	}

	if res.Err.Kind == gateway.KindRateLimited {
		out := Degraded("backend rate limiting requests")
		out.Duration = elapsed
		return out
	}

	out := Unhealthy(res.Err.Message, ErrBackendUnavailable)
	out.Duration = elapsed
	return out
}

var _ Checker = (*GatewayChecker)(nil)
