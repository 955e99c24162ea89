// Package health reports on the availability of the AI backend and
// the gateway's local dependencies. The gateway checker maps call
// classifications onto health statuses: a rate-limited backend is
// degraded, an unreachable or failing one is unhealthy.
package health
