// Package observe provides the telemetry surface for the gateway:
// structured logging behind a small Logger interface (logrus-backed
// by default), OpenTelemetry metrics for call outcomes and cache
// behavior, and spans per gateway call. Everything defaults to noop
// so the core can run with zero telemetry configured.
package observe
