// Package observability builds the zap loggers used across the gateway and
// the provider adapter.
package observability
