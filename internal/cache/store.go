// Package cache holds the ephemeral key/value store used for short-lived
// secrets such as one-time passcodes.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: key not found")

// SecretStore is a key/value store with per-key expiry.
type SecretStore interface {
	// Set stores value under key, replacing any previous value, for ttl.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get returns ErrMiss when no live value exists.
	Get(ctx context.Context, key string) (string, error)
	// Delete removes key and reports whether a live value was removed.
	// Exactly one of several concurrent callers observes true.
	Delete(ctx context.Context, key string) (bool, error)
}
