package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the profile has no value for the key.
var ErrNotFound = errors.New("storage: value not found")

// Storage is a durable key-value store partitioned by profile. A profile is
// whatever owns the persisted state: a browser, a chat user, a CLI home.
type Storage interface {
	Get(ctx context.Context, profile, key string) (string, error)
	Set(ctx context.Context, profile, key, value string) error
	// SetIfAbsent stores value only when the key has none and returns
	// whichever value is stored afterwards.
	SetIfAbsent(ctx context.Context, profile, key, value string) (string, error)
	Delete(ctx context.Context, profile, key string) error
	Close() error
}
