// Package session binds an uploaded field configuration to a time-bounded
// identifier. Sessions live behind the Store interface so the in-memory map
// can be swapped for a durable backend without touching orchestration.
package session

import (
	"context"
	"errors"
	"time"

	"docfields/fieldconfig"
)

// ErrNotFound covers both a session id that was never issued and one whose
// expiry has passed; callers cannot tell the two apart.
var ErrNotFound = errors.New("invalid or expired session ID")

// Session is immutable after creation; it only ever stops existing.
type Session struct {
	ID     string                        `json:"id"`
	Config *fieldconfig.ExtractionConfig `json:"config"`
	Expiry time.Time                     `json:"expiry"`
}

// Store is the injected session backend. Get must treat an expired session
// exactly like a missing one.
type Store interface {
	Put(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Count(ctx context.Context) (int, error)
}

// TimeProvider abstracts the clock so expiry can be driven in tests.
type TimeProvider interface {
	Now() time.Time
}

type realTimeProvider struct{}

func (rtp *realTimeProvider) Now() time.Time {
	return time.Now()
}
