package gateway

import (
	"sync"
	"time"
)

// RateState remembers when the backend last rate-limited us. It is
// written only by the gateway client on an observed 429 and read by
// nothing inside the core; callers may consult it to throttle
// themselves. The core never suppresses calls based on it.
type RateState struct {
	mu   sync.Mutex
	last time.Time
	set  bool
}

// LastRateLimitedAt returns the time of the most recent 429 and
// whether one has been observed at all this process lifetime.
func (s *RateState) LastRateLimitedAt() (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.set
}

func (s *RateState) mark(t time.Time) {
	s.mu.Lock()
	s.last = t
	s.set = true
	s.mu.Unlock()
}
