package auth

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// throttleCacheSize bounds how many usernames are tracked at once.
// Evicted names fall back to the durable login history count.
const throttleCacheSize = 4096

// Throttle counts recent login failures per attempted username, so
// hot attack loops are answered from memory instead of PostgreSQL.
//
// An entry expires one window after the latest failure for that name,
// matching the rule "N failures within the window".
type Throttle struct {
	limit  int
	window time.Duration
	recent *expirable.LRU[string, int]
}

func NewThrottle(limit int, window time.Duration) *Throttle {
	return &Throttle{
		limit:  limit,
		window: window,
		recent: expirable.NewLRU[string, int](throttleCacheSize, nil, window),
	}
}

// Window is the failure-counting period.
func (t *Throttle) Window() time.Duration {
	return t.window
}

// Count returns the tracked failure count for name.
//
// ok is false when name is not tracked (never failed, expired, or
// evicted); callers then consult the durable history and Prime.
func (t *Throttle) Count(name string) (int, bool) {
	return t.recent.Get(name)
}

// Prime seeds the counter for name from the durable history, keeping
// the larger count if one is already tracked.
func (t *Throttle) Prime(name string, n int) {
	if cur, ok := t.recent.Get(name); ok && n < cur {
		n = cur
	}
	t.recent.Add(name, n)
}

// Fail records one more failure for name and restarts its window.
func (t *Throttle) Fail(name string) {
	n, _ := t.recent.Get(name)
	t.recent.Add(name, n+1)
}

// Clear forgets name after a successful login.
func (t *Throttle) Clear(name string) {
	t.recent.Remove(name)
}

// Blocked reports whether name has reached the failure limit.
func (t *Throttle) Blocked(name string) bool {
	n, ok := t.recent.Get(name)
	return ok && t.limit <= n
}
