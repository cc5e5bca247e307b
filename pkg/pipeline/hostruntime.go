package pipeline

import "sync"

// HostRuntime models the process-wide host-language lock every worker must
// acquire around a discrete callback into host code — the Go stand-in for
// a CPython-style GIL. Each worker takes the lock for exactly one host
// interaction (one row pulled, one row pushed, one host_transform call)
// and releases it immediately after; it is a hard invariant that no
// worker holds this lock while suspended on a channel send or receive,
// since that would stop every other worker from making progress.
type HostRuntime struct {
	mu sync.Mutex
}

// NewHostRuntime returns an unlocked HostRuntime.
func NewHostRuntime() *HostRuntime {
	return &HostRuntime{}
}

// Call acquires the lock, runs fn, and releases the lock before returning.
// Callers needing a value out of the host interaction assign it to a
// variable captured by fn's closure; this keeps the locked primitive to a
// single shape regardless of what the host call returns.
func (h *HostRuntime) Call(fn func() error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return fn()
}
