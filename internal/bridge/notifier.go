package bridge

import "sync"

// Notifier is a one-slot broadcast wakeup, the Go equivalent of the
// close-and-replace-channel idiom (what tokio::sync::watch gives for
// free). Pulse closes the current channel — waking every goroutine
// parked on it — and installs a fresh one. Wait must be called while
// holding the same lock that guards the condition being watched, and the
// returned channel awaited only after releasing that lock; this is the
// two-phase pattern that avoids a lost wakeup: a waiter that captured
// the channel before releasing the lock is guaranteed to see the next
// Pulse, because the producer can only make the condition true after
// acquiring that same lock, and it pulses only after that; by then the
// captured channel is either still current or already closed. Pulse
// itself takes only the Notifier's own mutex.
type Notifier struct {
	mu sync.Mutex
	ch chan struct{}
}

// NewNotifier returns a ready-to-use Notifier.
func NewNotifier() *Notifier {
	return &Notifier{ch: make(chan struct{})}
}

// Wait returns the channel to select/receive on. Call it under the
// caller's own lock, in the same critical section that observed the
// watched condition is not yet satisfied (e.g. the queue is empty).
func (n *Notifier) Wait() <-chan struct{} {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.ch
}

// Pulse wakes every goroutine currently parked in Wait's channel and
// arms a fresh one for subsequent waiters.
func (n *Notifier) Pulse() {
	n.mu.Lock()
	defer n.mu.Unlock()
	close(n.ch)
	n.ch = make(chan struct{})
}
