// Package portsentry implements C1: before binding the fixed loopback
// port, best-effort reap any stale instance of this same process still
// holding it from a previous run that didn't shut down cleanly (editor
// crash, forced kill, etc). Failure to clean up is never fatal — the
// caller falls back to forwarder mode if the port is still taken.
package portsentry

import "context"

// Port is the fixed loopback port the primary instance binds and the
// host's plugin is hardcoded to poll.
const Port = 44755

// Clear asks the platform-specific strategy to free Port if a stale
// process still owns it. It never returns an error: callers only care
// whether the subsequent bind attempt succeeds, and a cleanup failure
// is logged by the strategy itself, not escalated here.
func Clear(ctx context.Context) {
	clearPort(ctx, Port)
}
