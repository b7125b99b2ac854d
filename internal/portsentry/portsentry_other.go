//go:build !unix && !windows

package portsentry

import "context"

// clearPort is a no-op on platforms with no known stale-process query
// tool; the subsequent bind attempt simply decides primary vs forwarder.
func clearPort(ctx context.Context, port int) {}
