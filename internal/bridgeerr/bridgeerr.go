// Package bridgeerr defines the sentinel error kinds shared across the
// bridge's components, so callers can classify failures with errors.Is
// instead of matching on string content.
package bridgeerr

import "errors"

var (
	// ErrTriggerSendFailed means a waiter pulse could not be delivered.
	ErrTriggerSendFailed = errors.New("bridge: trigger send failed")
	// ErrResponseChannelClosed means the reply channel closed before a reply arrived.
	ErrResponseChannelClosed = errors.New("bridge: response channel closed")
	// ErrResponseTimeout means the dispatcher's deadline elapsed with no reply.
	ErrResponseTimeout = errors.New("bridge: response timed out")
	// ErrUnknownReplyID means a reply or proxy-forward arrived for an id not in the reply map.
	ErrUnknownReplyID = errors.New("bridge: unknown reply id")
	// ErrPortCleanupFailed means the port sentry could not free the fixed port. Non-fatal.
	ErrPortCleanupFailed = errors.New("bridge: port cleanup failed")
	// ErrForwardFailed means a forwarder's HTTP call to the primary failed. Non-fatal, per-envelope.
	ErrForwardFailed = errors.New("bridge: forward to primary failed")
	// ErrScreenshotFailed wraps a platform, permission, or timeout failure capturing the host window.
	ErrScreenshotFailed = errors.New("bridge: screenshot failed")
	// ErrUnsupportedPlatform means the screenshot service has no capture strategy for this GOOS.
	ErrUnsupportedPlatform = errors.New("bridge: unsupported platform")
)
