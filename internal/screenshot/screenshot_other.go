//go:build !darwin && !windows

package screenshot

import (
	"context"
	"fmt"

	"github.com/hyper-ai-inc/studio-mcp-bridge/internal/bridgeerr"
)

// captureNative has no capture strategy outside darwin/windows; the host
// application only ships a plugin for those two platforms.
func captureNative(ctx context.Context) (string, error) {
	return "", fmt.Errorf("%w: screenshot capture", bridgeerr.ErrUnsupportedPlatform)
}
