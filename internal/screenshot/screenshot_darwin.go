//go:build darwin

package screenshot

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// windowTitle is the title Studio's main window registers with the
// Accessibility API; used to resolve a window id for screencapture -l.
const windowTitle = "Roblox Studio"

// captureNative locates the Studio window via System Events and captures
// it with the screencapture CLI, writing a PNG to a fresh temp file.
func captureNative(parent context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(parent, 10*time.Second)
	defer cancel()

	windowID, err := findWindowID(ctx)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp("", "studio-screenshot-*.png")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	path := f.Name()
	f.Close()

	cmd := exec.CommandContext(ctx, "screencapture", "-x", "-l", windowID, path)
	if out, err := cmd.CombinedOutput(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("screencapture: %w: %s", err, out)
	}
	return path, nil
}

func findWindowID(ctx context.Context) (string, error) {
	script := fmt.Sprintf(`tell application "System Events"
		set studioProc to first process whose name contains "RobloxStudio"
		set studioWindow to first window of studioProc whose title contains %q
		return id of studioWindow
	end tell`, windowTitle)

	out, err := exec.CommandContext(ctx, "osascript", "-e", script).Output()
	if err != nil {
		return "", fmt.Errorf("osascript window lookup: %w", err)
	}
	id := strings.TrimSpace(string(out))
	if _, err := strconv.Atoi(id); err != nil {
		return "", fmt.Errorf("unexpected window id %q", id)
	}
	return id, nil
}
