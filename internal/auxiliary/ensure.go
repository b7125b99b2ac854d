package auxiliary

import (
	"context"
	"fmt"
	"strings"
)

// Runner is the round trip through the primary queue that the dispatcher
// already implements for run_code and write_script; auxiliary reuses it
// instead of talking to SharedState directly, so the bootstrap probe
// goes through the exact same queue/timeout path as an ordinary tool call.
type Runner interface {
	RunCode(ctx context.Context, command string) (string, error)
	WriteScript(ctx context.Context, path, source, scriptType string) error
}

// InstallResult reports which helper scripts EnsureInstalled had to
// install, if any, for inclusion in the calling tool's response text.
type InstallResult struct {
	Installed     bool
	InstalledWhat []string
}

// EnsureInstalled probes the host for MCPInputPoller and MCPInputHandler
// and installs whichever is missing via write_script. It runs ahead of
// every simulate_input/click_gui call; a probe or install failure is
// reported to the caller rather than silently dropped, since without
// these scripts the subsequent input command is a no-op on the host.
func EnsureInstalled(ctx context.Context, r Runner) (InstallResult, error) {
	status, err := r.RunCode(ctx, checkScriptsCode)
	if err != nil {
		return InstallResult{}, fmt.Errorf("checking installed scripts: %w", err)
	}

	parts := strings.Split(strings.TrimSpace(status), ",")
	pollerExists := len(parts) > 0 && strings.Contains(parts[0], "true")
	handlerExists := len(parts) > 1 && strings.Contains(parts[1], "true")

	if pollerExists && handlerExists {
		return InstallResult{}, nil
	}

	var installed []string

	if !pollerExists {
		if err := r.WriteScript(ctx, "ServerScriptService.MCPInputPoller", InputPollerSource, "Script"); err != nil {
			return InstallResult{}, fmt.Errorf("installing MCPInputPoller: %w", err)
		}
		installed = append(installed, "MCPInputPoller (ServerScriptService)")
	}

	if !handlerExists {
		if err := r.WriteScript(ctx, "StarterPlayer.StarterPlayerScripts.MCPInputHandler", InputHandlerSource, "LocalScript"); err != nil {
			return InstallResult{}, fmt.Errorf("installing MCPInputHandler: %w", err)
		}
		installed = append(installed, "MCPInputHandler (StarterPlayerScripts)")
	}

	return InstallResult{Installed: true, InstalledWhat: installed}, nil
}
