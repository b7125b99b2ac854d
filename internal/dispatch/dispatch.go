// Package dispatch implements C3: the stdio MCP tool surface. It
// registers the closed list of tools against the modelcontextprotocol
// go-sdk's server, routing each one through bridge.SharedState (the
// ten queue-routed tools and the two auxiliary input-lane tools) or
// straight to the local screenshot service.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hyper-ai-inc/studio-mcp-bridge/internal/auxiliary"
	"github.com/hyper-ai-inc/studio-mcp-bridge/internal/bridge"
	"github.com/hyper-ai-inc/studio-mcp-bridge/internal/bridgeerr"
	"github.com/hyper-ai-inc/studio-mcp-bridge/internal/screenshot"
)

// QueueTimeout bounds how long a queue-routed tool call waits for the
// host to answer before surfacing a timeout to the assistant.
const QueueTimeout = 30 * time.Second

// Dispatcher wires SharedState to the MCP tool surface.
type Dispatcher struct {
	state *bridge.SharedState
}

// New builds a Dispatcher over state.
func New(state *bridge.SharedState) *Dispatcher {
	return &Dispatcher{state: state}
}

// Register adds every tool in the closed set to server.
func (d *Dispatcher) Register(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{Name: "run_code", Description: "Executes a Luau code snippet in Roblox Studio's command bar and returns its printed output."}, d.runCode)
	mcp.AddTool(server, &mcp.Tool{Name: "insert_model", Description: "Searches the Roblox creator marketplace and inserts a matching model into the workspace."}, d.insertModel)
	mcp.AddTool(server, &mcp.Tool{Name: "write_script", Description: "Creates or overwrites a Script/LocalScript/ModuleScript at the given instance path."}, d.writeScript)
	mcp.AddTool(server, &mcp.Tool{Name: "read_output", Description: "Reads the Studio output/console buffer since the last read."}, d.readOutput)
	mcp.AddTool(server, &mcp.Tool{Name: "get_studio_state", Description: "Reports whether Studio is in Edit, Running, or Paused mode."}, d.getStudioState)
	mcp.AddTool(server, &mcp.Tool{Name: "start_playtest", Description: "Starts a local playtest session."}, d.startPlaytest)
	mcp.AddTool(server, &mcp.Tool{Name: "stop_playtest", Description: "Stops the running playtest session."}, d.stopPlaytest)
	mcp.AddTool(server, &mcp.Tool{Name: "start_simulation", Description: "Starts Run mode (simulation without a player character)."}, d.startSimulation)
	mcp.AddTool(server, &mcp.Tool{Name: "stop_simulation", Description: "Stops Run mode."}, d.stopSimulation)
	mcp.AddTool(server, &mcp.Tool{Name: "move_character", Description: "Moves the playtesting character in a direction for a duration."}, d.moveCharacter)
	mcp.AddTool(server, &mcp.Tool{Name: "simulate_input", Description: "Simulates keyboard or mouse input during a playtest. Auto-installs the helper scripts on first use."}, d.simulateInput)
	mcp.AddTool(server, &mcp.Tool{Name: "click_gui", Description: "Simulates clicking a GUI element during a playtest, addressed by instance path. Auto-installs the helper scripts on first use."}, d.clickGui)
	mcp.AddTool(server, &mcp.Tool{Name: "screenshot", Description: "Captures Roblox Studio's window and returns it as a JPEG image."}, d.screenshot)
}

// runQueued enqueues args, waits up to QueueTimeout for a reply, and
// cancels the registration on any exit path so no replies map entry
// outlives its caller.
func (d *Dispatcher) runQueued(ctx context.Context, tool bridge.ToolName, args any) (string, error) {
	env, replyCh := d.state.Enqueue(bridge.NewToolArgs(tool, args))

	timeoutCtx, cancel := context.WithTimeout(ctx, QueueTimeout)
	defer cancel()

	select {
	case response := <-replyCh:
		return response, nil
	case <-timeoutCtx.Done():
		d.state.CancelReply(env.ID)
		return "", fmt.Errorf("%w: %s", bridgeerr.ErrResponseTimeout, tool)
	}
}

// RunCode implements auxiliary.Runner so the bootstrap probe reuses this
// same queue/timeout path instead of a side channel.
func (d *Dispatcher) RunCode(ctx context.Context, command string) (string, error) {
	return d.runQueued(ctx, bridge.ToolRunCode, &bridge.RunCodeArgs{Command: command})
}

// WriteScript implements auxiliary.Runner.
func (d *Dispatcher) WriteScript(ctx context.Context, path, source, scriptType string) error {
	_, err := d.runQueued(ctx, bridge.ToolWriteScript, &bridge.WriteScriptArgs{
		Path:       path,
		Source:     source,
		ScriptType: scriptType,
	})
	return err
}

func jsonMarshal(v any) (json.RawMessage, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

func textResult(s string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: s}}}, nil, nil
}

func errorResult(err error) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}, nil, nil
}

func (d *Dispatcher) runCode(ctx context.Context, req *mcp.CallToolRequest, args bridge.RunCodeArgs) (*mcp.CallToolResult, any, error) {
	out, err := d.runQueued(ctx, bridge.ToolRunCode, &args)
	if err != nil {
		return errorResult(err)
	}
	return textResult(out)
}

func (d *Dispatcher) insertModel(ctx context.Context, req *mcp.CallToolRequest, args bridge.InsertModelArgs) (*mcp.CallToolResult, any, error) {
	out, err := d.runQueued(ctx, bridge.ToolInsertModel, &args)
	if err != nil {
		return errorResult(err)
	}
	return textResult(out)
}

func (d *Dispatcher) writeScript(ctx context.Context, req *mcp.CallToolRequest, args bridge.WriteScriptArgs) (*mcp.CallToolResult, any, error) {
	out, err := d.runQueued(ctx, bridge.ToolWriteScript, &args)
	if err != nil {
		return errorResult(err)
	}
	return textResult(out)
}

// noArgs is the MCP-facing input type for tools the host treats as
// taking no parameters.
type noArgs struct{}

func (d *Dispatcher) readOutput(ctx context.Context, req *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
	out, err := d.runQueued(ctx, bridge.ToolReadOutput, nil)
	if err != nil {
		return errorResult(err)
	}
	return textResult(out)
}

func (d *Dispatcher) getStudioState(ctx context.Context, req *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
	out, err := d.runQueued(ctx, bridge.ToolGetStudioState, nil)
	if err != nil {
		return errorResult(err)
	}
	return textResult(out)
}

func (d *Dispatcher) startPlaytest(ctx context.Context, req *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
	out, err := d.runQueued(ctx, bridge.ToolStartPlaytest, nil)
	if err != nil {
		return errorResult(err)
	}
	return textResult(out)
}

func (d *Dispatcher) stopPlaytest(ctx context.Context, req *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
	out, err := d.runQueued(ctx, bridge.ToolStopPlaytest, nil)
	if err != nil {
		return errorResult(err)
	}
	return textResult(out)
}

func (d *Dispatcher) startSimulation(ctx context.Context, req *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
	out, err := d.runQueued(ctx, bridge.ToolStartSim, nil)
	if err != nil {
		return errorResult(err)
	}
	return textResult(out)
}

func (d *Dispatcher) stopSimulation(ctx context.Context, req *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
	out, err := d.runQueued(ctx, bridge.ToolStopSim, nil)
	if err != nil {
		return errorResult(err)
	}
	return textResult(out)
}

func (d *Dispatcher) moveCharacter(ctx context.Context, req *mcp.CallToolRequest, args bridge.MoveCharacterArgs) (*mcp.CallToolResult, any, error) {
	out, err := d.runQueued(ctx, bridge.ToolMoveCharacter, &args)
	if err != nil {
		return errorResult(err)
	}
	return textResult(out)
}

// SimulateInputArgs is the MCP-facing argument record for simulate_input.
// It never crosses the primary queue; it becomes a bridge.InputCommand
// on the fire-and-forget lane instead.
type SimulateInputArgs struct {
	InputType string  `json:"input_type"`
	Key       string  `json:"key,omitempty"`
	Action    string  `json:"action,omitempty"`
	MouseX    float64 `json:"mouse_x,omitempty"`
	MouseY    float64 `json:"mouse_y,omitempty"`
}

// ClickGuiArgs is the MCP-facing argument record for click_gui.
type ClickGuiArgs struct {
	Path string `json:"path"`
}

func (d *Dispatcher) simulateInput(ctx context.Context, req *mcp.CallToolRequest, args SimulateInputArgs) (*mcp.CallToolResult, any, error) {
	install, err := auxiliary.EnsureInstalled(ctx, d)
	if err != nil {
		log.Printf("[dispatch] simulate_input: bootstrap probe failed: %v", err)
	}

	data, err := jsonMarshal(map[string]any{
		"input_type": args.InputType,
		"key":        args.Key,
		"action":     args.Action,
		"mouse_x":    args.MouseX,
		"mouse_y":    args.MouseY,
	})
	if err != nil {
		return errorResult(err)
	}

	cmd := bridge.InputCommand{
		CommandType: "input",
		Data:        data,
		ID:          uuid.New(),
		TimestampMs: time.Now().UnixMilli(),
	}
	d.state.PushInput(cmd)

	msg := fmt.Sprintf("Queued %s input: %s %s (id: %s).", args.InputType, args.Key, args.Action, cmd.ID)
	if install.Installed {
		msg += fmt.Sprintf("\n\nAuto-installed required scripts: %v. Restart the playtest for them to take effect.", install.InstalledWhat)
	}
	return textResult(msg)
}

func (d *Dispatcher) clickGui(ctx context.Context, req *mcp.CallToolRequest, args ClickGuiArgs) (*mcp.CallToolResult, any, error) {
	install, err := auxiliary.EnsureInstalled(ctx, d)
	if err != nil {
		log.Printf("[dispatch] click_gui: bootstrap probe failed: %v", err)
	}

	data, err := jsonMarshal(map[string]any{"path": args.Path})
	if err != nil {
		return errorResult(err)
	}

	cmd := bridge.InputCommand{
		CommandType: "gui_click",
		Data:        data,
		ID:          uuid.New(),
		TimestampMs: time.Now().UnixMilli(),
	}
	d.state.PushInput(cmd)

	msg := fmt.Sprintf("Queued GUI click: %s (id: %s).", args.Path, cmd.ID)
	if install.Installed {
		msg += fmt.Sprintf("\n\nAuto-installed required scripts: %v. Restart the playtest for them to take effect.", install.InstalledWhat)
	}
	return textResult(msg)
}

func (d *Dispatcher) screenshot(ctx context.Context, req *mcp.CallToolRequest, _ noArgs) (*mcp.CallToolResult, any, error) {
	jpegData, err := screenshot.Capture(ctx)
	if err != nil {
		return errorResult(err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.ImageContent{Data: jpegData, MIMEType: "image/jpeg"}},
	}, nil, nil
}
