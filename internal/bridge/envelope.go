// Package bridge holds the command-dispatch fabric shared by the stdio
// tool dispatcher, the long-poll HTTP server, and forwarder mode: the
// command envelope types and the mutex-guarded queue/notifier bundle
// that ties them together.
package bridge

import (
	"encoding/json"

	"github.com/google/uuid"
)

// ToolName identifies which variant of ToolArgs an envelope carries.
type ToolName string

const (
	ToolRunCode        ToolName = "run_code"
	ToolInsertModel    ToolName = "insert_model"
	ToolWriteScript    ToolName = "write_script"
	ToolReadOutput     ToolName = "read_output"
	ToolGetStudioState ToolName = "get_studio_state"
	ToolStartPlaytest  ToolName = "start_playtest"
	ToolStopPlaytest   ToolName = "stop_playtest"
	ToolStartSim       ToolName = "start_simulation"
	ToolStopSim        ToolName = "stop_simulation"
	ToolMoveCharacter  ToolName = "move_character"
)

// RunCodeArgs is the argument record for ToolRunCode.
type RunCodeArgs struct {
	Command string `json:"command"`
}

// InsertModelArgs is the argument record for ToolInsertModel.
type InsertModelArgs struct {
	Query string `json:"query"`
}

// WriteScriptArgs is the argument record for ToolWriteScript.
type WriteScriptArgs struct {
	Path       string `json:"path"`
	Source     string `json:"source"`
	ScriptType string `json:"script_type,omitempty"`
}

// MoveCharacterArgs is the argument record for ToolMoveCharacter.
type MoveCharacterArgs struct {
	Direction  string `json:"direction"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

// emptyArgs is the payload for tools that take no arguments: read_output,
// get_studio_state, and the start/stop playtest/simulation pair.
type emptyArgs struct{}

// ToolArgs is the tagged-union payload of a command envelope: exactly one
// field is set, selected by Tool. Tools with no argument fields carry an
// empty object under their own variant tag, the same shape a real
// discriminated-union wire format would use.
type ToolArgs struct {
	Tool ToolName

	RunCode        *RunCodeArgs
	InsertModel    *InsertModelArgs
	WriteScript    *WriteScriptArgs
	MoveCharacter  *MoveCharacterArgs
	ReadOutput     *emptyArgs
	GetStudioState *emptyArgs
	StartPlaytest  *emptyArgs
	StopPlaytest   *emptyArgs
	StartSim       *emptyArgs
	StopSim        *emptyArgs
}

// NewToolArgs builds a ToolArgs for the given tool and (possibly nil)
// argument record, tagging it so MarshalJSON emits the right variant key.
func NewToolArgs(tool ToolName, args any) ToolArgs {
	ta := ToolArgs{Tool: tool}
	switch tool {
	case ToolRunCode:
		ta.RunCode = args.(*RunCodeArgs)
	case ToolInsertModel:
		ta.InsertModel = args.(*InsertModelArgs)
	case ToolWriteScript:
		ta.WriteScript = args.(*WriteScriptArgs)
	case ToolMoveCharacter:
		ta.MoveCharacter = args.(*MoveCharacterArgs)
	case ToolReadOutput:
		ta.ReadOutput = &emptyArgs{}
	case ToolGetStudioState:
		ta.GetStudioState = &emptyArgs{}
	case ToolStartPlaytest:
		ta.StartPlaytest = &emptyArgs{}
	case ToolStopPlaytest:
		ta.StopPlaytest = &emptyArgs{}
	case ToolStartSim:
		ta.StartSim = &emptyArgs{}
	case ToolStopSim:
		ta.StopSim = &emptyArgs{}
	}
	return ta
}

// wireToolArgs mirrors ToolArgs field-for-field with json tags; kept
// separate so MarshalJSON/UnmarshalJSON can delegate to the encoder
// without infinite recursion.
type wireToolArgs struct {
	RunCode        *RunCodeArgs       `json:"RunCode,omitempty"`
	InsertModel    *InsertModelArgs   `json:"InsertModel,omitempty"`
	WriteScript    *WriteScriptArgs   `json:"WriteScript,omitempty"`
	MoveCharacter  *MoveCharacterArgs `json:"MoveCharacter,omitempty"`
	ReadOutput     *emptyArgs         `json:"ReadOutput,omitempty"`
	GetStudioState *emptyArgs         `json:"GetStudioState,omitempty"`
	StartPlaytest  *emptyArgs         `json:"StartPlaytest,omitempty"`
	StopPlaytest   *emptyArgs         `json:"StopPlaytest,omitempty"`
	StartSim       *emptyArgs         `json:"StartSim,omitempty"`
	StopSim        *emptyArgs         `json:"StopSim,omitempty"`
}

// MarshalJSON encodes ToolArgs as the single populated variant key.
func (a ToolArgs) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireToolArgs{
		RunCode:        a.RunCode,
		InsertModel:    a.InsertModel,
		WriteScript:    a.WriteScript,
		MoveCharacter:  a.MoveCharacter,
		ReadOutput:     a.ReadOutput,
		GetStudioState: a.GetStudioState,
		StartPlaytest:  a.StartPlaytest,
		StopPlaytest:   a.StopPlaytest,
		StartSim:       a.StartSim,
		StopSim:        a.StopSim,
	})
}

// UnmarshalJSON decodes a single variant key and derives the Tool tag from
// whichever field came back populated. Used at the /proxy ingest boundary,
// where a forwarder hands us an envelope it built from its own ToolArgs.
func (a *ToolArgs) UnmarshalJSON(data []byte) error {
	var w wireToolArgs
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*a = ToolArgs{
		RunCode:        w.RunCode,
		InsertModel:    w.InsertModel,
		WriteScript:    w.WriteScript,
		MoveCharacter:  w.MoveCharacter,
		ReadOutput:     w.ReadOutput,
		GetStudioState: w.GetStudioState,
		StartPlaytest:  w.StartPlaytest,
		StopPlaytest:   w.StopPlaytest,
		StartSim:       w.StartSim,
		StopSim:        w.StopSim,
	}
	switch {
	case a.RunCode != nil:
		a.Tool = ToolRunCode
	case a.InsertModel != nil:
		a.Tool = ToolInsertModel
	case a.WriteScript != nil:
		a.Tool = ToolWriteScript
	case a.MoveCharacter != nil:
		a.Tool = ToolMoveCharacter
	case a.ReadOutput != nil:
		a.Tool = ToolReadOutput
	case a.GetStudioState != nil:
		a.Tool = ToolGetStudioState
	case a.StartPlaytest != nil:
		a.Tool = ToolStartPlaytest
	case a.StopPlaytest != nil:
		a.Tool = ToolStopPlaytest
	case a.StartSim != nil:
		a.Tool = ToolStartSim
	case a.StopSim != nil:
		a.Tool = ToolStopSim
	}
	return nil
}

// Envelope is a command together with its freshly minted identifier.
// An absent ID on ingress (e.g. at the /proxy boundary) is a
// programming error, not a recoverable condition.
type Envelope struct {
	Args ToolArgs  `json:"args"`
	ID   uuid.UUID `json:"id"`
}

// NewEnvelope mints an identifier and wraps args into an Envelope.
func NewEnvelope(args ToolArgs) Envelope {
	return Envelope{Args: args, ID: uuid.New()}
}

// Reply is the response counterpart to an Envelope. Response is opaque
// to the dispatcher — it never parses it.
type Reply struct {
	Response string    `json:"response"`
	ID       uuid.UUID `json:"id"`
}

// InputCommand is a fire-and-forget auxiliary command: keyboard/mouse
// input simulation or a GUI click, polled by the host's sandboxed Luau
// runtime. No reply is ever produced for these.
type InputCommand struct {
	CommandType string          `json:"command_type"`
	Data        json.RawMessage `json:"data"`
	ID          uuid.UUID       `json:"id"`
	TimestampMs int64           `json:"timestamp"`
}

// ServerCodeCommand is a full-RPC auxiliary command: source text to be
// run inside the sandboxed Luau VM, with a matching ServerCodeResult.
type ServerCodeCommand struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	TimestampMs int64     `json:"timestamp"`
}

// ServerCodeResult answers a ServerCodeCommand.
type ServerCodeResult struct {
	ID      uuid.UUID `json:"id"`
	Success bool      `json:"success"`
	Result  *string   `json:"result,omitempty"`
	Error   *string   `json:"error,omitempty"`
}
