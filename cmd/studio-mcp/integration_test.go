package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hyper-ai-inc/studio-mcp-bridge/internal/bridge"
	"github.com/hyper-ai-inc/studio-mcp-bridge/internal/forwarder"
	"github.com/hyper-ai-inc/studio-mcp-bridge/internal/httpapi"
)

// TestPrimaryForwarderWiring exercises C2-C5 end to end without the
// stdio transport: a primary instance hosts the long-poll HTTP server,
// a second instance's forwarder relays an envelope enqueued on its own
// SharedState to the primary, and the simulated host polls/answers it
// exactly as the real plugin would.
func TestPrimaryForwarderWiring(t *testing.T) {
	primaryState := bridge.NewSharedState()
	primary := httptest.NewServer(httpapi.New("", primaryState).Handler())
	defer primary.Close()

	forwarderState := bridge.NewSharedState()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go forwarder.New(forwarderState, primary.URL).Run(ctx)

	_, replyCh := forwarderState.Enqueue(bridge.NewToolArgs(bridge.ToolRunCode, &bridge.RunCodeArgs{Command: "print('hi')"}))

	// Simulate the host's long-poll: GET /request on the primary.
	var env bridge.Envelope
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(primary.URL + "/request")
		if err != nil {
			t.Fatalf("GET /request: %v", err)
		}
		if resp.StatusCode == http.StatusOK {
			if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
				t.Fatalf("decode envelope: %v", err)
			}
			resp.Body.Close()
			break
		}
		resp.Body.Close()
		time.Sleep(20 * time.Millisecond)
	}
	if env.Args.Tool != bridge.ToolRunCode {
		t.Fatalf("expected run_code envelope to reach the primary, got %+v", env)
	}

	replyBody, _ := json.Marshal(bridge.Reply{ID: env.ID, Response: "hi\n"})
	resp, err := http.Post(primary.URL+"/response", "application/json", bytes.NewReader(replyBody))
	if err != nil {
		t.Fatalf("POST /response: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 posting reply, got %d", resp.StatusCode)
	}

	select {
	case response := <-replyCh:
		if response != "hi\n" {
			t.Fatalf("expected 'hi\\n', got %q", response)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("forwarded call never received its reply")
	}
}
