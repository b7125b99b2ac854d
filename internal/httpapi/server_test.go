package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hyper-ai-inc/studio-mcp-bridge/internal/bridge"
)

func TestRequestResponseRoundTrip(t *testing.T) {
	state := bridge.NewSharedState()
	srv := newWithTimeout("", state, time.Second)

	env, replyCh := state.Enqueue(bridge.NewToolArgs(bridge.ToolRunCode, &bridge.RunCodeArgs{Command: "print('x')"}))

	req := httptest.NewRequest(http.MethodGet, "/request", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var got bridge.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if got.ID != env.ID {
		t.Fatalf("expected envelope %s, got %s", env.ID, got.ID)
	}

	body, _ := json.Marshal(bridge.Reply{ID: env.ID, Response: "x\n"})
	req = httptest.NewRequest(http.MethodPost, "/response", bytes.NewReader(body))
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on /response, got %d: %s", w.Code, w.Body.String())
	}

	select {
	case response := <-replyCh:
		if response != "x\n" {
			t.Fatalf("expected 'x\\n', got %q", response)
		}
	case <-time.After(time.Second):
		t.Fatal("tool call never received its reply")
	}
}

func TestResponseUnknownIDReturns404(t *testing.T) {
	state := bridge.NewSharedState()
	srv := newWithTimeout("", state, time.Second)

	body, _ := json.Marshal(bridge.Reply{ID: uuid.Nil, Response: "hi"})
	req := httptest.NewRequest(http.MethodPost, "/response", bytes.NewReader(body))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if state.QueueLen() != 0 {
		t.Fatalf("expected no state mutation, got queue len %d", state.QueueLen())
	}
}

func TestLongPollTimesOutWith423(t *testing.T) {
	state := bridge.NewSharedState()
	srv := newWithTimeout("", state, 50*time.Millisecond)

	start := time.Now()
	req := httptest.NewRequest(http.MethodGet, "/request", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	elapsed := time.Since(start)

	if w.Code != http.StatusLocked {
		t.Fatalf("expected 423, got %d", w.Code)
	}
	if elapsed > time.Second {
		t.Fatalf("long poll took too long: %v", elapsed)
	}
}

func TestLongPollWakesOnEnqueue(t *testing.T) {
	state := bridge.NewSharedState()
	srv := newWithTimeout("", state, 10*time.Second)

	resultCh := make(chan int, 1)
	go func() {
		req := httptest.NewRequest(http.MethodGet, "/request", nil)
		w := httptest.NewRecorder()
		start := time.Now()
		srv.Handler().ServeHTTP(w, req)
		_ = time.Since(start)
		resultCh <- w.Code
	}()

	time.Sleep(30 * time.Millisecond)
	state.Enqueue(bridge.NewToolArgs(bridge.ToolRunCode, &bridge.RunCodeArgs{Command: "y"}))

	select {
	case code := <-resultCh:
		if code != http.StatusOK {
			t.Fatalf("expected 200, got %d", code)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("long poll never woke up on enqueue")
	}
}

func TestProxyRoundTrip(t *testing.T) {
	state := bridge.NewSharedState()
	srv := newWithTimeout("", state, time.Second)

	env := bridge.NewEnvelope(bridge.NewToolArgs(bridge.ToolInsertModel, &bridge.InsertModelArgs{Query: "tree"}))
	body, _ := json.Marshal(env)

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		req := httptest.NewRequest(http.MethodPost, "/proxy", bytes.NewReader(body))
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, req)
		done <- w
	}()

	time.Sleep(20 * time.Millisecond)
	replyBody, _ := json.Marshal(bridge.Reply{ID: env.ID, Response: "Tree1"})
	req := httptest.NewRequest(http.MethodPost, "/response", bytes.NewReader(replyBody))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 delivering reply, got %d", w.Code)
	}

	select {
	case proxyResp := <-done:
		if proxyResp.Code != http.StatusOK {
			t.Fatalf("expected 200 from /proxy, got %d: %s", proxyResp.Code, proxyResp.Body.String())
		}
		var reply bridge.Reply
		if err := json.Unmarshal(proxyResp.Body.Bytes(), &reply); err != nil {
			t.Fatalf("decode reply: %v", err)
		}
		if reply.Response != "Tree1" {
			t.Fatalf("expected 'Tree1', got %q", reply.Response)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("proxy call never completed")
	}
}

func TestInputLanePollAndIngest(t *testing.T) {
	state := bridge.NewSharedState()
	srv := newWithTimeout("", state, time.Second)

	cmd := bridge.InputCommand{
		CommandType: "input",
		Data:        json.RawMessage(`{"input_type":"keyboard","key":"W","action":"tap"}`),
		ID:          uuid.New(),
		TimestampMs: 123,
	}
	ingestBody, _ := json.Marshal(map[string]any{"command": cmd})
	req := httptest.NewRequest(http.MethodPost, "/mcp/input", bytes.NewReader(ingestBody))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 ingesting input, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/mcp/input", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	var resp struct {
		Commands []bridge.InputCommand `json:"commands"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode commands: %v", err)
	}
	if len(resp.Commands) != 1 || resp.Commands[0].ID != cmd.ID {
		t.Fatalf("expected one command with id %s, got %+v", cmd.ID, resp.Commands)
	}

	req = httptest.NewRequest(http.MethodGet, "/mcp/input", nil)
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	resp.Commands = nil
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode commands: %v", err)
	}
	if len(resp.Commands) != 0 {
		t.Fatalf("expected empty drain on second poll, got %d", len(resp.Commands))
	}
}

func TestServerCodeLanePollAndIngest(t *testing.T) {
	state := bridge.NewSharedState()
	srv := newWithTimeout("", state, time.Second)

	cmd, replyCh := state.EnqueueServerCode("return 1+1")

	req := httptest.NewRequest(http.MethodGet, "/mcp/server_code", nil)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	var polled struct {
		Commands []bridge.ServerCodeCommand `json:"commands"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &polled); err != nil {
		t.Fatalf("decode commands: %v", err)
	}
	if len(polled.Commands) != 1 || polled.Commands[0].ID != cmd.ID {
		t.Fatalf("expected one pending command with id %s, got %+v", cmd.ID, polled.Commands)
	}

	result := "2"
	resultBody, _ := json.Marshal(bridge.ServerCodeResult{ID: cmd.ID, Success: true, Result: &result})
	req = httptest.NewRequest(http.MethodPost, "/mcp/server_code", bytes.NewReader(resultBody))
	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 ingesting server-code result, got %d: %s", w.Code, w.Body.String())
	}

	select {
	case got := <-replyCh:
		if !got.Success || got.Result == nil || *got.Result != "2" {
			t.Fatalf("unexpected server-code result: %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("server-code caller never received its result")
	}
}

func TestServerCodeLaneUnknownIDReturns404(t *testing.T) {
	state := bridge.NewSharedState()
	srv := newWithTimeout("", state, time.Second)

	resultBody, _ := json.Marshal(bridge.ServerCodeResult{ID: uuid.New(), Success: false})
	req := httptest.NewRequest(http.MethodPost, "/mcp/server_code", bytes.NewReader(resultBody))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
