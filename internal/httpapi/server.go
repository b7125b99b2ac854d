// Package httpapi implements the long-poll HTTP server (C4): the five
// loopback endpoints the host's plugin and sandboxed runtime poll to
// pick up and answer work enqueued by the stdio tool dispatcher.
package httpapi

import (
	"context"
	"encoding/json"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hyper-ai-inc/studio-mcp-bridge/internal/bridge"
)

// LongPollTimeout is how long GET /request blocks waiting for work
// before returning 423 so the client can immediately retry.
const LongPollTimeout = 15 * time.Second

// Server hosts the five loopback endpoints against a single SharedState.
// It is unaware of whether it is running as primary or is being driven
// by a forwarder's /proxy calls — both roles share this same handler set
// by construction, since a forwarder only exists to relay to whichever
// instance actually bound the port and runs this server.
type Server struct {
	state           *bridge.SharedState
	http            *http.Server
	longPollTimeout time.Duration
}

// New builds a Server bound to addr (normally 127.0.0.1:44755) with
// handlers wired against state.
func New(addr string, state *bridge.SharedState) *Server {
	mux := http.NewServeMux()
	s := &Server{state: state, longPollTimeout: LongPollTimeout}

	mux.HandleFunc("GET /request", s.handleRequest)
	mux.HandleFunc("POST /response", s.handleResponse)
	mux.HandleFunc("POST /proxy", s.handleProxy)
	mux.HandleFunc("GET /mcp/input", s.handleInputPoll)
	mux.HandleFunc("POST /mcp/input", s.handleInputIngest)
	mux.HandleFunc("GET /mcp/server_code", s.handleServerCodePoll)
	mux.HandleFunc("POST /mcp/server_code", s.handleServerCodeIngest)

	s.http = &http.Server{Addr: addr, Handler: mux}
	return s
}

// Serve runs the HTTP listener until Shutdown is called. The returned
// error is nil on graceful shutdown, matching http.Server.Serve.
func (s *Server) Serve(ln net.Listener) error {
	log.Printf("[httpapi] listening on %s", ln.Addr())
	err := s.http.Serve(ln)
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Shutdown gracefully stops the HTTP listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

// Handler returns the underlying http.Handler, for tests that want to
// drive it with httptest without a real listener.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// handleRequest is the long-poll dequeue: GET /request.
func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.longPollTimeout)
	defer cancel()

	for {
		env, ok, wait := s.state.PopOrWait()
		if ok {
			writeJSON(w, http.StatusOK, env)
			return
		}
		select {
		case <-wait:
			// queue transitioned, loop and try popping again
		case <-ctx.Done():
			w.WriteHeader(http.StatusLocked)
			return
		}
	}
}

// handleResponse ingests a reply: POST /response.
func (s *Server) handleResponse(w http.ResponseWriter, r *http.Request) {
	var reply bridge.Reply
	if !decodeJSON(w, r, &reply) {
		return
	}
	if err := s.state.Reply(reply.ID, reply.Response); err != nil {
		http.Error(w, "unknown id", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// handleProxy is used only by forwarders: POST /proxy enqueues a
// pre-id'd envelope on the primary's queue and blocks until answered.
func (s *Server) handleProxy(w http.ResponseWriter, r *http.Request) {
	var env bridge.Envelope
	if !decodeJSON(w, r, &env) {
		return
	}
	if env.ID == uuid.Nil {
		http.Error(w, "proxy command missing id", http.StatusInternalServerError)
		return
	}

	ch := s.state.EnqueueProxied(env)
	select {
	case response := <-ch:
		writeJSON(w, http.StatusOK, bridge.Reply{ID: env.ID, Response: response})
	case <-r.Context().Done():
		s.state.CancelReply(env.ID)
	}
}

// handleInputPoll drains the fire-and-forget input lane: GET /mcp/input.
func (s *Server) handleInputPoll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, inputCommandsResponse{Commands: s.state.DrainInput()})
}

type inputCommandsResponse struct {
	Commands []bridge.InputCommand `json:"commands"`
}

type inputIngestRequest struct {
	Command bridge.InputCommand `json:"command"`
}

// handleInputIngest accepts a fire-and-forget command: POST /mcp/input.
func (s *Server) handleInputIngest(w http.ResponseWriter, r *http.Request) {
	var req inputIngestRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.state.PushInput(req.Command)
	w.WriteHeader(http.StatusOK)
}

type serverCodeCommandsResponse struct {
	Commands []bridge.ServerCodeCommand `json:"commands"`
}

// handleServerCodePoll drains pending server-code commands: GET /mcp/server_code.
func (s *Server) handleServerCodePoll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, serverCodeCommandsResponse{Commands: s.state.DrainServerCode()})
}

// handleServerCodeIngest accepts a server-code result: POST /mcp/server_code.
func (s *Server) handleServerCodeIngest(w http.ResponseWriter, r *http.Request) {
	var result bridge.ServerCodeResult
	if !decodeJSON(w, r, &result) {
		return
	}
	if err := s.state.ResolveServerCode(result); err != nil {
		http.Error(w, "unknown id", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "invalid JSON body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// newWithTimeout is used by tests to avoid waiting out the real 15s budget.
func newWithTimeout(addr string, state *bridge.SharedState, timeout time.Duration) *Server {
	s := New(addr, state)
	s.longPollTimeout = timeout
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[httpapi] failed to encode response: %v", err)
	}
}
