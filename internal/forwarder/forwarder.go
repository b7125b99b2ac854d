// Package forwarder implements C5: when this instance loses the race to
// bind the fixed loopback port, it still hosts the stdio MCP surface but
// drains its local SharedState by forwarding each envelope over HTTP to
// whichever instance did bind, routing the reply back to the originating
// channel instead of answering it itself.
package forwarder

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/hyper-ai-inc/studio-mcp-bridge/internal/bridge"
	"github.com/hyper-ai-inc/studio-mcp-bridge/internal/bridgeerr"
)

// Loop forwards envelopes popped from state to primaryURL's /proxy
// endpoint until ctx is canceled (stdio EOF / shutdown signal).
type Loop struct {
	state      *bridge.SharedState
	primaryURL string
	client     *http.Client
}

// New builds a forwarder loop targeting primaryURL, e.g.
// "http://127.0.0.1:44755".
func New(state *bridge.SharedState, primaryURL string) *Loop {
	return &Loop{
		state:      state,
		primaryURL: primaryURL,
		client:     &http.Client{Timeout: 35 * time.Second},
	}
}

// Run drains the queue until ctx is canceled. On each iteration it pops
// the head envelope if present; otherwise it awaits the notifier,
// mirroring the long-poll's two-phase wait so no enqueue is missed
// between the empty check and the wait.
func (l *Loop) Run(ctx context.Context) {
	log.Printf("[forwarder] started, relaying to %s", l.primaryURL)
	for {
		select {
		case <-ctx.Done():
			log.Printf("[forwarder] stopping: %v", ctx.Err())
			return
		default:
		}

		env, ok, wait := l.state.PopOrWait()
		if !ok {
			select {
			case <-wait:
			case <-ctx.Done():
				return
			}
			continue
		}

		l.forward(ctx, env)
	}
}

// forward POSTs env to the primary's /proxy endpoint and delivers the
// reply to env's locally registered channel. A failure is logged and
// the local caller simply times out per the dispatcher's own deadline —
// per-envelope forward failure is non-fatal to the loop.
func (l *Loop) forward(ctx context.Context, env bridge.Envelope) {
	body, err := json.Marshal(env)
	if err != nil {
		log.Printf("[forwarder] %v: marshal envelope %s: %v", bridgeerr.ErrForwardFailed, env.ID, err)
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.primaryURL+"/proxy", bytes.NewReader(body))
	if err != nil {
		log.Printf("[forwarder] %v: build request for %s: %v", bridgeerr.ErrForwardFailed, env.ID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		log.Printf("[forwarder] %v: %s: %v", bridgeerr.ErrForwardFailed, env.ID, err)
		return
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[forwarder] %v: reading response for %s: %v", bridgeerr.ErrForwardFailed, env.ID, err)
		return
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[forwarder] %v: %s: primary returned %d: %s", bridgeerr.ErrForwardFailed, env.ID, resp.StatusCode, respBody)
		return
	}

	var reply bridge.Reply
	if err := json.Unmarshal(respBody, &reply); err != nil {
		log.Printf("[forwarder] %v: decoding reply for %s: %v", bridgeerr.ErrForwardFailed, env.ID, err)
		return
	}

	// If the local caller already gave up (its deadline passed and it
	// cancelled its reply entry before the primary answered), Reply
	// returns ErrUnknownReplyID here. That's recoverable, not fatal —
	// log and move on.
	if err := l.state.Reply(reply.ID, reply.Response); err != nil {
		log.Printf("[forwarder] reply for %s arrived with no local waiter: %v", reply.ID, err)
	}
}
