package bridge

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hyper-ai-inc/studio-mcp-bridge/internal/bridgeerr"
)

// replyBuffer is the channel capacity used for reply delivery. A reply
// that arrives after the caller has already timed out and stopped
// listening must not block the deliverer (C4's /response handler, or the
// forwarder's HTTP response path) — buffering by one lets that send
// complete and the value is simply never read, matching the "late reply
// is dropped" invariant instead of leaking a blocked goroutine.
const replyBuffer = 1

// SharedState is the single logically-atomic bundle described by the
// data model: the primary request queue and its reply channels, the
// input lane, and the server-code lane. One coarse mutex guards
// everything; every operation that touches more than one field
// completes inside a single critical section, and any wakeup pulse is
// issued strictly after that section releases the lock.
type SharedState struct {
	mu       sync.Mutex
	notifier *Notifier

	queue   []Envelope
	replies map[uuid.UUID]chan string

	inputQueue []InputCommand

	serverCodeQueue   []ServerCodeCommand
	serverCodeReplies map[uuid.UUID]chan ServerCodeResult
}

// NewSharedState constructs an empty bundle.
func NewSharedState() *SharedState {
	return &SharedState{
		notifier:          NewNotifier(),
		replies:           make(map[uuid.UUID]chan string),
		serverCodeReplies: make(map[uuid.UUID]chan ServerCodeResult),
	}
}

// Enqueue mints a fresh envelope for args, registers its reply channel,
// pushes it onto the queue, and pulses the notifier — all inside one
// critical section except the pulse itself, which happens strictly
// after the section that made the enqueue visible.
func (s *SharedState) Enqueue(args ToolArgs) (Envelope, <-chan string) {
	env := NewEnvelope(args)
	ch := s.register(env)
	return env, ch
}

// EnqueueProxied registers a caller-supplied envelope (already carrying
// an id, per the forwarder boundary invariant) and returns its reply
// channel. Used by the /proxy handler.
func (s *SharedState) EnqueueProxied(env Envelope) <-chan string {
	return s.register(env)
}

func (s *SharedState) register(env Envelope) <-chan string {
	ch := make(chan string, replyBuffer)
	s.mu.Lock()
	s.queue = append(s.queue, env)
	s.replies[env.ID] = ch
	s.mu.Unlock()
	s.notifier.Pulse()
	return ch
}

// PopOrWait pops the head envelope if the queue is non-empty. Otherwise
// it returns the notifier's current wait channel, captured under the
// same lock that observed the empty queue — the two-phase pattern that
// makes the next Enqueue's pulse impossible to miss.
func (s *SharedState) PopOrWait() (env Envelope, ok bool, wait <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) > 0 {
		env, s.queue = s.queue[0], s.queue[1:]
		return env, true, nil
	}
	return Envelope{}, false, s.notifier.Wait()
}

// Reply delivers response to the caller waiting on id's reply channel
// and removes the map entry. If id is unknown — already answered, timed
// out, or never enqueued — it returns bridgeerr.ErrUnknownReplyID and
// leaves state unchanged: a dropped late reply is logged, not fatal.
func (s *SharedState) Reply(id uuid.UUID, response string) error {
	s.mu.Lock()
	ch, ok := s.replies[id]
	if ok {
		delete(s.replies, id)
	}
	s.mu.Unlock()
	if !ok {
		log.Printf("[bridge] reply for unknown id %s dropped", id)
		return bridgeerr.ErrUnknownReplyID
	}
	ch <- response
	return nil
}

// CancelReply removes id's reply channel without delivering anything,
// for use by a caller that is giving up (timeout or transport error).
// Any reply that arrives afterward is dropped by Reply's ok check above.
func (s *SharedState) CancelReply(id uuid.UUID) {
	s.mu.Lock()
	delete(s.replies, id)
	s.mu.Unlock()
}

// PushInput appends a fire-and-forget input command to the input lane.
func (s *SharedState) PushInput(cmd InputCommand) {
	s.mu.Lock()
	s.inputQueue = append(s.inputQueue, cmd)
	s.mu.Unlock()
}

// DrainInput returns and clears all pending input commands. Called by
// the host's poll of GET /mcp/input; the second call in a row returns
// an empty (non-nil) slice.
func (s *SharedState) DrainInput() []InputCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	drained := s.inputQueue
	s.inputQueue = make([]InputCommand, 0)
	return drained
}

// EnqueueServerCode mints a ServerCodeCommand, registers a reply channel
// keyed by its id, and pushes it onto the server-code lane.
func (s *SharedState) EnqueueServerCode(code string) (ServerCodeCommand, <-chan ServerCodeResult) {
	cmd := ServerCodeCommand{
		ID:          uuid.New(),
		Code:        code,
		TimestampMs: nowMillis(),
	}
	ch := make(chan ServerCodeResult, replyBuffer)
	s.mu.Lock()
	s.serverCodeQueue = append(s.serverCodeQueue, cmd)
	s.serverCodeReplies[cmd.ID] = ch
	s.mu.Unlock()
	return cmd, ch
}

// DrainServerCode returns and clears all pending server-code commands,
// for the host's poll of GET /mcp/server_code.
func (s *SharedState) DrainServerCode() []ServerCodeCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	drained := s.serverCodeQueue
	s.serverCodeQueue = make([]ServerCodeCommand, 0)
	return drained
}

// ResolveServerCode delivers a ServerCodeResult to its matching waiter.
// Unknown ids are logged and reported, mirroring Reply.
func (s *SharedState) ResolveServerCode(result ServerCodeResult) error {
	s.mu.Lock()
	ch, ok := s.serverCodeReplies[result.ID]
	if ok {
		delete(s.serverCodeReplies, result.ID)
	}
	s.mu.Unlock()
	if !ok {
		log.Printf("[bridge] server-code result for unknown id %s dropped", result.ID)
		return bridgeerr.ErrUnknownReplyID
	}
	ch <- result
	return nil
}

// CancelServerCodeReply removes id's server-code reply channel, for a
// caller giving up after a timeout.
func (s *SharedState) CancelServerCodeReply(id uuid.UUID) {
	s.mu.Lock()
	delete(s.serverCodeReplies, id)
	s.mu.Unlock()
}

// QueueLen reports the current primary queue depth. Test/diagnostic use only.
func (s *SharedState) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
