package services

import (
	"context"
	"sync"

	"github.com/renato0307/grove/internal/domain"
)

// sessionGuard holds the per-session exclusive sections.
//
// cmd serializes spawn, input, stop, exit handling and permission delivery
// for one session and may be held across supervisor calls. state guards
// read-modify-write of the persisted status and output log; it is held only
// for short store writes and the output reader takes it, so it must never be
// held while waiting for a process to exit or for a subscriber.
//
// Events produced under state are queued in outbox and published once state
// is released. emit admits one drainer per session, keeping queue order.
type sessionGuard struct {
	cmd   sync.Mutex
	emit  sync.Mutex
	state sync.Mutex

	mu              sync.Mutex
	agentSessionID  string
	cancelProvision context.CancelFunc
	cancelScript    context.CancelFunc
	outbox          []domain.Event
	pid             int
	provisioning    chan struct{}
	turn            uint64
}

func (g *sessionGuard) queue(event domain.Event) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.outbox = append(g.outbox, event)
}

func (g *sessionGuard) hasQueued() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.outbox) > 0
}

func (g *sessionGuard) takeOutbox() []domain.Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	events := g.outbox
	g.outbox = nil
	return events
}

func (g *sessionGuard) startProvisioning(cancel context.CancelFunc) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	done := make(chan struct{})
	g.cancelProvision = cancel
	g.provisioning = done
	return done
}

func (g *sessionGuard) finishProvisioning(done chan struct{}) {
	g.mu.Lock()
	if g.provisioning == done {
		g.cancelProvision = nil
		g.provisioning = nil
	}
	g.mu.Unlock()
	close(done)
}

// startScript records the cancel func of a run script; false when one is already running
func (g *sessionGuard) startScript(cancel context.CancelFunc) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancelScript != nil {
		return false
	}
	g.cancelScript = cancel
	return true
}

func (g *sessionGuard) finishScript() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cancelScript = nil
}

// cancelBackground interrupts provisioning and any run script and returns a
// channel closed once provisioning has returned
func (g *sessionGuard) cancelBackground() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancelProvision != nil {
		g.cancelProvision()
	}
	if g.cancelScript != nil {
		g.cancelScript()
	}
	if g.provisioning == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return g.provisioning
}

// beginTurn numbers a new agent process; exits of older turns are ignored
func (g *sessionGuard) beginTurn() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.turn++
	g.pid = 0
	return g.turn
}

// setProcess records the pid of turn unless a newer turn has begun
func (g *sessionGuard) setProcess(turn uint64, pid int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.turn == turn {
		g.pid = pid
	}
}

// endTurn clears the pid when turn is still the current one
func (g *sessionGuard) endTurn(turn uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.turn != turn {
		return false
	}
	g.pid = 0
	return true
}

// setAgentSession returns the current pid and whether id is new
func (g *sessionGuard) setAgentSession(id string) (int, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.agentSessionID == id {
		return g.pid, false
	}
	g.agentSessionID = id
	return g.pid, true
}

// sessionGuards lazily creates one guard per session id
type sessionGuards struct {
	guards map[string]*sessionGuard
	mu     sync.Mutex
}

func newSessionGuards() *sessionGuards {
	return &sessionGuards{guards: make(map[string]*sessionGuard)}
}

func (s *sessionGuards) get(id string) *sessionGuard {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.guards[id]
	if !ok {
		g = &sessionGuard{}
		s.guards[id] = g
	}
	return g
}

func (s *sessionGuards) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.guards, id)
}
