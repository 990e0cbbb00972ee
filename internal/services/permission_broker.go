package services

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/renato0307/grove/internal/domain"
	"github.com/renato0307/grove/internal/logging"
	"github.com/renato0307/grove/internal/metrics"
)

// Deny messages used when a wait ends without an operator decision
const (
	ReasonContextCancelled = "permission request cancelled"
	ReasonTimedOut         = "permission request timed out"
)

// PermissionListener is told when a request becomes visible and when it is resolved.
// Both calls run on the goroutine waiting for the decision, in that order.
type PermissionListener interface {
	OnPermissionRequested(ctx context.Context, request domain.PermissionRequest)
	OnPermissionResolved(ctx context.Context, request domain.PermissionRequest, decision domain.PermissionDecision)
}

type pendingRequest struct {
	active   chan struct{}
	decided  chan domain.PermissionDecision
	request  domain.PermissionRequest
	resolved bool
}

// Ticket is a submitted tool call. Wait blocks until it is decided.
type Ticket struct {
	broker   *PermissionBroker
	decision *domain.PermissionDecision
	pending  *pendingRequest
}

// PermissionBroker queues tool-use requests per session. Only the head of a
// session's queue is visible to operators; the rest wait in arrival order.
type PermissionBroker struct {
	active   map[string]*pendingRequest
	listener PermissionListener
	mu       sync.Mutex
	queues   map[string][]*pendingRequest
	timeout  time.Duration
}

// NewPermissionBroker creates a broker. A zero timeout waits until a decision or cancellation.
func NewPermissionBroker(timeout time.Duration) *PermissionBroker {
	return &PermissionBroker{
		active:  make(map[string]*pendingRequest),
		queues:  make(map[string][]*pendingRequest),
		timeout: timeout,
	}
}

// SetListener registers the listener notified about request visibility and resolution
func (b *PermissionBroker) SetListener(listener PermissionListener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listener = listener
}

// Intercept submits a tool call and waits for its decision
func (b *PermissionBroker) Intercept(
	ctx context.Context,
	sessionID string,
	mode domain.PermissionMode,
	agentRequestID string,
	tool domain.ToolCall,
) domain.PermissionDecision {
	return b.Submit(sessionID, mode, agentRequestID, tool).Wait(ctx)
}

// Submit registers a tool call without blocking. In ignore mode the ticket is
// already decided and no request is created.
func (b *PermissionBroker) Submit(
	sessionID string,
	mode domain.PermissionMode,
	agentRequestID string,
	tool domain.ToolCall,
) *Ticket {
	metrics.PermissionRequests.WithLabelValues(string(mode)).Inc()

	if mode == domain.PermissionModeIgnore {
		decision := domain.Allow(tool.Raw)
		metrics.PermissionDecisions.WithLabelValues(string(decision.Behavior), "false").Inc()
		logging.Logger.Debug("Auto-approving tool call", "session_id", sessionID, "tool", tool.Name)
		return &Ticket{broker: b, decision: &decision}
	}

	p := &pendingRequest{
		active:  make(chan struct{}),
		decided: make(chan domain.PermissionDecision, 1),
		request: domain.PermissionRequest{
			AgentRequestID: agentRequestID,
			CreatedAt:      time.Now().UTC(),
			ID:             uuid.New().String(),
			Input:          tool.Raw,
			SessionID:      sessionID,
			ToolName:       tool.Name,
		},
	}

	b.mu.Lock()
	b.queues[sessionID] = append(b.queues[sessionID], p)
	queued := len(b.queues[sessionID])
	if queued == 1 {
		b.activateLocked(p)
	}
	b.mu.Unlock()

	metrics.PermissionsPending.Inc()
	logging.Logger.Info("Permission request queued",
		"session_id", sessionID, "request_id", p.request.ID, "tool", tool.Name, "position", queued)
	return &Ticket{broker: b, pending: p}
}

// activateLocked makes p visible to operators. Caller must hold b.mu.
func (b *PermissionBroker) activateLocked(p *pendingRequest) {
	b.active[p.request.ID] = p
	close(p.active)
}

// Wait blocks until the ticket is decided, the broker times it out or ctx ends.
// Cancellation and timeout resolve as a deny, never as an error.
func (t *Ticket) Wait(ctx context.Context) domain.PermissionDecision {
	if t.decision != nil {
		return *t.decision
	}
	b, p := t.broker, t.pending

	var decision domain.PermissionDecision
	decided := false
	select {
	case <-p.active:
	case decision = <-p.decided:
		decided = true
	case <-ctx.Done():
		b.resolve(p.request.ID, p, domain.CancelledDeny(ReasonContextCancelled))
		decision = <-p.decided
		decided = true
	}
	if decided && !p.wasActivated() {
		// Cancelled while still queued, never shown to an operator
		return decision
	}

	listener := b.getListener()
	if listener != nil {
		listener.OnPermissionRequested(ctx, p.request)
	}

	if !decided {
		decision = t.awaitDecision(ctx)
	}

	if listener != nil {
		resolved := p.request
		resolved.Resolved = true
		listener.OnPermissionResolved(context.WithoutCancel(ctx), resolved, decision)
	}
	return decision
}

func (t *Ticket) awaitDecision(ctx context.Context) domain.PermissionDecision {
	b, p := t.broker, t.pending

	var timeout <-chan time.Time
	if b.timeout > 0 {
		timer := time.NewTimer(b.timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case decision := <-p.decided:
		return decision
	case <-timeout:
		logging.Logger.Warn("Permission request timed out", "request_id", p.request.ID, "session_id", p.request.SessionID)
		b.resolve(p.request.ID, p, domain.CancelledDeny(ReasonTimedOut))
	case <-ctx.Done():
		b.resolve(p.request.ID, p, domain.CancelledDeny(ReasonContextCancelled))
	}
	return <-p.decided
}

func (p *pendingRequest) wasActivated() bool {
	select {
	case <-p.active:
		return true
	default:
		return false
	}
}

func (b *PermissionBroker) getListener() PermissionListener {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listener
}

// Respond resolves one visible request. Unknown, queued or already resolved
// ids fail with domain.ErrNotFound.
func (b *PermissionBroker) Respond(requestID string, decision domain.PermissionDecision) error {
	if err := decision.Validate(); err != nil {
		return err
	}
	decision.Cancelled = false

	b.mu.Lock()
	p, ok := b.active[requestID]
	b.mu.Unlock()
	if !ok {
		return domain.NotFoundError("permission request", requestID)
	}

	if decision.Behavior == domain.BehaviorAllow && len(decision.UpdatedInput) == 0 {
		decision.UpdatedInput = p.request.Input
	}
	if !b.resolve(requestID, p, decision) {
		return domain.NotFoundError("permission request", requestID)
	}

	logging.Logger.Info("Permission request resolved",
		"request_id", requestID, "session_id", p.request.SessionID, "behavior", decision.Behavior)
	return nil
}

// resolve delivers decision to p exactly once and promotes the next queued
// request of the session. Returns false when p was already resolved.
func (b *PermissionBroker) resolve(requestID string, p *pendingRequest, decision domain.PermissionDecision) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if p.resolved {
		return false
	}
	p.resolved = true
	delete(b.active, requestID)

	sessionID := p.request.SessionID
	queue := b.queues[sessionID]
	for i, q := range queue {
		if q == p {
			queue = append(queue[:i:i], queue[i+1:]...)
			break
		}
	}
	if len(queue) == 0 {
		delete(b.queues, sessionID)
	} else {
		b.queues[sessionID] = queue
		if _, visible := b.active[queue[0].request.ID]; !visible {
			b.activateLocked(queue[0])
		}
	}

	p.decided <- decision
	metrics.PermissionsPending.Dec()
	metrics.PermissionDecisions.WithLabelValues(string(decision.Behavior), strconv.FormatBool(decision.Cancelled)).Inc()
	return true
}

// CancelSession denies every request of a session, visible or queued, with reason.
// Returns the number of requests cancelled.
func (b *PermissionBroker) CancelSession(sessionID, reason string) int {
	b.mu.Lock()
	queue := append([]*pendingRequest(nil), b.queues[sessionID]...)
	b.mu.Unlock()

	cancelled := 0
	// Newest first so cancelling the head never promotes a request about to be cancelled
	for i := len(queue) - 1; i >= 0; i-- {
		if b.resolve(queue[i].request.ID, queue[i], domain.CancelledDeny(reason)) {
			cancelled++
		}
	}

	if cancelled > 0 {
		logging.Logger.Info("Cancelled pending permission requests",
			"session_id", sessionID, "count", cancelled, "reason", reason)
	}
	return cancelled
}

// Get returns a visible request by id
func (b *PermissionBroker) Get(requestID string) (domain.PermissionRequest, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.active[requestID]
	if !ok {
		return domain.PermissionRequest{}, domain.NotFoundError("permission request", requestID)
	}
	return p.request, nil
}

// HasPending reports whether a session has a request awaiting a decision
func (b *PermissionBroker) HasPending(sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.queues[sessionID]) > 0
}

// List returns the visible requests, oldest first. An empty sessionID lists every session.
func (b *PermissionBroker) List(sessionID string) []domain.PermissionRequest {
	b.mu.Lock()
	result := make([]domain.PermissionRequest, 0, len(b.active))
	for _, p := range b.active {
		if sessionID == "" || p.request.SessionID == sessionID {
			result = append(result, p.request)
		}
	}
	b.mu.Unlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}
